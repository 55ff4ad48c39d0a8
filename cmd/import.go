package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lead-agent/internal/leads"
	"github.com/sells-group/lead-agent/internal/store"
)

var importFilePath string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import leads from an XLSX spreadsheet",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate")
		}

		result, err := leads.ImportXLSX(ctx, st, importFilePath)
		if err != nil {
			return eris.Wrap(err, "import xlsx")
		}

		zap.L().Info("import complete",
			zap.Int("imported", result.Imported),
			zap.Int("duplicates", result.Duplicates),
			zap.Int("skipped", result.Skipped),
			zap.String("file", importFilePath),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importFilePath, "file", "", "path to XLSX file (required)")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}
