package main

import (
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/lead-agent/internal/store"
)

var scoreByEmail string

var scoreCmd = &cobra.Command{
	Use:   "score [lead-id]",
	Short: "Score a single lead and print the updated record",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if len(args) == 0 && scoreByEmail == "" {
			return eris.New("a lead id or --email is required")
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		id := ""
		if len(args) > 0 {
			id = args[0]
		} else {
			lead, err := env.Store.GetLeadByEmail(ctx, scoreByEmail)
			if err != nil {
				if eris.Is(err, store.ErrNotFound) {
					return eris.Errorf("no lead with email %s", scoreByEmail)
				}
				return err
			}
			id = lead.ID
		}

		lead, err := env.Service.ScoreLead(ctx, id)
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(lead, "", "  ")
		if err != nil {
			return eris.Wrap(err, "marshal lead")
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	scoreCmd.Flags().StringVar(&scoreByEmail, "email", "", "look the lead up by email instead of id")
	rootCmd.AddCommand(scoreCmd)
}
