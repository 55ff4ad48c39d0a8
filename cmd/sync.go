package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lead-agent/internal/model"
	"github.com/sells-group/lead-agent/internal/store"
	sfpkg "github.com/sells-group/lead-agent/pkg/salesforce"
)

var syncTier string

// sfRating maps internal tiers onto the standard Salesforce Lead ratings.
var sfRating = map[string]string{
	model.TierHot:  "Hot",
	model.TierWarm: "Warm",
	model.TierCold: "Cold",
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push scored leads to Salesforce",
	Long:  "Queries leads in the given tier and inserts the ones Salesforce does not already have as Lead objects.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if !model.ValidTier(syncTier) {
			return eris.Errorf("unknown tier: %s", syncTier)
		}

		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()

		sf, err := initSalesforce()
		if err != nil {
			return err
		}

		candidates, err := st.ListLeads(ctx, store.LeadFilter{Tier: syncTier, Limit: 200})
		if err != nil {
			return err
		}

		var records []map[string]any
		skipped := 0
		for _, lead := range candidates {
			existing, err := sfpkg.FindLeadByEmail(ctx, sf, lead.Email)
			if err != nil {
				return err
			}
			if existing != nil {
				skipped++
				continue
			}
			records = append(records, leadRecord(lead))
		}

		results, err := sfpkg.InsertLeads(ctx, sf, records)
		if err != nil {
			return err
		}

		inserted, failed := 0, 0
		for _, r := range results {
			if r.Success {
				inserted++
			} else {
				failed++
				zap.L().Warn("sync: insert failed", zap.Strings("errors", r.Errors))
			}
		}

		zap.L().Info("sync complete",
			zap.String("tier", syncTier),
			zap.Int("inserted", inserted),
			zap.Int("already_in_crm", skipped),
			zap.Int("failed", failed),
		)
		return nil
	},
}

func leadRecord(lead model.Lead) map[string]any {
	lastName := lead.LastName
	if lastName == "" {
		// LastName is mandatory on the Salesforce Lead object.
		lastName = "Unknown"
	}
	company := lead.Company
	if company == "" {
		company = "Unknown"
	}

	record := map[string]any{
		"Email":      lead.Email,
		"FirstName":  lead.FirstName,
		"LastName":   lastName,
		"Company":    company,
		"Title":      lead.JobTitle,
		"Phone":      lead.Phone,
		"Website":    lead.Website,
		"LeadSource": string(lead.Source),
	}
	if lead.ScoreTier != nil {
		if rating, ok := sfRating[*lead.ScoreTier]; ok {
			record["Rating"] = rating
		}
	}
	return record
}

func init() {
	syncCmd.Flags().StringVar(&syncTier, "tier", model.TierHot, "score tier to push (hot, warm, cold)")
	rootCmd.AddCommand(syncCmd)
}
