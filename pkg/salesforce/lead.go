package salesforce

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Lead represents a Salesforce Lead record.
type Lead struct {
	ID        string `json:"Id" salesforce:"Id"`
	Email     string `json:"Email" salesforce:"Email"`
	FirstName string `json:"FirstName" salesforce:"FirstName"`
	LastName  string `json:"LastName" salesforce:"LastName"`
	Company   string `json:"Company" salesforce:"Company"`
	Title     string `json:"Title" salesforce:"Title"`
	Phone     string `json:"Phone" salesforce:"Phone"`
	Website   string `json:"Website" salesforce:"Website"`
	Status    string `json:"Status" salesforce:"Status"`
	Rating    string `json:"Rating" salesforce:"Rating"`
}

// leadFields are the SOQL fields selected for Lead queries.
var leadFields = []string{
	"Id", "Email", "FirstName", "LastName", "Company",
	"Title", "Phone", "Website", "Status", "Rating",
}

// FindLeadByEmail queries Salesforce for a Lead matching the given email.
// Returns nil if no lead is found.
func FindLeadByEmail(ctx context.Context, c Client, email string) (*Lead, error) {
	soql := fmt.Sprintf(
		"SELECT %s FROM Lead WHERE Email = '%s' LIMIT 1",
		strings.Join(leadFields, ", "),
		escapeSoql(email),
	)

	var sfLeads []Lead
	if err := c.Query(ctx, soql, &sfLeads); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("sf: find lead by email %s", email))
	}
	if len(sfLeads) == 0 {
		return nil, nil
	}
	return &sfLeads[0], nil
}

// InsertLeads inserts lead records in one collection call.
func InsertLeads(ctx context.Context, c Client, records []map[string]any) ([]CollectionResult, error) {
	if len(records) == 0 {
		return nil, nil
	}
	results, err := c.InsertCollection(ctx, "Lead", records)
	if err != nil {
		return nil, eris.Wrap(err, "sf: insert leads")
	}
	return results, nil
}

// escapeSoql escapes single quotes in SOQL string literals to prevent injection.
func escapeSoql(s string) string {
	return strings.ReplaceAll(s, "'", "\\'")
}
