package model

import "encoding/json"

// EnrichmentSource is the provenance tag stamped on AI-derived enrichment.
const EnrichmentSource = "ai_enrichment"

// CompanyData holds inferred company attributes. Every field is optional;
// the model is instructed to prefer null over guessing.
type CompanyData struct {
	Name          string   `json:"name,omitempty"`
	Domain        string   `json:"domain,omitempty"`
	Industry      string   `json:"industry,omitempty"`
	EmployeeCount *int     `json:"employee_count,omitempty"`
	EmployeeRange string   `json:"employee_range,omitempty"`
	RevenueRange  string   `json:"revenue_range,omitempty"`
	FoundedYear   *int     `json:"founded_year,omitempty"`
	Location      string   `json:"location,omitempty"`
	Country       string   `json:"country,omitempty"`
	Description   string   `json:"description,omitempty"`
	LinkedInURL   string   `json:"linkedin_url,omitempty"`
	TwitterURL    string   `json:"twitter_url,omitempty"`
	Technologies  []string `json:"technologies,omitempty"`
	FundingTotal  string   `json:"funding_total,omitempty"`
	FundingStage  string   `json:"funding_stage,omitempty"`
}

// ContactData holds inferred contact attributes.
type ContactData struct {
	FullName      string `json:"full_name,omitempty"`
	EmailVerified bool   `json:"email_verified"`
	JobTitle      string `json:"job_title,omitempty"`
	Seniority     string `json:"seniority,omitempty"`
	Department    string `json:"department,omitempty"`
	LinkedInURL   string `json:"linkedin_url,omitempty"`
	TwitterURL    string `json:"twitter_url,omitempty"`
	Location      string `json:"location,omitempty"`
	Bio           string `json:"bio,omitempty"`
}

// EnrichmentData is the transient result of one enrichment pass. It is
// flattened into the lead's enrichment_data blob, never persisted on its own.
// EnrichedAt is stamped by the caller at merge time, not by the enricher.
type EnrichmentData struct {
	Company *CompanyData `json:"company,omitempty"`
	Contact *ContactData `json:"contact,omitempty"`
	Source  string       `json:"source,omitempty"`
}

// Flatten converts the enrichment result into the map shape stored on the
// lead record.
func (e *EnrichmentData) Flatten() map[string]any {
	raw, err := json.Marshal(e)
	if err != nil {
		return map[string]any{"source": e.Source}
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]any{"source": e.Source}
	}
	return out
}
