package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-agent/internal/model"
	"github.com/sells-group/lead-agent/pkg/llm"
)

const enricherSystemPrompt = `You are a data enrichment specialist. Based on the provided lead information and any available data, infer and enrich the lead profile.

For company data, estimate:
- Industry based on domain/company name
- Employee range (1-10, 11-50, 51-200, 201-500, 501-1000, 1000+)
- Location based on any available signals
- Likely technologies used

For contact data, infer:
- Seniority level (entry, mid, senior, executive, c-level)
- Department (sales, marketing, engineering, product, operations, hr, finance, executive)
- Decision-making authority

Be conservative with estimates. Mark as null if insufficient data.

Respond with ONLY valid JSON, no other text:
{"company": {"industry": null, "employee_range": null, "location": null, "technologies": []}, "contact": {"seniority": null, "department": null, "email_verified": false}}`

const enricherUserPrompt = `Enrich this lead:

Email: %s
Name: %s %s
Company: %s
Job Title: %s
Website: %s
LinkedIn: %s

Additional Data:
%s`

// enrichmentSchema type-checks the enrichment response. Both sub-objects are
// optional; a present sub-object with wrongly typed fields is a validation
// failure.
const enrichmentSchema = `{
	"type": "object",
	"properties": {
		"company": {
			"type": ["object", "null"],
			"properties": {
				"name": {"type": ["string", "null"]},
				"domain": {"type": ["string", "null"]},
				"industry": {"type": ["string", "null"]},
				"employee_count": {"type": ["integer", "null"]},
				"employee_range": {"type": ["string", "null"]},
				"revenue_range": {"type": ["string", "null"]},
				"founded_year": {"type": ["integer", "null"]},
				"location": {"type": ["string", "null"]},
				"country": {"type": ["string", "null"]},
				"description": {"type": ["string", "null"]},
				"linkedin_url": {"type": ["string", "null"]},
				"twitter_url": {"type": ["string", "null"]},
				"technologies": {"type": ["array", "null"], "items": {"type": "string"}},
				"funding_total": {"type": ["string", "null"]},
				"funding_stage": {"type": ["string", "null"]}
			}
		},
		"contact": {
			"type": ["object", "null"],
			"properties": {
				"full_name": {"type": ["string", "null"]},
				"email_verified": {"type": ["boolean", "null"]},
				"job_title": {"type": ["string", "null"]},
				"seniority": {"type": ["string", "null"]},
				"department": {"type": ["string", "null"]},
				"linkedin_url": {"type": ["string", "null"]},
				"twitter_url": {"type": ["string", "null"]},
				"location": {"type": ["string", "null"]},
				"bio": {"type": ["string", "null"]}
			}
		}
	}
}`

// EnrichInput carries the contactable fields handed to the enricher.
type EnrichInput struct {
	Email          string
	FirstName      string
	LastName       string
	Company        string
	JobTitle       string
	Website        string
	LinkedInURL    string
	AdditionalData map[string]any
}

// Enricher infers company and contact attributes through the LLM client.
type Enricher struct {
	client llm.Client
}

// NewEnricher creates an Enricher.
func NewEnricher(client llm.Client) *Enricher {
	return &Enricher{client: client}
}

// Enrich builds the enrichment prompt, invokes the model once, and
// reconstructs the optional company and contact sub-records. The result
// carries the ai_enrichment provenance tag; the caller stamps enriched_at.
func (e *Enricher) Enrich(ctx context.Context, in EnrichInput) (*model.EnrichmentData, error) {
	if in.Email == "" {
		return nil, eris.New("enricher: email is required")
	}

	userMsg := fmt.Sprintf(enricherUserPrompt,
		in.Email,
		in.FirstName, in.LastName,
		in.Company,
		in.JobTitle,
		in.Website,
		in.LinkedInURL,
		stringify(in.AdditionalData, "{}"),
	)

	text, err := e.client.Complete(ctx, llm.Request{
		System:   enricherSystemPrompt,
		Messages: []llm.Message{{Role: "user", Content: userMsg}},
	})
	if err != nil {
		return nil, eris.Wrap(err, "enricher: complete")
	}

	doc, err := extractJSON(text)
	if err != nil {
		return nil, eris.Wrap(err, "enricher: extract response")
	}
	if err := validateSchema("enricher", enrichmentSchema, doc); err != nil {
		return nil, err
	}

	var raw struct {
		Company *model.CompanyData `json:"company"`
		Contact *model.ContactData `json:"contact"`
	}
	if err := json.Unmarshal(doc, &raw); err != nil {
		return nil, eris.Wrap(err, "enricher: parse response")
	}

	result := &model.EnrichmentData{
		Company: raw.Company,
		Contact: raw.Contact,
		Source:  model.EnrichmentSource,
	}

	zap.L().Debug("enricher: lead enriched",
		zap.String("email", in.Email),
		zap.Bool("company", result.Company != nil),
		zap.Bool("contact", result.Contact != nil),
	)

	return result, nil
}
