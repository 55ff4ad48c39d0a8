package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func enrichInput() EnrichInput {
	return EnrichInput{
		Email:     "jane@acme.io",
		FirstName: "Jane",
		LastName:  "Doe",
		Company:   "Acme",
	}
}

func TestEnricher_Success(t *testing.T) {
	client := &stubClient{response: `{
		"company": {
			"industry": "saas",
			"employee_range": "51-200",
			"employee_count": 120,
			"location": "Austin, TX",
			"technologies": ["salesforce", "hubspot"]
		},
		"contact": {
			"seniority": "executive",
			"department": "engineering",
			"email_verified": false
		}
	}`}

	result, err := NewEnricher(client).Enrich(context.Background(), enrichInput())
	require.NoError(t, err)
	require.NotNil(t, result.Company)
	require.NotNil(t, result.Contact)
	assert.Equal(t, "saas", result.Company.Industry)
	assert.Equal(t, "51-200", result.Company.EmployeeRange)
	require.NotNil(t, result.Company.EmployeeCount)
	assert.Equal(t, 120, *result.Company.EmployeeCount)
	assert.Equal(t, []string{"salesforce", "hubspot"}, result.Company.Technologies)
	assert.Equal(t, "executive", result.Contact.Seniority)
	assert.Equal(t, "ai_enrichment", result.Source)
}

func TestEnricher_ContactOnly(t *testing.T) {
	client := &stubClient{response: `{
		"company": null,
		"contact": {"seniority": "mid", "department": "sales", "email_verified": true}
	}`}

	result, err := NewEnricher(client).Enrich(context.Background(), enrichInput())
	require.NoError(t, err)
	assert.Nil(t, result.Company)
	require.NotNil(t, result.Contact)
	assert.Equal(t, "mid", result.Contact.Seniority)
	assert.True(t, result.Contact.EmailVerified)
	assert.Equal(t, "ai_enrichment", result.Source)
}

func TestEnricher_NullFieldsTolerated(t *testing.T) {
	client := &stubClient{response: `{
		"company": {"industry": null, "employee_range": null, "location": null, "technologies": []},
		"contact": {"seniority": null, "department": null, "email_verified": false}
	}`}

	result, err := NewEnricher(client).Enrich(context.Background(), enrichInput())
	require.NoError(t, err)
	require.NotNil(t, result.Company)
	assert.Empty(t, result.Company.Industry)
	assert.Nil(t, result.Company.EmployeeCount)
}

func TestEnricher_SchemaViolation(t *testing.T) {
	// employee_count must be an integer when present.
	client := &stubClient{response: `{"company": {"employee_count": "about fifty"}}`}

	_, err := NewEnricher(client).Enrich(context.Background(), enrichInput())
	require.Error(t, err)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "enricher", vErr.Agent)
}

func TestEnricher_EmailRequired(t *testing.T) {
	client := &stubClient{response: `{}`}

	_, err := NewEnricher(client).Enrich(context.Background(), EnrichInput{})
	require.Error(t, err)
	assert.Equal(t, 0, client.calls)
}

func TestEnricher_ClientErrorPropagates(t *testing.T) {
	client := &stubClient{err: assert.AnError}

	_, err := NewEnricher(client).Enrich(context.Background(), enrichInput())
	assert.ErrorIs(t, err, assert.AnError)
}
