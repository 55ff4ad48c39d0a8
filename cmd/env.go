package main

import (
	"context"

	"github.com/rotisserie/eris"
	sfsdk "github.com/k-capehart/go-salesforce/v3"

	"github.com/sells-group/lead-agent/internal/agent"
	"github.com/sells-group/lead-agent/internal/leads"
	"github.com/sells-group/lead-agent/internal/store"
	"github.com/sells-group/lead-agent/pkg/llm"
	sfpkg "github.com/sells-group/lead-agent/pkg/salesforce"
)

// env bundles the wired components shared by the commands.
type env struct {
	Store   store.Store
	Service *leads.Service
}

func (e *env) Close() {
	_ = e.Store.Close()
}

func initEnv(ctx context.Context) (*env, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	client, err := llm.New(llm.Config{
		Provider:       cfg.LLM.Provider,
		AnthropicKey:   cfg.LLM.AnthropicKey,
		AnthropicModel: cfg.LLM.AnthropicModel,
		OpenAIKey:      cfg.LLM.OpenAIKey,
		OpenAIModel:    cfg.LLM.OpenAIModel,
		OpenAIBaseURL:  cfg.LLM.OpenAIBaseURL,
		OllamaBaseURL:  cfg.LLM.OllamaBaseURL,
		OllamaModel:    cfg.LLM.OllamaModel,
		MaxTokens:      cfg.LLM.MaxTokens,
		RatePerSec:     cfg.LLM.RatePerSec,
	})
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	svc := leads.NewService(st,
		agent.NewScorer(client),
		agent.NewEnricher(client),
		agent.NewIntentAnalyzer(client),
	)

	return &env{Store: st, Service: svc}, nil
}

func initSalesforce() (sfpkg.Client, error) {
	if cfg.Salesforce.ConsumerKey == "" {
		return nil, eris.New("salesforce consumer key is required (LEADAGENT_SALESFORCE_CONSUMER_KEY)")
	}

	sf, err := sfsdk.Init(sfsdk.Creds{
		Domain:         cfg.Salesforce.Domain,
		ConsumerKey:    cfg.Salesforce.ConsumerKey,
		ConsumerSecret: cfg.Salesforce.ConsumerSecret,
	})
	if err != nil {
		return nil, eris.Wrap(err, "init salesforce")
	}

	return sfpkg.NewClient(sf, sfpkg.WithRateLimit(cfg.Salesforce.RatePerSec)), nil
}
