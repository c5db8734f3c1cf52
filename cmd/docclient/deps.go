package main

import (
	"github.com/legal-assistant/docclient/internal/gateway"
	"github.com/legal-assistant/docclient/internal/llm"
	"github.com/legal-assistant/docclient/internal/session"
	"github.com/legal-assistant/docclient/pkg/circuitbreaker"
	"github.com/legal-assistant/docclient/pkg/config"
	appLogger "github.com/legal-assistant/docclient/pkg/logger"
)

func newGateway(cfg *config.Config) *gateway.Client {
	var opts []gateway.Option

	if cfg.Breaker.Enabled {
		opts = append(opts, gateway.WithBreakers(circuitbreaker.NewSet(circuitbreaker.Config{
			FailureThreshold: cfg.Breaker.FailureThreshold,
			OpenTimeout:      cfg.Breaker.OpenTimeout(),
			Logger:           appLogger.GetLogger(),
		})))
	}

	if cfg.Generative.Provider == "groq" {
		opts = append(opts, gateway.WithGenerativeAnswerer(llm.NewClient(llm.Config{
			APIKey:          cfg.Generative.APIKey,
			BaseURL:         cfg.Generative.BaseURL,
			Model:           cfg.Generative.Model,
			MaxContextChars: cfg.Generative.MaxContextChars,
			Temperature:     cfg.Generative.Temperature,
			MaxTokens:       cfg.Generative.MaxTokens,
			Timeout:         cfg.Generative.Timeout(),
		})))
	}

	return gateway.New(gateway.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout(),
	}, opts...)
}

func sessionOptions(cfg *config.Config, id string, recorder session.Recorder) session.Options {
	return session.Options{
		ID:                  id,
		SummaryMaxTokens:    cfg.Analysis.SummaryMaxTokens,
		GenerativeMaxTokens: cfg.Analysis.GenerativeMaxTokens,
		CombinedMaxTokens:   cfg.Analysis.CombinedMaxTokens,
		RagTopK:             cfg.Analysis.RagTopK,
		DiscardStale:        cfg.Analysis.DiscardStale,
		Recorder:            recorder,
	}
}
