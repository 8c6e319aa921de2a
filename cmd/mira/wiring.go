package main

import (
	"context"
	"fmt"

	"github.com/PabloGalante/mira-agent/internal/adapters/llm"
	firestorestore "github.com/PabloGalante/mira-agent/internal/adapters/storage/firestore"
	memstore "github.com/PabloGalante/mira-agent/internal/adapters/storage/memory"
	redisstore "github.com/PabloGalante/mira-agent/internal/adapters/storage/redis"
	"github.com/PabloGalante/mira-agent/internal/app/conversation"
	"github.com/PabloGalante/mira-agent/internal/domain"
	"github.com/PabloGalante/mira-agent/internal/observability"
)

// buildService wires the configured LLM provider and storage backend into a
// conversation service. The returned func releases backend connections.
func (a *app) buildService(ctx context.Context) (*conversation.Service, func() error, error) {
	log := observability.Logger()
	cfg := a.cfg

	llmClient, err := llm.New(ctx, llm.Options{
		Provider:        cfg.LLM.Provider,
		Model:           cfg.LLM.Model,
		APIKey:          cfg.LLM.APIKey,
		BaseURL:         cfg.LLM.BaseURL,
		GCPProject:      cfg.GCP.ProjectID,
		GCPLocation:     cfg.GCP.Location,
		MaxOutputTokens: cfg.LLM.MaxOutputTokens,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("initializing llm provider %s: %w", cfg.LLM.Provider, err)
	}
	log.Info("llm provider ready", "provider", cfg.LLM.Provider, "model", cfg.LLM.Model)

	stores, closeStores, err := buildStores(ctx, a)
	if err != nil {
		return nil, nil, err
	}
	log.Info("storage ready", "backend", cfg.Storage.Backend)

	svc := conversation.NewService(llmClient, stores, conversation.WithTurnTimeout(cfg.LLM.Timeout))
	return svc, closeStores, nil
}

func buildStores(ctx context.Context, a *app) (domain.Stores, func() error, error) {
	noop := func() error { return nil }

	switch a.cfg.Storage.Backend {
	case "firestore":
		fs, err := firestorestore.NewStore(ctx, a.cfg.GCP.ProjectID)
		if err != nil {
			return domain.Stores{}, nil, fmt.Errorf("initializing Firestore store: %w", err)
		}
		return fs.Stores(), fs.Close, nil
	case "redis":
		rs, err := redisstore.NewStore(ctx, a.cfg.Storage.RedisURL, redisstore.WithSessionTTL(a.cfg.Storage.RedisSessionTTL))
		if err != nil {
			return domain.Stores{}, nil, fmt.Errorf("initializing Redis store: %w", err)
		}
		return rs.Stores(), rs.Close, nil
	default:
		return memstore.NewStores(), noop, nil
	}
}
