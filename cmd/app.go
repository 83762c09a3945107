package main

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/xhad/courseplan/internal/logger"
	"github.com/xhad/courseplan/internal/types"
	"github.com/xhad/courseplan/pkg/agents"
	cfgPkg "github.com/xhad/courseplan/pkg/config"
	"github.com/xhad/courseplan/pkg/llm"
	"github.com/xhad/courseplan/pkg/memory"
	"github.com/xhad/courseplan/pkg/pdf"
	"github.com/xhad/courseplan/pkg/processor"
	"github.com/xhad/courseplan/pkg/scraper"
	"github.com/xhad/courseplan/pkg/store"
)

// app owns the long-lived components shared by every request.
type app struct {
	orch    *agents.Orchestrator
	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func newApp(ctx context.Context, cfg *cfgPkg.Config, storeKind string) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	provider := llm.ProviderConfig{
		Provider: cfg.LLM.Provider,
		BaseURL:  cfg.LLM.BaseURL,
		APIKey:   cfg.LLM.APIKey,
	}

	analysisModel, err := llm.NewWithConfig(llm.ChatConfig{
		ProviderConfig: provider,
		Model:          cfg.LLM.Analysis.Model,
		Temperature:    cfg.LLM.Analysis.Temp(),
		MaxTokens:      cfg.LLM.Analysis.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize analysis model: %w", err)
	}

	fastModel, err := llm.NewWithConfig(llm.ChatConfig{
		ProviderConfig: provider,
		Model:          cfg.LLM.Fast.Model,
		Temperature:    cfg.LLM.Fast.Temp(),
		MaxTokens:      cfg.LLM.Fast.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize chat model: %w", err)
	}

	describer, err := llm.NewDescriberWithConfig(llm.DescriberConfig{
		ProviderConfig: provider,
		Model:          cfg.LLM.VisionModel,
		Interval:       cfg.LLM.VisionInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vision model: %w", err)
	}

	embedder, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		ProviderConfig: provider,
		Model:          cfg.Embedding.Model,
		BatchSize:      cfg.Embedding.BatchSize,
	})
	if err != nil {
		return nil, err
	}

	vectors, err := newVectorStore(ctx, cfg, storeKind, embedder)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, vectors.Close)

	sessions, err := newSessionStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if rs, ok := sessions.(*memory.RedisStore); ok {
		a.closers = append(a.closers, func() { _ = rs.Close() })
	}

	extractor := pdf.New()
	proc := processor.NewWithConfig(processor.ProcessorConfig{
		ChunkSize:     cfg.Processor.ChunkSize,
		ChunkOverlap:  cfg.Processor.ChunkOverlap,
		MaxImages:     cfg.Processor.MaxImages,
		MinImageSize:  cfg.Processor.MinImageSize,
		ImageCacheDir: cfg.Processor.ImageCacheDir,
	}, extractor, extractor, describer)

	fetcher := scraper.NewWithConfig(scraper.ScraperConfig{
		RateLimit:      cfg.Scraper.RateLimit,
		IgnorePatterns: cfg.Scraper.IgnorePatterns,
		Timeout:        cfg.Scraper.Timeout,
	})

	a.orch = agents.NewOrchestrator(agents.OrchestratorConfig{
		Ingestion: agents.NewIngestionAgent(proc, vectors),
		Analysis:  agents.NewAnalysisAgent(agents.AnalysisConfig{MaxChars: cfg.Analysis.MaxChars}, analysisModel, analysisModel),
		QA: agents.NewQAAgent(agents.QAConfig{
			TopK:         cfg.QA.TopK,
			HistoryLimit: cfg.QA.HistoryLimit,
		}, fastModel, vectors, sessions),
		Store:    vectors,
		Sessions: sessions,
		Fetcher:  fetcher,
	})

	logger.Infow("components ready",
		"provider", cfg.LLM.Provider,
		"analysis_model", analysisModel.Model(),
		"chat_model", fastModel.Model(),
		"memory", cfg.Memory.Backend)
	return a, nil
}

func newVectorStore(ctx context.Context, cfg *cfgPkg.Config, kind string, embedder embeddings.Embedder) (types.VectorStore, error) {
	if kind == "auto" {
		kind = "memory"
		if cfg.Database.URL != "" {
			kind = "pg"
		}
	}

	switch kind {
	case "memory":
		logger.Warnf("Using in-memory vector store; documents are lost on exit")
		return store.NewMemoryStore(embedder), nil
	case "pg":
		if cfg.Database.URL == "" {
			return nil, fmt.Errorf("database.url is required for the pg store")
		}
		vs, err := store.NewWithConfig(ctx, store.VectorStoreConfig{
			ConnString:  cfg.Database.URL,
			TableName:   cfg.Database.TableName,
			VectorDim:   cfg.Database.VectorDim,
			BatchSize:   cfg.Database.BatchSize,
			SearchLimit: cfg.QA.TopK,
		}, embedder)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize vector store: %w", err)
		}
		return vs, nil
	default:
		return nil, fmt.Errorf("unknown store %q", kind)
	}
}

func newSessionStore(ctx context.Context, cfg *cfgPkg.Config) (types.SessionStore, error) {
	if cfg.Memory.Backend != "redis" {
		return memory.NewInMemoryStore(cfg.Memory.MaxMessages), nil
	}
	rs, err := memory.NewRedisStore(ctx, memory.RedisConfig{
		Addr:        cfg.Memory.RedisAddr,
		Password:    cfg.Memory.RedisPassword,
		DB:          cfg.Memory.RedisDB,
		MaxMessages: cfg.Memory.MaxMessages,
		TTL:         cfg.Memory.TTL,
	})
	if err != nil {
		return nil, err
	}
	return rs, nil
}
