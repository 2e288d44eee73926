package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/respiguard/backend/internal/domain/advisor"
	"github.com/respiguard/backend/internal/domain/auth"
	"github.com/respiguard/backend/internal/domain/chat"
	"github.com/respiguard/backend/internal/domain/emergency"
	"github.com/respiguard/backend/internal/domain/knowledge"
	"github.com/respiguard/backend/internal/domain/profile"
	"github.com/respiguard/backend/internal/infra/airfeed/openweather"
	"github.com/respiguard/backend/internal/infra/config"
	"github.com/respiguard/backend/internal/infra/historystore"
	"github.com/respiguard/backend/internal/infra/knowledge/embedder"
	"github.com/respiguard/backend/internal/infra/knowledge/retriever"
	"github.com/respiguard/backend/internal/infra/knowledge/vecindex"
	"github.com/respiguard/backend/internal/infra/llm/chatgpt"
	"github.com/respiguard/backend/internal/infra/notify/twilio"
	"github.com/respiguard/backend/internal/infra/profilestore"
)

func provideChatGPTClient(cfg *config.Config) (*chatgpt.Client, error) {
	return chatgpt.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL)
}

func provideAdvisorConfig(cfg *config.Config) advisor.Config {
	return advisor.Config{
		Model:             cfg.LLM.Model,
		Temperature:       cfg.LLM.Temperature,
		RetrieveK:         cfg.Advisory.RetrieveK,
		MockOnFeedFailure: cfg.Advisory.MockOnFeedFailure,
	}
}

func provideChatConfig(cfg *config.Config) chat.Config {
	return chat.Config{
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		RetrieveK:   cfg.Chat.RetrieveK,
	}
}

func provideEmergencyConfig(cfg *config.Config) emergency.Config {
	return emergency.Config{
		Model:         cfg.LLM.Model,
		Temperature:   cfg.LLM.Temperature,
		RetrieveK:     cfg.Emergency.RetrieveK,
		FallbackPhone: cfg.Emergency.FallbackPhone,
	}
}

func provideAuthConfig(cfg *config.Config) auth.Config {
	return auth.Config{Secret: cfg.Auth.Secret}
}

func provideFeedClient(cfg *config.Config) *openweather.Client {
	return openweather.NewClient(cfg.AirFeed.BaseURL, cfg.AirFeed.APIKey, cfg.AirFeed.Timeout)
}

func providePostgresPool(cfg *config.Config, logger *slog.Logger) *pgxpool.Pool {
	dsn := strings.TrimSpace(cfg.Postgres.DSN)
	if dsn == "" {
		logger.Info("postgres dsn not set, using in-memory stores")
		return nil
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using in-memory stores", "error", err)
		return nil
	}
	if cfg.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.Postgres.MaxConns
	}
	if cfg.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using in-memory stores", "error", err)
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using in-memory stores", "error", err)
		pool.Close()
		return nil
	}
	logger.Info("postgres pool ready")
	return pool
}

func provideProfileStore(pool *pgxpool.Pool, logger *slog.Logger) profile.Store {
	if pool == nil {
		return profilestore.NewMemoryStore()
	}
	logger.Info("postgres profile store enabled")
	return profilestore.NewPostgresStore(pool)
}

func provideHistory(cfg *config.Config, logger *slog.Logger) chat.History {
	turns := cfg.Chat.HistoryTurns
	if cfg.History.Valkey.Enabled {
		opt, err := buildValkeyOptions(cfg.History.Valkey.Addr)
		if err != nil {
			logger.Error("invalid valkey configuration, falling back to memory history", "error", err)
			return historystore.NewMemoryHistory(turns)
		}
		client, err := valkey.NewClient(opt)
		if err != nil {
			logger.Error("failed to create valkey client, falling back to memory history", "error", err)
			return historystore.NewMemoryHistory(turns)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
			logger.Error("valkey ping failed, falling back to memory history", "error", err)
		} else {
			logger.Info("valkey conversation history enabled", "addr", cfg.History.Valkey.Addr)
			return historystore.NewValkeyHistory(client, "chat", turns)
		}
	}
	return historystore.NewMemoryHistory(turns)
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	var (
		opt valkey.ClientOption
		err error
	)
	if strings.Contains(addr, "://") {
		opt, err = valkey.ParseURL(addr)
	} else {
		opt = valkey.ClientOption{InitAddress: []string{addr}}
	}
	if err != nil {
		return valkey.ClientOption{}, err
	}
	return opt, nil
}

func provideEmbedder(cfg *config.Config, client *chatgpt.Client, logger *slog.Logger) knowledge.Embedder {
	if cfg.Knowledge.Embedder == "hash" {
		logger.Info("deterministic embedder enabled")
		return embedder.NewDeterministicEmbedder(cfg.Knowledge.EmbeddingDim)
	}
	return embedder.NewChatGPTEmbedder(client, cfg.LLM.EmbeddingModel, logger)
}

func provideIndex(pool *pgxpool.Pool, logger *slog.Logger) knowledge.Index {
	if pool == nil {
		return vecindex.NewMemoryIndex()
	}
	logger.Info("pgvector index enabled")
	return vecindex.NewPostgresIndex(pool)
}

func provideRetriever(emb knowledge.Embedder, idx knowledge.Index, logger *slog.Logger) knowledge.Retriever {
	return retriever.New(emb, idx, logger)
}

func provideNotifier(cfg *config.Config, logger *slog.Logger) emergency.Notifier {
	if !cfg.Emergency.Twilio.Enabled {
		return twilio.NewNoopNotifier(logger)
	}
	return twilio.NewNotifier(twilio.Config{
		AccountSID: cfg.Emergency.Twilio.AccountSID,
		AuthToken:  cfg.Emergency.Twilio.AuthToken,
		FromText:   cfg.Emergency.Twilio.FromText,
		FromCall:   cfg.Emergency.Twilio.FromCall,
		BaseURL:    cfg.Emergency.Twilio.BaseURL,
	}, logger)
}
