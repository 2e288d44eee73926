//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/respiguard/backend/internal/bootstrap"
	"github.com/respiguard/backend/internal/domain/advisor"
	"github.com/respiguard/backend/internal/domain/auth"
	"github.com/respiguard/backend/internal/domain/chat"
	"github.com/respiguard/backend/internal/domain/emergency"
	"github.com/respiguard/backend/internal/infra/airfeed/openweather"
	"github.com/respiguard/backend/internal/infra/config"
	"github.com/respiguard/backend/internal/infra/llm/chatgpt"
	httpiface "github.com/respiguard/backend/internal/interface/http"
	"github.com/respiguard/backend/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideChatGPTClient,
		provideAdvisorConfig,
		provideChatConfig,
		provideEmergencyConfig,
		provideAuthConfig,
		provideFeedClient,
		providePostgresPool,
		provideProfileStore,
		provideHistory,
		provideEmbedder,
		provideIndex,
		provideRetriever,
		provideNotifier,
		advisor.NewService,
		chat.NewService,
		emergency.NewService,
		auth.NewVerifier,
		wire.Bind(new(advisor.ChatClient), new(*chatgpt.Client)),
		wire.Bind(new(advisor.FeedClient), new(*openweather.Client)),
		wire.Bind(new(chat.ChatClient), new(*chatgpt.Client)),
		wire.Bind(new(emergency.ChatClient), new(*chatgpt.Client)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
