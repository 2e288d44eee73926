package chat

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/respiguard/backend/internal/domain/knowledge"
	"github.com/respiguard/backend/internal/domain/profile"
	"github.com/respiguard/backend/internal/domain/prompt"
	"github.com/respiguard/backend/internal/infra/llm/chatgpt"
	apperrors "github.com/respiguard/backend/pkg/errors"
	"github.com/respiguard/backend/pkg/metrics"
)

// Service exposes the ask-a-doctor conversational pipeline.
type Service interface {
	Ask(ctx context.Context, req Request) (Response, error)
}

// ChatClient is the narrow slice of the LLM client the chat domain needs.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error)
}

type service struct {
	cfg       Config
	client    ChatClient
	retriever knowledge.Retriever
	profiles  profile.Store
	history   History
	logger    *slog.Logger
}

// NewService wires up the chat domain.
func NewService(cfg Config, retriever knowledge.Retriever, profiles profile.Store, history History, client ChatClient, logger *slog.Logger) Service {
	return &service{
		cfg:       cfg,
		client:    client,
		retriever: retriever,
		profiles:  profiles,
		history:   history,
		logger:    logger.With("component", "chat.service"),
	}
}

func (s *service) Ask(ctx context.Context, req Request) (Response, error) {
	question := strings.TrimSpace(req.Query)
	if question == "" {
		return Response{}, apperrors.Wrap("invalid_input", "query cannot be empty", nil)
	}
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	turns, err := s.history.Recent(ctx, sessionID)
	if err != nil {
		s.logger.Warn("history load failed, continuing without it", "session_id", sessionID, "error", err)
		turns = nil
	}

	k := s.cfg.RetrieveK
	if k <= 0 {
		k = 3
	}
	passages, err := s.retriever.Retrieve(ctx, question, k)
	if err != nil {
		return Response{}, apperrors.Wrap("retrieval_error", "knowledge base search failed", err)
	}

	promptText := prompt.Chat(prompt.ChatSlots{
		Context:     knowledge.FormatPassages(passages),
		UserProfile: s.profileText(ctx, req.UserID),
		AQIData:     s.aqiContext(ctx, req),
		History:     RenderHistory(turns),
		Question:    question,
	})

	completion, err := s.client.CreateChatCompletion(ctx, chatgpt.ChatCompletionRequest{
		Model:       s.cfg.Model,
		Messages:    []chatgpt.Message{{Role: "user", Content: promptText}},
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return Response{}, apperrors.Wrap("llm_error", "chat completion failed", err)
	}
	if len(completion.Choices) == 0 {
		return Response{}, apperrors.Wrap("llm_error", "chat completion returned no choices", nil)
	}
	answer := completion.Choices[0].Message.Content

	// Model output passes through verbatim; the only post-step is the
	// best-effort history append.
	if err := s.history.Append(ctx, sessionID, Turn{UserMessage: question, AssistantMessage: answer}); err != nil {
		s.logger.Warn("history append failed", "session_id", sessionID, "error", err)
	}

	return Response{
		SessionID: sessionID,
		Answer:    answer,
		Usage: metrics.TokenUsage{
			PromptTokens:     completion.Usage.PromptTokens,
			CompletionTokens: completion.Usage.CompletionTokens,
			TotalTokens:      completion.Usage.TotalTokens,
		},
	}, nil
}

func (s *service) profileText(ctx context.Context, userID string) string {
	if strings.TrimSpace(userID) == "" {
		return profile.DefaultDescription
	}
	p, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		s.logger.Warn("profile lookup failed, using default", "user_id", userID, "error", err)
		return profile.DefaultDescription
	}
	return p.Describe()
}

// aqiContext prefers the caller-supplied snapshot and otherwise falls back to
// the latest persisted index for the user.
func (s *service) aqiContext(ctx context.Context, req Request) string {
	if ctxText := strings.TrimSpace(req.AQIContext); ctxText != "" {
		return ctxText
	}
	if strings.TrimSpace(req.UserID) == "" {
		return "Unknown"
	}
	idx, at, ok, err := s.profiles.LatestAQI(ctx, req.UserID)
	if err != nil || !ok {
		if err != nil {
			s.logger.Warn("latest aqi lookup failed", "user_id", req.UserID, "error", err)
		}
		return "Unknown"
	}
	return "Indian NAQI " + strconv.Itoa(idx.Value) + " (" + string(idx.Category) + ") as of " + at.UTC().Format("2006-01-02 15:04 MST")
}

// RenderHistory writes turns as alternating User/Assistant lines in
// chronological order, the shape the chat template expects.
func RenderHistory(turns []Turn) string {
	if len(turns) == 0 {
		return "(no previous messages)"
	}
	var b strings.Builder
	for i, turn := range turns {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("User: ")
		b.WriteString(turn.UserMessage)
		b.WriteString("\nAssistant: ")
		b.WriteString(turn.AssistantMessage)
	}
	return b.String()
}
