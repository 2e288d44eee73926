package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/respiguard/backend/internal/domain/airquality"
	"github.com/respiguard/backend/internal/domain/knowledge"
	"github.com/respiguard/backend/internal/domain/profile"
	"github.com/respiguard/backend/internal/domain/prompt"
	"github.com/respiguard/backend/internal/infra/llm/chatgpt"
	apperrors "github.com/respiguard/backend/pkg/errors"
	"github.com/respiguard/backend/pkg/util"
)

const advisoryQuestion = "Based on the provided guidelines, what specific health precautions and activity restrictions should be taken?"

// mockReading is served when the feed is down and mock fallback is enabled.
var mockReading = airquality.Reading{PM25: 75.4, SourceIndex: 5}

// Service exposes the morning-advisory pipeline.
type Service interface {
	Advise(ctx context.Context, req Request) (Response, error)
}

// ChatClient is the narrow slice of the LLM client the advisor needs.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error)
}

// FeedClient fetches a live pollutant reading for a coordinate.
type FeedClient interface {
	Reading(ctx context.Context, lat, lon float64) (airquality.Reading, error)
}

type service struct {
	cfg       Config
	client    ChatClient
	feed      FeedClient
	retriever knowledge.Retriever
	profiles  profile.Store
	logger    *slog.Logger
	now       func() time.Time
}

// NewService wires up the advisory domain.
func NewService(cfg Config, feed FeedClient, retriever knowledge.Retriever, profiles profile.Store, client ChatClient, logger *slog.Logger) Service {
	return &service{
		cfg:       cfg,
		client:    client,
		feed:      feed,
		retriever: retriever,
		profiles:  profiles,
		logger:    logger.With("component", "advisor.service"),
		now:       util.NowUTC,
	}
}

func (s *service) Advise(ctx context.Context, req Request) (Response, error) {
	reading, err := s.feed.Reading(ctx, req.Lat, req.Lon)
	if err != nil {
		if !s.cfg.MockOnFeedFailure {
			return Response{}, apperrors.Wrap("feed_unavailable", "failed to fetch live air quality", err)
		}
		s.logger.Warn("air feed unavailable, serving mock reading", "error", err)
		reading = mockReading
	}

	idx, err := airquality.Compute(reading.PM25)
	if err != nil {
		return Response{}, err
	}

	profileText := strings.TrimSpace(req.UserProfile)
	if profileText == "" {
		profileText = s.profileText(ctx, req.UserID)
	}

	aqi := AQIData{
		AQIIndex:  reading.SourceIndex,
		PM25:      reading.PM25,
		IndianAQI: idx.Value,
		Category:  string(idx.Category),
	}
	aqiJSON, err := json.Marshal(aqi)
	if err != nil {
		return Response{}, apperrors.Wrap("llm_error", "failed to encode aqi snapshot", err)
	}

	query := fmt.Sprintf(
		"Current Status: Indian NAQI is %d (Category: %s). PM2.5 concentration is %g µg/m³. Patient Profile: %s. QUESTION: %s",
		idx.Value, idx.Category, reading.PM25, profileText, advisoryQuestion,
	)

	k := s.cfg.RetrieveK
	if k <= 0 {
		k = 3
	}
	passages, err := s.retriever.Retrieve(ctx, query, k)
	if err != nil {
		return Response{}, apperrors.Wrap("retrieval_error", "knowledge base search failed", err)
	}

	promptText := prompt.Advisory(prompt.AdvisorySlots{
		Context:     knowledge.FormatPassages(passages),
		UserProfile: profileText,
		AQIData:     string(aqiJSON),
		Question:    advisoryQuestion,
	})

	completion, err := s.client.CreateChatCompletion(ctx, chatgpt.ChatCompletionRequest{
		Model:       s.cfg.Model,
		Messages:    []chatgpt.Message{{Role: "user", Content: promptText}},
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return Response{}, apperrors.Wrap("llm_error", "advisory completion failed", err)
	}
	if len(completion.Choices) == 0 {
		return Response{}, apperrors.Wrap("llm_error", "advisory completion returned no choices", nil)
	}

	advisory, parsed := decodeAdvisory(completion.Choices[0].Message.Content)
	if !parsed {
		s.logger.Warn("advisory json parse degraded to raw text", "user_id", req.UserID)
	}

	s.persistSnapshot(ctx, req.UserID, idx)

	return Response{AQI: aqi, Advisory: advisory}, nil
}

func (s *service) profileText(ctx context.Context, userID string) string {
	p, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		s.logger.Warn("profile lookup failed, using default", "user_id", userID, "error", err)
		return profile.DefaultDescription
	}
	return p.Describe()
}

// persistSnapshot saves the computed index against the user. Best effort:
// a write failure must never fail the advisory response.
func (s *service) persistSnapshot(ctx context.Context, userID string, idx airquality.Index) {
	if strings.TrimSpace(userID) == "" {
		return
	}
	if err := s.profiles.SaveLatestAQI(ctx, userID, idx, s.now()); err != nil {
		s.logger.Warn("latest aqi snapshot save failed", "user_id", userID, "error", err)
	}
}

// decodeAdvisory strips a single markdown fence if the model added one and
// decodes the advisory JSON. Any decode failure degrades to a raw-text
// advisory rather than an error; callers never see malformed-JSON failures.
// The second result reports whether structured decoding succeeded.
func decodeAdvisory(raw string) (Advisory, bool) {
	sanitized := strings.TrimSpace(raw)
	sanitized = strings.TrimPrefix(sanitized, "```json")
	sanitized = strings.TrimPrefix(sanitized, "```")
	sanitized = strings.TrimSuffix(sanitized, "```")
	sanitized = strings.TrimSpace(sanitized)

	var wire struct {
		AdvisoryText string              `json:"advisory_text"`
		Activities   map[string]Activity `json:"activities"`
	}
	if err := json.Unmarshal([]byte(sanitized), &wire); err != nil {
		return Advisory{AdvisoryText: sanitized, Activities: map[string]Activity{}}, false
	}
	if wire.Activities == nil {
		wire.Activities = map[string]Activity{}
	}
	return Advisory{AdvisoryText: wire.AdvisoryText, Activities: wire.Activities}, true
}
