package emergency

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/respiguard/backend/internal/domain/knowledge"
	"github.com/respiguard/backend/internal/domain/profile"
	"github.com/respiguard/backend/internal/domain/prompt"
	"github.com/respiguard/backend/internal/infra/llm/chatgpt"
	apperrors "github.com/respiguard/backend/pkg/errors"
)

// cannedQuestion is the only text ever routed into the SOS prompt's question
// slot. Keeping it fixed makes the emergency path deterministic and immune to
// prompt injection from a panicking user.
const cannedQuestion = "Immediate emergency steps for respiratory distress"

const statusSkipped = "Skipped"

// Service exposes the SOS voice-guidance pipeline.
type Service interface {
	Trigger(ctx context.Context, req Request) (Response, error)
}

// ChatClient is the narrow slice of the LLM client the SOS domain needs.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error)
}

type service struct {
	cfg       Config
	client    ChatClient
	retriever knowledge.Retriever
	profiles  profile.Store
	notifier  Notifier
	logger    *slog.Logger
}

// NewService wires up the SOS domain.
func NewService(cfg Config, retriever knowledge.Retriever, profiles profile.Store, notifier Notifier, client ChatClient, logger *slog.Logger) Service {
	return &service{
		cfg:       cfg,
		client:    client,
		retriever: retriever,
		profiles:  profiles,
		notifier:  notifier,
		logger:    logger.With("component", "emergency.service"),
	}
}

func (s *service) Trigger(ctx context.Context, req Request) (Response, error) {
	p := s.loadProfile(ctx, req.UserID)
	locationLink := locationLink(req.Lat, req.Lon)
	guardianPhone := profile.SanitizePhone(p.EmergencyPhone)
	if guardianPhone == "" {
		guardianPhone = profile.SanitizePhone(s.cfg.FallbackPhone)
	}

	s.logger.Info("sos triggered", "user_id", req.UserID, "condition", p.Condition)

	voiceText, err := s.generateGuidance(ctx, p)
	if err != nil {
		return Response{}, err
	}

	resp := Response{
		Status:        "SOS Activated",
		VoiceText:     voiceText,
		GuardianPhone: guardianPhone,
		LocationLink:  locationLink,
		MessageStatus: statusSkipped,
		CallStatus:    statusSkipped,
	}

	if s.notifier != nil && guardianPhone != "" {
		resp.MessageStatus = s.notifier.SendText(ctx, alertMessage(p, locationLink), guardianPhone)
		resp.CallStatus = s.notifier.PlaceCall(ctx, callScript(p), guardianPhone)
	}

	return resp, nil
}

// generateGuidance builds the SOS prompt from the profile subset and the
// fixed canned question, then asks the model for the five spoken commands.
func (s *service) generateGuidance(ctx context.Context, p profile.Profile) (string, error) {
	k := s.cfg.RetrieveK
	if k <= 0 {
		k = 3
	}
	passages, err := s.retriever.Retrieve(ctx, cannedQuestion, k)
	if err != nil {
		return "", apperrors.Wrap("retrieval_error", "knowledge base search failed", err)
	}

	promptText := prompt.Emergency(prompt.EmergencySlots{
		Context:   knowledge.FormatPassages(passages),
		UserAge:   p.Age,
		Condition: p.Condition,
		Meds:      p.Medications,
		Question:  cannedQuestion,
	})

	completion, err := s.client.CreateChatCompletion(ctx, chatgpt.ChatCompletionRequest{
		Model:       s.cfg.Model,
		Messages:    []chatgpt.Message{{Role: "user", Content: promptText}},
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return "", apperrors.Wrap("llm_error", "sos completion failed", err)
	}
	if len(completion.Choices) == 0 {
		return "", apperrors.Wrap("llm_error", "sos completion returned no choices", nil)
	}
	return completion.Choices[0].Message.Content, nil
}

func (s *service) loadProfile(ctx context.Context, userID string) profile.Profile {
	if strings.TrimSpace(userID) == "" {
		return profile.FallbackProfile(userID)
	}
	p, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		s.logger.Warn("profile lookup failed, using fallback", "user_id", userID, "error", err)
		return profile.FallbackProfile(userID)
	}
	return p
}

func locationLink(lat, lon *float64) string {
	if lat == nil || lon == nil {
		return "GPS Unavailable"
	}
	return fmt.Sprintf("https://www.google.com/maps/search/?api=1&query=%g,%g", *lat, *lon)
}

// alertMessage is the guardian text notification body.
func alertMessage(p profile.Profile, locationLink string) string {
	return fmt.Sprintf(
		"SOS: RESPIRATORY EMERGENCY\n"+
			"Patient: %s (%s)\n"+
			"Condition: %s\n"+
			"Meds: %s\n\n"+
			"Location: %s\n"+
			"ACTION: Call & Help Immediately!",
		p.Name, p.Age, p.Condition, p.Medications, locationLink,
	)
}

// callScript is the voice-call text read to the guardian.
func callScript(p profile.Profile) string {
	return fmt.Sprintf(
		"Emergency Alert! %s is in respiratory distress. They have a history of %s. "+
			"Their location and medication details have been sent to your phone. Please act immediately.",
		p.Name, p.Condition,
	)
}
