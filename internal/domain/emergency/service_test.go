package emergency

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/respiguard/backend/internal/domain/airquality"
	"github.com/respiguard/backend/internal/domain/knowledge"
	"github.com/respiguard/backend/internal/domain/profile"
	"github.com/respiguard/backend/internal/infra/llm/chatgpt"
	apperrors "github.com/respiguard/backend/pkg/errors"
)

func TestTriggerSuccess(t *testing.T) {
	chatStub := newChatStub("1. Sit up now.\n2. Loosen your collar.\n3. Take 4 puffs now.\n4. Breathe out slowly.\n5. Help is coming.")
	retriever := &stubRetriever{passages: []knowledge.Passage{{Content: "Asthma first aid", Source: "GINA"}}}
	notifier := &stubNotifier{textStatus: "WhatsApp Sent (SM123)", callStatus: "Calling (CA456)"}
	profiles := &stubProfileStore{p: profile.Profile{
		Name: "Arnab", Age: "20", Condition: "Bronchial Asthma",
		Medications: "Budesonide, Salbutamol (SOS)", EmergencyPhone: "+91 99074 01925",
	}}

	lat, lon := 22.57, 88.36
	svc := newTestService(chatStub, retriever, profiles, notifier)

	resp, err := svc.Trigger(context.Background(), Request{UserID: "u1", Lat: &lat, Lon: &lon})
	require.NoError(t, err)

	require.Equal(t, "SOS Activated", resp.Status)
	require.Contains(t, resp.VoiceText, "Sit up now")
	require.Equal(t, "+919907401925", resp.GuardianPhone)
	require.Equal(t, "https://www.google.com/maps/search/?api=1&query=22.57,88.36", resp.LocationLink)
	require.Equal(t, "WhatsApp Sent (SM123)", resp.MessageStatus)
	require.Equal(t, "Calling (CA456)", resp.CallStatus)

	require.Contains(t, notifier.lastBody, "Bronchial Asthma")
	require.Contains(t, notifier.lastBody, resp.LocationLink)
	require.Contains(t, notifier.lastScript, "Arnab is in respiratory distress")
}

func TestTriggerAlwaysUsesCannedQuestion(t *testing.T) {
	chatStub := newChatStub("guidance")
	retriever := &stubRetriever{}
	svc := newTestService(chatStub, retriever, &stubProfileStore{}, &stubNotifier{})

	_, err := svc.Trigger(context.Background(), Request{UserID: "u1"})
	require.NoError(t, err)

	require.Equal(t, cannedQuestion, retriever.lastQuery)
	require.Contains(t, chatStub.lastPrompt, cannedQuestion)
}

func TestTriggerMissingCoordinates(t *testing.T) {
	svc := newTestService(newChatStub("guidance"), &stubRetriever{}, &stubProfileStore{}, &stubNotifier{})
	resp, err := svc.Trigger(context.Background(), Request{UserID: "u1"})
	require.NoError(t, err)
	require.Equal(t, "GPS Unavailable", resp.LocationLink)
}

func TestTriggerProfileFailureFallsBack(t *testing.T) {
	chatStub := newChatStub("guidance")
	notifier := &stubNotifier{textStatus: "sent", callStatus: "calling"}
	svc := &service{
		cfg:       Config{Model: "gpt-test", FallbackPhone: "+1 (555) 010-2030"},
		client:    chatStub,
		retriever: &stubRetriever{},
		profiles:  &stubProfileStore{err: errors.New("store down")},
		notifier:  notifier,
		logger:    testLogger(),
	}

	resp, err := svc.Trigger(context.Background(), Request{UserID: "u1"})
	require.NoError(t, err)
	require.Equal(t, "+15550102030", resp.GuardianPhone)
	require.Contains(t, chatStub.lastPrompt, "General Respiratory Distress")
	require.Equal(t, "sent", resp.MessageStatus)
}

func TestTriggerSkipsDispatchWithoutPhone(t *testing.T) {
	svc := newTestService(newChatStub("guidance"), &stubRetriever{}, &stubProfileStore{}, &stubNotifier{})
	resp, err := svc.Trigger(context.Background(), Request{UserID: "u1"})
	require.NoError(t, err)
	require.Equal(t, statusSkipped, resp.MessageStatus)
	require.Equal(t, statusSkipped, resp.CallStatus)
}

func TestTriggerDispatchFailureIsStatusTextOnly(t *testing.T) {
	notifier := &stubNotifier{textStatus: "Failed: unreachable", callStatus: "Failed: unreachable"}
	profiles := &stubProfileStore{p: profile.Profile{Name: "A", EmergencyPhone: "+15550102030"}}
	svc := newTestService(newChatStub("guidance"), &stubRetriever{}, profiles, notifier)

	resp, err := svc.Trigger(context.Background(), Request{UserID: "u1"})
	require.NoError(t, err)
	require.Equal(t, "Failed: unreachable", resp.MessageStatus)
	require.Equal(t, "Failed: unreachable", resp.CallStatus)
}

func TestTriggerLLMFailurePropagates(t *testing.T) {
	svc := newTestService(&stubChatClient{err: errors.New("quota")}, &stubRetriever{}, &stubProfileStore{}, &stubNotifier{})
	_, err := svc.Trigger(context.Background(), Request{UserID: "u1"})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "llm_error"))
}

func newTestService(chat ChatClient, retriever knowledge.Retriever, profiles profile.Store, notifier Notifier) Service {
	return NewService(Config{Model: "gpt-test", RetrieveK: 3}, retriever, profiles, notifier, chat, testLogger())
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubChatClient struct {
	content    string
	err        error
	lastPrompt string
}

func newChatStub(content string) *stubChatClient {
	return &stubChatClient{content: content}
}

func (s *stubChatClient) CreateChatCompletion(_ context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error) {
	if s.err != nil {
		return chatgpt.ChatCompletionResponse{}, s.err
	}
	if len(req.Messages) > 0 {
		s.lastPrompt = req.Messages[len(req.Messages)-1].Content
	}
	var resp chatgpt.ChatCompletionResponse
	resp.Choices = append(resp.Choices, struct {
		Message chatgpt.Message `json:"message"`
	}{Message: chatgpt.Message{Role: "assistant", Content: s.content}})
	return resp, nil
}

type stubRetriever struct {
	passages  []knowledge.Passage
	lastQuery string
}

func (s *stubRetriever) Retrieve(_ context.Context, query string, _ int) ([]knowledge.Passage, error) {
	s.lastQuery = query
	return s.passages, nil
}

type stubNotifier struct {
	textStatus string
	callStatus string
	lastBody   string
	lastScript string
	lastPhone  string
}

func (s *stubNotifier) SendText(_ context.Context, body, phone string) string {
	s.lastBody = body
	s.lastPhone = phone
	if s.textStatus == "" {
		return statusSkipped
	}
	return s.textStatus
}

func (s *stubNotifier) PlaceCall(_ context.Context, script, phone string) string {
	s.lastScript = script
	s.lastPhone = phone
	if s.callStatus == "" {
		return statusSkipped
	}
	return s.callStatus
}

type stubProfileStore struct {
	p   profile.Profile
	err error
}

func (s *stubProfileStore) GetProfile(_ context.Context, userID string) (profile.Profile, error) {
	if s.err != nil {
		return profile.Profile{}, s.err
	}
	p := s.p
	p.UserID = userID
	return p, nil
}

func (s *stubProfileStore) SaveLatestAQI(_ context.Context, _ string, _ airquality.Index, _ time.Time) error {
	return nil
}

func (s *stubProfileStore) LatestAQI(_ context.Context, _ string) (airquality.Index, time.Time, bool, error) {
	return airquality.Index{}, time.Time{}, false, nil
}
