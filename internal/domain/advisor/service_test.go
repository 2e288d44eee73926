package advisor

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

func TestAdviseSuccess(t *testing.T) {
	chatStub := newChatStub(`{"advisory_text":"Stay indoors. According to GINA, avoid exertion.","activities":{"outdoor_exercise":{"status":"Avoid","color":"red"}}}`)
	feedStub := &stubFeed{reading: airquality.Reading{PM25: 75.4, SourceIndex: 4}}
	retrieverStub := &stubRetriever{passages: []knowledge.Passage{{Content: "Limit exertion.", Source: "GINA"}}}
	profileStub := &stubProfileStore{p: profile.Profile{Name: "Arnab", Age: "20", Condition: "Asthma", Medications: "Salbutamol"}}

	svc := newTestService(chatStub, feedStub, retrieverStub, profileStub)

	resp, err := svc.Advise(context.Background(), Request{UserID: "u1", Lat: 22.5, Lon: 88.3})
	require.NoError(t, err)

	require.Equal(t, 152, resp.AQI.IndianAQI)
	require.Equal(t, "Moderate", resp.AQI.Category)
	require.Equal(t, 75.4, resp.AQI.PM25)
	require.Equal(t, 4, resp.AQI.AQIIndex)

	require.Equal(t, "Stay indoors. According to GINA, avoid exertion.", resp.Advisory.AdvisoryText)
	require.Equal(t, Activity{Status: "Avoid", Color: "red"}, resp.Advisory.Activities["outdoor_exercise"])

	// prompt carried retrieved context and profile
	require.Contains(t, chatStub.lastPrompt, "SOURCE: GINA")
	require.Contains(t, chatStub.lastPrompt, "Arnab")
	require.Contains(t, retrieverStub.lastQuery, "Indian NAQI is 152")
	require.Equal(t, 3, retrieverStub.lastK)

	// best-effort snapshot persisted
	require.Equal(t, "u1", profileStub.savedUser)
	require.Equal(t, 152, profileStub.savedIdx.Value)
}

func TestAdviseFencedJSONIsStripped(t *testing.T) {
	chatStub := newChatStub("```json\n{\"advisory_text\":\"x\",\"activities\":{}}\n```")
	svc := newTestService(chatStub, &stubFeed{reading: airquality.Reading{PM25: 10}}, &stubRetriever{}, &stubProfileStore{})

	resp, err := svc.Advise(context.Background(), Request{UserID: "u1"})
	require.NoError(t, err)
	require.Equal(t, "x", resp.Advisory.AdvisoryText)
	require.Empty(t, resp.Advisory.Activities)
	require.NotNil(t, resp.Advisory.Activities)
}

func TestAdviseMalformedJSONDegrades(t *testing.T) {
	chatStub := newChatStub("not json")
	svc := newTestService(chatStub, &stubFeed{reading: airquality.Reading{PM25: 10}}, &stubRetriever{}, &stubProfileStore{})

	resp, err := svc.Advise(context.Background(), Request{UserID: "u1"})
	require.NoError(t, err)
	require.Equal(t, "not json", resp.Advisory.AdvisoryText)
	require.NotNil(t, resp.Advisory.Activities)
	require.Empty(t, resp.Advisory.Activities)
}

func TestAdviseSnapshotSaveFailureDoesNotFail(t *testing.T) {
	chatStub := newChatStub(`{"advisory_text":"ok","activities":{}}`)
	profileStub := &stubProfileStore{saveErr: errors.New("db down")}
	svc := newTestService(chatStub, &stubFeed{reading: airquality.Reading{PM25: 42}}, &stubRetriever{}, profileStub)

	resp, err := svc.Advise(context.Background(), Request{UserID: "u1"})
	require.NoError(t, err)
	require.Equal(t, "ok", resp.Advisory.AdvisoryText)
}

func TestAdviseFeedFailurePropagates(t *testing.T) {
	svc := newTestService(newChatStub(""), &stubFeed{err: errors.New("upstream 503")}, &stubRetriever{}, &stubProfileStore{})

	_, err := svc.Advise(context.Background(), Request{UserID: "u1"})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "feed_unavailable"))
}

func TestAdviseFeedFailureMockFallback(t *testing.T) {
	chatStub := newChatStub(`{"advisory_text":"ok","activities":{}}`)
	svc := &service{
		cfg:       Config{Model: "gpt-test", MockOnFeedFailure: true},
		client:    chatStub,
		feed:      &stubFeed{err: errors.New("upstream 503")},
		retriever: &stubRetriever{},
		profiles:  &stubProfileStore{},
		logger:    testLogger(),
		now:       time.Now,
	}

	resp, err := svc.Advise(context.Background(), Request{UserID: "u1"})
	require.NoError(t, err)
	require.Equal(t, 75.4, resp.AQI.PM25)
	require.Equal(t, 152, resp.AQI.IndianAQI)
	require.Equal(t, 5, resp.AQI.AQIIndex)
}

func TestAdviseLLMFailurePropagates(t *testing.T) {
	svc := newTestService(&stubChatClient{err: errors.New("quota")}, &stubFeed{reading: airquality.Reading{PM25: 42}}, &stubRetriever{}, &stubProfileStore{})

	_, err := svc.Advise(context.Background(), Request{UserID: "u1"})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "llm_error"))
}

func TestAdviseProfileStoreFailureUsesDefault(t *testing.T) {
	chatStub := newChatStub(`{"advisory_text":"ok","activities":{}}`)
	svc := newTestService(chatStub, &stubFeed{reading: airquality.Reading{PM25: 42}}, &stubRetriever{}, &stubProfileStore{getErr: errors.New("down")})

	_, err := svc.Advise(context.Background(), Request{UserID: "u1"})
	require.NoError(t, err)
	require.Contains(t, chatStub.lastPrompt, profile.DefaultDescription)
}

func TestDecodeAdvisoryVariants(t *testing.T) {
	cases := []struct {
		name     string
		raw      string
		wantText string
		parsed   bool
	}{
		{"plain json", `{"advisory_text":"a","activities":{}}`, "a", true},
		{"json fence", "```json\n{\"advisory_text\":\"b\",\"activities\":{}}\n```", "b", true},
		{"bare fence", "```\n{\"advisory_text\":\"c\",\"activities\":{}}\n```", "c", true},
		{"plain text", "sorry, I cannot", "sorry, I cannot", false},
		{"truncated json", `{"advisory_text":"d"`, `{"advisory_text":"d"`, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, parsed := decodeAdvisory(tc.raw)
			require.Equal(t, tc.parsed, parsed)
			require.Equal(t, tc.wantText, got.AdvisoryText)
			require.NotNil(t, got.Activities)
		})
	}
}

func newTestService(chat ChatClient, feed FeedClient, retriever knowledge.Retriever, profiles profile.Store) *service {
	return &service{
		cfg:       Config{Model: "gpt-test", Temperature: 0.3, RetrieveK: 3},
		client:    chat,
		feed:      feed,
		retriever: retriever,
		profiles:  profiles,
		logger:    testLogger(),
		now:       time.Now,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubChatClient struct {
	content    string
	err        error
	lastPrompt string
	calls      int
}

func newChatStub(content string) *stubChatClient {
	return &stubChatClient{content: content}
}

func (s *stubChatClient) CreateChatCompletion(_ context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error) {
	s.calls++
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

type stubFeed struct {
	reading airquality.Reading
	err     error
}

func (s *stubFeed) Reading(_ context.Context, _, _ float64) (airquality.Reading, error) {
	if s.err != nil {
		return airquality.Reading{}, s.err
	}
	return s.reading, nil
}

type stubRetriever struct {
	passages  []knowledge.Passage
	err       error
	lastQuery string
	lastK     int
}

func (s *stubRetriever) Retrieve(_ context.Context, query string, k int) ([]knowledge.Passage, error) {
	s.lastQuery = query
	s.lastK = k
	if s.err != nil {
		return nil, s.err
	}
	return s.passages, nil
}

type stubProfileStore struct {
	p         profile.Profile
	getErr    error
	saveErr   error
	savedUser string
	savedIdx  airquality.Index
}

func (s *stubProfileStore) GetProfile(_ context.Context, userID string) (profile.Profile, error) {
	if s.getErr != nil {
		return profile.Profile{}, s.getErr
	}
	p := s.p
	p.UserID = userID
	return p, nil
}

func (s *stubProfileStore) SaveLatestAQI(_ context.Context, userID string, idx airquality.Index, _ time.Time) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.savedUser = userID
	s.savedIdx = idx
	return nil
}

func (s *stubProfileStore) LatestAQI(_ context.Context, _ string) (airquality.Index, time.Time, bool, error) {
	return airquality.Index{}, time.Time{}, false, nil
}
