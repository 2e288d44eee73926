package emergency

import "context"

// Notifier is the outbound notification dispatcher. Both methods return
// opaque human-readable status text; delivery failures are reported through
// that text, never as errors that could fail the SOS response.
type Notifier interface {
	SendText(ctx context.Context, body, phone string) string
	PlaceCall(ctx context.Context, script, phone string) string
}

// Request captures the SOS trigger payload. Caller text never reaches the
// model's question slot; only identity and location are accepted.
type Request struct {
	UserID string   `json:"uid"`
	Lat    *float64 `json:"lat"`
	Lon    *float64 `json:"lon"`
}

// Response is serialized back to API consumers.
type Response struct {
	Status        string `json:"status"`
	VoiceText     string `json:"voice_text"`
	GuardianPhone string `json:"guardian_info"`
	LocationLink  string `json:"location_sent"`
	MessageStatus string `json:"msg_status"`
	CallStatus    string `json:"call_status"`
}

// Config wires runtime knobs for the emergency domain.
type Config struct {
	Model         string
	Temperature   float32
	RetrieveK     int
	FallbackPhone string
}
