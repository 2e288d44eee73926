package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAdvisorySubstitutesAllSlots(t *testing.T) {
	got := Advisory(AdvisorySlots{
		Context:     "CTX-BLOCK",
		UserProfile: "PROFILE-BLOCK",
		AQIData:     "AQI-BLOCK",
		Question:    "QUESTION-BLOCK",
	})
	for _, want := range []string{"CTX-BLOCK", "PROFILE-BLOCK", "AQI-BLOCK", "QUESTION-BLOCK"} {
		require.Contains(t, got, want)
	}
	require.Contains(t, got, "strictly VALID JSON")
	require.Contains(t, got, `"advisory_text"`)
	require.NotContains(t, got, "%s")
}

func TestChatSubstitutesAllSlots(t *testing.T) {
	got := Chat(ChatSlots{
		Context:     "c1",
		UserProfile: "p1",
		AQIData:     "a1",
		History:     "User: hi\nAssistant: hello",
		Question:    "q1",
	})
	require.Contains(t, got, "User: hi\nAssistant: hello")
	require.Contains(t, got, "Cite your sources explicitly")
	require.Contains(t, got, "SOS alert")
	require.Contains(t, got, "politely refuse")
	require.NotContains(t, got, "%s")
}

func TestEmergencyTemplateConstraints(t *testing.T) {
	got := Emergency(EmergencySlots{
		Context:   "guidelines",
		UserAge:   "20",
		Condition: "Bronchial Asthma",
		Meds:      "Budesonide, Salbutamol (SOS)",
		Question:  "Immediate emergency steps for respiratory distress",
	})
	require.Contains(t, got, "Bronchial Asthma")
	require.Contains(t, got, "DO NOT mention oral pills")
	require.Contains(t, got, "under 10 words")
	require.Contains(t, got, "exactly 5 short, numbered, spoken commands")
	require.True(t, strings.Contains(got, "pursed lip breathing"))
	require.NotContains(t, got, "%s")
}
