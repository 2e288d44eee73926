package profile

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/respiguard/backend/internal/domain/airquality"
)

// DefaultDescription is the documented fallback when a profile is missing or
// the store is unreachable.
const DefaultDescription = "Adult with General Respiratory Sensitivity. No specific meds."

// Profile is the read-only per-request snapshot of a user's medical record.
// Fields are normalized at the store boundary; downstream code never has to
// re-interpret loosely typed values.
type Profile struct {
	UserID         string `json:"userId"`
	Name           string `json:"name"`
	Age            string `json:"age"`
	Condition      string `json:"condition"`
	Medications    string `json:"medications"`
	EmergencyPhone string `json:"emergencyPhone,omitempty"`
}

// Store abstracts the external persistence collaborator.
type Store interface {
	// GetProfile loads a profile snapshot. A missing user is not an error;
	// implementations return fallback defaults per FallbackProfile.
	GetProfile(ctx context.Context, userID string) (Profile, error)
	// SaveLatestAQI records the most recent computed index for the user so a
	// later chat turn can reference current conditions. Best effort.
	SaveLatestAQI(ctx context.Context, userID string, idx airquality.Index, at time.Time) error
	// LatestAQI returns the stored snapshot, ok=false when none exists.
	LatestAQI(ctx context.Context, userID string) (airquality.Index, time.Time, bool, error)
}

// FallbackProfile is the generic snapshot used when the store has no record
// for the user or is unavailable.
func FallbackProfile(userID string) Profile {
	return Profile{
		UserID:      userID,
		Name:        "Respi-Guard User",
		Age:         "Adult",
		Condition:   "General Respiratory Distress",
		Medications: "Emergency Inhaler",
	}
}

// Describe renders the profile as the single text block the prompt templates
// consume.
func (p Profile) Describe() string {
	if strings.TrimSpace(p.Name) == "" && strings.TrimSpace(p.Condition) == "" {
		return DefaultDescription
	}
	return fmt.Sprintf("%s, age %s. Condition: %s. Medications: %s.",
		orUnknown(p.Name), orUnknown(p.Age), orUnknown(p.Condition), orUnknown(p.Medications))
}

func orUnknown(v string) string {
	if strings.TrimSpace(v) == "" {
		return "unknown"
	}
	return v
}

var phoneCleaner = regexp.MustCompile(`[^\d+]`)

// SanitizePhone strips everything but digits and the leading plus so the
// number is safe to hand to the notification dispatcher.
func SanitizePhone(raw string) string {
	return phoneCleaner.ReplaceAllString(raw, "")
}
