// Package normalize maps raw provider call fields (timestamps, end reasons,
// cost line items) into the canonical values used by contact history, usage
// recording, and fan-out payloads. Pure functions only: no state, no I/O.
package normalize

import (
	"fmt"
	"math"
	"time"

	"call-relay/internal/provider"
)

// ComputeDuration returns the call duration in whole seconds, rounded to the
// nearest second. If either timestamp is absent the duration is 0.
//
// Negative results (endedAt before startedAt, e.g. clock skew at the
// provider) are passed through rather than clamped; callers that bill on
// duration already gate on > 0.
func ComputeDuration(startedAt, endedAt *time.Time) int {
	if startedAt == nil || endedAt == nil {
		return 0
	}
	return int(math.Round(endedAt.Sub(*startedAt).Seconds()))
}

// SumCost sums the provider's cost line items. The result is not rounded;
// rounding to 2 decimal places happens only at the fan-out boundary.
func SumCost(items []provider.CostItem) float64 {
	var total float64
	for _, it := range items {
		total += it.Cost
	}
	return total
}

// RoundCost rounds an accumulated cost to 2 decimal places for
// external-facing payloads. Internal persistence keeps full precision.
func RoundCost(v float64) float64 {
	return math.Round(v*100) / 100
}

// outcomeByReason is the fixed mapping from provider end reasons to
// canonical outcomes. Unmapped reasons pass through verbatim.
var outcomeByReason = map[string]string{
	"assistant-ended-call":    "completed",
	"customer-ended-call":     "customer_hangup",
	"customer-did-not-answer": "no_answer",
	"voicemail":               "voicemail",
	"assistant-error":         "error",
}

// ClassifyOutcome maps a provider endedReason to a canonical outcome.
// An entirely absent reason yields "unknown".
func ClassifyOutcome(endedReason string) string {
	if endedReason == "" {
		return "unknown"
	}
	if mapped, ok := outcomeByReason[endedReason]; ok {
		return mapped
	}
	return endedReason
}

// FormatDuration renders seconds as "M:SS" with the seconds-of-minute
// zero-padded to two digits.
func FormatDuration(seconds int) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
