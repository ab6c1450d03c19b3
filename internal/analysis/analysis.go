// Package analysis implements the telemetry analysis models: disk saturation
// forecasting, baseline anomaly detection and rule based performance review.
// Models are fitted from scratch on the window passed to each call, no state
// survives between invocations.
package analysis

import (
	"math"

	"github.com/pkg/errors"
)

// ModelVersion tags every persisted prediction payload
const ModelVersion = "1.0.0"

var (
	// ErrInsufficientData is returned when a window has fewer samples than a model's floor
	ErrInsufficientData = errors.New("insufficient data")

	// ErrUnreliableFit is returned when a regression scores below the confidence floor
	ErrUnreliableFit = errors.New("unreliable fit")
)

type Severity string

const (
	SeverityLow    Severity = "Low"
	SeverityMedium Severity = "Medium"
	SeverityHigh   Severity = "High"
)

var severityRank = map[Severity]int{
	SeverityLow:    0,
	SeverityMedium: 1,
	SeverityHigh:   2,
}

// MaxSeverity combines two severities by keeping the highest one
func MaxSeverity(a, b Severity) Severity {
	if severityRank[b] > severityRank[a] {
		return b
	}
	return a
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
