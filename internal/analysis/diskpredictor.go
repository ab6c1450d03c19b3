package analysis

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

const (
	minPredictionSamples = 3
	confidenceFloor      = 0.3
)

// DaysRemainingStable is reported when disk usage is flat or shrinking,
// essentially an unbounded horizon
const DaysRemainingStable = 999

const (
	TrendStable            = "stable"
	TrendSlowlyIncreasing  = "slowly_increasing"
	TrendIncreasing        = "increasing"
	TrendRapidlyIncreasing = "rapidly_increasing"
)

// DiskPrediction is the outcome of a successful disk saturation forecast.
// DailyIncreaseRate and CurrentUsage are only set when a full date could be
// projected, a stable trend carries neither.
type DiskPrediction struct {
	Success           bool    `json:"success"`
	Message           string  `json:"message"`
	DaysRemaining     float64 `json:"days_remaining"`
	Confidence        float64 `json:"confidence"`
	Trend             string  `json:"trend"`
	DailyIncreaseRate float64 `json:"daily_increase_rate,omitempty"`
	CurrentUsage      float64 `json:"current_usage,omitempty"`
}

// PredictDiskFull fits an ordinary least squares line of disk usage over
// elapsed hours and extrapolates when the disk reaches 100%
func PredictDiskFull(w Window) (*DiskPrediction, error) {
	if w.Len() < minPredictionSamples {
		return nil, errors.Wrapf(ErrInsufficientData,
			"disk prediction needs at least %d samples, got %d", minPredictionSamples, w.Len())
	}

	hours := w.HoursElapsed()
	disk := w.Disk()

	if hours[len(hours)-1] == 0 {
		return nil, errors.Wrap(ErrInsufficientData, "window spans no time, cannot fit a trend")
	}

	intercept, slope := stat.LinearRegression(hours, disk, nil, false)
	confidence := confidenceOf(hours, disk, intercept, slope)

	if confidence < confidenceFloor {
		return nil, errors.Wrapf(ErrUnreliableFit,
			"data too inconsistent for reliable prediction (confidence %.2f)", confidence)
	}

	if slope <= 0 {
		return &DiskPrediction{
			Success:       true,
			Message:       "Disk usage stable or decreasing",
			DaysRemaining: DaysRemainingStable,
			Confidence:    confidence,
			Trend:         TrendStable,
		}, nil
	}

	currentHours := hours[len(hours)-1]
	hoursToFull := (100-intercept)/slope - currentHours
	daysRemaining := math.Max(0, hoursToFull/24)

	var trend string
	switch {
	case slope > 0.5:
		trend = TrendRapidlyIncreasing
	case slope > 0.1:
		trend = TrendIncreasing
	default:
		trend = TrendSlowlyIncreasing
	}

	return &DiskPrediction{
		Success:           true,
		Message:           fmt.Sprintf("Disk predicted to be full in %.1f days", daysRemaining),
		DaysRemaining:     round1(daysRemaining),
		Confidence:        round2(confidence),
		Trend:             trend,
		DailyIncreaseRate: round2(slope * 24),
		CurrentUsage:      round1(disk[len(disk)-1]),
	}, nil
}

// confidenceOf is the R² of the fitted line clamped to [0,1]. A constant
// series degenerates R² to 0/0 while the flat fit is exact, which counts as
// full confidence.
func confidenceOf(hours, disk []float64, intercept, slope float64) float64 {
	r2 := stat.RSquared(hours, disk, nil, intercept, slope)

	switch {
	case math.IsNaN(r2):
		return 1
	case r2 < 0:
		return 0
	case r2 > 1:
		return 1
	}

	return r2
}

// DiskRecommendation maps a prediction to an operator facing action
func DiskRecommendation(p *DiskPrediction) string {
	if p == nil || !p.Success {
		return "Unable to generate recommendation - insufficient data"
	}

	days := p.DaysRemaining
	switch {
	case p.Trend == TrendStable || days > 30:
		return "Disk space is healthy - no immediate action needed"
	case days < 3:
		return "URGENT: Disk will be full in <3 days - immediate cleanup required"
	case days < 7:
		return "WARNING: Schedule disk cleanup within next few days"
	case days < 14:
		return "PLAN: Schedule maintenance within 2 weeks"
	default:
		return "INFO: Monitor disk usage - trending upward"
	}
}
