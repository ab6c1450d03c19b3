package analysis

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const minAnalysisSamples = 5

type MetricStats struct {
	Avg float64 `json:"avg"`
	Max float64 `json:"max"`
	Min float64 `json:"min"`
	Std float64 `json:"std"`
}

type Statistics struct {
	CPU  MetricStats `json:"cpu"`
	RAM  MetricStats `json:"ram"`
	Disk MetricStats `json:"disk"`
}

type Recommendation struct {
	Type     string   `json:"type"`
	Priority Severity `json:"priority"`
	Message  string   `json:"message"`
	Action   string   `json:"action"`
	Impact   string   `json:"impact"`
}

type AnalysisPeriod struct {
	Start         string  `json:"start"`
	End           string  `json:"end"`
	DurationHours float64 `json:"duration_hours"`
}

type PerformanceReport struct {
	Success         bool             `json:"success"`
	Message         string           `json:"message"`
	Statistics      Statistics       `json:"statistics"`
	Recommendations []Recommendation `json:"recommendations"`
	HealthScore     float64          `json:"health_score"`
	AnalysisPeriod  AnalysisPeriod   `json:"analysis_period"`
}

// AnalyzePerformance computes descriptive statistics and usage patterns over
// the window and derives prioritized recommendations plus a 0-100 health
// score
func AnalyzePerformance(w Window) (*PerformanceReport, error) {
	if w.Len() < minAnalysisSamples {
		return nil, errors.Wrapf(ErrInsufficientData,
			"performance analysis needs at least %d samples, got %d", minAnalysisSamples, w.Len())
	}

	statistics := Statistics{
		CPU:  metricStats(w.CPU()),
		RAM:  metricStats(w.RAM()),
		Disk: metricStats(w.Disk()),
	}

	return &PerformanceReport{
		Success:         true,
		Message:         fmt.Sprintf("Analyzed %d data points", w.Len()),
		Statistics:      statistics,
		Recommendations: recommend(statistics, w),
		HealthScore:     healthScore(statistics),
		AnalysisPeriod: AnalysisPeriod{
			Start:         w.Start().Format(time.RFC3339),
			End:           w.End().Format(time.RFC3339),
			DurationHours: w.End().Sub(w.Start()).Hours(),
		},
	}, nil
}

func metricStats(values []float64) MetricStats {
	return MetricStats{
		Avg: stat.Mean(values, nil),
		Max: floats.Max(values),
		Min: floats.Min(values),
		Std: stat.StdDev(values, nil),
	}
}

// recommend evaluates every rule independently, multiple rules may fire on
// the same window
func recommend(s Statistics, w Window) []Recommendation {
	recommendations := []Recommendation{}

	if s.CPU.Avg > 85 {
		recommendations = append(recommendations, Recommendation{
			Type:     "cpu_high_average",
			Priority: SeverityHigh,
			Message:  fmt.Sprintf("Average CPU usage is %.1f%% - investigate background processes", s.CPU.Avg),
			Action:   "Identify the top CPU consuming processes",
			Impact:   "Performance degradation",
		})
	} else if s.CPU.Avg > 70 {
		recommendations = append(recommendations, Recommendation{
			Type:     "cpu_moderate",
			Priority: SeverityMedium,
			Message:  fmt.Sprintf("CPU usage averaging %.1f%% - monitor for trends", s.CPU.Avg),
			Action:   "Consider process optimization",
			Impact:   "Potential performance issues",
		})
	}

	if s.CPU.Max > 98 {
		recommendations = append(recommendations, Recommendation{
			Type:     "cpu_spikes",
			Priority: SeverityMedium,
			Message:  fmt.Sprintf("CPU spikes detected (max %.1f%%)", s.CPU.Max),
			Action:   "Investigate sporadic high CPU usage",
			Impact:   "System responsiveness",
		})
	}

	if s.RAM.Avg > 90 {
		recommendations = append(recommendations, Recommendation{
			Type:     "ram_upgrade_needed",
			Priority: SeverityHigh,
			Message:  fmt.Sprintf("RAM consistently high (%.1f%%) - upgrade recommended", s.RAM.Avg),
			Action:   "Plan RAM upgrade or close unnecessary applications",
			Impact:   "System stability and performance",
		})
	} else if s.RAM.Avg > 80 {
		recommendations = append(recommendations, Recommendation{
			Type:     "ram_monitor",
			Priority: SeverityMedium,
			Message:  fmt.Sprintf("RAM usage trending high (%.1f%%)", s.RAM.Avg),
			Action:   "Monitor memory usage and close unused applications",
			Impact:   "Potential slowdowns",
		})
	}

	if s.Disk.Avg > 90 {
		recommendations = append(recommendations, Recommendation{
			Type:     "disk_cleanup_urgent",
			Priority: SeverityHigh,
			Message:  fmt.Sprintf("Disk space critically low (%.1f%%)", s.Disk.Avg),
			Action:   "Immediate disk cleanup required",
			Impact:   "System stability risk",
		})
	} else if s.Disk.Avg > 80 {
		recommendations = append(recommendations, Recommendation{
			Type:     "disk_cleanup_planned",
			Priority: SeverityMedium,
			Message:  fmt.Sprintf("Disk usage high (%.1f%%) - schedule cleanup", s.Disk.Avg),
			Action:   "Plan disk cleanup within 1-2 weeks",
			Impact:   "Future storage issues",
		})
	}

	if s.CPU.Std > 25 {
		recommendations = append(recommendations, Recommendation{
			Type:     "cpu_variability",
			Priority: SeverityLow,
			Message:  fmt.Sprintf("High CPU usage variability (std: %.1f)", s.CPU.Std),
			Action:   "Investigate inconsistent workloads",
			Impact:   "Unpredictable performance",
		})
	}

	return append(recommendations, timePatternRecommendations(w)...)
}

func timePatternRecommendations(w Window) []Recommendation {
	var recommendations []Recommendation

	var hourSum, hourCount [24]float64
	for _, s := range w {
		h := s.Timestamp.Hour()
		hourSum[h] += s.CPUUsagePercent
		hourCount[h]++
	}

	var peakHours []string
	for h := 0; h < 24; h++ {
		if hourCount[h] > 0 && hourSum[h]/hourCount[h] > 80 {
			peakHours = append(peakHours, fmt.Sprintf("%d:00", h))
		}
	}

	if len(peakHours) > 0 {
		recommendations = append(recommendations, Recommendation{
			Type:     "peak_hours_detected",
			Priority: SeverityLow,
			Message:  fmt.Sprintf("High CPU usage during hours: %s", strings.Join(peakHours, ", ")),
			Action:   "Schedule intensive tasks outside peak hours",
			Impact:   "User experience during peak times",
		})
	}

	var weekendCPU, weekdayCPU []float64
	for _, s := range w {
		if isWeekend(s.Timestamp) {
			weekendCPU = append(weekendCPU, s.CPUUsagePercent)
		} else {
			weekdayCPU = append(weekdayCPU, s.CPUUsagePercent)
		}
	}

	if len(weekendCPU) > 0 && len(weekdayCPU) > 0 {
		weekendAvg := stat.Mean(weekendCPU, nil)
		weekdayAvg := stat.Mean(weekdayCPU, nil)

		if weekendAvg > weekdayAvg+20 {
			recommendations = append(recommendations, Recommendation{
				Type:     "weekend_high_usage",
				Priority: SeverityLow,
				Message:  fmt.Sprintf("Higher usage on weekends (%.1f%% vs %.1f%%)", weekendAvg, weekdayAvg),
				Action:   "Investigate weekend processes or scheduled tasks",
				Impact:   "Unexpected resource consumption",
			})
		}
	}

	return recommendations
}

// healthScore weights the inverted usage averages 40/40/20. Degenerate
// statistics fall back to the neutral 50.0 instead of failing the report.
func healthScore(s Statistics) float64 {
	score := 0.4*math.Max(0, 100-s.CPU.Avg) +
		0.4*math.Max(0, 100-s.RAM.Avg) +
		0.2*math.Max(0, 100-s.Disk.Avg)

	if math.IsNaN(score) {
		return 50.0
	}

	return round1(math.Min(100, math.Max(0, score)))
}
