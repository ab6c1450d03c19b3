package analysis

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// minFeaturizeSamples is the floor below which a window cannot be featurized
const minFeaturizeSamples = 10

// AnomalyDetector scores a recent window against a model fitted on a
// baseline window. A detector value carries calibration only, model state
// lives and dies within one Detect call.
type AnomalyDetector struct {
	contamination float64
	highUsage     float64
}

func NewAnomalyDetector(cfg Config) *AnomalyDetector {
	contamination := cfg.Contamination
	if contamination <= 0 {
		contamination = DefaultConfig().Contamination
	}

	highUsage := cfg.HighUsageThreshold
	if highUsage <= 0 {
		highUsage = DefaultConfig().HighUsageThreshold
	}

	return &AnomalyDetector{
		contamination: contamination,
		highUsage:     highUsage,
	}
}

type Anomaly struct {
	Timestamp    string   `json:"timestamp"`
	AnomalyScore float64  `json:"anomaly_score"`
	CPUUsage     float64  `json:"cpu_usage"`
	RAMUsage     float64  `json:"ram_usage"`
	DiskUsage    float64  `json:"disk_usage"`
	Severity     Severity `json:"severity"`
	Explanation  string   `json:"explanation"`
}

type AnomalyReport struct {
	Success      bool      `json:"success"`
	Message      string    `json:"message"`
	Anomalies    []Anomaly `json:"anomalies"`
	AnomalyCount int       `json:"anomaly_count"`
	AnomalyRate  float64   `json:"anomaly_rate"`
}

// Detect standardizes both windows with statistics derived from the baseline
// only, fits the isolation forest on the standardized baseline and scores
// every recent sample. Outliers come back in chronological order.
func (d *AnomalyDetector) Detect(recent, baseline Window) (*AnomalyReport, error) {
	if baseline.Len() < minFeaturizeSamples {
		return nil, errors.Wrapf(ErrInsufficientData,
			"baseline window has %d samples, need at least %d", baseline.Len(), minFeaturizeSamples)
	}
	if recent.Len() < minFeaturizeSamples {
		return nil, errors.Wrapf(ErrInsufficientData,
			"recent window has %d samples, need at least %d", recent.Len(), minFeaturizeSamples)
	}

	baselineFeatures := featureMatrix(baseline)
	sc := fitScaler(baselineFeatures)

	forest := fitIsolationForest(sc.transform(baselineFeatures), d.contamination)
	decisions := forest.decisionFunction(sc.transform(featureMatrix(recent)))

	anomalies := []Anomaly{}
	for i, decision := range decisions {
		if decision >= 0 {
			continue
		}

		s := recent[i]
		anomalies = append(anomalies, Anomaly{
			Timestamp:    s.Timestamp.Format(time.RFC3339),
			AnomalyScore: round3(decision),
			CPUUsage:     s.CPUUsagePercent,
			RAMUsage:     s.RAMUsagePercent,
			DiskUsage:    s.DiskUsagePercent,
			Severity:     d.severityOf(decision, s),
			Explanation:  d.explain(s),
		})
	}

	return &AnomalyReport{
		Success:      true,
		Message:      fmt.Sprintf("Analyzed %d data points", recent.Len()),
		Anomalies:    anomalies,
		AnomalyCount: len(anomalies),
		AnomalyRate:  round3(float64(len(anomalies)) / float64(recent.Len())),
	}, nil
}

// featureMatrix derives per sample [cpu, ram, disk, hour of day, day of
// week, mean of the three percentages]. Absent metrics are zero valued and
// pass through as such.
func featureMatrix(w Window) [][]float64 {
	matrix := make([][]float64, len(w))
	for i, s := range w {
		matrix[i] = []float64{
			s.CPUUsagePercent,
			s.RAMUsagePercent,
			s.DiskUsagePercent,
			float64(s.Timestamp.Hour()),
			float64(weekday(s.Timestamp)),
			(s.CPUUsagePercent + s.RAMUsagePercent + s.DiskUsagePercent) / 3,
		}
	}

	return matrix
}

// severityOf classifies by score thresholds, escalated when a single metric
// runs critically high. Escalation never downgrades the score severity.
func (d *AnomalyDetector) severityOf(score float64, s Sample) Severity {
	severity := SeverityLow
	if score < -0.5 {
		severity = SeverityHigh
	} else if score < -0.3 {
		severity = SeverityMedium
	}

	switch {
	case s.CPUUsagePercent > 95 || s.RAMUsagePercent > 95 || s.DiskUsagePercent > 95:
		severity = SeverityHigh
	case s.CPUUsagePercent > 85 || s.RAMUsagePercent > 85 || s.DiskUsagePercent > 85:
		severity = MaxSeverity(severity, SeverityMedium)
	}

	return severity
}

func (d *AnomalyDetector) explain(s Sample) string {
	var parts []string

	if s.CPUUsagePercent > d.highUsage {
		parts = append(parts, fmt.Sprintf("Very high CPU usage (%.1f%%)", s.CPUUsagePercent))
	}
	if s.RAMUsagePercent > d.highUsage {
		parts = append(parts, fmt.Sprintf("Very high RAM usage (%.1f%%)", s.RAMUsagePercent))
	}
	if s.DiskUsagePercent > d.highUsage {
		parts = append(parts, fmt.Sprintf("Very high disk usage (%.1f%%)", s.DiskUsagePercent))
	}

	if len(parts) == 0 {
		return "Unusual usage pattern detected"
	}

	return strings.Join(parts, " | ")
}
