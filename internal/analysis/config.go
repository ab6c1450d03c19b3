package analysis

import "time"

// Config carries the orchestration tunables of the analysis pipeline.
// The model internal floors (3 samples for the disk fit, 10 for featurizing
// an anomaly window, 5 for the performance review) are fixed by the models
// themselves and are not configurable.
type Config struct {
	// MinimumDataPoints gates every model invocation at the orchestrator
	MinimumDataPoints int
	// RecentMinimum gates the recent window of the anomaly detection
	RecentMinimum int
	// Contamination is the outlier fraction the anomaly model is calibrated for
	Contamination float64
	// HighUsageThreshold is the per metric percentage above which a metric is
	// called out in anomaly explanations
	HighUsageThreshold float64
	// DiskFullWarningDays is the days_remaining threshold under which a disk
	// prediction raises an alert
	DiskFullWarningDays float64
	// AnomalyAlertThreshold is the anomaly count that raises a Medium alert
	// when no High severity anomaly was found
	AnomalyAlertThreshold int

	BaselineWindow time.Duration
	RecentWindow   time.Duration
	ActivityWindow time.Duration

	// AssetTimeout bounds one asset's full pipeline during a fleet sweep
	AssetTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		MinimumDataPoints:     3,
		RecentMinimum:         5,
		Contamination:         0.1,
		HighUsageThreshold:    90,
		DiskFullWarningDays:   7,
		AnomalyAlertThreshold: 3,
		BaselineWindow:        168 * time.Hour,
		RecentWindow:          24 * time.Hour,
		ActivityWindow:        24 * time.Hour,
		AssetTimeout:          60 * time.Second,
	}
}
