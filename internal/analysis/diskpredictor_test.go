package analysis

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/suite"
)

type DiskPredictorTestSuite struct {
	suite.Suite
}

func TestDiskPredictorTestSuite(t *testing.T) {
	suite.Run(t, new(DiskPredictorTestSuite))
}

func (suite *DiskPredictorTestSuite) TestPredictDiskFull_LinearGrowth() {
	// a week of hourly samples climbing 0.0625% per hour from 60%
	w := hourlyWindow(mondayMidnight, 168, func(i int) (float64, float64, float64) {
		return 40, 50, 60 + 0.0625*float64(i)
	})

	p, err := PredictDiskFull(w)
	suite.NoError(err)

	suite.True(p.Success)
	suite.Equal("Disk predicted to be full in 19.7 days", p.Message)
	suite.Equal(19.7, p.DaysRemaining)
	suite.Equal(1.0, p.Confidence)
	suite.Equal(TrendSlowlyIncreasing, p.Trend)
	suite.Equal(1.5, p.DailyIncreaseRate)
	suite.Equal(70.4, p.CurrentUsage)
}

func (suite *DiskPredictorTestSuite) TestPredictDiskFull_FlatSeries() {
	w := hourlyWindow(mondayMidnight, 24, steady(40, 50, 75))

	p, err := PredictDiskFull(w)
	suite.NoError(err)

	suite.True(p.Success)
	suite.Equal("Disk usage stable or decreasing", p.Message)
	suite.Equal(float64(DaysRemainingStable), p.DaysRemaining)
	suite.Equal(1.0, p.Confidence)
	suite.Equal(TrendStable, p.Trend)

	payload, err := json.Marshal(p)
	suite.NoError(err)
	suite.NotContains(string(payload), "daily_increase_rate")
	suite.NotContains(string(payload), "current_usage")
}

func (suite *DiskPredictorTestSuite) TestPredictDiskFull_DecreasingUsage() {
	w := hourlyWindow(mondayMidnight, 10, func(i int) (float64, float64, float64) {
		return 40, 50, 90 - 0.5*float64(i)
	})

	p, err := PredictDiskFull(w)
	suite.NoError(err)

	suite.Equal(TrendStable, p.Trend)
	suite.Equal(float64(DaysRemainingStable), p.DaysRemaining)
}

func (suite *DiskPredictorTestSuite) TestPredictDiskFull_ImminentSaturation() {
	w := hourlyWindow(mondayMidnight, 24, func(i int) (float64, float64, float64) {
		return 40, 50, 50 + float64(i)
	})

	p, err := PredictDiskFull(w)
	suite.NoError(err)

	suite.Equal(TrendRapidlyIncreasing, p.Trend)
	suite.Equal(1.1, p.DaysRemaining)
	suite.Equal(24.0, p.DailyIncreaseRate)
	suite.Equal(73.0, p.CurrentUsage)
	suite.Equal("URGENT: Disk will be full in <3 days - immediate cleanup required", DiskRecommendation(p))
}

func (suite *DiskPredictorTestSuite) TestPredictDiskFull_AlreadySaturatedClampsToZero() {
	w := hourlyWindow(mondayMidnight, 10, func(i int) (float64, float64, float64) {
		return 40, 50, 99 + 0.5*float64(i)
	})

	p, err := PredictDiskFull(w)
	suite.NoError(err)

	suite.Equal(0.0, p.DaysRemaining)
	suite.Equal("Disk predicted to be full in 0.0 days", p.Message)
	suite.Equal(TrendIncreasing, p.Trend)
}

func (suite *DiskPredictorTestSuite) TestPredictDiskFull_TooFewSamples() {
	w := hourlyWindow(mondayMidnight, 2, steady(40, 50, 60))

	p, err := PredictDiskFull(w)
	suite.Nil(p)
	suite.ErrorIs(err, ErrInsufficientData)
}

func (suite *DiskPredictorTestSuite) TestPredictDiskFull_ZeroSpanWindow() {
	s := Sample{Timestamp: mondayMidnight, DiskUsagePercent: 50}

	p, err := PredictDiskFull(NewWindow([]Sample{s, s, s}))
	suite.Nil(p)
	suite.ErrorIs(err, ErrInsufficientData)
}

func (suite *DiskPredictorTestSuite) TestPredictDiskFull_NoisySeries() {
	// alternating 30/70 leaves almost nothing for the linear fit to explain
	w := hourlyWindow(mondayMidnight, 12, func(i int) (float64, float64, float64) {
		if i%2 == 0 {
			return 40, 50, 30
		}
		return 40, 50, 70
	})

	p, err := PredictDiskFull(w)
	suite.Nil(p)
	suite.ErrorIs(err, ErrUnreliableFit)
}

func (suite *DiskPredictorTestSuite) TestDiskRecommendation() {
	suite.Equal("Unable to generate recommendation - insufficient data", DiskRecommendation(nil))
	suite.Equal("Unable to generate recommendation - insufficient data", DiskRecommendation(&DiskPrediction{}))

	stable := &DiskPrediction{Success: true, Trend: TrendStable, DaysRemaining: DaysRemainingStable}
	suite.Equal("Disk space is healthy - no immediate action needed", DiskRecommendation(stable))

	cases := []struct {
		days     float64
		expected string
	}{
		{2, "URGENT: Disk will be full in <3 days - immediate cleanup required"},
		{5, "WARNING: Schedule disk cleanup within next few days"},
		{10, "PLAN: Schedule maintenance within 2 weeks"},
		{20, "INFO: Monitor disk usage - trending upward"},
		{45, "Disk space is healthy - no immediate action needed"},
	}

	for _, c := range cases {
		p := &DiskPrediction{Success: true, Trend: TrendIncreasing, DaysRemaining: c.days}
		suite.Equal(c.expected, DiskRecommendation(p))
	}
}
