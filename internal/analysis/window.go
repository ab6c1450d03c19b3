package analysis

import (
	"sort"
	"time"
)

// Sample is a single telemetry reading of a monitored asset
type Sample struct {
	Timestamp        time.Time
	CPUUsagePercent  float64
	RAMUsagePercent  float64
	DiskUsagePercent float64
}

// Window is a time ordered sequence of samples for one asset.
// Every model assumes ascending timestamps, NewWindow is the only
// constructor callers should use.
type Window []Sample

// NewWindow copies the given samples and sorts them ascending by timestamp,
// keeping the original order for equal timestamps
func NewWindow(samples []Sample) Window {
	w := make(Window, len(samples))
	copy(w, samples)
	sort.SliceStable(w, func(i, j int) bool {
		return w[i].Timestamp.Before(w[j].Timestamp)
	})

	return w
}

func (w Window) Len() int {
	return len(w)
}

func (w Window) Start() time.Time {
	if len(w) == 0 {
		return time.Time{}
	}
	return w[0].Timestamp
}

func (w Window) End() time.Time {
	if len(w) == 0 {
		return time.Time{}
	}
	return w[len(w)-1].Timestamp
}

// HoursElapsed returns for every sample the fractional hours since the first
// sample of the window. The sequence is monotonically non decreasing.
func (w Window) HoursElapsed() []float64 {
	hours := make([]float64, len(w))
	if len(w) == 0 {
		return hours
	}

	start := w[0].Timestamp
	for i, s := range w {
		hours[i] = s.Timestamp.Sub(start).Hours()
	}

	return hours
}

func (w Window) CPU() []float64 {
	values := make([]float64, len(w))
	for i, s := range w {
		values[i] = s.CPUUsagePercent
	}
	return values
}

func (w Window) RAM() []float64 {
	values := make([]float64, len(w))
	for i, s := range w {
		values[i] = s.RAMUsagePercent
	}
	return values
}

func (w Window) Disk() []float64 {
	values := make([]float64, len(w))
	for i, s := range w {
		values[i] = s.DiskUsagePercent
	}
	return values
}

// weekday maps a timestamp to Monday=0 .. Sunday=6
func weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func isWeekend(t time.Time) bool {
	return weekday(t) >= 5
}
