package tracker

import (
	"fmt"
	"time"
)

// Sample represents a single position reading
type Sample struct {
	Source    *string
	Time      int64 // epoch milliseconds
	Latitude  float64
	Longitude float64
	Accuracy  float64 // radius in meters
}

// SourceName returns the source identifier, or "unknown" when absent
func (s Sample) SourceName() string {
	if s.Source == nil {
		return "unknown"
	}

	return *s.Source
}

// MeasuredAt returns the sample time as a time.Time
func (s Sample) MeasuredAt() time.Time {
	return time.Unix(0, s.Time*int64(time.Millisecond)).UTC()
}

func (s Sample) String() string {
	return fmt.Sprintf("Provider: %s Lat: %v Lng: %v Accuracy: %v",
		s.SourceName(), s.Latitude, s.Longitude, s.Accuracy)
}

// SourceDescriptor describes a known source at subscription time
type SourceDescriptor struct {
	ID      string
	Enabled bool
}

// SourceID returns a pointer usable as Sample.Source
func SourceID(id string) *string {
	return &id
}
