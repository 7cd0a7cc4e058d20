package tracker

import (
	"go.uber.org/zap"
)

// EstimateSink receives the estimate whenever it changes, along with
// unavailability reports
type EstimateSink interface {
	OnEstimateUpdated(estimate Sample)
	OnSourceUnavailable(source string, reason string)
	OnCapabilityDenied()
}

// RationaleSink is implemented by sinks that can explain to the user why
// position access is needed
type RationaleSink interface {
	OnCapabilityRationale()
}

// MultiSink fans every notification out to each sink in order
type MultiSink []EstimateSink

// OnEstimateUpdated forwards the estimate to every sink
func (m MultiSink) OnEstimateUpdated(estimate Sample) {
	for _, s := range m {
		s.OnEstimateUpdated(estimate)
	}
}

// OnSourceUnavailable forwards the report to every sink
func (m MultiSink) OnSourceUnavailable(source string, reason string) {
	for _, s := range m {
		s.OnSourceUnavailable(source, reason)
	}
}

// OnCapabilityDenied forwards the report to every sink
func (m MultiSink) OnCapabilityDenied() {
	for _, s := range m {
		s.OnCapabilityDenied()
	}
}

// OnCapabilityRationale forwards to the sinks that implement RationaleSink
func (m MultiSink) OnCapabilityRationale() {
	for _, s := range m {
		if r, ok := s.(RationaleSink); ok {
			r.OnCapabilityRationale()
		}
	}
}

// LogSink reports everything through the logger
type LogSink struct {
	logger *zap.SugaredLogger
}

// OnEstimateUpdated logs the new estimate
func (l *LogSink) OnEstimateUpdated(estimate Sample) {
	l.logger.Infow("estimate updated",
		"provider", estimate.SourceName(),
		"lat", estimate.Latitude,
		"lng", estimate.Longitude,
		"accuracy", estimate.Accuracy,
		"measured_at", estimate.MeasuredAt(),
	)
}

// OnSourceUnavailable logs the unavailable source
func (l *LogSink) OnSourceUnavailable(source string, reason string) {
	l.logger.Warnw("source unavailable", "source", source, "reason", reason)
}

// OnCapabilityDenied logs the denied capability
func (l *LogSink) OnCapabilityDenied() {
	l.logger.Errorw("location capability not granted")
}

// OnCapabilityRationale logs why position access is needed
func (l *LogSink) OnCapabilityRationale() {
	l.logger.Warnw("location access is required to track the device; grant it to continue")
}

// NewLogSink creates a new LogSink
func NewLogSink(logger *zap.SugaredLogger) *LogSink {
	return &LogSink{logger: logger}
}
