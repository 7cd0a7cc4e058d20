package tracker

import (
	"sync"

	"go.uber.org/zap"
)

// Arbiter holds the current best estimate and decides whether incoming
// samples replace it
type Arbiter struct {
	mu      sync.Mutex
	current *Sample
	closed  bool
	sink    EstimateSink
	metrics *Metrics
	logger  *zap.SugaredLogger
}

// Offer evaluates the candidate against the current estimate and replaces it
// on Accept. The sink is notified before the lock is released, so
// notifications arrive in estimate order. Sinks must not call back into the
// Arbiter.
func (a *Arbiter) Offer(candidate Sample) Decision {
	return a.OfferFrom(candidate.SourceName(), candidate)
}

// OfferFrom is Offer for a sample received on the feed of source. Metrics
// are labelled with source rather than with the provider the sample claims.
func (a *Arbiter) OfferFrom(source string, candidate Sample) Decision {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		a.logger.Debugf("arbiter: discarding sample from %s after close", candidate.SourceName())

		return Reject
	}

	a.logger.Debugf("arbiter: evaluating %s", candidate)

	decision := Evaluate(a.current, candidate)
	a.metrics.observeDecision(source, decision)

	if decision == Reject {
		return decision
	}

	a.logger.Debugf("arbiter: updating estimate (source: %s)", candidate.SourceName())

	estimate := candidate
	a.current = &estimate
	a.metrics.observeEstimate(estimate)
	a.sink.OnEstimateUpdated(estimate)

	return decision
}

// Estimate returns the current estimate, if any
func (a *Arbiter) Estimate() (Sample, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.current == nil {
		return Sample{}, false
	}

	return *a.current, true
}

// Close resets the estimate and discards every later sample
func (a *Arbiter) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.current = nil
	a.closed = true
}

// NewArbiter creates a new Arbiter without an estimate
func NewArbiter(sink EstimateSink, metrics *Metrics, logger *zap.SugaredLogger) *Arbiter {
	return &Arbiter{
		sink:    sink,
		metrics: metrics,
		logger:  logger,
	}
}
