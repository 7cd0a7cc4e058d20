package tracker

import "math"

const (
	// SignificantTimeDelta is the age difference in milliseconds beyond which
	// recency alone decides.
	SignificantTimeDelta = 2 * 60 * 1000

	// SignificantAccuracyDelta is the accuracy regression in meters tolerated
	// for a newer sample from the same source.
	SignificantAccuracyDelta = 200
)

// Decision is the outcome of evaluating a candidate against the estimate
type Decision int

const (
	Reject Decision = iota
	Accept
)

func (d Decision) String() string {
	if d == Accept {
		return "accept"
	}

	return "reject"
}

// Evaluate decides whether candidate should replace current. A nil current
// means no estimate exists yet.
func Evaluate(current *Sample, candidate Sample) Decision {
	if current == nil {
		return Accept
	}

	timeDelta := candidate.Time - current.Time
	switch {
	case timeDelta > SignificantTimeDelta:
		return Accept
	case timeDelta < -SignificantTimeDelta:
		return Reject
	}

	// Accuracies are truncated before differencing, so 10.9 and 10.1 tie.
	// The difference stays in float64 so huge values cannot wrap around.
	accuracyDelta := math.Trunc(candidate.Accuracy) - math.Trunc(current.Accuracy)
	isMoreAccurate := accuracyDelta < 0
	isLessAccurate := accuracyDelta > 0
	isSignificantlyLessAccurate := accuracyDelta > SignificantAccuracyDelta
	isNewer := timeDelta > 0

	switch {
	case isMoreAccurate:
		return Accept
	case isNewer && !isLessAccurate:
		return Accept
	case isNewer && !isSignificantlyLessAccurate && sameSource(candidate.Source, current.Source):
		return Accept
	}

	return Reject
}

func sameSource(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	return *a == *b
}
