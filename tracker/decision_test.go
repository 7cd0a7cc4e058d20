package tracker_test

import (
	"testing"

	"github.com/raymondelooff/amqp-location-tracker/tracker"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name      string
		current   tracker.Sample
		candidate tracker.Sample
		expected  tracker.Decision
	}{
		{
			name:      "one minute newer, equal accuracy",
			current:   sample("A", 0, 50),
			candidate: sample("A", 60000, 50),
			expected:  tracker.Accept,
		},
		{
			name:      "significantly newer, much less accurate",
			current:   sample("A", 0, 10),
			candidate: sample("A", 181000, 500),
			expected:  tracker.Accept,
		},
		{
			name:      "significantly older, more accurate",
			current:   sample("A", 200000, 5),
			candidate: sample("A", 0, 1),
			expected:  tracker.Reject,
		},
		{
			name:      "other source, significantly less accurate",
			current:   sample("A", 0, 10),
			candidate: sample("B", 30000, 300),
			expected:  tracker.Reject,
		},
		{
			name:      "other source, slightly less accurate",
			current:   sample("A", 0, 10),
			candidate: sample("B", 30000, 15),
			expected:  tracker.Reject,
		},
		{
			name:      "same source, slightly less accurate",
			current:   sample("A", 0, 10),
			candidate: sample("A", 30000, 15),
			expected:  tracker.Accept,
		},
		{
			name:      "same source, significantly less accurate",
			current:   sample("A", 0, 10),
			candidate: sample("A", 30000, 211),
			expected:  tracker.Reject,
		},
		{
			name:      "same source, accuracy delta at threshold",
			current:   sample("A", 0, 10),
			candidate: sample("A", 30000, 210),
			expected:  tracker.Accept,
		},
		{
			name:      "older but more accurate",
			current:   sample("A", 60000, 50),
			candidate: sample("B", 0, 20),
			expected:  tracker.Accept,
		},
		{
			name:      "older and equally accurate",
			current:   sample("A", 60000, 50),
			candidate: sample("A", 0, 50),
			expected:  tracker.Reject,
		},
		{
			name:      "exactly two minutes newer is not significant",
			current:   sample("A", 0, 10),
			candidate: sample("B", tracker.SignificantTimeDelta, 500),
			expected:  tracker.Reject,
		},
		{
			name:      "exactly two minutes older is not significant",
			current:   sample("A", tracker.SignificantTimeDelta, 50),
			candidate: sample("B", 0, 10),
			expected:  tracker.Accept,
		},
		{
			name:      "accuracies truncated before comparison",
			current:   sample("A", 0, 10.9),
			candidate: sample("B", 1, 10.1),
			expected:  tracker.Accept,
		},
		{
			name:      "sub-unit improvement does not count",
			current:   sample("A", 1000, 10.9),
			candidate: sample("B", 0, 10.1),
			expected:  tracker.Reject,
		},
		{
			name:      "both sources unknown count as same source",
			current:   tracker.Sample{Time: 0, Accuracy: 10},
			candidate: tracker.Sample{Time: 30000, Accuracy: 15},
			expected:  tracker.Accept,
		},
		{
			name:      "huge accuracy from other source is less accurate",
			current:   sample("A", 0, 0.5),
			candidate: sample("B", 30000, 1e19),
			expected:  tracker.Reject,
		},
		{
			name:      "huge current accuracy is beaten by any finite one",
			current:   sample("A", 30000, 1e19),
			candidate: sample("B", 0, 1e18),
			expected:  tracker.Accept,
		},
		{
			name:      "unknown source differs from a known one",
			current:   sample("A", 0, 10),
			candidate: tracker.Sample{Time: 30000, Accuracy: 15},
			expected:  tracker.Reject,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			current := tt.current
			result := tracker.Evaluate(&current, tt.candidate)
			if result != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, result)
			}
		})
	}
}

func TestEvaluateWithoutEstimate(t *testing.T) {
	candidates := []tracker.Sample{
		sample("A", 0, 10),
		sample("B", -500000, 10000),
		{Time: 1, Accuracy: 0},
	}

	for _, candidate := range candidates {
		if result := tracker.Evaluate(nil, candidate); result != tracker.Accept {
			t.Errorf("expected accept for %s, got %s", candidate, result)
		}
	}
}

func TestEvaluateExactDuplicate(t *testing.T) {
	current := sample("A", 60000, 25)
	duplicate := current

	if result := tracker.Evaluate(&current, duplicate); result != tracker.Reject {
		t.Errorf("expected duplicate to be rejected, got %s", result)
	}
}

func TestEvaluateDoesNotMutate(t *testing.T) {
	current := sample("A", 0, 10.7)
	candidate := sample("B", 30000, 15.2)
	before, beforeCandidate := current, candidate

	tracker.Evaluate(&current, candidate)

	if current != before || candidate != beforeCandidate {
		t.Error("Evaluate should not modify its inputs")
	}
}
