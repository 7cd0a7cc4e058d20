package tracker

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// CapabilityState is the authorization state for reading positions
type CapabilityState int

const (
	CapabilityUnknown CapabilityState = iota
	CapabilityDenied
	CapabilityGranted
)

func (s CapabilityState) String() string {
	switch s {
	case CapabilityDenied:
		return "denied"
	case CapabilityGranted:
		return "granted"
	default:
		return "unknown"
	}
}

// ParseCapabilityState parses "unknown", "denied" or "granted"
func ParseCapabilityState(value string) (CapabilityState, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "unknown":
		return CapabilityUnknown, nil
	case "denied":
		return CapabilityDenied, nil
	case "granted":
		return CapabilityGranted, nil
	}

	return CapabilityUnknown, fmt.Errorf("Capability: invalid state %q", value)
}

// CapabilityProvider is the environment that grants position access
type CapabilityProvider interface {
	CheckCapability() CapabilityState
	RequestCapability(onResult func(granted bool))
}

// RationaleProvider is implemented by providers that know whether an earlier
// request was refused without a permanent denial
type RationaleProvider interface {
	ShouldShowRationale() bool
}

// Gate determines whether position access is held and requests it if absent
type Gate struct {
	provider CapabilityProvider
	sink     EstimateSink
	logger   *zap.SugaredLogger

	mu    sync.Mutex
	state CapabilityState
}

// Check queries the provider and records the result
func (g *Gate) Check() CapabilityState {
	state := g.provider.CheckCapability()
	g.settle(state)

	g.logger.Debugf("gate: capability %s", state)

	return state
}

// State returns the last recorded capability state
func (g *Gate) State() CapabilityState {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.state
}

// Request asks the provider for authorization. onResult may be called from
// another goroutine, and is called at most once.
func (g *Gate) Request(onResult func(granted bool)) {
	if rp, ok := g.provider.(RationaleProvider); ok && rp.ShouldShowRationale() {
		g.logger.Infof("gate: previous request refused, showing rationale")

		if rs, ok := g.sink.(RationaleSink); ok {
			rs.OnCapabilityRationale()
		}
	}

	// a new request reopens the state
	g.mu.Lock()
	g.state = CapabilityUnknown
	g.mu.Unlock()

	var once sync.Once
	g.provider.RequestCapability(func(granted bool) {
		once.Do(func() {
			if granted {
				g.settle(CapabilityGranted)
			} else {
				g.settle(CapabilityDenied)
			}

			g.logger.Infof("gate: capability request result (granted: %v)", granted)

			onResult(granted)
		})
	})
}

// settle moves the state out of Unknown; a settled state is kept
func (g *Gate) settle(next CapabilityState) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == CapabilityUnknown {
		g.state = next
	}
}

// NewGate creates a new Gate
func NewGate(provider CapabilityProvider, sink EstimateSink, logger *zap.SugaredLogger) *Gate {
	return &Gate{
		provider: provider,
		sink:     sink,
		logger:   logger,
		state:    CapabilityUnknown,
	}
}

// StaticCapability is a CapabilityProvider driven by configuration
type StaticCapability struct {
	mu             sync.Mutex
	state          CapabilityState
	grantOnRequest bool
	rationale      bool
}

// CheckCapability returns the configured state
func (s *StaticCapability) CheckCapability() CapabilityState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// RequestCapability answers asynchronously with the configured outcome
func (s *StaticCapability) RequestCapability(onResult func(granted bool)) {
	go func() {
		s.mu.Lock()
		granted := s.grantOnRequest
		if granted {
			s.state = CapabilityGranted
		} else {
			s.state = CapabilityDenied
		}
		s.mu.Unlock()

		onResult(granted)
	}()
}

// ShouldShowRationale reports whether an earlier request was refused
func (s *StaticCapability) ShouldShowRationale() bool {
	return s.rationale
}

// NewStaticCapability creates a new StaticCapability
func NewStaticCapability(state CapabilityState, grantOnRequest bool, rationale bool) *StaticCapability {
	return &StaticCapability{
		state:          state,
		grantOnRequest: grantOnRequest,
		rationale:      rationale,
	}
}
