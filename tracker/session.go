package tracker

import (
	"sync"

	"go.uber.org/zap"
)

// State is the lifecycle state of a Session
type State int

const (
	Idle State = iota
	AwaitingCapability
	Denied
	Subscribed
	TornDown
)

func (s State) String() string {
	switch s {
	case AwaitingCapability:
		return "awaiting-capability"
	case Denied:
		return "denied"
	case Subscribed:
		return "subscribed"
	case TornDown:
		return "torn-down"
	default:
		return "idle"
	}
}

// Session ties the gate, the manager and the arbiter together
type Session struct {
	gate    *Gate
	manager *Manager
	arbiter *Arbiter
	sink    EstimateSink
	logger  *zap.SugaredLogger

	mu    sync.Mutex
	state State
}

// Start checks the capability and subscribes once it is granted. It never
// blocks waiting for a reading or for the capability result.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.state != Idle {
		s.mu.Unlock()

		return ErrSessionStarted
	}
	s.state = AwaitingCapability
	s.mu.Unlock()

	if s.gate.Check() == CapabilityGranted {
		s.logger.Debugf("session: capability already granted")
		s.onCapabilityResult(true)

		return nil
	}

	s.logger.Infof("session: requesting capability")
	s.gate.Request(s.onCapabilityResult)

	return nil
}

func (s *Session) onCapabilityResult(granted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != AwaitingCapability {
		s.logger.Debugf("session: ignoring capability result in state %s", s.state)

		return
	}

	if !granted {
		s.state = Denied
		s.logger.Warnf("session: %s", ErrCapabilityDenied)
		s.sink.OnCapabilityDenied()

		return
	}

	s.state = Subscribed
	if err := s.manager.Start(); err != nil {
		s.logger.Warnf("session: some sources failed: %s", err)
	}
}

// Stop tears the session down. It is safe to call more than once.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == TornDown {
		return nil
	}

	var err error
	if s.state == Subscribed {
		err = s.manager.Stop()
	}

	s.arbiter.Close()
	s.state = TornDown

	s.logger.Infof("session: torn down")

	return err
}

// State returns the current lifecycle state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Estimate returns the current best estimate, if any
func (s *Session) Estimate() (Sample, bool) {
	return s.arbiter.Estimate()
}

// NewSession creates a new idle Session
func NewSession(capability CapabilityProvider, service SourceService, sources []string, sink EstimateSink, metrics *Metrics, logger *zap.SugaredLogger) *Session {
	arbiter := NewArbiter(sink, metrics, logger)

	return &Session{
		gate:    NewGate(capability, sink, logger),
		manager: NewManager(service, sources, arbiter, sink, metrics, logger),
		arbiter: arbiter,
		sink:    sink,
		logger:  logger,
		state:   Idle,
	}
}
