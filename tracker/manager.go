package tracker

import (
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// SubscriptionHandle identifies an open feed
type SubscriptionHandle interface {
	SourceID() string
}

// SourceService gives access to the position sources
type SourceService interface {
	IsEnabled(source string) (bool, error)
	LastKnownSample(source string) (*Sample, error)
	Subscribe(source string, onSample func(Sample)) (SubscriptionHandle, error)
	Unsubscribe(handle SubscriptionHandle) error
}

// StatusNotifier is implemented by source services that can report a feed
// lost after it was opened
type StatusNotifier interface {
	NotifyUnavailable(handler func(source string, err error))
}

// feed gates the callbacks of one subscription. Once closed, no sample passes.
type feed struct {
	source string
	handle SubscriptionHandle

	mu     sync.RWMutex
	closed bool
}

func (f *feed) deliver(arbiter *Arbiter, sample Sample) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return
	}

	arbiter.OfferFrom(f.source, sample)
}

// close waits for in-flight deliveries to leave the gate
func (f *feed) close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

func (f *feed) isClosed() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.closed
}

// Manager opens and closes a feed for every known source
type Manager struct {
	service SourceService
	sources []string
	arbiter *Arbiter
	sink    EstimateSink
	metrics *Metrics
	logger  *zap.SugaredLogger

	mu      sync.Mutex
	feeds   map[string]*feed
	stopped bool
}

// Start brings up every source independently. A failing source is reported
// to the sink and does not prevent attempts on the others. The returned error
// combines the per-source errors.
func (m *Manager) Start() error {
	if notifier, ok := m.service.(StatusNotifier); ok {
		notifier.NotifyUnavailable(m.handleLost)
	}

	var errs error
	for _, source := range m.sources {
		if err := m.attach(source); err != nil {
			m.logger.Warnf("manager: %s", err)
			m.report(source, err)

			errs = multierr.Append(errs, err)
		}
	}

	return errs
}

func (m *Manager) attach(source string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = sourceError(source, ErrSubscriptionFailure, fmt.Errorf("panic: %v", r))
		}
	}()

	enabled, err := m.service.IsEnabled(source)
	if err != nil {
		return sourceError(source, ErrSourceUnavailable, err)
	}
	if !enabled {
		return sourceError(source, ErrSourceUnavailable, nil)
	}

	m.logger.Debugf("manager: source %s is enabled", source)

	last, err := m.service.LastKnownSample(source)
	if err != nil {
		m.logger.Warnf("manager: last known sample of %s: %s", source, err)
	} else if last != nil {
		m.logger.Debugf("manager: seeding with last known sample %s", last)
		m.arbiter.OfferFrom(source, *last)
	}

	f := &feed{source: source}
	handle, err := m.service.Subscribe(source, func(sample Sample) {
		f.deliver(m.arbiter, sample)
	})
	if err != nil {
		return sourceError(source, ErrSubscriptionFailure, err)
	}
	f.handle = handle

	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		f.close()

		return m.service.Unsubscribe(handle)
	}
	m.feeds[source] = f
	m.mu.Unlock()

	m.logger.Infof("manager: subscribed to %s", source)

	return nil
}

func (m *Manager) handleLost(source string, err error) {
	m.mu.Lock()
	f, ok := m.feeds[source]
	m.mu.Unlock()

	if !ok || f.isClosed() {
		return
	}

	m.report(source, sourceError(source, ErrSourceUnavailable, err))
}

func (m *Manager) report(source string, err error) {
	m.metrics.observeUnavailable(source)
	m.sink.OnSourceUnavailable(source, err.Error())
}

// Stop closes every open feed. When Stop returns, no sample from any feed
// reaches the arbiter.
func (m *Manager) Stop() error {
	m.mu.Lock()
	feeds := m.feeds
	m.feeds = map[string]*feed{}
	m.stopped = true
	m.mu.Unlock()

	var errs error
	for source, f := range feeds {
		f.close()

		if err := m.service.Unsubscribe(f.handle); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("Manager: unsubscribe %s: %w", source, err))
			continue
		}

		m.logger.Infof("manager: unsubscribed from %s", source)
	}

	return errs
}

// NewManager creates a new Manager for the given sources
func NewManager(service SourceService, sources []string, arbiter *Arbiter, sink EstimateSink, metrics *Metrics, logger *zap.SugaredLogger) *Manager {
	seen := make(map[string]bool, len(sources))
	unique := make([]string, 0, len(sources))
	for _, source := range sources {
		if !seen[source] {
			seen[source] = true
			unique = append(unique, source)
		}
	}

	return &Manager{
		service: service,
		sources: unique,
		arbiter: arbiter,
		sink:    sink,
		metrics: metrics,
		logger:  logger,
		feeds:   map[string]*feed{},
	}
}
