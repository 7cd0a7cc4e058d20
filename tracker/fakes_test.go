package tracker_test

import (
	"sync"
	"testing"
	"time"

	"github.com/raymondelooff/amqp-location-tracker/tracker"
	"go.uber.org/zap"
)

var nopLogger = zap.NewNop().Sugar()

func sample(source string, t int64, accuracy float64) tracker.Sample {
	return tracker.Sample{
		Source:    tracker.SourceID(source),
		Time:      t,
		Latitude:  44.80,
		Longitude: 10.33,
		Accuracy:  accuracy,
	}
}

type recordingSink struct {
	mu          sync.Mutex
	estimates   []tracker.Sample
	unavailable map[string]string
	denied      int
	rationale   int
}

func newRecordingSink() *recordingSink {
	return &recordingSink{unavailable: map[string]string{}}
}

func (r *recordingSink) OnEstimateUpdated(estimate tracker.Sample) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.estimates = append(r.estimates, estimate)
}

func (r *recordingSink) OnSourceUnavailable(source string, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.unavailable[source] = reason
}

func (r *recordingSink) OnCapabilityDenied() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.denied++
}

func (r *recordingSink) OnCapabilityRationale() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rationale++
}

func (r *recordingSink) snapshot() ([]tracker.Sample, map[string]string, int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	estimates := append([]tracker.Sample(nil), r.estimates...)
	unavailable := make(map[string]string, len(r.unavailable))
	for k, v := range r.unavailable {
		unavailable[k] = v
	}

	return estimates, unavailable, r.denied
}

type fakeHandle string

func (h fakeHandle) SourceID() string { return string(h) }

type fakeService struct {
	mu           sync.Mutex
	enabled      map[string]bool
	enabledErr   map[string]error
	last         map[string]*tracker.Sample
	subscribeErr map[string]error
	panicOn      string
	callbacks    map[string]func(tracker.Sample)
	subscribed   []string
	unsubscribed []string
}

func newFakeService(sources ...string) *fakeService {
	f := &fakeService{
		enabled:      map[string]bool{},
		enabledErr:   map[string]error{},
		last:         map[string]*tracker.Sample{},
		subscribeErr: map[string]error{},
		callbacks:    map[string]func(tracker.Sample){},
	}
	for _, source := range sources {
		f.enabled[source] = true
	}

	return f
}

func (f *fakeService) IsEnabled(source string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if source == f.panicOn {
		panic("provider crashed")
	}

	return f.enabled[source], f.enabledErr[source]
}

func (f *fakeService) LastKnownSample(source string) (*tracker.Sample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.last[source], nil
}

func (f *fakeService) Subscribe(source string, onSample func(tracker.Sample)) (tracker.SubscriptionHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.subscribeErr[source]; err != nil {
		return nil, err
	}

	f.callbacks[source] = onSample
	f.subscribed = append(f.subscribed, source)

	return fakeHandle(source), nil
}

func (f *fakeService) Unsubscribe(handle tracker.SubscriptionHandle) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	// the callback is kept on purpose, so tests can simulate late deliveries
	f.unsubscribed = append(f.unsubscribed, handle.SourceID())

	return nil
}

func (f *fakeService) push(source string, s tracker.Sample) {
	f.mu.Lock()
	cb := f.callbacks[source]
	f.mu.Unlock()

	if cb != nil {
		cb(s)
	}
}

func (f *fakeService) subscriptions() ([]string, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.subscribed...), append([]string(nil), f.unsubscribed...)
}

type fakeCapability struct {
	mu        sync.Mutex
	state     tracker.CapabilityState
	rationale bool
	requests  int
	pending   func(bool)
}

func (f *fakeCapability) CheckCapability() tracker.CapabilityState {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.state
}

func (f *fakeCapability) RequestCapability(onResult func(granted bool)) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests++
	f.pending = onResult
}

func (f *fakeCapability) ShouldShowRationale() bool {
	return f.rationale
}

// answer delivers the pending request result
func (f *fakeCapability) answer(t *testing.T, granted bool) {
	t.Helper()

	f.mu.Lock()
	onResult := f.pending
	f.pending = nil
	f.mu.Unlock()

	if onResult == nil {
		t.Fatal("no pending capability request")
	}

	onResult(granted)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timeout waiting for condition")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
