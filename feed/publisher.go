package feed

import (
	"fmt"
	"sync"
	"time"

	"github.com/raymondelooff/amqp-location-tracker/tracker"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// Publisher is a tracker.EstimateSink publishing every estimate to the
// exchange under "<tag>.estimate"
type Publisher struct {
	config  AMQPConfig
	logger  *zap.SugaredLogger
	channel *amqp.Channel

	mu sync.Mutex
}

// Open a Channel for publishing on the given connection
func (p *Publisher) Open(connection *amqp.Connection) error {
	channel, err := connection.Channel()
	if err != nil {
		return fmt.Errorf("Publisher: failed to get Channel: %v", err)
	}

	p.mu.Lock()
	p.channel = channel
	p.mu.Unlock()

	return nil
}

// Publish a single estimate
func (p *Publisher) Publish(estimate tracker.Sample) error {
	body, err := EncodeSample(estimate)
	if err != nil {
		return fmt.Errorf("Publisher: %v", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel == nil {
		return fmt.Errorf("Publisher: Channel not open")
	}

	return p.channel.Publish(
		p.config.Exchange, // exchange
		EstimateKey(p.config.Tag),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Timestamp:   time.Now(),
			Body:        body,
		},
	)
}

// OnEstimateUpdated publishes the estimate
func (p *Publisher) OnEstimateUpdated(estimate tracker.Sample) {
	if err := p.Publish(estimate); err != nil {
		p.logger.Warnf("publisher: %s", err)
	}
}

// OnSourceUnavailable is a no-op, unavailability is not published
func (p *Publisher) OnSourceUnavailable(source string, reason string) {}

// OnCapabilityDenied is a no-op, nothing is published without a capability
func (p *Publisher) OnCapabilityDenied() {}

// Close the publishing Channel
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel == nil {
		return nil
	}

	err := p.channel.Close()
	p.channel = nil

	return err
}

// EstimateKey returns the routing key estimates are published under
func EstimateKey(tag string) string {
	return fmt.Sprintf("%s.estimate", tag)
}

// NewPublisher creates a new Publisher
func NewPublisher(config AMQPConfig, logger *zap.SugaredLogger) *Publisher {
	return &Publisher{
		config: config,
		logger: logger,
	}
}
