package feed

import (
	"fmt"
	"sync"
	"time"

	"github.com/avast/retry-go"
	"github.com/google/uuid"
	"github.com/raymondelooff/amqp-location-tracker/tracker"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// AMQPConfig represents the config of the Subscriber
type AMQPConfig struct {
	Tag      string `yaml:"tag" validate:"required"`
	Exchange string `yaml:"exchange" validate:"required"`
	DSN      string `yaml:"dsn" validate:"required"`
	TLS      bool   `yaml:"tls"`
}

// SampleStore keeps the last sample received per source
type SampleStore interface {
	Remember(sample tracker.Sample) error
	LastKnown(source string) (*tracker.Sample, error)
}

// subscription is the SubscriptionHandle of one source feed
type subscription struct {
	source      string
	consumerTag string
	channel     *amqp.Channel
	queue       amqp.Queue
	done        chan struct{}
}

func (s *subscription) SourceID() string {
	return s.source
}

// Subscriber is a tracker.SourceService reading location readings from AMQP
type Subscriber struct {
	config     AMQPConfig
	sources    map[string]bool
	store      SampleStore
	logger     *zap.SugaredLogger
	connection *amqp.Connection

	mu     sync.Mutex
	onLost func(source string, err error)
}

// Connect with the configured AMQP broker
func (s *Subscriber) Connect() error {
	var err error

	if s.config.TLS {
		s.connection, err = amqp.DialTLS(s.config.DSN, nil)
	} else {
		s.connection, err = amqp.Dial(s.config.DSN)
	}
	if err != nil {
		return fmt.Errorf("Subscriber: %v", err)
	}

	s.logger.Infof("subscriber: connection established")

	return nil
}

// Get a Channel for the deliveries of one source
func (s *Subscriber) getChannel() (*amqp.Channel, error) {
	channel, err := s.connection.Channel()
	if err != nil {
		s.logger.Warnf("subscriber: %s", err)

		return nil, fmt.Errorf("Subscriber: failed to get Channel")
	}

	return channel, nil
}

// Declare a non-durable Queue for the deliveries of one source
func (s *Subscriber) declareQueue(channel *amqp.Channel, source string) (amqp.Queue, error) {
	queueName := QueueName(s.config.Tag, source)
	s.logger.Debugf("subscriber: declaring Queue %v", queueName)

	queue, err := channel.QueueDeclare(
		queueName,
		false, // durable
		true,  // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // arguments
	)
	if err != nil {
		s.logger.Warnf("subscriber: %s", err)

		return amqp.Queue{}, fmt.Errorf("Subscriber: failed to declare Queue")
	}

	return queue, nil
}

// Bind the Queue to the topic of the source
func (s *Subscriber) bindQueue(channel *amqp.Channel, queue amqp.Queue, source string) error {
	topic := TopicFor(source)
	s.logger.Debugf("subscriber: binding topic to Exchange (key: %q)", topic.Value)

	err := channel.QueueBind(
		queue.Name,        // name
		topic.Value,       // key
		s.config.Exchange, // exchange
		false,             // noWait
		nil,               // arguments
	)
	if err != nil {
		s.logger.Warnf("subscriber: %s", err)

		return fmt.Errorf("Subscriber: failed to bind Queue")
	}

	return nil
}

// Delete the declared Queue if there are no more consumers
func (s *Subscriber) deleteQueue(sub *subscription) error {
	_, err := sub.channel.QueueDelete(sub.queue.Name, true, false, false)
	if err != nil {
		s.logger.Warnf("subscriber: %s", err)

		return fmt.Errorf("Subscriber: failed to delete Queue")
	}

	return nil
}

// IsEnabled reports whether the source is configured and enabled
func (s *Subscriber) IsEnabled(source string) (bool, error) {
	if !s.sources[source] {
		return false, nil
	}

	if s.connection == nil || s.connection.IsClosed() {
		return false, fmt.Errorf("Subscriber: not connected")
	}

	return true, nil
}

// LastKnownSample returns the last sample stored for the source
func (s *Subscriber) LastKnownSample(source string) (*tracker.Sample, error) {
	if s.store == nil {
		return nil, nil
	}

	return s.store.LastKnown(source)
}

// Subscribe opens a feed of every reading of the source
func (s *Subscriber) Subscribe(source string, onSample func(tracker.Sample)) (tracker.SubscriptionHandle, error) {
	sub := &subscription{
		source:      source,
		consumerTag: fmt.Sprintf("%s-%s", s.config.Tag, uuid.NewString()),
		done:        make(chan struct{}),
	}

	err := retry.Do(
		func() error {
			channel, err := s.getChannel()
			if err != nil {
				return err
			}

			queue, err := s.declareQueue(channel, source)
			if err == nil {
				err = s.bindQueue(channel, queue, source)
			}
			if err != nil {
				channel.Close()

				return err
			}

			sub.channel = channel
			sub.queue = queue

			return nil
		},
		retry.Attempts(3),
		retry.Delay(100*time.Millisecond),
	)
	if err != nil {
		return nil, err
	}

	deliveries, err := sub.channel.Consume(
		sub.queue.Name,  // queue
		sub.consumerTag, // consumer
		true,            // autoAck
		false,           // exclusive
		false,           // noLocal
		false,           // noWait
		nil,             // arguments
	)
	if err != nil {
		sub.channel.Close()

		return nil, fmt.Errorf("Subscriber: failed to consume Queue: %v", err)
	}

	closed := sub.channel.NotifyClose(make(chan *amqp.Error, 1))

	go s.consume(sub, deliveries, onSample)
	go s.watch(sub, closed)

	s.logger.Infof("subscriber: consuming %s (consumer: %s)", sub.queue.Name, sub.consumerTag)

	return sub, nil
}

func (s *Subscriber) consume(sub *subscription, deliveries <-chan amqp.Delivery, onSample func(tracker.Sample)) {
	defer close(sub.done)

	for delivery := range deliveries {
		sample, err := DecodeSample(delivery.Body, delivery.RoutingKey)
		if err != nil {
			s.logger.Warnf("subscriber: dropping message on %q: %s", delivery.RoutingKey, err)
			continue
		}

		s.logger.Debugf("subscriber: received %s", sample)

		if s.store != nil {
			if err := s.store.Remember(sample); err != nil {
				s.logger.Warnf("subscriber: %s", err)
			}
		}

		onSample(sample)
	}
}

func (s *Subscriber) watch(sub *subscription, closed <-chan *amqp.Error) {
	err, ok := <-closed
	if !ok || err == nil {
		return
	}

	s.logger.Warnf("subscriber: channel of %s closed: %s", sub.source, err)

	s.mu.Lock()
	onLost := s.onLost
	s.mu.Unlock()

	if onLost != nil {
		onLost(sub.source, err)
	}
}

// NotifyUnavailable registers a handler for feeds lost after subscription
func (s *Subscriber) NotifyUnavailable(handler func(source string, err error)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.onLost = handler
}

// Unsubscribe cancels the consumer and waits for the pending deliveries to
// be handed over before closing the channel
func (s *Subscriber) Unsubscribe(handle tracker.SubscriptionHandle) error {
	sub, ok := handle.(*subscription)
	if !ok {
		return fmt.Errorf("Subscriber: unknown subscription handle %T", handle)
	}

	if err := sub.channel.Cancel(sub.consumerTag, false); err != nil {
		s.logger.Warnf("subscriber: cancel %s: %s", sub.consumerTag, err)
	}

	<-sub.done

	err := s.deleteQueue(sub)

	if cerr := sub.channel.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("Subscriber: channel close error: %s", cerr)
	}

	return err
}

// Shutdown the Subscriber
func (s *Subscriber) Shutdown() error {
	s.logger.Infof("subscriber: shutting down")

	if s.connection == nil {
		s.logger.Infof("subscriber: shutdown OK")

		return nil
	}

	if err := s.connection.Close(); err != nil {
		return fmt.Errorf("AMQP connection close error: %s", err)
	}

	s.logger.Infof("subscriber: shutdown OK")

	return nil
}

// Connection returns the underlying connection, nil before Connect
func (s *Subscriber) Connection() *amqp.Connection {
	return s.connection
}

// QueueName returns the name of the queue declared for a source
func QueueName(tag string, source string) string {
	return fmt.Sprintf("amqp-location-tracker-%s-%s", tag, source)
}

// NewSubscriber creates a new Subscriber for the given sources
func NewSubscriber(config AMQPConfig, sources []tracker.SourceDescriptor, store SampleStore, logger *zap.SugaredLogger) *Subscriber {
	enabled := make(map[string]bool, len(sources))
	for _, source := range sources {
		enabled[source.ID] = source.Enabled
	}

	return &Subscriber{
		config:     config,
		sources:    enabled,
		store:      store,
		logger:     logger,
		connection: nil,
	}
}
