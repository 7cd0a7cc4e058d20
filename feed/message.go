package feed

import (
	"fmt"

	"github.com/raymondelooff/amqp-location-tracker/tracker"
	"github.com/segmentio/encoding/json"
)

// LocationMessage represents a single location reading message
type LocationMessage struct {
	Provider  *string  `json:"provider"`
	Time      *int64   `json:"time"`
	Latitude  *float64 `json:"lat"`
	Longitude *float64 `json:"lng"`
	Accuracy  *float64 `json:"accuracy"`
}

// DecodeSample decodes a message body into a Sample. When the body carries no
// provider, the source is taken from the routing key.
func DecodeSample(body []byte, routingKey string) (tracker.Sample, error) {
	var msg LocationMessage

	if err := json.Unmarshal(body, &msg); err != nil {
		return tracker.Sample{}, fmt.Errorf("Message: %v", err)
	}

	switch {
	case msg.Time == nil || *msg.Time < 0:
		return tracker.Sample{}, fmt.Errorf("Message: missing or negative time")
	case msg.Latitude == nil || msg.Longitude == nil:
		return tracker.Sample{}, fmt.Errorf("Message: missing coordinates")
	case msg.Accuracy == nil || *msg.Accuracy < 0:
		return tracker.Sample{}, fmt.Errorf("Message: missing or negative accuracy")
	}

	source := msg.Provider
	if source == nil || *source == "" {
		source = nil

		if id, err := NewTopic(routingKey).GetSourceID(); err == nil {
			source = tracker.SourceID(id)
		}
	}

	return tracker.Sample{
		Source:    source,
		Time:      *msg.Time,
		Latitude:  *msg.Latitude,
		Longitude: *msg.Longitude,
		Accuracy:  *msg.Accuracy,
	}, nil
}

// EncodeSample encodes a Sample as a message body
func EncodeSample(sample tracker.Sample) ([]byte, error) {
	return json.Marshal(LocationMessage{
		Provider:  sample.Source,
		Time:      &sample.Time,
		Latitude:  &sample.Latitude,
		Longitude: &sample.Longitude,
		Accuracy:  &sample.Accuracy,
	})
}
