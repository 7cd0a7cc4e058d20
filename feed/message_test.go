package feed_test

import (
	"testing"

	"github.com/raymondelooff/amqp-location-tracker/feed"
	"github.com/raymondelooff/amqp-location-tracker/tracker"
)

func TestDecodeSample(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		routingKey string
		source     string
		wantErr    bool
	}{
		{
			name:       "provider in body",
			body:       `{"provider":"gps","time":1584700000000,"lat":44.8,"lng":10.3,"accuracy":4.5}`,
			routingKey: "network.location",
			source:     "gps",
		},
		{
			name:       "provider from routing key",
			body:       `{"time":1584700000000,"lat":44.8,"lng":10.3,"accuracy":4.5}`,
			routingKey: "network.location",
			source:     "network",
		},
		{
			name:       "no provider at all",
			body:       `{"provider":null,"time":1584700000000,"lat":44.8,"lng":10.3,"accuracy":4.5}`,
			routingKey: "unrelated",
		},
		{
			name:    "invalid json",
			body:    `{"time":`,
			wantErr: true,
		},
		{
			name:    "missing time",
			body:    `{"lat":44.8,"lng":10.3,"accuracy":4.5}`,
			wantErr: true,
		},
		{
			name:    "negative time",
			body:    `{"time":-1,"lat":44.8,"lng":10.3,"accuracy":4.5}`,
			wantErr: true,
		},
		{
			name:    "missing coordinates",
			body:    `{"time":1,"lat":44.8,"accuracy":4.5}`,
			wantErr: true,
		},
		{
			name:    "negative accuracy",
			body:    `{"time":1,"lat":44.8,"lng":10.3,"accuracy":-1}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := feed.DecodeSample([]byte(tt.body), tt.routingKey)
			if (err != nil) != tt.wantErr {
				t.Fatalf("unexpected error state: %v", err)
			}
			if tt.wantErr {
				return
			}

			if tt.source == "" && s.Source != nil {
				t.Errorf("expected no source, got %q", *s.Source)
			}
			if tt.source != "" && (s.Source == nil || *s.Source != tt.source) {
				t.Errorf("expected source %q, got %s", tt.source, s.SourceName())
			}
			if s.Time != 1584700000000 || s.Latitude != 44.8 || s.Longitude != 10.3 || s.Accuracy != 4.5 {
				t.Errorf("unexpected sample %+v", s)
			}
		})
	}
}

func TestEncodeSample(t *testing.T) {
	in := tracker.Sample{Source: tracker.SourceID("gps"), Time: 42, Latitude: 1.5, Longitude: -2.5, Accuracy: 7}

	body, err := feed.EncodeSample(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	out, err := feed.DecodeSample(body, "")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.SourceName() != "gps" || out.Time != in.Time || out.Latitude != in.Latitude ||
		out.Longitude != in.Longitude || out.Accuracy != in.Accuracy {
		t.Errorf("expected %+v, got %+v", in, out)
	}
}

func TestDecodeSampleAtEpoch(t *testing.T) {
	s, err := feed.DecodeSample([]byte(`{"provider":"gps","time":0,"lat":0,"lng":0,"accuracy":0}`), "")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.Time != 0 || s.SourceName() != "gps" {
		t.Errorf("unexpected sample %+v", s)
	}
}

func TestDecodeSampleHugeAccuracy(t *testing.T) {
	s, err := feed.DecodeSample([]byte(`{"provider":"B","time":30000,"lat":44.8,"lng":10.3,"accuracy":1e19}`), "")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	current := tracker.Sample{Source: tracker.SourceID("A"), Time: 0, Accuracy: 0.5}
	if decision := tracker.Evaluate(&current, s); decision != tracker.Reject {
		t.Errorf("expected reject, got %s", decision)
	}
}
