package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/raymondelooff/amqp-location-tracker/feed"
	"github.com/raymondelooff/amqp-location-tracker/store"
	"github.com/raymondelooff/amqp-location-tracker/tracker"
	"gopkg.in/yaml.v2"
)

// Config is the main configuration
type Config struct {
	Env        string            `yaml:"env" validate:"omitempty,oneof=dev prod"`
	AMQP       feed.AMQPConfig   `yaml:"amqp"`
	MySQL      store.MySQLConfig `yaml:"mysql"`
	Metrics    MetricsConfig     `yaml:"metrics"`
	Capability CapabilityConfig  `yaml:"capability"`
	Sources    []SourceConfig    `yaml:"sources" validate:"required,min=1,dive"`
}

// MetricsConfig represents the config of the metrics endpoint
type MetricsConfig struct {
	Listen string `yaml:"listen" validate:"omitempty,hostname_port"`
}

// CapabilityConfig represents the config of the capability provider
type CapabilityConfig struct {
	State          string `yaml:"state" validate:"omitempty,oneof=unknown denied granted"`
	GrantOnRequest bool   `yaml:"grant_on_request"`
	Rationale      bool   `yaml:"rationale"`
}

// SourceConfig represents a known position source
type SourceConfig struct {
	ID      string `yaml:"id" validate:"required,sourceid"`
	Enabled bool   `yaml:"enabled"`
}

// Provider builds the capability provider described by the config
func (c CapabilityConfig) Provider() (*tracker.StaticCapability, error) {
	state, err := tracker.ParseCapabilityState(c.State)
	if err != nil {
		return nil, err
	}

	return tracker.NewStaticCapability(state, c.GrantOnRequest, c.Rationale), nil
}

// Descriptors returns the configured sources
func (c Config) Descriptors() []tracker.SourceDescriptor {
	descriptors := make([]tracker.SourceDescriptor, 0, len(c.Sources))
	for _, source := range c.Sources {
		descriptors = append(descriptors, tracker.SourceDescriptor{ID: source.ID, Enabled: source.Enabled})
	}

	return descriptors
}

// SourceIDs returns the identifiers of every configured source, enabled or not
func (c Config) SourceIDs() []string {
	ids := make([]string, 0, len(c.Sources))
	for _, source := range c.Sources {
		ids = append(ids, source.ID)
	}

	return ids
}

// loadConfig reads the YAML config file. A .env file in the working directory
// may override the DSNs through TRACKER_AMQP_DSN and TRACKER_MYSQL_DSN.
func loadConfig(path string) (Config, error) {
	_ = godotenv.Load()

	c := Config{}

	f, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}

	if err := yaml.Unmarshal(f, &c); err != nil {
		return c, err
	}

	if v := strings.TrimSpace(os.Getenv("TRACKER_AMQP_DSN")); v != "" {
		c.AMQP.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv("TRACKER_MYSQL_DSN")); v != "" {
		c.MySQL.DSN = v
	}

	if err := newValidator().Struct(c); err != nil {
		return c, fmt.Errorf("invalid config: %w", err)
	}

	return c, nil
}

func newValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterValidation("sourceid", func(fl validator.FieldLevel) bool {
		return feed.ValidSourceID(fl.Field().String())
	})

	return validate
}
