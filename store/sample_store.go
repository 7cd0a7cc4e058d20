package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/raymondelooff/amqp-location-tracker/tracker"
)

const (
	upsertSample = "INSERT INTO `location_sample` " +
		"(`device`, `provider`, `latitude`, `longitude`, `accuracy`, `measured_at`) " +
		"VALUES (?, ?, ?, ?, ?, ?) " +
		"ON DUPLICATE KEY UPDATE " +
		"`latitude` = IF(VALUES(measured_at) >= measured_at, VALUES(latitude), latitude), " +
		"`longitude` = IF(VALUES(measured_at) >= measured_at, VALUES(longitude), longitude), " +
		"`accuracy` = IF(VALUES(measured_at) >= measured_at, VALUES(accuracy), accuracy), " +
		"`measured_at` = GREATEST(measured_at, VALUES(measured_at))"

	selectSample = "SELECT `latitude`, `longitude`, `accuracy`, `measured_at` " +
		"FROM `location_sample` WHERE `device` = ? AND `provider` = ?"
)

// SampleStore keeps the most recent sample of every source of a device.
// It backs the last known sample used to seed the arbiter.
type SampleStore struct {
	device string
	db     *sql.DB
}

// Remember stores the sample unless a newer one is already stored. Samples
// without a source are not stored.
func (s *SampleStore) Remember(sample tracker.Sample) error {
	if sample.Source == nil {
		return nil
	}

	_, err := s.db.Exec(upsertSample,
		s.device,
		*sample.Source,
		sample.Latitude,
		sample.Longitude,
		sample.Accuracy,
		sample.Time,
	)
	if err != nil {
		return fmt.Errorf("SampleStore: %s", err)
	}

	return nil
}

// LastKnown returns the stored sample of the source, nil if there is none
func (s *SampleStore) LastKnown(source string) (*tracker.Sample, error) {
	sample := tracker.Sample{Source: tracker.SourceID(source)}

	err := s.db.QueryRow(selectSample, s.device, source).
		Scan(&sample.Latitude, &sample.Longitude, &sample.Accuracy, &sample.Time)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("SampleStore: %s", err)
	}

	return &sample, nil
}

// NewSampleStore creates a new SampleStore
func NewSampleStore(config MySQLConfig, db *sql.DB) *SampleStore {
	return &SampleStore{
		device: config.Device,
		db:     db,
	}
}
