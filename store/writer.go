package store

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/raymondelooff/amqp-location-tracker/tracker"
	"go.uber.org/zap"
)

const upsertEstimate = "INSERT INTO `location_estimate` " +
	"(`device`, `provider`, `latitude`, `longitude`, `accuracy`, `measured_at`, `modified_at`) " +
	"VALUES (?, ?, ?, ?, ?, ?, NOW()) " +
	"ON DUPLICATE KEY UPDATE " +
	"`provider` = VALUES(provider), " +
	"`latitude` = VALUES(latitude), " +
	"`longitude` = VALUES(longitude), " +
	"`accuracy` = VALUES(accuracy), " +
	"`measured_at` = VALUES(measured_at), " +
	"`modified_at` = VALUES(modified_at)"

// Writer is a tracker.EstimateSink persisting the estimate of a device
type Writer struct {
	device string
	db     *sql.DB
	logger *zap.SugaredLogger

	mu   sync.Mutex
	stmt *sql.Stmt
}

func (w *Writer) prepareStmt() (*sql.Stmt, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stmt != nil {
		return w.stmt, nil
	}

	var err error

	w.stmt, err = w.db.Prepare(upsertEstimate)
	if err != nil {
		return nil, fmt.Errorf("Writer: %s", err)
	}

	return w.stmt, nil
}

// Write inserts or updates the estimate
func (w *Writer) Write(estimate tracker.Sample) error {
	stmt, err := w.prepareStmt()
	if err != nil {
		return err
	}

	_, err = stmt.Exec(
		w.device,
		nullString(estimate.Source),
		estimate.Latitude,
		estimate.Longitude,
		estimate.Accuracy,
		estimate.Time,
	)
	if err != nil {
		return fmt.Errorf("Writer: %s", err)
	}

	return nil
}

// OnEstimateUpdated persists the estimate
func (w *Writer) OnEstimateUpdated(estimate tracker.Sample) {
	if err := w.Write(estimate); err != nil {
		w.logger.Errorf("writer: %s", err)
	}
}

// OnSourceUnavailable is a no-op, only estimates are persisted
func (w *Writer) OnSourceUnavailable(source string, reason string) {}

// OnCapabilityDenied is a no-op, only estimates are persisted
func (w *Writer) OnCapabilityDenied() {}

// Close the prepared statement
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stmt == nil {
		return nil
	}

	err := w.stmt.Close()
	w.stmt = nil

	return err
}

// NewWriter creates a new Writer
func NewWriter(config MySQLConfig, db *sql.DB, logger *zap.SugaredLogger) *Writer {
	return &Writer{
		device: config.Device,
		db:     db,
		logger: logger,
	}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}

	return sql.NullString{String: *s, Valid: true}
}
