package store

import (
	"database/sql"
	"fmt"
)

var schema = []string{
	"CREATE TABLE IF NOT EXISTS `location_estimate` (" +
		"`device` VARCHAR(64) NOT NULL, " +
		"`provider` VARCHAR(64) NULL, " +
		"`latitude` DOUBLE NOT NULL, " +
		"`longitude` DOUBLE NOT NULL, " +
		"`accuracy` DOUBLE NOT NULL, " +
		"`measured_at` BIGINT NOT NULL, " +
		"`modified_at` DATETIME NOT NULL, " +
		"PRIMARY KEY (`device`))",
	"CREATE TABLE IF NOT EXISTS `location_sample` (" +
		"`device` VARCHAR(64) NOT NULL, " +
		"`provider` VARCHAR(64) NOT NULL, " +
		"`latitude` DOUBLE NOT NULL, " +
		"`longitude` DOUBLE NOT NULL, " +
		"`accuracy` DOUBLE NOT NULL, " +
		"`measured_at` BIGINT NOT NULL, " +
		"PRIMARY KEY (`device`, `provider`))",
}

// CreateTables creates the tables used by the Writer and the SampleStore
func CreateTables(db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("schema: %s", err)
		}
	}

	return nil
}
