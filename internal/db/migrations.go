package db

import (
	"database/sql"
	"fmt"
)

// migrations are applied in order after schema creation. The index of the last
// applied migration is kept in PRAGMA user_version, so each entry runs once.
// Append new migrations at the end; never reorder.
var migrations = []string{
	// Migration 1: history listings are always ordered by service date.
	`CREATE INDEX IF NOT EXISTS idx_service_history_date
	     ON service_history(vehicle_id, service_date DESC, id DESC)`,
	// Migration 2: same for tax payments on the timeline.
	`CREATE INDEX IF NOT EXISTS idx_tax_payments_date
	     ON tax_payments(vehicle_id, paid_date DESC, id DESC)`,
	// Migration 3: service item ids are never reused. Databases created
	// before the schema switched to AUTOINCREMENT are rebuilt, and the
	// sequence starts above every id history still refers to.
	`CREATE TABLE service_items_new (
	     id                  INTEGER PRIMARY KEY AUTOINCREMENT,
	     vehicle_id          INTEGER NOT NULL REFERENCES vehicles(id) ON DELETE CASCADE,
	     name                TEXT NOT NULL,
	     interval_type       TEXT NOT NULL DEFAULT 'NONE'
	         CHECK (interval_type IN ('KM', 'DAY', 'MONTH', 'YEAR', 'WHICHEVER_FIRST', 'NONE')),
	     interval_value      INTEGER,
	     time_interval_value INTEGER,
	     time_interval_unit  TEXT CHECK (time_interval_unit IS NULL OR time_interval_unit IN ('DAY', 'MONTH', 'YEAR')),
	     last_km             INTEGER,
	     last_date           TEXT,
	     notes               TEXT,
	     created_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	     updated_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	 );
	 INSERT INTO service_items_new (id, vehicle_id, name, interval_type, interval_value,
	     time_interval_value, time_interval_unit, last_km, last_date, notes, created_at, updated_at)
	 SELECT id, vehicle_id, name, interval_type, interval_value,
	     time_interval_value, time_interval_unit, last_km, last_date, notes, created_at, updated_at
	 FROM service_items;
	 DROP TABLE service_items;
	 ALTER TABLE service_items_new RENAME TO service_items;
	 CREATE INDEX IF NOT EXISTS idx_service_items_vehicle ON service_items(vehicle_id);
	 DELETE FROM sqlite_sequence WHERE name = 'service_items';
	 INSERT INTO sqlite_sequence (name, seq) VALUES ('service_items', max(
	     (SELECT COALESCE(MAX(id), 0) FROM service_items),
	     (SELECT COALESCE(MAX(item_id), 0) FROM service_history_items)));`,
}

// Migrate ensures the schema exists and applies pending migrations.
func Migrate(db *sql.DB) error {
	if err := EnsureSchema(db); err != nil {
		return err
	}

	var version int
	if err := db.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	for i := version; i < len(migrations); i++ {
		if err := applyMigration(db, i+1, migrations[i]); err != nil {
			return err
		}
	}

	return nil
}

// applyMigration runs one migration and records its version in a single
// transaction, so a failed rebuild leaves the previous schema in place.
func applyMigration(db *sql.DB, version int, stmt string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning migration %d: %w", version, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(stmt); err != nil {
		return fmt.Errorf("running migration %d: %w", version, err)
	}
	// PRAGMA does not accept bound parameters.
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
		return fmt.Errorf("recording migration %d: %w", version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing migration %d: %w", version, err)
	}
	return nil
}
