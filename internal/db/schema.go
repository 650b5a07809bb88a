package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
// Calendar dates are TEXT (YYYY-MM-DD) and tax windows are TEXT (YYYY-MM) so
// they compare lexicographically and are never reinterpreted by the driver.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    email         TEXT NOT NULL UNIQUE,
    name          TEXT,
    password_hash TEXT NOT NULL,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS vehicles (
    id                    INTEGER PRIMARY KEY,
    short_id              TEXT NOT NULL UNIQUE,
    user_id               INTEGER NOT NULL REFERENCES users(id),
    name                  TEXT NOT NULL,
    type                  TEXT,
    plate                 TEXT,
    year                  INTEGER,
    tax_month             INTEGER CHECK (tax_month IS NULL OR tax_month BETWEEN 1 AND 12),
    current_km            INTEGER NOT NULL DEFAULT 0 CHECK (current_km >= 0),
    annual_paid_until     TEXT,
    five_year_paid_until  TEXT,
    image                 BLOB,
    image_mime            TEXT,
    created_at            DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at            DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_vehicles_user ON vehicles(user_id);

-- AUTOINCREMENT: history rows keep item ids after the item is deleted, so an
-- id must never be handed out twice.
CREATE TABLE IF NOT EXISTS service_items (
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

CREATE INDEX IF NOT EXISTS idx_service_items_vehicle ON service_items(vehicle_id);

CREATE TABLE IF NOT EXISTS service_history (
    id           INTEGER PRIMARY KEY,
    vehicle_id   INTEGER NOT NULL REFERENCES vehicles(id) ON DELETE CASCADE,
    service_date TEXT NOT NULL,
    odometer_km  INTEGER NOT NULL CHECK (odometer_km >= 0),
    total_cost   INTEGER,
    notes        TEXT,
    created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_service_history_vehicle ON service_history(vehicle_id);

-- No foreign key to service_items: deleting an item keeps the history intact.
CREATE TABLE IF NOT EXISTS service_history_items (
    history_id INTEGER NOT NULL REFERENCES service_history(id) ON DELETE CASCADE,
    position   INTEGER NOT NULL,
    item_id    INTEGER NOT NULL,
    PRIMARY KEY (history_id, position)
);

CREATE TABLE IF NOT EXISTS tax_payments (
    id         INTEGER PRIMARY KEY,
    vehicle_id INTEGER NOT NULL REFERENCES vehicles(id) ON DELETE CASCADE,
    cycle      TEXT NOT NULL CHECK (cycle IN ('annual', 'five_year')),
    paid_until TEXT NOT NULL,
    paid_date  TEXT NOT NULL,
    cost       INTEGER,
    notes      TEXT,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_tax_payments_vehicle ON tax_payments(vehicle_id);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
