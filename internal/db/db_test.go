package db

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateIsIdempotent(t *testing.T) {
	database, err := Open(filepath.Join(t.TempDir(), "servis.sqlite3"))
	require.NoError(t, err)
	defer database.Close()

	require.NoError(t, Migrate(database))
	require.NoError(t, Migrate(database))

	var version int
	require.NoError(t, database.QueryRow(`PRAGMA user_version`).Scan(&version))
	assert.Equal(t, len(migrations), version)
}

func TestForeignKeysEnabled(t *testing.T) {
	database := NewTestDB(t)

	var enabled int
	require.NoError(t, database.QueryRow(`PRAGMA foreign_keys`).Scan(&enabled))
	assert.Equal(t, 1, enabled)

	// A vehicle must reference an existing user.
	_, err := database.Exec(`INSERT INTO vehicles (short_id, user_id, name) VALUES ('abc', 42, 'Orphan')`)
	assert.Error(t, err)
}

func TestServiceItemIDsAreNotReused(t *testing.T) {
	database := NewTestDB(t)

	mustExec(t, database, `INSERT INTO users (id, email, password_hash) VALUES (1, 'a@example.com', 'x')`)
	mustExec(t, database, `INSERT INTO vehicles (id, short_id, user_id, name) VALUES (1, 'abcd1234', 1, 'Vario')`)
	first := insertItem(t, database, "Oil")
	mustExec(t, database, `DELETE FROM service_items WHERE id = ?`, first)

	second := insertItem(t, database, "Brakes")
	assert.Greater(t, second, first)
}

func TestMigrationRebuildsServiceItemsAboveHistoryIDs(t *testing.T) {
	database, err := Open(filepath.Join(t.TempDir(), "servis.sqlite3"))
	require.NoError(t, err)
	defer database.Close()

	// A database from before the AUTOINCREMENT rebuild: item 5 was deleted
	// but a history entry still refers to it.
	require.NoError(t, EnsureSchema(database))
	mustExec(t, database, `DROP TABLE service_items`)
	mustExec(t, database, `CREATE TABLE service_items (
		id                  INTEGER PRIMARY KEY,
		vehicle_id          INTEGER NOT NULL REFERENCES vehicles(id) ON DELETE CASCADE,
		name                TEXT NOT NULL,
		interval_type       TEXT NOT NULL DEFAULT 'NONE',
		interval_value      INTEGER,
		time_interval_value INTEGER,
		time_interval_unit  TEXT,
		last_km             INTEGER,
		last_date           TEXT,
		notes               TEXT,
		created_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`)
	mustExec(t, database, `INSERT INTO users (id, email, password_hash) VALUES (1, 'a@example.com', 'x')`)
	mustExec(t, database, `INSERT INTO vehicles (id, short_id, user_id, name) VALUES (1, 'abcd1234', 1, 'Vario')`)
	mustExec(t, database, `INSERT INTO service_items (id, vehicle_id, name, last_km) VALUES (2, 1, 'Filter', 700)`)
	mustExec(t, database, `INSERT INTO service_history (id, vehicle_id, service_date, odometer_km) VALUES (1, 1, '2024-01-01', 700)`)
	mustExec(t, database, `INSERT INTO service_history_items (history_id, position, item_id) VALUES (1, 0, 5), (1, 1, 2)`)
	mustExec(t, database, `PRAGMA user_version = 2`)

	require.NoError(t, Migrate(database))

	var name string
	var lastKm int
	require.NoError(t, database.QueryRow(`SELECT name, last_km FROM service_items WHERE id = 2`).Scan(&name, &lastKm))
	assert.Equal(t, "Filter", name)
	assert.Equal(t, 700, lastKm)

	assert.Equal(t, int64(6), insertItem(t, database, "Brakes"))
}

func mustExec(t *testing.T, database *sql.DB, query string, args ...any) {
	t.Helper()
	_, err := database.Exec(query, args...)
	require.NoError(t, err)
}

func insertItem(t *testing.T, database *sql.DB, name string) int64 {
	t.Helper()
	res, err := database.Exec(`INSERT INTO service_items (vehicle_id, name) VALUES (1, ?)`, name)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}
