package store

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/erazemk/servis/internal/model"
)

var testNow = time.Date(2024, time.June, 15, 10, 0, 0, 0, time.UTC)

func newTestUser(t *testing.T, database *sql.DB, email string) int64 {
	t.Helper()
	u, err := CreateUser(context.Background(), database, email, "", "hash")
	require.NoError(t, err)
	return u.ID
}

func newTestVehicle(t *testing.T, database *sql.DB, userID int64, km int) *model.Vehicle {
	t.Helper()
	v, err := CreateVehicle(context.Background(), database, userID, NewVehicle{
		VehicleDetails: VehicleDetails{Name: "Vario", Type: "motor", Plate: "b 1234 xy", Year: 2022, TaxMonth: 3},
		CurrentKm:      km,
	}, testNow)
	require.NoError(t, err)
	return v
}

func newTestItem(t *testing.T, database *sql.DB, userID, vehicleID int64, name string, km int) *model.ServiceItem {
	t.Helper()
	iv, err := model.DistanceInterval(5000)
	require.NoError(t, err)
	date := model.NewDate(2024, time.January, 1)
	item, err := CreateServiceItem(context.Background(), database, userID, vehicleID,
		ServiceItemInput{Name: name, Interval: iv},
		Baseline{LastKm: &km, LastDate: &date},
	)
	require.NoError(t, err)
	return item
}

func countRows(t *testing.T, database *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, database.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&n))
	return n
}
