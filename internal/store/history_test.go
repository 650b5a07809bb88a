package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/servis/internal/db"
	"github.com/erazemk/servis/internal/model"
)

func TestRecordServiceRebasesItemsAndRaisesOdometer(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	userID := newTestUser(t, database, "a@example.com")
	v := newTestVehicle(t, database, userID, 10000)
	oil := newTestItem(t, database, userID, v.ID, "Oil", 5000)
	filter := newTestItem(t, database, userID, v.ID, "Filter", 5000)
	tires := newTestItem(t, database, userID, v.ID, "Tires", 5000)

	cost := int64(350000)
	date := model.NewDate(2024, time.June, 1)
	entry, err := RecordService(ctx, database, userID, ServiceRecord{
		VehicleID:   v.ID,
		ServiceDate: date,
		OdometerKm:  12500,
		ItemIDs:     []int64{filter.ID, oil.ID},
		TotalCost:   &cost,
		Notes:       " shop A ",
	})
	require.NoError(t, err)

	assert.Equal(t, v.ID, entry.VehicleID)
	assert.Equal(t, date, entry.ServiceDate)
	assert.Equal(t, 12500, entry.OdometerKm)
	assert.Equal(t, []int64{filter.ID, oil.ID}, entry.ItemIDs)
	assert.Equal(t, []string{"Filter", "Oil"}, entry.ItemNames)
	require.NotNil(t, entry.TotalCost)
	assert.Equal(t, cost, *entry.TotalCost)
	assert.Equal(t, "shop A", entry.Notes)

	for _, id := range []int64{oil.ID, filter.ID} {
		item, err := OwnedServiceItem(ctx, database, userID, id)
		require.NoError(t, err)
		assert.Equal(t, 12500, *item.LastKm)
		assert.Equal(t, date, *item.LastDate)
	}
	untouched, err := OwnedServiceItem(ctx, database, userID, tires.ID)
	require.NoError(t, err)
	assert.Equal(t, 5000, *untouched.LastKm)

	got, err := GetVehicle(ctx, database, userID, v.ID)
	require.NoError(t, err)
	assert.Equal(t, 12500, got.CurrentKm)
}

func TestRecordServiceNeverLowersOdometer(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	userID := newTestUser(t, database, "a@example.com")
	v := newTestVehicle(t, database, userID, 20000)
	item := newTestItem(t, database, userID, v.ID, "Oil", 15000)

	entry, err := RecordService(ctx, database, userID, ServiceRecord{
		VehicleID: v.ID, ServiceDate: model.NewDate(2024, time.March, 1), OdometerKm: 19999, ItemIDs: []int64{item.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, 19999, entry.OdometerKm)

	got, err := GetVehicle(ctx, database, userID, v.ID)
	require.NoError(t, err)
	assert.Equal(t, 20000, got.CurrentKm)

	rebased, err := OwnedServiceItem(ctx, database, userID, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 19999, *rebased.LastKm)
}

func TestRecordServiceRejectsCrossVehicleItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	userID := newTestUser(t, database, "a@example.com")
	car := newTestVehicle(t, database, userID, 1000)
	bike := newTestVehicle(t, database, userID, 1000)
	carOil := newTestItem(t, database, userID, car.ID, "Oil", 0)
	bikeChain := newTestItem(t, database, userID, bike.ID, "Chain", 0)

	_, err := RecordService(ctx, database, userID, ServiceRecord{
		VehicleID: car.ID, ServiceDate: model.NewDate(2024, time.March, 1), OdometerKm: 2000,
		ItemIDs: []int64{carOil.ID, bikeChain.ID},
	})
	require.True(t, IsValidation(err), "expected validation error, got %v", err)
	assert.Contains(t, err.Error(), "does not belong")

	assert.Zero(t, countRows(t, database, "service_history"))
	chain, err := OwnedServiceItem(ctx, database, userID, bikeChain.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, *chain.LastKm)
	oil, err := OwnedServiceItem(ctx, database, userID, carOil.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, *oil.LastKm)
	got, err := GetVehicle(ctx, database, userID, car.ID)
	require.NoError(t, err)
	assert.Equal(t, 1000, got.CurrentKm)
}

func TestRecordServiceRejectsForeignVehicle(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := newTestUser(t, database, "a@example.com")
	intruder := newTestUser(t, database, "b@example.com")
	v := newTestVehicle(t, database, owner, 1000)
	item := newTestItem(t, database, owner, v.ID, "Oil", 0)

	_, err := RecordService(ctx, database, intruder, ServiceRecord{
		VehicleID: v.ID, ServiceDate: model.NewDate(2024, time.March, 1), OdometerKm: 2000, ItemIDs: []int64{item.ID},
	})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, countRows(t, database, "service_history"))
}

func TestRecordServiceValidation(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	userID := newTestUser(t, database, "a@example.com")
	v := newTestVehicle(t, database, userID, 1000)
	item := newTestItem(t, database, userID, v.ID, "Oil", 0)
	date := model.NewDate(2024, time.March, 1)
	negative := int64(-1)

	tests := map[string]ServiceRecord{
		"no items":      {VehicleID: v.ID, ServiceDate: date, OdometerKm: 10},
		"no date":       {VehicleID: v.ID, OdometerKm: 10, ItemIDs: []int64{item.ID}},
		"negative km":   {VehicleID: v.ID, ServiceDate: date, OdometerKm: -1, ItemIDs: []int64{item.ID}},
		"km too large":  {VehicleID: v.ID, ServiceDate: date, OdometerKm: model.MaxOdometer, ItemIDs: []int64{item.ID}},
		"negative cost": {VehicleID: v.ID, ServiceDate: date, OdometerKm: 10, ItemIDs: []int64{item.ID}, TotalCost: &negative},
		"unknown item":  {VehicleID: v.ID, ServiceDate: date, OdometerKm: 10, ItemIDs: []int64{item.ID + 100}},
	}
	for name, rec := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := RecordService(ctx, database, userID, rec)
			assert.True(t, IsValidation(err), "got %v", err)
		})
	}
	assert.Zero(t, countRows(t, database, "service_history"))
}

func TestRecordServiceIsAtomic(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	userID := newTestUser(t, database, "a@example.com")
	v := newTestVehicle(t, database, userID, 10000)
	item := newTestItem(t, database, userID, v.ID, "Oil", 5000)

	// Fail the last write of the batch, after history and rebase succeeded.
	_, err := database.Exec(`CREATE TRIGGER fail_odometer BEFORE UPDATE OF current_km ON vehicles
		BEGIN SELECT RAISE(ABORT, 'injected failure'); END`)
	require.NoError(t, err)

	_, err = RecordService(ctx, database, userID, ServiceRecord{
		VehicleID: v.ID, ServiceDate: model.NewDate(2024, time.June, 1), OdometerKm: 15000, ItemIDs: []int64{item.ID},
	})
	require.Error(t, err)
	assert.False(t, IsValidation(err))

	assert.Zero(t, countRows(t, database, "service_history"))
	assert.Zero(t, countRows(t, database, "service_history_items"))
	got, err := OwnedServiceItem(ctx, database, userID, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 5000, *got.LastKm)
	assert.Equal(t, model.NewDate(2024, time.January, 1), *got.LastDate)
	vehicle, err := GetVehicle(ctx, database, userID, v.ID)
	require.NoError(t, err)
	assert.Equal(t, 10000, vehicle.CurrentKm)
}

func TestRecordServiceDuplicateIDs(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	userID := newTestUser(t, database, "a@example.com")
	v := newTestVehicle(t, database, userID, 0)
	item := newTestItem(t, database, userID, v.ID, "Oil", 0)

	entry, err := RecordService(ctx, database, userID, ServiceRecord{
		VehicleID: v.ID, ServiceDate: model.NewDate(2024, time.June, 1), OdometerKm: 100,
		ItemIDs: []int64{item.ID, item.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{item.ID, item.ID}, entry.ItemIDs)
}

func TestListServiceHistory(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	userID := newTestUser(t, database, "a@example.com")
	other := newTestUser(t, database, "b@example.com")
	car := newTestVehicle(t, database, userID, 0)
	bike := newTestVehicle(t, database, userID, 0)
	foreign := newTestVehicle(t, database, other, 0)
	carOil := newTestItem(t, database, userID, car.ID, "Oil", 0)
	bikeOil := newTestItem(t, database, userID, bike.ID, "Oil", 0)
	foreignOil := newTestItem(t, database, other, foreign.ID, "Oil", 0)

	record := func(user, vehicleID, itemID int64, month time.Month) {
		t.Helper()
		_, err := RecordService(ctx, database, user, ServiceRecord{
			VehicleID: vehicleID, ServiceDate: model.NewDate(2024, month, 1), OdometerKm: 100, ItemIDs: []int64{itemID},
		})
		require.NoError(t, err)
	}
	record(userID, car.ID, carOil.ID, time.January)
	record(userID, bike.ID, bikeOil.ID, time.March)
	record(userID, car.ID, carOil.ID, time.February)
	record(other, foreign.ID, foreignOil.ID, time.April)

	all, err := ListServiceHistory(ctx, database, userID, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, time.March, all[0].ServiceDate.Month())
	assert.Equal(t, time.February, all[1].ServiceDate.Month())
	assert.Equal(t, time.January, all[2].ServiceDate.Month())

	carOnly, err := ListServiceHistory(ctx, database, userID, car.ID)
	require.NoError(t, err)
	assert.Len(t, carOnly, 2)

	_, err = GetServiceHistoryEntry(ctx, database, userID, all[0].ID)
	require.NoError(t, err)
	foreignHistory, err := ListServiceHistory(ctx, database, other, 0)
	require.NoError(t, err)
	require.Len(t, foreignHistory, 1)
	_, err = GetServiceHistoryEntry(ctx, database, userID, foreignHistory[0].ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
