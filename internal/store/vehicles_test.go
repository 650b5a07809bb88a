package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/servis/internal/db"
	"github.com/erazemk/servis/internal/model"
)

func TestCreateVehicle(t *testing.T) {
	database := db.NewTestDB(t)
	userID := newTestUser(t, database, "a@example.com")

	paid := model.YearMonth{Year: 2025, Month: time.March}
	v, err := CreateVehicle(context.Background(), database, userID, NewVehicle{
		VehicleDetails:  VehicleDetails{Name: "  Civic ", Plate: "d 42 ab", Year: 2019, TaxMonth: 3},
		CurrentKm:       42000,
		AnnualPaidUntil: &paid,
	}, testNow)
	require.NoError(t, err)

	assert.Equal(t, "Civic", v.Name)
	assert.Equal(t, "D 42 AB", v.Plate)
	assert.Len(t, v.ShortID, 8)
	assert.Equal(t, 42000, v.CurrentKm)
	require.NotNil(t, v.AnnualPaidUntil)
	assert.Equal(t, "2025-03", v.AnnualPaidUntil.String())
	assert.Nil(t, v.FiveYearPaidUntil)
	assert.False(t, v.HasImage)
}

func TestCreateVehicleValidation(t *testing.T) {
	database := db.NewTestDB(t)
	userID := newTestUser(t, database, "a@example.com")

	tests := []NewVehicle{
		{VehicleDetails: VehicleDetails{Name: " "}},
		{VehicleDetails: VehicleDetails{Name: "x", TaxMonth: 13}},
		{VehicleDetails: VehicleDetails{Name: "x", Year: 1800}},
		{VehicleDetails: VehicleDetails{Name: "x"}, CurrentKm: -1},
		{VehicleDetails: VehicleDetails{Name: "x"}, CurrentKm: model.MaxOdometer},
	}
	for i, nv := range tests {
		_, err := CreateVehicle(context.Background(), database, userID, nv, testNow)
		assert.True(t, IsValidation(err), "case %d: %v", i, err)
	}
	assert.Zero(t, countRows(t, database, "vehicles"))
}

func TestOwnedVehicle(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := newTestUser(t, database, "owner@example.com")
	other := newTestUser(t, database, "other@example.com")
	v := newTestVehicle(t, database, owner, 1000)

	byID, err := OwnedVehicle(ctx, database, owner, fmt.Sprint(v.ID))
	require.NoError(t, err)
	assert.Equal(t, v.ID, byID.ID)

	byShort, err := OwnedVehicle(ctx, database, owner, v.ShortID)
	require.NoError(t, err)
	assert.Equal(t, v.ID, byShort.ID)

	_, err = OwnedVehicle(ctx, database, other, fmt.Sprint(v.ID))
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = OwnedVehicle(ctx, database, other, v.ShortID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = OwnedVehicle(ctx, database, owner, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListAndUpdateVehicle(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	userID := newTestUser(t, database, "a@example.com")
	other := newTestUser(t, database, "b@example.com")
	v := newTestVehicle(t, database, userID, 0)
	newTestVehicle(t, database, other, 0)

	list, err := ListVehicles(ctx, database, userID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, v.ID, list[0].ID)

	updated, err := UpdateVehicle(ctx, database, userID, v.ID, VehicleDetails{Name: "Beat", TaxMonth: 7}, testNow)
	require.NoError(t, err)
	assert.Equal(t, "Beat", updated.Name)
	assert.Equal(t, 7, updated.TaxMonth)
	assert.Zero(t, updated.Year)

	_, err = UpdateVehicle(ctx, database, other, v.ID, VehicleDetails{Name: "Stolen"}, testNow)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateOdometer(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	userID := newTestUser(t, database, "a@example.com")
	v := newTestVehicle(t, database, userID, 10000)

	got, err := UpdateOdometer(ctx, database, userID, v.ID, 12000, false)
	require.NoError(t, err)
	assert.Equal(t, 12000, got.CurrentKm)

	_, err = UpdateOdometer(ctx, database, userID, v.ID, 11000, false)
	assert.True(t, IsValidation(err), "lowering without force: %v", err)

	got, err = UpdateOdometer(ctx, database, userID, v.ID, 11000, true)
	require.NoError(t, err)
	assert.Equal(t, 11000, got.CurrentKm)

	_, err = UpdateOdometer(ctx, database, userID, v.ID, -5, true)
	assert.True(t, IsValidation(err))

	_, err = UpdateOdometer(ctx, database, userID+1, v.ID, 20000, false)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteVehicleCascades(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	userID := newTestUser(t, database, "a@example.com")
	v := newTestVehicle(t, database, userID, 1000)
	keep := newTestVehicle(t, database, userID, 1000)
	item := newTestItem(t, database, userID, v.ID, "Oil", 1000)
	newTestItem(t, database, userID, keep.ID, "Oil", 1000)

	_, err := RecordService(ctx, database, userID, ServiceRecord{
		VehicleID: v.ID, ServiceDate: model.NewDate(2024, time.May, 1), OdometerKm: 2000, ItemIDs: []int64{item.ID},
	})
	require.NoError(t, err)
	_, err = RecordTaxPayment(ctx, database, userID, TaxPaymentInput{
		VehicleID: v.ID, Cycle: model.TaxAnnual, PaidUntil: model.YearMonth{Year: 2025, Month: time.March},
		PaidDate: model.NewDate(2024, time.March, 1),
	})
	require.NoError(t, err)

	assert.ErrorIs(t, DeleteVehicle(ctx, database, userID+1, v.ID), ErrNotFound)
	require.NoError(t, DeleteVehicle(ctx, database, userID, v.ID))

	assert.Equal(t, 1, countRows(t, database, "vehicles"))
	assert.Equal(t, 1, countRows(t, database, "service_items"))
	assert.Zero(t, countRows(t, database, "service_history"))
	assert.Zero(t, countRows(t, database, "service_history_items"))
	assert.Zero(t, countRows(t, database, "tax_payments"))
}

func TestVehicleImage(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	userID := newTestUser(t, database, "a@example.com")
	v := newTestVehicle(t, database, userID, 0)

	_, _, err := GetVehicleImage(ctx, database, userID, v.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, SetVehicleImage(ctx, database, userID, v.ID, []byte{0xff, 0xd8}, "image/jpeg"))
	data, mime, err := GetVehicleImage(ctx, database, userID, v.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xd8}, data)
	assert.Equal(t, "image/jpeg", mime)

	got, err := GetVehicle(ctx, database, userID, v.ID)
	require.NoError(t, err)
	assert.True(t, got.HasImage)

	assert.ErrorIs(t, SetVehicleImage(ctx, database, userID+1, v.ID, []byte{1}, "image/jpeg"), ErrNotFound)
}
