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

func TestRecordTaxPaymentAdvancesMarker(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	userID := newTestUser(t, database, "a@example.com")
	v := newTestVehicle(t, database, userID, 0)

	cost := int64(1_200_000)
	p, err := RecordTaxPayment(ctx, database, userID, TaxPaymentInput{
		VehicleID: v.ID,
		Cycle:     model.TaxFiveYear,
		PaidUntil: model.YearMonth{Year: 2027, Month: time.March},
		PaidDate:  model.NewDate(2022, time.March, 10),
		Cost:      &cost,
	})
	require.NoError(t, err)
	assert.Equal(t, model.TaxFiveYear, p.Cycle)
	assert.Equal(t, "2027-03", p.PaidUntil.String())
	assert.Equal(t, cost, *p.Cost)

	got, err := GetVehicle(ctx, database, userID, v.ID)
	require.NoError(t, err)
	require.NotNil(t, got.FiveYearPaidUntil)
	assert.Equal(t, "2027-03", got.FiveYearPaidUntil.String())
	assert.Nil(t, got.AnnualPaidUntil)
}

func TestRecordTaxPaymentMarkerNeverRegresses(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	userID := newTestUser(t, database, "a@example.com")
	v := newTestVehicle(t, database, userID, 0)

	pay := func(year int) {
		t.Helper()
		_, err := RecordTaxPayment(ctx, database, userID, TaxPaymentInput{
			VehicleID: v.ID, Cycle: model.TaxAnnual,
			PaidUntil: model.YearMonth{Year: year, Month: time.March},
			PaidDate:  model.NewDate(year-1, time.March, 1),
		})
		require.NoError(t, err)
	}
	pay(2025)
	pay(2023)

	got, err := GetVehicle(ctx, database, userID, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "2025-03", got.AnnualPaidUntil.String())

	payments, err := ListTaxPayments(ctx, database, userID, v.ID)
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, "2025-03", payments[0].PaidUntil.String())
}

func TestRecordTaxPaymentValidationAndOwnership(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := newTestUser(t, database, "a@example.com")
	other := newTestUser(t, database, "b@example.com")
	v := newTestVehicle(t, database, owner, 0)
	valid := TaxPaymentInput{
		VehicleID: v.ID, Cycle: model.TaxAnnual,
		PaidUntil: model.YearMonth{Year: 2025, Month: time.January},
		PaidDate:  model.NewDate(2024, time.January, 5),
	}

	_, err := RecordTaxPayment(ctx, database, other, valid)
	assert.ErrorIs(t, err, ErrNotFound)

	bad := valid
	bad.Cycle = "monthly"
	_, err = RecordTaxPayment(ctx, database, owner, bad)
	assert.True(t, IsValidation(err))

	bad = valid
	bad.PaidUntil = model.YearMonth{}
	_, err = RecordTaxPayment(ctx, database, owner, bad)
	assert.True(t, IsValidation(err))

	assert.Zero(t, countRows(t, database, "tax_payments"))
}
