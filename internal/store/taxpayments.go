package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/erazemk/servis/internal/model"
)

// TaxPaymentInput describes one tax renewal.
type TaxPaymentInput struct {
	VehicleID int64
	Cycle     model.TaxCycle
	PaidUntil model.YearMonth
	PaidDate  model.Date
	Cost      *int64
	Notes     string
}

func (in *TaxPaymentInput) validate() error {
	in.Notes = strings.TrimSpace(in.Notes)
	switch {
	case in.VehicleID <= 0:
		return invalid("kendaraanId is required")
	case in.Cycle != model.TaxAnnual && in.Cycle != model.TaxFiveYear:
		return invalid("type must be annual or five_year")
	case in.PaidUntil.IsZero():
		return invalid("paidUntil is required")
	case in.PaidDate.IsZero():
		return invalid("paidDate is required")
	case in.Cost != nil && *in.Cost < 0:
		return invalid("cost must not be negative")
	}
	return nil
}

// paidUntilColumns maps a cycle to the vehicle column holding its marker.
var paidUntilColumns = map[model.TaxCycle]string{
	model.TaxAnnual:   "annual_paid_until",
	model.TaxFiveYear: "five_year_paid_until",
}

// RecordTaxPayment stores a tax renewal for a vehicle owned by userID and, in
// the same transaction, advances the vehicle's paid-until marker for that
// cycle. The marker never moves backwards, so recording an old receipt only
// adds it to the history.
func RecordTaxPayment(ctx context.Context, db *sql.DB, userID int64, in TaxPaymentInput) (*model.TaxPayment, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	column := paidUntilColumns[in.Cycle]

	var id int64
	err := withTx(ctx, db, func(tx *sql.Tx) error {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM vehicles WHERE id = ? AND user_id = ?)`,
			in.VehicleID, userID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("checking vehicle: %w", err)
		}
		if !exists {
			return ErrNotFound
		}

		result, err := tx.ExecContext(ctx,
			`INSERT INTO tax_payments (vehicle_id, cycle, paid_until, paid_date, cost, notes)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			in.VehicleID, string(in.Cycle), in.PaidUntil, in.PaidDate, in.Cost, nullString(in.Notes),
		)
		if err != nil {
			return fmt.Errorf("inserting tax payment: %w", err)
		}
		if id, err = result.LastInsertId(); err != nil {
			return fmt.Errorf("getting tax payment id: %w", err)
		}

		// YYYY-MM text compares in calendar order.
		if _, err := tx.ExecContext(ctx,
			`UPDATE vehicles SET `+column+` = ?, updated_at = CURRENT_TIMESTAMP
			 WHERE id = ? AND (`+column+` IS NULL OR `+column+` < ?)`,
			in.PaidUntil, in.VehicleID, in.PaidUntil,
		); err != nil {
			return fmt.Errorf("advancing paid-until marker: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	payments, err := listTaxPayments(ctx, db, `t.id = ? AND v.user_id = ?`, id, userID)
	if err != nil {
		return nil, err
	}
	if len(payments) == 0 {
		return nil, ErrNotFound
	}
	return &payments[0], nil
}

// ListTaxPayments returns the tax payments of userID's vehicles, newest
// payment first. A vehicleID of 0 selects every vehicle of the user.
func ListTaxPayments(ctx context.Context, db *sql.DB, userID, vehicleID int64) ([]model.TaxPayment, error) {
	if vehicleID == 0 {
		return listTaxPayments(ctx, db, `v.user_id = ?`, userID)
	}
	return listTaxPayments(ctx, db, `v.user_id = ? AND t.vehicle_id = ?`, userID, vehicleID)
}

func listTaxPayments(ctx context.Context, db *sql.DB, where string, args ...any) ([]model.TaxPayment, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT t.id, t.vehicle_id, t.cycle, t.paid_until, t.paid_date, t.cost, t.notes, t.created_at
		 FROM tax_payments t
		 JOIN vehicles v ON v.id = t.vehicle_id
		 WHERE `+where+`
		 ORDER BY t.paid_date DESC, t.created_at DESC, t.id DESC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("listing tax payments: %w", err)
	}
	defer rows.Close()

	var payments []model.TaxPayment
	for rows.Next() {
		var p model.TaxPayment
		var cycle string
		var notes sql.NullString
		if err := rows.Scan(&p.ID, &p.VehicleID, &cycle, &p.PaidUntil, &p.PaidDate,
			&p.Cost, &notes, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning tax payment: %w", err)
		}
		p.Cycle = model.TaxCycle(cycle)
		p.Notes = notes.String
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
