package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/servis/internal/model"
)

// VehicleDetails are the user-editable descriptive fields of a vehicle.
type VehicleDetails struct {
	Name     string
	Type     string
	Plate    string
	Year     int
	TaxMonth int
}

func (d *VehicleDetails) validate(now time.Time) error {
	d.Name = strings.TrimSpace(d.Name)
	d.Type = strings.TrimSpace(d.Type)
	d.Plate = strings.ToUpper(strings.TrimSpace(d.Plate))
	if d.Name == "" {
		return invalid("name is required")
	}
	if d.Year != 0 && (d.Year < 1900 || d.Year > now.Year()+1) {
		return invalid("year must be between 1900 and %d", now.Year()+1)
	}
	if d.TaxMonth < 0 || d.TaxMonth > 12 {
		return invalid("taxMonth must be between 1 and 12")
	}
	return nil
}

// NewVehicle holds the fields of a vehicle at registration time. The
// odometer and paid-until markers are only seeded here; afterwards they move
// through UpdateOdometer, RecordService and RecordTaxPayment.
type NewVehicle struct {
	VehicleDetails
	CurrentKm         int
	AnnualPaidUntil   *model.YearMonth
	FiveYearPaidUntil *model.YearMonth
}

const vehicleColumns = `v.id, v.short_id, v.user_id, v.name, v.type, v.plate, v.year, v.tax_month,
	v.current_km, v.annual_paid_until, v.five_year_paid_until, v.image IS NOT NULL,
	v.created_at, v.updated_at`

// CreateVehicle registers a vehicle for userID.
func CreateVehicle(ctx context.Context, db *sql.DB, userID int64, nv NewVehicle, now time.Time) (*model.Vehicle, error) {
	if err := nv.validate(now); err != nil {
		return nil, err
	}
	if !model.ValidOdometer(nv.CurrentKm) {
		return nil, invalid("currentKm must be an integer between 0 and %d", model.MaxOdometer-1)
	}

	// Short ids are random; retry the rare collision.
	for attempt := 0; ; attempt++ {
		result, err := db.ExecContext(ctx,
			`INSERT INTO vehicles (short_id, user_id, name, type, plate, year, tax_month,
			                       current_km, annual_paid_until, five_year_paid_until)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			newShortID(), userID, nv.Name, nullString(nv.Type), nullString(nv.Plate),
			nullInt(nv.Year), nullInt(nv.TaxMonth), nv.CurrentKm,
			nv.AnnualPaidUntil, nv.FiveYearPaidUntil,
		)
		if isUniqueViolation(err) && attempt < 3 {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("creating vehicle: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("getting vehicle id: %w", err)
		}
		return GetVehicle(ctx, db, userID, id)
	}
}

func newShortID() string {
	return uuid.NewString()[:8]
}

// GetVehicle returns a vehicle owned by userID.
func GetVehicle(ctx context.Context, db *sql.DB, userID, id int64) (*model.Vehicle, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles v WHERE v.id = ? AND v.user_id = ?`,
		id, userID,
	)
	return scanVehicle(row)
}

// OwnedVehicle resolves ref, either a numeric id or a short id, to a vehicle
// owned by userID. It is the single ownership guard for vehicle-scoped
// requests: a vehicle that exists but belongs to someone else is reported as
// ErrNotFound.
func OwnedVehicle(ctx context.Context, db *sql.DB, userID int64, ref string) (*model.Vehicle, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, ErrNotFound
	}
	numericID := int64(-1)
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		numericID = id
	}

	// A short id made only of digits wins over a numeric id.
	row := db.QueryRowContext(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles v
		 WHERE v.user_id = ? AND (v.short_id = ? OR v.id = ?)
		 ORDER BY v.short_id = ? DESC
		 LIMIT 1`,
		userID, ref, numericID, ref,
	)
	return scanVehicle(row)
}

// ListVehicles returns all vehicles of userID, oldest first.
func ListVehicles(ctx context.Context, db *sql.DB, userID int64) ([]model.Vehicle, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles v WHERE v.user_id = ? ORDER BY v.id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []model.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, *v)
	}
	return vehicles, rows.Err()
}

// UpdateVehicle replaces the descriptive fields of a vehicle.
func UpdateVehicle(ctx context.Context, db *sql.DB, userID, id int64, d VehicleDetails, now time.Time) (*model.Vehicle, error) {
	if err := d.validate(now); err != nil {
		return nil, err
	}

	result, err := db.ExecContext(ctx,
		`UPDATE vehicles
		 SET name = ?, type = ?, plate = ?, year = ?, tax_month = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND user_id = ?`,
		d.Name, nullString(d.Type), nullString(d.Plate), nullInt(d.Year), nullInt(d.TaxMonth),
		id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating vehicle: %w", err)
	}
	if err := requireAffected(result); err != nil {
		return nil, err
	}
	return GetVehicle(ctx, db, userID, id)
}

// UpdateOdometer sets the vehicle's odometer of record. A lower reading is
// rejected unless force is set, which is reserved for explicit corrections.
func UpdateOdometer(ctx context.Context, db *sql.DB, userID, id int64, km int, force bool) (*model.Vehicle, error) {
	if !model.ValidOdometer(km) {
		return nil, invalid("currentKm must be an integer between 0 and %d", model.MaxOdometer-1)
	}

	err := withTx(ctx, db, func(tx *sql.Tx) error {
		var current int
		err := tx.QueryRowContext(ctx,
			`SELECT current_km FROM vehicles WHERE id = ? AND user_id = ?`, id, userID,
		).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("reading odometer: %w", err)
		}
		if km < current && !force {
			return invalid("currentKm cannot be lower than the recorded %d km", current)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE vehicles SET current_km = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			km, id,
		); err != nil {
			return fmt.Errorf("updating odometer: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return GetVehicle(ctx, db, userID, id)
}

// DeleteVehicle removes a vehicle together with its service items, service
// history and tax payments in one atomic batch.
func DeleteVehicle(ctx context.Context, db *sql.DB, userID, id int64) error {
	if _, err := GetVehicle(ctx, db, userID, id); err != nil {
		return err
	}

	return ExecAtomic(ctx, db, []Statement{
		{`DELETE FROM service_history_items
		  WHERE history_id IN (SELECT id FROM service_history WHERE vehicle_id = ?)`, []any{id}},
		{`DELETE FROM service_history WHERE vehicle_id = ?`, []any{id}},
		{`DELETE FROM service_items WHERE vehicle_id = ?`, []any{id}},
		{`DELETE FROM tax_payments WHERE vehicle_id = ?`, []any{id}},
		{`DELETE FROM vehicles WHERE id = ? AND user_id = ?`, []any{id, userID}},
	})
}

// SetVehicleImage stores a processed photo for a vehicle.
func SetVehicleImage(ctx context.Context, db *sql.DB, userID, id int64, data []byte, mime string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE vehicles SET image = ?, image_mime = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND user_id = ?`,
		data, mime, id, userID,
	)
	if err != nil {
		return fmt.Errorf("storing vehicle image: %w", err)
	}
	return requireAffected(result)
}

// GetVehicleImage returns the stored photo of a vehicle.
func GetVehicleImage(ctx context.Context, db *sql.DB, userID, id int64) ([]byte, string, error) {
	var data []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT image, image_mime FROM vehicles WHERE id = ? AND user_id = ? AND image IS NOT NULL`,
		id, userID,
	).Scan(&data, &mime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting vehicle image: %w", err)
	}
	return data, mime.String, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVehicle(s scanner) (*model.Vehicle, error) {
	v := &model.Vehicle{}
	var vtype, plate sql.NullString
	var year, taxMonth sql.NullInt64
	err := s.Scan(&v.ID, &v.ShortID, &v.UserID, &v.Name, &vtype, &plate, &year, &taxMonth,
		&v.CurrentKm, &v.AnnualPaidUntil, &v.FiveYearPaidUntil, &v.HasImage,
		&v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning vehicle: %w", err)
	}
	v.Type = vtype.String
	v.Plate = plate.String
	v.Year = int(year.Int64)
	v.TaxMonth = int(taxMonth.Int64)
	return v, nil
}
