package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/erazemk/servis/internal/model"
)

// ServiceItemInput holds the user-editable fields of a service item.
type ServiceItemInput struct {
	Name     string
	Interval model.Interval
	Notes    string
}

func (in *ServiceItemInput) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Notes = strings.TrimSpace(in.Notes)
	if in.Name == "" {
		return invalid("name is required")
	}
	return nil
}

// Baseline seeds the last-serviced state of a new item.
type Baseline struct {
	LastKm   *int
	LastDate *model.Date
}

// ItemOrders lists the accepted sort keys of ListServiceItems. "progress" is
// listed for callers that sort by the computed projection afterwards; the
// store returns those rows in creation order.
var ItemOrders = map[string]string{
	"":          "si.id",
	"created":   "si.created_at, si.id",
	"nama":      "si.name COLLATE NOCASE, si.id",
	"name":      "si.name COLLATE NOCASE, si.id",
	"last_date": "si.last_date IS NULL, si.last_date DESC, si.id",
	"last_km":   "si.last_km IS NULL, si.last_km DESC, si.id",
	"progress":  "si.id",
}

const serviceItemColumns = `si.id, si.vehicle_id, si.name, si.interval_type, si.interval_value,
	si.time_interval_value, si.time_interval_unit, si.last_km, si.last_date, si.notes,
	si.created_at, si.updated_at`

// CreateServiceItem adds a service item to a vehicle owned by userID.
func CreateServiceItem(ctx context.Context, db *sql.DB, userID, vehicleID int64, in ServiceItemInput, seed Baseline) (*model.ServiceItem, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if seed.LastKm != nil && !model.ValidOdometer(*seed.LastKm) {
		return nil, invalid("lastKm must be an integer between 0 and %d", model.MaxOdometer-1)
	}
	if _, err := GetVehicle(ctx, db, userID, vehicleID); err != nil {
		return nil, err
	}

	kind, value, timeValue, unit := in.Interval.Columns()
	result, err := db.ExecContext(ctx,
		`INSERT INTO service_items (vehicle_id, name, interval_type, interval_value,
		                            time_interval_value, time_interval_unit, last_km, last_date, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		vehicleID, in.Name, string(kind), value, timeValue, unit,
		seed.LastKm, seed.LastDate, nullString(in.Notes),
	)
	if err != nil {
		return nil, fmt.Errorf("creating service item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting service item id: %w", err)
	}
	return OwnedServiceItem(ctx, db, userID, id)
}

// OwnedServiceItem returns a service item whose vehicle is owned by userID.
func OwnedServiceItem(ctx context.Context, db *sql.DB, userID, id int64) (*model.ServiceItem, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+serviceItemColumns+`
		 FROM service_items si
		 JOIN vehicles v ON v.id = si.vehicle_id
		 WHERE si.id = ? AND v.user_id = ?`,
		id, userID,
	)
	return scanServiceItem(row)
}

// ListServiceItems returns the items of one vehicle sorted by an ItemOrders key.
// The caller is expected to have resolved the vehicle through OwnedVehicle.
func ListServiceItems(ctx context.Context, db *sql.DB, vehicleID int64, order string) ([]model.ServiceItem, error) {
	orderBy, ok := ItemOrders[order]
	if !ok {
		return nil, invalid("invalid order %q", order)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT `+serviceItemColumns+`
		 FROM service_items si
		 WHERE si.vehicle_id = ?
		 ORDER BY `+orderBy,
		vehicleID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing service items: %w", err)
	}
	defer rows.Close()

	var items []model.ServiceItem
	for rows.Next() {
		item, err := scanServiceItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// UpdateServiceItem edits the metadata of an item. The baseline is left alone:
// it only moves when a service is recorded.
func UpdateServiceItem(ctx context.Context, db *sql.DB, userID, id int64, in ServiceItemInput) (*model.ServiceItem, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	kind, value, timeValue, unit := in.Interval.Columns()
	result, err := db.ExecContext(ctx,
		`UPDATE service_items
		 SET name = ?, interval_type = ?, interval_value = ?, time_interval_value = ?,
		     time_interval_unit = ?, notes = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND vehicle_id IN (SELECT id FROM vehicles WHERE user_id = ?)`,
		in.Name, string(kind), value, timeValue, unit, nullString(in.Notes),
		id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating service item: %w", err)
	}
	if err := requireAffected(result); err != nil {
		return nil, err
	}
	return OwnedServiceItem(ctx, db, userID, id)
}

// DeleteServiceItem removes an item. History entries keep referencing its id.
func DeleteServiceItem(ctx context.Context, db *sql.DB, userID, id int64) error {
	result, err := db.ExecContext(ctx,
		`DELETE FROM service_items
		 WHERE id = ? AND vehicle_id IN (SELECT id FROM vehicles WHERE user_id = ?)`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("deleting service item: %w", err)
	}
	return requireAffected(result)
}

func scanServiceItem(s scanner) (*model.ServiceItem, error) {
	item := &model.ServiceItem{}
	var kind string
	var value, timeValue *int
	var unit *model.TimeUnit
	var notes sql.NullString
	err := s.Scan(&item.ID, &item.VehicleID, &item.Name, &kind, &value,
		&timeValue, &unit, &item.LastKm, &item.LastDate, &notes,
		&item.CreatedAt, &item.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning service item: %w", err)
	}
	item.Interval = model.LoadInterval(model.IntervalKind(kind), value, timeValue, unit)
	item.Notes = notes.String
	return item, nil
}
