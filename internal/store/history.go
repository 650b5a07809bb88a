package store

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"

	"github.com/erazemk/servis/internal/model"
)

// ServiceRecord describes one real-world service event.
type ServiceRecord struct {
	VehicleID   int64
	ServiceDate model.Date
	OdometerKm  int
	ItemIDs     []int64
	TotalCost   *int64
	Notes       string
}

func (r *ServiceRecord) validate() error {
	r.Notes = strings.TrimSpace(r.Notes)
	switch {
	case r.VehicleID <= 0:
		return invalid("kendaraanId is required")
	case r.ServiceDate.IsZero():
		return invalid("serviceDate is required")
	case !model.ValidOdometer(r.OdometerKm):
		return invalid("odometerKm must be an integer between 0 and %d", model.MaxOdometer-1)
	case len(r.ItemIDs) == 0:
		return invalid("serviceItemIds must not be empty")
	case r.TotalCost != nil && *r.TotalCost < 0:
		return invalid("totalCost must not be negative")
	}
	return nil
}

// RecordService logs a service event for a vehicle owned by userID. In one
// transaction it appends the history entry, rebases the baseline of every
// listed item to the event's odometer and date, and raises the vehicle's
// odometer if the reading is higher than the stored one. Every listed item
// must belong to the vehicle; otherwise nothing is written.
func RecordService(ctx context.Context, db *sql.DB, userID int64, rec ServiceRecord) (*model.ServiceHistoryEntry, error) {
	if err := rec.validate(); err != nil {
		return nil, err
	}

	// The entry keeps the ids as given; membership and rebase use the set.
	items := slices.Clone(rec.ItemIDs)
	slices.Sort(items)
	items = slices.Compact(items)

	var historyID int64
	err := withTx(ctx, db, func(tx *sql.Tx) error {
		var exists bool
		err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM vehicles WHERE id = ? AND user_id = ?)`,
			rec.VehicleID, userID,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("checking vehicle: %w", err)
		}
		if !exists {
			return ErrNotFound
		}

		if err := checkMembership(ctx, tx, rec.VehicleID, items); err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx,
			`INSERT INTO service_history (vehicle_id, service_date, odometer_km, total_cost, notes)
			 VALUES (?, ?, ?, ?, ?)`,
			rec.VehicleID, rec.ServiceDate, rec.OdometerKm, rec.TotalCost, nullString(rec.Notes),
		)
		if err != nil {
			return fmt.Errorf("inserting service history: %w", err)
		}
		historyID, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("getting service history id: %w", err)
		}

		for pos, itemID := range rec.ItemIDs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO service_history_items (history_id, position, item_id) VALUES (?, ?, ?)`,
				historyID, pos, itemID,
			); err != nil {
				return fmt.Errorf("linking service item %d: %w", itemID, err)
			}
		}

		args := []any{rec.OdometerKm, rec.ServiceDate, rec.VehicleID}
		args = append(args, int64Args(items)...)
		result, err = tx.ExecContext(ctx,
			`UPDATE service_items
			 SET last_km = ?, last_date = ?, updated_at = CURRENT_TIMESTAMP
			 WHERE vehicle_id = ? AND id IN (`+placeholders(len(items))+`)`,
			args...,
		)
		if err != nil {
			return fmt.Errorf("rebasing service items: %w", err)
		}
		if n, err := result.RowsAffected(); err != nil {
			return fmt.Errorf("checking rebased items: %w", err)
		} else if n != int64(len(items)) {
			return fmt.Errorf("rebased %d of %d service items", n, len(items))
		}

		// Conditional so a concurrent higher reading is never overwritten.
		if _, err := tx.ExecContext(ctx,
			`UPDATE vehicles SET current_km = ?, updated_at = CURRENT_TIMESTAMP
			 WHERE id = ? AND current_km < ?`,
			rec.OdometerKm, rec.VehicleID, rec.OdometerKm,
		); err != nil {
			return fmt.Errorf("raising odometer: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return GetServiceHistoryEntry(ctx, db, userID, historyID)
}

// checkMembership rejects ids that are not service items of vehicleID, which
// includes items of the caller's other vehicles.
func checkMembership(ctx context.Context, tx *sql.Tx, vehicleID int64, ids []int64) error {
	args := append([]any{vehicleID}, int64Args(ids)...)
	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM service_items WHERE vehicle_id = ? AND id IN (`+placeholders(len(ids))+`)`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("checking service items: %w", err)
	}
	defer rows.Close()

	found := make(map[int64]bool, len(ids))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scanning service item id: %w", err)
		}
		found[id] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("checking service items: %w", err)
	}

	for _, id := range ids {
		if !found[id] {
			return invalid("service item %d does not belong to this vehicle", id)
		}
	}
	return nil
}

const historyColumns = `h.id, h.vehicle_id, h.service_date, h.odometer_km, h.total_cost, h.notes, h.created_at`

// GetServiceHistoryEntry returns one history entry of a vehicle owned by userID.
func GetServiceHistoryEntry(ctx context.Context, db *sql.DB, userID, id int64) (*model.ServiceHistoryEntry, error) {
	entries, err := listHistory(ctx, db, `h.id = ? AND v.user_id = ?`, id, userID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrNotFound
	}
	return &entries[0], nil
}

// ListServiceHistory returns the service history of userID's vehicles, newest
// service first. A vehicleID of 0 selects every vehicle of the user.
func ListServiceHistory(ctx context.Context, db *sql.DB, userID, vehicleID int64) ([]model.ServiceHistoryEntry, error) {
	if vehicleID == 0 {
		return listHistory(ctx, db, `v.user_id = ?`, userID)
	}
	return listHistory(ctx, db, `v.user_id = ? AND h.vehicle_id = ?`, userID, vehicleID)
}

func listHistory(ctx context.Context, db *sql.DB, where string, args ...any) ([]model.ServiceHistoryEntry, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+historyColumns+`
		 FROM service_history h
		 JOIN vehicles v ON v.id = h.vehicle_id
		 WHERE `+where+`
		 ORDER BY h.service_date DESC, h.created_at DESC, h.id DESC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("listing service history: %w", err)
	}

	var entries []model.ServiceHistoryEntry
	index := make(map[int64]int)
	for rows.Next() {
		var e model.ServiceHistoryEntry
		var notes sql.NullString
		if err := rows.Scan(&e.ID, &e.VehicleID, &e.ServiceDate, &e.OdometerKm,
			&e.TotalCost, &notes, &e.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning service history: %w", err)
		}
		e.Notes = notes.String
		e.ItemIDs = []int64{}
		e.ItemNames = []string{}
		index[e.ID] = len(entries)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("listing service history: %w", err)
	}
	// The pool holds a single connection, so rows must be released before
	// the item query below.
	rows.Close()

	if len(entries) == 0 {
		return entries, nil
	}
	if err := attachHistoryItems(ctx, db, entries, index, where, args); err != nil {
		return nil, err
	}
	return entries, nil
}

// attachHistoryItems fills ItemIDs and ItemNames in position order. Names of
// deleted items resolve to model.UnknownItemName.
func attachHistoryItems(ctx context.Context, db *sql.DB, entries []model.ServiceHistoryEntry, index map[int64]int, where string, args []any) error {
	rows, err := db.QueryContext(ctx,
		`SELECT hi.history_id, hi.item_id, si.name
		 FROM service_history_items hi
		 JOIN service_history h ON h.id = hi.history_id
		 JOIN vehicles v ON v.id = h.vehicle_id
		 LEFT JOIN service_items si ON si.id = hi.item_id AND si.vehicle_id = h.vehicle_id
		 WHERE `+where+`
		 ORDER BY hi.history_id, hi.position`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("listing service history items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var historyID, itemID int64
		var name sql.NullString
		if err := rows.Scan(&historyID, &itemID, &name); err != nil {
			return fmt.Errorf("scanning service history item: %w", err)
		}
		i, ok := index[historyID]
		if !ok {
			continue
		}
		e := &entries[i]
		e.ItemIDs = append(e.ItemIDs, itemID)
		if name.Valid {
			e.ItemNames = append(e.ItemNames, name.String)
		} else {
			e.ItemNames = append(e.ItemNames, model.UnknownItemName)
		}
	}
	return rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
