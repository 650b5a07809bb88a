package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/servis/internal/schedule"
	"github.com/erazemk/servis/internal/store"
)

// TimelineHandler handles the merged service and tax timeline.
type TimelineHandler struct {
	DB *sql.DB
}

// Get handles GET /api/timeline[?kendaraanId=][&group=month].
func (h *TimelineHandler) Get(w http.ResponseWriter, r *http.Request) {
	group := r.URL.Query().Get("group")
	if group != "" && group != "month" {
		jsonError(w, http.StatusBadRequest, "group must be month")
		return
	}

	vehicleID, ok := optionalVehicle(w, r, h.DB)
	if !ok {
		return
	}

	events, err := loadTimeline(r, h.DB, vehicleID)
	if err != nil {
		storeError(w, r, err)
		return
	}

	if group == "month" {
		groups := schedule.GroupByMonth(events)
		if groups == nil {
			groups = []schedule.MonthGroup{}
		}
		jsonResponse(w, http.StatusOK, groups)
		return
	}
	jsonResponse(w, http.StatusOK, events)
}

// loadTimeline merges the caller's service history and tax payments,
// optionally restricted to one vehicle.
func loadTimeline(r *http.Request, db *sql.DB, vehicleID int64) ([]schedule.Event, error) {
	userID := GetClaims(r.Context()).UserID
	history, err := store.ListServiceHistory(r.Context(), db, userID, vehicleID)
	if err != nil {
		return nil, err
	}
	payments, err := store.ListTaxPayments(r.Context(), db, userID, vehicleID)
	if err != nil {
		return nil, err
	}
	return schedule.MergeTimeline(history, payments), nil
}
