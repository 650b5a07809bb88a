package api

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/erazemk/servis/internal/model"
	"github.com/erazemk/servis/internal/store"
)

// HistoryHandler handles service history endpoints.
type HistoryHandler struct {
	DB *sql.DB
}

type recordServiceRequest struct {
	VehicleID   vehicleRef   `json:"kendaraanId"`
	ServiceDate string       `json:"serviceDate"`
	OdometerKm  *json.Number `json:"odometerKm"`
	ItemIDs     []int64      `json:"serviceItemIds"`
	TotalCost   *int64       `json:"totalCost"`
	Notes       string       `json:"notes"`
}

type recordServiceResponse struct {
	Success bool                       `json:"success"`
	Entry   *model.ServiceHistoryEntry `json:"entry"`
}

// Record handles POST /api/service-history.
func (h *HistoryHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req recordServiceRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch {
	case req.VehicleID == "":
		jsonError(w, http.StatusBadRequest, "kendaraanId is required")
		return
	case req.ServiceDate == "":
		jsonError(w, http.StatusBadRequest, "serviceDate is required")
		return
	case len(req.ItemIDs) == 0:
		jsonError(w, http.StatusBadRequest, "serviceItemIds must not be empty")
		return
	}
	date, err := model.ParseDate(req.ServiceDate)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	km, err := wholeNumber("odometerKm", req.OdometerKm)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	v, ok := ownedVehicle(w, r, h.DB, string(req.VehicleID))
	if !ok {
		return
	}

	entry, err := store.RecordService(r.Context(), h.DB, v.UserID, store.ServiceRecord{
		VehicleID:   v.ID,
		ServiceDate: date,
		OdometerKm:  km,
		ItemIDs:     req.ItemIDs,
		TotalCost:   req.TotalCost,
		Notes:       req.Notes,
	})
	if err != nil {
		storeError(w, r, err)
		return
	}

	slog.Info("service recorded",
		"user", v.UserID,
		"vehicle", v.ID,
		"entry", entry.ID,
		"items", entry.ItemIDs,
		"km", km,
		"odometer_raised", km > v.CurrentKm,
	)
	jsonResponse(w, http.StatusOK, recordServiceResponse{Success: true, Entry: entry})
}

// List handles GET /api/service-history[?kendaraanId=].
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	vehicleID, ok := optionalVehicle(w, r, h.DB)
	if !ok {
		return
	}

	entries, err := store.ListServiceHistory(r.Context(), h.DB, GetClaims(r.Context()).UserID, vehicleID)
	if err != nil {
		storeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []model.ServiceHistoryEntry{}
	}
	jsonResponse(w, http.StatusOK, entries)
}

// Get handles GET /api/service-history/{id}.
func (h *HistoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid history id")
		return
	}

	entry, err := store.GetServiceHistoryEntry(r.Context(), h.DB, GetClaims(r.Context()).UserID, id)
	if err != nil {
		storeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, entry)
}

// optionalVehicle resolves an optional kendaraanId query parameter. It
// returns 0 when the parameter is absent.
func optionalVehicle(w http.ResponseWriter, r *http.Request, db *sql.DB) (int64, bool) {
	ref := r.URL.Query().Get("kendaraanId")
	if ref == "" {
		return 0, true
	}
	v, ok := ownedVehicle(w, r, db, ref)
	if !ok {
		return 0, false
	}
	return v.ID, true
}
