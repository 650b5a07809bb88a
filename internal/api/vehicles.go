package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/zoobzio/clockz"

	"github.com/erazemk/servis/internal/imaging"
	"github.com/erazemk/servis/internal/model"
	"github.com/erazemk/servis/internal/store"
)

// VehiclesHandler handles vehicle endpoints.
type VehiclesHandler struct {
	DB    *sql.DB
	Clock clockz.Clock
}

type vehicleRequest struct {
	Name              string           `json:"name"`
	Type              string           `json:"type"`
	Plate             string           `json:"plate"`
	Year              int              `json:"year"`
	TaxMonth          int              `json:"taxMonth"`
	CurrentKm         *json.Number     `json:"currentKm"`
	AnnualPaidUntil   *model.YearMonth `json:"annualPaidUntil"`
	FiveYearPaidUntil *model.YearMonth `json:"fiveYearPaidUntil"`
}

func (req vehicleRequest) details() store.VehicleDetails {
	return store.VehicleDetails{
		Name:     req.Name,
		Type:     req.Type,
		Plate:    req.Plate,
		Year:     req.Year,
		TaxMonth: req.TaxMonth,
	}
}

type odometerRequest struct {
	CurrentKm *json.Number `json:"currentKm"`
	// Force allows lowering the odometer to correct a typo.
	Force bool `json:"force"`
}

// ownedVehicle resolves the {id} path parameter through the ownership guard
// and writes the error response when it fails.
func ownedVehicle(w http.ResponseWriter, r *http.Request, db *sql.DB, ref string) (*model.Vehicle, bool) {
	v, err := store.OwnedVehicle(r.Context(), db, GetClaims(r.Context()).UserID, ref)
	if err != nil {
		storeError(w, r, err)
		return nil, false
	}
	return v, true
}

// List handles GET /api/vehicles.
func (h *VehiclesHandler) List(w http.ResponseWriter, r *http.Request) {
	vehicles, err := store.ListVehicles(r.Context(), h.DB, GetClaims(r.Context()).UserID)
	if err != nil {
		storeError(w, r, err)
		return
	}

	now := h.Clock.Now()
	views := make([]vehicleView, 0, len(vehicles))
	for i := range vehicles {
		views = append(views, newVehicleView(&vehicles[i], now))
	}
	jsonResponse(w, http.StatusOK, views)
}

// Create handles POST /api/vehicles.
func (h *VehiclesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req vehicleRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	km := 0
	if req.CurrentKm != nil {
		var err error
		if km, err = wholeNumber("currentKm", req.CurrentKm); err != nil {
			jsonError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	claims := GetClaims(r.Context())
	now := h.Clock.Now()
	v, err := store.CreateVehicle(r.Context(), h.DB, claims.UserID, store.NewVehicle{
		VehicleDetails:    req.details(),
		CurrentKm:         km,
		AnnualPaidUntil:   req.AnnualPaidUntil,
		FiveYearPaidUntil: req.FiveYearPaidUntil,
	}, now)
	if err != nil {
		storeError(w, r, err)
		return
	}

	slog.Info("vehicle created", "user", claims.UserID, "vehicle", v.ID)
	jsonResponse(w, http.StatusCreated, newVehicleView(v, now))
}

// Get handles GET /api/vehicles/{id}.
func (h *VehiclesHandler) Get(w http.ResponseWriter, r *http.Request) {
	v, ok := ownedVehicle(w, r, h.DB, r.PathValue("id"))
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, newVehicleView(v, h.Clock.Now()))
}

// Update handles PUT /api/vehicles/{id}.
func (h *VehiclesHandler) Update(w http.ResponseWriter, r *http.Request) {
	v, ok := ownedVehicle(w, r, h.DB, r.PathValue("id"))
	if !ok {
		return
	}

	var req vehicleRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	now := h.Clock.Now()
	updated, err := store.UpdateVehicle(r.Context(), h.DB, v.UserID, v.ID, req.details(), now)
	if err != nil {
		storeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, newVehicleView(updated, now))
}

// UpdateOdometer handles PUT /api/vehicles/{id}/km.
func (h *VehiclesHandler) UpdateOdometer(w http.ResponseWriter, r *http.Request) {
	v, ok := ownedVehicle(w, r, h.DB, r.PathValue("id"))
	if !ok {
		return
	}

	var req odometerRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "currentKm must be an integer")
		return
	}
	km, err := wholeNumber("currentKm", req.CurrentKm)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := store.UpdateOdometer(r.Context(), h.DB, v.UserID, v.ID, km, req.Force)
	if err != nil {
		storeError(w, r, err)
		return
	}

	slog.Info("odometer updated", "user", v.UserID, "vehicle", v.ID, "from", v.CurrentKm, "to", km, "force", req.Force)
	jsonResponse(w, http.StatusOK, newVehicleView(updated, h.Clock.Now()))
}

// Delete handles DELETE /api/vehicles/{id}.
func (h *VehiclesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	v, ok := ownedVehicle(w, r, h.DB, r.PathValue("id"))
	if !ok {
		return
	}

	if err := store.DeleteVehicle(r.Context(), h.DB, v.UserID, v.ID); err != nil {
		storeError(w, r, err)
		return
	}

	slog.Info("vehicle deleted", "user", v.UserID, "vehicle", v.ID)
	jsonResponse(w, http.StatusOK, map[string]bool{"success": true})
}

// UploadImage handles PUT /api/vehicles/{id}/image. The photo is sent as the
// "image" field of a multipart form.
func (h *VehiclesHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	v, ok := ownedVehicle(w, r, h.DB, r.PathValue("id"))
	if !ok {
		return
	}

	// Leave room for the multipart envelope.
	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	photo, err := imaging.ProcessPhoto(file)
	if errors.Is(err, imaging.ErrUnsupported) || errors.Is(err, imaging.ErrTooLarge) {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		storeError(w, r, err)
		return
	}

	if err := store.SetVehicleImage(r.Context(), h.DB, v.UserID, v.ID, photo.Data, photo.MIME); err != nil {
		storeError(w, r, err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{"success": true, "width": photo.Width, "height": photo.Height})
}

// GetImage handles GET /api/vehicles/{id}/image.
func (h *VehiclesHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	v, ok := ownedVehicle(w, r, h.DB, r.PathValue("id"))
	if !ok {
		return
	}

	data, mime, err := store.GetVehicleImage(r.Context(), h.DB, v.UserID, v.ID)
	if err != nil {
		storeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
