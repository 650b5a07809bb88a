package api

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/zoobzio/clockz"

	"github.com/erazemk/servis/internal/model"
	"github.com/erazemk/servis/internal/store"
)

// ServiceItemsHandler handles service item endpoints.
type ServiceItemsHandler struct {
	DB    *sql.DB
	Clock clockz.Clock
}

type serviceItemRequest struct {
	VehicleID         vehicleRef         `json:"kendaraanId"`
	Name              string             `json:"name"`
	IntervalType      model.IntervalKind `json:"intervalType"`
	IntervalValue     *json.Number       `json:"intervalValue"`
	TimeIntervalValue *json.Number       `json:"timeIntervalValue"`
	TimeIntervalUnit  model.TimeUnit     `json:"timeIntervalUnit"`
	LastKm            *json.Number       `json:"lastKm"`
	LastDate          *model.Date        `json:"lastDate"`
	Notes             string             `json:"notes"`
}

func (req serviceItemRequest) input() (store.ServiceItemInput, error) {
	optional := func(field string, n *json.Number) (int, error) {
		if n == nil {
			return 0, nil
		}
		return wholeNumber(field, n)
	}
	value, err := optional("intervalValue", req.IntervalValue)
	if err != nil {
		return store.ServiceItemInput{}, err
	}
	timeValue, err := optional("timeIntervalValue", req.TimeIntervalValue)
	if err != nil {
		return store.ServiceItemInput{}, err
	}

	iv, err := model.NewInterval(req.IntervalType, value, timeValue, req.TimeIntervalUnit)
	if err != nil {
		return store.ServiceItemInput{}, err
	}
	return store.ServiceItemInput{Name: req.Name, Interval: iv, Notes: req.Notes}, nil
}

// List handles GET /api/service-items?kendaraanId=&order=.
func (h *ServiceItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ref := q.Get("kendaraanId")
	if ref == "" {
		jsonError(w, http.StatusBadRequest, "kendaraanId is required")
		return
	}
	v, ok := ownedVehicle(w, r, h.DB, ref)
	if !ok {
		return
	}

	order := q.Get("order")
	items, err := store.ListServiceItems(r.Context(), h.DB, v.ID, order)
	if err != nil {
		storeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, projectItems(items, v, h.Clock.Now(), order == "progress"))
}

// Create handles POST /api/service-items.
func (h *ServiceItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req serviceItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.VehicleID == "" {
		jsonError(w, http.StatusBadRequest, "kendaraanId is required")
		return
	}

	in, err := req.input()
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	var seed store.Baseline
	if req.LastKm != nil {
		km, err := wholeNumber("lastKm", req.LastKm)
		if err != nil {
			jsonError(w, http.StatusBadRequest, err.Error())
			return
		}
		seed.LastKm = &km
	}
	seed.LastDate = req.LastDate

	v, ok := ownedVehicle(w, r, h.DB, string(req.VehicleID))
	if !ok {
		return
	}

	item, err := store.CreateServiceItem(r.Context(), h.DB, v.UserID, v.ID, in, seed)
	if err != nil {
		storeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, projectItems([]model.ServiceItem{*item}, v, h.Clock.Now(), false)[0])
}

// item resolves the {id} path parameter to an item and its vehicle, both
// owned by the caller.
func (h *ServiceItemsHandler) item(w http.ResponseWriter, r *http.Request) (*model.ServiceItem, *model.Vehicle, bool) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid service item id")
		return nil, nil, false
	}
	userID := GetClaims(r.Context()).UserID

	item, err := store.OwnedServiceItem(r.Context(), h.DB, userID, id)
	if err != nil {
		storeError(w, r, err)
		return nil, nil, false
	}
	v, err := store.GetVehicle(r.Context(), h.DB, userID, item.VehicleID)
	if err != nil {
		storeError(w, r, err)
		return nil, nil, false
	}
	return item, v, true
}

// Get handles GET /api/service-items/{id}.
func (h *ServiceItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, v, ok := h.item(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, projectItems([]model.ServiceItem{*item}, v, h.Clock.Now(), false)[0])
}

// Update handles PUT /api/service-items/{id}. Only metadata is editable; the
// baseline moves when a service is recorded.
func (h *ServiceItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	item, v, ok := h.item(w, r)
	if !ok {
		return
	}

	var req serviceItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	in, err := req.input()
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := store.UpdateServiceItem(r.Context(), h.DB, v.UserID, item.ID, in)
	if err != nil {
		storeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, projectItems([]model.ServiceItem{*updated}, v, h.Clock.Now(), false)[0])
}

// Delete handles DELETE /api/service-items/{id}.
func (h *ServiceItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid service item id")
		return
	}

	if err := store.DeleteServiceItem(r.Context(), h.DB, GetClaims(r.Context()).UserID, id); err != nil {
		storeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]bool{"success": true})
}
