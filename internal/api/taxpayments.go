package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/erazemk/servis/internal/model"
	"github.com/erazemk/servis/internal/store"
)

// TaxHandler handles tax payment endpoints.
type TaxHandler struct {
	DB *sql.DB
}

type taxPaymentRequest struct {
	VehicleID vehicleRef `json:"kendaraanId"`
	Type      string     `json:"type"`
	PaidUntil string     `json:"paidUntil"`
	PaidDate  string     `json:"paidDate"`
	Cost      *int64     `json:"cost"`
	Notes     string     `json:"notes"`
}

type taxPaymentResponse struct {
	Success bool              `json:"success"`
	Payment *model.TaxPayment `json:"payment"`
}

// Record handles POST /api/tax-payments.
func (h *TaxHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req taxPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.VehicleID == "" {
		jsonError(w, http.StatusBadRequest, "kendaraanId is required")
		return
	}

	cycle, err := model.ParseTaxCycle(req.Type)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "type must be annual or five_year")
		return
	}
	paidUntil, err := model.ParseYearMonth(req.PaidUntil)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "paidUntil must be YYYY-MM")
		return
	}
	paidDate, err := model.ParseDate(req.PaidDate)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "paidDate must be YYYY-MM-DD")
		return
	}

	v, ok := ownedVehicle(w, r, h.DB, string(req.VehicleID))
	if !ok {
		return
	}

	payment, err := store.RecordTaxPayment(r.Context(), h.DB, v.UserID, store.TaxPaymentInput{
		VehicleID: v.ID,
		Cycle:     cycle,
		PaidUntil: paidUntil,
		PaidDate:  paidDate,
		Cost:      req.Cost,
		Notes:     req.Notes,
	})
	if err != nil {
		storeError(w, r, err)
		return
	}

	slog.Info("tax payment recorded",
		"user", v.UserID,
		"vehicle", v.ID,
		"cycle", cycle,
		"paid_until", paidUntil.String(),
	)
	jsonResponse(w, http.StatusOK, taxPaymentResponse{Success: true, Payment: payment})
}

// List handles GET /api/tax-payments[?kendaraanId=].
func (h *TaxHandler) List(w http.ResponseWriter, r *http.Request) {
	vehicleID, ok := optionalVehicle(w, r, h.DB)
	if !ok {
		return
	}

	payments, err := store.ListTaxPayments(r.Context(), h.DB, GetClaims(r.Context()).UserID, vehicleID)
	if err != nil {
		storeError(w, r, err)
		return
	}
	if payments == nil {
		payments = []model.TaxPayment{}
	}
	jsonResponse(w, http.StatusOK, payments)
}
