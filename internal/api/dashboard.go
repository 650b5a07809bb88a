package api

import (
	"cmp"
	"database/sql"
	"net/http"
	"slices"

	"github.com/zoobzio/clockz"

	"github.com/erazemk/servis/internal/schedule"
	"github.com/erazemk/servis/internal/store"
)

// Dashboard list sizes.
const (
	dashboardAttentionLimit = 10
	dashboardRecentLimit    = 5
)

// DashboardHandler summarizes all vehicles of the caller.
type DashboardHandler struct {
	DB    *sql.DB
	Clock clockz.Clock
}

type dashboardTotals struct {
	Vehicles   int   `json:"vehicles"`
	Items      int   `json:"items"`
	DueSoon    int   `json:"dueSoon"`
	Overdue    int   `json:"overdue"`
	TotalSpent int64 `json:"totalSpent"`
}

type attentionItem struct {
	itemView
	VehicleName string `json:"vehicleName"`
}

type taxAlert struct {
	schedule.TaxProjection
	VehicleID   int64  `json:"kendaraanId"`
	VehicleName string `json:"vehicleName"`
}

type dashboardResponse struct {
	Totals    dashboardTotals  `json:"totals"`
	Attention []attentionItem  `json:"attention"`
	TaxAlerts []taxAlert       `json:"taxAlerts"`
	Recent    []schedule.Event `json:"recent"`
}

// Get handles GET /api/dashboard.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := GetClaims(ctx).UserID
	now := h.Clock.Now()

	vehicles, err := store.ListVehicles(ctx, h.DB, userID)
	if err != nil {
		storeError(w, r, err)
		return
	}

	resp := dashboardResponse{
		Attention: []attentionItem{},
		TaxAlerts: []taxAlert{},
	}
	resp.Totals.Vehicles = len(vehicles)

	for i := range vehicles {
		v := &vehicles[i]
		items, err := store.ListServiceItems(ctx, h.DB, v.ID, "")
		if err != nil {
			storeError(w, r, err)
			return
		}
		resp.Totals.Items += len(items)

		for _, view := range projectItems(items, v, now, false) {
			switch view.Projection.Status {
			case schedule.StatusOverdue:
				resp.Totals.Overdue++
			case schedule.StatusDueSoon:
				resp.Totals.DueSoon++
			default:
				continue
			}
			resp.Attention = append(resp.Attention, attentionItem{itemView: view, VehicleName: v.Name})
		}

		for _, p := range taxReminders(v, now) {
			if p.Urgency != schedule.UrgencyOK {
				resp.TaxAlerts = append(resp.TaxAlerts, taxAlert{TaxProjection: p, VehicleID: v.ID, VehicleName: v.Name})
			}
		}
	}

	slices.SortStableFunc(resp.Attention, func(a, b attentionItem) int {
		return cmp.Compare(b.Projection.Progress, a.Projection.Progress)
	})
	if len(resp.Attention) > dashboardAttentionLimit {
		resp.Attention = resp.Attention[:dashboardAttentionLimit]
	}
	slices.SortStableFunc(resp.TaxAlerts, func(a, b taxAlert) int {
		return cmp.Compare(a.MonthsRemaining, b.MonthsRemaining)
	})

	events, err := loadTimeline(r, h.DB, 0)
	if err != nil {
		storeError(w, r, err)
		return
	}
	for _, e := range events {
		if e.Cost != nil {
			resp.Totals.TotalSpent += *e.Cost
		}
	}
	resp.Recent = events[:min(len(events), dashboardRecentLimit)]
	if resp.Recent == nil {
		resp.Recent = []schedule.Event{}
	}

	jsonResponse(w, http.StatusOK, resp)
}
