package schedule

import (
	"cmp"
	"slices"
	"time"

	"github.com/erazemk/servis/internal/model"
)

// EventKind distinguishes timeline entries.
type EventKind string

// Event kinds.
const (
	EventService EventKind = "service"
	EventTax     EventKind = "tax"
)

// Event is one entry of a vehicle timeline. Exactly one of Service and Tax is set.
type Event struct {
	Kind      EventKind                  `json:"kind"`
	VehicleID int64                      `json:"kendaraanId"`
	Date      model.Date                 `json:"date"`
	Cost      *int64                     `json:"cost"`
	Service   *model.ServiceHistoryEntry `json:"service,omitempty"`
	Tax       *model.TaxPayment          `json:"tax,omitempty"`
}

// MergeTimeline merges service history and tax payments into one sequence,
// newest event date first. Events on the same date are ordered newest
// created first; the order is deterministic for equal creation times.
func MergeTimeline(history []model.ServiceHistoryEntry, payments []model.TaxPayment) []Event {
	events := make([]Event, 0, len(history)+len(payments))
	for i := range history {
		h := &history[i]
		events = append(events, Event{
			Kind:      EventService,
			VehicleID: h.VehicleID,
			Date:      h.ServiceDate,
			Cost:      h.TotalCost,
			Service:   h,
		})
	}
	for i := range payments {
		p := &payments[i]
		events = append(events, Event{
			Kind:      EventTax,
			VehicleID: p.VehicleID,
			Date:      p.PaidDate,
			Cost:      p.Cost,
			Tax:       p,
		})
	}

	slices.SortStableFunc(events, func(a, b Event) int {
		if c := b.Date.Compare(a.Date.Time); c != 0 {
			return c
		}
		if c := b.createdAt().Compare(a.createdAt()); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Kind, b.Kind); c != 0 {
			return c
		}
		return cmp.Compare(b.id(), a.id())
	})
	return events
}

func (e Event) createdAt() time.Time {
	if e.Service != nil {
		return e.Service.CreatedAt
	}
	if e.Tax != nil {
		return e.Tax.CreatedAt
	}
	return time.Time{}
}

func (e Event) id() int64 {
	if e.Service != nil {
		return e.Service.ID
	}
	if e.Tax != nil {
		return e.Tax.ID
	}
	return 0
}

// MonthGroup is the events of one calendar month.
type MonthGroup struct {
	Month     model.YearMonth `json:"month"`
	TotalCost int64           `json:"totalCost"`
	Events    []Event         `json:"events"`
}

// GroupByMonth groups a merged timeline by calendar month, keeping its order.
func GroupByMonth(events []Event) []MonthGroup {
	var groups []MonthGroup
	for _, e := range events {
		month := e.Date.YearMonth()
		if len(groups) == 0 || groups[len(groups)-1].Month != month {
			groups = append(groups, MonthGroup{Month: month})
		}
		g := &groups[len(groups)-1]
		g.Events = append(g.Events, e)
		if e.Cost != nil {
			g.TotalCost += *e.Cost
		}
	}
	return groups
}
