package api

import (
	"bytes"
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/erazemk/servis/internal/model"
	"github.com/erazemk/servis/internal/schedule"
)

// vehicleRef is a vehicle reference in a request body. Clients send either
// the numeric id or the short id, as a number or a string.
type vehicleRef string

func (v *vehicleRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = vehicleRef(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("kendaraanId must be a string or a number")
	}
	*v = vehicleRef(n.String())
	return nil
}

// wholeNumber parses an integer field, rejecting fractions and non-numbers.
func wholeNumber(field string, n *json.Number) (int, error) {
	if n == nil {
		return 0, fmt.Errorf("%s is required", field)
	}
	v, err := n.Int64()
	if err != nil || v < -1<<31 || v > 1<<31-1 {
		return 0, fmt.Errorf("%s must be an integer", field)
	}
	return int(v), nil
}

type vehicleView struct {
	*model.Vehicle
	TaxReminders []schedule.TaxProjection `json:"taxReminders"`
}

func newVehicleView(v *model.Vehicle, now time.Time) vehicleView {
	return vehicleView{Vehicle: v, TaxReminders: taxReminders(v, now)}
}

// taxReminders projects both tax cycles of a vehicle, skipping cycles that
// have neither a payment nor enough registration data.
func taxReminders(v *model.Vehicle, now time.Time) []schedule.TaxProjection {
	reminders := []schedule.TaxProjection{}
	for _, cycle := range []model.TaxCycle{model.TaxAnnual, model.TaxFiveYear} {
		p, ok := schedule.ProjectTax(schedule.TaxInput{
			Cycle:     cycle,
			PaidUntil: v.PaidUntil(cycle),
			TaxMonth:  v.TaxMonth,
			ModelYear: v.Year,
		}, now)
		if ok {
			reminders = append(reminders, p)
		}
	}
	return reminders
}

type itemView struct {
	*model.ServiceItem
	IntervalLabel string              `json:"intervalLabel"`
	Projection    schedule.Projection `json:"projection"`
	DueLabel      string              `json:"dueLabel"`
}

// projectItems measures items against the vehicle's odometer and today's
// date. With byProgress set, the most urgent items come first.
func projectItems(items []model.ServiceItem, v *model.Vehicle, now time.Time, byProgress bool) []itemView {
	ref := schedule.Reference{Km: v.CurrentKm, Date: model.DateOf(now)}
	views := make([]itemView, 0, len(items))
	for i := range items {
		p := schedule.Project(items[i], ref)
		views = append(views, itemView{
			ServiceItem:   &items[i],
			IntervalLabel: items[i].Interval.String(),
			Projection:    p,
			DueLabel:      p.Due.Label(),
		})
	}
	if byProgress {
		slices.SortStableFunc(views, func(a, b itemView) int {
			return cmp.Compare(b.Projection.Progress, a.Projection.Progress)
		})
	}
	return views
}
