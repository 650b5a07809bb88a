package schedule

import (
	"fmt"
	"strings"

	"github.com/erazemk/servis/internal/model"
)

// Days per unit used for the progress denominator. Due dates use calendar
// arithmetic instead, so the two can disagree by a few days near month ends.
const (
	daysPerMonth = 30
	daysPerYear  = 365
)

// Reference is the point in time a projection is measured at.
type Reference struct {
	Km   int
	Date model.Date
}

// Due holds the thresholds at which an item becomes due. Both are set for a
// whichever-first item with both parts configured.
type Due struct {
	Km   *int        `json:"km,omitempty"`
	Date *model.Date `json:"date,omitempty"`
}

// Label renders the thresholds joined with "OR", e.g. "20000 km OR 2025-03-01".
func (d Due) Label() string {
	var parts []string
	if d.Km != nil {
		parts = append(parts, fmt.Sprintf("%d km", *d.Km))
	}
	if d.Date != nil {
		parts = append(parts, d.Date.String())
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " OR ")
}

// Projection is the computed state of one service item.
type Projection struct {
	// Progress is the share of the interval elapsed since the baseline, in [0, 100].
	Progress float64 `json:"progress"`
	Due      Due     `json:"due"`
	Status   Status  `json:"status"`
}

// Project computes progress and due thresholds of item at ref.
func Project(item model.ServiceItem, ref Reference) Projection {
	var p Projection
	iv := item.Interval

	switch iv.Kind() {
	case model.IntervalKM:
		km, _ := iv.Distance()
		p.Progress, p.Due.Km = distanceProgress(item.LastKm, km, ref.Km)
	case model.IntervalDay, model.IntervalMonth, model.IntervalYear:
		n, unit, _ := iv.Period()
		p.Progress, p.Due.Date = timeProgress(item.LastDate, n, unit, ref.Date)
	case model.IntervalWhicheverFirst:
		var kmProgress, timeProgressValue float64
		if km, ok := iv.Distance(); ok {
			kmProgress, p.Due.Km = distanceProgress(item.LastKm, km, ref.Km)
		}
		if n, unit, ok := iv.Period(); ok {
			timeProgressValue, p.Due.Date = timeProgress(item.LastDate, n, unit, ref.Date)
		}
		p.Progress = max(kmProgress, timeProgressValue)
	}

	p.Status = Classify(p.Progress)
	return p
}

func distanceProgress(lastKm *int, interval, refKm int) (float64, *int) {
	if lastKm == nil || interval <= 0 {
		return 0, nil
	}
	due := *lastKm + interval
	return clampPercent(float64(refKm-*lastKm) / float64(interval) * 100), &due
}

func timeProgress(lastDate *model.Date, n int, unit model.TimeUnit, ref model.Date) (float64, *model.Date) {
	if lastDate == nil || n <= 0 {
		return 0, nil
	}

	var due model.Date
	denominator := n
	switch unit {
	case model.UnitDay:
		due = lastDate.AddDays(n)
	case model.UnitMonth:
		due = lastDate.AddMonths(n)
		denominator *= daysPerMonth
	case model.UnitYear:
		due = lastDate.AddYears(n)
		denominator *= daysPerYear
	default:
		return 0, nil
	}

	elapsed := ref.DaysSince(*lastDate)
	return clampPercent(float64(elapsed) / float64(denominator) * 100), &due
}

func clampPercent(v float64) float64 {
	return min(max(v, 0), 100)
}
