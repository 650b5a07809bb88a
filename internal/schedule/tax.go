package schedule

import (
	"time"

	"github.com/erazemk/servis/internal/model"
)

// Warning windows, in months, used when rendering tax reminders.
const (
	AnnualWarningMonths   = 6
	FiveYearWarningMonths = 12
)

// WarningMonths returns the warning window of a cycle.
func WarningMonths(cycle model.TaxCycle) int {
	if cycle == model.TaxFiveYear {
		return FiveYearWarningMonths
	}
	return AnnualWarningMonths
}

// Urgency is the reminder tier of a tax cycle.
type Urgency string

// Urgencies, in increasing order.
const (
	UrgencyOK       Urgency = "ok"
	UrgencyWarning  Urgency = "warning"
	UrgencyCritical Urgency = "critical"
)

// TaxUrgency classifies the months left before a tax window.
func TaxUrgency(monthsRemaining, warningMonths int) Urgency {
	switch {
	case monthsRemaining <= 1:
		return UrgencyCritical
	case monthsRemaining <= warningMonths:
		return UrgencyWarning
	default:
		return UrgencyOK
	}
}

// TaxProjection is the computed state of one tax cycle.
type TaxProjection struct {
	Cycle model.TaxCycle `json:"type"`
	// Paid is set while the recorded paid-until window is still ahead.
	Paid bool `json:"paid"`
	// Estimated is set when no payment was ever recorded and the window
	// was derived from the registration month.
	Estimated       bool            `json:"estimated"`
	EffectiveDate   model.YearMonth `json:"effectiveDate"`
	MonthsRemaining int             `json:"monthsRemaining"`
	Urgency         Urgency         `json:"urgency"`
}

// TaxInput describes what is known about a vehicle's tax cycle.
type TaxInput struct {
	Cycle     model.TaxCycle
	PaidUntil *model.YearMonth
	// TaxMonth is the registration month (1-12), 0 when unknown.
	TaxMonth int
	// ModelYear anchors the five-year cycle, 0 when unknown.
	ModelYear int
}

// ProjectTax computes the next due window of a tax cycle at now. It reports
// false when there is neither a payment record nor enough registration data
// to estimate one.
func ProjectTax(in TaxInput, now time.Time) (TaxProjection, bool) {
	current := model.YearMonthOf(now)
	p := TaxProjection{Cycle: in.Cycle}

	switch {
	case in.PaidUntil != nil && in.PaidUntil.After(current):
		p.Paid = true
		p.EffectiveDate = *in.PaidUntil
	case in.PaidUntil != nil:
		step := in.Cycle.Months()
		due := in.PaidUntil.AddMonths(step)
		for !due.After(current) {
			due = due.AddMonths(step)
		}
		p.EffectiveDate = due
	default:
		due, ok := estimateTaxWindow(in, now)
		if !ok {
			return TaxProjection{}, false
		}
		p.Estimated = true
		p.EffectiveDate = due
	}

	p.MonthsRemaining = current.MonthsUntil(p.EffectiveDate)
	p.Urgency = TaxUrgency(p.MonthsRemaining, WarningMonths(in.Cycle))
	return p, true
}

// estimateTaxWindow derives a due window from registration data alone. The
// current month counts as not yet passed.
func estimateTaxWindow(in TaxInput, now time.Time) (model.YearMonth, bool) {
	if in.TaxMonth < 1 || in.TaxMonth > 12 {
		return model.YearMonth{}, false
	}
	month := time.Month(in.TaxMonth)
	year := now.Year()

	if in.Cycle != model.TaxFiveYear {
		if month < now.Month() {
			year++
		}
		return model.YearMonth{Year: year, Month: month}, true
	}

	if in.ModelYear <= 0 {
		return model.YearMonth{}, false
	}
	year = in.ModelYear
	if year < now.Year() {
		year += (now.Year() - year + 4) / 5 * 5
	}
	if year == now.Year() && month < now.Month() {
		year += 5
	}
	return model.YearMonth{Year: year, Month: month}, true
}
