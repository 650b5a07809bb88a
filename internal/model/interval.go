package model

import (
	"encoding/json"
	"fmt"
)

// IntervalKind is the recurrence rule of a service item.
type IntervalKind string

// Interval kinds.
const (
	IntervalKM             IntervalKind = "KM"
	IntervalDay            IntervalKind = "DAY"
	IntervalMonth          IntervalKind = "MONTH"
	IntervalYear           IntervalKind = "YEAR"
	IntervalWhicheverFirst IntervalKind = "WHICHEVER_FIRST"
	IntervalNone           IntervalKind = "NONE"
)

// TimeUnit is the unit of a time-based interval.
type TimeUnit string

// Time units.
const (
	UnitDay   TimeUnit = "DAY"
	UnitMonth TimeUnit = "MONTH"
	UnitYear  TimeUnit = "YEAR"
)

// Valid reports whether u is a known time unit.
func (u TimeUnit) Valid() bool {
	return u == UnitDay || u == UnitMonth || u == UnitYear
}

// Interval is a tagged variant over the interval kinds. Only the fields the
// kind needs are set; construct it with the New* functions.
type Interval struct {
	kind     IntervalKind
	distance int
	time     int
	unit     TimeUnit
}

// NoInterval returns an interval that is never due.
func NoInterval() Interval {
	return Interval{kind: IntervalNone}
}

// DistanceInterval returns a KM interval.
func DistanceInterval(km int) (Interval, error) {
	if km <= 0 {
		return Interval{}, fmt.Errorf("km interval must be positive")
	}
	return Interval{kind: IntervalKM, distance: km}, nil
}

// TimeInterval returns a DAY, MONTH or YEAR interval.
func TimeInterval(unit TimeUnit, n int) (Interval, error) {
	if !unit.Valid() {
		return Interval{}, fmt.Errorf("invalid time unit %q", unit)
	}
	if n <= 0 {
		return Interval{}, fmt.Errorf("time interval must be positive")
	}
	return Interval{kind: IntervalKind(unit), time: n, unit: unit}, nil
}

// WhicheverFirst returns an interval due at the first of a distance and a
// time threshold. Either part may be omitted by passing zero, but not both.
func WhicheverFirst(km int, n int, unit TimeUnit) (Interval, error) {
	if km < 0 || n < 0 {
		return Interval{}, fmt.Errorf("interval values must not be negative")
	}
	if km == 0 && n == 0 {
		return Interval{}, fmt.Errorf("whichever-first needs a km interval, a time interval, or both")
	}
	iv := Interval{kind: IntervalWhicheverFirst, distance: km}
	if n > 0 {
		if !unit.Valid() {
			return Interval{}, fmt.Errorf("invalid time unit %q", unit)
		}
		iv.time = n
		iv.unit = unit
	}
	return iv, nil
}

// NewInterval validates the flat representation used by requests and storage.
// value is the km interval for KM and WHICHEVER_FIRST and the count for
// DAY/MONTH/YEAR; timeValue and unit are only read for WHICHEVER_FIRST.
func NewInterval(kind IntervalKind, value, timeValue int, unit TimeUnit) (Interval, error) {
	switch kind {
	case IntervalNone, "":
		return NoInterval(), nil
	case IntervalKM:
		return DistanceInterval(value)
	case IntervalDay, IntervalMonth, IntervalYear:
		return TimeInterval(TimeUnit(kind), value)
	case IntervalWhicheverFirst:
		return WhicheverFirst(value, timeValue, unit)
	default:
		return Interval{}, fmt.Errorf("invalid interval type %q", kind)
	}
}

// LoadInterval rebuilds an interval from stored columns without failing.
// Rows that cannot produce a due projection degrade to NONE.
func LoadInterval(kind IntervalKind, value, timeValue *int, unit *TimeUnit) Interval {
	var v, tv int
	var u TimeUnit
	if value != nil {
		v = *value
	}
	if timeValue != nil {
		tv = *timeValue
	}
	if unit != nil {
		u = *unit
	}
	if kind == IntervalWhicheverFirst && tv > 0 && !u.Valid() {
		tv = 0
	}
	iv, err := NewInterval(kind, v, tv, u)
	if err != nil {
		return NoInterval()
	}
	return iv
}

// Kind returns the interval kind; the zero Interval reports NONE.
func (iv Interval) Kind() IntervalKind {
	if iv.kind == "" {
		return IntervalNone
	}
	return iv.kind
}

// Distance returns the km threshold, if the interval has one.
func (iv Interval) Distance() (int, bool) {
	return iv.distance, iv.distance > 0
}

// Period returns the time threshold, if the interval has one.
func (iv Interval) Period() (int, TimeUnit, bool) {
	return iv.time, iv.unit, iv.time > 0
}

// Columns returns the flat storage representation.
func (iv Interval) Columns() (kind IntervalKind, value, timeValue *int, unit *TimeUnit) {
	kind = iv.Kind()
	switch kind {
	case IntervalKM:
		value = intPtr(iv.distance)
	case IntervalDay, IntervalMonth, IntervalYear:
		value = intPtr(iv.time)
	case IntervalWhicheverFirst:
		if iv.distance > 0 {
			value = intPtr(iv.distance)
		}
		if iv.time > 0 {
			timeValue = intPtr(iv.time)
			u := iv.unit
			unit = &u
		}
	}
	return kind, value, timeValue, unit
}

type intervalJSON struct {
	Type      IntervalKind `json:"intervalType"`
	Value     *int         `json:"intervalValue"`
	TimeValue *int         `json:"timeIntervalValue"`
	TimeUnit  *TimeUnit    `json:"timeIntervalUnit"`
}

// MarshalJSON encodes the flat representation.
func (iv Interval) MarshalJSON() ([]byte, error) {
	kind, value, timeValue, unit := iv.Columns()
	return json.Marshal(intervalJSON{Type: kind, Value: value, TimeValue: timeValue, TimeUnit: unit})
}

// String describes the interval for humans, e.g. "every 5000 km or 6 months".
func (iv Interval) String() string {
	var km, period string
	if d, ok := iv.Distance(); ok {
		km = fmt.Sprintf("%d km", d)
	}
	if n, unit, ok := iv.Period(); ok {
		period = fmt.Sprintf("%d %s", n, unitLabel(unit, n))
	}
	switch {
	case km != "" && period != "":
		return "every " + km + " or " + period
	case km != "":
		return "every " + km
	case period != "":
		return "every " + period
	default:
		return "no interval"
	}
}

func unitLabel(u TimeUnit, n int) string {
	var s string
	switch u {
	case UnitDay:
		s = "day"
	case UnitMonth:
		s = "month"
	case UnitYear:
		s = "year"
	}
	if n != 1 {
		s += "s"
	}
	return s
}

func intPtr(v int) *int {
	return &v
}
