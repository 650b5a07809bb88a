package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// YearMonth is a calendar month, used for tax paid-until windows.
type YearMonth struct {
	Year  int
	Month time.Month
}

// YearMonthOf returns the calendar month of t in t's own location.
func YearMonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// ParseYearMonth parses a YYYY-MM string.
func ParseYearMonth(s string) (YearMonth, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return YearMonth{}, fmt.Errorf("invalid month %q: expected YYYY-MM", s)
	}
	return YearMonthOf(t), nil
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// IsZero reports whether ym is the zero value.
func (ym YearMonth) IsZero() bool {
	return ym.Year == 0 && ym.Month == 0
}

func (ym YearMonth) index() int {
	return ym.Year*12 + int(ym.Month) - 1
}

// AddMonths returns ym moved by n months.
func (ym YearMonth) AddMonths(n int) YearMonth {
	i := ym.index() + n
	return YearMonth{Year: i / 12, Month: time.Month(i%12 + 1)}
}

// MonthsUntil returns the number of calendar months from ym to other.
func (ym YearMonth) MonthsUntil(other YearMonth) int {
	return other.index() - ym.index()
}

// After reports whether ym is strictly later than other.
func (ym YearMonth) After(other YearMonth) bool {
	return ym.index() > other.index()
}

// MarshalJSON encodes the month as "YYYY-MM".
func (ym YearMonth) MarshalJSON() ([]byte, error) {
	return json.Marshal(ym.String())
}

// UnmarshalJSON decodes a "YYYY-MM" string.
func (ym *YearMonth) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("month must be a string: %w", err)
	}
	parsed, err := ParseYearMonth(s)
	if err != nil {
		return err
	}
	*ym = parsed
	return nil
}

// Value stores the month as TEXT.
func (ym YearMonth) Value() (driver.Value, error) {
	return ym.String(), nil
}

// Scan reads a month stored as TEXT.
func (ym *YearMonth) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("cannot scan %T into YearMonth", src)
	}
	parsed, err := ParseYearMonth(s)
	if err != nil {
		return err
	}
	*ym = parsed
	return nil
}
