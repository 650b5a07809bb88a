package model

import "time"

// Vehicle is a car or motorcycle owned by exactly one user.
type Vehicle struct {
	ID      int64  `json:"id"`
	ShortID string `json:"shortId"`
	UserID  int64  `json:"-"`
	Name    string `json:"name"`
	Type    string `json:"type,omitempty"`
	Plate   string `json:"plate,omitempty"`
	// Year is the model year; 0 when unknown.
	Year int `json:"year,omitempty"`
	// TaxMonth is the registration month (1-12); 0 when unknown.
	TaxMonth  int `json:"taxMonth,omitempty"`
	CurrentKm int `json:"currentKm"`

	AnnualPaidUntil   *YearMonth `json:"annualPaidUntil"`
	FiveYearPaidUntil *YearMonth `json:"fiveYearPaidUntil"`

	HasImage  bool      `json:"hasImage"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PaidUntil returns the paid-until marker for a tax cycle.
func (v *Vehicle) PaidUntil(cycle TaxCycle) *YearMonth {
	if cycle == TaxFiveYear {
		return v.FiveYearPaidUntil
	}
	return v.AnnualPaidUntil
}
