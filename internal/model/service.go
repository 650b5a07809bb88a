package model

import "time"

// UnknownItemName is shown for history entries that reference a deleted item.
const UnknownItemName = "unknown item"

// ServiceItem is a recurring maintenance task of one vehicle. Its baseline
// (LastKm, LastDate) only changes when a service is recorded.
type ServiceItem struct {
	ID        int64     `json:"id"`
	VehicleID int64     `json:"kendaraanId"`
	Name      string    `json:"name"`
	Interval  Interval  `json:"interval"`
	LastKm    *int      `json:"lastKm"`
	LastDate  *Date     `json:"lastDate"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ServiceHistoryEntry is an immutable record of one service event.
type ServiceHistoryEntry struct {
	ID          int64   `json:"id"`
	VehicleID   int64   `json:"kendaraanId"`
	ServiceDate Date    `json:"serviceDate"`
	OdometerKm  int     `json:"odometerKm"`
	ItemIDs     []int64 `json:"serviceItemIds"`
	// ItemNames is parallel to ItemIDs.
	ItemNames []string  `json:"serviceItemNames"`
	TotalCost *int64    `json:"totalCost"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
