package schedule

// Status is the urgency tier of a service item.
type Status string

// Statuses, in increasing urgency.
const (
	StatusOK      Status = "ok"
	StatusDueSoon Status = "due_soon"
	StatusOverdue Status = "overdue"
)

// Progress thresholds shared by every surface that renders a status.
const (
	DueSoonThreshold = 70.0
	OverdueThreshold = 100.0
)

// Classify maps a progress percentage to a status.
func Classify(progress float64) Status {
	switch {
	case progress >= OverdueThreshold:
		return StatusOverdue
	case progress >= DueSoonThreshold:
		return StatusDueSoon
	default:
		return StatusOK
	}
}
