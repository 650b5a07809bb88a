package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		progress float64
		want     Status
	}{
		{0, StatusOK},
		{69, StatusOK},
		{69.99, StatusOK},
		{70, StatusDueSoon},
		{99, StatusDueSoon},
		{100, StatusOverdue},
		{150, StatusOverdue},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.progress), "progress %v", tt.progress)
	}
}

func TestClassifyIsMonotonic(t *testing.T) {
	rank := map[Status]int{StatusOK: 0, StatusDueSoon: 1, StatusOverdue: 2}
	prev := rank[Classify(0)]
	for p := 0.0; p <= 200; p += 0.5 {
		cur := rank[Classify(p)]
		assert.GreaterOrEqual(t, cur, prev, "progress %v", p)
		prev = cur
	}
}
