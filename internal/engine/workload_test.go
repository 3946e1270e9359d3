package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/edusys-id/substitution-api/internal/models"
)

func TestSumAssignedMinutes(t *testing.T) {
	cancelled := slot("s3", models.Wednesday, 540, 600, "", "t1")
	cancelled.Status = models.SlotCancelled
	substituted := slot("s4", models.Thursday, 540, 630, "", "t1")
	substituted.Status = models.SlotSubstituted

	slots := []*models.TimeSlot{
		slot("s1", models.Monday, 540, 600, "", "t1"),   // 60
		slot("s2", models.Tuesday, 600, 720, "", "t1"),  // 120
		cancelled,                                       // skipped
		substituted,                                     // 90
	}
	assert.Equal(t, 270, SumAssignedMinutes(slots))
}

func TestRemainingCapacityMayGoNegative(t *testing.T) {
	assert.Equal(t, 80, RemainingCapacity(1000, 1080))
	assert.Equal(t, -20, RemainingCapacity(1100, 1080))
	assert.Equal(t, 0, RemainingCapacity(1080, 1080))
}

func TestWouldExceedCap(t *testing.T) {
	assert.True(t, WouldExceedCap(1000, 100, 1080))
	assert.False(t, WouldExceedCap(1000, 80, 1080))
	assert.False(t, WouldExceedCap(0, 1080, 1080))
	assert.True(t, WouldExceedCap(1, 1080, 1080))
}
