package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAttendanceStatusValid(t *testing.T) {
	assert.True(t, StatusPresent.Valid())
	assert.True(t, StatusAbsent.Valid())
	assert.True(t, StatusLate.Valid())
	assert.True(t, StatusExcused.Valid())
	assert.False(t, AttendanceStatus("").Valid())
	assert.False(t, AttendanceStatus("holiday").Valid())
}

func TestNextStatusOrder(t *testing.T) {
	assert.Equal(t, StatusAbsent, NextStatus(StatusPresent))
	assert.Equal(t, StatusLate, NextStatus(StatusAbsent))
	assert.Equal(t, StatusExcused, NextStatus(StatusLate))
	assert.Equal(t, StatusPresent, NextStatus(StatusExcused))
}

func TestNextStatusUnmarkedStartsAtPresent(t *testing.T) {
	assert.Equal(t, StatusPresent, NextStatus(""))
	assert.Equal(t, StatusPresent, NextStatus("bogus"))
}

func TestNextStatusClosedUnderCycle(t *testing.T) {
	current := StatusPresent
	for i := 0; i < 4; i++ {
		current = NextStatus(current)
		assert.True(t, current.Valid())
	}
	assert.Equal(t, StatusPresent, current)
}
