package appointment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func workingDay() ScheduleConfig {
	return ScheduleConfig{StartHour: 9, EndHour: 17, SlotInterval: 30 * time.Minute}
}

func TestSlots(t *testing.T) {
	slots := workingDay().Slots()

	require.Len(t, slots, 16)
	assert.Equal(t, "09:00:00", slots[0])
	assert.Equal(t, "09:30:00", slots[1])
	assert.Equal(t, "12:00:00", slots[6])
	assert.Equal(t, "16:30:00", slots[15])
}

func TestGrid(t *testing.T) {
	grid := workingDay().Grid(map[string]bool{
		"09:30:00": true,
		"14:00:00": true,
	})

	require.Len(t, grid, 16)
	for _, s := range grid {
		assert.Equal(t, s.Time[:5], s.DisplayTime)
		switch s.Time {
		case "09:30:00", "14:00:00":
			assert.False(t, s.Available, "slot %s should be taken", s.Time)
		default:
			assert.True(t, s.Available, "slot %s should be free", s.Time)
		}
	}
}

func TestIsValidSlot(t *testing.T) {
	cfg := workingDay()

	assert.True(t, cfg.IsValidSlot("09:00:00"))
	assert.True(t, cfg.IsValidSlot("16:30:00"))
	assert.False(t, cfg.IsValidSlot("17:00:00"), "end hour is exclusive")
	assert.False(t, cfg.IsValidSlot("09:15:00"), "off-grid minutes")
	assert.False(t, cfg.IsValidSlot("08:30:00"), "before opening")
	assert.False(t, cfg.IsValidSlot("9:00:00"), "must be zero padded")
}
