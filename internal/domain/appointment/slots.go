package appointment

import (
	"fmt"
	"time"
)

// ScheduleConfig describes the clinic-wide working day from which the slot
// grid is derived. Every veterinarian shares the same grid.
type ScheduleConfig struct {
	StartHour    int
	EndHour      int
	SlotInterval time.Duration
}

// Slot is one grid entry in an availability response.
type Slot struct {
	Time        string `json:"time"`         // HH:MM:SS
	DisplayTime string `json:"display_time"` // HH:MM
	Available   bool   `json:"available"`
}

// Slots returns every bookable time of day between StartHour (inclusive)
// and EndHour (exclusive), formatted as "HH:MM:SS".
func (c ScheduleConfig) Slots() []string {
	start := time.Duration(c.StartHour) * time.Hour
	end := time.Duration(c.EndHour) * time.Hour

	var slots []string
	for at := start; at < end; at += c.SlotInterval {
		h := int(at.Hours())
		m := int(at.Minutes()) % 60
		slots = append(slots, fmt.Sprintf("%02d:%02d:00", h, m))
	}
	return slots
}

// SlotBooking is an active appointment occupying a grid time, as shown to
// clients browsing a veterinarian's day.
type SlotBooking struct {
	Time   string `json:"appointment_time"`
	Status Status `json:"status"`
}

// Grid annotates the full slot list against a set of taken times.
func (c ScheduleConfig) Grid(booked map[string]bool) []Slot {
	times := c.Slots()
	grid := make([]Slot, 0, len(times))
	for _, t := range times {
		grid = append(grid, Slot{
			Time:        t,
			DisplayTime: t[:5],
			Available:   !booked[t],
		})
	}
	return grid
}

// IsValidSlot reports whether tod lies on the grid.
func (c ScheduleConfig) IsValidSlot(tod string) bool {
	for _, s := range c.Slots() {
		if s == tod {
			return true
		}
	}
	return false
}
