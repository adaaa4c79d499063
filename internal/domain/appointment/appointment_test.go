package appointment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusIsActive(t *testing.T) {
	assert.True(t, StatusPending.IsActive())
	assert.True(t, StatusAccepted.IsActive())
	assert.False(t, StatusRejected.IsActive())
	assert.False(t, StatusCancelled.IsActive())
	assert.False(t, StatusRescheduled.IsActive())
	assert.False(t, StatusCompleted.IsActive())
}

func TestCanTransitionTo(t *testing.T) {
	cases := []struct {
		from, to Status
		ok       bool
	}{
		{StatusPending, StatusAccepted, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusRescheduled, true},
		{StatusPending, StatusCompleted, false},
		{StatusAccepted, StatusCompleted, true},
		{StatusAccepted, StatusCancelled, true},
		{StatusAccepted, StatusRescheduled, true},
		{StatusAccepted, StatusPending, false},
		{StatusAccepted, StatusRejected, false},
		{StatusRejected, StatusRescheduled, true},
		{StatusRejected, StatusAccepted, false},
		{StatusCancelled, StatusRescheduled, false},
		{StatusRescheduled, StatusPending, false},
		{StatusCompleted, StatusCancelled, false},
	}

	for _, tc := range cases {
		a := &Appointment{Status: tc.from}
		assert.Equal(t, tc.ok, a.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestTransitionStampsTimes(t *testing.T) {
	now := time.Date(2026, 3, 12, 10, 0, 0, 0, time.UTC)

	a := &Appointment{Status: StatusPending}
	require.NoError(t, a.Transition(StatusAccepted, now))
	assert.Equal(t, StatusAccepted, a.Status)
	require.NotNil(t, a.ConfirmedAt)
	assert.Equal(t, now, *a.ConfirmedAt)
	assert.Nil(t, a.CompletedAt)

	later := now.Add(time.Hour)
	require.NoError(t, a.Transition(StatusCompleted, later))
	require.NotNil(t, a.CompletedAt)
	assert.Equal(t, later, *a.CompletedAt)
}

func TestTransitionRejectsIllegalMoves(t *testing.T) {
	now := time.Now()

	a := &Appointment{Status: StatusCompleted}
	assert.ErrorIs(t, a.Transition(StatusCancelled, now), ErrInvalidStatusTransition)
	assert.Equal(t, StatusCompleted, a.Status, "status must not change on a rejected transition")

	b := &Appointment{Status: StatusPending}
	assert.ErrorIs(t, b.Transition(Status("archived"), now), ErrInvalidStatus)
}

func TestParseDateTime(t *testing.T) {
	at, err := ParseDateTime("2026-03-12", "09:30:00")
	require.NoError(t, err)
	assert.Equal(t, 2026, at.Year())
	assert.Equal(t, time.March, at.Month())
	assert.Equal(t, 12, at.Day())
	assert.Equal(t, 9, at.Hour())
	assert.Equal(t, 30, at.Minute())

	_, err = ParseDateTime("12-03-2026", "09:30:00")
	assert.Error(t, err)

	_, err = ParseDateTime("2026-03-12", "9:30")
	assert.Error(t, err)
}

func TestUpdateCommandEmpty(t *testing.T) {
	assert.True(t, (&UpdateCommand{}).Empty())

	reason := "follow-up"
	assert.False(t, (&UpdateCommand{Reason: &reason}).Empty())
}
