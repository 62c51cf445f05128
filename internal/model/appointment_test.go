package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/medagenda/scheduling-api/internal/model"
)

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to model.AppointmentStatus
		want     bool
	}{
		{model.AppointmentStatusScheduled, model.AppointmentStatusConfirmed, true},
		{model.AppointmentStatusScheduled, model.AppointmentStatusCancelled, true},
		{model.AppointmentStatusScheduled, model.AppointmentStatusRescheduled, true},
		{model.AppointmentStatusScheduled, model.AppointmentStatusCompleted, false},
		{model.AppointmentStatusConfirmed, model.AppointmentStatusCompleted, true},
		{model.AppointmentStatusConfirmed, model.AppointmentStatusCancelled, true},
		{model.AppointmentStatusConfirmed, model.AppointmentStatusScheduled, false},
		{model.AppointmentStatusCompleted, model.AppointmentStatusCancelled, false},
		{model.AppointmentStatusCancelled, model.AppointmentStatusScheduled, false},
		{model.AppointmentStatusRescheduled, model.AppointmentStatusConfirmed, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestStatusTerminalAndOccupies(t *testing.T) {
	assert.False(t, model.AppointmentStatusScheduled.IsTerminal())
	assert.False(t, model.AppointmentStatusConfirmed.IsTerminal())
	assert.True(t, model.AppointmentStatusCompleted.IsTerminal())
	assert.True(t, model.AppointmentStatusCancelled.IsTerminal())
	assert.True(t, model.AppointmentStatusRescheduled.IsTerminal())

	// Only statuses that still claim the slot block new bookings.
	assert.True(t, model.AppointmentStatusScheduled.Occupies())
	assert.True(t, model.AppointmentStatusConfirmed.Occupies())
	assert.False(t, model.AppointmentStatusCompleted.Occupies())
	assert.False(t, model.AppointmentStatusCancelled.Occupies())
	assert.False(t, model.AppointmentStatusRescheduled.Occupies())
}

func TestStatusValid(t *testing.T) {
	assert.True(t, model.AppointmentStatusScheduled.Valid())
	assert.False(t, model.AppointmentStatus("unknown").Valid())
}
