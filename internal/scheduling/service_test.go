package scheduling_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medagenda/scheduling-api/internal/scheduling"
)

func TestSuggestReturnsRankedTopSlots(t *testing.T) {
	env := newTestEnv()
	preferred := env.addDoctor("Cardiology", 30, 0)
	other := env.addDoctor("Cardiology", 30, 0)
	env.addHours(preferred.ID, 1, "08:00", "12:00")
	env.addHours(other.ID, 1, "08:00", "12:00")

	suggestions, err := env.service.Suggest(context.Background(), scheduling.SuggestParams{
		Specialty:         "Cardiology",
		Urgency:           5,
		PreferredDoctorID: preferred.ID,
		PreferredDate:     monday,
	})
	require.NoError(t, err)

	require.Len(t, suggestions, 5)
	for _, s := range suggestions {
		assert.Equal(t, preferred.ID, s.DoctorID, "preferred doctor's slots outrank the others")
	}
	// Equal scores fall back to earliest first.
	assert.Equal(t, "08:00", suggestions[0].Start.String())
	assert.GreaterOrEqual(t, suggestions[0].Score, suggestions[4].Score)
}

func TestSuggestUnknownSpecialty(t *testing.T) {
	env := newTestEnv()
	doctor := env.addDoctor("Cardiology", 30, 0)
	env.addHours(doctor.ID, 1, "08:00", "12:00")

	_, err := env.service.Suggest(context.Background(), scheduling.SuggestParams{
		Specialty: "Neurosurgery",
		Urgency:   3,
	})
	assert.ErrorIs(t, err, scheduling.ErrNoDoctorsForSpecialty)
}

func TestSuggestSkipsInactiveDoctors(t *testing.T) {
	env := newTestEnv()
	active := env.addDoctor("Cardiology", 30, 0)
	inactive := env.addDoctor("Cardiology", 30, 0)
	inactive.Active = false
	env.addHours(active.ID, 1, "08:00", "09:00")
	env.addHours(inactive.ID, 1, "08:00", "09:00")

	suggestions, err := env.service.Suggest(context.Background(), scheduling.SuggestParams{
		Specialty:     "Cardiology",
		Urgency:       3,
		PreferredDate: monday,
	})
	require.NoError(t, err)
	for _, s := range suggestions {
		assert.Equal(t, active.ID, s.DoctorID)
	}
}

func TestSearchGroupsByDate(t *testing.T) {
	env := newTestEnv()
	doctor := env.addDoctor("Cardiology", 30, 0)
	env.addHours(doctor.ID, 1, "08:00", "09:00")
	env.addHours(doctor.ID, 2, "08:00", "09:00")

	days, err := env.service.Search(context.Background(), scheduling.SearchParams{
		DoctorID: doctor.ID,
		DateFrom: monday,
		DateTo:   monday.AddDate(0, 0, 6),
	})
	require.NoError(t, err)

	require.Len(t, days, 2)
	assert.True(t, days[0].Date.Equal(monday))
	assert.True(t, days[1].Date.Equal(monday.AddDate(0, 0, 1)))
	require.Len(t, days[0].Slots, 2)
	assert.Equal(t, "08:00", days[0].Slots[0].Start.String())
	assert.Equal(t, "08:30", days[0].Slots[1].Start.String())
}

func TestSearchBySpecialtyMergesDoctors(t *testing.T) {
	env := newTestEnv()
	first := env.addDoctor("Cardiology", 30, 0)
	second := env.addDoctor("Cardiology", 30, 0)
	env.addHours(first.ID, 1, "08:00", "08:30")
	env.addHours(second.ID, 1, "08:00", "08:30")

	days, err := env.service.Search(context.Background(), scheduling.SearchParams{
		Specialty: "cardiology",
		DateFrom:  monday,
		DateTo:    monday,
	})
	require.NoError(t, err)

	require.Len(t, days, 1)
	assert.Len(t, days[0].Slots, 2, "same interval from both doctors")
}

func TestSearchQueryValidation(t *testing.T) {
	env := newTestEnv()

	_, err := env.service.Search(context.Background(), scheduling.SearchParams{
		DateFrom: monday,
		DateTo:   monday,
	})
	assert.ErrorIs(t, err, scheduling.ErrInvalidQuery)

	_, err = env.service.Search(context.Background(), scheduling.SearchParams{
		Specialty: "Cardiology",
		DateFrom:  monday,
		DateTo:    monday,
	})
	assert.ErrorIs(t, err, scheduling.ErrNoDoctorsFound)
}

func TestBookedSlotDisappearsFromSearch(t *testing.T) {
	env := newTestEnv()
	doctor := env.addDoctor("Cardiology", 30, 0)
	patient := env.addPatient()
	env.addHours(doctor.ID, 1, "08:00", "09:00")

	ctx := context.Background()
	_, err := env.service.Book(ctx, reserveParams(doctor.ID, patient.ID, "08:00"))
	require.NoError(t, err)

	days, err := env.service.Search(ctx, scheduling.SearchParams{
		DoctorID: doctor.ID,
		DateFrom: monday,
		DateTo:   monday,
	})
	require.NoError(t, err)

	require.Len(t, days, 1)
	require.Len(t, days[0].Slots, 1)
	assert.Equal(t, "08:30", days[0].Slots[0].Start.String())
}
