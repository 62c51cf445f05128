package scheduling_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medagenda/scheduling-api/internal/model"
	"github.com/medagenda/scheduling-api/internal/scheduling"
)

func rankFixture() (map[uuid.UUID]*model.Doctor, *model.Doctor, *model.Doctor) {
	preferred := &model.Doctor{
		Base:      model.Base{ID: uuid.New()},
		Specialty: "Cardiology",
	}
	other := &model.Doctor{
		Base:      model.Base{ID: uuid.New()},
		Specialty: "Dermatology",
	}
	doctors := map[uuid.UUID]*model.Doctor{
		preferred.ID: preferred,
		other.ID:     other,
	}
	return doctors, preferred, other
}

func TestRankPreferredDoctorOutranksOthers(t *testing.T) {
	doctors, preferred, other := rankFixture()
	ranker := scheduling.NewRanker(scheduling.DefaultRankWeights(), 5)

	candidates := []model.Slot{
		{DoctorID: other.ID, Date: monday, Start: tod("08:00"), End: tod("08:30")},
		{DoctorID: preferred.ID, Date: monday, Start: tod("10:00"), End: tod("10:30")},
	}

	ranked := ranker.Rank(candidates, doctors, scheduling.RankCriteria{
		Urgency:            5,
		PreferredDoctorID:  preferred.ID,
		RequestedSpecialty: "Cardiology",
	})

	require.Len(t, ranked, 2)
	assert.Equal(t, preferred.ID, ranked[0].DoctorID)
	assert.Greater(t, ranked[0].Score, ranked[1].Score)
	assert.Equal(t, "High urgency, Preferred doctor, Specialty match", ranked[0].Reason)
}

func TestRankDeterministicTieBreak(t *testing.T) {
	doctors, preferred, _ := rankFixture()
	ranker := scheduling.NewRanker(scheduling.DefaultRankWeights(), 5)

	// Same doctor, same score: earlier date wins, then earlier start.
	candidates := []model.Slot{
		{DoctorID: preferred.ID, Date: monday.AddDate(0, 0, 1), Start: tod("08:00")},
		{DoctorID: preferred.ID, Date: monday, Start: tod("09:00")},
		{DoctorID: preferred.ID, Date: monday, Start: tod("08:00")},
	}

	criteria := scheduling.RankCriteria{Urgency: 3, RequestedSpecialty: "Cardiology"}

	first := ranker.Rank(candidates, doctors, criteria)
	require.Len(t, first, 3)
	assert.True(t, first[0].Date.Equal(monday))
	assert.Equal(t, "08:00", first[0].Start.String())
	assert.Equal(t, "09:00", first[1].Start.String())
	assert.True(t, first[2].Date.Equal(monday.AddDate(0, 0, 1)))

	// Shuffled input produces the identical order.
	shuffled := []model.Slot{candidates[1], candidates[2], candidates[0]}
	second := ranker.Rank(shuffled, doctors, criteria)
	assert.Equal(t, first, second)
}

func TestRankTruncatesToTopN(t *testing.T) {
	doctors, preferred, _ := rankFixture()
	ranker := scheduling.NewRanker(scheduling.DefaultRankWeights(), 3)

	var candidates []model.Slot
	for i := 0; i < 10; i++ {
		candidates = append(candidates, model.Slot{
			DoctorID: preferred.ID,
			Date:     monday.AddDate(0, 0, i),
			Start:    tod("08:00"),
		})
	}

	ranked := ranker.Rank(candidates, doctors, scheduling.RankCriteria{Urgency: 1})
	assert.Len(t, ranked, 3)
}

func TestRankFallbackReason(t *testing.T) {
	doctors, _, other := rankFixture()
	ranker := scheduling.NewRanker(scheduling.DefaultRankWeights(), 5)

	ranked := ranker.Rank([]model.Slot{
		{DoctorID: other.ID, Date: monday, Start: tod("08:00")},
	}, doctors, scheduling.RankCriteria{Urgency: 2, RequestedSpecialty: "Cardiology"})

	require.Len(t, ranked, 1)
	assert.Equal(t, "Available 2025-01-06 at 08:00", ranked[0].Reason)
}

func TestRankSkipsUnknownDoctors(t *testing.T) {
	doctors, preferred, _ := rankFixture()
	ranker := scheduling.NewRanker(scheduling.DefaultRankWeights(), 5)

	ranked := ranker.Rank([]model.Slot{
		{DoctorID: uuid.New(), Date: monday, Start: tod("08:00")},
		{DoctorID: preferred.ID, Date: monday, Start: tod("09:00")},
	}, doctors, scheduling.RankCriteria{Urgency: 2})

	require.Len(t, ranked, 1)
	assert.Equal(t, preferred.ID, ranked[0].DoctorID)
}
