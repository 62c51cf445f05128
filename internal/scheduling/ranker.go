package scheduling

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/medagenda/scheduling-api/internal/model"
)

// RankWeights are the fixed coefficients of the suggestion score. They
// mirror the original clinic system's constants; proximity in particular
// is a flat earliest-bias placeholder, not a measured distance.
type RankWeights struct {
	Urgency      float64 `mapstructure:"urgency"`
	DoctorPref   float64 `mapstructure:"doctor_preference"`
	Proximity    float64 `mapstructure:"proximity"`
	Availability float64 `mapstructure:"availability"`
	Specialty    float64 `mapstructure:"specialty_match"`
}

// DefaultRankWeights matches the original scoring formula.
func DefaultRankWeights() RankWeights {
	return RankWeights{
		Urgency:      0.3,
		DoctorPref:   0.2,
		Proximity:    0.1,
		Availability: 0.2,
		Specialty:    0.2,
	}
}

const (
	proximityPlaceholder = 0.3
	nonPreferredDoctor   = 0.2
	specialtyMismatch    = 0.5

	urgencyReasonThreshold = 0.8
)

// RankCriteria is the caller's preference vector for one suggestion call.
type RankCriteria struct {
	Urgency            int
	PreferredDoctorID  uuid.UUID
	RequestedSpecialty string
}

// Ranker orders candidate slots by a weighted score, deterministically.
type Ranker struct {
	weights RankWeights
	topN    int
}

func NewRanker(weights RankWeights, topN int) *Ranker {
	if topN <= 0 {
		topN = 5
	}
	return &Ranker{weights: weights, topN: topN}
}

// Rank scores the candidates and returns the top-N by descending score,
// ties broken by earliest date then earliest start. doctors maps each
// candidate's doctor to its record for specialty comparison.
func (r *Ranker) Rank(candidates []model.Slot, doctors map[uuid.UUID]*model.Doctor, criteria RankCriteria) []model.ScoredSlot {
	scored := make([]model.ScoredSlot, 0, len(candidates))
	for _, slot := range candidates {
		doctor := doctors[slot.DoctorID]
		if doctor == nil {
			continue
		}
		score, reason := r.score(slot, doctor, criteria)
		scored = append(scored, model.ScoredSlot{Slot: slot, Score: score, Reason: reason})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		if !scored[i].Date.Equal(scored[j].Date) {
			return scored[i].Date.Before(scored[j].Date)
		}
		return scored[i].Start < scored[j].Start
	})

	if len(scored) > r.topN {
		scored = scored[:r.topN]
	}
	return scored
}

func (r *Ranker) score(slot model.Slot, doctor *model.Doctor, criteria RankCriteria) (float64, string) {
	urgencyNorm := float64(criteria.Urgency) / 5.0

	doctorPref := nonPreferredDoctor
	if criteria.PreferredDoctorID != uuid.Nil && doctor.ID == criteria.PreferredDoctorID {
		doctorPref = 1.0
	}

	specialtyMatch := specialtyMismatch
	if strings.EqualFold(doctor.Specialty, criteria.RequestedSpecialty) {
		specialtyMatch = 1.0
	}

	// Candidates are pre-filtered to free slots, so availability is full.
	availability := 1.0
	proximity := proximityPlaceholder

	score := r.weights.Urgency*urgencyNorm +
		r.weights.DoctorPref*doctorPref +
		r.weights.Proximity*proximity +
		r.weights.Availability*availability +
		r.weights.Specialty*specialtyMatch

	return score, buildReason(urgencyNorm, doctorPref, specialtyMatch, slot)
}

func buildReason(urgencyNorm, doctorPref, specialtyMatch float64, slot model.Slot) string {
	var parts []string
	if urgencyNorm >= urgencyReasonThreshold {
		parts = append(parts, "High urgency")
	}
	if doctorPref == 1.0 {
		parts = append(parts, "Preferred doctor")
	}
	if specialtyMatch == 1.0 {
		parts = append(parts, "Specialty match")
	}
	if len(parts) == 0 {
		return fmt.Sprintf("Available %s at %s", slot.Date.Format("2006-01-02"), slot.Start)
	}
	return strings.Join(parts, ", ")
}
