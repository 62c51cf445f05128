package scheduling

import (
	"context"
	"errors"
	"time"

	"github.com/medagenda/scheduling-api/internal/model"
)

// Finder enumerates free candidate slots by intersecting a doctor's
// working envelope with the complement of occupied intervals.
type Finder struct {
	calendar *Calendar
}

func NewFinder(calendar *Calendar) *Finder {
	return &Finder{calendar: calendar}
}

// Slots returns a lazy iterator over the doctor's free slots in
// [from, to]. Occupied intervals are fetched once on the first Next
// call; slot generation itself is pure walking, so callers can stop
// after any number of slots without paying for the whole window.
func (f *Finder) Slots(doctor *model.Doctor, from, to time.Time) *SlotIterator {
	return &SlotIterator{
		finder: f,
		doctor: doctor,
		day:    model.DateOnly(from),
		last:   model.DateOnly(to),
	}
}

// SlotIterator is a restartable, finite sequence of free slots.
// Not safe for concurrent use.
type SlotIterator struct {
	finder *Finder
	doctor *model.Doctor

	day  time.Time
	last time.Time

	loaded   bool
	occupied []model.Interval

	envelope *model.WorkingHours
	cursor   model.TimeOfDay
}

// Next returns the next free slot, or ok=false when the window is
// exhausted. Days without a configured envelope contribute zero slots.
func (it *SlotIterator) Next(ctx context.Context) (model.Slot, bool, error) {
	if !it.loaded {
		occupied, err := it.finder.calendar.OccupiedIntervals(ctx, it.doctor.ID, it.day, it.last)
		if err != nil {
			return model.Slot{}, false, err
		}
		it.occupied = occupied
		it.loaded = true
	}

	for !it.day.After(it.last) {
		if err := ctx.Err(); err != nil {
			return model.Slot{}, false, err
		}

		if it.envelope == nil {
			env, err := it.finder.calendar.WorkingEnvelope(ctx, it.doctor.ID, it.day.Weekday())
			if err != nil {
				if errors.Is(err, ErrNoEnvelope) {
					it.day = it.day.AddDate(0, 0, 1)
					continue
				}
				return model.Slot{}, false, err
			}
			it.envelope = env
			it.cursor = env.Start
		}

		duration := it.doctor.ConsultationDuration()
		step := it.doctor.SlotStep()

		for {
			start := it.cursor
			end := start.Add(duration)
			if !WithinEnvelope(start, end, it.envelope.Start, it.envelope.End) {
				break
			}
			it.cursor = start.Add(step)

			if it.envelope.HasLunchBreak() && Overlaps(start, end, *it.envelope.LunchStart, *it.envelope.LunchEnd) {
				continue
			}
			if OverlapsAny(it.day, start, end, it.occupied) {
				continue
			}

			return model.Slot{
				DoctorID: it.doctor.ID,
				Date:     it.day,
				Start:    start,
				End:      end,
				Price:    it.doctor.ConsultationPrice,
			}, true, nil
		}

		it.envelope = nil
		it.day = it.day.AddDate(0, 0, 1)
	}

	return model.Slot{}, false, nil
}

// Collect drains the iterator, stopping early at limit when limit > 0.
func (it *SlotIterator) Collect(ctx context.Context, limit int) ([]model.Slot, error) {
	var slots []model.Slot
	for {
		slot, ok, err := it.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return slots, nil
		}
		slots = append(slots, slot)
		if limit > 0 && len(slots) >= limit {
			return slots, nil
		}
	}
}
