// Package analysis correlates debuff windows with damage events and merges
// per-attempt results.
package analysis

import (
	"fmt"

	"github.com/verte-zerg/vezaxff/internal/model"
)

// IntervalBuffer is added to every remove timestamp. Damage has travel time
// and can land after the debuff drops; marks are ~10s apart so buffered
// windows do not overlap.
const IntervalBuffer int64 = 3000

type intervalOptions struct {
	windowEnd *int64
}

// IntervalOption configures BuildIntervals.
type IntervalOption func(*intervalOptions)

// WithWindowEnd closes intervals still open at the end of the stream at end.
// Without it a dangling apply is an error.
func WithWindowEnd(end int64) IntervalOption {
	return func(o *intervalOptions) {
		o.windowEnd = &end
	}
}

// BuildIntervals pairs apply and remove events per player. Intervals are
// returned in apply order.
func BuildIntervals(events []model.DebuffEvent, opts ...IntervalOption) ([]model.DebuffInterval, error) {
	var o intervalOptions
	for _, opt := range opts {
		opt(&o)
	}

	intervals := make([]model.DebuffInterval, 0, len(events)/2)
	open := make(map[int]int)
	for i, ev := range events {
		switch ev.Type {
		case model.DebuffApply:
			if idx, ok := open[ev.PlayerID]; ok {
				return nil, fmt.Errorf("%w: event %d: apply for player %d at %d while interval from %d is open",
					ErrMalformedStream, i, ev.PlayerID, ev.Timestamp, intervals[idx].Start)
			}
			open[ev.PlayerID] = len(intervals)
			intervals = append(intervals, model.DebuffInterval{PlayerID: ev.PlayerID, Start: ev.Timestamp})
		case model.DebuffRemove:
			idx, ok := open[ev.PlayerID]
			if !ok {
				return nil, fmt.Errorf("%w: event %d: remove for player %d at %d without apply",
					ErrMalformedStream, i, ev.PlayerID, ev.Timestamp)
			}
			end := ev.Timestamp + IntervalBuffer
			intervals[idx].End = &end
			delete(open, ev.PlayerID)
		default:
			return nil, fmt.Errorf("%w: event %d: unknown type %q", ErrMalformedStream, i, ev.Type)
		}
	}

	if len(open) == 0 {
		return intervals, nil
	}
	if o.windowEnd == nil {
		first := len(intervals)
		for _, idx := range open {
			first = min(first, idx)
		}
		return nil, fmt.Errorf("%w: player %d applied at %d", ErrUnclosedInterval,
			intervals[first].PlayerID, intervals[first].Start)
	}
	for _, idx := range open {
		end := *o.windowEnd
		intervals[idx].End = &end
	}
	return intervals, nil
}
