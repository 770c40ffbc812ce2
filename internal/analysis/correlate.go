package analysis

import (
	"fmt"

	"github.com/verte-zerg/vezaxff/internal/model"
)

// Correlate sums, for every interval, the damage strictly inside it and
// attributes the sum to the interval's holder. Damage events are not matched
// by player: the stream holds the players hit by the holder's mark.
func Correlate(intervals []model.DebuffInterval, damage []model.DamageEvent) ([]model.AttemptAggregate, error) {
	aggs := make([]model.AttemptAggregate, 0)
	index := make(map[int]int)
	for _, iv := range intervals {
		if !iv.Closed() {
			return nil, fmt.Errorf("%w: player %d applied at %d", ErrUnclosedInterval, iv.PlayerID, iv.Start)
		}
		var sum int64
		for _, ev := range damage {
			if iv.Contains(ev.Timestamp) {
				sum += ev.Amount
			}
		}
		idx, ok := index[iv.PlayerID]
		if !ok {
			idx = len(aggs)
			index[iv.PlayerID] = idx
			aggs = append(aggs, model.AttemptAggregate{PlayerID: iv.PlayerID})
		}
		aggs[idx].TotalDamage += sum
		aggs[idx].DebuffCount++
	}
	return aggs, nil
}
