package analysis

import "github.com/verte-zerg/vezaxff/internal/model"

// Merge returns a new running total with attempt folded into total. total is
// not modified.
func Merge(total model.RunningTotal, attempt []model.AttemptAggregate) model.RunningTotal {
	out := make(model.RunningTotal, len(total)+len(attempt))
	for id, agg := range total {
		out[id] = agg
	}
	for _, agg := range attempt {
		cur, ok := out[agg.PlayerID]
		if !ok {
			out[agg.PlayerID] = agg
			continue
		}
		cur.TotalDamage += agg.TotalDamage
		cur.DebuffCount += agg.DebuffCount
		out[agg.PlayerID] = cur
	}
	return out
}

// MergeAll folds every attempt into an empty total.
func MergeAll(attempts [][]model.AttemptAggregate) model.RunningTotal {
	total := model.RunningTotal{}
	for _, attempt := range attempts {
		total = Merge(total, attempt)
	}
	return total
}
