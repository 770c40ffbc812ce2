package analysis

import "github.com/verte-zerg/vezaxff/internal/model"

// EncounterName is the only boss analyzed.
const EncounterName = "General Vezax"

// IsEncounter reports whether f is a boss fight against EncounterName.
func IsEncounter(f model.Fight) bool {
	return f.Boss != 0 && f.Name == EncounterName
}

// SelectAttempts returns the query windows to analyze in fight order. Wipes
// are dropped when onlyKill is set, otherwise gracePeriod seconds are trimmed
// from their end. A wipe trimmed to nothing is dropped.
func SelectAttempts(fights []model.Fight, onlyKill bool, gracePeriod int) []model.Attempt {
	attempts := make([]model.Attempt, 0)
	for _, f := range fights {
		if !IsEncounter(f) {
			continue
		}
		end := f.EndTime
		if !f.Kill {
			if onlyKill {
				continue
			}
			end -= int64(gracePeriod) * 1000
			if end <= f.StartTime {
				continue
			}
		}
		attempts = append(attempts, model.Attempt{
			FightID: f.ID,
			Start:   f.StartTime,
			End:     end,
			Kill:    f.Kill,
		})
	}
	return attempts
}
