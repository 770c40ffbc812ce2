// Package model defines shared data structures.
package model

import "time"

// Config defines analysis settings after flags, config file and env are merged.
type Config struct {
	APIKey          string
	LogID           string
	BaseURL         string
	Timeout         time.Duration
	OnlyKill        bool
	WipeGracePeriod int
	OutputFile      string
}

// Fight is one entry of a report's fight list.
type Fight struct {
	ID        int
	Boss      int
	Name      string
	StartTime int64
	EndTime   int64
	Kill      bool
}

// Report is the parsed fight list of a log.
type Report struct {
	Fights  []Fight
	Players PlayerDirectory
}

// Attempt is the query window of one boss attempt after grace trimming.
type Attempt struct {
	FightID int
	Start   int64
	End     int64
	Kill    bool
}

// DamageEvent is a single damage-taken event. Timestamps are report milliseconds.
type DamageEvent struct {
	PlayerID  int
	Amount    int64
	Timestamp int64
}

// DebuffEventType distinguishes debuff lifecycle events.
type DebuffEventType string

const (
	DebuffApply  DebuffEventType = "applydebuff"
	DebuffRemove DebuffEventType = "removedebuff"
)

// DebuffEvent is one apply or remove of the tracked debuff.
type DebuffEvent struct {
	Type      DebuffEventType
	PlayerID  int
	Timestamp int64
}

// DebuffInterval is the span a player carries the debuff. A nil End means
// the interval is still open.
type DebuffInterval struct {
	PlayerID int
	Start    int64
	End      *int64
}

// Closed reports whether the interval has an end.
func (d DebuffInterval) Closed() bool {
	return d.End != nil
}

// Contains reports whether ts lies strictly inside a closed interval.
func (d DebuffInterval) Contains(ts int64) bool {
	return d.End != nil && d.Start < ts && ts < *d.End
}

// AttemptAggregate sums one player's friendly fire. Produced per attempt and
// reused as the running total entry.
type AttemptAggregate struct {
	PlayerID    int
	TotalDamage int64
	DebuffCount int
}

// RunningTotal accumulates aggregates across attempts keyed by player id.
type RunningTotal map[int]AttemptAggregate

// PlayerDirectory maps player ids to display names.
type PlayerDirectory map[int]string

// PlayerTotal is a resolved report row.
type PlayerTotal struct {
	PlayerID    int
	Name        string
	DebuffCount int
	TotalDamage int64
	Healed      int64
}
