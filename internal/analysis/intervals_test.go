package analysis

import (
	"errors"
	"testing"

	"github.com/verte-zerg/vezaxff/internal/model"
)

func apply(player int, ts int64) model.DebuffEvent {
	return model.DebuffEvent{Type: model.DebuffApply, PlayerID: player, Timestamp: ts}
}

func remove(player int, ts int64) model.DebuffEvent {
	return model.DebuffEvent{Type: model.DebuffRemove, PlayerID: player, Timestamp: ts}
}

func TestBuildIntervalsAddsBuffer(t *testing.T) {
	intervals, err := BuildIntervals([]model.DebuffEvent{apply(7, 100), remove(7, 200)})
	if err != nil {
		t.Fatalf("BuildIntervals failed: %v", err)
	}
	if len(intervals) != 1 {
		t.Fatalf("expected 1 interval, got %d", len(intervals))
	}
	iv := intervals[0]
	if iv.PlayerID != 7 || iv.Start != 100 || iv.End == nil || *iv.End != 3200 {
		t.Fatalf("unexpected interval: %+v", iv)
	}
}

func TestBuildIntervalsWellFormedPairs(t *testing.T) {
	var events []model.DebuffEvent
	const pairs = 12
	for i := 0; i < pairs; i++ {
		start := int64(i) * 10000
		events = append(events, apply(i%4, start), remove(i%4, start+int64(i)*100))
	}

	intervals, err := BuildIntervals(events)
	if err != nil {
		t.Fatalf("BuildIntervals failed: %v", err)
	}
	if len(intervals) != pairs {
		t.Fatalf("expected %d intervals, got %d", pairs, len(intervals))
	}
	for i, iv := range intervals {
		if !iv.Closed() {
			t.Fatalf("interval %d left open", i)
		}
		if *iv.End-iv.Start < IntervalBuffer {
			t.Fatalf("interval %d shorter than buffer: %+v", i, iv)
		}
	}
}

func TestBuildIntervalsClosesSamePlayer(t *testing.T) {
	// Player 7's mark is still up when player 9 gets one.
	events := []model.DebuffEvent{
		apply(7, 1000),
		apply(9, 1500),
		remove(7, 2000),
		remove(9, 2500),
	}
	intervals, err := BuildIntervals(events)
	if err != nil {
		t.Fatalf("BuildIntervals failed: %v", err)
	}
	if intervals[0].PlayerID != 7 || *intervals[0].End != 5000 {
		t.Fatalf("unexpected first interval: %+v end=%d", intervals[0], *intervals[0].End)
	}
	if intervals[1].PlayerID != 9 || *intervals[1].End != 5500 {
		t.Fatalf("unexpected second interval: %+v end=%d", intervals[1], *intervals[1].End)
	}
}

func TestBuildIntervalsMalformed(t *testing.T) {
	tests := []struct {
		name   string
		events []model.DebuffEvent
		want   error
	}{
		{"remove without apply", []model.DebuffEvent{remove(7, 100)}, ErrMalformedStream},
		{"remove for other player", []model.DebuffEvent{apply(7, 100), remove(9, 200)}, ErrMalformedStream},
		{"double apply", []model.DebuffEvent{apply(7, 100), apply(7, 150)}, ErrMalformedStream},
		{"unknown type", []model.DebuffEvent{{Type: "refreshdebuff", PlayerID: 7}}, ErrMalformedStream},
		{"dangling apply", []model.DebuffEvent{apply(7, 100), remove(7, 200), apply(9, 300)}, ErrUnclosedInterval},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildIntervals(tt.events)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestBuildIntervalsWindowEndClosesDangling(t *testing.T) {
	intervals, err := BuildIntervals([]model.DebuffEvent{apply(7, 100), remove(7, 200), apply(9, 50000)}, WithWindowEnd(52000))
	if err != nil {
		t.Fatalf("BuildIntervals failed: %v", err)
	}
	if len(intervals) != 2 {
		t.Fatalf("expected 2 intervals, got %d", len(intervals))
	}
	if *intervals[0].End != 3200 {
		t.Fatalf("paired interval should keep buffered end, got %d", *intervals[0].End)
	}
	if *intervals[1].End != 52000 {
		t.Fatalf("dangling interval should end at window end, got %d", *intervals[1].End)
	}
}

func TestBuildIntervalsEmpty(t *testing.T) {
	intervals, err := BuildIntervals(nil)
	if err != nil {
		t.Fatalf("BuildIntervals failed: %v", err)
	}
	if len(intervals) != 0 {
		t.Fatalf("expected no intervals, got %d", len(intervals))
	}
}
