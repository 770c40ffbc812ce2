package wcl

import (
	"fmt"

	"github.com/verte-zerg/vezaxff/internal/model"
)

// Payloads use pointer fields so a missing key can be told apart from a zero.

type fightsResponse struct {
	Fights     *[]fightJSON    `json:"fights"`
	Friendlies *[]friendlyJSON `json:"friendlies"`
}

type fightJSON struct {
	ID        *int    `json:"id"`
	Boss      *int    `json:"boss"`
	Name      *string `json:"name"`
	StartTime *int64  `json:"start_time"`
	EndTime   *int64  `json:"end_time"`
	Kill      *bool   `json:"kill"`
}

type friendlyJSON struct {
	ID   *int    `json:"id"`
	Name *string `json:"name"`
}

type eventsResponse struct {
	Events            *[]eventJSON `json:"events"`
	NextPageTimestamp *int64       `json:"nextPageTimestamp"`
}

type eventJSON struct {
	Type              *string `json:"type"`
	Timestamp         *int64  `json:"timestamp"`
	TargetID          *int    `json:"targetID"`
	UnmitigatedAmount *int64  `json:"unmitigatedAmount"`
}

type errorResponse struct {
	Status int    `json:"status"`
	Error  string `json:"error"`
}

func (r fightsResponse) toReport() (model.Report, error) {
	if r.Fights == nil {
		return model.Report{}, missingField("fights")
	}
	if r.Friendlies == nil {
		return model.Report{}, missingField("friendlies")
	}

	fights := make([]model.Fight, 0, len(*r.Fights))
	for i, f := range *r.Fights {
		path := fmt.Sprintf("fights[%d]", i)
		if f.Boss == nil {
			return model.Report{}, missingField(path + ".boss")
		}
		if f.Name == nil {
			return model.Report{}, missingField(path + ".name")
		}
		if f.StartTime == nil {
			return model.Report{}, missingField(path + ".start_time")
		}
		if f.EndTime == nil {
			return model.Report{}, missingField(path + ".end_time")
		}
		fight := model.Fight{
			Boss:      *f.Boss,
			Name:      *f.Name,
			StartTime: *f.StartTime,
			EndTime:   *f.EndTime,
		}
		if f.ID != nil {
			fight.ID = *f.ID
		}
		// Trash fights carry no kill flag.
		if fight.Boss != 0 {
			if f.Kill == nil {
				return model.Report{}, missingField(path + ".kill")
			}
			fight.Kill = *f.Kill
		}
		fights = append(fights, fight)
	}

	players := make(model.PlayerDirectory, len(*r.Friendlies))
	for i, p := range *r.Friendlies {
		path := fmt.Sprintf("friendlies[%d]", i)
		if p.ID == nil {
			return model.Report{}, missingField(path + ".id")
		}
		if p.Name == nil {
			return model.Report{}, missingField(path + ".name")
		}
		if _, dup := players[*p.ID]; dup {
			return model.Report{}, fmt.Errorf("%w: duplicate friendly id %d", ErrMalformedResponse, *p.ID)
		}
		players[*p.ID] = *p.Name
	}
	return model.Report{Fights: fights, Players: players}, nil
}

func damageEvents(events []eventJSON) ([]model.DamageEvent, error) {
	out := make([]model.DamageEvent, 0, len(events))
	for i, ev := range events {
		path := fmt.Sprintf("events[%d]", i)
		if ev.TargetID == nil {
			return nil, missingField(path + ".targetID")
		}
		if ev.UnmitigatedAmount == nil {
			return nil, missingField(path + ".unmitigatedAmount")
		}
		if ev.Timestamp == nil {
			return nil, missingField(path + ".timestamp")
		}
		out = append(out, model.DamageEvent{
			PlayerID:  *ev.TargetID,
			Amount:    *ev.UnmitigatedAmount,
			Timestamp: *ev.Timestamp,
		})
	}
	return out, nil
}

// debuffEvents keeps apply and remove events; refreshes and stacks are skipped.
func debuffEvents(events []eventJSON) ([]model.DebuffEvent, error) {
	out := make([]model.DebuffEvent, 0, len(events))
	for i, ev := range events {
		path := fmt.Sprintf("events[%d]", i)
		if ev.Type == nil {
			return nil, missingField(path + ".type")
		}
		kind := model.DebuffEventType(*ev.Type)
		if kind != model.DebuffApply && kind != model.DebuffRemove {
			continue
		}
		if ev.TargetID == nil {
			return nil, missingField(path + ".targetID")
		}
		if ev.Timestamp == nil {
			return nil, missingField(path + ".timestamp")
		}
		out = append(out, model.DebuffEvent{
			Type:      kind,
			PlayerID:  *ev.TargetID,
			Timestamp: *ev.Timestamp,
		})
	}
	return out, nil
}
