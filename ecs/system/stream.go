package system

import (
	"encoding/json"
	"log"
	"math"
	"time"

	"github.com/milk9111/overlay/donation"
	"github.com/milk9111/overlay/ecs"
	"github.com/milk9111/overlay/ecs/component"
	"github.com/milk9111/overlay/relay"
	"github.com/milk9111/overlay/twitch"
)

// maxPollPerFrame bounds how many relayed items one frame handles.
const maxPollPerFrame = 32

// StreamSystem drains the Twitch and donation relays once per frame. Session
// lifecycle events update the StreamStatus singleton; notifications and
// donations are queued as EventStream for the reaction system.
type StreamSystem struct {
	twitch    *relay.Relay[twitch.Event]
	donations *relay.Relay[donation.Donation]
}

func NewStreamSystem(tw *relay.Relay[twitch.Event], dn *relay.Relay[donation.Donation]) *StreamSystem {
	return &StreamSystem{twitch: tw, donations: dn}
}

func (s *StreamSystem) Update(w *ecs.World) {
	if s == nil || w == nil {
		return
	}
	_, status := singleton(w, component.StreamStatusComponent.Kind())

	if s.twitch != nil {
		for _, env := range s.twitch.Poll(maxPollPerFrame) {
			switch ev := env.Payload.(type) {
			case twitch.Ready:
				status.Connected = true
				status.Login = ev.Login
				status.LastError = ""
				log.Printf("twitch: connected as %s", ev.Login)
			case twitch.Finished:
				status.Connected = false
				if ev.Err != nil {
					status.LastError = ev.Err.Error()
					log.Printf("twitch: session ended: %v", ev.Err)
				}
			case twitch.Revoked:
				status.LastError = "revoked " + string(ev.Type) + ": " + ev.Status
			case nil:
			default:
				pushStream(w, status, env.ID.String(), env.Source, env.Received, ev.EventType(), ev)
			}
		}
	}

	if s.donations != nil {
		for _, env := range s.donations.Poll(maxPollPerFrame) {
			pushStream(w, status, env.ID.String(), env.Source, env.Received, env.Payload.EventType(), env.Payload)
		}
	}
}

func pushStream(w *ecs.World, status *component.StreamStatus, id, source string, received time.Time, typ string, payload any) {
	status.Events++
	w.Events().Push(ecs.Event{
		Type: component.EventStream,
		Data: component.StreamEvent{
			ID:       id,
			Source:   source,
			Type:     typ,
			Received: received,
			Fields:   EventFields(payload),
		},
	})
}

// EventFields flattens a payload into the map scripts see, using its json
// field names. Whole numbers become ints so scripts can do integer math.
func EventFields(payload any) map[string]any {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("stream: encode %T: %v", payload, err)
		return map[string]any{}
	}
	fields := map[string]any{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return map[string]any{}
	}
	return wholeNumbers(fields).(map[string]any)
}

func wholeNumbers(v any) any {
	switch t := v.(type) {
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1<<53 {
			return int64(t)
		}
		return t
	case map[string]any:
		for k, item := range t {
			t[k] = wholeNumbers(item)
		}
		return t
	case []any:
		for i, item := range t {
			t[i] = wholeNumbers(item)
		}
		return t
	default:
		return v
	}
}
