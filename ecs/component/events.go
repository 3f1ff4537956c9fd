package component

// Event types carried on the world event queue.
const (
	EventAddTime         = "add_time"
	EventCreateFireworks = "create_fireworks"
	EventClickBurst      = "click_burst"
	EventPlaySound       = "play_sound"
	// EventStream carries a StreamEvent from the Twitch or donation relay.
	EventStream = "stream"
)
