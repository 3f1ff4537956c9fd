package component

import "time"

// StreamEvent is a relayed Twitch notification or donation flattened into
// script-friendly fields.
type StreamEvent struct {
	ID       string
	Source   string
	Type     string
	Received time.Time
	Fields   map[string]any
}
