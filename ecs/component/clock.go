package component

import "image/color"

// MakeClock asks the clock system to turn the entity into a clock face.
type MakeClock struct {
	Seconds    float64
	Width      float64
	Height     float64
	FontSize   float64
	Color      color.Color
	Background color.Color
}

var MakeClockComponent = NewComponent[MakeClock]()

// Clock counts down Duration seconds. Elapsed restarts whenever time is
// added.
type Clock struct {
	Duration float64
	Elapsed  float64
	Finished bool
}

// Remaining returns the seconds left, never below zero.
func (c Clock) Remaining() float64 {
	r := c.Duration - c.Elapsed
	if r < 0 {
		return 0
	}
	return r
}

var ClockComponent = NewComponent[Clock]()

// ClockFace is put on the clock's backing entity and points at the Clock
// child.
type ClockFace struct {
	Clock uint64
}

var ClockFaceComponent = NewComponent[ClockFace]()

type Text struct {
	Value string
	Size  float64
	Color color.Color
}

var TextComponent = NewComponent[Text]()

// AddTime is queued as an ecs event of type EventAddTime.
type AddTime struct {
	Seconds float64
}

// ClockFinished is fired globally when a clock reaches zero.
type ClockFinished struct {
	Clock uint64
}
