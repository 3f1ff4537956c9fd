package component

import "github.com/hajimehoshi/ebiten/v2/audio"

// Audio holds the clips an entity can play, looked up by name.
type Audio struct {
	Names   []string
	Players []*audio.Player
	Volume  []float64
	Play    []bool
}

// Index returns the clip index for name, or -1.
func (a *Audio) Index(name string) int {
	for i, n := range a.Names {
		if n == name {
			return i
		}
	}
	return -1
}

var AudioComponent = NewComponent[Audio]()

// PlaySound is queued as an ecs event of type EventPlaySound.
type PlaySound struct {
	Name string
}
