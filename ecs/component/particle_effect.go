package component

import "github.com/milk9111/overlay/particles"

// ParticleEffect binds an entity to an emitter simulating the named asset.
// Child effects name their parent entity and the emit channel they listen
// on. Active only applies when the emitter is built.
type ParticleEffect struct {
	Asset   string
	Emitter *particles.Emitter
	Parent  uint64
	Channel int
	Active  bool
}

var ParticleEffectComponent = NewComponent[ParticleEffect]()

// CreateFireworks is queued as an ecs event of type EventCreateFireworks.
type CreateFireworks struct {
	Seconds float64
}

// ClickBurst is queued as an ecs event of type EventClickBurst.
type ClickBurst struct {
	X float64
	Y float64
}
