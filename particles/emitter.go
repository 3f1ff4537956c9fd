package particles

import (
	"math"
	"math/rand/v2"
)

// Particle is the simulated state of one particle plus the values derived
// for rendering on the last update.
type Particle struct {
	Pos      Vec2
	Vel      Vec2
	Age      float64
	Lifetime float64

	// Base is the color the lifetime gradient modulates; Carry is handed to
	// child effects through emit events.
	Base  [4]float64
	Carry [4]float64

	Color    [4]float64
	SizeX    float64
	SizeY    float64
	Rotation float64
}

// SpawnEvent asks an effect to spawn Count particles that may inherit the
// emitting particle's position and color.
type SpawnEvent struct {
	Pos   Vec2
	Vel   Vec2
	Color [4]float64
	Count int
}

// Emitter simulates one effect instance over a fixed particle pool. Spawns
// beyond the pool capacity are dropped.
type Emitter struct {
	asset *EffectAsset
	pool  []Particle
	alive int

	active  bool
	fired   bool
	nextIn  float64
	origin  Vec2
	pending []SpawnEvent

	children map[int]*Emitter
	rng      *rand.Rand

	spawned uint64
	dropped uint64
}

// NewEmitter creates an inactive emitter for asset. The seed makes the
// simulation reproducible.
func NewEmitter(asset *EffectAsset, seed uint64) *Emitter {
	e := &Emitter{
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		children: make(map[int]*Emitter),
	}
	e.SetAsset(asset)
	return e
}

// SetAsset swaps the effect description, keeping live particles that still
// fit in the new capacity.
func (e *Emitter) SetAsset(asset *EffectAsset) {
	e.asset = asset
	capacity := 128
	if asset != nil && asset.Capacity > 0 {
		capacity = asset.Capacity
	}
	if capacity == len(e.pool) {
		return
	}
	pool := make([]Particle, capacity)
	if e.alive > capacity {
		e.alive = capacity
	}
	copy(pool, e.pool[:e.alive])
	e.pool = pool
}

func (e *Emitter) Asset() *EffectAsset { return e.asset }

// SetOrigin moves the point new particles are spawned around.
func (e *Emitter) SetOrigin(p Vec2) { e.origin = p }

func (e *Emitter) Origin() Vec2 { return e.origin }

// Activate starts spawning. A burst spawner fires again on every activation.
func (e *Emitter) Activate() {
	e.active = true
	e.fired = false
}

// Deactivate stops spawning; live particles finish their lifetime.
func (e *Emitter) Deactivate() { e.active = false }

func (e *Emitter) Active() bool { return e.active }

// Reset kills every particle and drops queued spawn events.
func (e *Emitter) Reset() {
	e.alive = 0
	e.pending = nil
	e.fired = false
	e.nextIn = 0
}

// AddChild routes emit modifiers for channel to child.
func (e *Emitter) AddChild(channel int, child *Emitter) {
	if child == nil || child == e {
		return
	}
	e.children[channel] = child
}

// Child returns the emitter attached to channel.
func (e *Emitter) Child(channel int) *Emitter { return e.children[channel] }

// Enqueue queues a spawn event for the next update.
func (e *Emitter) Enqueue(ev SpawnEvent) {
	if ev.Count <= 0 {
		return
	}
	e.pending = append(e.pending, ev)
}

// Particles returns the live particles. The slice is only valid until the
// next Update.
func (e *Emitter) Particles() []Particle { return e.pool[:e.alive] }

func (e *Emitter) AliveCount() int { return e.alive }

func (e *Emitter) Capacity() int { return len(e.pool) }

// Stats returns the number of spawned and dropped particles so far.
func (e *Emitter) Stats() (spawned, dropped uint64) { return e.spawned, e.dropped }

// Idle reports whether the emitter has nothing left to simulate.
func (e *Emitter) Idle() bool {
	return !e.active && e.alive == 0 && len(e.pending) == 0
}

// Update advances the simulation by dt seconds: queued spawn events are
// consumed first, then live particles age and move, then the emitter's own
// spawner runs.
func (e *Emitter) Update(dt float64) {
	if e.asset == nil || dt < 0 {
		return
	}

	pending := e.pending
	e.pending = nil
	for _, ev := range pending {
		for i := 0; i < ev.Count; i++ {
			e.spawn(&ev)
		}
	}

	e.simulate(dt)

	if !e.active {
		return
	}
	sp := e.asset.Spawner
	if sp.Once > 0 && !e.fired {
		e.fired = true
		for i := 0; i < sp.Once; i++ {
			e.spawn(nil)
		}
	}
	if sp.Rate.Max > 0 {
		e.nextIn -= dt
		for e.nextIn <= 0 {
			e.spawn(nil)
			rate := sp.Rate.Sample(e.rng)
			if rate <= 0 {
				rate = sp.Rate.Max
			}
			e.nextIn += 1 / rate
		}
	}
}

func (e *Emitter) simulate(dt float64) {
	up := e.asset.Update
	i := 0
	for i < e.alive {
		p := &e.pool[i]
		p.Age += dt
		if p.Age >= p.Lifetime {
			e.emit(p, EmitOnDie)
			e.alive--
			e.pool[i] = e.pool[e.alive]
			continue
		}

		if up.Accel != nil {
			p.Vel = p.Vel.Add(up.Accel.Scale(dt))
		}
		if up.LinearDrag > 0 {
			p.Vel = p.Vel.Scale(math.Max(0, 1-up.LinearDrag*dt))
		}
		p.Pos = p.Pos.Add(p.Vel.Scale(dt))

		e.emit(p, EmitAlways)
		e.shade(p)
		i++
	}
}

func (e *Emitter) emit(p *Particle, cond EmitCondition) {
	for _, spec := range e.asset.Update.Emit {
		if spec.Condition != cond {
			continue
		}
		child := e.children[spec.Child]
		if child == nil {
			continue
		}
		child.Enqueue(SpawnEvent{Pos: p.Pos, Vel: p.Vel, Color: p.Carry, Count: spec.Count})
	}
}

func (e *Emitter) spawn(ev *SpawnEvent) {
	if e.alive >= len(e.pool) {
		e.dropped++
		return
	}
	init := e.asset.Init
	base := e.origin
	if ev != nil && init.InheritPosition {
		base = ev.Pos
	}

	p := Particle{
		Pos:  base,
		Base: [4]float64{1, 1, 1, 1},
	}
	if ev != nil && init.InheritColor {
		p.Base = ev.Color
	}

	center := base
	if c := init.PositionCircle; c != nil {
		center = base.Add(c.Center)
		p.Pos = center.Add(e.circleOffset(c))
	}
	if s := init.PositionSphere; s != nil {
		center = base.Add(s.Center)
		p.Pos = center.Add(e.sphereOffset(s))
	}

	if v := init.VelocityCircle; v != nil {
		p.Vel = e.radial(p.Pos, base.Add(v.Center), v.Speed)
	}
	if v := init.VelocitySphere; v != nil {
		p.Vel = e.radial(p.Pos, base.Add(v.Center), v.Speed)
	}
	if v := init.Velocity; v != nil {
		scale := v.Scale
		if scale == 0 {
			scale = 1
		}
		p.Vel = Vec2{X: v.X.Sample(e.rng), Y: v.Y.Sample(e.rng)}.Scale(scale)
	}
	if v := init.VelocityRandom; v != nil {
		scale := v.Scale
		if scale == 0 {
			scale = 1
		}
		p.Vel = randomDir3(e.rng).Scale(v.Speed.Sample(e.rng) * scale)
	}

	p.Lifetime = init.Lifetime.Sample(e.rng)
	if p.Lifetime <= 0 {
		p.Lifetime = 1
	}
	p.SizeX, p.SizeY = init.Size, init.Size
	if c := init.ColorRandom; c != nil {
		for ch := 0; ch < 3; ch++ {
			p.Carry[ch] = c.Min + e.rng.Float64()*(c.Max-c.Min)
		}
		p.Carry[3] = 1
	}

	e.shade(&p)
	e.pool[e.alive] = p
	e.alive++
	e.spawned++
}

func (e *Emitter) circleOffset(c *PositionCircle) Vec2 {
	r := c.Radius
	if c.Dimension == DimensionVolume {
		r *= math.Sqrt(e.rng.Float64())
	}
	a := e.rng.Float64() * 2 * math.Pi
	switch c.Axis {
	case "y":
		// The circle lies in the ground plane and projects onto a horizontal line.
		return Vec2{X: r * math.Cos(a)}
	case "x":
		return Vec2{Y: r * math.Sin(a)}
	default:
		return fromAngle(a, r)
	}
}

func (e *Emitter) sphereOffset(s *PositionSphere) Vec2 {
	r := s.Radius
	if s.Dimension == DimensionVolume {
		r *= math.Cbrt(e.rng.Float64())
	}
	return randomDir3(e.rng).Scale(r)
}

func (e *Emitter) radial(pos, center Vec2, speed Range) Vec2 {
	dir := pos.Sub(center).Normalized()
	if dir == (Vec2{}) {
		dir = randomDir2(e.rng)
	}
	return dir.Scale(speed.Sample(e.rng))
}

// shade derives render values from the particle's age.
func (e *Emitter) shade(p *Particle) {
	t := 0.0
	if p.Lifetime > 0 {
		t = p.Age / p.Lifetime
	}
	r := e.asset.Render

	p.Color = p.Base
	if c := r.ColorOverLifetime; c != nil {
		g := c.Sample(t)
		if c.Blend == ColorBlendOverwrite {
			p.Color = g
		} else {
			for ch := range p.Color {
				p.Color[ch] = p.Base[ch] * g[ch]
			}
		}
	}

	if s := r.SizeOverLifetime; s != nil {
		v := s.Sample(t)
		p.SizeX, p.SizeY = v[0], v[1]
	}

	if r.Orient == "along_velocity" {
		p.Rotation = p.Vel.Angle()
	}
}
