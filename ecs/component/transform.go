package component

// Transform places an entity on screen. Children with a Parent are offset
// from their parent's position.
type Transform struct {
	X        float64
	Y        float64
	ScaleX   float64
	ScaleY   float64
	Rotation float64
}

// Scale returns the uniform scale, treating an unset scale as 1.
func (t Transform) Scale() (float64, float64) {
	sx, sy := t.ScaleX, t.ScaleY
	if sx == 0 {
		sx = 1
	}
	if sy == 0 {
		sy = 1
	}
	return sx, sy
}

var TransformComponent = NewComponent[Transform]()

// Parent links an entity to the entity it follows.
type Parent struct {
	Entity uint64
}

var ParentComponent = NewComponent[Parent]()

type Name struct {
	Value string
}

var NameComponent = NewComponent[Name]()
