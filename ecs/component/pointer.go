package component

// Pointer events are fired at the topmost pickable entity under the cursor.

type PointerOver struct{}

type PointerOut struct{}

type PointerPressed struct {
	X float64
	Y float64
}

type PointerReleased struct {
	X float64
	Y float64
}

type DragStart struct {
	X float64
	Y float64
}

// Drag carries the pointer movement since the previous frame.
type Drag struct {
	DX float64
	DY float64
}

// DragEnd carries the pointer velocity, in pixels per second, at release.
type DragEnd struct {
	VX float64
	VY float64
}
