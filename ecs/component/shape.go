package component

import "image/color"

const (
	ShapeRect    = "rect"
	ShapePolygon = "polygon"
	ShapeStar    = "star"
)

// Shape is a vector-drawn decoration centered on the entity's transform.
// Rect uses Width and Height; polygon and star use Sides and Radius, with
// InnerRadius for the star's inner points.
type Shape struct {
	Kind        string
	Width       float64
	Height      float64
	Sides       int
	Radius      float64
	InnerRadius float64
	Color       color.Color
	Stroke      float64
}

var ShapeComponent = NewComponent[Shape]()
