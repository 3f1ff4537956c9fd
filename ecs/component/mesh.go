package component

import "image/color"

const (
	MeshCube       = "cube"
	MeshOctahedron = "octahedron"
	MeshPyramid    = "pyramid"
)

// Mesh3D is a flat shaded primitive spinning in place.
type Mesh3D struct {
	Primitive string
	Size      float64
	Color     color.Color
	SpinX     float64
	SpinY     float64
	SpinZ     float64
	AngleX    float64
	AngleY    float64
	AngleZ    float64
}

var Mesh3DComponent = NewComponent[Mesh3D]()

// Material draws the entity's sprite through a named shader.
type Material struct {
	Shader    string
	Intensity float64
}

var MaterialComponent = NewComponent[Material]()
