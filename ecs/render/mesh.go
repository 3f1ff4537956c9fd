package render

import (
	"math"
	"sort"
)

// ViewDistance is the camera distance used for perspective projection. The
// camera sits at z = -ViewDistance looking down +z.
const ViewDistance = 4.0

// Vec3 is a point or direction in mesh space (y up).
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3      { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3      { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }
func (v Vec3) Dot(o Vec3) float64   { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

func (v Vec3) Normalized() Vec3 {
	l := math.Sqrt(v.Dot(v))
	if l == 0 {
		return v
	}
	return v.Scale(1 / l)
}

// Triangle is wound so that its normal points away from the mesh center.
type Triangle [3]Vec3

func (t Triangle) Normal() Vec3 {
	return t[1].Sub(t[0]).Cross(t[2].Sub(t[0])).Normalized()
}

func (t Triangle) Centroid() Vec3 {
	return t[0].Add(t[1]).Add(t[2]).Scale(1.0 / 3.0)
}

// Light is the direction light travels in.
var Light = Vec3{0.4, -0.6, 1}.Normalized()

const (
	ambient = 0.35
	diffuse = 0.65
)

// ProjectedTriangle is a visible face in screen units relative to the mesh
// center, with y pointing down.
type ProjectedTriangle struct {
	Points [3][2]float64
	Shade  float64
	Depth  float64
}

var primitives = map[string][]Triangle{}

func init() {
	primitives["cube"] = cube()
	primitives["octahedron"] = octahedron()
	primitives["pyramid"] = pyramid()
}

// Primitive returns the unit-sized triangles of a built-in mesh.
func Primitive(name string) ([]Triangle, bool) {
	tris, ok := primitives[name]
	return tris, ok
}

// PrimitiveNames lists the built-in meshes in sorted order.
func PrimitiveNames() []string {
	names := make([]string, 0, len(primitives))
	for name := range primitives {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Project rotates tris by the Euler angles (x, then y, then z), drops faces
// turned away from the camera, shades the rest and returns them sorted far
// to near. size scales the unit mesh to screen units.
func Project(tris []Triangle, size, ax, ay, az float64) []ProjectedTriangle {
	camera := Vec3{0, 0, -ViewDistance}
	out := make([]ProjectedTriangle, 0, len(tris))
	for _, tri := range tris {
		var r Triangle
		for i, v := range tri {
			r[i] = rotate(v, ax, ay, az)
		}
		n := r.Normal()
		c := r.Centroid()
		if n.Dot(camera.Sub(c)) <= 0 {
			continue
		}

		var p ProjectedTriangle
		for i, v := range r {
			f := ViewDistance / (v.Z + ViewDistance)
			p.Points[i] = [2]float64{v.X * f * size, -v.Y * f * size}
		}
		p.Shade = ambient + diffuse*math.Max(0, n.Dot(Light.Scale(-1)))
		p.Depth = c.Z
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Depth > out[j].Depth
	})
	return out
}

func rotate(v Vec3, ax, ay, az float64) Vec3 {
	s, c := math.Sincos(ax)
	v = Vec3{v.X, v.Y*c - v.Z*s, v.Y*s + v.Z*c}
	s, c = math.Sincos(ay)
	v = Vec3{v.X*c + v.Z*s, v.Y, -v.X*s + v.Z*c}
	s, c = math.Sincos(az)
	return Vec3{v.X*c - v.Y*s, v.X*s + v.Y*c, v.Z}
}

// outward flips triangles whose normal points toward the origin.
func outward(tris []Triangle) []Triangle {
	for i, t := range tris {
		if t.Normal().Dot(t.Centroid()) < 0 {
			tris[i][1], tris[i][2] = t[2], t[1]
		}
	}
	return tris
}

func quad(a, b, c, d Vec3) []Triangle {
	return []Triangle{{a, b, c}, {a, c, d}}
}

func cube() []Triangle {
	v := func(x, y, z float64) Vec3 { return Vec3{x, y, z} }
	var tris []Triangle
	tris = append(tris, quad(v(-1, -1, -1), v(1, -1, -1), v(1, 1, -1), v(-1, 1, -1))...)
	tris = append(tris, quad(v(-1, -1, 1), v(1, -1, 1), v(1, 1, 1), v(-1, 1, 1))...)
	tris = append(tris, quad(v(-1, -1, -1), v(-1, 1, -1), v(-1, 1, 1), v(-1, -1, 1))...)
	tris = append(tris, quad(v(1, -1, -1), v(1, 1, -1), v(1, 1, 1), v(1, -1, 1))...)
	tris = append(tris, quad(v(-1, -1, -1), v(1, -1, -1), v(1, -1, 1), v(-1, -1, 1))...)
	tris = append(tris, quad(v(-1, 1, -1), v(1, 1, -1), v(1, 1, 1), v(-1, 1, 1))...)
	return outward(tris)
}

func octahedron() []Triangle {
	var tris []Triangle
	for _, sx := range []float64{-1, 1} {
		for _, sy := range []float64{-1, 1} {
			for _, sz := range []float64{-1, 1} {
				tris = append(tris, Triangle{{sx, 0, 0}, {0, sy, 0}, {0, 0, sz}})
			}
		}
	}
	return outward(tris)
}

func pyramid() []Triangle {
	apex := Vec3{0, 1, 0}
	base := []Vec3{{-1, -1, -1}, {1, -1, -1}, {1, -1, 1}, {-1, -1, 1}}
	var tris []Triangle
	for i := range base {
		tris = append(tris, Triangle{base[i], base[(i+1)%len(base)], apex})
	}
	tris = append(tris, quad(base[0], base[1], base[2], base[3])...)
	return outward(tris)
}
