package terrain

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Plane is a flat horizontal ground at a fixed height.
type Plane struct {
	Height float32
	kind   Kind
}

func NewPlane(height float32, kind Kind) *Plane {
	return &Plane{Height: height, kind: kind}
}

func (p *Plane) Kind() Kind { return p.kind }

func (p *Plane) HeightAt(_, _ float32) float32 { return p.Height }

func (p *Plane) Raycast(origin, dir mgl32.Vec3, maxDistance float32) (Hit, bool) {
	if dir.Y() > -1e-6 {
		return Hit{}, false
	}
	t := (p.Height - origin.Y()) / dir.Y()
	if t < 0 || t > maxDistance {
		return Hit{}, false
	}
	return Hit{
		Point:    origin.Add(dir.Mul(t)),
		Normal:   mgl32.Vec3{0, 1, 0},
		Distance: t,
		Surface:  p,
	}, true
}

// Box is an axis-aligned obstacle such as a tree trunk or a gate post.
type Box struct {
	Min, Max mgl32.Vec3
	kind     Kind
}

func NewBox(center, size mgl32.Vec3, kind Kind) *Box {
	half := mgl32.Vec3{absf(size.X()) / 2, absf(size.Y()) / 2, absf(size.Z()) / 2}
	return &Box{Min: center.Sub(half), Max: center.Add(half), kind: kind}
}

func (b *Box) Kind() Kind { return b.kind }

func (b *Box) Center() mgl32.Vec3 { return b.Min.Add(b.Max).Mul(0.5) }

func (b *Box) Size() mgl32.Vec3 { return b.Max.Sub(b.Min) }

// Raycast uses the slab method.
func (b *Box) Raycast(origin, dir mgl32.Vec3, maxDistance float32) (Hit, bool) {
	tmin := float32(-1e30)
	tmax := float32(1e30)
	for axis := 0; axis < 3; axis++ {
		if dir[axis] != 0 {
			t1 := (b.Min[axis] - origin[axis]) / dir[axis]
			t2 := (b.Max[axis] - origin[axis]) / dir[axis]
			if t1 > t2 {
				t1, t2 = t2, t1
			}
			if t1 > tmin {
				tmin = t1
			}
			if t2 < tmax {
				tmax = t2
			}
			if tmin > tmax {
				return Hit{}, false
			}
		} else if origin[axis] < b.Min[axis] || origin[axis] > b.Max[axis] {
			return Hit{}, false
		}
	}
	if tmax < 0 || tmin > maxDistance {
		return Hit{}, false
	}

	t := tmin
	if t < 0 {
		t = tmax
	}
	if t < 0 || t > maxDistance {
		return Hit{}, false
	}

	point := origin.Add(dir.Mul(t))
	return Hit{Point: point, Normal: b.faceNormal(point), Distance: t, Surface: b}, true
}

func (b *Box) faceNormal(p mgl32.Vec3) mgl32.Vec3 {
	const eps = 0.001
	switch {
	case absf(p.X()-b.Min.X()) < eps:
		return mgl32.Vec3{-1, 0, 0}
	case absf(p.X()-b.Max.X()) < eps:
		return mgl32.Vec3{1, 0, 0}
	case absf(p.Y()-b.Min.Y()) < eps:
		return mgl32.Vec3{0, -1, 0}
	case absf(p.Y()-b.Max.Y()) < eps:
		return mgl32.Vec3{0, 1, 0}
	case absf(p.Z()-b.Min.Z()) < eps:
		return mgl32.Vec3{0, 0, -1}
	default:
		return mgl32.Vec3{0, 0, 1}
	}
}

// Sphere is a round obstacle (rocks).
type Sphere struct {
	Center mgl32.Vec3
	Radius float32
	kind   Kind
}

func NewSphere(center mgl32.Vec3, radius float32, kind Kind) *Sphere {
	return &Sphere{Center: center, Radius: radius, kind: kind}
}

func (s *Sphere) Kind() Kind { return s.kind }

func (s *Sphere) Raycast(origin, dir mgl32.Vec3, maxDistance float32) (Hit, bool) {
	oc := origin.Sub(s.Center)
	a := dir.Dot(dir)
	b := 2 * oc.Dot(dir)
	c := oc.Dot(oc) - s.Radius*s.Radius

	disc := b*b - 4*a*c
	if disc < 0 {
		return Hit{}, false
	}
	sq := float32(math.Sqrt(float64(disc)))
	t := (-b - sq) / (2 * a)
	if t < 0 {
		t = (-b + sq) / (2 * a)
	}
	if t < 0 || t > maxDistance {
		return Hit{}, false
	}

	point := origin.Add(dir.Mul(t))
	normal := point.Sub(s.Center)
	if l := normal.Len(); l > 1e-6 {
		normal = normal.Mul(1 / l)
	} else {
		normal = mgl32.Vec3{0, 1, 0}
	}
	return Hit{Point: point, Normal: normal, Distance: t, Surface: s}, true
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
