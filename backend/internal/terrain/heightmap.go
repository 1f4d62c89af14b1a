package terrain

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	marchStep       = 0.5
	bisectSteps     = 12
	normalEpsilon   = 0.1
	verticalEpsilon = 1e-6
)

// Wave is one sine component of the rolling hills.
type Wave struct {
	Amplitude float32
	FreqX     float32
	FreqZ     float32
	Phase     float32
}

// Heightmap is procedural ground: a base height plus a sum of sine waves.
type Heightmap struct {
	Base  float32
	Waves []Wave
}

func (h *Heightmap) Kind() Kind { return KindGround }

func (h *Heightmap) HeightAt(x, z float32) float32 {
	y := float64(h.Base)
	for _, w := range h.Waves {
		y += float64(w.Amplitude) * math.Sin(float64(w.FreqX*x+w.FreqZ*z+w.Phase))
	}
	return float32(y)
}

// NormalAt returns the unit surface normal from central differences.
func (h *Heightmap) NormalAt(x, z float32) mgl32.Vec3 {
	dx := h.HeightAt(x+normalEpsilon, z) - h.HeightAt(x-normalEpsilon, z)
	dz := h.HeightAt(x, z+normalEpsilon) - h.HeightAt(x, z-normalEpsilon)
	n := mgl32.Vec3{-dx / (2 * normalEpsilon), 1, -dz / (2 * normalEpsilon)}
	return n.Normalize()
}

// Raycast marches along the ray until it crosses the surface, then bisects.
// Rays starting below the ground never hit.
func (h *Heightmap) Raycast(origin, dir mgl32.Vec3, maxDistance float32) (Hit, bool) {
	above := func(t float32) float32 {
		p := origin.Add(dir.Mul(t))
		return p.Y() - h.HeightAt(p.X(), p.Z())
	}

	if above(0) < 0 {
		return Hit{}, false
	}

	var t float32
	if absf(dir.X()) < verticalEpsilon && absf(dir.Z()) < verticalEpsilon {
		if dir.Y() >= 0 {
			return Hit{}, false
		}
		t = (origin.Y() - h.HeightAt(origin.X(), origin.Z())) / -dir.Y()
		if t > maxDistance {
			return Hit{}, false
		}
	} else {
		lo, hi := float32(0), float32(0)
		found := false
		for hi < maxDistance {
			lo = hi
			hi += marchStep
			if hi > maxDistance {
				hi = maxDistance
			}
			if above(hi) <= 0 {
				found = true
				break
			}
		}
		if !found {
			return Hit{}, false
		}
		for i := 0; i < bisectSteps; i++ {
			mid := (lo + hi) / 2
			if above(mid) > 0 {
				lo = mid
			} else {
				hi = mid
			}
		}
		t = hi
	}

	p := origin.Add(dir.Mul(t))
	p[1] = h.HeightAt(p.X(), p.Z())
	return Hit{Point: p, Normal: h.NormalAt(p.X(), p.Z()), Distance: t, Surface: h}, true
}
