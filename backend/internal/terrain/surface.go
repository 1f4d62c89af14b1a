// Package terrain builds the drivable world the car simulation queries:
// a heightfield ground, a track ribbon laid over it, and the decorations
// the car can crash into. Every query answers "hit or no hit"; nothing here
// panics on a miss.
package terrain

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Kind tags what a surface is so callers can tell ground from decoration.
type Kind uint8

const (
	KindGround Kind = iota
	KindTrack
	KindTree
	KindRock
	KindGate
)

func (k Kind) String() string {
	switch k {
	case KindGround:
		return "ground"
	case KindTrack:
		return "track"
	case KindTree:
		return "tree"
	case KindRock:
		return "rock"
	case KindGate:
		return "gate"
	default:
		return "unknown"
	}
}

// Hit is a ray intersection.
type Hit struct {
	Point    mgl32.Vec3
	Normal   mgl32.Vec3
	Distance float32
	Surface  Surface
}

// Surface is anything a ray can hit. dir must be unit length.
type Surface interface {
	Kind() Kind
	Raycast(origin, dir mgl32.Vec3, maxDistance float32) (Hit, bool)
}

// HeightField answers ground height queries.
type HeightField interface {
	HeightAt(x, z float32) float32
}

// Cast checks every surface and returns the closest hit.
func Cast(surfaces []Surface, origin, dir mgl32.Vec3, maxDistance float32) (Hit, bool) {
	l := dir.Len()
	if l < 1e-6 {
		return Hit{}, false
	}
	if l < 0.9999 || l > 1.0001 {
		dir = dir.Mul(1 / l)
	}

	var closest Hit
	closest.Distance = maxDistance
	hit := false
	for _, s := range surfaces {
		if h, ok := s.Raycast(origin, dir, maxDistance); ok && h.Distance <= closest.Distance {
			closest = h
			hit = true
		}
	}
	return closest, hit
}
