package simulation

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/xcrap/micromachines/backend/internal/terrain"
)

// CollisionProbe is the result of one four-ray obstacle probe. It lives for
// a single tick.
type CollisionProbe struct {
	HasCollision bool
	Point        mgl32.Vec3
	Distance     float32
}

// ProbeObstacles casts forward, backward, left and right from just above
// pos against the obstacles and keeps the nearest hit within reach.
func ProbeObstacles(obstacles []terrain.Surface, pos, forward, right mgl32.Vec3, height, reach float32) CollisionProbe {
	var probe CollisionProbe
	if len(obstacles) == 0 {
		return probe
	}
	origin := pos.Add(mgl32.Vec3{0, height, 0})
	dirs := [4]mgl32.Vec3{forward, forward.Mul(-1), right.Mul(-1), right}
	for _, dir := range dirs {
		hit, ok := terrain.Cast(obstacles, origin, dir, reach)
		if !ok || hit.Distance > reach {
			continue
		}
		if !probe.HasCollision || hit.Distance < probe.Distance {
			probe = CollisionProbe{HasCollision: true, Point: hit.Point, Distance: hit.Distance}
		}
	}
	return probe
}

// pushOut moves prev horizontally away from the hit point by amount.
// A hit directly above or below prev leaves it where it is.
func pushOut(prev, hit mgl32.Vec3, amount float32) mgl32.Vec3 {
	away := mgl32.Vec3{prev.X() - hit.X(), 0, prev.Z() - hit.Z()}
	l := away.Len()
	if l < 1e-6 || amount <= 0 {
		return prev
	}
	return prev.Add(away.Mul(amount / l))
}

// OutOfBounds tests pos against the map edge.
func OutOfBounds(shape BoundaryShape, pos mgl32.Vec3, radius float32) bool {
	x, z := pos.X(), pos.Z()
	if shape == BoundaryCircular {
		return x*x+z*z > radius*radius
	}
	return absf(x) > radius || absf(z) > radius
}
