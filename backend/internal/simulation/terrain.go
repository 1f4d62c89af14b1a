package simulation

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/xcrap/micromachines/backend/internal/terrain"
)

// HeightField answers ground height queries. Spawning uses it to keep the
// car above the ground; everything per tick goes through rays.
type HeightField interface {
	HeightAt(x, z float32) float32
}

// Terrain is everything the controller asks of the world. Ground surfaces
// (ground and track) and obstacles (decorations) are separate collections.
type Terrain interface {
	HeightField
	GroundSurfaces() []terrain.Surface
	Obstacles() []terrain.Surface
	IsPointOnTrack(x, z float32) bool
	StartPosition() mgl32.Vec3
	StartDirection() mgl32.Vec3
	// Bounds is the map radius (half side for square bounds).
	Bounds() float32
}
