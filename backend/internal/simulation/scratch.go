package simulation

import "github.com/go-gl/mathgl/mgl32"

// scratch is the controller's per-tick working set. Every field is written
// before it is read within a single Update; values must not be retained
// across calls.
type scratch struct {
	yaw       mgl32.Quat
	forward   mgl32.Vec3
	right     mgl32.Vec3
	tentative mgl32.Vec3
	step      mgl32.Vec3
	target    mgl32.Quat
}

var (
	up         = mgl32.Vec3{0, 1, 0}
	localFwd   = mgl32.Vec3{0, 0, 1}
	localRight = mgl32.Vec3{-1, 0, 0}
)

// frame fills the heading-derived vectors.
func (s *scratch) frame(heading float32) {
	s.yaw = mgl32.QuatRotate(heading, up)
	s.forward = mgl32.Vec3{sinf(heading), 0, cosf(heading)}
	s.right = mgl32.Vec3{-cosf(heading), 0, sinf(heading)}
}
