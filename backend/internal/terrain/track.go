package terrain

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/peterstace/simplefeatures/geom"
)

// ErrTrackTooShort is returned when a loop has fewer than three control points.
var ErrTrackTooShort = errors.New("track needs at least 3 points")

// Track is a closed centre-line with a drivable half width, laid over the
// ground slightly lifted so rays prefer it.
type Track struct {
	line      geom.Geometry
	points    []mgl32.Vec2
	halfWidth float32
	lift      float32
	ground    Surface
}

// NewTrack builds a closed loop over ground from (x, z) control points.
func NewTrack(points []mgl32.Vec2, halfWidth, lift float32, ground Surface) (*Track, error) {
	if len(points) < 3 {
		return nil, fmt.Errorf("new track: %w (got %d)", ErrTrackTooShort, len(points))
	}

	flat := make([]float64, 0, (len(points)+1)*2)
	for _, p := range points {
		flat = append(flat, float64(p.X()), float64(p.Y()))
	}
	flat = append(flat, float64(points[0].X()), float64(points[0].Y()))

	ls, err := geom.NewLineString(geom.NewSequence(flat, geom.DimXY))
	if err != nil {
		return nil, fmt.Errorf("new track: invalid centre line: %w", err)
	}

	pts := make([]mgl32.Vec2, len(points))
	copy(pts, points)
	return &Track{
		line:      ls.AsGeometry(),
		points:    pts,
		halfWidth: halfWidth,
		lift:      lift,
		ground:    ground,
	}, nil
}

func (t *Track) Kind() Kind { return KindTrack }

func (t *Track) HalfWidth() float32 { return t.halfWidth }

// Points returns the control points; callers must not modify them.
func (t *Track) Points() []mgl32.Vec2 { return t.points }

// DistanceTo returns the horizontal distance from (x, z) to the centre line.
func (t *Track) DistanceTo(x, z float32) float32 {
	pt, err := geom.XY{X: float64(x), Y: float64(z)}.AsPoint()
	if err != nil {
		return float32(1e30)
	}
	d, ok := geom.Distance(t.line, pt.AsGeometry())
	if !ok {
		return float32(1e30)
	}
	return float32(d)
}

// Contains reports whether (x, z) is within the drivable band.
func (t *Track) Contains(x, z float32) bool {
	return t.DistanceTo(x, z) <= t.halfWidth
}

// Raycast hits the ground underneath and keeps the hit only inside the band.
func (t *Track) Raycast(origin, dir mgl32.Vec3, maxDistance float32) (Hit, bool) {
	h, ok := t.ground.Raycast(origin, dir, maxDistance+t.lift)
	if !ok || !t.Contains(h.Point.X(), h.Point.Z()) {
		return Hit{}, false
	}
	h.Point[1] += t.lift
	h.Distance = h.Point.Sub(origin).Len()
	if h.Distance > maxDistance {
		return Hit{}, false
	}
	h.Surface = t
	return h, true
}
