package terrain

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/xcrap/micromachines/backend/internal/shared/types"
)

// Config controls procedural map generation.
type Config struct {
	Seed           int64   `mapstructure:"seed"`
	Radius         float32 `mapstructure:"radius"`
	TrackRadius    float32 `mapstructure:"trackRadius"`
	TrackHalfWidth float32 `mapstructure:"trackHalfWidth"`
	TrackPoints    int     `mapstructure:"trackPoints"`
	TrackLift      float32 `mapstructure:"trackLift"`
	Hills          int     `mapstructure:"hills"`
	HillHeight     float32 `mapstructure:"hillHeight"`
	Trees          int     `mapstructure:"trees"`
	Rocks          int     `mapstructure:"rocks"`
}

// DefaultConfig is the map the demo ships with.
func DefaultConfig() Config {
	return Config{
		Seed:           7,
		Radius:         150,
		TrackRadius:    90,
		TrackHalfWidth: 7,
		TrackPoints:    96,
		TrackLift:      0.02,
		Hills:          5,
		HillHeight:     1.2,
		Trees:          60,
		Rocks:          40,
	}
}

var ErrInvalidMapConfig = errors.New("invalid map config")

func (c Config) Validate() error {
	switch {
	case c.Radius <= 0:
		return fmt.Errorf("%w: radius must be positive", ErrInvalidMapConfig)
	case c.TrackRadius <= 0 || c.TrackRadius*1.3 >= c.Radius:
		return fmt.Errorf("%w: track radius must fit inside the map", ErrInvalidMapConfig)
	case c.TrackHalfWidth <= 0:
		return fmt.Errorf("%w: track half width must be positive", ErrInvalidMapConfig)
	case c.TrackPoints < 3:
		return fmt.Errorf("%w: track needs at least 3 points", ErrInvalidMapConfig)
	case c.Hills < 0 || c.Trees < 0 || c.Rocks < 0:
		return fmt.Errorf("%w: counts must not be negative", ErrInvalidMapConfig)
	}
	return nil
}

// Map is the generated world. Ground surfaces and obstacles are kept in two
// separate collections so the car never has to filter one out of the other.
type Map struct {
	cfg       Config
	ground    *Heightmap
	track     *Track
	groundSet []Surface
	obstacles []Surface
	start     mgl32.Vec3
	startDir  mgl32.Vec3
}

// Generate builds a deterministic map from cfg.Seed.
func Generate(cfg Config) (*Map, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewPCG(uint64(cfg.Seed), uint64(cfg.Seed)^0x9e3779b97f4a7c15))

	ground := &Heightmap{}
	for i := 0; i < cfg.Hills; i++ {
		angle := rng.Float64() * 2 * math.Pi
		wavelength := 40 + rng.Float64()*60
		k := 2 * math.Pi / wavelength
		ground.Waves = append(ground.Waves, Wave{
			Amplitude: cfg.HillHeight * float32(0.4+rng.Float64()*0.6),
			FreqX:     float32(math.Cos(angle) * k),
			FreqZ:     float32(math.Sin(angle) * k),
			Phase:     float32(rng.Float64() * 2 * math.Pi),
		})
	}

	phase2 := rng.Float64() * 2 * math.Pi
	phase3 := rng.Float64() * 2 * math.Pi
	points := make([]mgl32.Vec2, cfg.TrackPoints)
	for i := range points {
		theta := 2 * math.Pi * float64(i) / float64(cfg.TrackPoints)
		r := float64(cfg.TrackRadius) * (1 + 0.18*math.Sin(2*theta+phase2) + 0.08*math.Sin(3*theta+phase3))
		points[i] = mgl32.Vec2{float32(r * math.Cos(theta)), float32(r * math.Sin(theta))}
	}
	track, err := NewTrack(points, cfg.TrackHalfWidth, cfg.TrackLift, ground)
	if err != nil {
		return nil, fmt.Errorf("generate map: %w", err)
	}

	m := &Map{
		cfg:       cfg,
		ground:    ground,
		track:     track,
		groundSet: []Surface{track, ground},
	}

	p0, p1 := points[0], points[1]
	m.start = mgl32.Vec3{p0.X(), ground.HeightAt(p0.X(), p0.Y()) + cfg.TrackLift, p0.Y()}
	m.startDir = mgl32.Vec3{p1.X() - p0.X(), 0, p1.Y() - p0.Y()}.Normalize()

	m.placeGate()
	m.scatter(rng, cfg.Trees, func(x, z float32) Surface {
		y := ground.HeightAt(x, z)
		return NewBox(mgl32.Vec3{x, y + 2, z}, mgl32.Vec3{0.6, 4, 0.6}, KindTree)
	})
	m.scatter(rng, cfg.Rocks, func(x, z float32) Surface {
		r := float32(0.8 + rng.Float64()*0.8)
		y := ground.HeightAt(x, z)
		return NewSphere(mgl32.Vec3{x, y + 0.3*r, z}, r, KindRock)
	})
	return m, nil
}

// placeGate puts the two finish-line posts just outside the track edges.
func (m *Map) placeGate() {
	right := mgl32.Vec3{-m.startDir.Z(), 0, m.startDir.X()}
	offset := m.cfg.TrackHalfWidth + 1
	for _, side := range []float32{-1, 1} {
		c := m.start.Add(right.Mul(side * offset))
		c[1] = m.ground.HeightAt(c.X(), c.Z()) + 2.5
		m.obstacles = append(m.obstacles, NewBox(c, mgl32.Vec3{0.5, 5, 0.5}, KindGate))
	}
}

// scatter places n decorations off the track and away from the start.
func (m *Map) scatter(rng *rand.Rand, n int, build func(x, z float32) Surface) {
	clearance := m.cfg.TrackHalfWidth + 3
	limit := float64(m.cfg.Radius) * 0.95
	for placed, attempts := 0, 0; placed < n && attempts < n*50; attempts++ {
		x := float32((rng.Float64()*2 - 1) * limit)
		z := float32((rng.Float64()*2 - 1) * limit)
		if m.track.DistanceTo(x, z) < clearance {
			continue
		}
		if (mgl32.Vec2{x - m.start.X(), z - m.start.Z()}).Len() < 12 {
			continue
		}
		m.obstacles = append(m.obstacles, build(x, z))
		placed++
	}
}

func (m *Map) HeightAt(x, z float32) float32 { return m.ground.HeightAt(x, z) }

func (m *Map) GroundSurfaces() []Surface { return m.groundSet }

func (m *Map) Obstacles() []Surface { return m.obstacles }

func (m *Map) IsPointOnTrack(x, z float32) bool { return m.track.Contains(x, z) }

func (m *Map) StartPosition() mgl32.Vec3 { return m.start }

func (m *Map) StartDirection() mgl32.Vec3 { return m.startDir }

func (m *Map) Bounds() float32 { return m.cfg.Radius }

func (m *Map) Track() *Track { return m.track }

// Describe returns the wire description a renderer meshes the world from.
func (m *Map) Describe() types.MapDescription {
	d := types.MapDescription{
		Seed:           m.cfg.Seed,
		Radius:         float64(m.cfg.Radius),
		TrackHalfWidth: float64(m.cfg.TrackHalfWidth),
		Track:          make([]types.Vec3, 0, len(m.track.points)),
		Obstacles:      make([]types.Obstacle, 0, len(m.obstacles)),
		Start:          vec3(m.start),
		StartDirection: vec3(m.startDir),
	}
	for _, p := range m.track.points {
		d.Track = append(d.Track, vec3(mgl32.Vec3{p.X(), m.ground.HeightAt(p.X(), p.Y()) + m.cfg.TrackLift, p.Y()}))
	}
	for _, o := range m.obstacles {
		switch s := o.(type) {
		case *Box:
			d.Obstacles = append(d.Obstacles, types.Obstacle{Kind: s.Kind().String(), Center: vec3(s.Center()), Size: vec3(s.Size())})
		case *Sphere:
			d.Obstacles = append(d.Obstacles, types.Obstacle{Kind: s.Kind().String(), Center: vec3(s.Center), Radius: float64(s.Radius)})
		}
	}
	return d
}

func vec3(v mgl32.Vec3) types.Vec3 {
	return types.Vec3{X: float64(v.X()), Y: float64(v.Y()), Z: float64(v.Z())}
}
