package terrain

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	cases := map[string]func(*Config){
		"radius":     func(c *Config) { c.Radius = 0 },
		"track size": func(c *Config) { c.TrackRadius = c.Radius },
		"half width": func(c *Config) { c.TrackHalfWidth = 0 },
		"points":     func(c *Config) { c.TrackPoints = 2 },
		"counts":     func(c *Config) { c.Trees = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidMapConfig)
		})
	}
}

func TestGenerate_IsDeterministic(t *testing.T) {
	a, err := Generate(DefaultConfig())
	require.NoError(t, err)
	b, err := Generate(DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, a.Describe(), b.Describe())

	cfg := DefaultConfig()
	cfg.Seed++
	c, err := Generate(cfg)
	require.NoError(t, err)
	assert.NotEqual(t, a.Describe().Obstacles, c.Describe().Obstacles)
}

func TestGenerate_StartsOnTrack(t *testing.T) {
	m, err := Generate(DefaultConfig())
	require.NoError(t, err)

	start := m.StartPosition()
	assert.True(t, m.IsPointOnTrack(start.X(), start.Z()))
	assert.InDelta(t, m.HeightAt(start.X(), start.Z())+DefaultConfig().TrackLift, start.Y(), 1e-5)
	assert.InDelta(t, 1, m.StartDirection().Len(), 1e-5)
	assert.Zero(t, m.StartDirection().Y())
	assert.Equal(t, DefaultConfig().Radius, m.Bounds())

	h, ok := Cast(m.GroundSurfaces(), start.Add(mgl32.Vec3{0, 2, 0}), down, 6)
	require.True(t, ok)
	assert.Equal(t, KindTrack, h.Surface.Kind())
}

func TestGenerate_ObstaclesStayOffTrack(t *testing.T) {
	cfg := DefaultConfig()
	m, err := Generate(cfg)
	require.NoError(t, err)

	gates, trees, rocks := 0, 0, 0
	for _, o := range m.Obstacles() {
		switch s := o.(type) {
		case *Box:
			c := s.Center()
			switch s.Kind() {
			case KindGate:
				gates++
				continue
			case KindTree:
				trees++
			}
			assert.GreaterOrEqual(t, m.Track().DistanceTo(c.X(), c.Z()), cfg.TrackHalfWidth+3)
		case *Sphere:
			rocks++
			assert.GreaterOrEqual(t, m.Track().DistanceTo(s.Center.X(), s.Center.Z()), cfg.TrackHalfWidth+3)
		}
	}
	assert.Equal(t, 2, gates)
	assert.Equal(t, cfg.Trees, trees)
	assert.Equal(t, cfg.Rocks, rocks)
}

func TestDescribe(t *testing.T) {
	cfg := DefaultConfig()
	m, err := Generate(cfg)
	require.NoError(t, err)

	d := m.Describe()
	assert.Equal(t, cfg.Seed, d.Seed)
	assert.Len(t, d.Track, cfg.TrackPoints)
	assert.Len(t, d.Obstacles, len(m.Obstacles()))
	assert.Equal(t, "gate", d.Obstacles[0].Kind)
	assert.NotZero(t, d.Obstacles[0].Size.Y)
	for _, o := range d.Obstacles {
		if o.Kind == "rock" {
			assert.Greater(t, o.Radius, 0.0)
		}
	}
}
