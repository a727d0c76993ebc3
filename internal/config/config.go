// Package config loads the battle configuration from YAML.
package config

import (
	_ "embed"
	"os"

	"github.com/Garsondee/tankbattle/internal/sight"
	"github.com/Garsondee/tankbattle/internal/turret"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

type Config struct {
	Arena      ArenaSpec       `yaml:"arena"`
	Grid       GridSpec        `yaml:"grid"`
	Sight      SightSpec       `yaml:"sight"`
	Collision  CollisionSpec   `yaml:"collision"`
	Tank       TankSpec        `yaml:"tank"`
	Projectile ProjectileSpec  `yaml:"projectile"`
	Archetypes []ArchetypeSpec `yaml:"archetypes"`
	Level      LevelSpec       `yaml:"level"`
}

type ArenaSpec struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

type GridSpec struct {
	Interval float64 `yaml:"interval"`
	Margin   float64 `yaml:"margin"`
}

type SightSpec struct {
	DetectInterval float64 `yaml:"detect_interval"`
}

type CollisionSpec struct {
	CornerTolerance float64 `yaml:"corner_tolerance"`
}

type TankSpec struct {
	HalfLength float64 `yaml:"half_length"`
	HalfWidth  float64 `yaml:"half_width"`
	Speed      float64 `yaml:"speed"`
	TurnRate   float64 `yaml:"turn_rate"`
}

type ProjectileSpec struct {
	Speed  float64 `yaml:"speed"`
	Radius float64 `yaml:"radius"`
}

type ArchetypeSpec struct {
	Name              string   `yaml:"name"`
	Kind              string   `yaml:"kind"`
	Mobile            bool     `yaml:"mobile"`
	CooldownTicks     int      `yaml:"cooldown_ticks"`
	AimTicks          int      `yaml:"aim_ticks"`
	BounceLimit       int      `yaml:"bounce_limit"`
	ProjectileBounces int      `yaml:"projectile_bounces"`
	AimConeDeg        float64  `yaml:"aim_cone_deg"`
	MaxLive           int      `yaml:"max_live"`
	TurretTurnRate    float64  `yaml:"turret_turn_rate"`
	Targets           []string `yaml:"targets"`
}

// Archetype converts the YAML entry to the record the turret machine runs.
// An empty kind defaults to the name.
func (s ArchetypeSpec) Archetype() turret.Archetype {
	kind := s.Kind
	if kind == "" {
		kind = s.Name
	}
	targets := make([]sight.Kind, len(s.Targets))
	for i, t := range s.Targets {
		targets[i] = sight.Kind(t)
	}
	return turret.Archetype{
		Name:              s.Name,
		Kind:              sight.Kind(kind),
		Mobile:            s.Mobile,
		CooldownTicks:     s.CooldownTicks,
		AimTicks:          s.AimTicks,
		BounceLimit:       s.BounceLimit,
		ProjectileBounces: s.ProjectileBounces,
		AimConeDeg:        s.AimConeDeg,
		TurnRate:          s.TurretTurnRate,
		MaxLive:           s.MaxLive,
		Targets:           targets,
	}
}

type ObstacleSpec struct {
	X    float64 `yaml:"x"`
	Y    float64 `yaml:"y"`
	Size float64 `yaml:"size"`
}

type SpawnSpec struct {
	Archetype string  `yaml:"archetype"`
	X         float64 `yaml:"x"`
	Y         float64 `yaml:"y"`
	Heading   float64 `yaml:"heading"`
}

type LevelSpec struct {
	Obstacles []ObstacleSpec `yaml:"obstacles"`
	Player    SpawnSpec      `yaml:"player"`
	Enemies   []SpawnSpec    `yaml:"enemies"`
}

// Default returns the built-in configuration.
func Default() *Config {
	var c Config
	if err := yaml.Unmarshal(defaultYAML, &c); err != nil {
		panic(errors.Wrap(err, "config: embedded default"))
	}
	return &c
}

// Load reads path and overlays it on the defaults. Lists in the file
// replace the default lists wholesale.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "config: load %s", path)
	}
	return Parse(data, path)
}

// Parse overlays YAML data on the defaults and validates the result. name
// is used in error messages only.
func Parse(data []byte, name string) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, errors.Wrapf(err, "config: unmarshal %s", name)
	}
	if err := c.Validate(); err != nil {
		return nil, errors.Wrapf(err, "config: %s", name)
	}
	return c, nil
}

// Validate rejects configurations the simulation cannot run.
func (c *Config) Validate() error {
	switch {
	case c.Arena.Width <= 0 || c.Arena.Height <= 0:
		return errors.Errorf("arena size %vx%v must be positive", c.Arena.Width, c.Arena.Height)
	case c.Grid.Interval <= 0:
		return errors.Errorf("grid interval %v must be positive", c.Grid.Interval)
	case c.Grid.Margin < 0:
		return errors.Errorf("grid margin %v must not be negative", c.Grid.Margin)
	case c.Sight.DetectInterval <= 0:
		return errors.Errorf("sight detect interval %v must be positive", c.Sight.DetectInterval)
	case c.Collision.CornerTolerance < 0:
		return errors.Errorf("collision corner tolerance %v must not be negative", c.Collision.CornerTolerance)
	case c.Tank.HalfLength <= 0 || c.Tank.HalfWidth <= 0:
		return errors.New("tank half extents must be positive")
	case c.Tank.Speed < 0 || c.Tank.TurnRate <= 0:
		return errors.New("tank speed must not be negative and turn rate must be positive")
	case c.Projectile.Speed <= 0 || c.Projectile.Radius < 0:
		return errors.New("projectile speed must be positive and radius not negative")
	}

	seen := make(map[string]bool, len(c.Archetypes))
	for _, a := range c.Archetypes {
		if seen[a.Name] {
			return errors.Errorf("duplicate archetype %q", a.Name)
		}
		seen[a.Name] = true
		if err := a.Archetype().Validate(); err != nil {
			return err
		}
	}

	for i, o := range c.Level.Obstacles {
		if o.Size <= 0 {
			return errors.Errorf("obstacle %d: size %v must be positive", i, o.Size)
		}
	}
	spawns := append([]SpawnSpec{c.Level.Player}, c.Level.Enemies...)
	for _, s := range spawns {
		if !seen[s.Archetype] {
			return errors.Errorf("spawn at (%v,%v): unknown archetype %q", s.X, s.Y, s.Archetype)
		}
		if s.X < 0 || s.Y < 0 || s.X > c.Arena.Width || s.Y > c.Arena.Height {
			return errors.Errorf("spawn %q at (%v,%v) is outside the arena", s.Archetype, s.X, s.Y)
		}
	}
	return nil
}

// Archetype returns the named archetype.
func (c *Config) Archetype(name string) (ArchetypeSpec, bool) {
	for _, a := range c.Archetypes {
		if a.Name == name {
			return a, true
		}
	}
	return ArchetypeSpec{}, false
}
