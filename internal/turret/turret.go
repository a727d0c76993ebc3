// Package turret holds the archetype record and the shared
// idle → aiming → cooldown machine every enemy turret runs.
package turret

import (
	"math/rand"
	"slices"

	"github.com/Garsondee/tankbattle/internal/geom"
	"github.com/Garsondee/tankbattle/internal/sight"
	"github.com/jakecoffman/cp"
	"github.com/pkg/errors"
)

// ErrInvariant is returned when live projectile accounting goes wrong.
var ErrInvariant = errors.New("turret: invariant violated")

// State is the machine state.
type State uint8

const (
	Idle State = iota
	Aiming
	Cooldown
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Aiming:
		return "aiming"
	case Cooldown:
		return "cooldown"
	}
	return "unknown"
}

// Archetype is the data that distinguishes one enemy kind from another.
type Archetype struct {
	Name              string
	Kind              sight.Kind
	Mobile            bool
	CooldownTicks     int
	AimTicks          int
	BounceLimit       int     // bounces allowed when checking a shot
	ProjectileBounces int     // bounces the fired shell survives
	AimConeDeg        float64 // full width of the random aim cone
	TurnRate          float64 // turret degrees per tick
	MaxLive           int
	Targets           []sight.Kind
}

// Validate rejects archetypes the machine cannot run.
func (a Archetype) Validate() error {
	switch {
	case a.Name == "":
		return errors.New("turret: archetype has no name")
	case a.CooldownTicks < 0 || a.AimTicks < 0:
		return errors.Errorf("turret: %s: tick counts must not be negative", a.Name)
	case a.BounceLimit < 0 || a.ProjectileBounces < 0:
		return errors.Errorf("turret: %s: bounce limits must not be negative", a.Name)
	case a.AimConeDeg < 0 || a.AimConeDeg > 360:
		return errors.Errorf("turret: %s: aim cone %v out of range", a.Name, a.AimConeDeg)
	case a.TurnRate <= 0:
		return errors.Errorf("turret: %s: turn rate must be positive", a.Name)
	case a.MaxLive < 1:
		return errors.Errorf("turret: %s: max live projectiles must be at least 1", a.Name)
	case len(a.Targets) == 0:
		return errors.Errorf("turret: %s: no target kinds", a.Name)
	}
	return nil
}

// IsTarget reports whether k is one of the archetype's target kinds.
func (a Archetype) IsTarget(k sight.Kind) bool {
	return slices.Contains(a.Targets, k)
}

// Targeter answers whether a shot reaches a target. *sight.Tracer
// satisfies it.
type Targeter interface {
	CanHit(q sight.Query) (bool, error)
}

// Situation is what the owner knows about the world this tick.
type Situation struct {
	Muzzle    cp.Vector
	Target    cp.Vector
	HasTarget bool
	// Visible is true when a straight, unbounced line reaches the target.
	Visible bool
}

// Shot is a projectile the turret has just fired.
type Shot struct {
	Origin  cp.Vector
	Heading float64
	Bounces int
}

// Turret runs one archetype's firing cycle.
type Turret struct {
	arch    Archetype
	rng     *rand.Rand
	state   State
	heading float64
	aim     float64
	timer   int
	live    int
}

// New returns an idle turret facing heading.
func New(arch Archetype, heading float64, rng *rand.Rand) (*Turret, error) {
	if err := arch.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1)) // #nosec G404 -- game only
	}
	return &Turret{arch: arch, rng: rng, heading: geom.NormalizeDegrees(heading)}, nil
}

func (t *Turret) Archetype() Archetype { return t.arch }
func (t *Turret) State() State         { return t.state }
func (t *Turret) Heading() float64     { return t.heading }
func (t *Turret) Live() int            { return t.live }

// Aim returns the committed aim heading while aiming.
func (t *Turret) Aim() (float64, bool) { return t.aim, t.state == Aiming }

// Query builds the line-of-sight query for a shot along heading.
func (t *Turret) Query(muzzle cp.Vector, heading float64) sight.Query {
	return sight.Query{
		Origin:      muzzle,
		Heading:     heading,
		BounceLimit: t.arch.BounceLimit,
		Target:      t.arch.IsTarget,
		Self:        t.arch.Kind,
	}
}

// Update advances the machine by one tick and returns a shot when one is
// fired.
//
// Idle picks a random heading inside the aim cone around the ideal bearing
// and commits to it only when the tracer says it reaches a target, falling
// back to the ideal bearing itself. Aiming slews the turret toward the
// committed heading and fires once the aim time has elapsed and the shot
// still connects. Cooldown waits before returning to idle.
func (t *Turret) Update(s Situation, tg Targeter) (*Shot, error) {
	switch t.state {
	case Idle:
		if !s.HasTarget {
			return nil, nil
		}
		ideal := geom.Bearing(s.Muzzle, s.Target)
		if s.Visible {
			t.heading = geom.TurnToward(t.heading, ideal, t.arch.TurnRate)
		}
		if t.live >= t.arch.MaxLive {
			return nil, nil
		}
		for _, h := range []float64{t.sampleAim(ideal), ideal} {
			h = geom.NormalizeDegrees(h)
			ok, err := tg.CanHit(t.Query(s.Muzzle, h))
			if err != nil {
				return nil, err
			}
			if ok {
				t.aim = h
				t.timer = t.arch.AimTicks
				t.state = Aiming
				return nil, nil
			}
		}
		return nil, nil

	case Aiming:
		t.heading = geom.TurnToward(t.heading, t.aim, t.arch.TurnRate)
		if t.timer > 0 {
			t.timer--
		}
		if t.timer > 0 || geom.AngleDiff(t.heading, t.aim) != 0 {
			return nil, nil
		}
		ok, err := tg.CanHit(t.Query(s.Muzzle, t.heading))
		if err != nil {
			return nil, err
		}
		if !ok || t.live >= t.arch.MaxLive {
			t.state = Idle
			return nil, nil
		}
		t.live++
		t.state = Cooldown
		t.timer = t.arch.CooldownTicks
		return &Shot{Origin: s.Muzzle, Heading: t.heading, Bounces: t.arch.ProjectileBounces}, nil

	case Cooldown:
		if t.timer > 0 {
			t.timer--
		}
		if t.timer == 0 {
			t.state = Idle
		}
		return nil, nil
	}
	return nil, errors.Wrapf(ErrInvariant, "turret: unknown state %d", t.state)
}

func (t *Turret) sampleAim(ideal float64) float64 {
	if t.arch.AimConeDeg == 0 {
		return ideal
	}
	return ideal + (t.rng.Float64()-0.5)*t.arch.AimConeDeg
}

// ProjectileExpired releases one live projectile slot.
func (t *Turret) ProjectileExpired() error {
	if t.live <= 0 {
		return errors.Wrapf(ErrInvariant, "turret: %s: no live projectile to expire", t.arch.Name)
	}
	t.live--
	return nil
}
