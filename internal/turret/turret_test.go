package turret

import (
	"math/rand"
	"testing"

	"github.com/Garsondee/tankbattle/internal/geom"
	"github.com/Garsondee/tankbattle/internal/sight"
	"github.com/jakecoffman/cp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTargeter hits whenever the queried heading lies within tol of want.
type fakeTargeter struct {
	want    float64
	tol     float64
	never   bool
	queries []sight.Query
}

func (f *fakeTargeter) CanHit(q sight.Query) (bool, error) {
	f.queries = append(f.queries, q)
	if f.never {
		return false, nil
	}
	d := q.Heading - f.want
	return d >= -f.tol && d <= f.tol, nil
}

func sentry() Archetype {
	return Archetype{
		Name:          "sentry",
		Kind:          "sentry",
		CooldownTicks: 3,
		AimTicks:      2,
		BounceLimit:   1,
		AimConeDeg:    10,
		TurnRate:      90,
		MaxLive:       1,
		Targets:       []sight.Kind{"player"},
	}
}

func newTurret(t *testing.T, a Archetype) *Turret {
	t.Helper()
	tr, err := New(a, 0, rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	return tr
}

var eastward = Situation{
	Muzzle:    cp.Vector{X: 100, Y: 100},
	Target:    cp.Vector{X: 400, Y: 100},
	HasTarget: true,
	Visible:   true,
}

func TestArchetype_Validate(t *testing.T) {
	require.NoError(t, sentry().Validate())

	bad := sentry()
	bad.BounceLimit = -1
	require.Error(t, bad.Validate())

	bad = sentry()
	bad.MaxLive = 0
	require.Error(t, bad.Validate())

	bad = sentry()
	bad.Targets = nil
	require.Error(t, bad.Validate())
}

func TestUpdate_FullCycle(t *testing.T) {
	tr := newTurret(t, sentry())
	tg := &fakeTargeter{want: 0, tol: 360}

	shot, err := tr.Update(eastward, tg)
	require.NoError(t, err)
	assert.Nil(t, shot)
	assert.Equal(t, Aiming, tr.State())

	shot, err = tr.Update(eastward, tg)
	require.NoError(t, err)
	assert.Nil(t, shot, "aim time not elapsed")

	shot, err = tr.Update(eastward, tg)
	require.NoError(t, err)
	require.NotNil(t, shot)
	assert.Equal(t, Cooldown, tr.State())
	assert.Equal(t, 1, tr.Live())
	assert.Equal(t, eastward.Muzzle, shot.Origin)

	for range 3 {
		_, err = tr.Update(eastward, tg)
		require.NoError(t, err)
	}
	assert.Equal(t, Idle, tr.State())
}

func TestUpdate_AimStaysInsideCone(t *testing.T) {
	tr := newTurret(t, sentry())
	tg := &fakeTargeter{want: 0, tol: 360}
	for range 50 {
		_, err := tr.Update(eastward, tg)
		require.NoError(t, err)
		if tr.State() == Idle && tr.Live() > 0 {
			require.NoError(t, tr.ProjectileExpired())
		}
	}
	for _, q := range tg.queries {
		assert.InDelta(t, 0, geom.AngleDiff(0, q.Heading), 5.0001)
		assert.Equal(t, 1, q.BounceLimit)
		assert.Equal(t, sight.Kind("sentry"), q.Self)
		assert.True(t, q.Target("player"))
		assert.False(t, q.Target("sentry"))
	}
}

func TestUpdate_FallsBackToIdealBearing(t *testing.T) {
	tr := newTurret(t, sentry())
	// Only the exact ideal bearing connects; a random sample almost never does.
	tg := &fakeTargeter{want: 0, tol: 0}
	_, err := tr.Update(eastward, tg)
	require.NoError(t, err)
	require.Equal(t, Aiming, tr.State())
	aim, ok := tr.Aim()
	require.True(t, ok)
	assert.Equal(t, 0.0, aim)
}

func TestUpdate_StaysIdleWithoutShot(t *testing.T) {
	tr := newTurret(t, sentry())
	tg := &fakeTargeter{never: true}
	for range 5 {
		shot, err := tr.Update(eastward, tg)
		require.NoError(t, err)
		assert.Nil(t, shot)
	}
	assert.Equal(t, Idle, tr.State())
}

func TestUpdate_NoTargetDoesNothing(t *testing.T) {
	tr := newTurret(t, sentry())
	tg := &fakeTargeter{want: 0, tol: 360}
	_, err := tr.Update(Situation{}, tg)
	require.NoError(t, err)
	assert.Equal(t, Idle, tr.State())
	assert.Empty(t, tg.queries)
}

func TestUpdate_AbortsWhenShotLost(t *testing.T) {
	tr := newTurret(t, sentry())
	tg := &fakeTargeter{want: 0, tol: 360}
	_, err := tr.Update(eastward, tg)
	require.NoError(t, err)
	require.Equal(t, Aiming, tr.State())

	tg.never = true
	for range 2 {
		shot, err := tr.Update(eastward, tg)
		require.NoError(t, err)
		assert.Nil(t, shot)
	}
	assert.Equal(t, Idle, tr.State())
	assert.Equal(t, 0, tr.Live())
}

func TestUpdate_RespectsMaxLive(t *testing.T) {
	a := sentry()
	a.CooldownTicks = 0
	tr := newTurret(t, a)
	tg := &fakeTargeter{want: 0, tol: 360}
	shots := 0
	for range 20 {
		shot, err := tr.Update(eastward, tg)
		require.NoError(t, err)
		if shot != nil {
			shots++
		}
	}
	assert.Equal(t, 1, shots)
	assert.Equal(t, 1, tr.Live())
}

func TestProjectileExpired_FailsFastBelowZero(t *testing.T) {
	tr := newTurret(t, sentry())
	err := tr.ProjectileExpired()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvariant))
}

func TestUpdate_SlewsTowardAim(t *testing.T) {
	a := sentry()
	a.TurnRate = 10
	a.AimConeDeg = 0
	tr := newTurret(t, a)
	tg := &fakeTargeter{want: 90, tol: 1e-9}
	south := Situation{
		Muzzle:    cp.Vector{X: 100, Y: 100},
		Target:    cp.Vector{X: 100, Y: 400},
		HasTarget: true,
	}
	_, err := tr.Update(south, tg)
	require.NoError(t, err)
	require.Equal(t, Aiming, tr.State())
	assert.Equal(t, 0.0, tr.Heading(), "not visible, so idle does not track")

	_, err = tr.Update(south, tg)
	require.NoError(t, err)
	assert.Equal(t, 10.0, tr.Heading())
}
