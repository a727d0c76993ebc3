package sim

import (
	"bytes"
	"io"
	"testing"

	"github.com/Garsondee/tankbattle/internal/config"
	"github.com/Garsondee/tankbattle/internal/geom"
	"github.com/Garsondee/tankbattle/internal/replay"
	"github.com/Garsondee/tankbattle/internal/sight"
	"github.com/jakecoffman/cp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// battleConfig returns the default config with the named archetypes held
// in place.
func battleConfig(immobile ...string) *config.Config {
	cfg := config.Default()
	for i := range cfg.Archetypes {
		for _, name := range immobile {
			if cfg.Archetypes[i].Name == name {
				cfg.Archetypes[i].Mobile = false
			}
		}
	}
	return cfg
}

func newWorld(t *testing.T, cfg *config.Config, opts ...Option) *World {
	t.Helper()
	w, err := New(cfg, opts...)
	require.NoError(t, err)
	return w
}

func mustTank(t *testing.T, w *World, label string) *Tank {
	t.Helper()
	tk, ok := w.Tank(label)
	require.True(t, ok, "no tank %s", label)
	return tk
}

func TestNew_DefaultLevel(t *testing.T) {
	w := newWorld(t, config.Default())
	require.Len(t, w.Tanks(), 4)
	p := mustTank(t, w, "P0")
	assert.Equal(t, PlayerKind, p.Arch.Kind)
	assert.Equal(t, cp.Vector{X: 60, Y: 60}, p.Body.Center)
	e := mustTank(t, w, "E1")
	assert.Equal(t, sight.Kind("sentry"), e.Arch.Kind)
	assert.Positive(t, w.Grid().Len())
}

func TestNew_UnknownTankArchetype(t *testing.T) {
	_, err := New(config.Default(), WithTank("ghost", 100, 100, 0))
	require.Error(t, err)
}

func TestNew_DoesNotMutateConfig(t *testing.T) {
	cfg := config.Default()
	n := len(cfg.Level.Obstacles)
	newWorld(t, cfg, WithObstacle(10, 10, 20), WithMapSize(1200, 900))
	assert.Len(t, cfg.Level.Obstacles, n)
	assert.Equal(t, 1000.0, cfg.Arena.Width)
}

func TestKindsAt_SkipsDestroyedTanks(t *testing.T) {
	w := newWorld(t, config.Default(), WithEmptyLevel(), WithTank("sentry", 300, 300, 0))
	tk := mustTank(t, w, "E0")
	assert.Equal(t, []sight.Kind{"sentry"}, w.KindsAt(tk.Body.Center, nil))
	tk.Alive = false
	assert.Empty(t, w.KindsAt(tk.Body.Center, nil))
}

func TestPlanRoutes_PursuerRoutesToTarget(t *testing.T) {
	w := newWorld(t, battleConfig("player"), WithEmptyLevel(),
		WithTank("player", 800, 600, 0),
		WithTank("hunter", 100, 100, 0),
	)
	require.NoError(t, w.PlanRoutes())

	hunter := mustTank(t, w, "E1")
	require.NotNil(t, hunter.Route())
	dest, ok := hunter.Route().Destination()
	require.True(t, ok)
	assert.Less(t, dest.Distance(cp.Vector{X: 800, Y: 600}), w.Grid().Interval())
	assert.Nil(t, mustTank(t, w, "P0").Route(), "immobile tanks never plan")
	assert.Equal(t, 1, w.Stats().RoutesPlanned)
	assert.True(t, w.Journal().Has(EventRoutePlanned, ""))
}

func TestPlanRoutes_ManyQueriesInParallel(t *testing.T) {
	opts := []Option{WithSeed(3)}
	for i := range 12 {
		opts = append(opts, WithTank("hunter", 60+float64(i)*70, 760, 270))
	}
	w := newWorld(t, battleConfig("player"), opts...)
	require.NoError(t, w.PlanRoutes())
	for _, tk := range w.Tanks() {
		if tk.Arch.Name != "hunter" {
			continue
		}
		assert.NotNil(t, tk.Route(), tk.Label)
	}
}

func TestPlanRoutes_UnreachableTargetDetours(t *testing.T) {
	// The player hugs a block, so its lattice cell is a hole.
	w := newWorld(t, battleConfig("player"), WithEmptyLevel(), WithSeed(5),
		WithObstacle(513, 380, 40),
		WithTank("player", 500, 400, 90),
		WithTank("hunter", 100, 100, 0),
	)
	row, col, err := w.Grid().Locate(500, 400)
	require.NoError(t, err)
	require.True(t, w.Grid().IsHole(row, col))

	require.NoError(t, w.PlanRoutes())
	hunter := mustTank(t, w, "E1")
	assert.Equal(t, 1, w.Stats().NoRoute)
	assert.True(t, w.Journal().Has(EventNoRoute, "hole"))
	assert.Nil(t, hunter.Route())
	goal, ok := hunter.Goal()
	require.True(t, ok)

	require.NoError(t, w.PlanRoutes())
	require.NotNil(t, hunter.Route(), "detour is planned on the next pass")
	dest, _ := hunter.Route().Destination()
	assert.Equal(t, goal, dest)
}

func TestPlanRoutes_StartInArenaRim(t *testing.T) {
	// y=783 is inside the arena but past the last whole lattice row.
	w := newWorld(t, battleConfig("player"), WithEmptyLevel(),
		WithTank("player", 495, 100, 0),
		WithTank("hunter", 495, 783, 270),
	)
	h := mustTank(t, w, "E1")
	start := h.Body.Center
	w.RunTicks(30)
	assert.Zero(t, w.Stats().NoRoute)
	assert.Positive(t, w.Stats().RoutesPlanned)
	assert.Greater(t, h.Body.Center.Distance(start), 20.0)
}

func TestTick_MobileTankFollowsRoute(t *testing.T) {
	w := newWorld(t, battleConfig("player"), WithEmptyLevel(),
		WithTank("player", 800, 600, 0),
		WithTank("hunter", 100, 100, 0),
	)
	hunter := mustTank(t, w, "E1")
	start := hunter.Body.Center
	w.RunTicks(60)
	assert.Greater(t, hunter.Body.Center.Distance(start), 60.0)
	assert.Less(t, hunter.Body.Center.Distance(cp.Vector{X: 800, Y: 600}),
		start.Distance(cp.Vector{X: 800, Y: 600}))
	assert.False(t, w.Arena().Blocks(hunter.Body))
}

func TestShell_RicochetKill(t *testing.T) {
	w := newWorld(t, battleConfig("player"), WithEmptyLevel(),
		WithObstacle(150, 400, 200),
		WithTank("player", 300, 300, 0),
		WithTank("sentry", 60, 700, 0),
	)
	player := mustTank(t, w, "P0")
	s := &Shell{
		Owner:     mustTank(t, w, "E1"),
		Pos:       cp.Vector{X: 100, Y: 300},
		Dir:       geom.Heading(45),
		Bounces:   1,
		leftOwner: true,
	}
	for i := 0; i < 200 && !s.dead; i++ {
		w.stepShell(s)
	}
	require.True(t, s.dead)
	assert.False(t, player.Alive)
	assert.Equal(t, 1, s.Ricochets)
	assert.Equal(t, 1, w.Stats().Kills)
	assert.True(t, w.Journal().Has(EventRicochet, "face=top"))
	assert.True(t, w.Journal().Has(EventKill, "E1 destroyed P0"))
}

func TestShell_NoBouncesLeftExpiresOnWall(t *testing.T) {
	w := newWorld(t, battleConfig("player"), WithEmptyLevel(),
		WithObstacle(150, 400, 200),
		WithTank("player", 300, 300, 0),
		WithTank("sentry", 60, 700, 0),
	)
	s := &Shell{
		Owner:     mustTank(t, w, "E1"),
		Pos:       cp.Vector{X: 100, Y: 300},
		Dir:       geom.Heading(45),
		leftOwner: true,
	}
	for i := 0; i < 200 && !s.dead; i++ {
		w.stepShell(s)
	}
	require.True(t, s.dead)
	assert.True(t, mustTank(t, w, "P0").Alive)
	assert.True(t, w.Journal().Has(EventExpired, "wall"))
}

func TestShell_IgnoresOwnerHullOnLaunch(t *testing.T) {
	w := newWorld(t, config.Default(), WithEmptyLevel(), WithTank("sentry", 300, 300, 0))
	owner := mustTank(t, w, "E0")
	s := &Shell{Owner: owner, Pos: owner.Body.Center, Dir: geom.Heading(0)}
	for range 10 {
		w.stepShell(s)
	}
	assert.True(t, owner.Alive)
	assert.False(t, s.dead)
	assert.True(t, s.leftOwner)
}

func TestTick_FaultSkipsTankAndContinues(t *testing.T) {
	w := newWorld(t, config.Default(), WithEmptyLevel(), WithTank("sentry", 300, 300, 0))
	owner := mustTank(t, w, "E0")
	// A shell the turret never fired: expiring it drives the live count negative.
	w.shells = append(w.shells, &Shell{Owner: owner, Pos: cp.Vector{X: 990, Y: 400}, Dir: geom.Heading(0), leftOwner: true})

	w.RunTicks(5)
	assert.Equal(t, 5, w.CurrentTick())
	assert.Equal(t, 1, w.Stats().Faults)
	assert.True(t, w.Journal().Has(EventFault, "invariant"))
	assert.Empty(t, w.Shells())
}

func TestResolveCollisions_PushesBlockedTank(t *testing.T) {
	w := newWorld(t, config.Default(), WithEmptyLevel(),
		WithTank("sentry", 100, 400, 0),
		WithTank("sentry", 125, 400, 0),
	)
	a, b := mustTank(t, w, "E0"), mustTank(t, w, "E1")
	a.motion = cp.Vector{X: 2}

	w.resolveCollisions()
	assert.InDelta(t, 127, b.Body.Center.X, 1e-9)
	assert.InDelta(t, 100, a.Body.Center.X, 1e-9)
	assert.Equal(t, 1, w.Stats().Collisions)
	assert.True(t, w.Journal().Has(EventCollision, "side-to-side pushed E1"))
}

func TestResolveCollisions_WallAbsorbsPush(t *testing.T) {
	w := newWorld(t, config.Default(), WithEmptyLevel(),
		WithObstacle(141.5, 300, 200),
		WithTank("sentry", 100, 400, 0),
		WithTank("sentry", 125, 400, 0),
	)
	a, b := mustTank(t, w, "E0"), mustTank(t, w, "E1")
	a.motion = cp.Vector{X: 2}

	w.resolveCollisions()
	assert.InDelta(t, 125, b.Body.Center.X, 1e-9)
	assert.InDelta(t, 98, a.Body.Center.X, 1e-9)
	assert.False(t, w.Arena().Blocks(b.Body))
	assert.True(t, w.Journal().Has(EventCollision, "absorbed_x=true"))
}

func TestBattle_HeadOnDuelIsDecided(t *testing.T) {
	w := newWorld(t, battleConfig("player"), WithEmptyLevel(), WithSeed(11),
		WithTank("player", 700, 400, 90),
		WithTank("sentry", 300, 400, 0),
	)
	w.RunTicks(600)
	t.Log(w.Journal().Format())
	require.True(t, w.Over(), w.Report())
	assert.GreaterOrEqual(t, w.Stats().Kills, 1)
	assert.GreaterOrEqual(t, w.Stats().Shots, 1)
	assert.Zero(t, w.Stats().Faults)
	assert.True(t, w.Journal().Has(EventFire, ""))
	assert.True(t, w.Journal().Has(EventOutcome, ""))
}

func TestBattle_SameSeedSameFrames(t *testing.T) {
	run := func() replay.Frame {
		w := newWorld(t, config.Default(), WithSeed(42))
		w.RunTicks(300)
		return w.Snapshot()
	}
	assert.Equal(t, run(), run())
}

func TestBattle_DefaultLevelRunsClean(t *testing.T) {
	w := newWorld(t, config.Default(), WithSeed(7))
	w.RunTicks(1500)
	assert.Zero(t, w.Stats().Faults, w.Journal().Format())
	for _, tk := range w.Tanks() {
		if tk.Alive {
			assert.False(t, w.Arena().Blocks(tk.Body), "%s inside a wall", tk.Label)
		}
	}
	assert.Contains(t, w.Report(), "Outcome:")
}

func TestReplay_RecordsEveryTick(t *testing.T) {
	var buf bytes.Buffer
	w := newWorld(t, config.Default(), WithSeed(9), WithReplay(&buf))
	w.RunTicks(10)
	require.NoError(t, w.FlushReplay())

	rd, err := replay.NewReader(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(9), rd.Header().Seed)
	assert.Len(t, rd.Header().Obstacles, len(w.Arena().Obstacles()))

	n := 0
	for {
		f, err := rd.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		n++
		assert.Equal(t, n, f.Tick)
		assert.Len(t, f.Tanks, len(w.Tanks()))
	}
	assert.Equal(t, w.CurrentTick(), n)
}

func TestAimPreview_TracesFromHull(t *testing.T) {
	w := newWorld(t, battleConfig("player"), WithEmptyLevel(),
		WithTank("player", 700, 400, 0),
		WithTank("sentry", 300, 400, 0),
	)
	tr, err := w.AimPreview(mustTank(t, w, "E1"))
	require.NoError(t, err)
	assert.True(t, tr.Hit)
	assert.Equal(t, sight.OutcomeTarget, tr.Outcome)
}
