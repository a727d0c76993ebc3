package sim

import (
	"io"
	"math/rand"

	"github.com/Garsondee/tankbattle/internal/config"
	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
)

// optionKind controls the pass in which an option is applied.
type optionKind int

const (
	optInfra optionKind = iota // map size, obstacles, seed, logging; applied before the arena is built
	optTank                    // add tanks; applied after the level spawns
)

// Option is a builder function applied to a World during construction.
type Option struct {
	kind optionKind
	fn   func(*World)
}

// WithSeed sets the RNG seed for deterministic runs.
func WithSeed(seed int64) Option {
	return Option{optInfra, func(w *World) {
		w.seed = seed
		w.rng = rand.New(rand.NewSource(seed)) // #nosec G404 -- game only
	}}
}

// WithLogger routes operational logging to l.
func WithLogger(l *log.Logger) Option {
	return Option{optInfra, func(w *World) {
		w.logger = l
	}}
}

// WithVerbose keeps per-tick movement events in the journal.
func WithVerbose(v bool) Option {
	return Option{optInfra, func(w *World) {
		w.journal = NewJournal(v)
	}}
}

// WithReplay writes a replay stream to out: the level header once the
// arena is built, then one frame at the end of every tick.
func WithReplay(out io.Writer) Option {
	return Option{optInfra, func(w *World) {
		w.replayOut = out
	}}
}

// WithMapSize sets the playfield dimensions.
func WithMapSize(width, height float64) Option {
	return Option{optInfra, func(w *World) {
		w.cfg.Arena.Width = width
		w.cfg.Arena.Height = height
	}}
}

// WithObstacle adds a square obstacle with top-left (x,y).
func WithObstacle(x, y, size float64) Option {
	return Option{optInfra, func(w *World) {
		w.cfg.Level.Obstacles = append(w.cfg.Level.Obstacles, config.ObstacleSpec{X: x, Y: y, Size: size})
	}}
}

// WithEmptyLevel drops the configured obstacles and spawns so a scenario
// can place its own.
func WithEmptyLevel() Option {
	return Option{optInfra, func(w *World) {
		w.cfg.Level.Obstacles = nil
		w.cfg.Level.Enemies = nil
		w.spawnPlayer = false
	}}
}

// WithTank adds a tank of the named archetype centered at (x,y).
func WithTank(archetype string, x, y, heading float64) Option {
	return Option{optTank, func(w *World) {
		spec, ok := w.cfg.Archetype(archetype)
		if !ok {
			w.optErr = errors.Errorf("sim: unknown archetype %q", archetype)
			return
		}
		w.spawn(spec, x, y, heading)
	}}
}
