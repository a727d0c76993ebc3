// Package viewer draws a running battle with ebiten: obstacles, the
// navigation lattice, outstanding routes, hulls, shells and aim previews.
package viewer

import (
	"fmt"
	"image/color"

	"github.com/Garsondee/tankbattle/internal/config"
	"github.com/Garsondee/tankbattle/internal/geom"
	"github.com/Garsondee/tankbattle/internal/sim"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/log"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"
)

// hudHeight is the strip below the arena reserved for status text.
const hudHeight = 64

// statusTicks is how long a status message stays on screen.
const statusTicks = 180

var (
	groundColor   = color.RGBA{R: 28, G: 34, B: 28, A: 255}
	wallColor     = color.RGBA{R: 90, G: 84, B: 72, A: 255}
	nodeColor     = color.RGBA{R: 60, G: 90, B: 60, A: 255}
	routeColor    = color.RGBA{R: 200, G: 200, B: 80, A: 180}
	playerColor   = color.RGBA{R: 60, G: 140, B: 255, A: 255}
	enemyColor    = color.RGBA{R: 230, G: 70, B: 60, A: 255}
	wreckColor    = color.RGBA{R: 70, G: 70, B: 70, A: 255}
	shellColor    = color.RGBA{R: 255, G: 230, B: 120, A: 255}
	hitRayColor   = color.RGBA{R: 255, G: 60, B: 60, A: 200}
	missRayColor  = color.RGBA{R: 120, G: 120, B: 120, A: 120}
	hudBackground = color.RGBA{R: 6, G: 10, B: 6, A: 255}
	hudText       = color.RGBA{R: 180, G: 220, B: 180, A: 255}
)

// Game implements ebiten.Game around a sim.World.
type Game struct {
	world   *sim.World
	cfgPath string
	seed    int64
	logger  *log.Logger
	watcher *config.Watcher

	paused   bool
	step     bool
	showGrid bool
	showRays bool
	prevKeys map[ebiten.Key]bool

	status      string
	statusTimer int
}

// New returns a viewer for w. cfgPath is reloaded whenever watcher reports
// a change; watcher may be nil.
func New(w *sim.World, cfgPath string, watcher *config.Watcher, logger *log.Logger) *Game {
	return &Game{
		world:    w,
		cfgPath:  cfgPath,
		seed:     w.Seed(),
		logger:   logger,
		watcher:  watcher,
		showRays: true,
		prevKeys: map[ebiten.Key]bool{},
	}
}

func (g *Game) World() *sim.World { return g.world }

func (g *Game) Update() error {
	g.handleInput()
	g.pollReload()
	if g.statusTimer > 0 {
		g.statusTimer--
	}
	if (!g.paused || g.step) && !g.world.Over() {
		g.world.Tick()
	}
	g.step = false
	return nil
}

// pressed reports a key going down this frame.
func (g *Game) pressed(k ebiten.Key, current map[ebiten.Key]bool) bool {
	current[k] = ebiten.IsKeyPressed(k)
	return current[k] && !g.prevKeys[k]
}

func (g *Game) handleInput() {
	currentKeys := map[ebiten.Key]bool{}

	if g.pressed(ebiten.KeySpace, currentKeys) {
		g.paused = !g.paused
	}
	if g.pressed(ebiten.KeyPeriod, currentKeys) {
		g.paused = true
		g.step = true
	}
	if g.pressed(ebiten.KeyG, currentKeys) {
		g.showGrid = !g.showGrid
	}
	if g.pressed(ebiten.KeyR, currentKeys) {
		g.showRays = !g.showRays
	}
	if g.pressed(ebiten.KeyC, currentKeys) {
		if err := clipboard.WriteAll(g.world.Report()); err != nil {
			g.logger.Warn("clipboard unavailable", "err", err)
			g.setStatus("clipboard unavailable")
		} else {
			g.setStatus("report copied")
		}
	}

	g.prevKeys = currentKeys
}

func (g *Game) setStatus(s string) {
	g.status = s
	g.statusTimer = statusTicks
}

func (g *Game) pollReload() {
	if g.watcher == nil {
		return
	}
	select {
	case _, ok := <-g.watcher.Events:
		if !ok {
			g.stopWatching()
			return
		}
		g.reload()
	case err, ok := <-g.watcher.Errors:
		if !ok {
			g.stopWatching()
			return
		}
		g.logger.Warn("config watcher", "err", err)
	default:
	}
}

// stopWatching drops a watcher whose channels were closed.
func (g *Game) stopWatching() {
	g.logger.Info("config watcher closed; hot reload off")
	g.watcher = nil
}

// reload rebuilds the world from the config file with the same seed. A
// broken file leaves the current battle running.
func (g *Game) reload() {
	cfg, err := config.Load(g.cfgPath)
	if err != nil {
		g.logger.Error("config reload failed", "err", err)
		g.setStatus("reload failed: see log")
		return
	}
	w, err := sim.New(cfg, sim.WithSeed(g.seed), sim.WithLogger(g.logger))
	if err != nil {
		g.logger.Error("world rebuild failed", "err", err)
		g.setStatus("reload failed: see log")
		return
	}
	g.world = w
	g.logger.Info("config reloaded", "path", g.cfgPath)
	g.setStatus("config reloaded")
}

func (g *Game) Layout(_, _ int) (int, int) {
	a := g.world.Arena()
	return int(a.Width()), int(a.Height()) + hudHeight
}

func (g *Game) Draw(screen *ebiten.Image) {
	a := g.world.Arena()
	screen.Fill(hudBackground)
	vector.FillRect(screen, 0, 0, float32(a.Width()), float32(a.Height()), groundColor, false)

	for _, o := range a.Obstacles() {
		vector.FillRect(screen, float32(o.X), float32(o.Y), float32(o.Size), float32(o.Size), wallColor, false)
	}
	if g.showGrid {
		for _, n := range g.world.Grid().Nodes() {
			vector.FillCircle(screen, float32(n.Pos.X), float32(n.Pos.Y), 1.5, nodeColor, false)
		}
	}
	for _, t := range g.world.Tanks() {
		if t.Alive && t.Route() != nil {
			g.drawRoute(screen, t)
		}
	}
	if g.showRays {
		for _, t := range g.world.Tanks() {
			if t.Alive {
				g.drawAim(screen, t)
			}
		}
	}
	for _, t := range g.world.Tanks() {
		drawTank(screen, t)
	}
	for _, s := range g.world.Shells() {
		vector.FillCircle(screen, float32(s.Pos.X), float32(s.Pos.Y),
			float32(g.world.Config().Projectile.Radius), shellColor, true)
	}
	g.drawHUD(screen)
}

func (g *Game) drawRoute(screen *ebiten.Image, t *sim.Tank) {
	prev := t.Body.Center
	for _, p := range t.Route().Points() {
		vector.StrokeLine(screen, float32(prev.X), float32(prev.Y), float32(p.X), float32(p.Y), 1, routeColor, true)
		prev = p
	}
}

func (g *Game) drawAim(screen *ebiten.Image, t *sim.Tank) {
	tr, err := g.world.AimPreview(t)
	if err != nil {
		return
	}
	clr := missRayColor
	if tr.Hit {
		clr = hitRayColor
	}
	for i := 1; i < len(tr.Path); i++ {
		a, b := tr.Path[i-1], tr.Path[i]
		vector.StrokeLine(screen, float32(a.X), float32(a.Y), float32(b.X), float32(b.Y), 1, clr, true)
	}
}

func drawTank(screen *ebiten.Image, t *sim.Tank) {
	clr := enemyColor
	switch {
	case !t.Alive:
		clr = wreckColor
	case t.Arch.Kind == sim.PlayerKind:
		clr = playerColor
	}
	c := t.Body.Corners()
	for i := range c {
		a, b := c[i], c[(i+1)%len(c)]
		vector.StrokeLine(screen, float32(a.X), float32(a.Y), float32(b.X), float32(b.Y), 2, clr, true)
	}
	if !t.Alive {
		return
	}
	barrel := t.Body.Center.Add(geom.Heading(t.Turret().Heading()).Mult(t.Body.HalfLength + 6))
	vector.StrokeLine(screen, float32(t.Body.Center.X), float32(t.Body.Center.Y),
		float32(barrel.X), float32(barrel.Y), 3, clr, true)
}

func (g *Game) drawHUD(screen *ebiten.Image) {
	y := int(g.world.Arena().Height()) + 16
	for i, line := range g.hudLines() {
		text.Draw(screen, line, basicfont.Face7x13, 8, y+i*16, hudText)
	}
}

func (g *Game) hudLines() []string {
	s := g.world.Stats()
	state := "running"
	switch {
	case g.world.Over():
		state = s.Outcome.String()
	case g.paused:
		state = "paused"
	}
	lines := []string{
		fmt.Sprintf("T=%04d  %s  shots=%d ricochets=%d kills=%d  routes=%d no_route=%d faults=%d",
			g.world.CurrentTick(), state, s.Shots, s.Ricochets, s.Kills, s.RoutesPlanned, s.NoRoute, s.Faults),
		"Space=pause  .=step  G=grid  R=rays  C=copy report",
	}
	if g.statusTimer > 0 {
		lines = append(lines, g.status)
	}
	return lines
}
