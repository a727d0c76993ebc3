package viewer

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Garsondee/tankbattle/internal/config"
	"github.com/Garsondee/tankbattle/internal/sim"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGame(t *testing.T, cfgPath string) *Game {
	t.Helper()
	w, err := sim.New(config.Default(), sim.WithSeed(4))
	require.NoError(t, err)
	return New(w, cfgPath, nil, log.New(io.Discard))
}

func TestReload_RebuildsWorldWithSameSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "battle.yaml")
	require.NoError(t, os.WriteFile(path, []byte("arena: {width: 1200}\n"), 0o600))
	g := newGame(t, path)
	before := g.World()

	g.reload()
	assert.NotSame(t, before, g.World())
	assert.Equal(t, 1200.0, g.World().Arena().Width())
	assert.Equal(t, int64(4), g.World().Seed())
	assert.Equal(t, "config reloaded", g.status)
}

func TestReload_BrokenFileKeepsBattle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "battle.yaml")
	require.NoError(t, os.WriteFile(path, []byte("grid: {interval: -1}\n"), 0o600))
	g := newGame(t, path)
	before := g.World()

	g.reload()
	assert.Same(t, before, g.World())
	assert.True(t, strings.HasPrefix(g.status, "reload failed"))
}

func TestLayout_FitsArenaAndHUD(t *testing.T) {
	g := newGame(t, "")
	w, h := g.Layout(0, 0)
	assert.Equal(t, 1000, w)
	assert.Equal(t, 800+hudHeight, h)
}

func TestHUDLines_ShowsPauseAndStatus(t *testing.T) {
	g := newGame(t, "")
	g.paused = true
	g.setStatus("report copied")
	lines := g.hudLines()
	assert.Contains(t, lines[0], "paused")
	assert.Equal(t, "report copied", lines[len(lines)-1])
}

func TestPollReload_ClosedWatcherStopsReloading(t *testing.T) {
	path := filepath.Join(t.TempDir(), "battle.yaml")
	require.NoError(t, os.WriteFile(path, []byte("arena: {width: 1200}\n"), 0o600))
	watcher, err := config.NewWatcher(path)
	require.NoError(t, err)
	g := newGame(t, path)
	g.watcher = watcher
	before := g.World()

	require.NoError(t, watcher.Close())
	for range 3 {
		g.pollReload()
	}
	assert.Nil(t, g.watcher)
	assert.Same(t, before, g.World(), "closed channel must not trigger a reload")
}
