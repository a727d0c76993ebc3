package main

import (
	"flag"
	"os"

	"github.com/Garsondee/tankbattle/internal/config"
	"github.com/Garsondee/tankbattle/internal/sim"
	"github.com/Garsondee/tankbattle/internal/viewer"
	"github.com/charmbracelet/log"
	"github.com/hajimehoshi/ebiten/v2"
)

func main() {
	var cfgPath string
	var seed int64
	var level string

	flag.StringVar(&cfgPath, "config", "", "battle config YAML (defaults built in); watched for changes")
	flag.Int64Var(&seed, "seed", 1, "RNG seed")
	flag.StringVar(&level, "log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "tankbattle"})
	lvl, err := log.ParseLevel(level)
	if err != nil {
		logger.Fatal("bad -log-level", "err", err)
	}
	logger.SetLevel(lvl)

	cfg := config.Default()
	var watcher *config.Watcher
	if cfgPath != "" {
		if cfg, err = config.Load(cfgPath); err != nil {
			logger.Fatal("load config", "err", err)
		}
		if watcher, err = config.NewWatcher(cfgPath); err != nil {
			logger.Warn("config hot reload disabled", "err", err)
		} else {
			defer watcher.Close()
		}
	}

	world, err := sim.New(cfg, sim.WithSeed(seed), sim.WithLogger(logger))
	if err != nil {
		logger.Fatal("build world", "err", err)
	}

	ebiten.SetWindowTitle("Tank Battle")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if err := ebiten.RunGame(viewer.New(world, cfgPath, watcher, logger)); err != nil {
		logger.Fatal("viewer", "err", err)
	}
}
