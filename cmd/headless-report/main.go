package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Garsondee/tankbattle/internal/config"
	"github.com/Garsondee/tankbattle/internal/sim"
	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
)

type runStats struct {
	runIndex int
	seed     int64

	stats sim.Stats

	firstShotTick     int
	firstRicochetTick int
	firstKillTick     int

	stuckEvents int
	faultLines  []string
}

func main() {
	var runs int
	var ticks int
	var seedBase int64
	var seedStep int64
	var cfgPath string
	var record string
	var level string

	flag.IntVar(&runs, "runs", 5, "number of headless battles")
	flag.IntVar(&ticks, "ticks", 3600, "tick limit per battle")
	flag.Int64Var(&seedBase, "seed-base", 42, "base RNG seed for run 1")
	flag.Int64Var(&seedStep, "seed-step", 1, "seed increment between runs")
	flag.StringVar(&cfgPath, "config", "", "battle config YAML (defaults built in)")
	flag.StringVar(&record, "record", "", "write a msgpack replay of run 1 to this file")
	flag.StringVar(&level, "log-level", "warn", "log level: debug, info, warn, error")
	flag.Parse()

	if runs <= 0 {
		fmt.Println("error: -runs must be > 0")
		return
	}
	if ticks <= 0 {
		fmt.Println("error: -ticks must be > 0")
		return
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "headless-report"})
	lvl, err := log.ParseLevel(level)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	logger.SetLevel(lvl)

	cfg := config.Default()
	if cfgPath != "" {
		if cfg, err = config.Load(cfgPath); err != nil {
			fmt.Printf("error: %v\n", err)
			return
		}
	}

	fmt.Printf("=== Headless Battle Report ===\n")
	fmt.Printf("runs=%d ticks=%d seed_base=%d seed_step=%d\n\n", runs, ticks, seedBase, seedStep)

	all := make([]runStats, 0, runs)
	for i := 0; i < runs; i++ {
		seed := seedBase + int64(i)*seedStep
		var out io.Writer
		if i == 0 && record != "" {
			f, err := os.Create(record)
			if err != nil {
				fmt.Printf("error: %v\n", err)
				return
			}
			defer f.Close()
			out = f
		}
		rs, err := runBattle(cfg, i+1, seed, ticks, logger, out)
		if err != nil {
			fmt.Printf("error: run %d: %v\n", i+1, err)
			return
		}
		all = append(all, rs)
		printRun(rs)
	}

	printAggregate(all)
}

func runBattle(cfg *config.Config, runIndex int, seed int64, ticks int, logger *log.Logger, replayOut io.Writer) (runStats, error) {
	opts := []sim.Option{sim.WithSeed(seed), sim.WithLogger(logger)}
	if replayOut != nil {
		opts = append(opts, sim.WithReplay(replayOut))
	}
	w, err := sim.New(cfg, opts...)
	if err != nil {
		return runStats{}, err
	}
	w.RunTicks(ticks)
	if err := w.FlushReplay(); err != nil {
		return runStats{}, errors.Wrap(err, "flush replay")
	}
	return collect(runIndex, seed, w.Stats(), w.Journal()), nil
}

func collect(runIndex int, seed int64, stats sim.Stats, j *sim.Journal) runStats {
	rs := runStats{
		runIndex:          runIndex,
		seed:              seed,
		stats:             stats,
		firstShotTick:     j.First(sim.EventFire),
		firstRicochetTick: j.First(sim.EventRicochet),
		firstKillTick:     j.First(sim.EventKill),
		stuckEvents:       j.Count(sim.EventRouteStuck),
	}
	for _, e := range j.Of(sim.EventFault) {
		rs.faultLines = append(rs.faultLines, e.String())
	}
	return rs
}

func printRun(rs runStats) {
	s := rs.stats
	fmt.Printf("--- Run %d (seed=%d) ---\n", rs.runIndex, rs.seed)
	fmt.Printf("outcome=%s at_tick=%d ticks=%d\n", s.Outcome, s.OutcomeTick, s.Ticks)
	fmt.Printf("phase_markers: first_shot=%d first_ricochet=%d first_kill=%d\n",
		rs.firstShotTick, rs.firstRicochetTick, rs.firstKillTick)
	fmt.Printf("event_totals: shots=%d ricochets=%d kills=%d collisions=%d\n",
		s.Shots, s.Ricochets, s.Kills, s.Collisions)
	fmt.Printf("routing: planned=%d no_route=%d stuck=%d\n", s.RoutesPlanned, s.NoRoute, rs.stuckEvents)
	fmt.Printf("faults=%d\n", s.Faults)
	for _, l := range rs.faultLines {
		fmt.Printf("  %s\n", l)
	}
	fmt.Println()
}

func printAggregate(all []runStats) {
	var shots, ricochets, kills, collisions, planned, noRoute, faults int
	outcomes := map[sim.Outcome]int{}
	var killTicks, outcomeTicks []int
	for _, rs := range all {
		s := rs.stats
		shots += s.Shots
		ricochets += s.Ricochets
		kills += s.Kills
		collisions += s.Collisions
		planned += s.RoutesPlanned
		noRoute += s.NoRoute
		faults += s.Faults
		outcomes[s.Outcome]++
		if rs.firstKillTick >= 0 {
			killTicks = append(killTicks, rs.firstKillTick)
		}
		if s.Outcome != sim.OutcomeNone {
			outcomeTicks = append(outcomeTicks, s.OutcomeTick)
		}
	}

	fmt.Println("=== Aggregate ===")
	fmt.Printf("runs=%d\n", len(all))
	fmt.Printf("outcomes: %s\n", formatOutcomes(outcomes))
	fmt.Printf("avg_events_per_run: shots=%.1f ricochets=%.1f kills=%.1f collisions=%.1f\n",
		avg(shots, len(all)), avg(ricochets, len(all)), avg(kills, len(all)), avg(collisions, len(all)))
	fmt.Printf("avg_routing_per_run: planned=%.1f no_route=%.1f\n", avg(planned, len(all)), avg(noRoute, len(all)))
	fmt.Printf("phase_marker_avg_ticks: first_kill=%s decided=%s\n", avgTickString(killTicks), avgTickString(outcomeTicks))
	fmt.Printf("total_faults=%d\n", faults)
}

func formatOutcomes(counts map[sim.Outcome]int) string {
	parts := make([]string, 0, 3)
	for _, o := range []sim.Outcome{sim.OutcomeVictory, sim.OutcomeDefeat, sim.OutcomeNone} {
		parts = append(parts, fmt.Sprintf("%s=%d", o, counts[o]))
	}
	return strings.Join(parts, " ")
}

func avg(sum int, n int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

func avgTickString(vals []int) string {
	if len(vals) == 0 {
		return "n/a"
	}
	sum := 0
	for _, v := range vals {
		sum += v
	}
	return fmt.Sprintf("%.1f", float64(sum)/float64(len(vals)))
}
