package sim

import (
	"fmt"
	"sort"
	"strings"
)

// Outcome is how the battle ended.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeVictory
	OutcomeDefeat
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNone:
		return "undecided"
	case OutcomeVictory:
		return "victory"
	case OutcomeDefeat:
		return "defeat"
	default:
		return "unknown"
	}
}

// Stats are running totals for one battle.
type Stats struct {
	Ticks         int
	Shots         int
	Ricochets     int
	Kills         int
	RoutesPlanned int
	NoRoute       int
	Collisions    int
	Faults        int
	Outcome       Outcome
	OutcomeTick   int
}

// Report returns a short human-readable summary of the battle state.
func (w *World) Report() string {
	var sb strings.Builder
	s := w.stats
	fmt.Fprintf(&sb, "--- Battle at T=%03d (seed=%d) ---\n", w.tick, w.seed)
	fmt.Fprintf(&sb, "Outcome: %s", s.Outcome)
	if s.Outcome != OutcomeNone {
		fmt.Fprintf(&sb, " at T=%d", s.OutcomeTick)
	}
	sb.WriteByte('\n')
	fmt.Fprintf(&sb, "Shots: %d  ricochets: %d  kills: %d\n", s.Shots, s.Ricochets, s.Kills)
	fmt.Fprintf(&sb, "Routes: planned=%d no_route=%d  collisions: %d  faults: %d\n",
		s.RoutesPlanned, s.NoRoute, s.Collisions, s.Faults)

	alive := map[string]int{}
	total := map[string]int{}
	for _, t := range w.tanks {
		k := string(t.Arch.Kind)
		total[k]++
		if t.Alive {
			alive[k]++
		}
	}
	kinds := make([]string, 0, len(total))
	for k := range total {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	sb.WriteString("Alive:")
	for _, k := range kinds {
		fmt.Fprintf(&sb, " %s=%d/%d", k, alive[k], total[k])
	}
	sb.WriteByte('\n')
	return sb.String()
}
