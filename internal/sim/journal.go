package sim

import (
	"fmt"
	"strings"
)

// EventType names one kind of battle event.
type EventType string

const (
	EventRoutePlanned EventType = "route.planned"
	EventNoRoute      EventType = "route.none"
	EventRouteStuck   EventType = "route.stuck"
	EventMove         EventType = "move" // verbose only
	EventTurretState  EventType = "turret.state"
	EventFire         EventType = "turret.fire"
	EventRicochet     EventType = "shell.ricochet"
	EventExpired      EventType = "shell.expired"
	EventKill         EventType = "shell.kill"
	EventCollision    EventType = "collision"
	EventFault        EventType = "fault"
	EventOutcome      EventType = "outcome"
)

// Event is one journal line. Tank is empty for battle-wide events.
type Event struct {
	Tick   int
	Tank   string
	Type   EventType
	Detail string
	Value  float64
}

// String renders the event as a fixed-width line:
//
//	[T=042] E1   turret.fire     heading=183.2
func (e Event) String() string {
	tank := e.Tank
	if tank == "" {
		tank = "--"
	}
	return fmt.Sprintf("[T=%03d] %-4s %-15s %s", e.Tick, tank, e.Type, e.Detail)
}

// Journal keeps every event of a battle in tick order, indexed by type so
// the report can ask when something first happened and how often.
type Journal struct {
	events  []Event
	first   map[EventType]int
	counts  map[EventType]int
	verbose bool
}

// NewJournal returns an empty journal. Move events are dropped unless
// verbose is set.
func NewJournal(verbose bool) *Journal {
	return &Journal{
		first:   make(map[EventType]int),
		counts:  make(map[EventType]int),
		verbose: verbose,
	}
}

func (j *Journal) Record(tick int, tank string, typ EventType, detail string, value float64) {
	if typ == EventMove && !j.verbose {
		return
	}
	j.events = append(j.events, Event{Tick: tick, Tank: tank, Type: typ, Detail: detail, Value: value})
	if _, ok := j.first[typ]; !ok {
		j.first[typ] = tick
	}
	j.counts[typ]++
}

// First returns the tick of the first event of typ, or -1.
func (j *Journal) First(typ EventType) int {
	if t, ok := j.first[typ]; ok {
		return t
	}
	return -1
}

func (j *Journal) Count(typ EventType) int { return j.counts[typ] }

// Has reports whether an event of typ has a detail containing substr.
func (j *Journal) Has(typ EventType, substr string) bool {
	for _, e := range j.events {
		if e.Type == typ && strings.Contains(e.Detail, substr) {
			return true
		}
	}
	return false
}

// Of returns the events of typ in order.
func (j *Journal) Of(typ EventType) []Event {
	var out []Event
	for _, e := range j.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

// Format renders the whole journal, one event per line.
func (j *Journal) Format() string {
	var sb strings.Builder
	for _, e := range j.events {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
