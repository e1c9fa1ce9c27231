// Package synth generates synthetic core-sharded traces. The same Config
// (seed included) always produces the same trace.
package synth

import (
	"errors"
	"math/rand"
	"slices"

	"github.com/amirkhaki/schedstats/pkg/trace"
)

// Config controls the shape of a generated trace.
type Config struct {
	Cores    int
	Inputs   int
	Segments int // scheduling segments per core
	// MaxInstrs bounds the instructions run per segment.
	MaxInstrs int
	// MaxWaits bounds the CORE_WAIT markers of an idle period.
	MaxWaits int
	Seed     int64
}

// DefaultConfig returns a small four-core trace shape.
func DefaultConfig() Config {
	return Config{
		Cores:     4,
		Inputs:    8,
		Segments:  32,
		MaxInstrs: 20000,
		MaxWaits:  5000,
		Seed:      1,
	}
}

func (c Config) validate() error {
	switch {
	case c.Cores <= 0:
		return errors.New("cores must be positive")
	case c.Inputs <= 0:
		return errors.New("inputs must be positive")
	case c.Segments < 0:
		return errors.New("segments must not be negative")
	case c.MaxInstrs <= 0:
		return errors.New("max instrs must be positive")
	case c.MaxWaits <= 0:
		return errors.New("max waits must be positive")
	}
	return nil
}

// How a segment ends.
const (
	endPreempt = iota
	endBlocking
	endDirect
	endExit
	endIdle
	numEnds
)

// threadBase is the thread id of input 0.
const threadBase = 1000

func tidOf(input int64) int64 { return threadBase + input }

type coreState struct {
	id   int64
	next int64 // input nominated by a direct switch, or -1
	left int   // segments still to emit
}

type generator struct {
	cfg     Config
	rng     *rand.Rand
	alive   []int64 // sorted input ids that have not exited
	clock   uint64
	pc      uint64
	entries []trace.Entry
}

// Generate builds a trace. Segments of all cores are emitted round-robin so
// the result interleaves cores the way a recorded trace would.
func Generate(cfg Config) ([]trace.Entry, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	g := &generator{
		cfg:   cfg,
		rng:   rand.New(rand.NewSource(cfg.Seed)),
		clock: 1,
		pc:    0x400000,
	}
	for i := 0; i < cfg.Inputs; i++ {
		g.alive = append(g.alive, int64(i))
	}

	cores := make([]*coreState, cfg.Cores)
	for i := range cores {
		cores[i] = &coreState{id: int64(i), next: -1, left: cfg.Segments}
	}
	for remaining := cfg.Cores; remaining > 0; {
		remaining = 0
		for _, c := range cores {
			if c.left == 0 {
				continue
			}
			g.segment(c)
			c.left--
			if c.left > 0 {
				remaining++
			}
		}
	}
	return g.entries, nil
}

func (g *generator) emit(core, input int64, r trace.Record) {
	g.entries = append(g.entries, trace.Entry{Core: core, Input: input, Record: r})
}

func (g *generator) idle(core int64) {
	n := 1 + g.rng.Intn(g.cfg.MaxWaits)
	for i := 0; i < n; i++ {
		g.emit(core, -1, trace.Marker(trace.InvalidThreadID, trace.MarkerCoreWait, 0))
	}
}

// pick chooses the next input for c, honoring a pending direct switch.
func (g *generator) pick(c *coreState) (int64, bool) {
	if len(g.alive) == 0 {
		return -1, false
	}
	if c.next >= 0 {
		next := c.next
		c.next = -1
		if _, ok := slices.BinarySearch(g.alive, next); ok {
			return next, true
		}
	}
	return g.alive[g.rng.Intn(len(g.alive))], true
}

func (g *generator) segment(c *coreState) {
	input, ok := g.pick(c)
	if !ok {
		g.idle(c.id)
		return
	}
	tid := tidOf(input)

	g.clock += uint64(1 + g.rng.Intn(1000))
	g.emit(c.id, input, trace.Marker(tid, trace.MarkerTimestamp, g.clock))
	g.emit(c.id, input, trace.Marker(tid, trace.MarkerCPUID, uint64(c.id)))

	n := 1 + g.rng.Intn(g.cfg.MaxInstrs)
	for i := 0; i < n; i++ {
		g.pc += 4
		g.emit(c.id, input, trace.Instr(tid, g.pc))
		if g.rng.Intn(4) == 0 {
			g.emit(c.id, input, trace.Data(tid, 0x7f0000+uint64(g.rng.Intn(4096))*8))
		}
	}

	switch g.rng.Intn(numEnds) {
	case endPreempt:
	case endBlocking:
		g.emit(c.id, input, trace.Marker(tid, trace.MarkerSyscall, 7))
		g.emit(c.id, input, trace.Marker(tid, trace.MarkerMaybeBlockingSyscall, 7))
	case endDirect:
		target := g.alive[g.rng.Intn(len(g.alive))]
		g.emit(c.id, input, trace.Marker(tid, trace.MarkerSyscall, 202))
		g.emit(c.id, input, trace.Marker(tid, trace.MarkerDirectThreadSwitch, uint64(tidOf(target))))
		c.next = target
	case endExit:
		// The last input never exits so every core keeps something to run.
		if len(g.alive) > 1 {
			g.emit(c.id, input, trace.Exit(tid))
			i, _ := slices.BinarySearch(g.alive, input)
			g.alive = slices.Delete(g.alive, i, i+1)
		}
	case endIdle:
		g.idle(c.id)
	}
}
