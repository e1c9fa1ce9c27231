package schedstats

import "maps"

// Counters accumulates the scheduling statistics of one core, or of all
// cores once summed with Add.
type Counters struct {
	// Threads is the set of thread ids seen.
	Threads map[int64]struct{}

	Instrs                uint64
	TotalSwitches         uint64
	VoluntarySwitches     uint64
	DirectSwitches        uint64
	Syscalls              uint64
	MaybeBlockingSyscalls uint64
	DirectSwitchRequests  uint64
	Waits                 uint64
}

func newCounters() Counters {
	return Counters{Threads: make(map[int64]struct{})}
}

func (c *Counters) addThread(tid int64) {
	if c.Threads == nil {
		c.Threads = make(map[int64]struct{})
	}
	c.Threads[tid] = struct{}{}
}

// ThreadCount returns the number of distinct thread ids seen.
func (c *Counters) ThreadCount() int {
	return len(c.Threads)
}

// Add sums o into c. Thread sets are unioned, so a thread that migrated
// between cores is counted once in the total.
// Clone returns a copy of c that shares no state with it.
func (c *Counters) Clone() Counters {
	out := *c
	out.Threads = maps.Clone(c.Threads)
	return out
}

func (c *Counters) Add(o *Counters) {
	for tid := range o.Threads {
		c.addThread(tid)
	}
	c.Instrs += o.Instrs
	c.TotalSwitches += o.TotalSwitches
	c.VoluntarySwitches += o.VoluntarySwitches
	c.DirectSwitches += o.DirectSwitches
	c.Syscalls += o.Syscalls
	c.MaybeBlockingSyscalls += o.MaybeBlockingSyscalls
	c.DirectSwitchRequests += o.DirectSwitchRequests
	c.Waits += o.Waits
}

// Ratios holds the values derived from Counters. A ratio whose divisor is
// zero is left unset and its Has flag is false.
type Ratios struct {
	// SwitchesPerKiloInstr is context switches per 1000 instructions.
	SwitchesPerKiloInstr float64
	HasSwitchesPerKilo   bool

	InstrsPerSwitch  float64
	VoluntaryPercent float64
	DirectPercent    float64
	HasPerSwitch     bool
}

// Ratios computes the derived ratios. Every ratio is guarded by its own
// divisor: instructions for CSPKI, total switches for the rest.
func (c *Counters) Ratios() Ratios {
	var r Ratios
	if c.Instrs > 0 {
		r.SwitchesPerKiloInstr = 1000 * float64(c.TotalSwitches) / float64(c.Instrs)
		r.HasSwitchesPerKilo = true
	}
	if c.TotalSwitches > 0 {
		total := float64(c.TotalSwitches)
		r.InstrsPerSwitch = float64(c.Instrs) / total
		r.VoluntaryPercent = 100 * float64(c.VoluntarySwitches) / total
		r.DirectPercent = 100 * float64(c.DirectSwitches) / total
		r.HasPerSwitch = true
	}
	return r
}
