package schedstats

import (
	"bufio"
	"fmt"
	"io"
)

// ToolName heads the textual report.
const ToolName = "Schedule stats tool"

// CoreSummary is the final state of one shard.
type CoreSummary struct {
	Shard    int
	Core     int64
	Counters Counters
	Schedule string
	Err      string
}

// Summary is the aggregated result of a run.
type Summary struct {
	Total Counters
	Cores []CoreSummary
}

// Aggregate sums the counters of every shard in v.
func Aggregate(v *View) Summary {
	s := Summary{Total: newCounters()}
	for id, sh := range v.All() {
		s.Total.Add(&sh.counters)
		s.Cores = append(s.Cores, CoreSummary{
			Shard:    id,
			Core:     sh.core,
			Counters: sh.counters.Clone(),
			Schedule: sh.Schedule(),
			Err:      sh.err,
		})
	}
	return s
}

// WriteReport renders s: the total counts, the counts of each core, any
// shard errors, then each core's schedule.
func WriteReport(w io.Writer, s Summary) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s results:\n", ToolName)
	fmt.Fprintf(bw, "Total counts:\n")
	fmt.Fprintf(bw, "%12d cores\n", len(s.Cores))
	writeCounters(bw, &s.Total)
	for i := range s.Cores {
		c := &s.Cores[i]
		fmt.Fprintf(bw, "Core #%d counts:\n", c.Core)
		writeCounters(bw, &c.Counters)
	}
	for _, c := range s.Cores {
		if c.Err != "" {
			fmt.Fprintf(bw, "Core #%d error: %s\n", c.Core, c.Err)
		}
	}
	for _, c := range s.Cores {
		fmt.Fprintf(bw, "Core #%d schedule: %s\n", c.Core, c.Schedule)
	}
	return bw.Flush()
}

func writeCounters(w io.Writer, c *Counters) {
	r := c.Ratios()
	fmt.Fprintf(w, "%12d threads\n", c.ThreadCount())
	fmt.Fprintf(w, "%12d instructions\n", c.Instrs)
	fmt.Fprintf(w, "%12d total context switches\n", c.TotalSwitches)
	if r.HasSwitchesPerKilo {
		fmt.Fprintf(w, "%12.7f CSPKI (context switches per 1000 instructions)\n", r.SwitchesPerKiloInstr)
	}
	if r.HasPerSwitch {
		fmt.Fprintf(w, "%12.0f instructions per context switch\n", r.InstrsPerSwitch)
	}
	fmt.Fprintf(w, "%12d voluntary context switches\n", c.VoluntarySwitches)
	fmt.Fprintf(w, "%12d direct context switches\n", c.DirectSwitches)
	if r.HasPerSwitch {
		fmt.Fprintf(w, "%12.2f%% voluntary switches\n", r.VoluntaryPercent)
		fmt.Fprintf(w, "%12.2f%% direct switches\n", r.DirectPercent)
	}
	fmt.Fprintf(w, "%12d system calls\n", c.Syscalls)
	fmt.Fprintf(w, "%12d maybe-blocking system calls\n", c.MaybeBlockingSyscalls)
	fmt.Fprintf(w, "%12d direct switch requests\n", c.DirectSwitchRequests)
	fmt.Fprintf(w, "%12d waits\n", c.Waits)
}
