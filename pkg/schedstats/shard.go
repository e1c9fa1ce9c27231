package schedstats

import (
	"fmt"
	"strings"

	"github.com/amirkhaki/schedstats/pkg/trace"
)

// Timeline symbols.
const (
	letterStart = 'A'
	separator   = ','
	waitSymbol  = '-'
)

// noInput is the occupant of a core before its first record.
const noInput int64 = -1

// evidence is what the current occupant has revealed about why it may stop
// running. It survives marker records and switches and is dropped only at
// an instruction.
type evidence struct {
	maybeBlocking bool
	exited        bool
	directTarget  int64
}

func noEvidence() evidence {
	return evidence{directTarget: trace.InvalidThreadID}
}

// voluntary reports whether the occupant blocked or exited.
func (e *evidence) voluntary() bool {
	return e.maybeBlocking || e.exited
}

// directTo reports whether the occupant nominated tid to run next.
func (e *evidence) directTo(tid int64) bool {
	return e.directTarget != trace.InvalidThreadID && e.directTarget == tid
}

// Shard is the per-core state. After ShardInit it belongs to the single
// worker feeding that core and is only read again once all workers are done.
type Shard struct {
	index  int
	core   int64
	stream trace.Stream

	counters Counters
	sequence strings.Builder

	prevInput     int64
	segmentInstrs uint64
	prevWasWait   bool
	ev            evidence

	done bool
	err  string
}

func newShard(index int, stream trace.Stream) *Shard {
	return &Shard{
		index:     index,
		core:      stream.CoreID(),
		stream:    stream,
		counters:  newCounters(),
		prevInput: noInput,
		ev:        noEvidence(),
	}
}

// Index is the shard id the shard was registered under.
func (s *Shard) Index() int { return s.index }

// Core is the id of the core the shard represents.
func (s *Shard) Core() int64 { return s.core }

// Counters returns the shard's counters.
func (s *Shard) Counters() *Counters { return &s.counters }

// Schedule returns the timeline recorded so far.
func (s *Shard) Schedule() string { return s.sequence.String() }

// Err returns the shard's stored error message, or "".
func (s *Shard) Err() string { return s.err }

// Done reports whether the record source finished the shard.
func (s *Shard) Done() bool { return s.done }

func (s *Shard) fail(format string, args ...any) {
	s.err = fmt.Sprintf(format, args...)
}

// letter maps an input to 'A'..'Z'. Inputs 26 apart share a letter; the
// separator still marks every switch between them.
func letter(input int64) byte {
	if input < 0 {
		return '?'
	}
	return letterStart + byte(input%26)
}

// onWait handles a CORE_WAIT marker. The first wait of a run emits a wait
// symbol, then one more is emitted per printEvery further waits.
func (s *Shard) onWait(printEvery uint64) {
	s.counters.Waits++
	if !s.prevWasWait {
		s.sequence.WriteByte(waitSymbol)
		s.segmentInstrs = 0
		s.prevWasWait = true
		return
	}
	s.segmentInstrs++
	if s.segmentInstrs == printEvery {
		s.sequence.WriteByte(waitSymbol)
		s.segmentInstrs = 0
	}
}

// switchTo records that input now occupies the core; tid is the thread of
// the record that revealed it. It reports whether a switch was counted.
func (s *Shard) switchTo(input, tid int64) bool {
	switched := s.sequence.Len() > 0
	if switched {
		s.counters.TotalSwitches++
		if s.ev.voluntary() {
			s.counters.VoluntarySwitches++
		}
		if s.ev.directTo(tid) {
			s.counters.DirectSwitches++
		}
		s.sequence.WriteByte(separator)
	}
	s.sequence.WriteByte(letter(input))
	s.segmentInstrs = 0
	s.prevInput = input
	return switched
}

// onInstr counts an instruction of the current occupant. Every instruction
// is a boundary that drops the occupant's evidence.
func (s *Shard) onInstr(printEvery uint64) {
	s.counters.Instrs++
	s.segmentInstrs++
	if s.segmentInstrs == printEvery {
		s.sequence.WriteByte(letter(s.prevInput))
		s.segmentInstrs = 0
	}
	s.ev = noEvidence()
}

func (s *Shard) onMarker(r trace.Record) {
	switch r.Marker {
	case trace.MarkerSyscall:
		s.counters.Syscalls++
	case trace.MarkerMaybeBlockingSyscall:
		s.counters.MaybeBlockingSyscalls++
		s.ev.maybeBlocking = true
	case trace.MarkerDirectThreadSwitch:
		s.counters.DirectSwitchRequests++
		s.ev.directTarget = int64(r.Value)
	}
}
