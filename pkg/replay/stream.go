package replay

import "github.com/amirkhaki/schedstats/pkg/trace"

// inputState is the sub-stream of one input as seen from one shard.
type inputState struct {
	refs          uint64
	instrs        uint64
	lastTimestamp uint64
}

func (in *inputState) RecordOrdinal() uint64      { return in.refs }
func (in *inputState) InstructionOrdinal() uint64 { return in.instrs }
func (in *inputState) LastTimestamp() uint64      { return in.lastTimestamp }

// stream replays the entries of one shard. It is only touched by the worker
// that owns the shard.
type stream struct {
	core   int64
	input  int64
	refs   uint64
	instrs uint64
	inputs map[int64]*inputState
}

func newStream(core int64) *stream {
	return &stream{
		core:   core,
		input:  -1,
		inputs: make(map[int64]*inputState),
	}
}

func (s *stream) CoreID() int64              { return s.core }
func (s *stream) InputID() int64             { return s.input }
func (s *stream) RecordOrdinal() uint64      { return s.refs }
func (s *stream) InstructionOrdinal() uint64 { return s.instrs }

func (s *stream) Input() trace.InputStream {
	return s.inputState(s.input)
}

func (s *stream) inputState(id int64) *inputState {
	in, ok := s.inputs[id]
	if !ok {
		in = &inputState{}
		s.inputs[id] = in
	}
	return in
}

// advance moves the stream onto e, which is about to be delivered.
func (s *stream) advance(e trace.Entry) {
	s.input = e.Input
	in := s.inputState(e.Input)
	s.refs++
	in.refs++
	if e.IsInstr() {
		s.instrs++
		in.instrs++
	}
	if e.IsMarker(trace.MarkerTimestamp) {
		in.lastTimestamp = e.Value
	}
}
