package schedstats

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/amirkhaki/schedstats/pkg/trace"
)

// ShardRecord updates sh with the next record of its core. It returns false
// after storing an error on sh if the record cannot be classified.
func (t *Tool) ShardRecord(sh *Shard, r trace.Record) bool {
	if t.cfg.Verbose >= 4 {
		t.logRecord(sh, r)
	}
	if r.Kind < trace.KindInstr || r.Kind > trace.KindThreadExit {
		sh.fail("unknown record kind %d at record ordinal %d", uint8(r.Kind), sh.stream.RecordOrdinal())
		return false
	}
	if r.IsMarker(trace.MarkerCoreWait) {
		sh.onWait(t.cfg.PrintEvery)
		return true
	}

	if input := sh.stream.InputID(); input != sh.prevInput {
		sh.switchTo(input, r.Tid)
		if t.cfg.Verbose >= 2 {
			t.logSwitch(sh, r)
		}
	}
	if r.IsInstr() {
		sh.onInstr(t.cfg.PrintEvery)
	}
	if r.Tid != trace.InvalidThreadID {
		sh.counters.addThread(r.Tid)
	}
	switch r.Kind {
	case trace.KindMarker:
		sh.onMarker(r)
	case trace.KindThreadExit:
		sh.ev.exited = true
	}
	sh.prevWasWait = false
	return true
}

func streamFields(sh *Shard) []zap.Field {
	fields := []zap.Field{
		zap.Int64("core", sh.core),
		zap.Uint64("refs", sh.stream.RecordOrdinal()),
		zap.Uint64("instrs", sh.stream.InstructionOrdinal()),
		zap.Int64("input", sh.stream.InputID()),
	}
	if in := sh.stream.Input(); in != nil {
		fields = append(fields,
			zap.Uint64("input_refs", in.RecordOrdinal()),
			zap.Uint64("input_instrs", in.InstructionOrdinal()),
		)
	}
	return fields
}

func (t *Tool) logRecord(sh *Shard, r trace.Record) {
	fields := append(streamFields(sh), zap.Stringer("kind", r.Kind))
	switch r.Kind {
	case trace.KindInstr:
		fields = append(fields, zap.String("pc", "0x"+strconv.FormatUint(r.PC, 16)))
	case trace.KindMarker:
		fields = append(fields, zap.Stringer("marker", r.Marker), zap.Uint64("val", r.Value))
	}
	t.logger.Debug("record", fields...)
}

func (t *Tool) logSwitch(sh *Shard, r trace.Record) {
	fields := streamFields(sh)
	if in := sh.stream.Input(); in != nil {
		fields = append(fields, zap.Uint64("time", in.LastTimestamp()))
	}
	fields = append(fields, zap.Int64("thread", r.Tid))
	t.logger.Debug("input switch", fields...)
}
