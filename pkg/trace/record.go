// Package trace defines the records fed to trace analysis tools, the stream
// contract a record source exposes per shard, and a JSON-lines trace file codec.
package trace

import "fmt"

// InvalidThreadID marks a record that carries no thread id.
const InvalidThreadID int64 = -1

// Kind represents the type of record
type Kind uint8

const (
	KindInstr Kind = iota + 1
	KindData
	KindMarker
	KindThreadExit
)

func (k Kind) String() string {
	switch k {
	case KindInstr:
		return "instr"
	case KindData:
		return "data"
	case KindMarker:
		return "marker"
	case KindThreadExit:
		return "exit"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if k < KindInstr || k > KindThreadExit {
		return nil, fmt.Errorf("invalid record kind %d", uint8(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "instr":
		*k = KindInstr
	case "data":
		*k = KindData
	case "marker":
		*k = KindMarker
	case "exit":
		*k = KindThreadExit
	default:
		return fmt.Errorf("unknown record kind %q", b)
	}
	return nil
}

// MarkerType is the subtype of a marker record.
type MarkerType uint8

const (
	MarkerOther MarkerType = iota
	MarkerSyscall
	MarkerMaybeBlockingSyscall
	MarkerDirectThreadSwitch
	MarkerCoreWait
	MarkerTimestamp
	MarkerCPUID
)

var markerNames = [...]string{
	MarkerOther:                "other",
	MarkerSyscall:              "syscall",
	MarkerMaybeBlockingSyscall: "maybe_blocking_syscall",
	MarkerDirectThreadSwitch:   "direct_thread_switch",
	MarkerCoreWait:             "core_wait",
	MarkerTimestamp:            "timestamp",
	MarkerCPUID:                "cpu_id",
}

func (m MarkerType) String() string {
	if int(m) < len(markerNames) {
		return markerNames[m]
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (m MarkerType) MarshalText() ([]byte, error) {
	if int(m) >= len(markerNames) {
		return nil, fmt.Errorf("invalid marker type %d", uint8(m))
	}
	return []byte(markerNames[m]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *MarkerType) UnmarshalText(b []byte) error {
	for i, name := range markerNames {
		if name == string(b) {
			*m = MarkerType(i)
			return nil
		}
	}
	return fmt.Errorf("unknown marker type %q", b)
}

// Record is one entry of a trace as seen by an analysis tool.
type Record struct {
	Kind   Kind       `json:"kind"`
	Tid    int64      `json:"tid"`
	PC     uint64     `json:"pc,omitempty"`   // instructions only
	Addr   uint64     `json:"addr,omitempty"` // data accesses only
	Marker MarkerType `json:"marker,omitempty"`
	Value  uint64     `json:"value,omitempty"` // marker payload
}

// IsInstr reports whether r is an instruction fetch.
func (r Record) IsInstr() bool {
	return r.Kind == KindInstr
}

// IsMarker reports whether r is a marker of type m.
func (r Record) IsMarker(m MarkerType) bool {
	return r.Kind == KindMarker && r.Marker == m
}

// Instr builds an instruction record.
func Instr(tid int64, pc uint64) Record {
	return Record{Kind: KindInstr, Tid: tid, PC: pc}
}

// Data builds a data access record.
func Data(tid int64, addr uint64) Record {
	return Record{Kind: KindData, Tid: tid, Addr: addr}
}

// Marker builds a marker record.
func Marker(tid int64, m MarkerType, value uint64) Record {
	return Record{Kind: KindMarker, Tid: tid, Marker: m, Value: value}
}

// Exit builds a thread exit record.
func Exit(tid int64) Record {
	return Record{Kind: KindThreadExit, Tid: tid}
}
