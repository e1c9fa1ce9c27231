package trace

// ShardType selects how a record source splits a trace between workers.
type ShardType uint8

const (
	ShardByThread ShardType = iota
	ShardByCore
)

func (s ShardType) String() string {
	switch s {
	case ShardByThread:
		return "thread"
	case ShardByCore:
		return "core"
	default:
		return "unknown"
	}
}

// ParseShardType maps "thread" or "core" to a ShardType.
func ParseShardType(s string) (ShardType, bool) {
	switch s {
	case "thread":
		return ShardByThread, true
	case "core":
		return ShardByCore, true
	}
	return 0, false
}

// Stream is the view of one shard that a record source hands to a tool.
// Ordinals count records delivered so far, including the current one.
type Stream interface {
	// CoreID is the simulated core this shard represents.
	CoreID() int64
	// InputID is the input currently scheduled on the core, or -1.
	InputID() int64
	RecordOrdinal() uint64
	InstructionOrdinal() uint64
	// Input describes the current input's own sub-stream.
	Input() InputStream
}

// InputStream is the per-input sub-stream behind a Stream.
type InputStream interface {
	RecordOrdinal() uint64
	InstructionOrdinal() uint64
	LastTimestamp() uint64
}
