// Package schedstats computes per-core scheduling statistics from a
// core-sharded trace: how often and why inputs were swapped on and off each
// core, and a symbolic timeline of which input occupied the core.
//
// A record source registers one shard per core with ShardInit and then feeds
// that shard's records to ShardRecord from a single worker. The tool never
// starts goroutines and never waits for workers: PrintResults and Summarize
// must only be called once every worker has returned.
package schedstats

import (
	"errors"
	"io"

	"go.uber.org/zap"

	"github.com/amirkhaki/schedstats/pkg/trace"
)

// ErrCoreShardedOnly is returned for any attempt to run the tool on a single
// serial stream or on shards that are not cores.
var ErrCoreShardedOnly = errors.New("only core-sharded operation is supported")

// Config holds the tool knobs. It is copied into the Tool and never changes.
type Config struct {
	// PrintEvery is the number of instructions (or repeated waits) after
	// which the timeline repeats the current symbol. Zero never repeats.
	PrintEvery uint64
	// Verbose enables diagnostics: 2 logs input switches, 4 every record.
	Verbose int
}

// Tool is the schedule stats analysis tool.
type Tool struct {
	cfg      Config
	logger   *zap.Logger
	registry *Registry
}

// Option configures a Tool.
type Option func(*Tool)

// WithLogger sets the logger used for verbose diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(t *Tool) {
		if l != nil {
			t.logger = l
		}
	}
}

// New creates a tool with an empty shard registry.
func New(cfg Config, opts ...Option) *Tool {
	t := &Tool{
		cfg:      cfg,
		logger:   zap.NewNop(),
		registry: NewRegistry(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// InitializeStream is called once before processing. A non-nil serial
// stream means the source runs in single-stream mode, which is rejected.
func (t *Tool) InitializeStream(serial trace.Stream) error {
	if serial != nil {
		return ErrCoreShardedOnly
	}
	return nil
}

// InitializeShardType rejects every sharding but ShardByCore.
func (t *Tool) InitializeShardType(st trace.ShardType) error {
	if st != trace.ShardByCore {
		return ErrCoreShardedOnly
	}
	return nil
}

// ProcessRecord is the serial entry point; it always fails.
func (t *Tool) ProcessRecord(trace.Record) error {
	return ErrCoreShardedOnly
}

// ParallelShardSupported reports that the tool runs one worker per shard.
func (t *Tool) ParallelShardSupported() bool {
	return true
}

// ShardInit registers shard index, reading from stream.
func (t *Tool) ShardInit(index int, stream trace.Stream) (*Shard, error) {
	return t.registry.Register(index, stream)
}

// ShardExit is called once the source has no more records for sh.
func (t *Tool) ShardExit(sh *Shard) bool {
	sh.done = true
	return true
}

// ShardError returns the error stored on sh, or "".
func (t *Tool) ShardError(sh *Shard) string {
	return sh.Err()
}

// Summarize seals the registry and aggregates every shard.
func (t *Tool) Summarize() Summary {
	return Aggregate(t.registry.Seal())
}

// PrintResults writes the textual report to w.
func (t *Tool) PrintResults(w io.Writer) error {
	return WriteReport(w, t.Summarize())
}
