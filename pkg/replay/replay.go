// Package replay feeds a decoded trace to an analysis tool the way a
// parallel trace replayer does: one shard per core (or thread), each shard
// processed in order by its own worker.
package replay

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/amirkhaki/schedstats/pkg/trace"
)

// Analyzer is a tool driven by Run. S is the tool's per-shard handle.
type Analyzer[S any] interface {
	// InitializeStream is given the serial stream in serial mode, else nil.
	InitializeStream(serial trace.Stream) error
	InitializeShardType(st trace.ShardType) error
	// ProcessRecord receives every record in serial mode.
	ProcessRecord(r trace.Record) error
	ParallelShardSupported() bool
	ShardInit(index int, s trace.Stream) (S, error)
	ShardRecord(shard S, r trace.Record) bool
	ShardExit(shard S) bool
	ShardError(shard S) string
}

// Config selects how the trace is split.
type Config struct {
	ShardType trace.ShardType
	// Serial feeds every record through one stream instead of sharding.
	Serial bool
}

// ShardFailure is a shard that stopped early. Other shards are unaffected.
type ShardFailure struct {
	Shard int
	Key   int64 // core or thread id
	Msg   string
}

func (f ShardFailure) Error() string {
	return fmt.Sprintf("shard %d (%d): %s", f.Shard, f.Key, f.Msg)
}

// Result describes a finished run.
type Result struct {
	RunID    string
	Shards   int
	Records  int
	Failures []ShardFailure
}

// Option configures Run.
type Option func(*runner)

// WithLogger sets the logger for run and shard progress.
func WithLogger(l *zap.Logger) Option {
	return func(r *runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// ErrSerialUnsupported is returned when a tool accepts neither serial mode
// nor parallel shards.
var ErrSerialUnsupported = errors.New("tool supports neither serial nor parallel operation")

// ctxCheckEvery is how many records a worker feeds between cancellation checks.
const ctxCheckEvery = 1024

type runner struct {
	logger *zap.Logger
	tracer oteltrace.Tracer
}

type shardInput struct {
	key     int64
	entries []trace.Entry
}

// Run replays entries into a. Setup errors returned by the tool abort the
// run before any record is delivered. Shard failures are collected in the
// result and also returned joined as the error, after every shard finished.
func Run[S any](ctx context.Context, a Analyzer[S], entries []trace.Entry, cfg Config, opts ...Option) (*Result, error) {
	r := &runner{
		logger: zap.NewNop(),
		tracer: otel.Tracer("github.com/amirkhaki/schedstats/pkg/replay"),
	}
	for _, opt := range opts {
		opt(r)
	}
	res := &Result{RunID: uuid.NewString(), Records: len(entries)}
	log := r.logger.With(zap.String("run", res.RunID))

	if cfg.Serial {
		if err := runSerial(a, entries, log); err != nil {
			return nil, err
		}
		return res, nil
	}

	if err := a.InitializeStream(nil); err != nil {
		return nil, fmt.Errorf("setup: %w", err)
	}
	if err := a.InitializeShardType(cfg.ShardType); err != nil {
		return nil, fmt.Errorf("setup: %w", err)
	}
	if !a.ParallelShardSupported() {
		return nil, fmt.Errorf("setup: %w", ErrSerialUnsupported)
	}

	shards := split(entries, cfg.ShardType)
	res.Shards = len(shards)
	log.Info("replay started",
		zap.Stringer("shard_type", cfg.ShardType),
		zap.Int("shards", len(shards)),
		zap.Int("records", len(entries)))

	failures := make([]*ShardFailure, len(shards))
	g, gctx := errgroup.WithContext(ctx)
	for i, in := range shards {
		g.Go(func() error {
			f, err := runShard(gctx, r, log, a, i, in)
			failures[i] = f
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}

	var errs []error
	for _, f := range failures {
		if f != nil {
			res.Failures = append(res.Failures, *f)
			errs = append(errs, *f)
			log.Warn("shard failed", zap.Int("shard", f.Shard), zap.Int64("key", f.Key), zap.String("error", f.Msg))
		}
	}
	log.Info("replay finished", zap.Int("failed_shards", len(res.Failures)))
	return res, errors.Join(errs...)
}

func runSerial[S any](a Analyzer[S], entries []trace.Entry, log *zap.Logger) error {
	s := newStream(-1)
	if err := a.InitializeStream(s); err != nil {
		return fmt.Errorf("setup: %w", err)
	}
	log.Info("serial replay started", zap.Int("records", len(entries)))
	for _, e := range entries {
		s.advance(e)
		if err := a.ProcessRecord(e.Record); err != nil {
			return fmt.Errorf("record %d: %w", s.refs, err)
		}
	}
	return nil
}

func runShard[S any](ctx context.Context, r *runner, log *zap.Logger, a Analyzer[S], index int, in shardInput) (*ShardFailure, error) {
	ctx, span := r.tracer.Start(ctx, "replay.shard", oteltrace.WithAttributes(
		attribute.Int("shard", index),
		attribute.Int64("key", in.key),
		attribute.Int("records", len(in.entries)),
	))
	defer span.End()

	s := newStream(in.key)
	handle, err := a.ShardInit(index, s)
	if err != nil {
		return &ShardFailure{Shard: index, Key: in.key, Msg: err.Error()}, nil
	}

	var failure *ShardFailure
	for i, e := range in.entries {
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		s.advance(e)
		if !a.ShardRecord(handle, e.Record) {
			failure = &ShardFailure{Shard: index, Key: in.key, Msg: a.ShardError(handle)}
			span.RecordError(failure)
			break
		}
	}
	if !a.ShardExit(handle) && failure == nil {
		failure = &ShardFailure{Shard: index, Key: in.key, Msg: a.ShardError(handle)}
	}
	log.Debug("shard finished",
		zap.Int("shard", index),
		zap.Int64("key", in.key),
		zap.Uint64("records", s.refs),
		zap.Uint64("instrs", s.instrs))
	return failure, nil
}

// split groups entries into shards ordered by core (or thread) id.
func split(entries []trace.Entry, st trace.ShardType) []shardInput {
	var grouped map[int64][]trace.Entry
	if st == trace.ShardByCore {
		grouped = trace.GroupByCore(entries)
	} else {
		grouped = make(map[int64][]trace.Entry)
		for _, e := range entries {
			grouped[e.Tid] = append(grouped[e.Tid], e)
		}
	}

	keys := make([]int64, 0, len(grouped))
	for k := range grouped {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	shards := make([]shardInput, len(keys))
	for i, k := range keys {
		shards[i] = shardInput{key: k, entries: grouped[k]}
	}
	return shards
}
