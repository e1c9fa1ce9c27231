package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/amirkhaki/schedstats/pkg/replay"
	"github.com/amirkhaki/schedstats/pkg/schedstats"
	"github.com/amirkhaki/schedstats/pkg/trace"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "analyze a core-sharded trace",
	Long: `Replays a JSON-lines trace, one worker per core, and prints the schedule
stats report. Only core-sharded operation is supported: --serial and
--shard-by=thread are rejected before any record is processed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := trace.LoadTrace(tracePath)
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		tool := schedstats.New(schedstats.Config{
			PrintEvery: cfg.PrintEvery,
			Verbose:    cfg.Verbose,
		}, schedstats.WithLogger(logger))

		res, runErr := replay.Run(ctx, tool, entries, replay.Config{
			ShardType: cfg.ShardType(),
			Serial:    serial,
		}, replay.WithLogger(logger))
		if res == nil {
			return runErr
		}
		logger.Debug("replay done", zap.String("run", res.RunID), zap.Int("shards", res.Shards))

		if outputPath == "" {
			if err := tool.PrintResults(cmd.OutOrStdout()); err != nil {
				return errors.Join(runErr, fmt.Errorf("failed to write report: %w", err))
			}
			return runErr
		}
		return errors.Join(runErr, writeReportFile(outputPath, tool.PrintResults))
	},
}

// writeReportFile creates path and renders the report into it. A failed
// close is reported like a failed write.
func writeReportFile(path string, render func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	if err := render(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close report: %w", err)
	}
	return nil
}

var (
	tracePath  string
	outputPath string
	printEvery uint64
	shardBy    string
	serial     bool
)

// applyRunFlags lets run's flags override the loaded config.
func applyRunFlags(cmd *cobra.Command) {
	if cmd != runCmd {
		return
	}
	if cmd.Flags().Changed("print-every") {
		cfg.PrintEvery = printEvery
	}
	if cmd.Flags().Changed("shard-by") {
		cfg.ShardBy = shardBy
	}
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&tracePath, "trace", "t", "",
		"path of the JSON-lines trace")
	runCmd.Flags().StringVarP(&outputPath, "output", "o", "",
		"write the report here instead of stdout")
	runCmd.Flags().Uint64VarP(&printEvery, "print-every", "p", 5000,
		"instructions per repeated timeline letter")
	runCmd.Flags().StringVar(&shardBy, "shard-by", "core",
		"sharding: core or thread")
	runCmd.Flags().BoolVar(&serial, "serial", false,
		"feed the whole trace through one stream")
	_ = runCmd.MarkFlagRequired("trace")
}
