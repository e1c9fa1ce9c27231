package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/amirkhaki/schedstats/pkg/synth"
	"github.com/amirkhaki/schedstats/pkg/trace"
)

// synthCmd represents the synth command
var synthCmd = &cobra.Command{
	Use:   "synth",
	Short: "generate a synthetic core-sharded trace",
	Long: `Writes a deterministic synthetic trace (same seed, same trace) that
exercises preemption, blocking syscalls, direct switches, thread exits and
idle cores. Feed it to "schedstats run".`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := synth.Generate(synthCfg)
		if err != nil {
			return err
		}
		if err := trace.SaveTrace(synthOutput, entries); err != nil {
			return err
		}
		logger.Info("trace written",
			zap.String("path", synthOutput),
			zap.Int("records", len(entries)),
			zap.Int64("seed", synthCfg.Seed))
		return nil
	},
}

var (
	synthOutput string
	synthCfg    = synth.DefaultConfig()
)

func init() {
	rootCmd.AddCommand(synthCmd)

	synthCmd.Flags().StringVarP(&synthOutput, "output", "o", "trace.jsonl",
		"path of the generated trace")
	synthCmd.Flags().IntVar(&synthCfg.Cores, "cores", synthCfg.Cores, "number of cores")
	synthCmd.Flags().IntVar(&synthCfg.Inputs, "inputs", synthCfg.Inputs, "number of inputs (threads)")
	synthCmd.Flags().IntVar(&synthCfg.Segments, "segments", synthCfg.Segments, "scheduling segments per core")
	synthCmd.Flags().IntVar(&synthCfg.MaxInstrs, "max-instrs", synthCfg.MaxInstrs, "max instructions per segment")
	synthCmd.Flags().IntVar(&synthCfg.MaxWaits, "max-waits", synthCfg.MaxWaits, "max waits per idle period")
	synthCmd.Flags().Int64Var(&synthCfg.Seed, "seed", synthCfg.Seed, "random seed")
}
