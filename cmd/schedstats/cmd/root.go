package cmd

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/amirkhaki/schedstats/internal/config"
	"github.com/amirkhaki/schedstats/internal/logging"
)

const version = "0.1.0"

var (
	configPath string
	verbose    int
	logFormat  string

	cfg    config.Config
	logger = zap.NewNop()

	newLogger = logging.New
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "schedstats",
	Short: "per-core scheduling statistics for core-sharded traces",
	Long: `schedstats replays a core-sharded trace and reports, for every core, how
often and why inputs were switched on and off it, together with a timeline of
which input occupied the core.

Settings are read from --config, then SCHEDSTATS_* environment variables
(a .env file in the working directory is loaded first), then flags.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("verbose") {
			cfg.Verbose = verbose
		}
		if cmd.Flags().Changed("log-format") {
			cfg.LogFormat = logFormat
		}
		applyRunFlags(cmd)
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger, err = newLogger(cfg.Verbose, cfg.LogFormat)
		return err
	},
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "schedstats %s\n", version)
	},
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	err := rootCmd.Execute()
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "schedstats: %v\n", err)
		return 1
	}
	return 0
}

func init() {
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"path of a YAML config file")
	rootCmd.PersistentFlags().IntVarP(&verbose, "verbose", "v", 0,
		"diagnostic level: 2 logs input switches, 4 logs every record")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console",
		"log encoding: console or json")
}
