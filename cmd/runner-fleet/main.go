package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath string
	outputDir  string
	logLevel   string
	apply      bool
	awsRPS     float64
	awsBurst   int
)

var rootCmd = &cobra.Command{
	Use:   "runner-fleet",
	Short: "Compile runner fleet declarations into bootstrap artifacts",
	Long: `runner-fleet resolves partially-specified runner group declarations
into fully-populated configurations, validates them, and generates the
bootstrap artifacts (runner-manager configuration, cloud-init user data,
reload hook units) each manager instance consumes.

With --apply it also provisions the execution identities and cache
bucket lifecycle through AWS.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger(logLevel)
		if err != nil {
			return err
		}
		defer logger.Sync()

		return run(cmd.Context(), logger)
	},
}

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&configPath, "config", "c", "fleet.toml", "path to the fleet declaration file")
	f.StringVarP(&outputDir, "output", "o", "out", "directory for generated artifacts")
	f.StringVar(&logLevel, "loglevel", "info", "log level")
	f.BoolVar(&apply, "apply", false, "provision identities and cache lifecycle through AWS")
	f.Float64Var(&awsRPS, "aws-rps", 5, "AWS API request rate limit")
	f.IntVar(&awsBurst, "aws-burst", 10, "AWS API request burst")
}

func newLogger(level string) (*zap.Logger, error) {
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parsed)
	return cfg.Build()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
