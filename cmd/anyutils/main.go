// Command anyutils matches, filters and follows text with regular expressions.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/anyutils/anyutils-go/pkg/anyutils/logging"
	"github.com/anyutils/anyutils-go/pkg/anyutils/match"
)

var (
	// persistent flags
	verbose     bool
	logDir      string
	logCycle    int
	metricsFile string

	logger   = slog.New(slog.DiscardHandler)
	registry *prometheus.Registry
	metrics  *match.Metrics
	logFile  *os.File
)

var rootCmd = &cobra.Command{
	Use:   "anyutils",
	Short: "Parallel regex matching and filtering of text lines",
	Long: `anyutils evaluates a set of regular expressions against text lines in
parallel and prints, per line, the substring each pattern matched.

Lines come from the files given as arguments, or from stdin.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "",
		"Also write logs to daily files in this directory")
	rootCmd.PersistentFlags().IntVar(&logCycle, "log-cycle", 0,
		"Number of daily log files to rotate through (0 = single file)")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "",
		"Write Prometheus metrics to this file after the command completes")
}

// setup configures logging and metrics for the command about to run.
func setup(cmd *cobra.Command, args []string) error {
	level := logging.LevelFromEnv()
	if verbose {
		level = slog.LevelDebug
	}
	opts := &logging.Options{Level: level}

	handlers := []slog.Handler{logging.NewConsoleHandler(cmd.ErrOrStderr(), opts)}
	if logDir != "" {
		f, err := logging.OpenDailyFile(logDir, logCycle)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		logFile = f
		handlers = append(handlers, logging.NewFileHandler(f, opts))
	}
	logger = slog.New(logging.Tee(handlers...)).With(
		"logger", cmd.Name(),
		"run_id", uuid.NewString(),
	)

	if metricsFile != "" {
		registry = prometheus.NewRegistry()
		m, err := match.NewMetrics(registry)
		if err != nil {
			return fmt.Errorf("register metrics: %w", err)
		}
		metrics = m
	}
	return nil
}

func writeMetrics() error {
	if registry == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(metricsFile, registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	logger.Debug("metrics written", "path", metricsFile)
	return nil
}

func run() int {
	defer func() {
		if logFile != nil {
			logFile.Close()
		}
	}()
	defer logging.CapturePanic(func(value any, stack []byte) {
		logging.ReportTo(logger)(value, stack)
	})

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return execute(ctx, nil)
}

// execute runs the root command with args (os.Args[1:] when nil) and
// returns the exit code. Metrics are written whether or not the command
// failed.
func execute(ctx context.Context, args []string) int {
	if args != nil {
		rootCmd.SetArgs(args)
	}
	err := rootCmd.ExecuteContext(ctx)
	if merr := writeMetrics(); merr != nil {
		logger.Error("metrics not written", "error", merr)
		return 1
	}
	if err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(run())
}
