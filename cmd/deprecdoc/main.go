package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"deprecdoc/internal/prof"
	"deprecdoc/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "deprecdoc [flags] <corpus-root>",
	Short: "Extract deprecated modules and entities from a reStructuredText corpus",
	Long: `deprecdoc parses every reStructuredText file under a documentation root
and prints, per file, the modules and entities its deprecated markers cover.`,
	Args:          cobra.ExactArgs(1),
	RunE:          runExtract,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := applyColor(cmd); err != nil {
			return err
		}
		cleanup, err := setupTracing(cmd)
		if err != nil {
			return err
		}
		traceCleanup = cleanup
		profiler, err = setupProfiling(cmd)
		return err
	},
}

var (
	// traceCleanup flushes the tracer once the command finished.
	traceCleanup = func(error) {}
	profiler     *prof.Profiler
)

func init() {
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(genDocsCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize diagnostics (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress diagnostics")
	rootCmd.PersistentFlags().Bool("timings", false, "print phase timings to stderr")
	rootCmd.PersistentFlags().Int("max-diagnostics", 0, "maximum number of diagnostics to print (0 = unlimited)")
	rootCmd.PersistentFlags().String("trace", "", "trace output file (- for stderr)")
	rootCmd.PersistentFlags().String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	rootCmd.PersistentFlags().String("trace-mode", "stream", "trace storage (stream|ring|both)")
	rootCmd.PersistentFlags().String("trace-format", "auto", "trace format (auto|text|ndjson)")
	rootCmd.PersistentFlags().Int("trace-ring-size", 4096, "events kept in ring mode")
	rootCmd.PersistentFlags().Duration("trace-heartbeat", 0, "heartbeat interval (0 = disabled)")
	rootCmd.PersistentFlags().String("cpu-profile", "", "write a CPU profile to file")
	rootCmd.PersistentFlags().String("mem-profile", "", "write a heap profile to file on exit")
	rootCmd.PersistentFlags().String("runtime-trace", "", "write a Go runtime trace to file")
}

func main() {
	rootCmd.Version = version.Version

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := execute(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func execute(ctx context.Context) error {
	traceCleanup = func(error) {}
	profiler = nil
	err := rootCmd.ExecuteContext(ctx)
	if stopErr := profiler.Stop(); stopErr != nil {
		fmt.Fprintf(os.Stderr, "profiling: %v\n", stopErr)
	}
	traceCleanup(err)
	return err
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
