package main

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"deprecdoc/internal/deprecation"
	"deprecdoc/internal/engine"
	"deprecdoc/internal/observ"
	"deprecdoc/internal/output"
	"deprecdoc/internal/walker"
)

func init() {
	flags := rootCmd.Flags()
	flags.String("format", string(output.FormatList), "batch format (list|lines|json|yaml|msgpack)")
	flags.StringSlice("include", []string{walker.DefaultInclude}, "glob of files to process, relative to the root")
	flags.StringSlice("exclude", nil, "glob of files to skip, relative to the root")
	flags.Int("jobs", 1, "files parsed concurrently")
	flags.Bool("resolve-entities", false, "record markers inside object descriptions as module:name")
	flags.String("config", "", "engine configuration file (TOML)")
	flags.String("ui", string(uiModeOff), "progress UI on stderr (auto|on|off)")
	flags.Bool("keep-scratch", false, "keep the scratch directory and print its path")
}

type extractOptions struct {
	format          output.Format
	include         []string
	exclude         []string
	jobs            int
	resolveEntities bool
	configPath      string
	ui              uiMode
	keepScratch     bool
	quiet           bool
	timings         bool
	maxDiagnostics  int
	color           bool
}

func readExtractOptions(cmd *cobra.Command) (extractOptions, error) {
	var opts extractOptions
	flags := cmd.Flags()
	root := cmd.Root().PersistentFlags()

	formatStr, err := flags.GetString("format")
	if err != nil {
		return opts, fmt.Errorf("failed to get format flag: %w", err)
	}
	if opts.format, err = output.ParseFormat(formatStr); err != nil {
		return opts, err
	}
	if opts.include, err = flags.GetStringSlice("include"); err != nil {
		return opts, fmt.Errorf("failed to get include flag: %w", err)
	}
	if opts.exclude, err = flags.GetStringSlice("exclude"); err != nil {
		return opts, fmt.Errorf("failed to get exclude flag: %w", err)
	}
	if opts.jobs, err = flags.GetInt("jobs"); err != nil {
		return opts, fmt.Errorf("failed to get jobs flag: %w", err)
	}
	if opts.jobs < 1 {
		return opts, fmt.Errorf("--jobs must be at least 1, got %d", opts.jobs)
	}
	if opts.resolveEntities, err = flags.GetBool("resolve-entities"); err != nil {
		return opts, fmt.Errorf("failed to get resolve-entities flag: %w", err)
	}
	if opts.configPath, err = flags.GetString("config"); err != nil {
		return opts, fmt.Errorf("failed to get config flag: %w", err)
	}
	uiStr, err := flags.GetString("ui")
	if err != nil {
		return opts, fmt.Errorf("failed to get ui flag: %w", err)
	}
	if opts.ui, err = readUIMode(uiStr); err != nil {
		return opts, err
	}
	if opts.keepScratch, err = flags.GetBool("keep-scratch"); err != nil {
		return opts, fmt.Errorf("failed to get keep-scratch flag: %w", err)
	}
	if opts.quiet, err = root.GetBool("quiet"); err != nil {
		return opts, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if opts.timings, err = root.GetBool("timings"); err != nil {
		return opts, fmt.Errorf("failed to get timings flag: %w", err)
	}
	if opts.maxDiagnostics, err = root.GetInt("max-diagnostics"); err != nil {
		return opts, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	opts.color = !color.NoColor
	return opts, nil
}

func loadConfig(path string) (engine.Config, error) {
	if path == "" {
		return engine.DefaultConfig(), nil
	}
	return engine.LoadConfig(path)
}

func runExtract(cmd *cobra.Command, args []string) error {
	opts, err := readExtractOptions(cmd)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}

	var timer *observ.Timer
	if opts.timings {
		timer = observ.NewTimer()
		defer func() { fmt.Fprint(cmd.ErrOrStderr(), timer.Summary()) }()
	}

	useUI := shouldUseTUI(opts.ui)

	// The UI owns the terminal while it runs; diagnostics and batches are
	// held back and written once it exits.
	stdout := bufio.NewWriter(cmd.OutOrStdout())
	defer stdout.Flush()
	var (
		diagOut  io.Writer = cmd.ErrOrStderr()
		batchOut io.Writer = stdout
		heldDiag bytes.Buffer
		heldOut  bytes.Buffer
	)
	if useUI {
		diagOut, batchOut = &heldDiag, &heldOut
	}

	stream := newDiagnosticStream(diagOut, cfg, opts)
	openIdx := timer.Begin("open")
	eng, err := engine.Open(args[0], engine.Options{
		Config:      &cfg,
		Stream:      stream.out,
		Filter:      stream.keep,
		Color:       opts.color && !useUI,
		KeepScratch: opts.keepScratch,
	})
	timer.End(openIdx, "")
	if err != nil {
		return err
	}
	defer func() {
		if err := eng.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
		}
		if opts.keepScratch {
			fmt.Fprintf(cmd.ErrOrStderr(), "scratch directory: %s\n", eng.ScratchDir())
		}
	}()

	writer, err := output.NewWriter(batchOut, opts.format)
	if err != nil {
		return err
	}
	wopts := walker.Options{
		Include:  opts.include,
		Exclude:  opts.exclude,
		Jobs:     opts.jobs,
		Resolver: deprecation.Options{ResolveEntities: opts.resolveEntities},
		Timer:    timer,
	}
	emit := func(b walker.Batch) error { return writer.Write(b) }

	if useUI {
		_, err = runExtractWithUI(cmd.Context(), eng, wopts, emit)
	} else {
		var w *walker.Walker
		if w, err = walker.New(eng, wopts); err == nil {
			_, err = w.Run(cmd.Context(), emit)
		}
	}
	if closeErr := writer.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if useUI {
		_, _ = heldDiag.WriteTo(cmd.ErrOrStderr())
		_, _ = heldOut.WriteTo(stdout)
	}
	stream.summary(cmd.ErrOrStderr())
	return err
}
