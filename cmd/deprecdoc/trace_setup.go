package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"deprecdoc/internal/trace"
	"deprecdoc/internal/walker"
)

// setupTracing inspects trace-related flags and initializes the tracer.
// The returned cleanup receives the command error; with a ring the events
// behind a failure are dumped to stderr.
func setupTracing(cmd *cobra.Command) (func(error), error) {
	flags := cmd.Root().PersistentFlags()

	traceOutput, err := flags.GetString("trace")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace flag: %w", err)
	}
	levelStr, err := flags.GetString("trace-level")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-level flag: %w", err)
	}
	modeStr, err := flags.GetString("trace-mode")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-mode flag: %w", err)
	}
	formatStr, err := flags.GetString("trace-format")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-format flag: %w", err)
	}
	ringSize, err := flags.GetInt("trace-ring-size")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}
	heartbeatInterval, err := flags.GetDuration("trace-heartbeat")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-heartbeat flag: %w", err)
	}

	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return nil, err
	}
	// --trace alone means phase-level tracing.
	if level == trace.LevelOff && traceOutput != "" {
		level = trace.LevelPhase
	}
	if level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return func(error) {}, nil
	}

	mode, err := trace.ParseMode(modeStr)
	if err != nil {
		return nil, err
	}
	format, err := trace.ParseFormat(formatStr)
	if err != nil {
		return nil, err
	}

	tracer, err := trace.New(trace.Config{
		Level:      level,
		Mode:       mode,
		Format:     format,
		OutputPath: traceOutput,
		RingSize:   ringSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	heartbeat := trace.StartHeartbeat(cmd.Context(), tracer, heartbeatInterval)
	if heartbeat != nil {
		cmd.SetContext(trace.WithTracer(cmd.Context(), heartbeat))
	} else {
		cmd.SetContext(trace.WithTracer(cmd.Context(), tracer))
	}

	span := trace.Begin(trace.FromContext(cmd.Context()), trace.ScopeRun, cmd.Name(), 0)
	cmd.SetContext(trace.WithSpan(cmd.Context(), span))

	return func(runErr error) {
		heartbeat.Stop()
		detail := "ok"
		if runErr != nil {
			detail = runErr.Error()
		}
		span.End(detail)

		if ring := tracer.Ring(); ring != nil && runErr != nil {
			if err := dumpFailure(cmd.ErrOrStderr(), ring, runErr); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "trace: dump error: %v\n", err)
			}
		}
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}, nil
}

// dumpFailure writes the recent trace events behind runErr: only the failing
// file's span when the walker named one, everything kept otherwise.
func dumpFailure(w io.Writer, ring *trace.RingTracer, runErr error) error {
	var fe *walker.FileError
	if errors.As(runErr, &fe) && fe.SpanID != 0 {
		fmt.Fprintf(w, "trace of %s:\n", fe.Path)
		return ring.DumpSpan(w, trace.FormatText, fe.SpanID)
	}
	fmt.Fprintln(w, "recent trace events:")
	return ring.Dump(w, trace.FormatText)
}
