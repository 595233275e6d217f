package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"shadersmith/internal/trace"
)

// traceFlags mirrors the persistent --trace-* flags.
type traceFlags struct {
	output    string
	level     string
	format    string
	mode      string
	ringSize  int
	heartbeat time.Duration
}

func readTraceFlags(cmd *cobra.Command) (traceFlags, error) {
	fs := cmd.Root().PersistentFlags()
	var (
		tf   traceFlags
		errs [6]error
	)
	tf.output, errs[0] = fs.GetString("trace")
	tf.level, errs[1] = fs.GetString("trace-level")
	tf.format, errs[2] = fs.GetString("trace-format")
	tf.mode, errs[3] = fs.GetString("trace-mode")
	tf.ringSize, errs[4] = fs.GetInt("trace-ring-size")
	tf.heartbeat, errs[5] = fs.GetDuration("trace-heartbeat")
	for _, err := range errs {
		if err != nil {
			return tf, fmt.Errorf("read trace flags: %w", err)
		}
	}
	return tf, nil
}

// config resolves the flags into a tracer configuration. A bare --trace
// path implies build-level events; the zero Config means tracing is off.
func (tf traceFlags) config() (trace.Config, error) {
	level, err := trace.ParseLevel(tf.level)
	if err != nil {
		return trace.Config{}, err
	}
	if level == trace.LevelOff {
		if tf.output == "" {
			return trace.Config{}, nil
		}
		level = trace.LevelBuild
	}
	mode, err := trace.ParseMode(tf.mode)
	if err != nil {
		return trace.Config{}, err
	}
	format, err := trace.ParseFormat(tf.format)
	if err != nil {
		return trace.Config{}, err
	}
	out := tf.output
	if out == "" {
		out = "-"
	}
	return trace.Config{
		Level:      level,
		Mode:       mode,
		Format:     format,
		OutputPath: out,
		RingSize:   tf.ringSize,
	}, nil
}

// setupTracing attaches a tracer to the command context. The returned
// cleanup stops the heartbeat and closes the tracer; after a failed
// command it first dumps the events kept in memory.
func setupTracing(cmd *cobra.Command) (func(failed bool), error) {
	tf, err := readTraceFlags(cmd)
	if err != nil {
		return nil, err
	}
	cfg, err := tf.config()
	if err != nil {
		return nil, err
	}
	tracer, err := trace.New(cfg)
	if err != nil {
		return nil, err
	}

	ctx := trace.WithTracer(cmd.Context(), tracer)
	cmd.SetContext(ctx)
	cmd.Root().SetContext(ctx)
	if !tracer.Enabled() {
		return func(bool) {}, nil
	}

	heartbeat := trace.StartHeartbeat(tracer, tf.heartbeat)
	stderr := cmd.ErrOrStderr()
	return func(failed bool) {
		heartbeat.Stop()
		if ring := trace.RingOf(tracer); failed && ring != nil {
			fmt.Fprintf(stderr, "trace: last events before failure (%d dropped):\n", ring.Dropped())
			if err := ring.Dump(stderr, trace.FormatText); err != nil {
				fmt.Fprintf(stderr, "trace: dump: %v\n", err)
			}
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(stderr, "trace: close: %v\n", err)
		}
	}, nil
}
