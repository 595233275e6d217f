package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"shadersmith/internal/diag"
	"shadersmith/internal/hotreload"
	"shadersmith/internal/trace"
)

var watchCmd = &cobra.Command{
	Use:   "watch [flags] [file...]",
	Short: "Rebuild shaders whenever their sources change",
	Long: `Build the given shaders (or every [[shader]] of shadersmith.toml), then keep
watching every file they read. Changed shaders are recompiled and their outputs
rewritten; a failed recompilation is reported and the previous binary is kept.`,
	RunE: watchExecution,
}

func init() {
	addOptionFlags(watchCmd)
	addCacheFlags(watchCmd)
	watchCmd.Flags().StringP("out", "o", "", "output path (single input only)")
	watchCmd.Flags().IntP("jobs", "j", 0, "max parallel builds for the initial build (0=auto)")
	watchCmd.Flags().Duration("interval", 250*time.Millisecond, "how often to poll for changes")
	watchCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9102)")
}

type watched struct {
	target target
	handle *hotreload.Handle
	last   []uint32
}

func watchExecution(cmd *cobra.Command, args []string) error {
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return err
	}
	interval, err := cmd.Flags().GetDuration("interval")
	if err != nil {
		return err
	}
	if interval <= 0 {
		return fmt.Errorf("--interval must be positive")
	}
	metricsAddr, err := cmd.Flags().GetString("metrics-addr")
	if err != nil {
		return err
	}

	s, err := newSession(cmd, metricsAddr != "")
	if err != nil {
		return err
	}
	if s.machineOutput() {
		return fmt.Errorf("watch only supports --diagnostics-format=text")
	}
	targets, err := s.targets(cmd, args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if metricsAddr != "" {
		shutdown := serveMetrics(ctx, cmd, metricsAddr, s.metrics.Handler())
		defer shutdown()
	}

	watcher := hotreload.NewWatcher(ctx, s.reporter)
	defer func() { _ = watcher.Close() }()

	results, err := s.builder.BuildAll(ctx, jobsOf(targets), jobs)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var items []*watched
	for i, r := range results {
		if r.Err != nil {
			s.reporter.Report(diag.FromError(r.Err))
			continue
		}
		h, err := hotreload.New(hotreload.Config{
			Artifact: r.Artifact,
			Options:  targets[i].options,
			Builder:  s.builder,
			Watcher:  watcher,
			Sink:     s.reporter,
			Context:  ctx,
		})
		if err != nil {
			return err
		}
		w := &watched{target: targets[i], handle: h}
		// First access registers the sources with the watcher.
		w.last = h.Data()
		if err := writeBinary(targets[i].output, w.last); err != nil {
			s.reporter.Report(diag.NewError(diag.IOWriteOutput, targets[i].output, err.Error()))
		}
		items = append(items, w)
	}
	if len(items) == 0 {
		return errReported
	}
	if !quiet(cmd) {
		fmt.Fprintf(out, "watching %d shader(s), press Ctrl+C to stop\n", len(items))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.printTimings(cmd)
			return nil
		case <-ticker.C:
		}
		if !watcher.PollAndClear() {
			continue
		}
		span, _ := trace.StartSpan(ctx, trace.ScopeCommand, "poll")
		reloaded := 0
		for _, w := range items {
			data := w.handle.Data()
			if slices.Equal(data, w.last) {
				continue
			}
			w.last = data
			reloaded++
			if err := writeBinary(w.target.output, data); err != nil {
				s.reporter.Report(diag.NewError(diag.IOWriteOutput, w.target.output, err.Error()))
				continue
			}
			if !quiet(cmd) {
				fmt.Fprintf(out, "[%s] reloaded %s\n", time.Now().Format("15:04:05"), s.displayPath(w.target.source))
			}
		}
		span.End(fmt.Sprintf("%d reloaded", reloaded))
	}
}

// serveMetrics starts an HTTP server for h and returns a function that
// shuts it down.
func serveMetrics(ctx context.Context, cmd *cobra.Command, addr string, h http.Handler) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", h)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(cmd.ErrOrStderr(), "metrics: %v\n", err)
		}
	}()
	if !quiet(cmd) {
		fmt.Fprintf(cmd.OutOrStdout(), "serving metrics on %s/metrics\n", addr)
	}
	return func() {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}
}
