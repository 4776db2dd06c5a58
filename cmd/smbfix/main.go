// Command smbfix transcodes a directory of videos into H.264/AAC MP4 files
// that play on network shares, skipping files that already comply.
//
// It parses flags and the optional YAML config, validates paths, and then
// runs system diagnostics (--check), the history listing (--history), the
// compatibility report (--report), or a batch.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/backmassage/smbfix/internal/check"
	"github.com/backmassage/smbfix/internal/config"
	"github.com/backmassage/smbfix/internal/display"
	"github.com/backmassage/smbfix/internal/ffmpeg"
	"github.com/backmassage/smbfix/internal/history"
	"github.com/backmassage/smbfix/internal/logging"
	"github.com/backmassage/smbfix/internal/metrics"
	"github.com/backmassage/smbfix/internal/pipeline"
	"github.com/backmassage/smbfix/internal/probe"
	"github.com/backmassage/smbfix/internal/term"
	"github.com/backmassage/smbfix/internal/tui"
)

// version and commit are injected at build time via -ldflags.
var (
	version = "1.0.0"
	commit  = "unknown"
)

// Exit codes.
const (
	exitOK        = 0
	exitFailure   = 1
	exitCancelled = 130
)

func main() {
	os.Exit(run())
}

func run() int {
	// Phase 1: Bootstrap. The logger doesn't exist yet, so errors go
	// directly to stderr.
	cfg := config.DefaultConfig()
	if err := config.ParseFlags(&cfg, version, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) || errors.Is(err, config.ErrVersionShown) {
			return exitOK
		}
		fmt.Fprintf(os.Stderr, "smbfix: %v\n", err)
		return exitFailure
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "smbfix: %v\n", err)
		return exitFailure
	}

	log, err := logging.NewLogger(&cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "smbfix: %v\n", err)
		return exitFailure
	}
	defer log.Close()

	// Phase 2: One-shot modes.
	if cfg.CheckOnly {
		display.PrintBanner(os.Stdout)
		if !check.RunCheck(&cfg, log) {
			return exitFailure
		}
		return exitOK
	}
	if cfg.ShowHistory > 0 {
		return showHistory(&cfg, log)
	}

	preset, err := cfg.ResolvePreset()
	if err != nil {
		log.Error("%v", err)
		return exitFailure
	}

	// Fail fast if ffmpeg/ffprobe are unavailable.
	if err := check.CheckDeps(&cfg); err != nil {
		log.Error("%v", err)
		return exitFailure
	}

	opts := pipeline.OptionsFromConfig(&cfg, preset)
	opts.Prober = probe.NewFFprobe(cfg.FFprobePath)

	if cfg.ReportOnly {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		sum, err := pipeline.Report(ctx, opts, os.Stdout)
		if err != nil {
			log.Error("%v", err)
			return exitFailure
		}
		if sum.Cancelled {
			return exitCancelled
		}
		return exitOK
	}

	// Phase 3: Wire the batch.
	enc := ffmpeg.EncoderFor(cfg.EncoderMode)
	executor := ffmpeg.NewExecutor(cfg.FFmpegPath, enc)
	if cfg.Verbose {
		executor.OnLine = func(line string) { log.Debug(true, "ffmpeg: %s", line) }
	}
	opts.Encoder = executor
	opts.EncoderName = fmt.Sprintf("%s (%s)", enc.Mode, enc.Codec)

	var recorders []pipeline.Recorder
	if cfg.HistoryDB != "" {
		journal, err := history.Open(cfg.HistoryDB)
		if err != nil {
			// The journal is an audit trail; a batch can run without it.
			log.Warn("History disabled: %v", err)
		} else {
			defer journal.Close()
			recorders = append(recorders, journal)
		}
	}
	var collector *metrics.Collector
	if cfg.MetricsFile != "" {
		collector = metrics.New()
		recorders = append(recorders, collector)
	}
	opts.Recorder = pipeline.MultiRecorder(recorders...)

	useTUI := cfg.UseTUI && term.IsTerminal(os.Stdout)
	if !useTUI {
		display.PrintBanner(os.Stdout)
		log.Info("=== smbfix v%s (%s) ===", version, commit)
		log.Info("In:  %s", cfg.InputDir)
		if cfg.Policy == config.PolicySeparate {
			log.Info("Out: %s", cfg.OutputDir)
		}
		if cfg.ConfigFile != "" {
			log.Debug(cfg.Verbose, "Config file: %s", cfg.ConfigFile)
		}
	}

	h := pipeline.NewHandle(opts)

	// Phase 4: Signal handling. The first SIGINT/SIGTERM cancels the batch;
	// a second one gets the default handler and terminates the process.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go watchSignals(sigCh, func() { signal.Stop(sigCh) }, func() {
		log.Warn("Received interrupt, stopping the current encode (press Ctrl-C again to force quit)")
		h.RequestCancel()
	})

	if err := h.Start(context.Background()); err != nil {
		log.Error("%v", err)
		return exitFailure
	}

	// Phase 5: Drain events until the batch ends.
	if useTUI {
		// The view owns the terminal; log lines still reach --log.
		log.SetOutput(io.Discard, io.Discard)
		err := tui.Run(h, batchTitle(&cfg, preset, enc), func(ev pipeline.Event) {
			if ev.Kind == pipeline.KindLog {
				log.Log(ev.Level, ev.Message)
			}
		})
		log.SetOutput(os.Stdout, os.Stderr)
		if err != nil {
			log.Error("TUI: %v", err)
			h.RequestCancel()
		}
		// Drain whatever the view did not read.
		for range h.Events() {
		}
	} else {
		consume(h.Events(), log, term.IsTerminal(os.Stdout))
	}

	stats := h.Wait()
	if err := h.Err(); err != nil {
		return exitFailure
	}
	if useTUI {
		log.Info("Done: %d encoded, %d skipped, %d failed (%d of %d files)",
			stats.Encoded, stats.Skipped, stats.Failed+stats.FinalizeFailed, stats.Current, stats.Total)
	}

	if collector != nil {
		if err := collector.WriteTextfile(cfg.MetricsFile); err != nil {
			log.Warn("Metrics: %v", err)
		}
	}

	switch {
	case stats.Cancelled:
		return exitCancelled
	case stats.HasFailures():
		return exitFailure
	default:
		return exitOK
	}
}

// watchSignals waits for the first signal on sigCh, releases the handler
// with stop, and then calls cancel. It returns without calling either when
// sigCh is closed.
func watchSignals(sigCh <-chan os.Signal, stop, cancel func()) {
	if _, ok := <-sigCh; !ok {
		return
	}
	stop()
	cancel()
}

// consume writes batch events to the logger. On a TTY, progress events are
// drawn as a single \r-overwritten status line that is cleared before each
// log line.
func consume(events <-chan pipeline.Event, log *logging.Logger, isTTY bool) {
	drawn := false
	for ev := range events {
		switch ev.Kind {
		case pipeline.KindLog:
			if drawn {
				clearLine()
				drawn = false
			}
			log.Log(ev.Level, ev.Message)
		case pipeline.KindProgress:
			if !isTTY {
				continue
			}
			drawProgress(ev.Progress)
			drawn = true
		}
	}
	if drawn {
		clearLine()
	}
}

func drawProgress(p pipeline.ProgressEvent) {
	elapsed := "starting"
	if p.HasElapsed {
		elapsed = display.FormatMediaTime(p.Elapsed)
	}
	width := term.Width(os.Stdout, 80)
	status := fmt.Sprintf("  [%d/%d] %s  %s", p.Index, p.Total, display.Truncate(p.FileName, max(width-40, 20)), elapsed)
	if n := len([]rune(status)); n < width-1 {
		status += strings.Repeat(" ", width-1-n)
	}
	fmt.Fprintf(os.Stdout, "\r%s", status)
}

func clearLine() {
	width := term.Width(os.Stdout, 80)
	fmt.Fprintf(os.Stdout, "\r%s\r", strings.Repeat(" ", width-1))
}

func batchTitle(cfg *config.Config, preset config.Preset, enc ffmpeg.Encoder) string {
	out := "in place"
	if cfg.Policy == config.PolicySeparate {
		out = cfg.OutputDir
	}
	return fmt.Sprintf("%s → %s | %s | %s", cfg.InputDir, out, preset.Label(), enc.Codec)
}

// showHistory prints the newest journal entries for --history N.
func showHistory(cfg *config.Config, log *logging.Logger) int {
	if cfg.HistoryDB == "" {
		log.Error("--history needs a journal: pass --history-db or set history_db in the config file")
		return exitFailure
	}
	if _, err := os.Stat(cfg.HistoryDB); err != nil {
		log.Error("No history at %s", cfg.HistoryDB)
		return exitFailure
	}
	journal, err := history.Open(cfg.HistoryDB)
	if err != nil {
		log.Error("%v", err)
		return exitFailure
	}
	defer journal.Close()

	ctx := context.Background()
	batches, err := journal.Batches(ctx, 5)
	if err != nil {
		log.Error("%v", err)
		return exitFailure
	}
	entries, err := journal.Recent(ctx, cfg.ShowHistory)
	if err != nil {
		log.Error("%v", err)
		return exitFailure
	}
	fmt.Fprintln(os.Stdout, "Recent batches:")
	history.PrintBatches(os.Stdout, batches)
	fmt.Fprintln(os.Stdout)
	fmt.Fprintf(os.Stdout, "Last %d results:\n", cfg.ShowHistory)
	history.PrintRecent(os.Stdout, entries)
	return exitOK
}
