package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/backmassage/smbfix/internal/config"
	"github.com/backmassage/smbfix/internal/display"
	"github.com/backmassage/smbfix/internal/ffmpeg"
	"github.com/backmassage/smbfix/internal/logging"
	"github.com/backmassage/smbfix/internal/planner"
	"github.com/backmassage/smbfix/internal/probe"
)

// Encoder runs the external encoder for one job. *ffmpeg.Executor is the
// production implementation.
type Encoder interface {
	Encode(ctx context.Context, job *planner.Job, onProgress func(ffmpeg.Progress)) error
}

// Options configures one batch.
type Options struct {
	InputDir  string
	OutputDir string // required for the separate policy
	Policy    config.OutputPolicy
	Recursive bool
	DryRun    bool
	Preset    config.Preset
	Profile   planner.Profile // zero value means planner.SMBProfile

	Prober   probe.Prober
	Encoder  Encoder  // may be nil for dry runs
	Recorder Recorder // optional

	BatchID     string // generated when empty
	EncoderName string // for logs and the history journal
}

// OptionsFromConfig maps a validated Config onto batch Options. The prober,
// encoder and recorder are left for the caller to wire.
func OptionsFromConfig(cfg *config.Config, preset config.Preset) Options {
	return Options{
		InputDir:    cfg.InputDir,
		OutputDir:   cfg.OutputDir,
		Policy:      cfg.Policy,
		Recursive:   cfg.Recursive,
		DryRun:      cfg.DryRun,
		Preset:      preset,
		Profile:     planner.SMBProfile,
		EncoderName: string(cfg.EncoderMode),
	}
}

// resolved holds validated absolute paths for a batch.
type resolved struct {
	input  string
	output string
}

// validate checks the batch setup without touching the filesystem beyond
// stat calls. Every failure wraps ErrConfig.
func (o *Options) validate() (resolved, error) {
	var r resolved
	if o.InputDir == "" {
		return r, configError("input directory is required")
	}
	in, err := absResolved(o.InputDir)
	if err != nil {
		return r, configError("input directory %s: %v", o.InputDir, err)
	}
	fi, err := os.Stat(in)
	if err != nil {
		return r, configError("input directory %s does not exist", o.InputDir)
	}
	if !fi.IsDir() {
		return r, configError("input %s is not a directory", o.InputDir)
	}
	r.input = in

	switch o.Policy {
	case config.PolicyOverwrite:
		if o.OutputDir != "" {
			return r, configError("an output directory cannot be used with the overwrite policy")
		}
	case config.PolicySeparate:
		if o.OutputDir == "" {
			return r, configError("the separate output policy requires an output directory")
		}
		out, err := absResolved(o.OutputDir)
		if err != nil {
			return r, configError("output directory %s: %v", o.OutputDir, err)
		}
		if fi, err := os.Stat(out); err == nil && !fi.IsDir() {
			return r, configError("output %s is not a directory", o.OutputDir)
		}
		if out == in {
			return r, configError("output directory must differ from the input directory")
		}
		if o.Recursive {
			if err := config.ValidatePaths(in, out); err != nil {
				return r, configError("%v (outputs would be re-enumerated)", err)
			}
		}
		r.output = out
	default:
		return r, configError("unknown output policy %q", o.Policy)
	}

	if o.Preset.VideoBitrate == "" || o.Preset.AudioBitrate == "" || o.Preset.SampleRate == "" {
		return r, configError("preset %q is incomplete", o.Preset.Name)
	}
	if o.Prober == nil {
		return r, configError("no media prober configured")
	}
	if o.Encoder == nil && !o.DryRun {
		return r, configError("no encoder configured")
	}
	return r, nil
}

// absResolved returns the absolute, symlink-resolved form of path. A path
// that does not exist yet is resolved through its nearest existing parent.
func absResolved(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	var rest []string
	cur := abs
	for {
		if real, err := filepath.EvalSymlinks(cur); err == nil {
			return filepath.Join(append([]string{real}, rest...)...), nil
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return abs, nil
		}
		rest = append([]string{filepath.Base(cur)}, rest...)
		cur = parent
	}
}

// Run executes one batch synchronously, sending events on events (which may
// be nil). It returns a non-nil error only for fatal setup failures
// (ErrConfig, *EnumerationError); per-file failures are counted in RunStats
// and cancellation is reported through RunStats.Cancelled. Run never closes
// events.
func Run(ctx context.Context, opts Options, events chan<- Event) (RunStats, error) {
	em := emitter{ch: events}
	var stats RunStats

	paths, err := opts.validate()
	if err != nil {
		em.log(logging.LevelError, "%v", err)
		return stats, err
	}
	if len(opts.Profile.VideoCodecs) == 0 {
		opts.Profile = planner.SMBProfile
	}
	if opts.BatchID == "" {
		opts.BatchID = uuid.NewString()
	}
	stats.BatchID = opts.BatchID

	// --- Scanning ---
	seq, err := Enumerate(paths.input, opts.Recursive)
	if err != nil {
		em.log(logging.LevelError, "%v", err)
		return stats, err
	}
	var files []MediaFile
	for f, err := range seq {
		if err != nil {
			em.log(logging.LevelWarn, "Skipping unreadable entry: %v", err)
			continue
		}
		files = append(files, f)
	}
	stats.Total = len(files)
	if stats.Total == 0 {
		em.log(logging.LevelInfo, "No files to transcode in %s", paths.input)
		return stats, nil
	}

	rec := opts.Recorder
	if rec == nil {
		rec = nopRecorder{}
	}
	// Journal writes must land even after cancellation.
	recCtx := context.WithoutCancel(ctx)
	started := time.Now()
	if err := rec.BeginBatch(recCtx, BatchInfo{
		ID:        opts.BatchID,
		InputDir:  paths.input,
		OutputDir: paths.output,
		Policy:    opts.Policy,
		Preset:    opts.Preset,
		Encoder:   opts.EncoderName,
		DryRun:    opts.DryRun,
		Total:     stats.Total,
		Started:   started,
	}); err != nil {
		em.log(logging.LevelWarn, "History: %v", err)
	}

	logBatchHeader(em, &opts, &stats)

	// --- Per file ---
	r := &runner{
		opts:     &opts,
		output:   paths.output,
		em:       em,
		resolver: planner.NewCollisionResolver(),
	}
	for i, f := range files {
		if ctx.Err() != nil {
			stats.Cancelled = true
			em.log(logging.LevelWarn, "Cancelled; %d file(s) not started", stats.Total-i)
			break
		}
		stats.Current = i + 1

		res := r.processFile(ctx, i+1, stats.Total, f)
		res.BatchID = opts.BatchID
		stats.add(res)
		if err := rec.RecordFile(recCtx, res); err != nil {
			em.log(logging.LevelWarn, "History: %v", err)
		}
		em.result(res)

		if res.Outcome == OutcomeCancelled {
			if n := stats.Total - stats.Current; n > 0 {
				em.log(logging.LevelWarn, "Cancelled; %d file(s) not started", n)
			}
			break
		}
	}

	// --- Done ---
	logSummary(em, &opts, &stats, time.Since(started))
	if err := rec.EndBatch(recCtx, stats); err != nil {
		em.log(logging.LevelWarn, "History: %v", err)
	}
	return stats, nil
}

// runner carries per-batch state shared by processFile calls.
type runner struct {
	opts     *Options
	output   string
	em       emitter
	resolver *planner.CollisionResolver
}

// processFile runs probe → skip-or-encode → finalize for one file. It never
// returns an error; every failure is logged and folded into the result.
func (r *runner) processFile(ctx context.Context, index, total int, f MediaFile) FileResult {
	start := time.Now()
	name := f.Name()
	tag := fmt.Sprintf("[%d/%d]", index, total)
	res := FileResult{Index: index, File: f}
	done := func(o Outcome, err error) FileResult {
		res.Outcome = o
		res.Err = err
		res.Duration = time.Since(start)
		return res
	}

	fi, err := os.Stat(f.Path)
	if err != nil {
		r.em.log(logging.LevelError, "%s %s: %v", tag, name, err)
		return done(OutcomeFailed, err)
	}
	res.InputBytes = fi.Size()

	// --- Probing ---
	info := r.opts.Prober.Inspect(ctx, f.Path)
	if ctx.Err() != nil {
		// A killed ffprobe looks like an unreadable file.
		r.em.log(logging.LevelWarn, "%s cancelled %s", tag, name)
		return done(OutcomeCancelled, ffmpeg.ErrCancelled)
	}
	res.Info = info
	if !info.Known() {
		r.em.log(logging.LevelDebug, "%s probe returned incomplete stream info for %s (%s); transcoding", tag, name, info)
	}

	// --- Skipping ---
	if planner.Decide(info, r.opts.Profile) == planner.ActionSkip {
		r.em.log(logging.LevelInfo, "%s skip (compatible) %s", tag, name)
		return done(OutcomeSkipped, nil)
	}

	if r.opts.DryRun {
		dest, err := planner.Destination(f, r.opts.Policy, r.output)
		if err != nil {
			r.em.log(logging.LevelError, "%s %s: %v", tag, name, err)
			return done(OutcomeFailed, err)
		}
		if r.opts.Policy == config.PolicySeparate {
			dest = r.resolver.Resolve(f.Path, dest)
		}
		r.em.log(logging.LevelSuccess, "%s [DRY] would transcode %s (%s) -> %s", tag, name, info, dest)
		return done(OutcomePlanned, nil)
	}

	// --- Encoding ---
	job, err := planner.BuildJob(f, r.opts.Policy, r.output, r.opts.Preset)
	if err != nil {
		r.em.log(logging.LevelError, "%s %s: %v", tag, name, err)
		return done(OutcomeFailed, err)
	}
	if job.Policy == config.PolicySeparate {
		job.Destination = r.resolver.Resolve(f.Path, job.Destination)
	}

	r.em.log(logging.LevelInfo, "%s transcoding %s (%s)", tag, name, info)
	r.em.log(logging.LevelDebug, "%s -> %s", tag, job.Destination)

	progress := ProgressEvent{Index: index, Total: total, FileName: name}
	r.em.progress(progress)
	err = r.opts.Encoder.Encode(ctx, job, func(p ffmpeg.Progress) {
		progress.Elapsed = p.OutTime
		progress.HasElapsed = p.OutTime != ""
		progress.Terminal = p.Done
		r.em.progress(progress)
	})

	switch {
	case errors.Is(err, ffmpeg.ErrCancelled):
		r.em.log(logging.LevelWarn, "%s cancelled %s%s", tag, name, leftover(job.Destination))
		return done(OutcomeCancelled, err)
	case err != nil:
		r.em.log(logging.LevelError, "%s failed %s: %v", tag, name, err)
		var encErr *ffmpeg.EncodeError
		if errors.As(err, &encErr) && encErr.Tail != "" {
			r.em.log(logging.LevelError, "Last ffmpeg output:")
			for _, l := range strings.Split(encErr.Tail, "\n") {
				r.em.log(logging.LevelError, "  %s", l)
			}
		}
		if s := leftover(job.Destination); s != "" {
			r.em.log(logging.LevelWarn, "%s%s", tag, s)
		}
		return done(OutcomeFailed, err)
	}

	// --- Finalizing ---
	if err := Finalize(job); err != nil {
		r.em.log(logging.LevelError, "%s finalize failed for %s: %v", tag, name, err)
		if job.Policy == config.PolicyOverwrite {
			r.em.log(logging.LevelWarn, "%s source and temporary output both remain: %s, %s", tag, f.Path, job.Destination)
		}
		return done(OutcomeFinalizeFailed, err)
	}

	dest := finalPath(job)
	res.Destination = dest
	if out, err := os.Stat(dest); err == nil {
		res.OutputBytes = out.Size()
	}
	ratio := int64(100)
	if res.InputBytes > 0 {
		ratio = res.OutputBytes * 100 / res.InputBytes
	}
	r.em.log(logging.LevelSuccess, "%s done %s in %s (%d%% of original)",
		tag, name, display.FormatDuration(time.Since(start)), ratio)
	return done(OutcomeEncoded, nil)
}

// leftover describes a partial output left on disk, or "" if there is none.
func leftover(path string) string {
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return " (partial output left at " + path + ")"
}

// --- Logging helpers ---

func logBatchHeader(em emitter, opts *Options, stats *RunStats) {
	em.log(logging.LevelInfo, "Batch %s: found %d files", opts.BatchID, stats.Total)
	if opts.EncoderName != "" {
		em.log(logging.LevelInfo, "Encoder: %s", opts.EncoderName)
	}
	em.log(logging.LevelInfo, "Preset: %s", opts.Preset.Label())
	switch opts.Policy {
	case config.PolicyOverwrite:
		em.log(logging.LevelInfo, "Output: replace sources in place")
	default:
		em.log(logging.LevelInfo, "Output: %s", opts.OutputDir)
	}
	if opts.DryRun {
		em.log(logging.LevelWarn, "Dry run: nothing will be encoded")
	}
}

func logSummary(em emitter, opts *Options, stats *RunStats, elapsed time.Duration) {
	em.log(logging.LevelInfo, "==============================")
	if opts.DryRun {
		em.log(logging.LevelInfo, "Done: %d would be transcoded, %d skipped, %d failed", stats.Planned, stats.Skipped, stats.Failed)
	} else {
		em.log(logging.LevelInfo, "Done: %d encoded, %d skipped, %d failed", stats.Encoded, stats.Skipped, stats.Failed+stats.FinalizeFailed)
	}
	em.log(logging.LevelInfo, "  Files processed: %d of %d in %s", stats.Current, stats.Total, display.FormatDuration(elapsed))
	if stats.FinalizeFailed > 0 {
		em.log(logging.LevelError, "  %d file(s) encoded but could not be finalized", stats.FinalizeFailed)
	}
	if stats.Cancelled {
		em.log(logging.LevelWarn, "  Batch was cancelled")
	}

	if opts.DryRun || stats.Encoded == 0 {
		return
	}
	saved := stats.SpaceSaved()
	if saved >= 0 {
		em.log(logging.LevelSuccess, "  Space saved: %s (input %s -> output %s)",
			display.FormatBytes(saved),
			display.FormatBytes(stats.TotalInputBytes),
			display.FormatBytes(stats.TotalOutputBytes))
	} else {
		em.log(logging.LevelWarn, "  Space saved: %s (overall output is larger)",
			display.FormatBytesWithSign(saved))
	}
}
