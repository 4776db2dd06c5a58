// Package pipeline orchestrates a transcode batch: enumeration, per-file
// probe → skip-or-encode → finalize, cancellation, and summary reporting.
//
// The core never writes to the terminal. Run sends Events (log lines,
// progress, per-file results) on a channel that the CLI or the TUI drains;
// Handle runs a batch in the background and exposes RequestCancel.
package pipeline
