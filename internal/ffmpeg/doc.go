// Package ffmpeg builds the encoder invocation for a planner.Job, parses the
// machine-readable progress stream, and supervises the encoder process.
//
//   - Encoder, EncoderFor, Build (builder.go)
//   - ProgressParser, LineReader (progress.go)
//   - Executor, EncodeError, ErrCancelled (executor.go, errors.go)
package ffmpeg
