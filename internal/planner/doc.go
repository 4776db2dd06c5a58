// Package planner decides per-file action (encode or skip) and builds the
// Job that the ffmpeg package turns into an encoder invocation.
//
//   - Profile, SMBProfile, IsCompatible, Decide (profile.go)
//   - MediaFile, Job, BuildJob, output path derivation (job.go)
//   - CollisionResolver for separate-tree outputs that map to the same .mp4 (collision.go)
package planner
