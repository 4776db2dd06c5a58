package pipeline

import (
	"fmt"
	"os"

	"github.com/backmassage/smbfix/internal/config"
	"github.com/backmassage/smbfix/internal/planner"
)

// Finalize applies job's output policy after the encoder exited 0.
//
// Overwrite: the temporary output must exist and be non-empty; it is then
// renamed over the source in one step, so the source is never removed
// before its replacement is in place. Separate: the destination must exist.
func Finalize(job *planner.Job) error {
	fi, err := os.Stat(job.Destination)
	if err != nil {
		return &FinalizeError{Op: "verify", Path: job.Destination, Err: err}
	}
	if fi.IsDir() {
		return &FinalizeError{Op: "verify", Path: job.Destination, Err: fmt.Errorf("is a directory")}
	}

	switch job.Policy {
	case config.PolicyOverwrite:
		if fi.Size() == 0 {
			return &FinalizeError{Op: "verify", Path: job.Destination, Err: errEmptyOutput}
		}
		if err := os.Rename(job.Destination, job.Source.Path); err != nil {
			return &FinalizeError{Op: "replace", Path: job.Source.Path, Err: err}
		}
		return nil
	case config.PolicySeparate:
		return nil
	default:
		return &FinalizeError{Op: "verify", Path: job.Destination, Err: fmt.Errorf("unknown output policy %q", job.Policy)}
	}
}

// finalPath is where the finished artifact lives after Finalize succeeds.
func finalPath(job *planner.Job) string {
	if job.Policy == config.PolicyOverwrite {
		return job.Source.Path
	}
	return job.Destination
}
