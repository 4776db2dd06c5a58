package pipeline

// RunStats tracks aggregate counters and byte totals across a batch run.
type RunStats struct {
	BatchID          string
	Total            int
	Current          int
	Encoded          int
	Skipped          int
	Failed           int
	FinalizeFailed   int
	Planned          int // dry run only
	TotalInputBytes  int64
	TotalOutputBytes int64
	Cancelled        bool
}

// SpaceSaved returns the aggregate byte difference between inputs and outputs
// of encoded files. Positive means outputs are smaller; negative means they grew.
func (s *RunStats) SpaceSaved() int64 {
	return s.TotalInputBytes - s.TotalOutputBytes
}

// HasFailures reports whether any file failed to encode or finalize.
func (s *RunStats) HasFailures() bool {
	return s.Failed > 0 || s.FinalizeFailed > 0
}

func (s *RunStats) add(r FileResult) {
	switch r.Outcome {
	case OutcomeEncoded:
		s.Encoded++
		s.TotalInputBytes += r.InputBytes
		s.TotalOutputBytes += r.OutputBytes
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeFailed:
		s.Failed++
	case OutcomeFinalizeFailed:
		s.FinalizeFailed++
	case OutcomePlanned:
		s.Planned++
	case OutcomeCancelled:
		s.Cancelled = true
	}
}
