package batch

import "tempo/internal/services"

// Result is the outcome of one unique filename.
type Result struct {
	// Source is the filename as referenced by the tag.
	Source string
	// Output is the produced filename, relative to the media directory like
	// Source, when Success is set.
	Output  string
	Err     error
	Reused  bool
	Success bool
}

// Reason returns the short failure code for r.
func (r Result) Reason() string {
	return services.Reason(r.Err)
}

// Outcome summarizes a batch run.
type Outcome struct {
	Succeeded []Result
	Failed    []Result
	// Attempted counts files handed to the transcoder.
	Attempted int
	// Total counts unique filenames in the request.
	Total     int
	Cancelled bool
}

// Produced maps each successful source filename to its output filename.
func (o Outcome) Produced() map[string]string {
	files := make(map[string]string, len(o.Succeeded))
	for _, result := range o.Succeeded {
		files[result.Source] = result.Output
	}
	return files
}

// Verdict classifies a finished run for the summary shown to the user.
type Verdict string

const (
	VerdictNothingToDo Verdict = "nothing_to_do"
	VerdictCancelled   Verdict = "cancelled"
	VerdictAllFailed   Verdict = "all_failed"
	VerdictPartial     Verdict = "partial"
	VerdictComplete    Verdict = "complete"
)

// Verdict reports how the run ended. Cancellation wins over the success
// counts because a cancelled run never commits its edits.
func (o Outcome) Verdict() Verdict {
	switch {
	case o.Total == 0:
		return VerdictNothingToDo
	case o.Cancelled:
		return VerdictCancelled
	case len(o.Succeeded) == 0:
		return VerdictAllFailed
	case len(o.Failed) > 0:
		return VerdictPartial
	default:
		return VerdictComplete
	}
}
