package evaluate

import "github.com/pdiddy/paper-triage/pkg/types"

// BatchSummary holds counts from a batch run.
type BatchSummary struct {
	Succeeded int
	Failed    int
	ByKind    map[types.ErrorKind]int
}

// Add counts one report.
func (s *BatchSummary) Add(r types.VerdictReport) {
	if !r.Failed() {
		s.Succeeded++
		return
	}
	s.Failed++
	if s.ByKind == nil {
		s.ByKind = map[types.ErrorKind]int{}
	}
	s.ByKind[r.Error.Kind]++
}

// Summarize counts a finished batch.
func Summarize(reports []types.VerdictReport) BatchSummary {
	var s BatchSummary
	for _, r := range reports {
		s.Add(r)
	}
	return s
}

// Total returns the number of papers processed.
func (s BatchSummary) Total() int {
	return s.Succeeded + s.Failed
}

// HasFailures reports whether any paper failed.
func (s BatchSummary) HasFailures() bool {
	return s.Failed > 0
}
