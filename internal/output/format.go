package output

import "github.com/hejijunhao/taxon/internal/model"

// Verbosity controls how much of a result is written.
type Verbosity int

const (
	Standard Verbosity = iota
	Minimal
)

// ParseVerbosity maps "minimal" to Minimal and anything else to Standard.
func ParseVerbosity(s string) Verbosity {
	if s == "minimal" {
		return Minimal
	}
	return Standard
}

// FormatRecord returns a copy of rec with fields stripped according to
// verbosity. At Minimal, candidate sets lose the department list and the
// per-candidate description and examples. Other results pass through.
func FormatRecord(rec Record, verbosity Verbosity) Record {
	if verbosity != Minimal {
		return rec
	}
	c, ok := rec.Result.(model.ClassificationCandidates)
	if !ok {
		return rec
	}

	c.Departments = nil
	kws := make([]model.KeywordCandidate, len(c.KeywordCandidates))
	for i, k := range c.KeywordCandidates {
		k.Description = ""
		k.Examples = nil
		kws[i] = k
	}
	pbs := make([]model.ProblemCandidate, len(c.ProblemCandidates))
	for i, p := range c.ProblemCandidates {
		p.Description = ""
		p.Examples = nil
		pbs[i] = p
	}
	c.KeywordCandidates = kws
	c.ProblemCandidates = pbs
	rec.Result = c
	return rec
}
