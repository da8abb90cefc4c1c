package application

import (
	"sort"
	"time"

	"github.com/bnema/streamguard/internal/domain"
)

// SourceResult records how one media server contributed to a cycle. Failure
// is empty for a successful fetch; a failed source contributes zero records.
type SourceResult struct {
	Server   string
	Sessions int
	Failure  string `json:",omitempty"`
}

// TerminationOutcome records one termination attempt. Outcomes are not
// persisted; they exist for the cycle's log and report only.
type TerminationOutcome struct {
	Server     string
	Username   string
	SessionID  string
	SessionKey string
	Failure    string `json:",omitempty"`
}

// CycleReport is the complete outcome of one enforcement cycle.
type CycleReport struct {
	CycleID      string
	StartedAt    time.Time
	FinishedAt   time.Time
	DryRun       bool `json:",omitempty"`
	Sources      []SourceResult
	Users        map[string]domain.UserSessions `json:"-"`
	Counts       map[string]int
	Verdicts     map[string]domain.Verdict
	Terminations []TerminationOutcome `json:",omitempty"`
}

// Violations lists the violating usernames in a stable order.
func (r CycleReport) Violations() []string {
	violations := make([]string, 0, len(r.Verdicts))
	for username, verdict := range r.Verdicts {
		if verdict == domain.VerdictViolating {
			violations = append(violations, username)
		}
	}
	sort.Strings(violations)

	return violations
}

// FailedTerminations counts attempts that did not get a transport-level
// acknowledgement. They are left for the next cycle to re-detect.
func (r CycleReport) FailedTerminations() int {
	failed := 0
	for _, outcome := range r.Terminations {
		if outcome.Failure != "" {
			failed++
		}
	}

	return failed
}
