package domain

// Verdict is the enforcement decision for one user in one cycle.
type Verdict string

const (
	VerdictExempt      Verdict = "exempt"
	VerdictWithinLimit Verdict = "within-limit"
	VerdictViolating   Verdict = "violating"
)

// Policy holds the process-wide enforcement rule. It never mutates after
// startup, so it is shared across cycles without synchronization.
type Policy struct {
	MaxStreams int
	exempt     map[string]struct{}
}

func NewPolicy(maxStreams int, exemptUsernames []string) Policy {
	exempt := make(map[string]struct{}, len(exemptUsernames))
	for _, username := range exemptUsernames {
		if username == "" {
			continue
		}
		exempt[username] = struct{}{}
	}

	return Policy{MaxStreams: maxStreams, exempt: exempt}
}

// IsExempt is an exact, case-sensitive membership test.
func (p Policy) IsExempt(username string) bool {
	_, ok := p.exempt[username]
	return ok
}

// Evaluate produces a verdict per aggregated user. MaxStreams is a strict
// upper bound: exactly MaxStreams sessions is within-limit. Exemption always
// wins over the count.
func (p Policy) Evaluate(users map[string]UserSessions) map[string]Verdict {
	verdicts := make(map[string]Verdict, len(users))
	for username, user := range users {
		switch {
		case p.IsExempt(username):
			verdicts[username] = VerdictExempt
		case user.Count > p.MaxStreams:
			verdicts[username] = VerdictViolating
		default:
			verdicts[username] = VerdictWithinLimit
		}
	}

	return verdicts
}
