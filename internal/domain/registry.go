package domain

import "strings"

// Registry accumulates the session records of exactly one poll cycle. It is
// not safe for concurrent use; callers ingest after joining their fetches.
type Registry struct {
	records []SessionRecord
}

// UserSessions is the finalized per-user aggregation for one cycle.
type UserSessions struct {
	Username string
	Count    int
	Sessions []SessionRecord
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Ingest appends records to the cycle's working set. Records with an empty or
// whitespace-only username are dropped here so they can never be aggregated.
// Deduplication is deferred to Finalize.
func (r *Registry) Ingest(records []SessionRecord) {
	for _, record := range records {
		if strings.TrimSpace(record.Username) == "" {
			continue
		}
		r.records = append(r.records, record)
	}
}

// Finalize deduplicates the working set by (username, session_id) and returns
// the per-user aggregation. First-seen wins: when the same identity was
// ingested twice, the first record's session key and origin are retained and
// later duplicates are dropped silently. Count is the number of distinct
// session IDs, not raw ingested records. Finalize is idempotent as long as no
// further Ingest calls happen in between.
func (r *Registry) Finalize() map[string]UserSessions {
	seen := make(map[SessionIdentity]struct{}, len(r.records))
	users := make(map[string]UserSessions)

	for _, record := range r.records {
		key := record.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		user := users[record.Username]
		user.Username = record.Username
		user.Count++
		user.Sessions = append(user.Sessions, record)
		users[record.Username] = user
	}

	return users
}
