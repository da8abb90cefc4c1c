package domain

import "context"

// SessionRecord is one playback session observed on one media server at one
// poll instant. Records only live for the cycle that ingested them.
type SessionRecord struct {
	Username   string
	SessionID  string
	SessionKey string
	Origin     Terminator
}

// Terminator is the capability a session record carries back from the server
// that produced it, so the coordinator can end the session without looking
// the server up again.
type Terminator interface {
	ServerName() string
	Terminate(ctx context.Context, session SessionRecord, reason string) error
}

// Key returns the identity under which sessions are deduplicated. Two records
// with equal keys observed in the same cycle are the same logical session.
func (s SessionRecord) Key() SessionIdentity {
	return SessionIdentity{Username: s.Username, SessionID: s.SessionID}
}

type SessionIdentity struct {
	Username  string
	SessionID string
}
