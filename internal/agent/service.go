package agent

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable means a session could not be opened.
	ErrUnavailable = errors.New("agent unavailable")
	// ErrRequestFailed means a recommendation call failed on an open session.
	ErrRequestFailed = errors.New("agent request failed")
	// ErrStale is returned when the owning session was closed or rebound
	// while a call was in flight. Callers drop the result.
	ErrStale = errors.New("agent response is stale")
	// ErrBusy rejects a question while another one is outstanding.
	ErrBusy = errors.New("agent question already in flight")
	// ErrSlideMismatch means a session is bound to a different slide and
	// must be closed first.
	ErrSlideMismatch = errors.New("agent session bound to another slide")
)

// Credentials are passed through to the agent service untouched.
type Credentials struct {
	AgentID        string
	ConsumerKey    string
	ConsumerSecret string
}

// Service is the remote conversational agent.
type Service interface {
	ResolveDomain(ctx context.Context) (string, error)
	OpenSession(ctx context.Context, creds Credentials, owner, productCode string) (string, error)
	Recommend(ctx context.Context, sessionID, message string, creds Credentials) (string, error)
	CloseSession(ctx context.Context, sessionID string, creds Credentials) error
}
