package conversation

import "errors"

var (
	// ErrUnrecognizedInput means the token matched nothing at the current step.
	// The turn is retried: invalid notice, then the step's prompt again.
	ErrUnrecognizedInput = errors.New("unrecognized input")
	// ErrSessionMissing means working data expected in the session is gone,
	// usually after a restart or TTL expiry. Handlers regenerate it.
	ErrSessionMissing = errors.New("session working data missing")
)
