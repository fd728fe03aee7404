// Package channel defines the outbound-notification adapter contract the
// dispatcher sends through, and the inbound callback contract the
// completion ingestor reads from.
package channel

import (
	"context"
	"net/http"
)

// ActionHint carries the opaque identifiers an adapter may embed in an
// inline action button, so a user tap round-trips back to the right
// event and chore without the adapter knowing anything about either.
type ActionHint struct {
	EventID string
	ChoreID string
}

// CallbackPayload is what VerifyCallback extracts from an inbound request
// after confirming its authenticity.
type CallbackPayload struct {
	EventID string
	ChoreID string
}

// PermanentError marks a Send failure the dispatcher must not retry:
// invalid recipient, rejected credentials, any 4xx other than 429.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Channel is an outbound notification adapter with an inbound callback
// verification path for the same transport.
type Channel interface {
	Name() string
	Send(ctx context.Context, recipient, title, body string, hint ActionHint) error
	VerifyCallback(r *http.Request) (CallbackPayload, error)
}
