package errs

import "errors"

var (
	// ErrMalformedEvent - a required field of a raw event is absent or the value can't be decoded.
	ErrMalformedEvent = errors.New("malformed event")
	// ErrStoreUnavailable - the idempotency store could not answer. Never means "not seen".
	ErrStoreUnavailable = errors.New("idempotency store unavailable")
	// ErrDelivery - forwarding failed after the retry budget was exhausted.
	ErrDelivery = errors.New("delivery failed")
)
