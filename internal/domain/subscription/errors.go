package subscription

import "errors"

var (
	ErrSubscriberNotFound = errors.New("subscriber not found")
	ErrInvalidEvent       = errors.New("invalid payment event")
	ErrUnknownEventType   = errors.New("unknown payment event type")
	ErrInvalidTier        = errors.New("invalid subscription tier")
	ErrInvalidSignature   = errors.New("invalid webhook signature")
	ErrIdentityRequired   = errors.New("user id or email is required")
)
