package faults

import "errors"

// Kind classifies a failure for callers: it decides the HTTP status and
// whether a retry can help.
type Kind string

const (
	// KindInvariant marks rejected writes that would break a domain
	// invariant. Never retried automatically.
	KindInvariant Kind = "invariant_violation"
	// KindNotFound marks lookups against missing or inactive state. The
	// caller should refresh and try again.
	KindNotFound Kind = "not_found_or_inactive"
	// KindCapacity marks a full tier. User-facing, suggests an alternative.
	KindCapacity Kind = "capacity_exceeded"
	// KindTransport marks an unavailable external collaborator. Retryable
	// with backoff, partial state has already been rolled back.
	KindTransport Kind = "transport_unavailable"
	// KindValidation marks bad input rejected before any mutation.
	KindValidation Kind = "validation_error"
)

// Fault is a kind-tagged domain error. The code is a stable machine-readable
// identifier, the message is safe to show to callers.
type Fault struct {
	Kind    Kind
	Code    string
	Message string
}

func (f *Fault) Error() string {
	return f.Message
}

// New creates a fault with the given kind, code and message.
func New(kind Kind, code, message string) *Fault {
	return &Fault{Kind: kind, Code: code, Message: message}
}

var (
	ErrAlreadyLive          = New(KindInvariant, "already_live", "broadcaster already has a live session")
	ErrDuplicateRank        = New(KindInvariant, "duplicate_rank", "a tier with this rank already exists for the broadcaster")
	ErrNotLive              = New(KindNotFound, "not_live", "session is not live")
	ErrSessionNotLive       = New(KindNotFound, "session_not_live", "session is not accepting viewers")
	ErrTierNotFound         = New(KindNotFound, "tier_not_found", "tier does not exist")
	ErrTierInactive         = New(KindNotFound, "tier_inactive", "tier is no longer offered")
	ErrSessionNotFound      = New(KindNotFound, "session_not_found", "session does not exist")
	ErrSubscriptionNotFound = New(KindNotFound, "subscription_not_found", "subscription does not exist")
	ErrTierFull             = New(KindCapacity, "tier_full", "tier has reached its subscriber capacity")
	ErrTransportUnavailable = New(KindTransport, "transport_unavailable", "media transport did not respond")
	ErrInvalidDiscount      = New(KindValidation, "invalid_discount", "discount percentage or expiry is invalid")
	ErrEmptyMessage         = New(KindValidation, "empty_message", "chat message is empty")
)

// KindOf returns the kind of a fault-tagged error, or an empty kind for
// everything else.
func KindOf(err error) Kind {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return ""
}

// CodeOf returns the stable code of a fault-tagged error, or "internal_error".
func CodeOf(err error) string {
	var f *Fault
	if errors.As(err, &f) {
		return f.Code
	}
	return "internal_error"
}
