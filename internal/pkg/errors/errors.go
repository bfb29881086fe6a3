package errors

import (
	"errors"
	"fmt"
)

// Kind classifies a domain error for retry/HTTP-mapping purposes. These are
// kinds, not Go types: callers switch on Kind rather than type-asserting.
type Kind string

const (
	KindValidation          Kind = "ValidationError"
	KindUpstreamUnavailable Kind = "UpstreamUnavailable"
	KindUpstreamTimeout     Kind = "UpstreamTimeout"
	KindUpstreamProtocol    Kind = "UpstreamProtocolError"
	KindStorage             Kind = "StorageError"
	KindInternal            Kind = "InternalError"
)

// Retryable reports whether a job in this Kind should be retried by the
// workflow rather than failed outright.
func (k Kind) Retryable() bool {
	switch k {
	case KindUpstreamUnavailable, KindUpstreamTimeout, KindStorage:
		return true
	default:
		return false
	}
}

// DomainError is a classified error carrying a Kind and the stage that
// produced it, so the job store and the poll façade can surface a kind and
// a short message without ever leaking a stack trace.
type DomainError struct {
	Kind  Kind
	Stage string
	Err   error
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s (stage=%s): %s", e.Kind, e.Stage, e.Err.Error())
	}
	return fmt.Sprintf("%s (stage=%s)", e.Kind, e.Stage)
}

func (e *DomainError) Unwrap() error { return e.Err }

func New(kind Kind, stage string, err error) *DomainError {
	return &DomainError{Kind: kind, Stage: stage, Err: err}
}

// Wrap classifies a generic error as InternalError unless it already
// carries a Kind, preserving the original as its cause.
func Wrap(stage string, err error) *DomainError {
	if err == nil {
		return nil
	}
	var de *DomainError
	if errors.As(err, &de) {
		return de
	}
	return New(KindInternal, stage, err)
}

var (
	// ErrSpotNotFound is returned by the spot resolver when a requested
	// identifier has no row in spots or facilities.
	ErrSpotNotFound = errors.New("spot not found")
	// ErrEmptyWaypoints rejects a plan request with no destinations.
	ErrEmptyWaypoints = errors.New("waypoints must contain at least one entry")
)
