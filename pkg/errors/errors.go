package errors

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies where an error sits in the sync failure taxonomy
type Kind string

const (
	KindConfig             Kind = "config"
	KindTargetResolution   Kind = "target_resolution"
	KindTransientUpstream  Kind = "transient_upstream"
	KindStructuralUpstream Kind = "structural_upstream"
	KindTargetFetch        Kind = "target_fetch"
	KindStore              Kind = "store"
	KindCanceled           Kind = "canceled"
	KindUnknown            Kind = "unknown"
)

// Stage names the step of a target's processing that produced an error
type Stage string

const (
	StageListTargets   Stage = "list_targets"
	StageResolveTarget Stage = "resolve_target"
	StageFetchUserID   Stage = "fetch_user_id"
	StageFetchPage     Stage = "fetch_page"
	StageReadExisting  Stage = "read_existing"
	StageEnsureTab     Stage = "ensure_tab"
	StageAppend        Stage = "append"
	StageCredentials   Stage = "credentials"
)

// Error is a classified error carrying the account and stage it belongs to
type Error struct {
	Kind    Kind
	Stage   Stage
	Account string
	Code    int
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s error", e.Kind)
	if e.Stage != "" {
		msg += fmt.Sprintf(" at %s", e.Stage)
	}
	if e.Account != "" {
		msg += fmt.Sprintf(" for @%s", e.Account)
	}
	if e.Code != 0 {
		msg += fmt.Sprintf(" (code %d)", e.Code)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error without a cause
func New(kind Kind, stage Stage, message string) *Error {
	return &Error{Kind: kind, Stage: stage, Message: message}
}

// Newf creates a classified error with a formatted message
func Newf(kind Kind, stage Stage, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Stage: stage, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies err. A nil err yields nil.
func Wrap(err error, kind Kind, stage Stage, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Stage: stage, Message: message, Err: err}
}

// WithAccount returns a copy of e annotated with the account id
func (e *Error) WithAccount(account string) *Error {
	cp := *e
	cp.Account = account
	return &cp
}

// WithCode returns a copy of e annotated with an HTTP status code
func (e *Error) WithCode(code int) *Error {
	cp := *e
	cp.Code = code
	return &cp
}

// KindOf returns the kind of the outermost classified error in err's chain.
// Context cancellation is reported as KindCanceled.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCanceled
	}
	return KindUnknown
}

// StageOf returns the stage of the outermost classified error in err's chain
func StageOf(err error) Stage {
	var e *Error
	if errors.As(err, &e) {
		return e.Stage
	}
	return ""
}

// Is reports whether any classified error in err's chain has the given kind
func Is(err error, kind Kind) bool {
	if kind == KindCanceled && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return true
	}
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Err
	}
	return false
}

// IsRetryable checks if an error kind should be retried
func IsRetryable(kind Kind) bool {
	switch kind {
	case KindTransientUpstream:
		return true
	default:
		return false
	}
}

// IsFatal reports whether err must abort the whole run
func IsFatal(err error) bool {
	return KindOf(err) == KindConfig
}

// IsRetryableStatusCode checks if an HTTP status code indicates a transient failure.
// Any non-2xx status is transient except auth and not-found responses.
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case 401, 403, 404: // Client errors that won't change
		return false
	default:
		return statusCode < 200 || statusCode >= 300
	}
}
