package errors

import (
	"errors"
	"fmt"
)

// Kind is a stable, machine-readable error category surfaced to callers.
type Kind string

// Authentication and validation kinds
const (
	KindTokenRequired        Kind = "TokenRequired"
	KindRefreshTokenRequired Kind = "RefreshTokenRequired"
	KindAPIKeyRequired       Kind = "ApiKeyRequired"
	KindInvalidToken         Kind = "InvalidToken"
	KindInvalidRefreshToken  Kind = "InvalidRefreshToken"
	KindInvalidAPIKey        Kind = "InvalidApiKey"
	KindExpiredToken         Kind = "ExpiredToken"
	KindUnknownToken         Kind = "UnknownToken"
	KindForbidden            Kind = "Forbidden"
)

// Lifecycle kinds
const (
	KindNoSessionsFound       Kind = "NoSessionsFound"
	KindSessionNotFound       Kind = "SessionNotFound"
	KindUnableToReachProvider Kind = "UnableToReachProvider"
	KindBotNotFound           Kind = "BotNotFound"
	KindBotNotApproved        Kind = "BotNotApproved"
)

// Error carries a Kind and a caller-safe message. Err is never rendered to clients.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same Kind so sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New returns an *Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WithCause returns an *Error of the given kind wrapping cause.
func WithCause(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// Sentinels for errors.Is comparisons
var (
	ErrTokenRequired        = New(KindTokenRequired, "token required")
	ErrRefreshTokenRequired = New(KindRefreshTokenRequired, "refresh token required")
	ErrAPIKeyRequired       = New(KindAPIKeyRequired, "api key required")
	ErrInvalidToken         = New(KindInvalidToken, "invalid token")
	ErrInvalidRefreshToken  = New(KindInvalidRefreshToken, "invalid refresh token")
	ErrInvalidAPIKey        = New(KindInvalidAPIKey, "invalid api key")
	ErrExpiredToken         = New(KindExpiredToken, "token expired")
	ErrUnknownToken         = New(KindUnknownToken, "unknown token")
	ErrForbidden            = New(KindForbidden, "missing permissions")

	ErrNoSessionsFound       = New(KindNoSessionsFound, "no sessions found")
	ErrSessionNotFound       = New(KindSessionNotFound, "session not found")
	ErrUnableToReachProvider = New(KindUnableToReachProvider, "unable to reach provider")
	ErrBotNotFound           = New(KindBotNotFound, "bot not found")
	ErrBotNotApproved        = New(KindBotNotApproved, "bot not approved")
)

// KindOf returns the Kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsAuthentication reports whether err is a credential validation failure.
func IsAuthentication(err error) bool {
	switch KindOf(err) {
	case KindTokenRequired, KindRefreshTokenRequired, KindAPIKeyRequired,
		KindInvalidToken, KindInvalidRefreshToken, KindInvalidAPIKey,
		KindExpiredToken, KindUnknownToken:
		return true
	}
	return false
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
