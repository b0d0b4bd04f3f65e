package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status}
}

// Authentication failures (401). The EXPIRED_TOKEN code tells clients to
// attempt a refresh before re-prompting for credentials.
func NewMissingToken() error {
	return NewDomainError("MISSING_TOKEN", "missing authorization header", http.StatusUnauthorized)
}

func NewMalformedToken() error {
	return NewDomainError("MALFORMED_TOKEN", "malformed token", http.StatusUnauthorized)
}

func NewInvalidToken() error {
	return NewDomainError("INVALID_TOKEN", "invalid token", http.StatusUnauthorized)
}

func NewExpiredToken() error {
	return NewDomainError("EXPIRED_TOKEN", "token expired, refresh required", http.StatusUnauthorized)
}

func NewInvalidCredentials() error {
	return NewDomainError("INVALID_CREDENTIALS", "invalid credentials", http.StatusUnauthorized)
}

func NewUserInactive() error {
	return NewDomainError("USER_INACTIVE", "user not found or inactive", http.StatusUnauthorized)
}

func NewRevokedSession() error {
	return NewDomainError("SESSION_REVOKED", "session revoked", http.StatusUnauthorized)
}

// Authorization failures (403).
func NewWrongTokenType() error {
	return NewDomainError("WRONG_TOKEN_TYPE", "wrong token type", http.StatusForbidden)
}

func NewInsufficientPermission() error {
	return NewDomainError("INSUFFICIENT_PERMISSION", "insufficient permission", http.StatusForbidden)
}

func NewValidationError(message string) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest)
}

func NewUpstreamTimeout() error {
	return NewDomainError("UPSTREAM_TIMEOUT", "upstream dependency timed out", http.StatusGatewayTimeout)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError. Anything unrecognized
// becomes an opaque internal error so upstream causes never leak to clients.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return NewUserInactive().(*DomainError)
	}
	return NewInternalError(err).(*DomainError)
}

func MapError(err error) error {
	return ToDomainError(err)
}
