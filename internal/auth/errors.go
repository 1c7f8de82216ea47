package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies an access control or delivery failure.
type Kind string

const (
	KindAuthenticationRequired           Kind = "AuthenticationRequired"
	KindCredentialExpired                Kind = "CredentialExpired"
	KindCredentialInvalid                Kind = "CredentialInvalid"
	KindAuthorizationDenied              Kind = "AuthorizationDenied"
	KindDeliveryTokenTampered            Kind = "DeliveryTokenTampered"
	KindDeliveryTokenExpired             Kind = "DeliveryTokenExpired"
	KindDeliveryTokenIntegrationMismatch Kind = "DeliveryTokenIntegrationMismatch"
	KindDomainNotAuthorized              Kind = "DomainNotAuthorized"
	KindUpstreamLookupFailure            Kind = "UpstreamLookupFailure"
)

// Status maps a kind to its HTTP status. Only upstream failures are 5xx.
func (k Kind) Status() int {
	switch k {
	case KindAuthenticationRequired, KindCredentialExpired, KindCredentialInvalid,
		KindDeliveryTokenTampered, KindDeliveryTokenExpired:
		return http.StatusUnauthorized
	case KindAuthorizationDenied, KindDeliveryTokenIntegrationMismatch, KindDomainNotAuthorized:
		return http.StatusForbidden
	case KindUpstreamLookupFailure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error is the single error type surfaced by the authorization pipeline.
type Error struct {
	Kind    Kind
	Message string
	Missing []string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, " (missing %s)", strings.Join(e.Missing, ", "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Status() int { return e.Kind.Status() }

// Is matches on Kind so errors.Is(err, auth.ErrCredentialExpired) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrAuthenticationRequired = &Error{Kind: KindAuthenticationRequired}
	ErrCredentialExpired      = &Error{Kind: KindCredentialExpired}
	ErrCredentialInvalid      = &Error{Kind: KindCredentialInvalid}
	ErrAuthorizationDenied    = &Error{Kind: KindAuthorizationDenied}
	ErrTokenTampered          = &Error{Kind: KindDeliveryTokenTampered}
	ErrTokenExpired           = &Error{Kind: KindDeliveryTokenExpired}
	ErrIntegrationMismatch    = &Error{Kind: KindDeliveryTokenIntegrationMismatch}
	ErrDomainNotAuthorized    = &Error{Kind: KindDomainNotAuthorized}
	ErrUpstreamLookupFailure  = &Error{Kind: KindUpstreamLookupFailure}
)

func AuthenticationRequired(msg string) *Error {
	return &Error{Kind: KindAuthenticationRequired, Message: msg}
}

func CredentialExpired(msg string) *Error {
	return &Error{Kind: KindCredentialExpired, Message: msg}
}

func CredentialInvalid(msg string, err error) *Error {
	return &Error{Kind: KindCredentialInvalid, Message: msg, Err: err}
}

func Denied(missing []string) *Error {
	return &Error{Kind: KindAuthorizationDenied, Message: "insufficient role or permission", Missing: missing}
}

func UpstreamFailure(err error) *Error {
	return &Error{Kind: KindUpstreamLookupFailure, Message: "authorization lookup failed", Err: err}
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// KindOf extracts the kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
