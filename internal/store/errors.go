package store

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/naveenspark/teller/pkg/client"
)

// Kind classifies a failure by where it came from.
type Kind int

const (
	// KindValidation is a client-side rejection; nothing was sent.
	KindValidation Kind = iota + 1
	// KindGateway is a transport or HTTP failure.
	KindGateway
	// KindApplication means the request went through but the ledger reported
	// success=false.
	KindApplication
	// KindAuthorization is a 401. The session has already been torn down.
	KindAuthorization
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindGateway:
		return "gateway"
	case KindApplication:
		return "application"
	case KindAuthorization:
		return "authorization"
	default:
		return "unknown"
	}
}

// Error is the one failure shape every store exposes. Views display Message
// and never look further.
type Error struct {
	Kind    Kind
	Message string
	// Raw is the original payload or cause, for logs.
	Raw any
}

func (e *Error) Error() string {
	return e.Message
}

func validationError(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func applicationError(msg, fallback string, raw any) *Error {
	if msg == "" {
		msg = fallback
	}
	return &Error{Kind: KindApplication, Message: msg, Raw: raw}
}

// Normalize converts any failure returned by the gateway into an *Error. It
// is the only place that inspects transport detail. Normalize(nil) is nil.
func Normalize(err error) *Error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return se
	}

	var httpErr *client.HTTPError
	if errors.As(err, &httpErr) {
		kind := KindGateway
		switch {
		case httpErr.StatusCode == http.StatusUnauthorized:
			kind = KindAuthorization
		case httpErr.StatusCode < 500 && reportedFailure(httpErr.Body):
			// The ledger processed the request and said no (e.g. insufficient
			// balance); it just used a 4xx to say it.
			kind = KindApplication
		}
		var raw any = err
		if len(httpErr.Body) > 0 {
			raw = string(httpErr.Body)
		}
		return &Error{Kind: kind, Message: httpErr.Message, Raw: raw}
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindGateway, Message: "the ledger did not respond in time", Raw: err}
	case errors.Is(err, context.Canceled):
		return &Error{Kind: KindGateway, Message: "request cancelled", Raw: err}
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		return &Error{Kind: KindGateway, Message: "unexpected response from the ledger", Raw: err}
	}
	return &Error{Kind: KindGateway, Message: "could not reach the ledger", Raw: err}
}

func reportedFailure(body []byte) bool {
	var env struct {
		Success *bool `json:"success"`
	}
	if json.Unmarshal(body, &env) != nil {
		return false
	}
	return env.Success != nil && !*env.Success
}

// IsKind reports whether err is a store error of the given kind.
func IsKind(err error, k Kind) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == k
}
