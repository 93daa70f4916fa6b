// Package api provides error types for DMS API responses.
package api

import (
	"errors"
	"fmt"
	nethttp "net/http"
	"strings"
)

// ErrorKind classifies a failed DMS operation.
type ErrorKind int

const (
	// KindTransport covers connectivity failures and timeouts.
	KindTransport ErrorKind = iota
	// KindAuthExpired is a 401; the user must log in again in the host app.
	KindAuthExpired
	// KindNotFound is a 404.
	KindNotFound
	// KindServerError is any 5xx.
	KindServerError
	// KindClientError is any other 4xx.
	KindClientError
	// KindParse means the response did not have the expected shape.
	KindParse
	// KindUnsupportedContent means a shared payload could not be resolved to bytes.
	KindUnsupportedContent
	// KindValidation rejects input before any request is made.
	KindValidation
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindAuthExpired:
		return "auth_expired"
	case KindNotFound:
		return "not_found"
	case KindServerError:
		return "server_error"
	case KindClientError:
		return "client_error"
	case KindParse:
		return "parse"
	case KindUnsupportedContent:
		return "unsupported_content"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// reloginMessage is what the user sees for KindAuthExpired.
const reloginMessage = "Your session has expired. Please open EisenVault and log in again."

// Error is the typed failure returned by every DMS operation.
type Error struct {
	Kind       ErrorKind
	Op         string // "list root", "create folder", ...
	StatusCode int    // HTTP or envelope status; 0 when no response was received
	Message    string
	Body       string // raw response body, if any
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(" failed")
	} else {
		b.WriteString("request failed")
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": status %d", e.StatusCode)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewValidationError returns a KindValidation error for op.
func NewValidationError(op, message string) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: message}
}

// NewUnsupportedContentError returns a KindUnsupportedContent error.
func NewUnsupportedContentError(message string) *Error {
	return &Error{Kind: KindUnsupportedContent, Op: "resolve payload", Message: message}
}

func transportError(op string, err error) *Error {
	return &Error{Kind: KindTransport, Op: op, Err: err}
}

func parseError(op string, err error) *Error {
	return &Error{Kind: KindParse, Op: op, Message: "unexpected response", Err: err}
}

// statusError classifies a non-2xx status. body is kept verbatim for display.
func statusError(op string, status int, body []byte) *Error {
	e := &Error{
		Kind:       kindForStatus(status),
		Op:         op,
		StatusCode: status,
		Body:       strings.TrimSpace(string(body)),
	}
	if e.Body != "" {
		e.Message = e.Body
	} else {
		e.Message = nethttp.StatusText(status)
	}
	return e
}

func kindForStatus(status int) ErrorKind {
	switch {
	case status == nethttp.StatusUnauthorized:
		return KindAuthExpired
	case status == nethttp.StatusNotFound:
		return KindNotFound
	case status >= 500:
		return KindServerError
	default:
		return KindClientError
	}
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind == kind
	}
	return false
}

// IsAuthExpired reports whether err means the stored token is no longer valid.
func IsAuthExpired(err error) bool {
	return IsKind(err, KindAuthExpired)
}

// UserMessage converts err into the text shown to the user: a re-login prompt
// for expired sessions, the raw backend body when there is one, and the error
// text otherwise.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return err.Error()
	}
	switch {
	case apiErr.Kind == KindAuthExpired:
		return reloginMessage
	case apiErr.Body != "":
		return apiErr.Body
	case apiErr.Kind == KindTransport:
		return "Could not reach the server. Check your connection and try again."
	case apiErr.Message != "":
		return apiErr.Message
	default:
		return apiErr.Error()
	}
}
