package crawler

import (
	"errors"
	"fmt"
	"strings"
)

// Kind tags a crawl failure. Kinds are comparable errors so callers can use
// errors.Is(err, ErrTooManyRedirections) anywhere in a wrapped chain.
type Kind string

func (k Kind) Error() string { return string(k) }

// Label renders the kind as a Prometheus-friendly label value.
func (k Kind) Label() string {
	if k == "" {
		return "unknown"
	}
	return strings.ReplaceAll(string(k), " ", "_")
}

// Failure kinds raised by the crawler.
const (
	ErrInvalidPath                   Kind = "invalid path"
	ErrTooManyRedirections           Kind = "too many redirections"
	ErrMissingLocation               Kind = "missing location"
	ErrInvalidRedirectTarget         Kind = "invalid redirect target"
	ErrTransport                     Kind = "transport error"
	ErrUnexpectedStatus              Kind = "unexpected status"
	ErrMissingContentType            Kind = "missing content type"
	ErrUnsupportedContentType        Kind = "unsupported content type"
	ErrMissingOrInvalidContentLength Kind = "missing or invalid content length"
	ErrDecode                        Kind = "decode error"
)

// RequestError describes a failure tied to a single HTTP exchange.
type RequestError struct {
	Kind         Kind
	Method       string
	URL          string
	Status       int
	Redirections int
	ContentType  string
	Err          error
}

func (e *RequestError) Error() string {
	var b strings.Builder
	if e.Method != "" {
		b.WriteString(e.Method)
		b.WriteByte(' ')
	}
	b.WriteString(e.URL)
	b.WriteString(": ")
	b.WriteString(string(e.Kind))
	switch {
	case e.Kind == ErrTooManyRedirections:
		fmt.Fprintf(&b, " (%d)", e.Redirections)
	case e.Kind == ErrUnsupportedContentType:
		fmt.Fprintf(&b, " %q", e.ContentType)
	case e.Status != 0:
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind and the underlying cause.
func (e *RequestError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindOf returns the first failure kind found in err's chain.
func KindOf(err error) Kind {
	var k Kind
	if errors.As(err, &k) {
		return k
	}
	return ""
}
