package crawler

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/JakeFAU/webdu/internal/metrics"
)

// Doer executes a single HTTP request without following redirects.
// HTTPClient is the default; an *http.Client also works when its
// CheckRedirect returns http.ErrUseLastResponse.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Follow sends method to target and follows 3xx responses until a 2xx
// arrives. A non-negative maxRedirections bounds the hops; a negative one
// follows forever. The redirect count belongs to this call only.
//
// On success the caller owns resp.Body. Every error is a *RequestError
// naming the URL that was being requested when it happened.
func Follow(
	ctx context.Context,
	client Doer,
	method string,
	target *url.URL,
	maxRedirections int,
	userAgent string,
	logger *zap.Logger,
) (*url.URL, *http.Response, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	current := target
	for count := 0; ; count++ {
		req, err := http.NewRequestWithContext(ctx, method, current.String(), nil)
		if err != nil {
			return nil, nil, &RequestError{Kind: ErrTransport, Method: method, URL: current.String(), Err: err}
		}
		if userAgent != "" {
			req.Header.Set("User-Agent", userAgent)
		}

		resp, err := client.Do(req)
		if err != nil {
			metrics.ObserveRequest(method, 0)
			return nil, nil, &RequestError{Kind: ErrTransport, Method: method, URL: current.String(), Err: err}
		}
		metrics.ObserveRequest(method, resp.StatusCode)

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return current, resp, nil
		case resp.StatusCode >= 300 && resp.StatusCode < 400:
			discard(resp)
			fail := func(kind Kind, cause error) error {
				return &RequestError{
					Kind:         kind,
					Method:       method,
					URL:          current.String(),
					Status:       resp.StatusCode,
					Redirections: count + 1,
					Err:          cause,
				}
			}
			if maxRedirections >= 0 && count >= maxRedirections {
				return nil, nil, fail(ErrTooManyRedirections, nil)
			}
			location := resp.Header.Get("Location")
			if location == "" {
				return nil, nil, fail(ErrMissingLocation, nil)
			}
			ref, err := url.Parse(location)
			if err != nil {
				return nil, nil, fail(ErrInvalidRedirectTarget, err)
			}
			next := current.ResolveReference(ref)
			if next.Scheme != "http" && next.Scheme != "https" {
				return nil, nil, fail(ErrInvalidRedirectTarget, nil)
			}
			logger.Info("Redirected",
				zap.String("method", method),
				zap.Stringer("from", current),
				zap.Stringer("to", next),
				zap.Int("status", resp.StatusCode),
			)
			metrics.ObserveRedirect()
			current = next
		default:
			discard(resp)
			return nil, nil, &RequestError{
				Kind:   ErrUnexpectedStatus,
				Method: method,
				URL:    current.String(),
				Status: resp.StatusCode,
			}
		}
	}
}

// discard drains a small amount of the body so the connection can be reused.
func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
