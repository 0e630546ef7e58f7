package crawler

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"
)

// HTTPClient is the default Doer. It sends exactly one request per Do and
// returns every response as-is, 3xx included, without reading Location.
// Follow owns redirect handling, so a malformed Location is classified
// there instead of failing inside net/http.
type HTTPClient struct {
	transport http.RoundTripper
	timeout   time.Duration
}

// NewHTTPClient returns a pooled client tuned for many small requests to
// a handful of hosts.
func NewHTTPClient(settings Settings) *HTTPClient {
	maxPerHost := settings.MaxInFlight
	if maxPerHost <= 0 {
		maxPerHost = DefaultMaxInFlight
	}
	return &HTTPClient{
		transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   15 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
			MaxIdleConns:          maxPerHost * 2,
			MaxIdleConnsPerHost:   maxPerHost,
			IdleConnTimeout:       90 * time.Second,
			ForceAttemptHTTP2:     true,
		},
		timeout: settings.RequestTimeout,
	}
}

// Do performs one round trip. The request timeout covers the whole
// exchange, body included, and is released when the body is closed.
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	if c.timeout <= 0 {
		return c.transport.RoundTrip(req)
	}
	ctx, cancel := context.WithTimeout(req.Context(), c.timeout)
	resp, err := c.transport.RoundTrip(req.WithContext(ctx))
	if err != nil {
		cancel()
		return nil, err
	}
	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// CloseIdleConnections drops pooled connections.
func (c *HTTPClient) CloseIdleConnections() {
	if t, ok := c.transport.(interface{ CloseIdleConnections() }); ok {
		t.CloseIdleConnections()
	}
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}
