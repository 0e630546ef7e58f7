package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"

	"github.com/JakeFAU/webdu/internal/metrics"
)

// acquire reserves an in-flight slot. The returned func releases it.
func (c *Crawler) acquire(ctx context.Context) (func(), error) {
	if c.inFlight != nil {
		if err := c.inFlight.Acquire(ctx, 1); err != nil {
			return nil, err
		}
	}
	metrics.IncInFlight()
	return func() {
		metrics.DecInFlight()
		if c.inFlight != nil {
			c.inFlight.Release(1)
		}
	}, nil
}

// directory fetches a listing, visits its children and reports their sum
// against the URL the listing was finally served from.
func (c *Crawler) directory(ctx context.Context, u *url.URL) (uint64, error) {
	c.logger.Info("Getting directory", zap.Stringer("url", u))
	final, text, err := c.fetchListing(ctx, u)
	if err != nil {
		return 0, fmt.Errorf("fetch directory %s: %w", u, err)
	}

	children, err := Extract(final, strings.NewReader(text), c.logger)
	if err != nil {
		return 0, fmt.Errorf("fetch directory %s: %w", u, err)
	}
	c.logger.Debug("Listing extracted", zap.Stringer("url", final), zap.Int("children", len(children)))

	sum := c.fanOut(ctx, children)
	c.reporter.Report(sum, final)
	return sum, nil
}

// fetchListing runs the GET exchange and returns the redirected URL and the
// decoded body. The in-flight slot is released before the caller fans out.
func (c *Crawler) fetchListing(ctx context.Context, u *url.URL) (*url.URL, string, error) {
	release, err := c.acquire(ctx)
	if err != nil {
		return nil, "", &RequestError{Kind: ErrTransport, Method: http.MethodGet, URL: u.String(), Err: err}
	}
	defer release()

	final, resp, err := Follow(ctx, c.client, http.MethodGet, u, c.settings.MaxRedirections, c.settings.UserAgent, c.logger)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		return nil, "", &RequestError{Kind: ErrMissingContentType, Method: http.MethodGet, URL: final.String(), Status: resp.StatusCode}
	}
	c.logger.Debug("Content type", zap.Stringer("url", final), zap.String("content_type", contentType))
	mediaType, params, err := mime.ParseMediaType(contentType)
	if errors.Is(err, mime.ErrInvalidMediaParameter) && mediaType == "text/html" {
		c.logger.Debug("Ignoring malformed content type parameters", zap.Stringer("url", final), zap.String("content_type", contentType))
		params, err = nil, nil
	}
	if err != nil || mediaType != "text/html" {
		return nil, "", &RequestError{
			Kind:        ErrUnsupportedContentType,
			Method:      http.MethodGet,
			URL:         final.String(),
			ContentType: contentType,
			Err:         err,
		}
	}

	raw, err := c.readListing(resp.Body, final)
	if err != nil {
		return nil, "", &RequestError{Kind: ErrTransport, Method: http.MethodGet, URL: final.String(), Status: resp.StatusCode, Err: err}
	}
	text, err := decodeBody(raw, params["charset"])
	if err != nil {
		c.logger.Warn("Falling back to UTF-8",
			zap.Stringer("url", final),
			zap.Error(&RequestError{Kind: ErrDecode, Method: http.MethodGet, URL: final.String(), Err: err}),
		)
	}
	return final, text, nil
}

// readListing reads at most MaxPageBytes of body. A longer listing is cut
// off and the entries before the cut are still used.
func (c *Crawler) readListing(body io.Reader, u *url.URL) ([]byte, error) {
	limit := c.settings.MaxPageBytes
	if limit <= 0 {
		return io.ReadAll(body)
	}
	raw, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(raw)) > limit {
		c.logger.Warn("Listing truncated", zap.Stringer("url", u), zap.Int64("max_page_bytes", limit))
		raw = raw[:limit]
	}
	return raw, nil
}

// decodeBody converts raw to UTF-8 using the named charset, UTF-8 when none
// is given. Invalid sequences become U+FFFD. An unknown charset still
// decodes as UTF-8 and the lookup error is returned alongside the text.
func decodeBody(raw []byte, charset string) (string, error) {
	var (
		enc       encoding.Encoding = unicode.UTF8
		lookupErr error
	)
	if charset = strings.TrimSpace(charset); charset != "" {
		e, err := htmlindex.Get(charset)
		if err != nil {
			lookupErr = fmt.Errorf("charset %q: %w", charset, err)
		} else {
			enc = e
		}
	}
	decoded, err := io.ReadAll(enc.NewDecoder().Reader(bytes.NewReader(raw)))
	if err != nil {
		return strings.ToValidUTF8(string(raw), "\uFFFD"), fmt.Errorf("decode %q: %w", charset, err)
	}
	return string(decoded), lookupErr
}

// peekFile asks for a file's headers and reports its declared length.
func (c *Crawler) peekFile(ctx context.Context, u *url.URL) (uint64, error) {
	release, err := c.acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("peek file %s: %w", u, &RequestError{Kind: ErrTransport, Method: http.MethodHead, URL: u.String(), Err: err})
	}
	final, resp, err := Follow(ctx, c.client, http.MethodHead, u, c.settings.MaxRedirections, c.settings.UserAgent, c.logger)
	release()
	if err != nil {
		return 0, fmt.Errorf("peek file %s: %w", u, err)
	}
	_ = resp.Body.Close()

	raw := resp.Header.Get("Content-Length")
	size, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("peek file %s: %w", u, &RequestError{
			Kind:   ErrMissingOrInvalidContentLength,
			Method: http.MethodHead,
			URL:    final.String(),
			Status: resp.StatusCode,
			Err:    err,
		})
	}
	metrics.ObserveFileSize(final.Host, size)
	c.reporter.Report(size, final)
	return size, nil
}
