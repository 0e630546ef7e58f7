package crawler

import (
	"fmt"
	"net/url"
	"strings"
)

// ParseRoot turns user input into the URL of the directory to crawl.
// A missing scheme defaults to http and a missing path to "/".
func ParseRoot(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("empty url")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + strings.TrimPrefix(raw, "//")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("missing host in %q", raw)
	}
	if u.Path == "" {
		u.Path = "/"
	}
	return stripQuery(u), nil
}

// stripQuery removes query and fragment in place; links that differ only in
// those parts address the same node.
func stripQuery(u *url.URL) *url.URL {
	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""
	return u
}

func isDirectoryURL(u *url.URL) bool {
	return strings.HasSuffix(u.EscapedPath(), "/")
}
