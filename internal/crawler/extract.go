package crawler

import (
	"fmt"
	"io"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// Child is one entry of a directory listing, resolved to an absolute URL.
type Child struct {
	URL   *url.URL
	IsDir bool
}

// Extract reads an HTML listing and returns the entries worth visiting.
//
// Every anchor's href is resolved against base with query and fragment
// removed. Entries ending in "/" are subdirectories and are kept only when
// they share base's origin and sit strictly below it, which keeps the walk
// inside the starting subtree and rules out loops through parent links.
// Files are kept wherever they point. Duplicates are dropped and the
// remaining entries keep document order.
func Extract(base *url.URL, r io.Reader, logger *zap.Logger) ([]Child, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	current, err := NormalizePath(base.EscapedPath())
	if err != nil {
		return nil, fmt.Errorf("listing base %s: %w", base, err)
	}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse listing %s: %w", base, err)
	}

	seen := make(map[string]struct{})
	var children []Child
	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			logger.Warn("Skipping unparsable link", zap.String("href", href), zap.Stringer("base", base), zap.Error(err))
			return
		}
		resolved := stripQuery(base.ResolveReference(ref))
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			logger.Debug("Skipping non-http link", zap.Stringer("url", resolved))
			return
		}
		dir := isDirectoryURL(resolved)
		if dir && (!SameOrigin(base, resolved) || !IsDescendant(current, resolved)) {
			logger.Debug("Skipping link outside the subtree", zap.Stringer("url", resolved))
			return
		}
		key := resolved.String()
		if _, dup := seen[key]; dup {
			logger.Debug("Duplicate link", zap.String("url", key))
			return
		}
		seen[key] = struct{}{}
		children = append(children, Child{URL: resolved, IsDir: dir})
	})
	return children, nil
}
