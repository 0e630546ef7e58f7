package crawler

import (
	"fmt"
	"net/url"
	"strings"
)

// NormalizePath splits a slash separated path into its segments, dropping
// empty and "." segments and resolving "..". A ".." with nothing left to pop
// means the path climbs above its root and yields ErrInvalidPath.
func NormalizePath(raw string) ([]string, error) {
	segments := make([]string, 0, strings.Count(raw, "/")+1)
	for _, seg := range strings.Split(raw, "/") {
		switch seg {
		case "", ".":
		case "..":
			if len(segments) == 0 {
				return nil, fmt.Errorf("%w: %q escapes its root", ErrInvalidPath, raw)
			}
			segments = segments[:len(segments)-1]
		default:
			segments = append(segments, seg)
		}
	}
	return segments, nil
}

// IsDescendant reports whether candidate lies strictly below the directory
// described by current. Self links, parent links and siblings sharing a
// prefix length are rejected. Origins are not compared here; see SameOrigin.
func IsDescendant(current []string, candidate *url.URL) bool {
	if candidate == nil {
		return false
	}
	depth := 0
	for _, seg := range strings.Split(candidate.EscapedPath(), "/") {
		switch seg {
		case "", ".":
		case "..":
			if depth == 0 {
				return false
			}
			depth--
		default:
			if depth < len(current) && !sameSegment(current[depth], seg) {
				return false
			}
			depth++
		}
	}
	return depth > len(current)
}

// sameSegment compares two escaped path segments by what they decode to,
// so "%c3%a9", "%C3%A9" and "é" are equal.
func sameSegment(a, b string) bool {
	if a == b {
		return true
	}
	ua, errA := url.PathUnescape(a)
	ub, errB := url.PathUnescape(b)
	return errA == nil && errB == nil && ua == ub
}

// SameOrigin compares scheme, host and effective port.
func SameOrigin(a, b *url.URL) bool {
	if a == nil || b == nil {
		return false
	}
	if !strings.EqualFold(a.Scheme, b.Scheme) {
		return false
	}
	if !strings.EqualFold(a.Hostname(), b.Hostname()) {
		return false
	}
	return effectivePort(a) == effectivePort(b)
}

func effectivePort(u *url.URL) string {
	if p := u.Port(); p != "" {
		return p
	}
	switch strings.ToLower(u.Scheme) {
	case "http":
		return "80"
	case "https":
		return "443"
	}
	return ""
}
