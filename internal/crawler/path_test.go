package crawler

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePath(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw  string
		want []string
	}{
		{raw: "/", want: []string{}},
		{raw: "", want: []string{}},
		{raw: "/a/b/", want: []string{"a", "b"}},
		{raw: "/a//b/./c", want: []string{"a", "b", "c"}},
		{raw: "/a/b/../c/", want: []string{"a", "c"}},
		{raw: "a/../", want: []string{}},
	}
	for _, tc := range cases {
		got, err := NormalizePath(tc.raw)
		require.NoError(t, err, tc.raw)
		assert.Equal(t, tc.want, got, tc.raw)
	}
}

func TestNormalizePathRejectsEscape(t *testing.T) {
	t.Parallel()

	_, err := NormalizePath("/a/../../b")
	require.ErrorIs(t, err, ErrInvalidPath)

	_, err = NormalizePath("..")
	require.ErrorIs(t, err, ErrInvalidPath)
}

func TestIsDescendant(t *testing.T) {
	t.Parallel()

	current := []string{"a", "b"}
	cases := []struct {
		path string
		want bool
	}{
		{path: "/a/b/c/", want: true},
		{path: "/a/b/c/d/", want: true},
		{path: "/a/b/../b/c/", want: true},
		{path: "/a/b/", want: false},
		{path: "/a/", want: false},
		{path: "/", want: false},
		{path: "/a/x/", want: false},
		{path: "/x/b/c/", want: false},
		{path: "/a/b/c/../../../../", want: false},
		{path: "/a/b/c/../../x/y/", want: false},
		{path: "/../a/b/c/", want: false},
	}
	for _, tc := range cases {
		u := &url.URL{Scheme: "http", Host: "h", Path: tc.path}
		assert.Equal(t, tc.want, IsDescendant(current, u), tc.path)
	}
}

func TestIsDescendantFromRoot(t *testing.T) {
	t.Parallel()

	assert.True(t, IsDescendant(nil, mustParseURL(t, "http://h/sub/")))
	assert.False(t, IsDescendant(nil, mustParseURL(t, "http://h/")))
	assert.False(t, IsDescendant(nil, nil))
}

func TestIsDescendantIgnoresEscapeCase(t *testing.T) {
	t.Parallel()

	current, err := NormalizePath(mustParseURL(t, "http://h/caf%C3%A9/").EscapedPath())
	require.NoError(t, err)

	assert.True(t, IsDescendant(current, mustParseURL(t, "http://h/caf%c3%a9/sub/")))
	assert.True(t, IsDescendant(current, mustParseURL(t, "http://h/caf%C3%A9/sub/")))
	assert.True(t, IsDescendant(current, mustParseURL(t, "http://h/café/sub/")))
	assert.False(t, IsDescendant(current, mustParseURL(t, "http://h/cafe/sub/")))
}

func TestSameOrigin(t *testing.T) {
	t.Parallel()

	base := mustParseURL(t, "http://Example.com/dir/")
	assert.True(t, SameOrigin(base, mustParseURL(t, "http://example.com:80/dir/sub/")))
	assert.True(t, SameOrigin(mustParseURL(t, "https://h/"), mustParseURL(t, "https://h:443/x/")))
	assert.False(t, SameOrigin(base, mustParseURL(t, "https://example.com/dir/sub/")))
	assert.False(t, SameOrigin(base, mustParseURL(t, "http://example.com:8080/dir/sub/")))
	assert.False(t, SameOrigin(base, mustParseURL(t, "http://other.com/dir/sub/")))
	assert.False(t, SameOrigin(base, nil))
}

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("failed to parse url %q: %v", raw, err)
	}
	return u
}
