package cmd

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/webdu/internal/app"
)

func newListingServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<a href="a.txt">a</a> <a href="sub/">sub</a> <a href="../">up</a>`))
	})
	mux.HandleFunc("GET /sub/{$}", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<a href="b.txt">b</a>`))
	})
	mux.HandleFunc("HEAD /a.txt", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Length", "10")
	})
	mux.HandleFunc("HEAD /sub/b.txt", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Length", "5")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestRootCmdPrintsSizes(t *testing.T) {
	srv := newListingServer(t)

	stdout, stderr, err := execute(t, "-q", srv.URL)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "15                   "+srv.URL+"/", lines[len(lines)-1])
	assert.Contains(t, stdout, "5                    "+srv.URL+"/sub/b.txt\n")
	assert.Contains(t, stdout, "5                    "+srv.URL+"/sub/\n")
	assert.Contains(t, stdout, "10                   "+srv.URL+"/a.txt\n")
	assert.Empty(t, stderr)
}

func TestRootCmdReportsElapsedUnlessQuiet(t *testing.T) {
	srv := newListingServer(t)

	_, stderr, err := execute(t, srv.URL+"/sub/")
	require.NoError(t, err)
	assert.Regexp(t, `^Finished in \d+ms\n$`, stderr)
}

func TestRootCmdSkipsElapsedWhenRootFails(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	stdout, stderr, err := execute(t, srv.URL+"/gone/")
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.NotContains(t, stderr, "Finished in")
}

func TestRootCmdRejectsBadURL(t *testing.T) {
	_, _, err := execute(t, "-q", "ftp://example.com/")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid url")
}

func TestRootCmdRequiresOneArg(t *testing.T) {
	_, _, err := execute(t, "-q")
	require.Error(t, err)

	_, _, err = execute(t, "-q", "http://a/", "http://b/")
	require.Error(t, err)
}

func TestRootCmdBindsFlags(t *testing.T) {
	srv := newListingServer(t)

	var captured *viper.Viper
	orig := newApp
	t.Cleanup(func() { newApp = orig })
	newApp = func(ctx context.Context, v *viper.Viper) (App, error) {
		captured = v
		return app.NewApp(ctx, v)
	}

	_, _, err := execute(t,
		"-q", "-vv",
		"--max-redirections", "-1",
		"--max-in-flight", "4",
		"--max-page-bytes", "2048",
		"--request-timeout", "3s",
		"--user-agent", "probe/1",
		srv.URL,
	)
	require.NoError(t, err)
	require.NotNil(t, captured)
	assert.Equal(t, 2, captured.GetInt("log.verbosity"))
	assert.True(t, captured.GetBool("log.quiet"))
	assert.Equal(t, -1, captured.GetInt("crawler.max_redirections"))
	assert.Equal(t, 4, captured.GetInt("crawler.max_in_flight"))
	assert.Equal(t, int64(2048), captured.GetInt64("crawler.max_page_bytes"))
	assert.Equal(t, 3*time.Second, captured.GetDuration("crawler.request_timeout"))
	assert.Equal(t, "probe/1", captured.GetString("crawler.user_agent"))
}

func TestRootCmdAppInitFailure(t *testing.T) {
	orig := newApp
	t.Cleanup(func() { newApp = orig })
	newApp = func(context.Context, *viper.Viper) (App, error) {
		return nil, errors.New("boom")
	}

	_, _, err := execute(t, "-q", "http://example.com/")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to initialize application services: boom")
}

func TestBindFlagsUnknownFlag(t *testing.T) {
	flags := pflag.NewFlagSet("empty", pflag.ContinueOnError)
	err := bindFlags(viper.New(), flags)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not defined")
}

func TestResolveAppMissing(t *testing.T) {
	_, err := resolveApp(context.Background())
	require.Error(t, err)
}

func TestRaiseFileLimitDoesNotPanic(t *testing.T) {
	raiseFileLimit(zap.NewNop())
}
