package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/webdu/internal/crawler"
)

func TestInitConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	v := viper.New()
	used, err := InitConfig(v, "")
	require.NoError(t, err)
	assert.Empty(t, used)

	s, err := crawler.LoadSettings(v)
	require.NoError(t, err)
	assert.Equal(t, crawler.DefaultSettings(), s)
	assert.Equal(t, 0, v.GetInt("log.verbosity"))
	assert.False(t, v.GetBool("log.quiet"))
	assert.Empty(t, v.GetString("metrics.addr"))
}

func TestInitConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "webdu.yaml")
	body := "crawler:\n  max_redirections: 3\n  request_timeout: 2s\nlog:\n  verbosity: 2\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	v := viper.New()
	used, err := InitConfig(v, path)
	require.NoError(t, err)
	assert.Equal(t, path, used)

	s, err := crawler.LoadSettings(v)
	require.NoError(t, err)
	assert.Equal(t, 3, s.MaxRedirections)
	assert.Equal(t, 2*time.Second, s.RequestTimeout)
	assert.Equal(t, crawler.DefaultMaxInFlight, s.MaxInFlight)
	assert.Equal(t, 2, v.GetInt("log.verbosity"))
}

func TestInitConfigMissingExplicitFile(t *testing.T) {
	v := viper.New()
	_, err := InitConfig(v, filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestInitConfigEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("WEBDU_CRAWLER_MAX_IN_FLIGHT", "7")
	t.Setenv("WEBDU_CRAWLER_USER_AGENT", "probe/2")

	v := viper.New()
	_, err := InitConfig(v, "")
	require.NoError(t, err)

	s, err := crawler.LoadSettings(v)
	require.NoError(t, err)
	assert.Equal(t, 7, s.MaxInFlight)
	assert.Equal(t, "probe/2", s.UserAgent)
}
