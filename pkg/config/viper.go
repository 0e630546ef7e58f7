// Package config is responsible for initializing the application's configuration.
// It uses the Viper library to read settings from a config file, environment
// variables, and command-line flags, providing a unified configuration system.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/JakeFAU/webdu/internal/crawler"
)

// EnvPrefix is prepended to every environment override, e.g.
// WEBDU_CRAWLER_MAX_IN_FLIGHT=32.
const EnvPrefix = "WEBDU"

// SetDefaults registers the default value of every known key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("crawler.max_redirections", crawler.DefaultMaxRedirections)
	v.SetDefault("crawler.user_agent", crawler.DefaultUserAgent)
	v.SetDefault("crawler.request_timeout", crawler.DefaultRequestTimeout.String())
	v.SetDefault("crawler.max_in_flight", crawler.DefaultMaxInFlight)
	v.SetDefault("crawler.max_page_bytes", crawler.DefaultMaxPageBytes)

	v.SetDefault("log.verbosity", 0)
	v.SetDefault("log.quiet", false)
	v.SetDefault("log.development", false)

	v.SetDefault("metrics.addr", "")
}

// InitConfig prepares v: defaults, environment overrides, and the optional
// config file. An explicit cfgFile must exist; otherwise webdu.yaml is looked
// up in the usual places and its absence is not an error. It returns the
// path of the file that was read, if any.
func InitConfig(v *viper.Viper, cfgFile string) (string, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("webdu")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/webdu")
		v.AddConfigPath("/etc/webdu")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("read config: %w", err)
	}
	return v.ConfigFileUsed(), nil
}
