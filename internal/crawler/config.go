package crawler

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Default setting values.
const (
	DefaultMaxRedirections = 16
	DefaultMaxInFlight     = 128
	DefaultRequestTimeout  = 60 * time.Second
	DefaultUserAgent       = "webdu/1.0 (+https://github.com/JakeFAU/webdu)"
	DefaultMaxPageBytes    = 5 * 1024 * 1024
)

// Settings captures every knob that influences a crawl run. Settings are
// immutable once a Crawler is built from them.
type Settings struct {
	// MaxRedirections bounds redirect hops per request; negative means unbounded.
	MaxRedirections int
	UserAgent       string
	// RequestTimeout caps each request/response hop; zero disables it.
	RequestTimeout time.Duration
	// MaxInFlight bounds concurrent HTTP exchanges; zero means unbounded.
	MaxInFlight int
	// MaxPageBytes caps how much of a listing body is read; zero means no cap.
	MaxPageBytes int64
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		MaxRedirections: DefaultMaxRedirections,
		UserAgent:       DefaultUserAgent,
		RequestTimeout:  DefaultRequestTimeout,
		MaxInFlight:     DefaultMaxInFlight,
		MaxPageBytes:    DefaultMaxPageBytes,
	}
}

// LoadSettings constructs Settings by reading from Viper.
func LoadSettings(v *viper.Viper) (Settings, error) {
	s := Settings{
		MaxRedirections: v.GetInt("crawler.max_redirections"),
		UserAgent:       strings.TrimSpace(v.GetString("crawler.user_agent")),
		RequestTimeout:  v.GetDuration("crawler.request_timeout"),
		MaxInFlight:     v.GetInt("crawler.max_in_flight"),
		MaxPageBytes:    v.GetInt64("crawler.max_page_bytes"),
	}
	return s, s.Validate()
}

// Validate checks for obviously bad configuration.
func (s Settings) Validate() error {
	if s.UserAgent == "" {
		return fmt.Errorf("crawler.user_agent must be set")
	}
	if s.RequestTimeout < 0 {
		return fmt.Errorf("crawler.request_timeout must be >= 0")
	}
	if s.MaxInFlight < 0 {
		return fmt.Errorf("crawler.max_in_flight must be >= 0")
	}
	if s.MaxPageBytes < 0 {
		return fmt.Errorf("crawler.max_page_bytes must be >= 0")
	}
	return nil
}
