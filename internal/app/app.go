// Package app initializes and holds long-lived application services, acting as a dependency injection container.
package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/JakeFAU/webdu/internal/api"
	"github.com/JakeFAU/webdu/internal/clock/system"
	"github.com/JakeFAU/webdu/internal/crawler"
	"github.com/JakeFAU/webdu/internal/id/uuid"
	"github.com/JakeFAU/webdu/internal/logging"
)

// App holds the services shared by one invocation: the logger, the crawl
// settings, the run id and, when configured, the metrics server.
type App struct {
	logger   *zap.Logger
	settings crawler.Settings
	runID    string
	quiet    bool
	clock    *system.Clock
	server   *api.Server
}

// GetLogger returns the logger, already tagged with the run id.
func (a *App) GetLogger() *zap.Logger {
	return a.logger
}

// GetSettings returns the validated crawl settings.
func (a *App) GetSettings() crawler.Settings {
	return a.settings
}

// RunID identifies this invocation in logs and on /status.
func (a *App) RunID() string {
	return a.runID
}

// Quiet reports whether informational output should be suppressed.
func (a *App) Quiet() bool {
	return a.quiet
}

// Clock returns the time source used for elapsed-time reporting.
func (a *App) Clock() *system.Clock {
	return a.clock
}

// NewCrawler builds a Crawler that prints results to out.
func (a *App) NewCrawler(out io.Writer) *crawler.Crawler {
	return crawler.New(a.settings,
		crawler.WithLogger(a.logger),
		crawler.WithReporter(crawler.NewLineReporter(out)),
	)
}

// NewApp creates and initializes a new App from the configuration in v.
// It fails fast when settings are invalid or the metrics listener cannot be
// bound.
func NewApp(_ context.Context, v *viper.Viper) (*App, error) {
	quiet := v.GetBool("log.quiet")
	base, err := logging.New(logging.Options{
		Development: v.GetBool("log.development"),
		Verbosity:   v.GetInt("log.verbosity"),
		Quiet:       quiet,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	settings, err := crawler.LoadSettings(v)
	if err != nil {
		return nil, fmt.Errorf("load crawler settings: %w", err)
	}

	runID, err := uuid.New().NewID()
	if err != nil {
		return nil, fmt.Errorf("generate run id: %w", err)
	}

	a := &App{
		logger:   base.With(zap.String("run_id", runID)),
		settings: settings,
		runID:    runID,
		quiet:    quiet,
		clock:    system.New(),
	}
	if path := v.ConfigFileUsed(); path != "" {
		a.logger.Info("Using config file", zap.String("path", path))
	}

	if addr := v.GetString("metrics.addr"); addr != "" {
		a.server = api.NewServer(runID, a.clock, a.logger.Named("api"))
		if _, err := a.server.Start(addr); err != nil {
			return nil, fmt.Errorf("start metrics server: %w", err)
		}
	}

	a.logger.Debug("Application services initialized",
		zap.Int("max_redirections", settings.MaxRedirections),
		zap.Int("max_in_flight", settings.MaxInFlight),
		zap.Duration("request_timeout", settings.RequestTimeout),
		zap.String("user_agent", settings.UserAgent),
	)
	return a, nil
}

// MarkFinished tells the status endpoint the crawl has completed.
func (a *App) MarkFinished() {
	if a.server != nil {
		a.server.MarkFinished()
	}
}

// Close gracefully shuts down all services in the App container.
func (a *App) Close() {
	if a.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.server.Shutdown(ctx); err != nil {
			a.logger.Warn("Error stopping metrics server", zap.Error(err))
		}
	}
	// Sync on stderr returns EINVAL on some platforms; nothing to do about it.
	_ = a.logger.Sync()
}
