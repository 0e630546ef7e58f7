package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/JakeFAU/webdu/internal/app"
	"github.com/JakeFAU/webdu/internal/clock/system"
	"github.com/JakeFAU/webdu/internal/crawler"
	"github.com/JakeFAU/webdu/pkg/config"
)

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// App defines the application interface the command uses.
// This allows us to inject a mock app during tests.
type App interface {
	Close()
	GetLogger() *zap.Logger
	NewCrawler(out io.Writer) *crawler.Crawler
	Quiet() bool
	Clock() *system.Clock
	MarkFinished()
}

// newApp is the application factory. It's a variable so we can
// replace it with a mock factory in our tests.
var newApp = func(ctx context.Context, v *viper.Viper) (App, error) {
	return app.NewApp(ctx, v)
}

// flagBindings maps command-line flags to configuration keys.
var flagBindings = map[string]string{
	"verbose":          "log.verbosity",
	"quiet":            "log.quiet",
	"max-redirections": "crawler.max_redirections",
	"max-in-flight":    "crawler.max_in_flight",
	"max-page-bytes":   "crawler.max_page_bytes",
	"request-timeout":  "crawler.request_timeout",
	"user-agent":       "crawler.user_agent",
	"metrics-addr":     "metrics.addr",
}

// newRootCmd creates and configures the root command. Each call gets its
// own Viper instance so commands built in tests do not share state.
func newRootCmd() *cobra.Command {
	v := viper.New()
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "webdu [flags] URL",
		Short: "Report the disk usage of a web directory listing.",
		Long: `webdu walks an HTTP directory listing (the kind of index page a web
server generates for a folder) and prints the size of every file and the
total of every directory beneath URL, deepest entries first.

File sizes come from the Content-Length of a HEAD request; directories are
fetched with GET and their links followed concurrently. Links that leave
the starting directory are ignored.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,

		// Builds and injects the application once flags are parsed.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := config.InitConfig(v, cfgFile); err != nil {
				return err
			}
			appInstance, err := newApp(cmd.Context(), v)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},

		// Close runs here rather than in PersistentPostRun, which cobra skips
		// when RunE fails.
		RunE: func(cmd *cobra.Command, args []string) error {
			defer func() {
				if appInstance, ok := cmd.Context().Value(appKey).(App); ok && appInstance != nil {
					appInstance.Close()
				}
			}()
			return runCrawl(cmd, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./webdu.yaml, $HOME/.config/webdu/webdu.yaml or /etc/webdu/webdu.yaml)")
	flags.CountP("verbose", "v", "increase log verbosity (repeatable: -v warn, -vv info, -vvv debug)")
	flags.BoolP("quiet", "q", false, "suppress all logging and the elapsed-time line")
	flags.Int("max-redirections", crawler.DefaultMaxRedirections, "redirect hops allowed per request (negative means unbounded)")
	flags.Int("max-in-flight", crawler.DefaultMaxInFlight, "concurrent HTTP requests allowed (0 means unbounded)")
	flags.Int64("max-page-bytes", crawler.DefaultMaxPageBytes, "bytes of each listing page to read (0 means no limit)")
	flags.Duration("request-timeout", crawler.DefaultRequestTimeout, "timeout for each request (0 disables it)")
	flags.String("user-agent", crawler.DefaultUserAgent, "User-Agent header sent with every request")
	flags.String("metrics-addr", "", "serve /metrics, /healthz and /status on this address while crawling")

	if err := bindFlags(v, flags); err != nil {
		panic(err)
	}
	return cmd
}

// bindFlags attaches every flag in flagBindings to its configuration key so
// an explicitly set flag wins over env vars and the config file.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagBindings {
		flag := flags.Lookup(name)
		if flag == nil {
			return fmt.Errorf("bind flag %s: not defined", name)
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// Execute is the main entry point.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "webdu:", err)
		os.Exit(1)
	}
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}
