package crawler

import (
	"context"
	"net/url"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/JakeFAU/webdu/internal/metrics"
)

// Crawler holds the state shared by every task of one run: the HTTP client,
// the settings, and where results and logs go. Nothing in it changes after
// New returns, so one Crawler is safe to share across goroutines.
type Crawler struct {
	client   Doer
	settings Settings
	reporter Reporter
	logger   *zap.Logger
	inFlight *semaphore.Weighted
}

// Option customizes a Crawler.
type Option func(*Crawler)

// WithClient replaces the default HTTP client. The client must not follow
// redirects on its own.
func WithClient(client Doer) Option {
	return func(c *Crawler) {
		c.client = client
	}
}

// WithReporter sets where node sizes are printed.
func WithReporter(r Reporter) Option {
	return func(c *Crawler) {
		c.reporter = r
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Crawler) {
		c.logger = logger
	}
}

// New builds a Crawler for settings.
func New(settings Settings, opts ...Option) *Crawler {
	c := &Crawler{
		settings: settings,
		reporter: discardReporter{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = NewHTTPClient(settings)
	}
	if c.reporter == nil {
		c.reporter = discardReporter{}
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if settings.MaxInFlight > 0 {
		c.inFlight = semaphore.NewWeighted(int64(settings.MaxInFlight))
	}
	return c
}

// Settings returns the settings the Crawler was built with.
func (c *Crawler) Settings() Settings {
	return c.settings
}

// Crawl walks the listing rooted at root and returns the total size. A
// failure of the root itself is logged and counts as zero.
func (c *Crawler) Crawl(ctx context.Context, root *url.URL) uint64 {
	total, err := c.Walk(ctx, root)
	if err != nil {
		c.logger.Error("Crawl failed", zap.Stringer("url", root), zap.Error(err))
		return 0
	}
	return total
}

// Walk is Crawl for callers that need to know whether the root listing
// itself could be fetched. Failures below the root are still absorbed.
func (c *Crawler) Walk(ctx context.Context, root *url.URL) (uint64, error) {
	total, err := c.directory(ctx, root)
	if err != nil {
		metrics.ObserveBranchFailure(KindOf(err).Label())
		return 0, err
	}
	return total, nil
}

// visit handles one child and never fails: errors are logged and the
// branch contributes zero.
func (c *Crawler) visit(ctx context.Context, child Child) uint64 {
	metrics.ObserveNode(child.IsDir)
	var (
		size uint64
		err  error
	)
	if child.IsDir {
		size, err = c.directory(ctx, child.URL)
	} else {
		size, err = c.peekFile(ctx, child.URL)
	}
	if err != nil {
		metrics.ObserveBranchFailure(KindOf(err).Label())
		c.logger.Error("Branch failed", zap.Stringer("url", child.URL), zap.Bool("directory", child.IsDir), zap.Error(err))
		return 0
	}
	return size
}

// fanOut visits every child concurrently and returns the sum once all of
// them have finished.
func (c *Crawler) fanOut(ctx context.Context, children []Child) uint64 {
	sizes := make([]uint64, len(children))
	var wg sync.WaitGroup
	for i, child := range children {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sizes[i] = c.visit(ctx, child)
		}()
	}
	wg.Wait()

	var sum uint64
	for _, s := range sizes {
		sum += s
	}
	return sum
}
