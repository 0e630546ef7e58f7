// Package cmd defines and implements the CLI for the webdu executable.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/webdu/internal/crawler"
)

// runCrawl parses the root URL, walks it and prints the results. Branch
// failures only show up in the log and the command still succeeds. The
// elapsed-time line is printed only when the root listing was fetched.
func runCrawl(cmd *cobra.Command, args []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	logger := appInstance.GetLogger()

	root, err := crawler.ParseRoot(args[0])
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", args[0], err)
	}

	raiseFileLimit(logger)

	clock := appInstance.Clock()
	start := clock.Now()
	total, err := appInstance.NewCrawler(cmd.OutOrStdout()).Walk(cmd.Context(), root)
	elapsed := clock.Since(start)
	appInstance.MarkFinished()
	if err != nil {
		logger.Error("Crawl failed", zap.Stringer("url", root), zap.Error(err))
		return nil
	}

	logger.Info("Crawl finished",
		zap.Stringer("url", root),
		zap.Uint64("total", total),
		zap.Duration("elapsed", elapsed),
	)
	if !appInstance.Quiet() {
		fmt.Fprintf(cmd.ErrOrStderr(), "Finished in %dms\n", elapsed.Milliseconds())
	}
	return nil
}
