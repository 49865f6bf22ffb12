package mirror

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"

	"github.com/aluiziolira/go-sitemirror/config"
	"github.com/aluiziolira/go-sitemirror/fetch"
	"github.com/aluiziolira/go-sitemirror/jsonfile"
	"github.com/aluiziolira/go-sitemirror/metrics"
	"github.com/aluiziolira/go-sitemirror/run"
	"github.com/aluiziolira/go-sitemirror/sitemap"
)

// ReportFilename is the full-site variant's summary artifact, written
// at the mirror root.
const ReportFilename = "scrape_report.json"

// Mirror runs the full-site variant: resolve the sitemap tree into a
// URL set, build the crawl targets, materialize each page, then write
// the offline index and the run report. A nil transport keeps default
// HTTP transports; tests inject a mock.
func Mirror(ctx context.Context, cfg *config.Config, m *metrics.Metrics, feed *run.Feed, transport http.RoundTripper) error {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return fmt.Errorf("parse base url: %w", err)
	}

	client, err := fetch.New(cfg, m, transport)
	if err != nil {
		return err
	}

	resolver := sitemap.NewResolver(client, base, cfg.SitemapDelay, feed, m, "")
	seeds, err := resolver.DiscoverSeeds(ctx)
	if err != nil {
		return err
	}

	res, err := resolver.Resolve(ctx, seeds)
	if err != nil {
		return err
	}
	feed.Infof("discovered %d url(s) across %d sitemap(s), %d sitemap failure(s)",
		len(res.Pages), len(res.Documents), len(res.Failed))

	if len(res.Pages) == 0 {
		feed.Warnf("no urls found in sitemaps, falling back to %s", cfg.BaseURL)
	}
	targets := BuildTargets(base, res.Pages, cfg.MaxPages)
	if cfg.MaxPages > 0 && len(targets) == cfg.MaxPages {
		feed.Infof("crawl capped at %d page(s)", cfg.MaxPages)
	}
	feed.Infof("downloading %d page(s)", len(targets))

	materializer, err := NewMaterializer(cfg, m, feed, transport)
	if err != nil {
		return err
	}
	if err := materializer.Run(ctx, targets); err != nil {
		return err
	}

	report := materializer.Report()
	if len(report.Pages) > 0 {
		if err := WriteIndex(cfg.OutputDir, report); err != nil {
			return err
		}
		feed.Infof("index written to %s", filepath.Join(cfg.OutputDir, IndexFilename))
	}

	reportPath := filepath.Join(cfg.OutputDir, ReportFilename)
	if err := jsonfile.Write(reportPath, report); err != nil {
		return fmt.Errorf("write scrape report: %w", err)
	}

	feed.Infof("downloaded %d page(s), %d failed; report saved to %s",
		report.Downloaded, report.Failed, reportPath)
	return nil
}
