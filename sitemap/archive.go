package sitemap

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"time"

	"github.com/aluiziolira/go-sitemirror/config"
	"github.com/aluiziolira/go-sitemirror/fetch"
	"github.com/aluiziolira/go-sitemirror/jsonfile"
	"github.com/aluiziolira/go-sitemirror/metrics"
	"github.com/aluiziolira/go-sitemirror/models"
	"github.com/aluiziolira/go-sitemirror/run"
)

// ReportFilename is the archival variant's summary artifact, written at
// the root of the output directory.
const ReportFilename = "sitemap_report.json"

// Archive runs the sitemap-archival variant: discover seed sitemaps,
// resolve the full tree while saving every fetched document's raw XML
// under <out>/sitemaps/, then persist a summary report. Pages are not
// downloaded.
func Archive(ctx context.Context, cfg *config.Config, client *fetch.Client, m *metrics.Metrics, feed *run.Feed) error {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return fmt.Errorf("parse base url: %w", err)
	}

	saveDir := filepath.Join(cfg.OutputDir, "sitemaps")
	resolver := NewResolver(client, base, cfg.SitemapDelay, feed, m, saveDir)

	seeds, err := resolver.DiscoverSeeds(ctx)
	if err != nil {
		return err
	}
	if len(seeds) == 0 {
		feed.Warnf("no sitemaps found for %s", cfg.BaseURL)
	} else {
		feed.Infof("resolving %d seed sitemap(s)", len(seeds))
	}

	res, err := resolver.Resolve(ctx, seeds)
	if err != nil {
		return err
	}

	report := BuildReport(cfg.BaseURL, res)
	reportPath := filepath.Join(cfg.OutputDir, ReportFilename)
	if err := jsonfile.Write(reportPath, report); err != nil {
		return fmt.Errorf("write sitemap report: %w", err)
	}

	feed.Infof("archived %d sitemap(s): %d indexes, %d url sets, %d urls, %d failed",
		report.TotalSitemaps, report.SitemapIndexes, report.URLSets, report.TotalURLs, report.Failed)
	feed.Infof("report saved to %s", reportPath)
	return nil
}

// BuildReport aggregates a resolution into the persisted summary.
func BuildReport(baseURL string, res *Resolution) *models.SitemapReport {
	report := &models.SitemapReport{
		BaseURL:       baseURL,
		TotalSitemaps: len(res.Documents),
		Failed:        len(res.Failed),
		FailedURLs:    append([]string(nil), res.Failed...),
		Sitemaps:      res.Documents,
		Timestamp:     time.Now(),
	}
	if report.FailedURLs == nil {
		report.FailedURLs = []string{}
	}
	if report.Sitemaps == nil {
		report.Sitemaps = []*models.SitemapDocument{}
	}
	for _, doc := range res.Documents {
		switch doc.Kind {
		case models.SitemapKindIndex:
			report.SitemapIndexes++
		case models.SitemapKindURLSet:
			report.URLSets++
		}
		report.TotalURLs += len(doc.PageURLs)
	}
	return report
}
