// Package mirror materializes a site's pages as local files with
// rewritten links, builds the browsable offline index, and persists the
// run report.
package mirror

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/aluiziolira/go-sitemirror/config"
	"github.com/aluiziolira/go-sitemirror/fetch"
	"github.com/aluiziolira/go-sitemirror/metrics"
	"github.com/aluiziolira/go-sitemirror/models"
	"github.com/aluiziolira/go-sitemirror/run"
)

// PagesDirName is the subdirectory holding one HTML file per page.
const PagesDirName = "pages"

// Materializer downloads crawl targets one at a time, rewrites their
// links, and persists them under the output directory.
type Materializer struct {
	cfg       *config.Config
	base      *url.URL
	collector *colly.Collector
	feed      *run.Feed
	metrics   *metrics.Metrics
	pagesDir  string

	downloaded map[string]struct{}
	failedSet  map[string]struct{}
	failedURLs []string
	records    []*models.PageRecord

	// current is the target being visited; the collector runs
	// synchronously so one field suffices.
	current      string
	handlersOnce sync.Once
}

// NewMaterializer builds a materializer for cfg. A nil transport keeps
// the default; tests inject a mock transport.
func NewMaterializer(cfg *config.Config, m *metrics.Metrics, feed *run.Feed, transport http.RoundTripper) (*Materializer, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("base url must include a host")
	}

	pagesDir := filepath.Join(cfg.OutputDir, PagesDirName)
	if err := os.MkdirAll(pagesDir, 0o755); err != nil {
		return nil, fmt.Errorf("create pages directory: %w", err)
	}

	collector := colly.NewCollector(
		colly.AllowedDomains(base.Host),
		colly.UserAgent(cfg.UserAgent),
	)
	collector.SetRequestTimeout(cfg.Timeout)
	collector.IgnoreRobotsTxt = true
	if transport != nil {
		collector.WithTransport(transport)
	} else {
		collector.WithTransport(&http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   cfg.Timeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        100,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		})
	}

	return &Materializer{
		cfg:        cfg,
		base:       base,
		collector:  collector,
		feed:       feed,
		metrics:    m,
		pagesDir:   pagesDir,
		downloaded: make(map[string]struct{}),
		failedSet:  make(map[string]struct{}),
	}, nil
}

// Run downloads each target in order. Cancellation is checked before
// every fetch; a per-URL failure is recorded and the loop continues.
// Re-running an already-downloaded URL is a no-op success.
func (m *Materializer) Run(ctx context.Context, targets []string) error {
	m.configureHandlers()

	total := len(targets)
	for i, target := range targets {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, ok := m.downloaded[target]; ok {
			continue
		}

		m.feed.Infof("[%d/%d] downloading %s", i+1, total, target)
		m.current = target
		if err := m.collector.Visit(target); err != nil {
			if _, ok := m.failedSet[target]; !ok {
				m.fail(target, err)
			}
		}

		time.Sleep(m.cfg.PageDelay)
	}
	return nil
}

// Records returns the materialized pages in download order.
func (m *Materializer) Records() []*models.PageRecord {
	return m.records
}

// Report aggregates the run into the persisted summary.
func (m *Materializer) Report() *models.ScrapeReport {
	report := &models.ScrapeReport{
		BaseURL:    m.cfg.BaseURL,
		TotalPages: len(m.records),
		Downloaded: len(m.downloaded),
		Failed:     len(m.failedURLs),
		FailedURLs: append([]string(nil), m.failedURLs...),
		Pages:      append([]*models.PageRecord(nil), m.records...),
		Timestamp:  time.Now(),
	}
	if report.FailedURLs == nil {
		report.FailedURLs = []string{}
	}
	if report.Pages == nil {
		report.Pages = []*models.PageRecord{}
	}
	return report
}

func (m *Materializer) configureHandlers() {
	m.handlersOnce.Do(func() {
		m.collector.OnRequest(func(r *colly.Request) {
			r.Ctx.Put("start", time.Now())
			m.metrics.IncFetch("page")
		})

		m.collector.OnResponse(func(r *colly.Response) {
			if start, ok := r.Ctx.GetAny("start").(time.Time); ok {
				m.metrics.ObserveFetchDuration(time.Since(start))
			}
			m.savePage(r)
		})

		m.collector.OnError(func(r *colly.Response, err error) {
			statusCode := 0
			if r != nil {
				statusCode = r.StatusCode
			}
			m.fail(m.current, fetch.Classify(err, statusCode))
		})
	})
}

func (m *Materializer) savePage(r *colly.Response) {
	doc, err := ParsePage(r.Body, r.Headers.Get("Content-Type"))
	if err != nil {
		m.fail(m.current, fmt.Errorf("parse page: %w", err))
		return
	}

	originalHTML, err := doc.Html()
	if err != nil {
		m.fail(m.current, fmt.Errorf("render page: %w", err))
		return
	}
	excerpt := PageExcerpt(originalHTML)

	RewriteLinks(doc, r.Request.URL, m.base.Host)
	title := PageTitle(doc, m.current)

	rewritten, err := doc.Html()
	if err != nil {
		m.fail(m.current, fmt.Errorf("render page: %w", err))
		return
	}

	filename := SanitizeFilename(m.current)
	if err := writeFileAtomic(filepath.Join(m.pagesDir, filename), []byte(rewritten)); err != nil {
		m.fail(m.current, err)
		return
	}

	m.records = append(m.records, &models.PageRecord{
		URL:      m.current,
		Title:    title,
		Excerpt:  excerpt,
		Filename: filename,
		Filepath: PagesDirName + "/" + filename,
	})
	m.downloaded[m.current] = struct{}{}
	m.metrics.IncPage("downloaded")
	m.feed.Infof("saved %s", filename)
}

func (m *Materializer) fail(target string, err error) {
	if _, ok := m.failedSet[target]; ok {
		return
	}
	m.failedSet[target] = struct{}{}
	m.failedURLs = append(m.failedURLs, target)
	m.metrics.IncPage("failed")
	m.metrics.IncError(fetch.Label(err))
	m.feed.Errorf("download %s: %v", target, err)
}

// writeFileAtomic persists content via a temporary file and rename, so
// a failed write never leaves a truncated page behind.
func writeFileAtomic(path string, content []byte) error {
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, content, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tempPath, err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("rename %s: %w", tempPath, err)
	}
	return nil
}
