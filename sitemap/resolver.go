// Package sitemap discovers a site's sitemap files and resolves the
// nested tree into the set of page URLs it publishes.
package sitemap

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/temoto/robotstxt"

	"github.com/aluiziolira/go-sitemirror/fetch"
	"github.com/aluiziolira/go-sitemirror/metrics"
	"github.com/aluiziolira/go-sitemirror/models"
	"github.com/aluiziolira/go-sitemirror/run"
)

// Well-known sitemap locations, probed in order after robots.txt.
var wellKnownPaths = []string{
	"/sitemap.xml",
	"/sitemap_index.xml",
	"/sitemap-index.xml",
	"/sitemaps.xml",
	"/sitemap1.xml",
	"/sitemap_1.xml",
}

// Resolver discovers seed sitemap URLs for one site and expands sitemap
// indexes into their leaf URL sets.
type Resolver struct {
	client  *fetch.Client
	base    *url.URL
	delay   time.Duration
	feed    *run.Feed
	metrics *metrics.Metrics

	// saveDir, when non-empty, receives every fetched sitemap's raw
	// bytes (the archival variant).
	saveDir string
}

// Resolution is the outcome of expanding a seed set.
type Resolution struct {
	Documents []*models.SitemapDocument
	Pages     map[string]struct{}
	Failed    []string
}

// NewResolver builds a resolver for base. saveDir may be empty.
func NewResolver(client *fetch.Client, base *url.URL, delay time.Duration, feed *run.Feed, m *metrics.Metrics, saveDir string) *Resolver {
	return &Resolver{
		client:  client,
		base:    base,
		delay:   delay,
		feed:    feed,
		metrics: m,
		saveDir: saveDir,
	}
}

// DiscoverSeeds collects candidate sitemap URLs from robots.txt, the
// well-known paths, and the HTML sitemap page. Results are unioned in
// discovery order with duplicates collapsed. Method failures are
// reported and skipped; only cancellation aborts discovery.
func (r *Resolver) DiscoverSeeds(ctx context.Context) ([]string, error) {
	var seeds []string
	seen := make(map[string]struct{})
	add := func(candidate string) {
		if _, ok := seen[candidate]; ok {
			return
		}
		seen[candidate] = struct{}{}
		seeds = append(seeds, candidate)
	}

	if err := ctx.Err(); err != nil {
		return seeds, err
	}
	r.feed.Infof("checking robots.txt for sitemap directives")
	for _, found := range r.robotsSitemaps(ctx) {
		r.feed.Infof("found sitemap in robots.txt: %s", found)
		add(found)
	}

	if err := ctx.Err(); err != nil {
		return seeds, err
	}
	r.feed.Infof("probing well-known sitemap locations")
	for _, found := range r.wellKnownSitemaps(ctx) {
		r.feed.Infof("found sitemap at well-known path: %s", found)
		add(found)
	}

	if err := ctx.Err(); err != nil {
		return seeds, err
	}
	r.feed.Infof("checking HTML sitemap page")
	for _, found := range r.htmlSitemaps(ctx) {
		r.feed.Infof("found sitemap link in HTML: %s", found)
		add(found)
	}

	return seeds, ctx.Err()
}

// Resolve expands seeds with an explicit worklist. Every sitemap URL is
// fetched at most once; the visited set is the sole cycle guard. A
// fetch or parse failure is recorded and resolution continues.
func (r *Resolver) Resolve(ctx context.Context, seeds []string) (*Resolution, error) {
	res := &Resolution{Pages: make(map[string]struct{})}
	visited := make(map[string]struct{})
	frontier := append([]string(nil), seeds...)

	for len(frontier) > 0 {
		target := frontier[0]
		frontier = frontier[1:]

		if _, ok := visited[target]; ok {
			continue
		}
		visited[target] = struct{}{}

		if err := ctx.Err(); err != nil {
			return res, err
		}

		doc, err := r.resolveOne(ctx, target)
		time.Sleep(r.delay)
		if err != nil {
			res.Failed = append(res.Failed, target)
			r.feed.Errorf("sitemap %s: %v", target, err)
			r.metrics.IncError(fetch.Label(err))
			continue
		}

		res.Documents = append(res.Documents, doc)
		r.metrics.IncSitemap(string(doc.Kind))

		switch doc.Kind {
		case models.SitemapKindIndex:
			r.feed.Infof("sitemap index %s references %d sitemaps", target, len(doc.Sitemaps))
			frontier = append(frontier, doc.Sitemaps...)
		case models.SitemapKindURLSet:
			r.feed.Infof("sitemap %s lists %d urls", target, len(doc.PageURLs))
			r.metrics.AddDiscovered(len(doc.PageURLs))
			for _, page := range doc.PageURLs {
				res.Pages[page] = struct{}{}
			}
		}
	}

	return res, nil
}

func (r *Resolver) resolveOne(ctx context.Context, target string) (*models.SitemapDocument, error) {
	resp, err := r.client.Get(ctx, "sitemap", target)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, fetch.Classify(nil, resp.StatusCode)
	}

	filename := ""
	if r.saveDir != "" {
		filename = SitemapFilename(target)
		if err := os.MkdirAll(r.saveDir, 0o755); err != nil {
			return nil, fmt.Errorf("create sitemap directory: %w", err)
		}
		if err := os.WriteFile(filepath.Join(r.saveDir, filename), resp.Body, 0o644); err != nil {
			return nil, fmt.Errorf("save sitemap: %w", err)
		}
		r.feed.Infof("saved %s", filename)
	}

	parsed, err := Parse(resp.Body)
	if err != nil {
		return nil, err
	}

	return &models.SitemapDocument{
		URL:      target,
		Filename: filename,
		Kind:     parsed.Kind,
		Sitemaps: parsed.Sitemaps,
		PageURLs: parsed.PageURLs,
	}, nil
}

func (r *Resolver) robotsSitemaps(ctx context.Context) []string {
	robotsURL := r.base.JoinPath("/robots.txt").String()
	resp, err := r.client.Get(ctx, "robots", robotsURL)
	if err != nil {
		r.feed.Warnf("robots.txt: %v", err)
		return nil
	}
	if !resp.OK() {
		return nil
	}

	data, err := robotstxt.FromBytes(resp.Body)
	if err != nil {
		r.feed.Warnf("robots.txt: %v", err)
		return nil
	}
	return data.Sitemaps
}

func (r *Resolver) wellKnownSitemaps(ctx context.Context) []string {
	var found []string
	for _, path := range wellKnownPaths {
		if ctx.Err() != nil {
			return found
		}
		candidate := r.base.JoinPath(path).String()
		status, err := r.client.Head(ctx, "probe", candidate)
		if err != nil || status != 200 {
			continue
		}
		resp, err := r.client.Get(ctx, "probe", candidate)
		if err != nil || !resp.OK() {
			continue
		}
		if isXMLContentType(resp.ContentType) || isXMLPayload(resp.Body) {
			found = append(found, candidate)
		}
	}
	return found
}

func (r *Resolver) htmlSitemaps(ctx context.Context) []string {
	pageURL := r.base.JoinPath("/sitemap")
	resp, err := r.client.Get(ctx, "probe", pageURL.String())
	if err != nil || !resp.OK() {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		r.feed.Warnf("html sitemap page: %v", err)
		return nil
	}

	var found []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if !strings.Contains(strings.ToLower(href), "sitemap") || !strings.HasSuffix(href, ".xml") {
			return
		}
		absolute, err := pageURL.Parse(href)
		if err != nil {
			return
		}
		found = append(found, absolute.String())
	})
	return found
}

// SitemapFilename derives the archive filename for a sitemap URL: the
// last path segment, or a default when the path is empty.
func SitemapFilename(rawURL string) string {
	name := ""
	if parsed, err := url.Parse(rawURL); err == nil {
		segments := strings.Split(parsed.Path, "/")
		name = segments[len(segments)-1]
	}
	if name == "" {
		name = "sitemap.xml"
	}
	return name
}

func isXMLContentType(contentType string) bool {
	return strings.HasPrefix(contentType, "application/xml") ||
		strings.HasPrefix(contentType, "text/xml")
}

func isXMLPayload(body []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(body, " \t\r\n\xef\xbb\xbf"), []byte("<?xml"))
}
