// Package models defines data structures shared by the resolver,
// materializer, and reporters.
package models

import "time"

// SitemapKind labels a parsed sitemap document.
type SitemapKind string

const (
	// SitemapKindIndex is a <sitemapindex> referencing other sitemaps.
	SitemapKindIndex SitemapKind = "sitemapindex"
	// SitemapKindURLSet is a <urlset> listing page URLs.
	SitemapKindURLSet SitemapKind = "urlset"
)

// SitemapDocument is the result of fetching and parsing one sitemap URL.
// A fetch or parse failure yields no document; the failure is recorded
// separately on the resolution.
type SitemapDocument struct {
	URL      string      `json:"url"`
	Filename string      `json:"filename,omitempty"`
	Kind     SitemapKind `json:"type"`
	Sitemaps []string    `json:"sitemaps,omitempty"`
	PageURLs []string    `json:"urls,omitempty"`
}

// PageRecord describes one successfully materialized page. Records are
// append-only within a run and consumed by the index builder and the
// reporter.
type PageRecord struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	Excerpt  string `json:"excerpt,omitempty"`
	Filename string `json:"filename"`
	Filepath string `json:"filepath"`
}

// ScrapeReport is the persisted summary of a full-site mirror run.
type ScrapeReport struct {
	BaseURL    string        `json:"base_url"`
	TotalPages int           `json:"total_pages"`
	Downloaded int           `json:"downloaded"`
	Failed     int           `json:"failed"`
	FailedURLs []string      `json:"failed_urls"`
	Pages      []*PageRecord `json:"pages"`
	Timestamp  time.Time     `json:"timestamp"`
}

// SitemapReport is the persisted summary of a sitemap-archival run.
type SitemapReport struct {
	BaseURL        string             `json:"base_url"`
	TotalSitemaps  int                `json:"total_sitemaps"`
	SitemapIndexes int                `json:"sitemap_indexes"`
	URLSets        int                `json:"urlsets"`
	TotalURLs      int                `json:"total_urls"`
	Failed         int                `json:"failed"`
	FailedURLs     []string           `json:"failed_urls"`
	Sitemaps       []*SitemapDocument `json:"sitemaps"`
	Timestamp      time.Time          `json:"timestamp"`
}
