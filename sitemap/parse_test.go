package sitemap

import (
	"testing"

	"github.com/aluiziolira/go-sitemirror/models"
)

func TestParseURLSet(t *testing.T) {
	data := []byte(`<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>https://example.com/a</loc></url>
  <url><loc>https://example.com/b</loc><lastmod>2024-01-01</lastmod></url>
  <url><loc></loc></url>
</urlset>`)

	parsed, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Kind != models.SitemapKindURLSet {
		t.Fatalf("kind = %q, want urlset", parsed.Kind)
	}
	if len(parsed.PageURLs) != 2 {
		t.Fatalf("urls = %v, want 2 entries", parsed.PageURLs)
	}
	if parsed.PageURLs[0] != "https://example.com/a" || parsed.PageURLs[1] != "https://example.com/b" {
		t.Fatalf("unexpected urls %v", parsed.PageURLs)
	}
}

func TestParseSitemapIndex(t *testing.T) {
	data := []byte(`<?xml version="1.0" encoding="UTF-8"?>
<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>https://example.com/sitemap1.xml</loc></sitemap>
  <sitemap><loc>https://example.com/sitemap2.xml</loc></sitemap>
</sitemapindex>`)

	parsed, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Kind != models.SitemapKindIndex {
		t.Fatalf("kind = %q, want sitemapindex", parsed.Kind)
	}
	if len(parsed.Sitemaps) != 2 {
		t.Fatalf("sitemaps = %v, want 2 entries", parsed.Sitemaps)
	}
}

func TestParseWithoutNamespace(t *testing.T) {
	data := []byte(`<urlset><url><loc>https://example.com/x</loc></url></urlset>`)

	parsed, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(parsed.PageURLs) != 1 || parsed.PageURLs[0] != "https://example.com/x" {
		t.Fatalf("unexpected urls %v", parsed.PageURLs)
	}
}

func TestParseRejectsOtherRoots(t *testing.T) {
	if _, err := Parse([]byte(`<html><body>not a sitemap</body></html>`)); err == nil {
		t.Fatalf("expected error for non-sitemap root")
	}
}

func TestParseRejectsMalformedXML(t *testing.T) {
	if _, err := Parse([]byte(`<urlset><url><loc>broken`)); err == nil {
		t.Fatalf("expected error for malformed xml")
	}
}

func TestSitemapFilename(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{url: "https://example.com/sitemap.xml", want: "sitemap.xml"},
		{url: "https://example.com/sitemaps/posts.xml", want: "posts.xml"},
		{url: "https://example.com/", want: "sitemap.xml"},
		{url: "https://example.com", want: "sitemap.xml"},
	}
	for _, tt := range tests {
		if got := SitemapFilename(tt.url); got != tt.want {
			t.Fatalf("SitemapFilename(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}
