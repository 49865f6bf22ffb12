package mirror

import (
	"strings"
	"testing"
)

const rewriteFixture = `<html>
<head><title>  Fixture Page  </title></head>
<body>
<a href="/about">About</a>
<a href="https://example.com/blog/post-1">Post</a>
<a href="https://other.test/elsewhere">Elsewhere</a>
<p>Some body text for the excerpt.</p>
</body>
</html>`

func TestRewriteLinksSameDomain(t *testing.T) {
	doc, err := ParsePage([]byte(rewriteFixture), "text/html")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	pageURL := mustParse(t, "https://example.com/current")

	RewriteLinks(doc, pageURL, "example.com")

	href, _ := doc.Find("a").Eq(0).Attr("href")
	if href != "about.html" {
		t.Fatalf("relative link rewritten to %q, want about.html", href)
	}
	href, _ = doc.Find("a").Eq(1).Attr("href")
	if href != "blog_post-1.html" {
		t.Fatalf("absolute same-domain link rewritten to %q, want blog_post-1.html", href)
	}
}

func TestRewriteLinksCrossDomain(t *testing.T) {
	doc, err := ParsePage([]byte(rewriteFixture), "text/html")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	RewriteLinks(doc, mustParse(t, "https://example.com/current"), "example.com")

	external := doc.Find("a").Eq(2)
	if href, _ := external.Attr("href"); href != "https://other.test/elsewhere" {
		t.Fatalf("external href = %q, want absolute original", href)
	}
	if target, _ := external.Attr("target"); target != "_blank" {
		t.Fatalf("external target = %q, want _blank", target)
	}
	if rel, _ := external.Attr("rel"); rel != "noopener noreferrer" {
		t.Fatalf("external rel = %q, want noopener noreferrer", rel)
	}
}

func TestPageTitle(t *testing.T) {
	doc, err := ParsePage([]byte(rewriteFixture), "text/html")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := PageTitle(doc, "fallback"); got != "Fixture Page" {
		t.Fatalf("title = %q, want trimmed Fixture Page", got)
	}

	bare, err := ParsePage([]byte("<html><body>no title</body></html>"), "text/html")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := PageTitle(bare, "https://example.com/x"); got != "https://example.com/x" {
		t.Fatalf("title = %q, want fallback", got)
	}
}

func TestPageExcerpt(t *testing.T) {
	got := PageExcerpt(rewriteFixture)
	if !strings.Contains(got, "Some body text for the excerpt.") {
		t.Fatalf("excerpt = %q, want body text", got)
	}
	if strings.Contains(got, "<") {
		t.Fatalf("excerpt = %q, want markup stripped", got)
	}

	long := "<p>" + strings.Repeat("word ", 100) + "</p>"
	if runes := []rune(PageExcerpt(long)); len(runes) > 200 {
		t.Fatalf("excerpt length = %d, want at most 200", len(runes))
	}
}

func TestParsePageDecodesLatin1(t *testing.T) {
	body := []byte("<html><head><title>Caf\xe9</title></head><body></body></html>")
	doc, err := ParsePage(body, "text/html; charset=iso-8859-1")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := PageTitle(doc, ""); got != "Café" {
		t.Fatalf("title = %q, want Café", got)
	}
}
