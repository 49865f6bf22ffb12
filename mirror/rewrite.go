package mirror

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/jaytaylor/html2text"
	"golang.org/x/net/html/charset"
)

const maxExcerptRunes = 200

var whitespaceRe = regexp.MustCompile(`\s+`)

// ParsePage decodes body to UTF-8 using the declared or sniffed charset
// and parses it into a traversable document.
func ParsePage(body []byte, contentType string) (*goquery.Document, error) {
	enc, _, _ := charset.DetermineEncoding(body, contentType)
	utf8body, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		if !utf8.Valid(body) {
			return nil, err
		}
		utf8body = body
	}
	return goquery.NewDocumentFromReader(bytes.NewReader(utf8body))
}

// RewriteLinks repoints every same-domain anchor at the local copy of
// its target. Mirrored pages live side by side under the pages
// directory, so the rewritten href is the bare sanitized filename of
// the link's absolute form. Cross-domain anchors keep their absolute
// URL and are annotated to open in a new tab without referrer or
// opener leakage.
func RewriteLinks(doc *goquery.Document, pageURL *url.URL, baseHost string) {
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		absolute, err := pageURL.Parse(href)
		if err != nil {
			return
		}
		if absolute.Host == baseHost {
			s.SetAttr("href", SanitizeFilename(absolute.String()))
			return
		}
		s.SetAttr("href", absolute.String())
		s.SetAttr("target", "_blank")
		s.SetAttr("rel", "noopener noreferrer")
	})
}

// PageTitle returns the first title element's trimmed text, or fallback
// when the page has none.
func PageTitle(doc *goquery.Document, fallback string) string {
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		return fallback
	}
	return title
}

// PageExcerpt converts page markup to plain text and returns a short
// leading fragment for display in the index and report.
func PageExcerpt(pageHTML string) string {
	text, err := html2text.FromString(pageHTML, html2text.Options{TextOnly: true})
	if err != nil {
		return ""
	}
	text = strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
	if runes := []rune(text); len(runes) > maxExcerptRunes {
		text = string(runes[:maxExcerptRunes])
	}
	return text
}
