package sitemap

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"

	"github.com/aluiziolira/go-sitemirror/models"
)

type urlSet struct {
	URLs []loc `xml:"url"`
}

type sitemapIndex struct {
	Sitemaps []loc `xml:"sitemap"`
}

type loc struct {
	Loc string `xml:"loc"`
}

// Parsed is the content of one sitemap document.
type Parsed struct {
	Kind     models.SitemapKind
	Sitemaps []string
	PageURLs []string
}

// Parse decodes raw sitemap XML. The document kind is decided by the
// root element's local name, so namespace-qualified documents parse the
// same as bare ones. Any other root element is an error.
func Parse(data []byte) (*Parsed, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			return nil, fmt.Errorf("no root element")
		}
		if err != nil {
			return nil, fmt.Errorf("parse xml: %w", err)
		}

		start, ok := token.(xml.StartElement)
		if !ok {
			continue
		}

		switch start.Name.Local {
		case "sitemapindex":
			var index sitemapIndex
			if err := decoder.DecodeElement(&index, &start); err != nil {
				return nil, fmt.Errorf("decode sitemapindex: %w", err)
			}
			parsed := &Parsed{Kind: models.SitemapKindIndex}
			for _, entry := range index.Sitemaps {
				if entry.Loc != "" {
					parsed.Sitemaps = append(parsed.Sitemaps, entry.Loc)
				}
			}
			return parsed, nil
		case "urlset":
			var set urlSet
			if err := decoder.DecodeElement(&set, &start); err != nil {
				return nil, fmt.Errorf("decode urlset: %w", err)
			}
			parsed := &Parsed{Kind: models.SitemapKindURLSet}
			for _, entry := range set.URLs {
				if entry.Loc != "" {
					parsed.PageURLs = append(parsed.PageURLs, entry.Loc)
				}
			}
			return parsed, nil
		default:
			return nil, fmt.Errorf("unsupported root element %q", start.Name.Local)
		}
	}
}
