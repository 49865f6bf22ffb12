package mirror

import (
	"bytes"
	"fmt"
	"html/template"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aluiziolira/go-sitemirror/models"
)

// IndexFilename is the browsable entry point written at the mirror root.
const IndexFilename = "index.html"

const indexTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Offline Website Index - {{.BaseURL}}</title>
<style>
* { margin: 0; padding: 0; box-sizing: border-box; }
body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); min-height: 100vh; padding: 20px; }
.container { max-width: 1200px; margin: 0 auto; background: white; border-radius: 12px; box-shadow: 0 20px 60px rgba(0, 0, 0, 0.3); overflow: hidden; }
header { background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); color: white; padding: 40px; text-align: center; }
header h1 { font-size: 2.5em; margin-bottom: 10px; }
header p { opacity: 0.9; font-size: 1.1em; }
.stats { padding: 20px 40px; background: #f8f9fa; border-bottom: 1px solid #e0e0e0; display: flex; justify-content: space-around; flex-wrap: wrap; }
.stat { text-align: center; }
.stat-number { font-size: 2em; font-weight: bold; color: #667eea; }
.stat-label { color: #666; font-size: 0.9em; }
.search-box { padding: 20px 40px; border-bottom: 1px solid #e0e0e0; }
#search-input { width: 100%; padding: 12px 16px; font-size: 16px; border: 2px solid #ddd; border-radius: 8px; }
#search-input:focus { outline: none; border-color: #667eea; }
.pages-list { padding: 20px 40px; max-height: 600px; overflow-y: auto; }
.page-item { padding: 15px; margin-bottom: 10px; background: #f8f9fa; border-radius: 8px; border-left: 4px solid #667eea; }
.page-item.hidden { display: none; }
.page-title { font-size: 1.1em; font-weight: 600; color: #333; margin-bottom: 5px; }
.page-link { color: #667eea; text-decoration: none; font-size: 0.9em; }
.page-link:hover { text-decoration: underline; }
.page-url { color: #999; font-size: 0.85em; font-family: monospace; word-break: break-all; }
.page-excerpt { color: #777; font-size: 0.9em; margin-top: 5px; }
footer { padding: 20px 40px; text-align: center; color: #666; border-top: 1px solid #e0e0e0; }
</style>
</head>
<body>
<div class="container">
<header>
<h1>Offline Website</h1>
<p>{{.BaseURL}}</p>
</header>
<div class="stats">
<div class="stat"><div class="stat-number">{{.Downloaded}}</div><div class="stat-label">Pages Downloaded</div></div>
<div class="stat"><div class="stat-number">{{.Failed}}</div><div class="stat-label">Failed</div></div>
<div class="stat"><div class="stat-number">{{.Total}}</div><div class="stat-label">Total Pages</div></div>
</div>
<div class="search-box">
<input type="text" id="search-input" placeholder="Search pages...">
</div>
<div class="pages-list" id="pages-list">
{{range .Pages}}<div class="page-item" data-title="{{.TitleLower}}" data-url="{{.URLLower}}">
<div class="page-title">{{.Title}}</div>
<a href="{{.Filepath}}" class="page-link" target="_blank">{{.Filepath}}</a>
<div class="page-url">{{.URL}}</div>
{{if .Excerpt}}<div class="page-excerpt">{{.Excerpt}}</div>
{{end}}</div>
{{end}}</div>
<footer>
<p>Generated on {{.GeneratedAt}}</p>
</footer>
</div>
<script>
const searchInput = document.getElementById('search-input');
const pageItems = document.querySelectorAll('.page-item');
searchInput.addEventListener('input', function(e) {
	const searchTerm = e.target.value.toLowerCase();
	pageItems.forEach(item => {
		const title = item.getAttribute('data-title');
		const url = item.getAttribute('data-url');
		if (title.includes(searchTerm) || url.includes(searchTerm)) {
			item.classList.remove('hidden');
		} else {
			item.classList.add('hidden');
		}
	});
});
</script>
</body>
</html>
`

var indexTmpl = template.Must(template.New("index").Parse(indexTemplate))

type indexPage struct {
	Title      string
	TitleLower string
	URL        string
	URLLower   string
	Filepath   string
	Excerpt    string
}

type indexData struct {
	BaseURL     string
	Downloaded  int
	Failed      int
	Total       int
	Pages       []indexPage
	GeneratedAt string
}

// WriteIndex renders the self-contained offline index from the run
// report. Entries are sorted by title, case-insensitively.
func WriteIndex(outDir string, report *models.ScrapeReport) error {
	pages := make([]indexPage, 0, len(report.Pages))
	for _, record := range report.Pages {
		pages = append(pages, indexPage{
			Title:      record.Title,
			TitleLower: strings.ToLower(record.Title),
			URL:        record.URL,
			URLLower:   strings.ToLower(record.URL),
			Filepath:   record.Filepath,
			Excerpt:    record.Excerpt,
		})
	}
	sort.SliceStable(pages, func(i, j int) bool {
		return pages[i].TitleLower < pages[j].TitleLower
	})

	data := indexData{
		BaseURL:     report.BaseURL,
		Downloaded:  report.Downloaded,
		Failed:      report.Failed,
		Total:       len(pages),
		Pages:       pages,
		GeneratedAt: time.Now().Format("2006-01-02 15:04:05"),
	}

	var buf bytes.Buffer
	if err := indexTmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("render index: %w", err)
	}
	return writeFileAtomic(filepath.Join(outDir, IndexFilename), buf.Bytes())
}
