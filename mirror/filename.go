package mirror

import (
	"net/url"
	"strings"
)

const maxFilenameRunes = 200

var unsafeFilenameChars = strings.NewReplacer(
	"<", "_",
	">", "_",
	":", "_",
	`"`, "_",
	"|", "_",
	"?", "_",
	"*", "_",
	"/", "_",
)

// SanitizeFilename maps a page URL to its local filename. The mapping
// is a pure function of the URL: path component with slashes trimmed
// ("index" when empty), unsafe characters replaced, percent-encoding
// decoded, truncated to 200 characters, with an .html suffix ensured.
// Distinct URLs may collide on the same name; the last write wins.
func SanitizeFilename(rawURL string) string {
	path := ""
	if parsed, err := url.Parse(rawURL); err == nil {
		path = parsed.EscapedPath()
	}

	path = strings.Trim(path, "/")
	if path == "" {
		path = "index"
	}

	path = unsafeFilenameChars.Replace(path)

	if decoded, err := url.PathUnescape(path); err == nil {
		path = decoded
	}

	if runes := []rune(path); len(runes) > maxFilenameRunes {
		path = string(runes[:maxFilenameRunes])
	}

	if !strings.HasSuffix(path, ".html") {
		path += ".html"
	}
	return path
}
