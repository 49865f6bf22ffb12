package mirror

import (
	"strings"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{name: "root becomes index", url: "https://example.com/", want: "index.html"},
		{name: "no path becomes index", url: "https://example.com", want: "index.html"},
		{name: "single segment", url: "https://example.com/about", want: "about.html"},
		{name: "nested path flattened", url: "https://example.com/blog/post-1", want: "blog_post-1.html"},
		{name: "trailing slash trimmed", url: "https://example.com/blog/", want: "blog.html"},
		{name: "query ignored", url: "https://example.com/search?q=go", want: "search.html"},
		{name: "existing suffix kept", url: "https://example.com/page.html", want: "page.html"},
		{name: "colon replaced", url: "https://example.com/a:b", want: "a_b.html"},
		{name: "percent decoding", url: "https://example.com/caf%C3%A9", want: "café.html"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFilename(tt.url); got != tt.want {
				t.Fatalf("SanitizeFilename(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestSanitizeFilenameTruncates(t *testing.T) {
	long := "https://example.com/" + strings.Repeat("a", 300)
	got := SanitizeFilename(long)
	want := strings.Repeat("a", 200) + ".html"
	if got != want {
		t.Fatalf("len = %d, want 200-rune stem with .html suffix", len(got))
	}
}

func TestSanitizeFilenameIsDeterministic(t *testing.T) {
	// Distinct URLs that differ only in query collide by design.
	a := SanitizeFilename("https://example.com/page?v=1")
	b := SanitizeFilename("https://example.com/page?v=2")
	if a != b {
		t.Fatalf("expected collision, got %q and %q", a, b)
	}
}
