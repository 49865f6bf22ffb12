package mirror

import (
	"net/url"
	"reflect"
	"testing"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	parsed, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return parsed
}

func asSet(urls ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		set[u] = struct{}{}
	}
	return set
}

func TestBuildTargetsFiltersByExactHost(t *testing.T) {
	base := mustParse(t, "https://example.com")
	discovered := asSet(
		"https://example.com/a",
		"https://blog.example.com/post",
		"https://other.test/x",
		"https://example.com/b",
	)

	got := BuildTargets(base, discovered, 0)
	want := []string{"https://example.com/a", "https://example.com/b"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("targets = %v, want %v", got, want)
	}
}

func TestBuildTargetsFallsBackToBase(t *testing.T) {
	base := mustParse(t, "https://example.com")
	got := BuildTargets(base, asSet("https://other.test/x"), 0)
	if !reflect.DeepEqual(got, []string{"https://example.com"}) {
		t.Fatalf("targets = %v, want just the base URL", got)
	}
}

func TestBuildTargetsAppliesCapDeterministically(t *testing.T) {
	base := mustParse(t, "https://example.com")
	discovered := asSet(
		"https://example.com/e",
		"https://example.com/c",
		"https://example.com/a",
		"https://example.com/d",
		"https://example.com/b",
	)

	for i := 0; i < 5; i++ {
		got := BuildTargets(base, discovered, 2)
		want := []string{"https://example.com/a", "https://example.com/b"}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("run %d: targets = %v, want %v", i, got, want)
		}
	}
}

func TestBuildTargetsZeroCapMeansUnlimited(t *testing.T) {
	base := mustParse(t, "https://example.com")
	discovered := asSet("https://example.com/a", "https://example.com/b")
	if got := BuildTargets(base, discovered, 0); len(got) != 2 {
		t.Fatalf("targets = %v, want both", got)
	}
}
