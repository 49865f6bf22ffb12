package mirror

import (
	"net/url"
	"sort"
)

// BuildTargets derives the crawl target list from the discovered URL
// set: keep URLs whose host exactly equals the base host, fall back to
// the base URL when nothing survives, sort for a deterministic order,
// and apply the page cap when positive.
func BuildTargets(base *url.URL, discovered map[string]struct{}, maxPages int) []string {
	targets := make([]string, 0, len(discovered))
	for candidate := range discovered {
		parsed, err := url.Parse(candidate)
		if err != nil {
			continue
		}
		if parsed.Host == base.Host {
			targets = append(targets, candidate)
		}
	}

	if len(targets) == 0 {
		return []string{base.String()}
	}

	sort.Strings(targets)

	if maxPages > 0 && len(targets) > maxPages {
		targets = targets[:maxPages]
	}
	return targets
}
