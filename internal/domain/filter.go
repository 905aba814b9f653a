package domain

import (
	"sort"
	"strings"
)

// AnyCategory disables category filtering.
const AnyCategory = "Any"

// Filter narrows a list of links the way the library viewer does.
// Zero values disable the corresponding criterion.
type Filter struct {
	Category string   // exact match, AnyCategory or "" for all
	Domain   string   // substring of the (derived) domain
	URL      string   // substring of the URL
	Keywords []string // match ANY keyword (exact or substring)
}

// ParseKeywordQuery splits a free-form keyword query on spaces and commas.
// Example: "go, Redis  cache" -> ["go", "redis", "cache"]
func ParseKeywordQuery(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// IsZero reports whether the filter matches everything.
func (f Filter) IsZero() bool {
	return (f.Category == "" || f.Category == AnyCategory) &&
		f.Domain == "" && f.URL == "" && len(f.Keywords) == 0
}

// Match reports whether a link satisfies every criterion of the filter.
func (f Filter) Match(l *Link) bool {
	if f.Category != "" && f.Category != AnyCategory {
		if NormalizeCategory(l.Category) != f.Category {
			return false
		}
	}

	if f.Domain != "" {
		if !strings.Contains(strings.ToLower(l.DisplayDomain()), strings.ToLower(f.Domain)) {
			return false
		}
	}

	if f.URL != "" {
		if !strings.Contains(strings.ToLower(l.URL), strings.ToLower(f.URL)) {
			return false
		}
	}

	if len(f.Keywords) > 0 && !matchAnyKeyword(l.Keywords, f.Keywords) {
		return false
	}

	return true
}

// Apply returns the links matching the filter, preserving order.
func (f Filter) Apply(links []*Link) []*Link {
	if f.IsZero() {
		return links
	}
	out := make([]*Link, 0, len(links))
	for _, l := range links {
		if f.Match(l) {
			out = append(out, l)
		}
	}
	return out
}

func matchAnyKeyword(have, want []string) bool {
	for _, q := range want {
		q = strings.ToLower(q)
		for _, kw := range have {
			if strings.Contains(strings.ToLower(kw), q) {
				return true
			}
		}
	}
	return false
}

// SortNewestFirst orders links by AddedAt descending, ties broken by ID.
func SortNewestFirst(links []*Link) {
	sort.SliceStable(links, func(i, j int) bool {
		if links[i].AddedAt.Equal(links[j].AddedAt) {
			return links[i].ID < links[j].ID
		}
		return links[i].AddedAt.After(links[j].AddedAt)
	})
}

// SortCategories orders category names case-insensitively for display.
func SortCategories(categories []string) []string {
	out := append([]string(nil), categories...)
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i]) < strings.ToLower(out[j])
	})
	return out
}
