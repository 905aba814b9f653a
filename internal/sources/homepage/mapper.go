package homepage

import (
	"fmt"
	"sort"
	"strings"

	"github.com/catmanduz/link-reminder/internal/domain"
)

// Mapper converts a Homepage bookmarks config into link inputs.
// The Homepage group becomes the category and the abbreviation a keyword.
type Mapper struct{}

// NewMapper creates a new bookmark mapper
func NewMapper() *Mapper {
	return &Mapper{}
}

// MapBookmarks converts BookmarksConfig to link inputs, in file order.
// Entries without href are skipped; an empty result is an error.
func (m *Mapper) MapBookmarks(config BookmarksConfig) ([]domain.LinkInput, error) {
	inputs := make([]domain.LinkInput, 0)
	seen := make(map[string]bool)

	for _, group := range config {
		// Single-key maps in practice; sort for a stable order otherwise
		groupNames := make([]string, 0, len(group))
		for name := range group {
			groupNames = append(groupNames, name)
		}
		sort.Strings(groupNames)

		for _, groupName := range groupNames {
			for _, bookmark := range group[groupName] {
				for name, entries := range bookmark {
					if len(entries) == 0 {
						continue
					}
					entry := entries[0]

					href := strings.TrimSpace(entry.Href)
					if href == "" || seen[href] {
						continue
					}
					seen[href] = true

					var keywords []string
					if abbr := strings.TrimSpace(entry.Abbr); abbr != "" {
						keywords = append(keywords, abbr)
					}

					inputs = append(inputs, domain.LinkInput{
						URL:      href,
						Title:    strings.TrimSpace(name),
						Category: strings.TrimSpace(groupName),
						Keywords: keywords,
					})
				}
			}
		}
	}

	if len(inputs) == 0 {
		return nil, fmt.Errorf("no valid bookmarks found in config")
	}

	return inputs, nil
}
