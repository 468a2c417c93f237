package search

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	sahilm "github.com/sahilm/fuzzy"

	"github.com/jmallory/pica/internal/domain"
)

// Index implements sahilm/fuzzy.Source over a photo list for
// zero-allocation fuzzy matching.
type Index struct {
	photos    []domain.Photo
	haystacks []string // Pre-computed lowercase search text per photo
}

// NewIndex builds a filter index. Each photo is searchable by its display
// name, description, and tags.
func NewIndex(photos []domain.Photo) *Index {
	haystacks := make([]string, len(photos))
	for i, p := range photos {
		parts := []string{p.DisplayName(), p.Description}
		parts = append(parts, p.Tags...)
		haystacks[i] = strings.ToLower(strings.Join(parts, " "))
	}
	return &Index{photos: photos, haystacks: haystacks}
}

// String returns the searchable text at index i (implements fuzzy.Source)
func (idx *Index) String(i int) string { return idx.haystacks[i] }

// Len returns the number of photos (implements fuzzy.Source)
func (idx *Index) Len() int { return len(idx.photos) }

// Filter returns the photos matching query, best matches first. An empty
// query returns the input unchanged.
func Filter(photos []domain.Photo, query string) []domain.Photo {
	query = strings.TrimSpace(strings.ToLower(query))
	if query == "" {
		return photos
	}

	idx := NewIndex(photos)

	matches := sahilm.FindFrom(query, idx)
	out := make([]domain.Photo, 0, len(matches))
	seen := make(map[int]bool, len(matches))
	for _, m := range matches {
		out = append(out, photos[m.Index])
		seen[m.Index] = true
	}

	// Catch unicode-folded matches the subsequence matcher misses.
	for i, p := range photos {
		if !seen[i] && fuzzy.MatchNormalizedFold(query, idx.haystacks[i]) {
			out = append(out, p)
		}
	}
	return out
}
