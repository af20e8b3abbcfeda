// Package fillscan finds unauthorized re-uploads ("fills") of known scripts
// on YouTube. For each search term it fetches candidate videos, drops the
// ones that are already known, too old or ignored, scores the rest by fuzzy
// title similarity and returns a ranked list of matches.
package fillscan

import (
	"fmt"
	"sort"

	"fillscan/internal/exclusions"
	"fillscan/internal/logger"
	"fillscan/match"
	"fillscan/types"
)

// SearchProvider returns up to limit candidate videos for a term, in the
// provider's own ranking order. It may return fewer than limit.
type SearchProvider interface {
	Search(term string, limit int) ([]types.Video, error)
}

// Scanner runs the matching pipeline over a sequence of queries.
type Scanner struct {
	provider SearchProvider
	options  struct {
		maxResults    int
		minSimilarity int
	}
	log *logger.ComponentLogger
}

// New creates a Scanner with default options (25 results per term, no
// similarity threshold).
func New(provider SearchProvider) *Scanner {
	s := &Scanner{provider: provider, log: logger.WithComponent(logger.ComponentMatch)}
	s.options.maxResults = 25
	s.options.minSimilarity = 0
	return s
}

// WithMaxResults bounds how many candidates are requested per term.
func (s *Scanner) WithMaxResults(n int) *Scanner {
	if n > 0 {
		s.options.maxResults = n
	}
	return s
}

// WithMinSimilarity sets the score below which candidates are discarded.
func (s *Scanner) WithMinSimilarity(min int) *Scanner {
	if min >= 0 && min <= 100 {
		s.options.minSimilarity = min
	}
	return s
}

// ScanQuery fetches and scores candidates for a single query. Results are
// ordered by descending similarity; candidates with equal scores keep the
// provider's original order. A provider failure is returned as-is for the
// caller to treat as fatal — there is no per-query retry.
func (s *Scanner) ScanQuery(q types.Query, set *exclusions.Set) ([]types.Match, error) {
	videos, err := s.provider.Search(q.Term, s.options.maxResults)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", q.Term, err)
	}

	matches := make([]types.Match, 0, len(videos))
	for _, v := range videos {
		if set.HasID(v.ID) {
			continue
		}
		if set.HasUploader(v.Uploader) {
			continue
		}
		// An unknown upload date never disqualifies a candidate.
		if !q.EarliestDate.IsZero() && !v.UploadedAt.IsZero() && v.UploadedAt.Before(q.EarliestDate) {
			continue
		}

		similarity := match.Score(q.Term, v.Title)
		if similarity < s.options.minSimilarity {
			continue
		}
		matches = append(matches, types.Match{Query: q, Video: v, Similarity: similarity})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})

	s.log.Debug("query scored", map[string]interface{}{
		"term":       q.Term,
		"candidates": len(videos),
		"matches":    len(matches),
	})
	return matches, nil
}

// Scan runs every query in order and merges the results into one ranked
// list. A video surfacing under several terms is reported once, keeping its
// highest-scoring match (the earlier query wins ties). The first provider
// failure aborts the whole scan.
func (s *Scanner) Scan(queries []types.Query, set *exclusions.Set) ([]types.Match, error) {
	best := make(map[string]int)
	var merged []types.Match

	for _, q := range queries {
		matches, err := s.ScanQuery(q, set)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if i, seen := best[m.Video.ID]; seen {
				if m.Similarity > merged[i].Similarity {
					merged[i] = m
				}
				continue
			}
			best[m.Video.ID] = len(merged)
			merged = append(merged, m)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Similarity > merged[j].Similarity
	})
	return merged, nil
}
