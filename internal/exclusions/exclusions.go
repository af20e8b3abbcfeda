// Package exclusions builds the set of already-known videos and uploaders
// that must never appear in scan results.
package exclusions

import (
	"fmt"
	"strings"

	"fillscan/types"
)

// Set holds excluded video ids and ignored uploader names. It is built once
// at startup and read-only afterwards.
type Set struct {
	ids       map[string]struct{}
	uploaders map[string]struct{}
}

// NewSet builds a Set from raw ids and uploader names. Uploader names are
// lower-cased so lookups are case-insensitive.
func NewSet(ids []string, ignoredUploaders []string) *Set {
	s := &Set{
		ids:       make(map[string]struct{}, len(ids)),
		uploaders: make(map[string]struct{}, len(ignoredUploaders)),
	}
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			s.ids[id] = struct{}{}
		}
	}
	for _, name := range ignoredUploaders {
		if name = strings.TrimSpace(name); name != "" {
			s.uploaders[strings.ToLower(name)] = struct{}{}
		}
	}
	return s
}

// HasID reports whether the video id is excluded.
func (s *Set) HasID(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// HasUploader reports whether the uploader name is ignored, ignoring case.
func (s *Set) HasUploader(name string) bool {
	_, ok := s.uploaders[strings.ToLower(name)]
	return ok
}

// IDCount returns how many video ids are excluded.
func (s *Set) IDCount() int {
	return len(s.ids)
}

// PlaylistLister is the provider capability the builder needs: list every
// item of a named playlist.
type PlaylistLister interface {
	GetPlaylistItemsAll(playlistID string, limit int) ([]types.PlaylistItem, error)
}

// Build constructs the exclusion set for a run.
//
// Ids come from the cache (when present) and, if playlistID is set, from a
// fresh playlist listing; after a fresh listing the combined ids are written
// back to the cache. Any fetch or cache failure is returned to the caller and
// is fatal for the run.
func Build(lister PlaylistLister, playlistID string, cache *Cache, ignoredUploaders []string) (*Set, error) {
	var ids []string

	if cache != nil {
		cached, err := cache.Read()
		if err != nil {
			return nil, fmt.Errorf("read id cache: %w", err)
		}
		ids = append(ids, cached...)
	}

	if playlistID != "" {
		items, err := lister.GetPlaylistItemsAll(playlistID, 0)
		if err != nil {
			return nil, fmt.Errorf("list playlist %s: %w", playlistID, err)
		}
		seen := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			seen[id] = struct{}{}
		}
		for _, item := range items {
			if _, ok := seen[item.VideoID]; !ok && item.VideoID != "" {
				ids = append(ids, item.VideoID)
				seen[item.VideoID] = struct{}{}
			}
		}
		if cache != nil {
			if err := cache.Write(ids); err != nil {
				return nil, fmt.Errorf("write id cache: %w", err)
			}
		}
	}

	return NewSet(ids, ignoredUploaders), nil
}
