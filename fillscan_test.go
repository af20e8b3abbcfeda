package fillscan

import (
	"errors"
	"testing"
	"time"

	"fillscan/internal/exclusions"
	"fillscan/types"
)

type fakeProvider struct {
	results map[string][]types.Video
	err     error
	calls   []string
}

func (f *fakeProvider) Search(term string, limit int) ([]types.Video, error) {
	f.calls = append(f.calls, term)
	if f.err != nil {
		return nil, f.err
	}
	videos := f.results[term]
	if len(videos) > limit {
		videos = videos[:limit]
	}
	return videos, nil
}

func emptySet() *exclusions.Set {
	return exclusions.NewSet(nil, nil)
}

func TestScanQueryThreshold(t *testing.T) {
	provider := &fakeProvider{results: map[string][]types.Video{
		"Summer Picnic": {
			{ID: "a", Title: "Summer Picnic (Fill)", Uploader: "A"},
			{ID: "b", Title: "Totally Unrelated Video", Uploader: "B"},
			{ID: "c", Title: "summer picnic script reading", Uploader: "C"},
		},
	}}
	s := New(provider).WithMinSimilarity(70)

	matches, err := s.ScanQuery(types.Query{Term: "Summer Picnic"}, emptySet())
	if err != nil {
		t.Fatalf("ScanQuery failed: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("Expected 2 matches above threshold, got %d", len(matches))
	}
	for _, m := range matches {
		if m.Video.ID == "b" {
			t.Error("Unrelated video should have been dropped")
		}
		if m.Similarity < 70 {
			t.Errorf("Match %s below threshold: %d", m.Video.ID, m.Similarity)
		}
	}
}

func TestScanQueryIDExclusionBeatsPerfectMatch(t *testing.T) {
	provider := &fakeProvider{results: map[string][]types.Video{
		"Summer Picnic": {
			{ID: "abc123", Title: "Summer Picnic", Uploader: "X"},
		},
	}}
	s := New(provider)
	set := exclusions.NewSet([]string{"abc123"}, nil)

	matches, err := s.ScanQuery(types.Query{Term: "Summer Picnic"}, set)
	if err != nil {
		t.Fatalf("ScanQuery failed: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("Excluded id must never produce a match, got %d", len(matches))
	}
}

func TestScanQueryUploaderExclusionCaseInsensitive(t *testing.T) {
	provider := &fakeProvider{results: map[string][]types.Video{
		"Summer Picnic": {
			{ID: "a", Title: "Summer Picnic", Uploader: "FILLCHANNEL"},
			{ID: "b", Title: "Summer Picnic", Uploader: "Keeper"},
		},
	}}
	s := New(provider)
	set := exclusions.NewSet(nil, []string{"fillchannel"})

	matches, err := s.ScanQuery(types.Query{Term: "Summer Picnic"}, set)
	if err != nil {
		t.Fatalf("ScanQuery failed: %v", err)
	}
	if len(matches) != 1 || matches[0].Video.ID != "b" {
		t.Errorf("Expected only the non-ignored uploader to survive, got %+v", matches)
	}
}

func TestScanQueryDateCutoff(t *testing.T) {
	cutoff := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	provider := &fakeProvider{results: map[string][]types.Video{
		"Summer Picnic": {
			{ID: "old", Title: "Summer Picnic", Uploader: "A", UploadedAt: time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC)},
			{ID: "new", Title: "Summer Picnic", Uploader: "B", UploadedAt: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)},
			{ID: "unknown", Title: "Summer Picnic", Uploader: "C"},
		},
	}}
	s := New(provider)

	matches, err := s.ScanQuery(types.Query{Term: "Summer Picnic", EarliestDate: cutoff}, emptySet())
	if err != nil {
		t.Fatalf("ScanQuery failed: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("Expected 2 survivors, got %d", len(matches))
	}
	for _, m := range matches {
		if m.Video.ID == "old" {
			t.Error("Candidate older than cutoff must be dropped regardless of similarity")
		}
	}
}

func TestScanQueryDefaultThresholdKeepsEverything(t *testing.T) {
	provider := &fakeProvider{results: map[string][]types.Video{
		"Summer Picnic": {
			{ID: "a", Title: "Summer Picnic", Uploader: "A"},
			{ID: "b", Title: "Totally Unrelated Video", Uploader: "B"},
		},
	}}
	s := New(provider)

	matches, err := s.ScanQuery(types.Query{Term: "Summer Picnic"}, emptySet())
	if err != nil {
		t.Fatalf("ScanQuery failed: %v", err)
	}
	if len(matches) != 2 {
		t.Errorf("Default threshold 0 must keep every candidate, got %d", len(matches))
	}
	seen := map[string]int{}
	for _, m := range matches {
		seen[m.Video.ID]++
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("Candidate %s appeared %d times, want exactly once", id, n)
		}
	}
}

func TestScanQueryOrderingNonIncreasing(t *testing.T) {
	provider := &fakeProvider{results: map[string][]types.Video{
		"Summer Picnic": {
			{ID: "low", Title: "picnic", Uploader: "A"},
			{ID: "high", Title: "Summer Picnic", Uploader: "B"},
			{ID: "mid", Title: "Summer Picnic extras and more", Uploader: "C"},
		},
	}}
	s := New(provider)

	matches, err := s.ScanQuery(types.Query{Term: "Summer Picnic"}, emptySet())
	if err != nil {
		t.Fatalf("ScanQuery failed: %v", err)
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Similarity > matches[i-1].Similarity {
			t.Errorf("Similarity increased at position %d: %d > %d", i, matches[i].Similarity, matches[i-1].Similarity)
		}
	}
}

func TestScanQueryStableTies(t *testing.T) {
	// Both candidates score 100; the provider's order must be preserved.
	provider := &fakeProvider{results: map[string][]types.Video{
		"Summer Picnic": {
			{ID: "first", Title: "Summer Picnic", Uploader: "A"},
			{ID: "second", Title: "summer picnic", Uploader: "B"},
		},
	}}
	s := New(provider)

	matches, err := s.ScanQuery(types.Query{Term: "Summer Picnic"}, emptySet())
	if err != nil {
		t.Fatalf("ScanQuery failed: %v", err)
	}
	if len(matches) != 2 || matches[0].Video.ID != "first" || matches[1].Video.ID != "second" {
		t.Errorf("Tie order not stable: %+v", matches)
	}
}

func TestScanQueryRespectsMaxResults(t *testing.T) {
	provider := &fakeProvider{results: map[string][]types.Video{
		"q": {
			{ID: "1", Title: "q"}, {ID: "2", Title: "q"}, {ID: "3", Title: "q"},
		},
	}}
	s := New(provider).WithMaxResults(2)

	matches, err := s.ScanQuery(types.Query{Term: "q"}, emptySet())
	if err != nil {
		t.Fatalf("ScanQuery failed: %v", err)
	}
	if len(matches) != 2 {
		t.Errorf("Expected at most 2 candidates considered, got %d", len(matches))
	}
}

func TestScanMergesDuplicateVideos(t *testing.T) {
	shared := types.Video{ID: "dup", Title: "Summer Picnic", Uploader: "X"}
	provider := &fakeProvider{results: map[string][]types.Video{
		"Summer Picnic":    {shared},
		"Picnic in Summer": {shared},
	}}
	s := New(provider)

	matches, err := s.Scan([]types.Query{
		{Term: "Summer Picnic"},
		{Term: "Picnic in Summer"},
	}, emptySet())
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("Duplicate video must be reported once, got %d", len(matches))
	}
	// "Summer Picnic" normalizes to the title exactly, so the first query's
	// perfect score must win.
	if matches[0].Similarity != 100 || matches[0].Query.Term != "Summer Picnic" {
		t.Errorf("Expected the best-scoring query to win, got %+v", matches[0])
	}
}

func TestScanProviderFailureAborts(t *testing.T) {
	sentinel := errors.New("quota exceeded")
	provider := &fakeProvider{err: sentinel}
	s := New(provider)

	_, err := s.Scan([]types.Query{{Term: "a"}, {Term: "b"}}, emptySet())
	if !errors.Is(err, sentinel) {
		t.Fatalf("Expected provider error to propagate, got %v", err)
	}
	if len(provider.calls) != 1 {
		t.Errorf("Scan must abort on first failure, made %d calls", len(provider.calls))
	}
}

func TestScanSequentialOrder(t *testing.T) {
	provider := &fakeProvider{results: map[string][]types.Video{}}
	s := New(provider)

	_, err := s.Scan([]types.Query{{Term: "one"}, {Term: "two"}, {Term: "three"}}, emptySet())
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	want := []string{"one", "two", "three"}
	for i, term := range want {
		if provider.calls[i] != term {
			t.Errorf("Query %d was %q, want %q", i, provider.calls[i], term)
		}
	}
}
