package types

import "time"

// Video describes a candidate video returned by the search provider.
type Video struct {
	ID         string
	Title      string
	Uploader   string
	UploadedAt time.Time
}

// URL returns the short watch URL for the video.
func (v Video) URL() string {
	return "https://youtu.be/" + v.ID
}

// Query is a single search term with an optional earliest-upload cutoff.
// A zero EarliestDate means no cutoff applies.
type Query struct {
	Term         string
	EarliestDate time.Time
}

// Match pairs a query with a surviving candidate and its similarity score.
// Similarity is in [0,100]; 100 means the normalized strings are identical.
type Match struct {
	Query      Query
	Video      Video
	Similarity int
}

// PlaylistItem is one entry of a playlist listing. Index is the 0-based
// position within the playlist.
type PlaylistItem struct {
	VideoID string
	Title   string
	Index   int
}
