// Package models defines data structures for the scraper.
package models

import "time"

// CatalogEntry is one app's identifying metadata extracted from a
// catalog listing page.
type CatalogEntry struct {
	Name      string `json:"name"`
	DetailURL string `json:"detail_url"`
	Package   string `json:"package"`
}

// PageResult is the outcome of fetching a single listing page. An empty
// NextURL means the page is the last one.
type PageResult struct {
	Entries []CatalogEntry
	NextURL string
}

// RatingHistogram holds rating counts bucketed by star value. Index 0
// is the one-star count, index 4 the five-star count.
type RatingHistogram [5]int

// Total returns the number of ratings across all buckets.
func (h RatingHistogram) Total() int {
	total := 0
	for _, count := range h {
		total += count
	}
	return total
}

// Mean returns the weighted mean star value. Callers must guard
// against a zero total; a histogram with no ratings has no mean.
func (h RatingHistogram) Mean() float64 {
	sum := 0
	for i, count := range h {
		sum += (i + 1) * count
	}
	return float64(sum) / float64(h.Total())
}

// RatingStatistics is the flat record persisted as the per-app rating
// sidecar. The star_* keys match the historical rating.json layout.
type RatingStatistics struct {
	Star1     int     `json:"star_1"`
	Star2     int     `json:"star_2"`
	Star3     int     `json:"star_3"`
	Star4     int     `json:"star_4"`
	Star5     int     `json:"star_5"`
	StarMean  float64 `json:"star_mean"`
	StarCount int     `json:"star_count"`

	// Extended fields, each best-effort. SizeBytes and DaysSinceUpdate
	// are nil when the store page does not expose a usable value
	// (e.g. size "Varies with device").
	SizeBytes         *int64             `json:"size_bytes,omitempty"`
	ContentRating     string             `json:"content_rating,omitempty"`
	DaysSinceUpdate   *int               `json:"days_since_update,omitempty"`
	Category          string             `json:"category,omitempty"`
	Website           string             `json:"website,omitempty"`
	Email             string             `json:"email,omitempty"`
	PrivacyPolicy     string             `json:"privacy_policy,omitempty"`
	DescriptionLength int                `json:"description_length,omitempty"`
	ReviewPhrases     map[string]float64 `json:"review_phrases,omitempty"`
}

// NewRatingStatistics builds the base statistics record from a
// histogram with a non-zero total.
func NewRatingStatistics(h RatingHistogram) *RatingStatistics {
	return &RatingStatistics{
		Star1:     h[0],
		Star2:     h[1],
		Star3:     h[2],
		Star4:     h[3],
		Star5:     h[4],
		StarMean:  h.Mean(),
		StarCount: h.Total(),
	}
}

// DownloadTarget pairs a resolved source archive URL with the local
// path the archive is streamed to.
type DownloadTarget struct {
	SourceURL   string
	ArchivePath string
}

// RunResult holds the overall outcome of one scraping run.
type RunResult struct {
	StartTime    time.Time
	EndTime      time.Time
	Pages        int
	Apps         int
	Downloaded   int
	Skipped      int
	NoRating     int
	NoSource     int
	SoftErrors   int
	ErrorsByType map[string]int
}
