// Package rating extracts play-store rating statistics per package.
package rating

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/aluiziolira/fdscrape/config"
	"github.com/aluiziolira/fdscrape/models"
	"github.com/go-resty/resty/v2"
)

// Extractor fetches store detail pages and normalizes their rating
// data into a flat statistics record.
type Extractor struct {
	cfg  *config.Config
	log  *slog.Logger
	http *resty.Client
	now  func() time.Time
}

// NewExtractor wraps an already-configured resty client.
func NewExtractor(cfg *config.Config, log *slog.Logger, client *resty.Client) *Extractor {
	return &Extractor{cfg: cfg, log: log, http: client, now: time.Now}
}

// Stats fetches the store page for pkg and extracts its statistics.
// It returns (nil, nil) when no usable rating data exists: the lookup
// HTTP-errored, the histogram container is absent, or the histogram
// totals zero ratings. Callers treat all three identically.
func (e *Extractor) Stats(ctx context.Context, pkg string) (*models.RatingStatistics, error) {
	lookupURL := e.cfg.PlayURL + pkg

	res, err := e.http.R().SetContext(ctx).Get(lookupURL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		e.log.Debug("rating lookup failed", slog.String("package", pkg), slog.Any("error", err))
		return nil, nil
	}
	if res.StatusCode() != http.StatusOK {
		e.log.Debug("rating lookup rejected",
			slog.String("package", pkg),
			slog.Int("status", res.StatusCode()),
		)
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return nil, fmt.Errorf("parse store page for %s: %w", pkg, err)
	}

	hist, ok := e.histogram(doc, pkg)
	if !ok || hist.Total() == 0 {
		return nil, nil
	}

	stats := models.NewRatingStatistics(hist)
	e.extend(doc, stats, pkg)
	return stats, nil
}

func (e *Extractor) histogram(doc *goquery.Document, pkg string) (models.RatingHistogram, bool) {
	var hist models.RatingHistogram

	container := doc.Find("div.rating-histogram").First()
	if container.Length() == 0 {
		return hist, false
	}

	bars := container.Find(".rating-bar-container span.bar-number")
	if bars.Length() != len(hist) {
		e.log.Warn("rating histogram has unexpected shape",
			slog.String("package", pkg),
			slog.Int("bars", bars.Length()),
		)
		return hist, false
	}

	ok := true
	// document order is most-stars-first; reverse to ascending 1..5
	bars.Each(func(i int, sel *goquery.Selection) {
		count, err := ParseCount(sel.Text())
		if err != nil {
			e.log.Warn("unparseable rating count",
				slog.String("package", pkg),
				slog.String("value", sel.Text()),
			)
			ok = false
			return
		}
		hist[len(hist)-1-i] = count
	})
	return hist, ok
}

// extend fills the infobox, contact and review fields. Each lookup
// fails soft per field; a missing container is logged as page drift.
func (e *Extractor) extend(doc *goquery.Document, stats *models.RatingStatistics, pkg string) {
	log := e.log.With(slog.String("package", pkg))

	if sel := doc.Find("div[itemprop=fileSize]").First(); sel.Length() > 0 {
		if size, ok := DecodeSize(sel.Text()); ok {
			stats.SizeBytes = &size
		}
	} else {
		log.Debug("store page has no file size field")
	}

	if sel := doc.Find("div[itemprop=contentRating]").First(); sel.Length() > 0 {
		stats.ContentRating = strings.TrimSpace(sel.Text())
	} else {
		log.Debug("store page has no content rating field")
	}

	if sel := doc.Find("div[itemprop=datePublished]").First(); sel.Length() > 0 {
		if days, ok := e.daysSince(strings.TrimSpace(sel.Text())); ok {
			stats.DaysSinceUpdate = &days
		}
	} else {
		log.Debug("store page has no publish date field")
	}

	if href, ok := doc.Find("a.document-subtitle.category").First().Attr("href"); ok {
		stats.Category = categorySlug(href)
	} else {
		log.Debug("store page has no category link")
	}

	stats.Website = availability(doc, "visit website")
	stats.Email = availability(doc, "email")
	stats.PrivacyPolicy = availability(doc, "privacy policy")

	if sel := doc.Find("div[itemprop=description]").First(); sel.Length() > 0 {
		stats.DescriptionLength = len([]rune(strings.TrimSpace(sel.Text())))
	} else {
		log.Debug("store page has no description field")
	}

	var reviews []string
	doc.Find("div.review-body").Each(func(_ int, sel *goquery.Selection) {
		reviews = append(reviews, sel.Text())
	})
	stats.ReviewPhrases = PhraseFrequencies(reviews, e.cfg.ReviewPhrases)
}

func availability(doc *goquery.Document, label string) string {
	found := false
	doc.Find("a.dev-link").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if strings.Contains(strings.ToLower(sel.Text()), label) {
			found = true
			return false
		}
		return true
	})
	if found {
		return "available"
	}
	return "unavailable"
}

func (e *Extractor) daysSince(published string) (int, bool) {
	t, err := time.Parse("January 2, 2006", published)
	if err != nil {
		return 0, false
	}
	days := int(e.now().Sub(t).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return days, true
}
