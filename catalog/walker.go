// Package catalog crawls the paginated f-droid browse index.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aluiziolira/fdscrape/config"
	"github.com/aluiziolira/fdscrape/models"
	"github.com/gocolly/colly/v2"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Walker fetches catalog listing pages one at a time and extracts app
// entries plus the link to the next page. It is strictly sequential:
// one page is in flight at any moment.
type Walker struct {
	cfg       *config.Config
	log       *slog.Logger
	collector *colly.Collector
	visited   *lru.Cache[string, struct{}]

	// per-FetchPage accumulation, safe because the walker is
	// single-threaded
	page    models.PageResult
	pageErr error
}

// NewWalker builds a walker configured from cfg.
func NewWalker(cfg *config.Config, log *slog.Logger) (*Walker, error) {
	parsed, err := url.Parse(cfg.CatalogURL)
	if err != nil {
		return nil, fmt.Errorf("parse catalog url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("catalog url must include a host")
	}

	collector := colly.NewCollector(
		colly.AllowedDomains(parsed.Host),
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
	)
	collector.SetRequestTimeout(cfg.Timeout)
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	visited, err := lru.New[string, struct{}](cfg.VisitedCacheSize)
	if err != nil {
		return nil, fmt.Errorf("visited cache: %w", err)
	}

	w := &Walker{
		cfg:       cfg,
		log:       log,
		collector: collector,
		visited:   visited,
	}
	w.registerHandlers()
	return w, nil
}

// WithTransport replaces the collector transport. Tests use this to
// substitute a mock round tripper.
func (w *Walker) WithTransport(rt http.RoundTripper) {
	w.collector.WithTransport(rt)
}

func (w *Walker) registerHandlers() {
	w.collector.OnResponse(func(r *colly.Response) {
		pageURL := r.Request.URL.String()
		if len(r.Body) == 0 {
			w.pageErr = &ParseError{URL: pageURL, Reason: "empty document"}
			return
		}
		if ct := r.Headers.Get("Content-Type"); ct != "" && !strings.Contains(ct, "html") {
			w.pageErr = &ParseError{URL: pageURL, Reason: "unexpected content type " + ct}
		}
	})

	w.collector.OnError(func(r *colly.Response, err error) {
		pageURL := ""
		if r != nil && r.Request != nil && r.Request.URL != nil {
			pageURL = r.Request.URL.String()
		}
		w.pageErr = &FetchError{URL: pageURL, Err: err}
	})

	// One app entry per header container: the display name is the
	// text of the first span under the container's first-level child
	// paragraph, the detail link is the href of the parent anchor.
	w.collector.OnHTML("div#appheader", func(e *colly.HTMLElement) {
		name := strings.TrimSpace(e.DOM.ChildrenFiltered("p").First().Find("span").First().Text())
		href, ok := e.DOM.Parent().Attr("href")
		if name == "" || !ok {
			w.pageErr = &ParseError{
				URL:    e.Request.URL.String(),
				Reason: "app header without a name span or parent link",
			}
			return
		}
		link := e.Request.AbsoluteURL(href)
		w.page.Entries = append(w.page.Entries, models.CatalogEntry{
			Name:      name,
			DetailURL: link,
			Package:   PackageID(link, w.cfg.RepoPrefix, w.cfg.PageSuffix),
		})
	})

	w.collector.OnHTML("a[href]", func(e *colly.HTMLElement) {
		if strings.TrimSpace(e.Text) != w.cfg.NextMarker {
			return
		}
		w.page.NextURL = e.Request.AbsoluteURL(e.Attr("href"))
	})
}

// FetchPage fetches one listing page. Transfer failures surface as
// *FetchError, malformed documents as *ParseError. A parseable page
// without app headers yields an empty PageResult.
func (w *Walker) FetchPage(pageURL string) (models.PageResult, error) {
	w.page = models.PageResult{}
	w.pageErr = nil

	if err := w.collector.Visit(pageURL); err != nil {
		return models.PageResult{}, &FetchError{URL: pageURL, Err: err}
	}
	if w.pageErr != nil {
		return models.PageResult{}, w.pageErr
	}
	return w.page, nil
}

// Walk follows next-page links from the configured root until no next
// page exists, invoking visit once per page. A page ceiling and a
// visited-URL cache guard against a remote that loops its pagination.
func (w *Walker) Walk(ctx context.Context, visit func(models.PageResult) error) error {
	next := w.cfg.CatalogURL
	for page := 1; next != ""; page++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if page > w.cfg.MaxPages {
			w.log.Warn("page ceiling reached, stopping crawl",
				slog.Int("max_pages", w.cfg.MaxPages),
			)
			return nil
		}
		if seen, _ := w.visited.ContainsOrAdd(next, struct{}{}); seen {
			w.log.Warn("next-page link loops back to a visited page, stopping crawl",
				slog.String("url", next),
			)
			return nil
		}

		w.log.Info("fetching catalog page", slog.Int("page", page), slog.String("url", next))
		result, err := w.FetchPage(next)
		if err != nil {
			return err
		}
		if err := visit(result); err != nil {
			return err
		}
		next = result.NextURL
	}
	return nil
}

// PackageID derives the package identifier from a detail link by
// stripping the repo prefix and truncating at the first page-number
// suffix.
func PackageID(link, prefix, suffix string) string {
	id := strings.Replace(link, prefix, "", 1)
	if i := strings.Index(id, suffix); i >= 0 {
		id = id[:i]
	}
	return id
}
