package catalog

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

const sourceTarballMarker = "source tarball"

// DetailClient resolves per-app links from f-droid detail pages.
type DetailClient struct {
	http *resty.Client
	log  *slog.Logger
}

// NewDetailClient wraps an already-configured resty client.
func NewDetailClient(client *resty.Client, log *slog.Logger) *DetailClient {
	return &DetailClient{http: client, log: log}
}

// SourceTarball returns the href of the anchor whose text is exactly
// "source tarball" on an app's detail page. An empty string means the
// page offers no source download; transfer failures surface as
// *FetchError.
func (d *DetailClient) SourceTarball(ctx context.Context, detailURL string) (string, error) {
	res, err := d.http.R().SetContext(ctx).Get(detailURL)
	if err != nil {
		return "", &FetchError{URL: detailURL, Err: err}
	}
	if res.StatusCode() != http.StatusOK {
		return "", &FetchError{URL: detailURL, Err: fmt.Errorf("http status %d", res.StatusCode())}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return "", &ParseError{URL: detailURL, Reason: err.Error()}
	}

	link := ""
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if strings.TrimSpace(sel.Text()) != sourceTarballMarker {
			return true
		}
		link, _ = sel.Attr("href")
		return false
	})
	if link == "" {
		d.log.Debug("detail page has no source tarball link", slog.String("url", detailURL))
	}
	return link, nil
}
