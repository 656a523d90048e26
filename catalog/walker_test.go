package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/aluiziolira/fdscrape/config"
	"github.com/aluiziolira/fdscrape/models"
	"github.com/jarcoal/httpmock"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.CatalogURL = "http://example.test/"
	cfg.RepoPrefix = "http://example.test/?fdid="
	return cfg
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestWalker(t *testing.T, cfg *config.Config) (*Walker, *httpmock.MockTransport) {
	t.Helper()
	w, err := NewWalker(cfg, testLogger())
	if err != nil {
		t.Fatalf("new walker: %v", err)
	}
	transport := httpmock.NewMockTransport()
	w.WithTransport(transport)
	return w, transport
}

func htmlResponder(body string) httpmock.Responder {
	resp := httpmock.NewStringResponse(200, body)
	resp.Header.Set("Content-Type", "text/html")
	return httpmock.ResponderFromResponse(resp)
}

func buildListingPage(page, apps int, next string) string {
	var b strings.Builder
	b.WriteString("<html><body><div id=\"appcontent\">")
	for i := 1; i <= apps; i++ {
		pkg := fmt.Sprintf("org.example.app%d%d", page, i)
		fmt.Fprintf(&b, "<a href=\"http://example.test/?fdid=%s&amp;fdpage=%d\">", pkg, page)
		fmt.Fprintf(&b, "<div id=\"appheader\"><p><span>App %d-%d</span><span>extra</span></p></div></a>", page, i)
	}
	if next != "" {
		fmt.Fprintf(&b, "<a href=\"%s\">next&gt;</a>", next)
	}
	b.WriteString("</div></body></html>")
	return b.String()
}

func registerPage(transport *httpmock.MockTransport, url, body string) {
	transport.RegisterResponder("GET", url, htmlResponder(body))
	transport.RegisterResponder("GET", strings.TrimSuffix(url, "/"), htmlResponder(body))
}

func TestFetchPageExtractsEntries(t *testing.T) {
	cfg := testConfig()
	w, transport := newTestWalker(t, cfg)
	registerPage(transport, cfg.CatalogURL, buildListingPage(1, 2, "http://example.test/page2"))

	result, err := w.FetchPage(cfg.CatalogURL)
	if err != nil {
		t.Fatalf("fetch page: %v", err)
	}

	if len(result.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(result.Entries))
	}
	first := result.Entries[0]
	if first.Name != "App 1-1" {
		t.Errorf("name = %q, want %q", first.Name, "App 1-1")
	}
	if first.Package != "org.example.app11" {
		t.Errorf("package = %q, want %q", first.Package, "org.example.app11")
	}
	if first.DetailURL != "http://example.test/?fdid=org.example.app11&fdpage=1" {
		t.Errorf("detail url = %q", first.DetailURL)
	}
	if result.NextURL != "http://example.test/page2" {
		t.Errorf("next url = %q, want page2 link", result.NextURL)
	}
}

func TestFetchPageLastPage(t *testing.T) {
	cfg := testConfig()
	w, transport := newTestWalker(t, cfg)
	registerPage(transport, cfg.CatalogURL, buildListingPage(1, 1, ""))

	result, err := w.FetchPage(cfg.CatalogURL)
	if err != nil {
		t.Fatalf("fetch page: %v", err)
	}
	if result.NextURL != "" {
		t.Fatalf("next url = %q, want absent", result.NextURL)
	}
}

func TestFetchPageEmptyPageIsValid(t *testing.T) {
	cfg := testConfig()
	w, transport := newTestWalker(t, cfg)
	registerPage(transport, cfg.CatalogURL, "<html><body><p>nothing here</p></body></html>")

	result, err := w.FetchPage(cfg.CatalogURL)
	if err != nil {
		t.Fatalf("an empty page is not an error, got %v", err)
	}
	if len(result.Entries) != 0 || result.NextURL != "" {
		t.Fatalf("expected empty result, got %+v", result)
	}
}

func TestFetchPageHTTPError(t *testing.T) {
	cfg := testConfig()
	w, transport := newTestWalker(t, cfg)
	responder := httpmock.NewStringResponder(500, "boom")
	transport.RegisterResponder("GET", cfg.CatalogURL, responder)
	transport.RegisterResponder("GET", strings.TrimSuffix(cfg.CatalogURL, "/"), responder)

	_, err := w.FetchPage(cfg.CatalogURL)
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *FetchError, got %v", err)
	}
}

func TestFetchPageUnexpectedContentType(t *testing.T) {
	cfg := testConfig()
	w, transport := newTestWalker(t, cfg)
	resp := httpmock.NewStringResponse(200, `{"not": "html"}`)
	resp.Header.Set("Content-Type", "application/json")
	responder := httpmock.ResponderFromResponse(resp)
	transport.RegisterResponder("GET", cfg.CatalogURL, responder)
	transport.RegisterResponder("GET", strings.TrimSuffix(cfg.CatalogURL, "/"), responder)

	_, err := w.FetchPage(cfg.CatalogURL)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
}

func TestWalkFollowsPagesUntilLast(t *testing.T) {
	cfg := testConfig()
	w, transport := newTestWalker(t, cfg)
	registerPage(transport, cfg.CatalogURL, buildListingPage(1, 2, "http://example.test/page2"))
	registerPage(transport, "http://example.test/page2", buildListingPage(2, 2, "http://example.test/page3"))
	registerPage(transport, "http://example.test/page3", buildListingPage(3, 1, ""))

	pages, entries := 0, 0
	err := w.Walk(context.Background(), func(result models.PageResult) error {
		pages++
		entries += len(result.Entries)
		return nil
	})
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	if pages != 3 || entries != 5 {
		t.Fatalf("pages=%d entries=%d, want 3 pages with 5 entries", pages, entries)
	}
}

func TestWalkStopsOnPaginationLoop(t *testing.T) {
	cfg := testConfig()
	w, transport := newTestWalker(t, cfg)
	registerPage(transport, cfg.CatalogURL, buildListingPage(1, 1, "http://example.test/page2"))
	registerPage(transport, "http://example.test/page2", buildListingPage(2, 1, cfg.CatalogURL))

	pages := 0
	err := w.Walk(context.Background(), func(result models.PageResult) error {
		pages++
		return nil
	})
	if err != nil {
		t.Fatalf("a looping next link should end the walk cleanly, got %v", err)
	}
	if pages != 2 {
		t.Fatalf("pages = %d, want 2", pages)
	}
}

func TestWalkRespectsPageCeiling(t *testing.T) {
	cfg := testConfig()
	cfg.MaxPages = 1
	w, transport := newTestWalker(t, cfg)
	registerPage(transport, cfg.CatalogURL, buildListingPage(1, 1, "http://example.test/page2"))
	registerPage(transport, "http://example.test/page2", buildListingPage(2, 1, ""))

	pages := 0
	err := w.Walk(context.Background(), func(result models.PageResult) error {
		pages++
		return nil
	})
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	if pages != 1 {
		t.Fatalf("pages = %d, want 1", pages)
	}
}

func TestPackageID(t *testing.T) {
	prefix := "https://f-droid.org/repository/browse/?fdid="
	suffix := "&fdpage="

	tests := []struct {
		name string
		link string
		want string
	}{
		{
			name: "plain",
			link: prefix + "org.mozilla.firefox",
			want: "org.mozilla.firefox",
		},
		{
			name: "with page suffix",
			link: prefix + "com.ableton.push&fdpage=3",
			want: "com.ableton.push",
		},
		{
			name: "suffix truncated at first occurrence",
			link: prefix + "org.odd&fdpage=2&fdpage=9",
			want: "org.odd",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PackageID(tt.link, prefix, suffix); got != tt.want {
				t.Errorf("PackageID(%q) = %q, want %q", tt.link, got, tt.want)
			}
		})
	}
}
