// Package scraper orchestrates one scraping run: catalog crawl, rating
// lookup, sidecar persistence and source acquisition per app.
package scraper

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"path/filepath"
	"time"

	"github.com/aluiziolira/fdscrape/acquire"
	"github.com/aluiziolira/fdscrape/catalog"
	"github.com/aluiziolira/fdscrape/config"
	"github.com/aluiziolira/fdscrape/models"
	"github.com/aluiziolira/fdscrape/rating"
	"github.com/aluiziolira/fdscrape/store"
	"github.com/go-resty/resty/v2"
)

// Scraper wires the catalog walker, rating extractor, source acquirer
// and workspace store into a sequential run.
type Scraper struct {
	cfg      *config.Config
	log      *slog.Logger
	walker   *catalog.Walker
	detail   *catalog.DetailClient
	rating   *rating.Extractor
	acquirer *acquire.Acquirer
	store    *store.Store
	Metrics  *Metrics
}

// New builds a scraper instance configured from cfg.
func New(cfg *config.Config, log *slog.Logger) (*Scraper, error) {
	if log == nil {
		log = slog.Default()
	}
	metrics := NewMetrics()

	walker, err := catalog.NewWalker(cfg, log)
	if err != nil {
		return nil, err
	}

	st, err := store.New(cfg.DownloadRoot)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetTimeout(cfg.Timeout)
	client.SetHeader("User-Agent", cfg.UserAgent)
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		host := ""
		if u, err := url.Parse(res.Request.URL); err == nil {
			host = u.Host
		}
		metrics.IncRequest(host)
		metrics.ObserveDuration(res.Time())
		return nil
	})

	return &Scraper{
		cfg:      cfg,
		log:      log,
		walker:   walker,
		detail:   catalog.NewDetailClient(client, log),
		rating:   rating.NewExtractor(cfg, log, client),
		acquirer: acquire.NewAcquirer(cfg, log),
		store:    st,
		Metrics:  metrics,
	}, nil
}

// Run drives the crawl across catalog pages and processes each app in
// order. Soft failures skip the current app; archive layout and unpack
// failures, and cancellation, halt the run.
func (s *Scraper) Run(ctx context.Context) (*models.RunResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	result := &models.RunResult{
		StartTime:    time.Now(),
		ErrorsByType: make(map[string]int),
	}

	err := s.walker.Walk(ctx, func(page models.PageResult) error {
		result.Pages++
		s.Metrics.IncPage()
		for _, entry := range page.Entries {
			if err := ctx.Err(); err != nil {
				return err
			}
			if s.cfg.OnlyApp != "" && entry.Name != s.cfg.OnlyApp {
				continue
			}
			result.Apps++
			if err := s.processApp(ctx, entry, result); err != nil {
				return err
			}
		}
		return nil
	})

	result.EndTime = time.Now()
	if err != nil {
		label := errorTypeLabel(err)
		result.ErrorsByType[label]++
		s.Metrics.IncError(label)
	}
	return result, err
}

func (s *Scraper) processApp(ctx context.Context, entry models.CatalogEntry, result *models.RunResult) error {
	log := s.log.With(slog.String("app", entry.Name), slog.String("package", entry.Package))

	if s.store.Exists(entry.Package) {
		retry := s.cfg.RetryIncomplete && !s.store.HasSource(entry.Package)
		if !retry {
			log.Debug("workspace exists, skipping", slog.String("path", s.store.AppDir(entry.Package)))
			result.Skipped++
			s.Metrics.IncApp("skipped")
			return nil
		}
		log.Info("re-entering incomplete workspace")
	}

	if err := s.store.Create(entry.Package); err != nil {
		return err
	}

	log.Info("looking up rating statistics")
	stats, err := s.rating.Stats(ctx, entry.Package)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		s.soft(log, result, "rating extraction failed", err)
		result.NoRating++
		s.Metrics.IncApp("no_rating")
		return nil
	}
	if stats == nil {
		log.Info("no usable rating data, skipping download")
		result.NoRating++
		s.Metrics.IncApp("no_rating")
		return nil
	}
	if err := s.store.WriteRating(entry.Package, stats); err != nil {
		// local filesystem failure, nothing sensible to continue with
		return err
	}

	link, err := s.detail.SourceTarball(ctx, entry.DetailURL)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		s.soft(log, result, "resolving download link failed", err)
		result.NoSource++
		s.Metrics.IncApp("no_source")
		return nil
	}
	if link == "" {
		log.Warn("no source tarball offered", slog.String("detail_url", entry.DetailURL))
		result.NoSource++
		s.Metrics.IncApp("no_source")
		return nil
	}

	target := models.DownloadTarget{
		SourceURL:   link,
		ArchivePath: s.store.ArchivePath(entry.Package, acquire.ArchiveName(entry.Name)),
	}
	log.Info("downloading source archive",
		slog.String("url", target.SourceURL),
		slog.String("path", target.ArchivePath),
	)

	written, err := s.acquirer.Acquire(ctx, target)
	switch {
	case err == nil:
	case errors.Is(err, acquire.ErrArchiveExists):
		log.Warn("archive already present, skipping acquisition", slog.String("path", target.ArchivePath))
		result.Skipped++
		s.Metrics.IncApp("skipped")
		return nil
	case fatal(err):
		return err
	default:
		s.soft(log, result, "acquisition failed", err)
		s.Metrics.IncApp("error")
		return nil
	}

	s.Metrics.AddDownloadBytes(written)
	s.Metrics.IncApp("done")
	result.Downloaded++
	log.Info("source tree ready", slog.String("path", filepath.Join(s.store.AppDir(entry.Package), "src")))
	return nil
}

func (s *Scraper) soft(log *slog.Logger, result *models.RunResult, msg string, err error) {
	label := errorTypeLabel(err)
	log.Warn(msg, slog.String("category", label), slog.Any("error", err))
	result.SoftErrors++
	result.ErrorsByType[label]++
	s.Metrics.IncError(label)
}
