package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/market-insight-engine/internal/config"
	"github.com/kirillkom/market-insight-engine/internal/core/domain"
	"github.com/kirillkom/market-insight-engine/internal/core/ports"
	"github.com/kirillkom/market-insight-engine/internal/core/usecase"
	"github.com/kirillkom/market-insight-engine/internal/infrastructure/queue/nats"
	"github.com/kirillkom/market-insight-engine/internal/infrastructure/report/excel"
	"github.com/kirillkom/market-insight-engine/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/market-insight-engine/internal/infrastructure/resilience"
	"github.com/kirillkom/market-insight-engine/internal/infrastructure/segmentation"
	"github.com/kirillkom/market-insight-engine/internal/infrastructure/vectorizer/tfidf"
	"github.com/kirillkom/market-insight-engine/internal/observability/logging"
	"github.com/kirillkom/market-insight-engine/internal/observability/metrics"
)

type App struct {
	Config  config.Config
	Log     *slog.Logger
	Metrics *metrics.EngineMetrics

	Queue      *nats.Queue
	Directory  ports.CompanyDirectory
	Vectorizer *tfidf.Vectorizer
	Segmenter  ports.Segmenter
	Exporter   *excel.Exporter

	SimilarityUC *usecase.SimilarityUseCase
	AnalysisUC   *usecase.MarketAnalysisUseCase

	service string
	closeFn func()
}

func New(ctx context.Context, cfg config.Config, service string) (*App, error) {
	log := logging.New(service, cfg.LogLevel)
	engineMetrics := metrics.NewEngineMetrics(service)
	executor := resilience.NewExecutor(resilience.DefaultPolicy(), log)

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	directory := postgres.NewCompanyRepository(db, executor)

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSRequestSubject, cfg.NATSEventSubject, log, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	taxonomy, err := segmentation.LoadTaxonomy()
	if err != nil {
		queue.Close()
		_ = db.Close()
		return nil, fmt.Errorf("load sector taxonomy: %w", err)
	}

	vectorizer := tfidf.New(log)
	metered := &meteredVectorizer{inner: vectorizer, metrics: engineMetrics, service: service}

	segmenter := newSegmenter(cfg.SegmentationMode, metered, taxonomy, log, cfg.KMeansMaxIterations)
	if segmenter.Mode() != cfg.SegmentationMode {
		log.Warn("segmentation_mode_unrecognized", "configured", cfg.SegmentationMode, "effective", segmenter.Mode())
	}
	log.Info("segmentation_mode_selected", "mode", segmenter.Mode())

	similarityUC := usecase.NewSimilarityUseCase(directory, metered, log, cfg.CompanyCap)
	analysisUC := usecase.NewMarketAnalysisUseCase(directory, segmenter, taxonomy, queue, log, usecase.Options{
		CompanyCap:          cfg.CompanyCap,
		DefaultSegmentCount: cfg.DefaultSegmentCount,
		AnalysisTTL:         cfg.AnalysisTTL,
		SegmentTTL:          cfg.SegmentTTL,
		InsightsTTL:         cfg.InsightsTTL,
		RecomputesPerMin:    cfg.RecomputesPerMin,
		CacheObserver: func(scope string, hit bool) {
			engineMetrics.RecordCacheLookup(service, scope, hit)
		},
	})

	return &App{
		Config:  cfg,
		Log:     log,
		Metrics: engineMetrics,

		Queue:      queue,
		Directory:  directory,
		Vectorizer: vectorizer,
		Segmenter:  segmenter,
		Exporter:   excel.NewExporter(),

		SimilarityUC: similarityUC,
		AnalysisUC:   analysisUC,

		service: service,
		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

// FitVectorizer performs the one-time model fit over the company directory,
// falling back to the canned corpus when the directory is empty or
// unreachable. Run it in a goroutine; callers of Embed block on the
// readiness signal until it completes.
func (a *App) FitVectorizer(ctx context.Context) {
	corpus := a.fitCorpus(ctx)
	if err := a.Vectorizer.Fit(corpus); err != nil {
		a.Log.Error("vectorizer_fit_failed", "error", err)
		// The canned corpus always fits.
		if err := a.Vectorizer.Fit(tfidf.FallbackCorpus()); err != nil {
			a.Log.Error("fallback_fit_failed", "error", err)
			return
		}
	}
	a.Metrics.SetVectorizerReady(a.Vectorizer.Dimension())
}

func (a *App) fitCorpus(ctx context.Context) []string {
	companies, err := a.Directory.ListCompanies(ctx, a.Config.FitSampleSize)
	if err != nil {
		a.Log.Warn("fit_sample_unavailable", "error", err)
		return tfidf.FallbackCorpus()
	}

	corpus := make([]string, 0, len(companies))
	for _, c := range companies {
		if doc := c.Document(); doc != "" {
			corpus = append(corpus, doc)
		}
	}
	if len(corpus) == 0 {
		a.Log.Warn("fit_sample_empty")
		return tfidf.FallbackCorpus()
	}
	return corpus
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

// newSegmenter maps the configured mode to a strategy. Anything other than
// the fast keyword mode gets the precise k-means strategy; callers must
// label by Segmenter.Mode(), not the raw config value.
func newSegmenter(mode string, vectorizer ports.Vectorizer, taxonomy *segmentation.Taxonomy, log *slog.Logger, maxIterations int) ports.Segmenter {
	if mode == segmentation.ModeFast {
		return segmentation.NewKeywordSegmenter(taxonomy, log)
	}
	return segmentation.NewKMeansSegmenter(vectorizer, taxonomy, log, maxIterations)
}

// meteredVectorizer forwards to the TF-IDF vectorizer and counts companies
// that produced no usable vector.
type meteredVectorizer struct {
	inner   ports.Vectorizer
	metrics *metrics.EngineMetrics
	service string
}

func (m *meteredVectorizer) Embed(ctx context.Context, text string) ([]float64, error) {
	return m.inner.Embed(ctx, text)
}

func (m *meteredVectorizer) EmbedCompanies(ctx context.Context, companies []domain.Company) ([]domain.EmbeddingVector, int, error) {
	vectors, skipped, err := m.inner.EmbedCompanies(ctx, companies)
	if err == nil {
		m.metrics.RecordEmbeddingsSkipped(m.service, skipped)
	}
	return vectors, skipped, err
}
