package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/kirillkom/market-insight-engine/internal/core/cache"
	"github.com/kirillkom/market-insight-engine/internal/core/domain"
	"github.com/kirillkom/market-insight-engine/internal/core/ports"
)

// Segment count bounds accepted by AnalyzeMarketSegments.
const (
	MinSegmentCount = 2
	MaxSegmentCount = 20
)

// Options tunes the market analysis use case. Zero values fall back to
// defaults.
type Options struct {
	CompanyCap          int
	DefaultSegmentCount int
	AnalysisTTL         time.Duration
	SegmentTTL          time.Duration
	InsightsTTL         time.Duration
	RecomputesPerMin    int

	// CacheObserver, when set, receives a cache scope ("analysis",
	// "segment", "insights") and whether the lookup hit.
	CacheObserver func(scope string, hit bool)
}

func (o Options) normalize() Options {
	out := o
	if out.CompanyCap <= 0 {
		out.CompanyCap = 500
	}
	if out.DefaultSegmentCount < MinSegmentCount || out.DefaultSegmentCount > MaxSegmentCount {
		out.DefaultSegmentCount = 8
	}
	if out.AnalysisTTL <= 0 {
		out.AnalysisTTL = 10 * time.Minute
	}
	if out.SegmentTTL <= 0 {
		out.SegmentTTL = 5 * time.Minute
	}
	if out.InsightsTTL <= 0 {
		out.InsightsTTL = 15 * time.Minute
	}
	if out.RecomputesPerMin <= 0 {
		out.RecomputesPerMin = 6
	}
	return out
}

// MarketAnalysisUseCase orchestrates segmentation plus insight synthesis
// behind the TTL result cache.
type MarketAnalysisUseCase struct {
	directory   ports.CompanyDirectory
	segmenter   ports.Segmenter
	synthesizer *insightSynthesizer
	events      ports.EventPublisher
	log         *slog.Logger
	opts        Options
	limiter     *rate.Limiter

	analysisCache *cache.Store[*domain.MarketAnalysis]
	segmentCache  *cache.Store[domain.Segment]
	listCache     *cache.Store[[]string]
	distCache     *cache.Store[map[string]int]
}

func NewMarketAnalysisUseCase(
	directory ports.CompanyDirectory,
	segmenter ports.Segmenter,
	catalog ports.SectorCatalog,
	events ports.EventPublisher,
	log *slog.Logger,
	opts Options,
) *MarketAnalysisUseCase {
	opts = opts.normalize()
	return &MarketAnalysisUseCase{
		directory:   directory,
		segmenter:   segmenter,
		synthesizer: newInsightSynthesizer(catalog),
		events:      events,
		log:         log.With("component", "analysis_usecase"),
		opts:        opts,
		limiter:     rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RecomputesPerMin)), opts.RecomputesPerMin),

		analysisCache: cache.NewStore[*domain.MarketAnalysis](),
		segmentCache:  cache.NewStore[domain.Segment](),
		listCache:     cache.NewStore[[]string](),
		distCache:     cache.NewStore[map[string]int](),
	}
}

// AnalyzeMarketSegments runs (or serves from cache) a full segmentation
// plus insight pass over at most CompanyCap companies. A clustering failure
// is returned as a failed MarketAnalysis, not an error; failed analyses are
// never cached.
func (uc *MarketAnalysisUseCase) AnalyzeMarketSegments(ctx context.Context, segmentCount int) (*domain.MarketAnalysis, error) {
	if segmentCount < MinSegmentCount || segmentCount > MaxSegmentCount {
		return nil, domain.WrapError(domain.ErrInvalidInput, "analyze market segments",
			fmt.Errorf("segment count %d outside [%d, %d]", segmentCount, MinSegmentCount, MaxSegmentCount))
	}

	key := fmt.Sprintf("analysis:k=%d", segmentCount)
	analysis, hit, err := uc.analysisCache.GetOrCompute(key, uc.opts.AnalysisTTL, func() (*domain.MarketAnalysis, error) {
		return uc.compute(ctx, segmentCount)
	})
	uc.observeCache("analysis", hit)
	if err != nil {
		if domain.IsKind(err, domain.ErrClustering) {
			uc.log.Warn("analysis_failed", "segment_count", segmentCount, "error", err)
			return &domain.MarketAnalysis{
				ID:          uuid.NewString(),
				Success:     false,
				Message:     err.Error(),
				GeneratedAt: time.Now().UTC(),
			}, nil
		}
		return nil, err
	}

	if !hit {
		uc.publishCompleted(ctx, analysis, segmentCount)
	}
	return analysis, nil
}

func (uc *MarketAnalysisUseCase) compute(ctx context.Context, segmentCount int) (*domain.MarketAnalysis, error) {
	// Throttle fresh computations so a stampede of distinct cache keys
	// cannot saturate the process.
	if err := uc.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("await recompute slot: %w", err)
	}

	started := time.Now()
	companies, err := uc.directory.ListCompanies(ctx, uc.opts.CompanyCap)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}

	analysis := &domain.MarketAnalysis{
		ID:             uuid.NewString(),
		Success:        true,
		TotalCompanies: len(companies),
		GeneratedAt:    time.Now().UTC(),
	}
	if len(companies) == 0 {
		analysis.Message = "no companies available for analysis"
		analysis.Segments = []domain.Segment{}
		return analysis, nil
	}

	segments, err := uc.segmenter.Segment(ctx, companies, segmentCount)
	if err != nil {
		return nil, fmt.Errorf("segment companies: %w", err)
	}

	byID := make(map[string]domain.Company, len(companies))
	for _, c := range companies {
		byID[c.ID] = c
	}
	uc.synthesizer.enrich(segments, byID, len(companies))

	analysis.Segments = segments
	analysis.Insights = uc.synthesizer.globalInsights(segments)
	analysis.Message = fmt.Sprintf("analyzed %d companies into %d segments", len(companies), len(segments))

	uc.log.Info("analysis_computed",
		"analysis_id", analysis.ID,
		"mode", uc.segmenter.Mode(),
		"companies", len(companies),
		"segments", len(segments),
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return analysis, nil
}

func (uc *MarketAnalysisUseCase) GetSegmentDetails(ctx context.Context, segmentID string) (*domain.Segment, error) {
	if strings.TrimSpace(segmentID) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "segment details", errors.New("empty segment id"))
	}

	segment, hit, err := uc.segmentCache.GetOrCompute("segment:"+segmentID, uc.opts.SegmentTTL, func() (domain.Segment, error) {
		analysis, err := uc.defaultAnalysis(ctx)
		if err != nil {
			return domain.Segment{}, err
		}
		if s := analysis.SegmentByID(segmentID); s != nil {
			return *s, nil
		}
		return domain.Segment{}, domain.WrapError(domain.ErrSegmentNotFound, "segment details", fmt.Errorf("segment %s", segmentID))
	})
	uc.observeCache("segment", hit)
	if err != nil {
		return nil, err
	}
	return &segment, nil
}

func (uc *MarketAnalysisUseCase) GetInvestmentOpportunities(ctx context.Context) ([]string, error) {
	opportunities, hit, err := uc.listCache.GetOrCompute("opportunities", uc.opts.InsightsTTL, func() ([]string, error) {
		analysis, err := uc.defaultAnalysis(ctx)
		if err != nil {
			return nil, err
		}
		return analysis.Insights.InvestmentOpportunities, nil
	})
	uc.observeCache("insights", hit)
	return opportunities, err
}

// GetEmergingTrends lists high-growth segments smallest first, so the
// nascent trend leads the already-crowded ones.
func (uc *MarketAnalysisUseCase) GetEmergingTrends(ctx context.Context) ([]string, error) {
	trends, hit, err := uc.listCache.GetOrCompute("trends", uc.opts.InsightsTTL, func() ([]string, error) {
		analysis, err := uc.defaultAnalysis(ctx)
		if err != nil {
			return nil, err
		}

		highGrowth := make([]domain.Segment, 0, len(analysis.Segments))
		for _, seg := range analysis.Segments {
			if seg.GrowthTrend == domain.TrendHighGrowth {
				highGrowth = append(highGrowth, seg)
			}
		}
		names := make([]string, 0, len(highGrowth))
		for i := len(highGrowth) - 1; i >= 0; i-- {
			names = append(names, highGrowth[i].Name)
		}
		return names, nil
	})
	uc.observeCache("insights", hit)
	return trends, err
}

func (uc *MarketAnalysisUseCase) GetSectorDistribution(ctx context.Context) (map[string]int, error) {
	distribution, hit, err := uc.distCache.GetOrCompute("distribution", uc.opts.InsightsTTL, func() (map[string]int, error) {
		analysis, err := uc.defaultAnalysis(ctx)
		if err != nil {
			return nil, err
		}
		return analysis.Insights.SectorDistribution, nil
	})
	uc.observeCache("insights", hit)
	return distribution, err
}

// defaultAnalysis backs the derived read models with the default-sized
// segmentation, reusing its cache entry.
func (uc *MarketAnalysisUseCase) defaultAnalysis(ctx context.Context) (*domain.MarketAnalysis, error) {
	analysis, err := uc.AnalyzeMarketSegments(ctx, uc.opts.DefaultSegmentCount)
	if err != nil {
		return nil, err
	}
	if !analysis.Success {
		return nil, domain.WrapError(domain.ErrClustering, "default analysis", errors.New(analysis.Message))
	}
	return analysis, nil
}

func (uc *MarketAnalysisUseCase) publishCompleted(ctx context.Context, analysis *domain.MarketAnalysis, segmentCount int) {
	if uc.events == nil {
		return
	}
	event := domain.AnalysisCompleted{
		AnalysisID:     analysis.ID,
		SegmentCount:   segmentCount,
		TotalCompanies: analysis.TotalCompanies,
		Mode:           uc.segmenter.Mode(),
		GeneratedAt:    analysis.GeneratedAt,
	}
	if err := uc.events.PublishAnalysisCompleted(ctx, event); err != nil {
		// Event delivery is best-effort; the analysis itself succeeded.
		uc.log.Warn("analysis_event_publish_failed", "analysis_id", analysis.ID, "error", err)
	}
}

func (uc *MarketAnalysisUseCase) observeCache(scope string, hit bool) {
	if uc.opts.CacheObserver != nil {
		uc.opts.CacheObserver(scope, hit)
	}
}
