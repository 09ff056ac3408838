package ports

import (
	"context"

	"github.com/kirillkom/market-insight-engine/internal/core/domain"
)

// SimilarityService is the inbound contract for embedding and
// similarity-search operations.
type SimilarityService interface {
	EmbedText(ctx context.Context, text string) ([]float64, error)
	EmbedCompanies(ctx context.Context, limit int) ([]domain.EmbeddingVector, int, error)
	CompareTexts(ctx context.Context, first, second string) (domain.TextComparison, error)
	FindSimilarByText(ctx context.Context, query string, limit int) ([]domain.SimilarCompany, error)
	FindSimilarToCompany(ctx context.Context, companyID string, limit int) ([]domain.SimilarCompany, error)
}

// MarketAnalyzer is the inbound contract for market segmentation and the
// insight read models derived from it. All operations are read-only with
// respect to company data; the only side effect is cache population.
type MarketAnalyzer interface {
	AnalyzeMarketSegments(ctx context.Context, segmentCount int) (*domain.MarketAnalysis, error)
	GetSegmentDetails(ctx context.Context, segmentID string) (*domain.Segment, error)
	GetInvestmentOpportunities(ctx context.Context) ([]string, error)
	GetEmergingTrends(ctx context.Context) ([]string, error)
	GetSectorDistribution(ctx context.Context) (map[string]int, error)
}
