package ports

import (
	"context"

	"github.com/kirillkom/market-insight-engine/internal/core/domain"
)

// CompanyDirectory is the read-only collaborator supplying company records.
// Implementations must honor the limit; callers additionally apply their own
// defensive caps for latency control.
type CompanyDirectory interface {
	ListCompanies(ctx context.Context, limit int) ([]domain.Company, error)
	GetCompanyByID(ctx context.Context, id string) (*domain.Company, error)
}

// Vectorizer turns text into fixed-length feature vectors. Embed blocks
// until the one-time model fit completes (or ctx is done). Per-company
// embedding failures are absorbed: EmbedCompanies returns only companies a
// usable vector was produced for plus the number skipped.
type Vectorizer interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	EmbedCompanies(ctx context.Context, companies []domain.Company) ([]domain.EmbeddingVector, int, error)
}

// Segmenter partitions a company population into named market segments.
// Two implementations exist: a k-means strategy over embeddings ("precise")
// and a keyword-bucket strategy ("fast"), chosen by configuration.
type Segmenter interface {
	Mode() string
	Segment(ctx context.Context, companies []domain.Company, segmentCount int) ([]domain.Segment, error)
}

// SectorCatalog resolves a sector name to its insight profile.
type SectorCatalog interface {
	Profile(name string) (domain.SectorProfile, bool)
}

// EventPublisher announces freshly computed analyses to downstream
// consumers.
type EventPublisher interface {
	PublishAnalysisCompleted(ctx context.Context, event domain.AnalysisCompleted) error
}
