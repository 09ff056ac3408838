package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/kirillkom/market-insight-engine/internal/core/domain"
	"github.com/kirillkom/market-insight-engine/internal/core/ports"
)

const (
	defaultSimilarLimit = 5
	maxSimilarLimit     = 20
	defaultCompanyCap   = 200
)

// SimilarityUseCase serves embedding and similarity-search operations over
// the company directory.
type SimilarityUseCase struct {
	directory  ports.CompanyDirectory
	vectorizer ports.Vectorizer
	log        *slog.Logger
	companyCap int
}

func NewSimilarityUseCase(
	directory ports.CompanyDirectory,
	vectorizer ports.Vectorizer,
	log *slog.Logger,
	companyCap int,
) *SimilarityUseCase {
	if companyCap <= 0 {
		companyCap = defaultCompanyCap
	}
	return &SimilarityUseCase{
		directory:  directory,
		vectorizer: vectorizer,
		log:        log.With("component", "similarity_usecase"),
		companyCap: companyCap,
	}
}

func (uc *SimilarityUseCase) EmbedText(ctx context.Context, text string) ([]float64, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "embed text", errors.New("empty text"))
	}
	return uc.vectorizer.Embed(ctx, text)
}

func (uc *SimilarityUseCase) EmbedCompanies(ctx context.Context, limit int) ([]domain.EmbeddingVector, int, error) {
	if limit <= 0 || limit > uc.companyCap {
		limit = uc.companyCap
	}
	companies, err := uc.directory.ListCompanies(ctx, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list companies: %w", err)
	}
	return uc.vectorizer.EmbedCompanies(ctx, companies)
}

func (uc *SimilarityUseCase) CompareTexts(ctx context.Context, first, second string) (domain.TextComparison, error) {
	if strings.TrimSpace(first) == "" || strings.TrimSpace(second) == "" {
		return domain.TextComparison{}, domain.WrapError(domain.ErrInvalidInput, "compare texts", errors.New("empty text"))
	}

	vecA, err := uc.vectorizer.Embed(ctx, first)
	if err != nil {
		return domain.TextComparison{}, fmt.Errorf("embed first text: %w", err)
	}
	vecB, err := uc.vectorizer.Embed(ctx, second)
	if err != nil {
		return domain.TextComparison{}, fmt.Errorf("embed second text: %w", err)
	}

	score := domain.CosineSimilarity(vecA, vecB)
	return domain.TextComparison{
		Score:      score,
		Percentage: score * 100,
		Match:      domain.SimilarityLabel(score),
	}, nil
}

func (uc *SimilarityUseCase) FindSimilarByText(ctx context.Context, query string, limit int) ([]domain.SimilarCompany, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "find similar by text", errors.New("empty query"))
	}
	return uc.rankAgainstDirectory(ctx, query, limit, "")
}

func (uc *SimilarityUseCase) FindSimilarToCompany(ctx context.Context, companyID string, limit int) ([]domain.SimilarCompany, error) {
	if strings.TrimSpace(companyID) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "find similar to company", errors.New("empty company id"))
	}
	company, err := uc.directory.GetCompanyByID(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("fetch company by id: %w", err)
	}
	return uc.rankAgainstDirectory(ctx, company.Document(), limit, company.ID)
}

func (uc *SimilarityUseCase) rankAgainstDirectory(ctx context.Context, query string, limit int, excludeID string) ([]domain.SimilarCompany, error) {
	limit = clampLimit(limit)

	queryVec, err := uc.vectorizer.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(queryVec) == 0 {
		uc.log.Warn("query_not_embeddable", "query_len", len(query))
		return []domain.SimilarCompany{}, nil
	}

	companies, err := uc.directory.ListCompanies(ctx, uc.companyCap)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	vectors, skipped, err := uc.vectorizer.EmbedCompanies(ctx, companies)
	if err != nil {
		return nil, fmt.Errorf("embed companies: %w", err)
	}
	if skipped > 0 {
		uc.log.Debug("companies_skipped_in_ranking", "skipped", skipped)
	}

	results := make([]domain.SimilarCompany, 0, len(vectors))
	for _, v := range vectors {
		if excludeID != "" && v.CompanyID == excludeID {
			continue
		}
		score := domain.CosineSimilarity(queryVec, v.Values)
		results = append(results, domain.SimilarCompany{
			CompanyID:   v.CompanyID,
			CompanyName: v.CompanyName,
			Score:       score,
			Percentage:  score * 100,
			Match:       domain.SimilarityLabel(score),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].CompanyName < results[j].CompanyName
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultSimilarLimit
	}
	if limit > maxSimilarLimit {
		return maxSimilarLimit
	}
	return limit
}
