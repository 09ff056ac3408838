package usecase

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/kirillkom/market-insight-engine/internal/core/domain"
)

type directoryFake struct {
	companies []domain.Company
	listCalls int
	listErr   error
}

func (f *directoryFake) ListCompanies(_ context.Context, limit int) ([]domain.Company, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	if limit > 0 && limit < len(f.companies) {
		return f.companies[:limit], nil
	}
	return f.companies, nil
}

func (f *directoryFake) GetCompanyByID(_ context.Context, id string) (*domain.Company, error) {
	for i := range f.companies {
		if f.companies[i].ID == id {
			return &f.companies[i], nil
		}
	}
	return nil, domain.WrapError(domain.ErrCompanyNotFound, "fetch company", errors.New(id))
}

// vectorizerStub embeds texts and companies from canned tables.
type vectorizerStub struct {
	texts    map[string][]float64
	byID     map[string][]float64
	embedErr error
}

func (s *vectorizerStub) Embed(_ context.Context, text string) ([]float64, error) {
	if s.embedErr != nil {
		return nil, s.embedErr
	}
	return s.texts[text], nil
}

func (s *vectorizerStub) EmbedCompanies(_ context.Context, companies []domain.Company) ([]domain.EmbeddingVector, int, error) {
	out := make([]domain.EmbeddingVector, 0, len(companies))
	skipped := 0
	for _, c := range companies {
		values, ok := s.byID[c.ID]
		if !ok {
			skipped++
			continue
		}
		out = append(out, domain.EmbeddingVector{CompanyID: c.ID, CompanyName: c.Name, Values: values})
	}
	return out, skipped, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func similarityFixture() (*directoryFake, *vectorizerStub) {
	directory := &directoryFake{companies: []domain.Company{
		{ID: "1", Name: "VoltMotors"},
		{ID: "2", Name: "DashFreight"},
		{ID: "3", Name: "CloudBase"},
		{ID: "4", Name: "PayFlow"},
		{ID: "5", Name: "GeneCure"},
		{ID: "6", Name: "SunGrid"},
		{ID: "7", Name: "Ghost"},
	}}
	vectorizer := &vectorizerStub{
		texts: map[string][]float64{
			"electric vehicle manufacturer": {1, 0, 0},
		},
		byID: map[string][]float64{
			"1": {0.95, 0.05, 0},
			"2": {0.7, 0.3, 0},
			"3": {0.2, 0.8, 0},
			"4": {0, 1, 0},
			"5": {0, 0.5, 0.5},
			"6": {0.5, 0, 0.5},
			// "7" has no embedding and is skipped.
		},
	}
	return directory, vectorizer
}

func TestFindSimilarByTextRankedAndBounded(t *testing.T) {
	directory, vectorizer := similarityFixture()
	uc := NewSimilarityUseCase(directory, vectorizer, testLogger(), 0)

	results, err := uc.FindSimilarByText(context.Background(), "electric vehicle manufacturer", 5)
	if err != nil {
		t.Fatalf("FindSimilarByText error = %v", err)
	}
	if len(results) > 5 {
		t.Fatalf("got %d results, want at most 5", len(results))
	}
	for i, r := range results {
		if r.Score < 0 || r.Score > 1 {
			t.Fatalf("result %d score %f outside [0, 1]", i, r.Score)
		}
		if i > 0 && results[i-1].Score < r.Score {
			t.Fatalf("results not sorted descending at %d: %f < %f", i, results[i-1].Score, r.Score)
		}
		if r.Match == "" {
			t.Fatalf("result %d missing match label", i)
		}
	}
	if results[0].CompanyName != "VoltMotors" {
		t.Fatalf("top result = %q, want VoltMotors", results[0].CompanyName)
	}
}

func TestFindSimilarByTextDefaultsLimit(t *testing.T) {
	directory, vectorizer := similarityFixture()
	uc := NewSimilarityUseCase(directory, vectorizer, testLogger(), 0)

	results, err := uc.FindSimilarByText(context.Background(), "electric vehicle manufacturer", 0)
	if err != nil {
		t.Fatalf("FindSimilarByText error = %v", err)
	}
	if len(results) != defaultSimilarLimit {
		t.Fatalf("got %d results, want default limit %d", len(results), defaultSimilarLimit)
	}
}

func TestFindSimilarByTextRejectsEmptyQuery(t *testing.T) {
	directory, vectorizer := similarityFixture()
	uc := NewSimilarityUseCase(directory, vectorizer, testLogger(), 0)

	if _, err := uc.FindSimilarByText(context.Background(), "   ", 5); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if directory.listCalls != 0 {
		t.Fatalf("directory consulted despite invalid query")
	}
}

func TestFindSimilarByTextUnembeddableQueryYieldsNoResults(t *testing.T) {
	directory, vectorizer := similarityFixture()
	uc := NewSimilarityUseCase(directory, vectorizer, testLogger(), 0)

	results, err := uc.FindSimilarByText(context.Background(), "unknown tokens only", 5)
	if err != nil {
		t.Fatalf("FindSimilarByText error = %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("got %d results for unembeddable query, want 0", len(results))
	}
}

func TestFindSimilarToCompanyExcludesTarget(t *testing.T) {
	directory, vectorizer := similarityFixture()
	vectorizer.texts[directory.companies[0].Document()] = []float64{0.95, 0.05, 0}
	uc := NewSimilarityUseCase(directory, vectorizer, testLogger(), 0)

	results, err := uc.FindSimilarToCompany(context.Background(), "1", 10)
	if err != nil {
		t.Fatalf("FindSimilarToCompany error = %v", err)
	}
	for _, r := range results {
		if r.CompanyID == "1" {
			t.Fatalf("target company included in its own similarity results")
		}
	}
	if len(results) == 0 {
		t.Fatalf("expected ranked neighbors, got none")
	}
}

func TestFindSimilarToCompanyNotFound(t *testing.T) {
	directory, vectorizer := similarityFixture()
	uc := NewSimilarityUseCase(directory, vectorizer, testLogger(), 0)

	if _, err := uc.FindSimilarToCompany(context.Background(), "missing", 5); !domain.IsKind(err, domain.ErrCompanyNotFound) {
		t.Fatalf("expected ErrCompanyNotFound, got %v", err)
	}
}

func TestCompareTexts(t *testing.T) {
	_, vectorizer := similarityFixture()
	vectorizer.texts["a"] = []float64{1, 0}
	vectorizer.texts["b"] = []float64{1, 0}
	uc := NewSimilarityUseCase(&directoryFake{}, vectorizer, testLogger(), 0)

	cmp, err := uc.CompareTexts(context.Background(), "a", "b")
	if err != nil {
		t.Fatalf("CompareTexts error = %v", err)
	}
	if cmp.Score < 0.999 || cmp.Score > 1 {
		t.Fatalf("identical vectors score = %f, want ~1", cmp.Score)
	}
	if cmp.Percentage < 99.9 || cmp.Match != "Very Strong Match" {
		t.Fatalf("unexpected presentation fields: %+v", cmp)
	}

	if _, err := uc.CompareTexts(context.Background(), "", "b"); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty text, got %v", err)
	}
}

func TestEmbedTextValidation(t *testing.T) {
	_, vectorizer := similarityFixture()
	uc := NewSimilarityUseCase(&directoryFake{}, vectorizer, testLogger(), 0)

	if _, err := uc.EmbedText(context.Background(), " "); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestEmbedCompaniesReportsSkips(t *testing.T) {
	directory, vectorizer := similarityFixture()
	uc := NewSimilarityUseCase(directory, vectorizer, testLogger(), 0)

	vectors, skipped, err := uc.EmbedCompanies(context.Background(), 0)
	if err != nil {
		t.Fatalf("EmbedCompanies error = %v", err)
	}
	if len(vectors) != 6 || skipped != 1 {
		t.Fatalf("got %d vectors with %d skipped, want 6 and 1", len(vectors), skipped)
	}
}
