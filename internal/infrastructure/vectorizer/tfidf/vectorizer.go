// Package tfidf implements the text vectorization pipeline: lowercase
// tokenization, stop-word removal and TF-IDF featurization into
// L2-normalized fixed-length vectors.
//
// The vectorizer is a process-wide singleton with an init-once lifecycle:
// bootstrap fits it once in the background and every caller of Embed waits
// on an explicit readiness signal instead of polling.
package tfidf

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/kirillkom/market-insight-engine/internal/core/domain"
)

// model is the fitted state. It is immutable after Fit builds it; the
// Vectorizer swaps the pointer under the lock, so inference always runs on
// a consistent snapshot.
type model struct {
	vocabulary map[string]int
	idf        []float64
	dimension  int
}

type Vectorizer struct {
	log       *slog.Logger
	stopwords map[string]struct{}

	mu    sync.RWMutex
	model *model

	readyOnce sync.Once
	ready     chan struct{}
}

func New(log *slog.Logger) *Vectorizer {
	return &Vectorizer{
		log:       log.With("component", "tfidf_vectorizer"),
		stopwords: defaultStopwords(),
		ready:     make(chan struct{}),
	}
}

// Ready is closed after the first successful fit.
func (v *Vectorizer) Ready() <-chan struct{} {
	return v.ready
}

// Dimension returns the vector length of the fitted model, 0 before fit.
func (v *Vectorizer) Dimension() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.model == nil {
		return 0
	}
	return v.model.dimension
}

// Fit builds the vocabulary and smoothed IDF weights from the corpus and
// swaps it in as the active model. Safe to call again for a retrain; a
// fit over an unusable corpus leaves the previous model in place.
func (v *Vectorizer) Fit(corpus []string) error {
	if len(corpus) == 0 {
		return domain.WrapError(domain.ErrInvalidInput, "fit vectorizer", errEmptyCorpus)
	}

	df := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, token := range v.tokenize(text) {
			if _, ok := seen[token]; ok {
				continue
			}
			seen[token] = struct{}{}
			df[token]++
		}
	}
	if len(df) == 0 {
		return domain.WrapError(domain.ErrInvalidInput, "fit vectorizer", errNoTokens)
	}

	// Stable vocabulary ordering keeps vectors deterministic across fits
	// over the same corpus.
	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	m := &model{
		vocabulary: make(map[string]int, len(terms)),
		idf:        make([]float64, len(terms)),
		dimension:  len(terms),
	}
	n := float64(len(corpus))
	for i, term := range terms {
		m.vocabulary[term] = i
		m.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}

	v.mu.Lock()
	v.model = m
	v.mu.Unlock()
	v.readyOnce.Do(func() { close(v.ready) })

	v.log.Info("vectorizer_fitted", "documents", len(corpus), "dimension", m.dimension)
	return nil
}

// Embed produces the TF-IDF vector for text. It blocks until the one-time
// fit completes; ctx cancellation surfaces as ErrModelNotReady. Internal
// problems fail softly: the condition is logged and a nil vector returned,
// which callers must treat as "no embedding available".
func (v *Vectorizer) Embed(ctx context.Context, text string) ([]float64, error) {
	m, err := v.awaitModel(ctx)
	if err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		v.log.Warn("embed_skipped", "reason", "empty text")
		return nil, nil
	}

	vec := make([]float64, m.dimension)
	tf := make(map[int]int)
	total := 0
	for _, token := range v.tokenize(text) {
		if idx, ok := m.vocabulary[token]; ok {
			tf[idx]++
			total++
		}
	}
	if total == 0 {
		v.log.Warn("embed_skipped", "reason", "no known tokens", "text_len", len(text))
		return nil, nil
	}

	for idx, count := range tf {
		vec[idx] = (float64(count) / float64(total)) * m.idf[idx]
	}
	normalize(vec)
	return vec, nil
}

// EmbedCompanies embeds every company document, continuing past individual
// failures. It returns only companies a usable vector was produced for,
// plus the number skipped for observability.
func (v *Vectorizer) EmbedCompanies(ctx context.Context, companies []domain.Company) ([]domain.EmbeddingVector, int, error) {
	out := make([]domain.EmbeddingVector, 0, len(companies))
	skipped := 0
	for _, company := range companies {
		vec, err := v.Embed(ctx, company.Document())
		if err != nil {
			return nil, 0, err
		}
		embedding := domain.EmbeddingVector{
			CompanyID:   company.ID,
			CompanyName: company.Name,
			Values:      vec,
		}
		if embedding.IsZero() {
			skipped++
			continue
		}
		out = append(out, embedding)
	}
	if skipped > 0 {
		v.log.Info("embed_batch_partial", "embedded", len(out), "skipped", skipped)
	}
	return out, skipped, nil
}

func (v *Vectorizer) awaitModel(ctx context.Context) (*model, error) {
	select {
	case <-v.ready:
	default:
		select {
		case <-v.ready:
		case <-ctx.Done():
			return nil, domain.WrapError(domain.ErrModelNotReady, "await vectorizer fit", ctx.Err())
		}
	}

	v.mu.RLock()
	m := v.model
	v.mu.RUnlock()
	if m == nil {
		return nil, domain.WrapError(domain.ErrModelNotReady, "await vectorizer fit", errNoModel)
	}
	return m, nil
}

func (v *Vectorizer) tokenize(text string) []string {
	tokens := splitAlphaNumLower(text)
	out := tokens[:0]
	for _, token := range tokens {
		if _, stop := v.stopwords[token]; stop {
			continue
		}
		out = append(out, token)
	}
	return out
}

func normalize(vec []float64) {
	var norm float64
	for _, x := range vec {
		norm += x * x
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return
	}
	for i := range vec {
		vec[i] /= norm
	}
}

func splitAlphaNumLower(s string) []string {
	if s == "" {
		return nil
	}

	tokens := make([]string, 0, 16)
	var b strings.Builder
	for _, r := range s {
		r = unicode.ToLower(r)
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 {
			tokens = append(tokens, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		tokens = append(tokens, b.String())
	}
	return tokens
}
