package segmentation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/kirillkom/market-insight-engine/internal/core/domain"
	"github.com/kirillkom/market-insight-engine/internal/core/ports"
)

const defaultMaxIterations = 50

// KMeansSegmenter clusters company embeddings with Lloyd's algorithm using
// the engine's cosine similarity as the assignment measure. Companies that
// fail to embed are excluded from the run; a run with no embeddable
// companies fails the whole analysis.
type KMeansSegmenter struct {
	vectorizer    ports.Vectorizer
	taxonomy      *Taxonomy
	log           *slog.Logger
	maxIterations int
}

func NewKMeansSegmenter(vectorizer ports.Vectorizer, taxonomy *Taxonomy, log *slog.Logger, maxIterations int) *KMeansSegmenter {
	if maxIterations <= 0 {
		maxIterations = defaultMaxIterations
	}
	return &KMeansSegmenter{
		vectorizer:    vectorizer,
		taxonomy:      taxonomy,
		log:           log.With("component", "kmeans_segmenter"),
		maxIterations: maxIterations,
	}
}

func (s *KMeansSegmenter) Mode() string { return ModePrecise }

func (s *KMeansSegmenter) Segment(ctx context.Context, companies []domain.Company, segmentCount int) ([]domain.Segment, error) {
	vectors, skipped, err := s.vectorizer.EmbedCompanies(ctx, companies)
	if err != nil {
		return nil, domain.WrapError(domain.ErrClustering, "embed companies", err)
	}
	if len(vectors) == 0 {
		return nil, domain.WrapError(domain.ErrClustering, "embed companies", errors.New("no embeddable companies"))
	}
	if skipped > 0 {
		s.log.Info("companies_excluded_from_clustering", "skipped", skipped)
	}

	k := segmentCount
	if len(vectors) < k {
		k = len(vectors) / 2
		if k < 2 {
			k = 2
		}
		s.log.Info("segment_count_reduced", "requested", segmentCount, "effective", k, "companies", len(vectors))
	}
	// There can never be more centers than points.
	if k > len(vectors) {
		k = len(vectors)
	}

	assignments := s.lloyd(vectors, k)

	byID := make(map[string]domain.Company, len(companies))
	for _, c := range companies {
		byID[c.ID] = c
	}
	return s.buildSegments(vectors, assignments, k, byID), nil
}

// lloyd runs the standard assign/update iteration: deterministic
// farthest-point initialization, cosine-similarity assignment, mean-center
// update, early stop once assignments are stable.
func (s *KMeansSegmenter) lloyd(vectors []domain.EmbeddingVector, k int) []int {
	centers := s.initialCenters(vectors, k)
	assignments := make([]int, len(vectors))
	for i := range assignments {
		assignments[i] = -1
	}

	for iter := 0; iter < s.maxIterations; iter++ {
		changed := false
		for i, v := range vectors {
			best := 0
			bestScore := -1.0
			for c := range centers {
				score := domain.CosineSimilarity(v.Values, centers[c])
				if score > bestScore {
					bestScore = score
					best = c
				}
			}
			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}
		if !changed {
			s.log.Debug("kmeans_converged", "iterations", iter+1, "k", k)
			break
		}
		centers = s.updateCenters(vectors, assignments, centers, k)
	}
	return assignments
}

// initialCenters seeds with the first vector, then repeatedly picks the
// vector least similar to every chosen center (farthest-point), keeping
// initialization deterministic for identical inputs.
func (s *KMeansSegmenter) initialCenters(vectors []domain.EmbeddingVector, k int) [][]float64 {
	centers := make([][]float64, 0, k)
	chosen := make(map[int]bool, k)

	centers = append(centers, cloneVector(vectors[0].Values))
	chosen[0] = true

	for len(centers) < k {
		next := -1
		nextScore := 2.0
		for i, v := range vectors {
			if chosen[i] {
				continue
			}
			closest := 0.0
			for _, center := range centers {
				if score := domain.CosineSimilarity(v.Values, center); score > closest {
					closest = score
				}
			}
			if closest < nextScore {
				nextScore = closest
				next = i
			}
		}
		if next < 0 {
			break
		}
		centers = append(centers, cloneVector(vectors[next].Values))
		chosen[next] = true
	}
	return centers
}

func (s *KMeansSegmenter) updateCenters(vectors []domain.EmbeddingVector, assignments []int, centers [][]float64, k int) [][]float64 {
	dim := len(vectors[0].Values)
	sums := make([][]float64, k)
	counts := make([]int, k)
	for c := range sums {
		sums[c] = make([]float64, dim)
	}
	for i, v := range vectors {
		c := assignments[i]
		counts[c]++
		for d, x := range v.Values {
			sums[c][d] += x
		}
	}

	out := make([][]float64, k)
	for c := range out {
		if counts[c] == 0 {
			// Re-seed an empty cluster from the farthest member of the
			// largest one, keeping the partition hard.
			out[c] = s.reseedCenter(vectors, assignments, counts, centers)
			continue
		}
		center := sums[c]
		for d := range center {
			center[d] /= float64(counts[c])
		}
		out[c] = center
	}
	return out
}

func (s *KMeansSegmenter) reseedCenter(vectors []domain.EmbeddingVector, assignments []int, counts []int, centers [][]float64) []float64 {
	largest := 0
	for c, n := range counts {
		if n > counts[largest] {
			largest = c
		}
	}
	farthest := -1
	farthestScore := 2.0
	for i, v := range vectors {
		if assignments[i] != largest {
			continue
		}
		score := domain.CosineSimilarity(v.Values, centers[largest])
		if score < farthestScore {
			farthestScore = score
			farthest = i
		}
	}
	if farthest < 0 {
		return cloneVector(vectors[0].Values)
	}
	return cloneVector(vectors[farthest].Values)
}

func (s *KMeansSegmenter) buildSegments(vectors []domain.EmbeddingVector, assignments []int, k int, companies map[string]domain.Company) []domain.Segment {
	clusters := make([][]domain.EmbeddingVector, k)
	for i, v := range vectors {
		c := assignments[i]
		clusters[c] = append(clusters[c], v)
	}

	segments := make([]domain.Segment, 0, k)
	nameCounts := make(map[string]int)
	for c, members := range clusters {
		if len(members) == 0 {
			continue
		}

		sector := s.dominantSector(members, companies)
		name := sector.Name
		nameCounts[name]++
		if nameCounts[name] > 1 {
			name = fmt.Sprintf("%s %d", name, nameCounts[name])
		}

		segMembers := make([]domain.SegmentMember, 0, len(members))
		for _, v := range members {
			segMembers = append(segMembers, domain.SegmentMember{
				CompanyID:   v.CompanyID,
				CompanyName: v.CompanyName,
				Cluster:     c,
			})
		}
		segments = append(segments, domain.Segment{
			ID:          uuid.NewString(),
			Name:        name,
			Sector:      sector.Name,
			Description: fmt.Sprintf("Cluster of %d companies with similar text profiles, dominated by %s.", len(members), sector.Name),
			Members:     segMembers,
		})
	}

	sort.SliceStable(segments, func(i, j int) bool {
		if len(segments[i].Members) != len(segments[j].Members) {
			return len(segments[i].Members) > len(segments[j].Members)
		}
		return segments[i].Name < segments[j].Name
	})
	return segments
}

// dominantSector names a cluster after the sector most of its members
// classify into, so the insight tables apply to clustered output too.
func (s *KMeansSegmenter) dominantSector(members []domain.EmbeddingVector, companies map[string]domain.Company) Sector {
	votes := make(map[string]int)
	order := make([]string, 0, len(members))
	for _, v := range members {
		company, ok := companies[v.CompanyID]
		if !ok {
			continue
		}
		sector, _ := s.taxonomy.Classify(company.Document())
		if votes[sector.Name] == 0 {
			order = append(order, sector.Name)
		}
		votes[sector.Name]++
	}

	bestName := s.taxonomy.Residual.Name
	bestVotes := 0
	for _, name := range order {
		if votes[name] > bestVotes {
			bestVotes = votes[name]
			bestName = name
		}
	}
	sector, ok := s.taxonomy.ByName(bestName)
	if !ok {
		return s.taxonomy.Residual
	}
	return sector
}

func cloneVector(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
