package segmentation

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/kirillkom/market-insight-engine/internal/core/domain"
)

// KeywordSegmenter buckets companies by the sector keyword table. It never
// fails a request: companies matching no sector land in the residual
// bucket.
type KeywordSegmenter struct {
	taxonomy *Taxonomy
	log      *slog.Logger
}

func NewKeywordSegmenter(taxonomy *Taxonomy, log *slog.Logger) *KeywordSegmenter {
	return &KeywordSegmenter{
		taxonomy: taxonomy,
		log:      log.With("component", "keyword_segmenter"),
	}
}

func (s *KeywordSegmenter) Mode() string { return ModeFast }

func (s *KeywordSegmenter) Segment(_ context.Context, companies []domain.Company, segmentCount int) ([]domain.Segment, error) {
	buckets := make(map[string][]domain.Company, len(s.taxonomy.Sectors))
	var residual []domain.Company

	for _, company := range companies {
		sector, matched := s.taxonomy.Classify(company.Document())
		if !matched {
			residual = append(residual, company)
			continue
		}
		buckets[sector.Name] = append(buckets[sector.Name], company)
	}

	// Table order keeps the pre-sort segment sequence deterministic.
	segments := make([]domain.Segment, 0, len(buckets)+1)
	for _, sector := range s.taxonomy.Sectors {
		members := buckets[sector.Name]
		if len(members) == 0 {
			continue
		}
		segments = append(segments, s.buildSegment(sector, members, len(segments)))
	}

	// The residual bucket joins only if there is still room under the
	// requested segment count.
	if len(residual) > 0 && len(segments) < segmentCount {
		segments = append(segments, s.buildSegment(s.taxonomy.Residual, residual, len(segments)))
	}

	sort.SliceStable(segments, func(i, j int) bool {
		return len(segments[i].Members) > len(segments[j].Members)
	})
	if len(segments) > segmentCount {
		dropped := 0
		for _, seg := range segments[segmentCount:] {
			dropped += len(seg.Members)
		}
		s.log.Info("segments_truncated", "kept", segmentCount, "dropped_companies", dropped)
		segments = segments[:segmentCount]
	}
	return segments, nil
}

func (s *KeywordSegmenter) buildSegment(sector Sector, members []domain.Company, cluster int) domain.Segment {
	segMembers := make([]domain.SegmentMember, 0, len(members))
	for _, c := range members {
		segMembers = append(segMembers, domain.SegmentMember{
			CompanyID:   c.ID,
			CompanyName: c.Name,
			Cluster:     cluster,
		})
	}
	return domain.Segment{
		ID:          uuid.NewString(),
		Name:        sector.Name,
		Sector:      sector.Name,
		Description: fmt.Sprintf("%d companies classified into the %s sector by keyword profile.", len(members), sector.Name),
		Members:     segMembers,
	}
}
