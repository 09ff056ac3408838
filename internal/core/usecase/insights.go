package usecase

import (
	"sort"
	"strings"

	"github.com/kirillkom/market-insight-engine/internal/core/domain"
	"github.com/kirillkom/market-insight-engine/internal/core/ports"
)

const (
	characteristicsCap  = 6
	hotMemberThreshold  = 8
	memberScoreStep     = 4.0
	memberScoreCap      = 60.0
	maxScore            = 100.0
	topOpportunities    = 3
	marketGapMaxMembers = 5
	marketGapMinScore   = 40.0
	maxMarketGaps       = 3
)

// insightSynthesizer derives per-segment characteristics and scores plus
// cross-segment global insights from segmentation output.
type insightSynthesizer struct {
	catalog ports.SectorCatalog
}

func newInsightSynthesizer(catalog ports.SectorCatalog) *insightSynthesizer {
	return &insightSynthesizer{catalog: catalog}
}

// enrich fills the derived fields of every segment in place.
func (s *insightSynthesizer) enrich(segments []domain.Segment, companies map[string]domain.Company, totalAnalyzed int) {
	for i := range segments {
		s.enrichSegment(&segments[i], companies, totalAnalyzed)
	}
}

func (s *insightSynthesizer) enrichSegment(seg *domain.Segment, companies map[string]domain.Company, totalAnalyzed int) {
	profile, ok := s.catalog.Profile(seg.Sector)
	if !ok {
		profile = domain.SectorProfile{Name: seg.Sector, Growth: domain.TrendEmerging}
	}

	memberCount := len(seg.Members)
	seg.Characteristics = s.characteristics(seg, companies, profile)
	seg.InvestmentOpportunity = classifyOpportunity(profile.Hot, memberCount)
	seg.GrowthTrend = profile.Growth
	if seg.GrowthTrend == "" {
		seg.GrowthTrend = domain.TrendEmerging
	}

	memberTerm := float64(memberCount) * memberScoreStep
	if memberTerm > memberScoreCap {
		memberTerm = memberScoreCap
	}
	score := memberTerm + profile.ScoreBonus
	if score > maxScore {
		score = maxScore
	}
	seg.Score = score

	seg.Analytics = segmentAnalytics(seg, companies, totalAnalyzed)
}

// characteristics ranks the category labels observed across member
// companies by frequency; the sector's canned characteristics fill in when
// the members carry no labels.
func (s *insightSynthesizer) characteristics(seg *domain.Segment, companies map[string]domain.Company, profile domain.SectorProfile) []string {
	counts := make(map[string]int)
	display := make(map[string]string)
	for _, m := range seg.Members {
		company, ok := companies[m.CompanyID]
		if !ok {
			continue
		}
		for _, label := range company.CategoryLabels() {
			key := strings.ToLower(label)
			if _, seen := display[key]; !seen {
				display[key] = label
			}
			counts[key]++
		}
	}

	if len(counts) == 0 {
		if len(profile.Characteristics) > characteristicsCap {
			return profile.Characteristics[:characteristicsCap]
		}
		return profile.Characteristics
	}

	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > characteristicsCap {
		keys = keys[:characteristicsCap]
	}

	out := make([]string, 0, len(keys))
	for _, key := range keys {
		out = append(out, display[key])
	}
	return out
}

func classifyOpportunity(hotSector bool, memberCount int) string {
	large := memberCount >= hotMemberThreshold
	switch {
	case hotSector && large:
		return domain.OpportunityHigh
	case hotSector || large:
		return domain.OpportunityModerate
	default:
		return domain.OpportunityEmerging
	}
}

func segmentAnalytics(seg *domain.Segment, companies map[string]domain.Company, totalAnalyzed int) map[string]float64 {
	var totalFunding float64
	funded := 0
	for _, m := range seg.Members {
		company, ok := companies[m.CompanyID]
		if !ok {
			continue
		}
		if company.FundingTotalUSD > 0 {
			totalFunding += company.FundingTotalUSD
			funded++
		}
	}

	analytics := map[string]float64{
		"member_count":      float64(len(seg.Members)),
		"total_funding_usd": totalFunding,
	}
	if funded > 0 {
		analytics["average_funding_usd"] = totalFunding / float64(funded)
	}
	if totalAnalyzed > 0 {
		analytics["member_share"] = float64(len(seg.Members)) / float64(totalAnalyzed)
	}
	return analytics
}

// globalInsights derives cross-segment conclusions. Segments arrive in
// presentation order (descending member count); ties on score or size are
// broken by first occurrence.
func (s *insightSynthesizer) globalInsights(segments []domain.Segment) domain.GlobalInsights {
	insights := domain.GlobalInsights{
		SectorDistribution: make(map[string]int, len(segments)),
	}

	hottestScore := -1.0
	emergingSize := -1
	for _, seg := range segments {
		insights.SectorDistribution[seg.Name] = len(seg.Members)

		if seg.Score > hottestScore {
			hottestScore = seg.Score
			insights.HottestSector = seg.Name
		}
		// Among high-growth segments the smallest one signals the trend
		// still forming, not the one already crowded.
		if seg.GrowthTrend == domain.TrendHighGrowth {
			if emergingSize < 0 || len(seg.Members) < emergingSize {
				emergingSize = len(seg.Members)
				insights.EmergingTrend = seg.Name
			}
		}
	}

	insights.InvestmentOpportunities = rankOpportunities(segments)
	insights.MarketGaps = findMarketGaps(segments)
	return insights
}

func rankOpportunities(segments []domain.Segment) []string {
	type scored struct {
		name  string
		score float64
	}
	candidates := make([]scored, 0, len(segments))
	for _, seg := range segments {
		if seg.InvestmentOpportunity == domain.OpportunityHigh {
			candidates = append(candidates, scored{name: seg.Name, score: seg.Score})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > topOpportunities {
		candidates = candidates[:topOpportunities]
	}

	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.name)
	}
	return out
}

// findMarketGaps flags small but promising segments: under-served niches
// with few members yet a score above the bar.
func findMarketGaps(segments []domain.Segment) []string {
	out := make([]string, 0, maxMarketGaps)
	for _, seg := range segments {
		if len(seg.Members) < marketGapMaxMembers && seg.Score >= marketGapMinScore {
			out = append(out, seg.Name)
			if len(out) == maxMarketGaps {
				break
			}
		}
	}
	return out
}
