package usecase

import (
	"testing"

	"github.com/kirillkom/market-insight-engine/internal/core/domain"
)

type catalogFake struct {
	profiles map[string]domain.SectorProfile
}

func (f *catalogFake) Profile(name string) (domain.SectorProfile, bool) {
	p, ok := f.profiles[name]
	return p, ok
}

func TestClassifyOpportunity(t *testing.T) {
	cases := []struct {
		name    string
		hot     bool
		members int
		want    string
	}{
		{"hot and large", true, 8, domain.OpportunityHigh},
		{"hot but small", true, 3, domain.OpportunityModerate},
		{"large but cold", false, 12, domain.OpportunityModerate},
		{"small and cold", false, 2, domain.OpportunityEmerging},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classifyOpportunity(tc.hot, tc.members); got != tc.want {
				t.Fatalf("classifyOpportunity(%v, %d) = %q, want %q", tc.hot, tc.members, got, tc.want)
			}
		})
	}
}

func TestEnrichSegmentScoreAndTrend(t *testing.T) {
	catalog := &catalogFake{profiles: map[string]domain.SectorProfile{
		"AI & Machine Learning": {
			Name:            "AI & Machine Learning",
			Characteristics: []string{"Deep tech focus", "Data-driven products"},
			Growth:          domain.TrendHighGrowth,
			Hot:             true,
			ScoreBonus:      25,
		},
	}}
	synth := newInsightSynthesizer(catalog)

	seg := domain.Segment{
		Sector: "AI & Machine Learning",
		Members: []domain.SegmentMember{
			{CompanyID: "1"}, {CompanyID: "2"}, {CompanyID: "3"},
			{CompanyID: "4"}, {CompanyID: "5"}, {CompanyID: "6"},
			{CompanyID: "7"}, {CompanyID: "8"}, {CompanyID: "9"},
			{CompanyID: "10"},
		},
	}
	companies := map[string]domain.Company{
		"1": {ID: "1", Categories: "Machine Learning|Analytics", FundingTotalUSD: 4_000_000},
		"2": {ID: "2", Categories: "Machine Learning", FundingTotalUSD: 6_000_000},
	}

	synth.enrichSegment(&seg, companies, 20)

	// 10 members * 4 + 25 bonus = 65.
	if seg.Score != 65 {
		t.Fatalf("Score = %f, want 65", seg.Score)
	}
	if seg.InvestmentOpportunity != domain.OpportunityHigh {
		t.Fatalf("InvestmentOpportunity = %q, want %q", seg.InvestmentOpportunity, domain.OpportunityHigh)
	}
	if seg.GrowthTrend != domain.TrendHighGrowth {
		t.Fatalf("GrowthTrend = %q, want %q", seg.GrowthTrend, domain.TrendHighGrowth)
	}
	if len(seg.Characteristics) == 0 || seg.Characteristics[0] != "Machine Learning" {
		t.Fatalf("Characteristics = %v, want most frequent label first", seg.Characteristics)
	}
	if got := seg.Analytics["total_funding_usd"]; got != 10_000_000 {
		t.Fatalf("total_funding_usd = %f, want 10000000", got)
	}
	if got := seg.Analytics["average_funding_usd"]; got != 5_000_000 {
		t.Fatalf("average_funding_usd = %f, want 5000000", got)
	}
	if got := seg.Analytics["member_share"]; got != 0.5 {
		t.Fatalf("member_share = %f, want 0.5", got)
	}
}

func TestEnrichSegmentScoreClampedAtMax(t *testing.T) {
	catalog := &catalogFake{profiles: map[string]domain.SectorProfile{
		"Fintech & Payments": {Name: "Fintech & Payments", Growth: domain.TrendSteadyGrowth, ScoreBonus: 55},
	}}
	synth := newInsightSynthesizer(catalog)

	members := make([]domain.SegmentMember, 30)
	seg := domain.Segment{Sector: "Fintech & Payments", Members: members}
	synth.enrichSegment(&seg, nil, 30)

	// Member term tops out at 60; 60 + 55 clamps to 100.
	if seg.Score != maxScore {
		t.Fatalf("Score = %f, want clamped %f", seg.Score, maxScore)
	}
}

func TestEnrichSegmentUnknownSectorFallsBackToEmerging(t *testing.T) {
	synth := newInsightSynthesizer(&catalogFake{})

	seg := domain.Segment{Sector: "Obscure Sector", Members: []domain.SegmentMember{{CompanyID: "1"}}}
	synth.enrichSegment(&seg, nil, 1)

	if seg.GrowthTrend != domain.TrendEmerging {
		t.Fatalf("GrowthTrend = %q, want %q", seg.GrowthTrend, domain.TrendEmerging)
	}
	if seg.InvestmentOpportunity != domain.OpportunityEmerging {
		t.Fatalf("InvestmentOpportunity = %q, want %q", seg.InvestmentOpportunity, domain.OpportunityEmerging)
	}
}

func TestCharacteristicsFallBackToSectorProfile(t *testing.T) {
	catalog := &catalogFake{profiles: map[string]domain.SectorProfile{
		"Energy & Climate": {
			Name:            "Energy & Climate",
			Characteristics: []string{"Sustainability focus", "Capital intensive"},
			Growth:          domain.TrendHighGrowth,
		},
	}}
	synth := newInsightSynthesizer(catalog)

	seg := domain.Segment{Sector: "Energy & Climate", Members: []domain.SegmentMember{{CompanyID: "1"}}}
	// Member has no category labels, so the sector's canned list is used.
	synth.enrichSegment(&seg, map[string]domain.Company{"1": {ID: "1"}}, 1)

	if len(seg.Characteristics) != 2 || seg.Characteristics[0] != "Sustainability focus" {
		t.Fatalf("Characteristics = %v, want sector profile fallback", seg.Characteristics)
	}
}

func TestGlobalInsights(t *testing.T) {
	synth := newInsightSynthesizer(&catalogFake{})

	segments := []domain.Segment{
		{
			Name: "AI & Machine Learning", Score: 85, GrowthTrend: domain.TrendHighGrowth,
			InvestmentOpportunity: domain.OpportunityHigh,
			Members:               make([]domain.SegmentMember, 12),
		},
		{
			Name: "Fintech & Payments", Score: 70, GrowthTrend: domain.TrendSteadyGrowth,
			InvestmentOpportunity: domain.OpportunityModerate,
			Members:               make([]domain.SegmentMember, 9),
		},
		{
			Name: "Energy & Climate", Score: 55, GrowthTrend: domain.TrendHighGrowth,
			InvestmentOpportunity: domain.OpportunityHigh,
			Members:               make([]domain.SegmentMember, 4),
		},
		{
			Name: "Education", Score: 42, GrowthTrend: domain.TrendEmerging,
			InvestmentOpportunity: domain.OpportunityEmerging,
			Members:               make([]domain.SegmentMember, 3),
		},
	}

	insights := synth.globalInsights(segments)

	if insights.HottestSector != "AI & Machine Learning" {
		t.Fatalf("HottestSector = %q, want AI & Machine Learning", insights.HottestSector)
	}
	// Smallest of the high-growth segments signals the forming trend.
	if insights.EmergingTrend != "Energy & Climate" {
		t.Fatalf("EmergingTrend = %q, want Energy & Climate", insights.EmergingTrend)
	}
	wantOpportunities := []string{"AI & Machine Learning", "Energy & Climate"}
	if len(insights.InvestmentOpportunities) != len(wantOpportunities) {
		t.Fatalf("InvestmentOpportunities = %v, want %v", insights.InvestmentOpportunities, wantOpportunities)
	}
	for i, want := range wantOpportunities {
		if insights.InvestmentOpportunities[i] != want {
			t.Fatalf("InvestmentOpportunities[%d] = %q, want %q", i, insights.InvestmentOpportunities[i], want)
		}
	}
	// Small segments above the score bar are market gaps.
	wantGaps := []string{"Energy & Climate", "Education"}
	if len(insights.MarketGaps) != len(wantGaps) {
		t.Fatalf("MarketGaps = %v, want %v", insights.MarketGaps, wantGaps)
	}
	if insights.SectorDistribution["Fintech & Payments"] != 9 {
		t.Fatalf("SectorDistribution = %v, want Fintech & Payments: 9", insights.SectorDistribution)
	}
}
