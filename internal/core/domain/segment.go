package domain

import "time"

// Investment opportunity classifications assigned by the insight synthesis.
const (
	OpportunityHigh     = "High Potential"
	OpportunityModerate = "Moderate Potential"
	OpportunityEmerging = "Emerging Opportunity"
)

// Growth trend classifications.
const (
	TrendHighGrowth   = "High Growth"
	TrendSteadyGrowth = "Steady Growth"
	TrendEmerging     = "Emerging"
)

// SegmentMember ties a company to the cluster it was assigned to.
type SegmentMember struct {
	CompanyID   string `json:"company_id"`
	CompanyName string `json:"company_name"`
	Cluster     int    `json:"cluster"`
}

// Segment is one named market segment produced by a segmentation strategy
// and enriched by insight synthesis. Sector is the taxonomy sector the
// segment maps to; Name is the display name and may be disambiguated when
// several clusters land on the same sector.
type Segment struct {
	ID                    string             `json:"id"`
	Name                  string             `json:"name"`
	Sector                string             `json:"sector"`
	Description           string             `json:"description"`
	Members               []SegmentMember    `json:"members"`
	Characteristics       []string           `json:"characteristics,omitempty"`
	InvestmentOpportunity string             `json:"investment_opportunity,omitempty"`
	GrowthTrend           string             `json:"growth_trend,omitempty"`
	Score                 float64            `json:"score"`
	Analytics             map[string]float64 `json:"analytics,omitempty"`
}

// GlobalInsights aggregates cross-segment conclusions.
type GlobalInsights struct {
	HottestSector           string         `json:"hottest_sector"`
	EmergingTrend           string         `json:"emerging_trend"`
	InvestmentOpportunities []string       `json:"investment_opportunities"`
	MarketGaps              []string       `json:"market_gaps"`
	SectorDistribution      map[string]int `json:"sector_distribution"`
}

// MarketAnalysis is the unit of work the result cache stores: the full
// outcome of one segmentation plus insight pass.
type MarketAnalysis struct {
	ID             string         `json:"id"`
	Success        bool           `json:"success"`
	Message        string         `json:"message,omitempty"`
	Segments       []Segment      `json:"segments"`
	Insights       GlobalInsights `json:"insights"`
	TotalCompanies int            `json:"total_companies"`
	GeneratedAt    time.Time      `json:"generated_at"`
}

// SegmentByID returns the segment with the given id, or nil.
func (a *MarketAnalysis) SegmentByID(id string) *Segment {
	for i := range a.Segments {
		if a.Segments[i].ID == id {
			return &a.Segments[i]
		}
	}
	return nil
}

// SimilarCompany is one ranked similarity-search result.
type SimilarCompany struct {
	CompanyID   string  `json:"company_id"`
	CompanyName string  `json:"company_name"`
	Score       float64 `json:"score"`
	Percentage  float64 `json:"percentage"`
	Match       string  `json:"match"`
}

// TextComparison is the result of comparing two free-form texts.
type TextComparison struct {
	Score      float64 `json:"score"`
	Percentage float64 `json:"percentage"`
	Match      string  `json:"match"`
}

// AnalysisRequest asks the analyzer worker for a market segmentation run.
type AnalysisRequest struct {
	SegmentCount int `json:"segment_count"`
}

// AnalysisCompleted is published after a fresh (cache-miss) computation.
type AnalysisCompleted struct {
	AnalysisID     string    `json:"analysis_id"`
	SegmentCount   int       `json:"segment_count"`
	TotalCompanies int       `json:"total_companies"`
	Mode           string    `json:"mode"`
	GeneratedAt    time.Time `json:"generated_at"`
}
