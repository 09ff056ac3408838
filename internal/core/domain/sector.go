package domain

// SectorProfile is the insight-relevant slice of a taxonomy sector:
// classification tables feeding opportunity, trend and score synthesis.
type SectorProfile struct {
	Name            string
	Characteristics []string
	Growth          string
	Hot             bool
	ScoreBonus      float64
}
