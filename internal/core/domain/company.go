package domain

import "strings"

// Company is a read-only record supplied by the company directory.
// The engine never mutates it.
type Company struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Categories      string  `json:"categories,omitempty"`
	Status          string  `json:"status,omitempty"`
	City            string  `json:"city,omitempty"`
	CountryCode     string  `json:"country_code,omitempty"`
	FundingTotalUSD float64 `json:"funding_total_usd,omitempty"`
	FundingRounds   int     `json:"funding_rounds,omitempty"`
}

// Document flattens a company into the single text string the vectorizer
// and the keyword classifier operate on.
func (c Company) Document() string {
	parts := []string{c.Name, c.Categories, c.Status, c.City, c.CountryCode}
	fields := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			fields = append(fields, p)
		}
	}
	return strings.Join(fields, " ")
}

// CategoryLabels splits the pipe-separated category list of the directory
// schema into individual labels.
func (c Company) CategoryLabels() []string {
	if strings.TrimSpace(c.Categories) == "" {
		return nil
	}
	raw := strings.Split(c.Categories, "|")
	out := make([]string, 0, len(raw))
	for _, label := range raw {
		label = strings.TrimSpace(label)
		if label != "" {
			out = append(out, label)
		}
	}
	return out
}
