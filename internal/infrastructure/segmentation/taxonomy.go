// Package segmentation partitions a company population into named market
// segments. Two strategies share one contract: a k-means clustering over
// embeddings for fidelity and a keyword-bucket classification for speed.
// Both consume the single embedded sector taxonomy so they cannot diverge.
package segmentation

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/market-insight-engine/internal/core/domain"
)

// Segmenter modes, selected by caller configuration.
const (
	ModePrecise = "precise"
	ModeFast    = "fast"
)

//go:embed sectors.yaml
var sectorsYAML []byte

// Sector is one entry of the market taxonomy.
type Sector struct {
	Name            string   `yaml:"name"`
	Keywords        []string `yaml:"keywords"`
	Characteristics []string `yaml:"characteristics"`
	Growth          string   `yaml:"growth"`
	Hot             bool     `yaml:"hot"`
	Bonus           float64  `yaml:"bonus"`
}

// Taxonomy is the ordered sector table plus the residual bucket absorbing
// companies no sector matches.
type Taxonomy struct {
	Sectors  []Sector `yaml:"sectors"`
	Residual Sector   `yaml:"residual"`

	byName map[string]Sector
}

// LoadTaxonomy parses and validates the embedded sector table.
func LoadTaxonomy() (*Taxonomy, error) {
	var t Taxonomy
	if err := yaml.Unmarshal(sectorsYAML, &t); err != nil {
		return nil, fmt.Errorf("parse sector taxonomy: %w", err)
	}
	if len(t.Sectors) == 0 {
		return nil, errors.New("sector taxonomy has no sectors")
	}
	if t.Residual.Name == "" {
		return nil, errors.New("sector taxonomy has no residual bucket")
	}

	t.byName = make(map[string]Sector, len(t.Sectors)+1)
	for _, s := range t.Sectors {
		if s.Name == "" || len(s.Keywords) == 0 {
			return nil, fmt.Errorf("sector %q is missing a name or keywords", s.Name)
		}
		if _, dup := t.byName[s.Name]; dup {
			return nil, fmt.Errorf("duplicate sector %q", s.Name)
		}
		t.byName[s.Name] = s
	}
	t.byName[t.Residual.Name] = t.Residual
	return &t, nil
}

// Classify assigns a document to the first sector whose keywords match,
// scanning the table in order. The second return is false when no sector
// matched and the residual bucket applies.
func (t *Taxonomy) Classify(document string) (Sector, bool) {
	padded := padTokens(document)
	if padded == "" {
		return t.Residual, false
	}
	for _, sector := range t.Sectors {
		for _, keyword := range sector.Keywords {
			if strings.Contains(padded, " "+padTokensInner(keyword)+" ") {
				return sector, true
			}
		}
	}
	return t.Residual, false
}

// ByName looks a sector (or the residual bucket) up by name.
func (t *Taxonomy) ByName(name string) (Sector, bool) {
	s, ok := t.byName[name]
	return s, ok
}

// Profile exposes the insight-relevant view of a sector, satisfying the
// core's sector catalog contract.
func (t *Taxonomy) Profile(name string) (domain.SectorProfile, bool) {
	s, ok := t.byName[name]
	if !ok {
		return domain.SectorProfile{}, false
	}
	return domain.SectorProfile{
		Name:            s.Name,
		Characteristics: s.Characteristics,
		Growth:          s.Growth,
		Hot:             s.Hot,
		ScoreBonus:      s.Bonus,
	}, true
}

// padTokens normalizes a document to " tok1 tok2 ... " so multi-word
// keywords match on word boundaries instead of raw substrings.
func padTokens(s string) string {
	inner := padTokensInner(s)
	if inner == "" {
		return ""
	}
	return " " + inner + " "
}

func padTokensInner(s string) string {
	var b strings.Builder
	inToken := false
	for _, r := range s {
		r = unicode.ToLower(r)
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			inToken = true
			continue
		}
		if inToken {
			b.WriteByte(' ')
			inToken = false
		}
	}
	return strings.TrimSpace(b.String())
}
