package excel

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/market-insight-engine/internal/core/domain"
)

// Sheet names of the generated workbook.
const (
	sheetSegments     = "Segments"
	sheetInsights     = "Global Insights"
	sheetDistribution = "Sector Distribution"
)

// Exporter renders a market analysis into a three-sheet xlsx workbook.
type Exporter struct{}

func NewExporter() *Exporter {
	return &Exporter{}
}

func (e *Exporter) Export(analysis *domain.MarketAnalysis, path string) error {
	if analysis == nil {
		return fmt.Errorf("export report: analysis is nil")
	}

	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := e.writeSegments(f, analysis); err != nil {
		return err
	}
	if err := e.writeInsights(f, analysis); err != nil {
		return err
	}
	if err := e.writeDistribution(f, analysis); err != nil {
		return err
	}

	// The default sheet excelize creates is replaced by our own.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("delete default sheet: %w", err)
	}
	index, err := f.GetSheetIndex(sheetSegments)
	if err != nil {
		return fmt.Errorf("locate segments sheet: %w", err)
	}
	f.SetActiveSheet(index)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

func (e *Exporter) writeSegments(f *excelize.File, analysis *domain.MarketAnalysis) error {
	if _, err := f.NewSheet(sheetSegments); err != nil {
		return fmt.Errorf("create segments sheet: %w", err)
	}

	headers := []string{"Segment", "Sector", "Members", "Score", "Opportunity", "Growth Trend", "Characteristics"}
	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("segments header cell: %w", err)
		}
		if err := f.SetCellValue(sheetSegments, cell, h); err != nil {
			return fmt.Errorf("write segments header: %w", err)
		}
	}

	for i, seg := range analysis.Segments {
		row := i + 2
		values := []any{
			seg.Name,
			seg.Sector,
			len(seg.Members),
			seg.Score,
			seg.InvestmentOpportunity,
			seg.GrowthTrend,
			strings.Join(seg.Characteristics, ", "),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return fmt.Errorf("segments cell: %w", err)
			}
			if err := f.SetCellValue(sheetSegments, cell, v); err != nil {
				return fmt.Errorf("write segment row: %w", err)
			}
		}
	}
	return nil
}

func (e *Exporter) writeInsights(f *excelize.File, analysis *domain.MarketAnalysis) error {
	if _, err := f.NewSheet(sheetInsights); err != nil {
		return fmt.Errorf("create insights sheet: %w", err)
	}

	rows := [][]any{
		{"Generated At", analysis.GeneratedAt.Format("2006-01-02 15:04:05 UTC")},
		{"Companies Analyzed", analysis.TotalCompanies},
		{"Hottest Sector", analysis.Insights.HottestSector},
		{"Emerging Trend", analysis.Insights.EmergingTrend},
		{"Top Opportunities", strings.Join(analysis.Insights.InvestmentOpportunities, ", ")},
		{"Market Gaps", strings.Join(analysis.Insights.MarketGaps, ", ")},
	}
	for i, pair := range rows {
		for col, v := range pair {
			cell, err := excelize.CoordinatesToCellName(col+1, i+1)
			if err != nil {
				return fmt.Errorf("insights cell: %w", err)
			}
			if err := f.SetCellValue(sheetInsights, cell, v); err != nil {
				return fmt.Errorf("write insights row: %w", err)
			}
		}
	}
	return nil
}

func (e *Exporter) writeDistribution(f *excelize.File, analysis *domain.MarketAnalysis) error {
	if _, err := f.NewSheet(sheetDistribution); err != nil {
		return fmt.Errorf("create distribution sheet: %w", err)
	}

	if err := f.SetCellValue(sheetDistribution, "A1", "Segment"); err != nil {
		return fmt.Errorf("write distribution header: %w", err)
	}
	if err := f.SetCellValue(sheetDistribution, "B1", "Companies"); err != nil {
		return fmt.Errorf("write distribution header: %w", err)
	}

	// Map iteration order is random; sort for a stable workbook.
	names := make([]string, 0, len(analysis.Insights.SectorDistribution))
	for name := range analysis.Insights.SectorDistribution {
		names = append(names, name)
	}
	sort.Strings(names)

	for i, name := range names {
		row := i + 2
		if err := f.SetCellValue(sheetDistribution, fmt.Sprintf("A%d", row), name); err != nil {
			return fmt.Errorf("write distribution name: %w", err)
		}
		if err := f.SetCellValue(sheetDistribution, fmt.Sprintf("B%d", row), analysis.Insights.SectorDistribution[name]); err != nil {
			return fmt.Errorf("write distribution count: %w", err)
		}
	}
	return nil
}
