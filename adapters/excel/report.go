// Package excel writes experiment results to an xlsx workbook for
// offline review.
package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"gosplit/domain/experiment"
)

// ReportWriter renders a Results document into a workbook with a
// summary sheet and a per-variant metrics sheet.
type ReportWriter struct {
	filePath string
}

// NewReportWriter creates a report writer targeting filePath
func NewReportWriter(filePath string) *ReportWriter {
	return &ReportWriter{filePath: filePath}
}

// Write produces the workbook. Existing files are overwritten.
func (w *ReportWriter) Write(exp *experiment.Experiment, results *experiment.Results) error {
	f := excelize.NewFile()
	defer f.Close()

	summary := "Summary"
	if err := f.SetSheetName("Sheet1", summary); err != nil {
		return fmt.Errorf("failed to rename summary sheet: %w", err)
	}

	rows := [][]interface{}{
		{"Experiment", exp.Name},
		{"Status", string(exp.Status)},
		{"Primary metric", exp.Metrics.Primary},
		{"Participants", results.ParticipantCount},
		{"Duration (days)", results.DurationDays},
		{"Recommendation", string(results.Summary.Recommendation)},
		{"Significant", results.Summary.IsStatisticallySignificant},
		{"Confidence", results.Summary.ConfidenceLevel},
		{"Effect (%)", results.Summary.Effect},
	}
	if results.Winner != nil {
		rows = append(rows,
			[]interface{}{"Winner", results.Winner.VariantID.String()},
			[]interface{}{"Winner improvement (%)", results.Winner.Improvement},
		)
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summary, cell, &row); err != nil {
			return fmt.Errorf("failed to write summary row: %w", err)
		}
	}

	variants := "Variants"
	if _, err := f.NewSheet(variants); err != nil {
		return fmt.Errorf("failed to create variants sheet: %w", err)
	}

	header := []interface{}{"Variant", "Control", "Metric", "Exposures", "Conversions",
		"Rate", "CI low", "CI high", "P-value", "Improvement (%)", "Significant"}
	if err := f.SetSheetRow(variants, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}

	rowIdx := 2
	for _, vr := range results.Variants {
		for metric, mr := range vr.Metrics {
			row := []interface{}{
				vr.Name, vr.IsControl, metric, mr.Exposures, mr.Conversions,
				mr.Value, mr.ConfidenceIntervalLow, mr.ConfidenceIntervalHigh,
				mr.PValue, mr.ImprovementPct, mr.SignificantlyDifferent,
			}
			cell, _ := excelize.CoordinatesToCellName(1, rowIdx)
			if err := f.SetSheetRow(variants, cell, &row); err != nil {
				return fmt.Errorf("failed to write variant row: %w", err)
			}
			rowIdx++
		}
	}

	for _, warning := range results.Recommendations {
		row := []interface{}{"Warning", warning}
		cell, _ := excelize.CoordinatesToCellName(1, rowIdx)
		if err := f.SetSheetRow(variants, cell, &row); err != nil {
			return fmt.Errorf("failed to write warning row: %w", err)
		}
		rowIdx++
	}

	if err := f.SaveAs(w.filePath); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}
