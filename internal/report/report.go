// =============================================================================
// recordmove - Migration Report
// =============================================================================
//
// This module writes an XLSX workbook describing a migration run. It gives
// reviewers a before/after view of the moved record without diffing the
// delimited files by hand.
//
// WORKBOOK LAYOUT:
//
//   Sheet "Summary"                     Sheet "Record"
//   | Key             | Value       |   | Field | Before    | After          | Changed |
//   |-----------------|-------------|   |-------|-----------|----------------|---------|
//   | Run ID          | 3f2a...     |   | id    | dt733250… | sp733250…      | yes     |
//   | Source file     | day_trips…  |   | type  | day trips | special events | yes     |
//   | Source rows     | 12 -> 11    |   | name  | Drag Show | Drag Show      |         |
//
// Record rows follow the destination header order.
//
// =============================================================================

package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"gitlab.com/tozd/go/errors"

	"github.com/ginjaninja78/recordmove/internal/migrate"
)

// Sheet names used in the workbook.
const (
	SummarySheet = "Summary"
	RecordSheet  = "Record"
)

// Write saves the report for result to path.
func Write(path string, result *migrate.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return errors.Errorf("failed to name summary sheet: %w", err)
	}
	if _, err := f.NewSheet(RecordSheet); err != nil {
		return errors.Errorf("failed to create record sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return errors.Errorf("failed to create header style: %w", err)
	}

	if err := writeSummary(f, result, headerStyle); err != nil {
		return err
	}
	if err := writeRecord(f, result, headerStyle); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return errors.Errorf("failed to save report: %w", err)
	}

	return nil
}

func writeSummary(f *excelize.File, result *migrate.Result, headerStyle int) error {
	rows := [][]interface{}{
		{"Key", "Value"},
		{"Run ID", result.RunID},
		{"Started", formatTime(result.StartedAt)},
		{"Finished", formatTime(result.FinishedAt)},
		{"Dry run", yesNo(result.DryRun)},
		{"Write mode", result.WriteMode},
		{"Source file", result.SourcePath},
		{"Source rows", fmt.Sprintf("%d -> %d", result.SourceBefore, result.SourceAfter)},
		{"Destination file", result.DestinationPath},
		{"Destination rows", fmt.Sprintf("%d -> %d", result.DestinationBefore, result.DestinationAfter)},
		{"Backups", strings.Join(result.Backups, "\n")},
	}

	if err := setRows(f, SummarySheet, rows); err != nil {
		return err
	}

	if err := f.SetCellStyle(SummarySheet, "A1", "B1", headerStyle); err != nil {
		return errors.Errorf("failed to style summary header: %w", err)
	}
	if err := f.SetColWidth(SummarySheet, "A", "A", 20); err != nil {
		return errors.Errorf("failed to size summary sheet: %w", err)
	}
	if err := f.SetColWidth(SummarySheet, "B", "B", 60); err != nil {
		return errors.Errorf("failed to size summary sheet: %w", err)
	}

	return nil
}

func writeRecord(f *excelize.File, result *migrate.Result, headerStyle int) error {
	rows := [][]interface{}{
		{"Field", "Before", "After", "Changed"},
	}

	for _, field := range result.Header {
		before := result.Original[field]
		after := result.Moved[field]
		changed := ""
		if before != after {
			changed = "yes"
		}
		rows = append(rows, []interface{}{field, before, after, changed})
	}

	if err := setRows(f, RecordSheet, rows); err != nil {
		return err
	}

	if err := f.SetCellStyle(RecordSheet, "A1", "D1", headerStyle); err != nil {
		return errors.Errorf("failed to style record header: %w", err)
	}
	if err := f.SetColWidth(RecordSheet, "A", "C", 30); err != nil {
		return errors.Errorf("failed to size record sheet: %w", err)
	}

	return nil
}

func setRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return errors.Errorf("failed to address row %d: %w", i+1, err)
		}
		values := row
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return errors.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
