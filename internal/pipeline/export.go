package pipeline

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/xuri/excelize/v2"

	"attendance/internal"
	"attendance/internal/util"
)

var exportHeaders = []string{
	"line_no", "original_line", "cleaned_name", "corrected_name", "canonical_name", "match_score",
	"status", "morning_in", "morning_out", "afternoon_in", "afternoon_out", "has_time", "has_absent_mark",
}

func ExportRowsToXLSX(rows []internal.RecordExportRow, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, row := range rows {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		set(1, row.LineNo)
		set(2, row.OriginalLine)
		set(3, row.CleanedName)
		set(4, row.CorrectedName)
		set(5, util.DerefString(row.CanonicalName))
		set(6, derefFloat(row.MatchScore))
		set(7, row.Status)
		set(8, row.MorningIn)
		set(9, row.MorningOut)
		set(10, row.AfternoonIn)
		set(11, row.AfternoonOut)
		set(12, row.HasTime)
		set(13, row.HasAbsentMark)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func ExportResultToXLSX(res internal.SheetResult, outputPath string) error {
	rows := make([]internal.RecordExportRow, 0, len(res.Records))
	for _, r := range res.Records {
		rows = append(rows, internal.ExportRowFromRecord(r))
	}
	return ExportRowsToXLSX(rows, outputPath)
}

// SummaryFileName is the default report name, e.g.
// attendance_summary_20240131_174500.csv.
func SummaryFileName(now time.Time) string {
	return fmt.Sprintf("attendance_summary_%s.csv", now.Format("20060102_150405"))
}

// WriteSummaryCSV writes a one-row report. total is present + absent; lines
// that could not be classified are reported separately as unknown.
func WriteSummaryCSV(res internal.SheetResult, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	_ = w.Write([]string{"present", "absent", "total", "unknown", "total_lines"})
	_ = w.Write([]string{
		strconv.Itoa(res.Present),
		strconv.Itoa(res.Absent),
		strconv.Itoa(res.Present + res.Absent),
		strconv.Itoa(res.Unknown),
		strconv.Itoa(res.TotalLines),
	})
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// RenderSummary prints the counts as a console table.
func RenderSummary(w io.Writer, res internal.SheetResult) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Present", "Absent", "Total", "Unknown", "Lines"})
	table.Append([]string{
		strconv.Itoa(res.Present),
		strconv.Itoa(res.Absent),
		strconv.Itoa(res.Present + res.Absent),
		strconv.Itoa(res.Unknown),
		strconv.Itoa(res.TotalLines),
	})
	table.Render()
}

// RenderRecords prints one row per record, canonical name when reconciled.
func RenderRecords(w io.Writer, records []internal.AttendanceRecord) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Line", "Name", "Status", "In", "Out", "In", "Out"})
	table.SetAutoWrapText(false)
	for _, r := range records {
		name := r.CorrectedName
		if r.CanonicalName != nil {
			name = *r.CanonicalName
		}
		table.Append([]string{
			strconv.Itoa(r.LineNo), name, string(r.Status),
			r.Punches[0], r.Punches[1], r.Punches[2], r.Punches[3],
		})
	}
	table.Render()
}

func derefFloat(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}
