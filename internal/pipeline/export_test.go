package pipeline

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"attendance/internal"
	"attendance/internal/util"
)

func TestExportRowsToXLSX(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out", "records.xlsx")
	rows := []internal.RecordExportRow{
		{LineNo: 1, OriginalLine: "ADRIANO DANTAS 07:00", CorrectedName: "Adriano Dantas", CanonicalName: util.StringPtr("Adriano Dantas"), MatchScore: util.FloatPtr(95), Status: "present", MorningIn: "07:00", HasTime: true},
		{LineNo: 2, OriginalLine: "JOSE DA SILVA FALTA", CorrectedName: "Jose Silva", Status: "absent", HasAbsentMark: true},
	}
	if err := ExportRowsToXLSX(rows, out); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenFile(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	got, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("rows=%d", len(got))
	}
	if got[0][4] != "canonical_name" || got[1][4] != "Adriano Dantas" || got[1][7] != "07:00" {
		t.Fatalf("unexpected first row: %q", got[1])
	}
	if got[2][6] != "absent" || got[2][4] != "" {
		t.Fatalf("unexpected second row: %q", got[2])
	}
}

func TestWriteSummaryCSV(t *testing.T) {
	out := filepath.Join(t.TempDir(), "reports", "summary.csv")
	res := internal.SheetResult{Present: 3, Absent: 2, Unknown: 1, TotalLines: 9}
	if err := WriteSummaryCSV(res, out); err != nil {
		t.Fatal(err)
	}
	blob, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	want := "present,absent,total,unknown,total_lines\n3,2,5,1,9\n"
	if string(blob) != want {
		t.Fatalf("csv=%q", blob)
	}
}

func TestSummaryFileName(t *testing.T) {
	now := time.Date(2024, 1, 31, 17, 45, 0, 0, time.UTC)
	if got := SummaryFileName(now); got != "attendance_summary_20240131_174500.csv" {
		t.Fatalf("got %q", got)
	}
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	RenderSummary(&buf, internal.SheetResult{Present: 4, Absent: 1, TotalLines: 6})
	out := buf.String()
	for _, want := range []string{"PRESENT", "ABSENT", "4", "5"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}
