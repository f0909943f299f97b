package storage

import (
	"path/filepath"
	"reflect"
	"testing"

	"attendance/internal"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "nested", "app.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func sp(v string) *string { return &v }

func fp(v float64) *float64 { return &v }

func TestReplaceRoster(t *testing.T) {
	db := openTestDB(t)
	n, err := db.ReplaceRoster([]string{"Adriano Dantas", "ADRIANO DANTAS", "", "André Vieira"})
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("stored=%d", n)
	}
	if _, err := db.ReplaceRoster([]string{"Aldenir Luiz", "Adriano Dantas"}); err != nil {
		t.Fatal(err)
	}
	names, err := db.ListRoster()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(names, []string{"Aldenir Luiz", "Adriano Dantas"}) {
		t.Fatalf("names=%v", names)
	}
}

func sampleResult() internal.SheetResult {
	return internal.SheetResult{
		Present:    1,
		Absent:     1,
		TotalLines: 3,
		Records: []internal.AttendanceRecord{
			{
				LineNo: 2, OriginalLine: "JOSE DA SILVA FALTA", CleanedText: "JOSE DA SILVA FALTA",
				CleanedName: "JOSE SILVA", CorrectedName: "Jose Silva",
				Status: internal.StatusAbsent, HasAbsentMark: true,
			},
			{
				LineNo: 1, OriginalLine: "ADRIANO DANTAS SERVENTE 07:00 11:00", CleanedText: "ADRIANO DANTAS SERVENTE 07 00 11 00",
				CleanedName: "ADRIANO DANTAS", CorrectedName: "Adriano Dantas",
				CanonicalName: sp("Adriano Dantas"), MatchScore: fp(100),
				Status: internal.StatusPresent, Punches: internal.Punches{"07:00", "11:00"}, HasTime: true,
			},
		},
	}
}

func TestInsertSheetAndExportRows(t *testing.T) {
	db := openTestDB(t)
	id, err := db.InsertSheet("scan.txt", "hash-1", sampleResult())
	if err != nil {
		t.Fatal(err)
	}

	sheet, err := db.MustSheet(id)
	if err != nil {
		t.Fatal(err)
	}
	if sheet.Source != "scan.txt" || sheet.Present != 1 || sheet.Absent != 1 || sheet.TotalLines != 3 {
		t.Fatalf("sheet=%+v", sheet)
	}

	rows, err := db.GetExportRows(id)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0].LineNo != 1 || rows[1].LineNo != 2 {
		t.Fatalf("rows out of line order: %+v", rows)
	}
	first := rows[0]
	if first.CanonicalName == nil || *first.CanonicalName != "Adriano Dantas" || first.MatchScore == nil || *first.MatchScore != 100 {
		t.Fatalf("reconciliation lost: %+v", first)
	}
	if first.MorningIn != "07:00" || first.MorningOut != "11:00" || first.AfternoonIn != "" || !first.HasTime {
		t.Fatalf("punches lost: %+v", first)
	}
	second := rows[1]
	if second.CanonicalName != nil || second.MatchScore != nil || second.Status != "absent" || !second.HasAbsentMark {
		t.Fatalf("absent row: %+v", second)
	}
}

func TestInsertSheetReplacesSameHash(t *testing.T) {
	db := openTestDB(t)
	id1, err := db.InsertSheet("first", "same", sampleResult())
	if err != nil {
		t.Fatal(err)
	}
	res := sampleResult()
	res.Records = res.Records[:1]
	res.Present, res.Absent = 0, 1
	id2, err := db.InsertSheet("second", "same", res)
	if err != nil {
		t.Fatal(err)
	}
	if id1 != id2 {
		t.Fatalf("ids differ: %d %d", id1, id2)
	}
	rows, err := db.GetExportRows(id2)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("old records kept: %d", len(rows))
	}
	sheets, err := db.ListSheets(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(sheets) != 1 || sheets[0].Source != "second" {
		t.Fatalf("sheets=%+v", sheets)
	}
}

func TestGetSheetMissing(t *testing.T) {
	db := openTestDB(t)
	row, err := db.GetSheet(42)
	if err != nil || row != nil {
		t.Fatalf("row=%v err=%v", row, err)
	}
	if _, err := db.MustSheet(42); err == nil {
		t.Fatal("expected not found error")
	}
}

func TestRunsAndMetadata(t *testing.T) {
	db := openTestDB(t)
	id, err := db.InsertSheet("s", "h", sampleResult())
	if err != nil {
		t.Fatal(err)
	}
	if err := db.InsertRun("trace-1", id, map[string]float64{"totalMs": 3}, map[string]int{"present": 1}); err != nil {
		t.Fatal(err)
	}
	if n, err := db.CountRuns(id); err != nil || n != 1 {
		t.Fatalf("runs=%d err=%v", n, err)
	}

	if v, err := db.GetMetadata("roster_source"); err != nil || v != nil {
		t.Fatalf("unset key: %v %v", v, err)
	}
	if err := db.SetMetadata("roster_source", "a.csv"); err != nil {
		t.Fatal(err)
	}
	if err := db.SetMetadata("roster_source", "b.csv"); err != nil {
		t.Fatal(err)
	}
	v, err := db.GetMetadata("roster_source")
	if err != nil || v == nil || *v != "b.csv" {
		t.Fatalf("value=%v err=%v", v, err)
	}
}
