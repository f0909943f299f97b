package pipeline

import (
	"path/filepath"
	"strings"
	"testing"

	"attendance/internal/lexicon"
	"attendance/internal/storage"
)

const smokeSheet = `CONSTRUTORA EXEMPLO FOLHA DE PONTO JANEIRO
NOME FUNCAO ENTRADA SAIDA ENTRADA SAIDA
ADRIANO DANTAS íBOCA SERVENTE 11:37 17101
ALDENIRLUIZ — — GAMBIARRA — [PEDREIRO | 635 1133 / 13:02/ 170
JOSE DA SILVA FALTA
ASSINATURA DO ENCARREGADO ________`

func TestSmokeSheetToXLSX(t *testing.T) {
	tmp := t.TempDir()
	db, err := storage.Open(filepath.Join(tmp, "app.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	rosterPath := writeInput(t, "roster.csv", []byte("canonical_name\nAdriano Dantas\nAldenir Luiz\nJosé da Silva\n"))

	proc := NewProcessingService(db, testConfig(), lexicon.Default(), quietLogger())
	if n, err := proc.ImportRoster(rosterPath); err != nil || n != 3 {
		t.Fatalf("import: n=%d err=%v", n, err)
	}

	res, err := proc.ProcessInput(InputText, smokeSheet, "")
	if err != nil {
		t.Fatal(err)
	}
	if res.Result.TotalLines != 6 || len(res.Result.Records) != 3 {
		t.Fatalf("total=%d records=%d", res.Result.TotalLines, len(res.Result.Records))
	}
	if res.Result.Present != 2 || res.Result.Absent != 1 {
		t.Fatalf("present=%d absent=%d", res.Result.Present, res.Result.Absent)
	}

	rows, err := db.GetExportRows(res.SheetID)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("export rows=%d", len(rows))
	}
	if rows[1].CanonicalName == nil || *rows[1].CanonicalName != "Aldenir Luiz" {
		t.Fatalf("row 2 not reconciled: %+v", rows[1])
	}
	if rows[1].MorningIn != "06:35" || rows[1].AfternoonIn != "13:02" {
		t.Fatalf("punches: %+v", rows[1])
	}

	out := filepath.Join(tmp, "out", "sheet.xlsx")
	if err := ExportRowsToXLSX(rows, out); err != nil {
		t.Fatal(err)
	}
	sheet, err := db.MustSheet(res.SheetID)
	if err != nil {
		t.Fatal(err)
	}
	if err := WriteSummaryCSV(sheet.Summary(), filepath.Join(tmp, "out", "summary.csv")); err != nil {
		t.Fatal(err)
	}

	again, err := proc.ProcessText("rerun", smokeSheet)
	if err != nil {
		t.Fatal(err)
	}
	if again.SheetID != res.SheetID || again.TraceID == res.TraceID {
		t.Fatalf("reprocessing should reuse the sheet with a new trace: %+v vs %+v", again, res)
	}
	if n, err := db.CountRuns(res.SheetID); err != nil || n != 2 {
		t.Fatalf("runs=%d err=%v", n, err)
	}
	sheets, err := db.ListSheets(10)
	if err != nil || len(sheets) != 1 {
		t.Fatalf("sheets=%d err=%v", len(sheets), err)
	}
}

func TestProcessTextWithoutRoster(t *testing.T) {
	db, err := storage.Open(filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	proc := NewProcessingService(db, testConfig(), lexicon.Default(), quietLogger())
	res, err := proc.ProcessText("inline", strings.Join([]string{"MARIA SOUZA PINTOR 07:10", "JOSE DA SILVA FALTA"}, "\n"))
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range res.Result.Records {
		if r.CanonicalName != nil || r.MatchScore != nil {
			t.Fatalf("no roster means no reconciliation: %+v", r)
		}
	}
}
