package roster

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNewSkipsBlanksAndDuplicates(t *testing.T) {
	r := New([]string{"Aldenir Luiz", "  ", "ALDENIR  LUIZ", "André Vieira"})
	if r.Len() != 2 {
		t.Fatalf("len=%d names=%v", r.Len(), r.Names())
	}
	if r.Key(1) != "andre vieira" {
		t.Fatalf("key=%q", r.Key(1))
	}
	if name, ok := r.Lookup("andre VIEIRA"); !ok || name != "André Vieira" {
		t.Fatalf("lookup=%q %v", name, ok)
	}
}

func TestNilRosterIsEmpty(t *testing.T) {
	var r *Roster
	if r.Len() != 0 || r.Names() != nil {
		t.Fatal("nil roster should be empty")
	}
	if _, ok := r.Lookup("x"); ok {
		t.Fatal("nil roster lookup should miss")
	}
}

func TestLoadCSV(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    []string
	}{
		{name: "canonical column", content: "id,canonical_name\n1,Aldenir Luiz\n2,Adriano Dantas\n", want: []string{"Aldenir Luiz", "Adriano Dantas"}},
		{name: "first column fallback", content: "nome,funcao\nAndre Vieira,pintor\n\n", want: []string{"Andre Vieira"}},
		{name: "blank canonical falls back to first column", content: "nome,canonical_name\nJose Silva,\n", want: []string{"Jose Silva"}},
		{name: "header only", content: "canonical_name\n", want: nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := Load(writeFile(t, "roster.csv", tc.content))
			if err != nil {
				t.Fatal(err)
			}
			got := r.Names()
			if len(got) != len(tc.want) {
				t.Fatalf("got %v want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("got %v want %v", got, tc.want)
				}
			}
		})
	}
}

func TestLoadText(t *testing.T) {
	r, err := Load(writeFile(t, "roster.txt", "# crew A\nAldenir Luiz\r\n\nAdriano Dantas\n"))
	if err != nil {
		t.Fatal(err)
	}
	if r.Len() != 2 || r.Name(0) != "Aldenir Luiz" {
		t.Fatalf("names=%v", r.Names())
	}
}

func TestLoadXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{{"canonical_name"}, {"Aldenir Luiz"}, {"Andre Vieira"}}
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	path := filepath.Join(t.TempDir(), "roster.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}

	roster, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if roster.Len() != 2 || roster.Name(1) != "Andre Vieira" {
		t.Fatalf("names=%v", roster.Names())
	}
}

func TestLoadEmptyPathAndMissingFile(t *testing.T) {
	r, err := Load("")
	if err != nil || r.Len() != 0 {
		t.Fatalf("empty path: len=%d err=%v", r.Len(), err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
