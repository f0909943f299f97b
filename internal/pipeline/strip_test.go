package pipeline

import (
	"reflect"
	"testing"

	"attendance/internal/lexicon"
)

func TestStripNonName(t *testing.T) {
	s := NewFieldStripper(lexicon.Default())
	cases := []struct {
		in   string
		want string
	}{
		{"ADRIANO DANTAS iBOCA SERVENTE 11 37 17101", "ADRIANO DANTAS iBOCA"},
		{"JOSE DA SILVA FALTA", "JOSE SILVA"},
		{"PEDREIRO 07:05 17:00", ""},
		{"MARIA 7h05 12.00 SOUZA", "MARIA SOUZA"},
		{"X Y CARLOS 12345", "CARLOS"},
		{"ELETRICISTA pintor", ""},
		{"", ""},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			if got := s.StripNonName(c.in); got != c.want {
				t.Fatalf("StripNonName(%q)=%q want %q", c.in, got, c.want)
			}
		})
	}
}

func TestColumns(t *testing.T) {
	s := NewFieldStripper(lexicon.Default())
	got := s.Columns("ALDENIRLUIZ — — GAMBIARRA — [PEDREIRO | 635 1133 / 13:02/ 170")
	want := []string{"ALDENIRLUIZ", "GAMBIARRA", "PEDREIRO", "635 1133", "13:02", "170"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Columns=%q want %q", got, want)
	}
	if got := s.Columns("JOSE DA SILVA FALTA"); len(got) != 1 {
		t.Fatalf("line without separators should be one column, got %q", got)
	}
}
