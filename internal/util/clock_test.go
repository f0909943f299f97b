package util

import "testing"

func TestParseClock(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{name: "colon", input: "13:02", want: "13:02", ok: true},
		{name: "single digit hour", input: "7:05", want: "07:05", ok: true},
		{name: "dot", input: "11.37", want: "11:37", ok: true},
		{name: "colon read as l", input: "11l37", want: "11:37", ok: true},
		{name: "colon read as I", input: "08I15", want: "08:15", ok: true},
		{name: "h separator", input: "17h09", want: "17:09", ok: true},
		{name: "no separator", input: "1133", want: "11:33", ok: true},
		{name: "three digits", input: "635", want: "06:35", ok: true},
		{name: "minutes out of range", input: "170", ok: false},
		{name: "hour out of range", input: "24:00", ok: false},
		{name: "too long", input: "17101", ok: false},
		{name: "word", input: "FALTA", ok: false},
		{name: "empty", input: "", ok: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseClock(tc.input)
			if ok != tc.ok {
				t.Fatalf("ok=%v want %v (got %q)", ok, tc.ok, got)
			}
			if got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}
