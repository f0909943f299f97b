package roster

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"attendance/internal/fuzzy"
	"attendance/internal/util"
)

const canonicalColumn = "canonical_name"

// Roster is the immutable list of canonical names a run reconciles against.
type Roster struct {
	names []string
	keys  []string
	byKey map[string]int
}

func New(names []string) *Roster {
	r := &Roster{byKey: map[string]int{}}
	for _, n := range names {
		n = util.CollapseSpaces(n)
		if n == "" {
			continue
		}
		key := fuzzy.Process(n)
		if key == "" {
			continue
		}
		if _, dup := r.byKey[key]; dup {
			continue
		}
		r.byKey[key] = len(r.names)
		r.names = append(r.names, n)
		r.keys = append(r.keys, key)
	}
	return r
}

func (r *Roster) Len() int {
	if r == nil {
		return 0
	}
	return len(r.names)
}

func (r *Roster) Names() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.names...)
}

func (r *Roster) Name(i int) string { return r.names[i] }

// Key is the processed form of the i-th name, ready for scoring.
func (r *Roster) Key(i int) string { return r.keys[i] }

// Lookup finds a name whose processed form equals the processed query.
func (r *Roster) Lookup(name string) (string, bool) {
	if r == nil {
		return "", false
	}
	i, ok := r.byKey[fuzzy.Process(name)]
	if !ok {
		return "", false
	}
	return r.names[i], true
}

// Load reads canonical names from a .csv, .xlsx or plain text file.
func Load(path string) (*Roster, error) {
	if strings.TrimSpace(path) == "" {
		return New(nil), nil
	}
	var (
		names []string
		err   error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		names, err = loadCSV(path)
	case ".xlsx":
		names, err = loadXLSX(path)
	default:
		names, err = loadText(path)
	}
	if err != nil {
		return nil, fmt.Errorf("load roster %s: %w", path, err)
	}
	return New(names), nil
}

// loadCSV takes the canonical_name column when the header has one, otherwise
// the first column of every row after the header.
func loadCSV(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	col := 0
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")), canonicalColumn) {
			col = i
			break
		}
	}

	var out []string
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if col < len(row) {
			if v := strings.TrimSpace(row[col]); v != "" {
				out = append(out, v)
				continue
			}
		}
		if len(row) > 0 {
			if v := strings.TrimSpace(row[0]); v != "" {
				out = append(out, v)
			}
		}
	}
	return out, nil
}

func loadXLSX(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	col := 0
	start := 0
	if len(rows) > 0 {
		for i, h := range rows[0] {
			if strings.EqualFold(strings.TrimSpace(h), canonicalColumn) {
				col, start = i, 1
				break
			}
		}
	}
	var out []string
	for _, row := range rows[start:] {
		if col < len(row) {
			if v := strings.TrimSpace(row[col]); v != "" {
				out = append(out, v)
			}
		}
	}
	return out, nil
}

func loadText(path string) ([]string, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, line := range strings.Split(strings.ReplaceAll(string(blob), "\r\n", "\n"), "\n") {
		if v := strings.TrimSpace(line); v != "" && !strings.HasPrefix(v, "#") {
			out = append(out, v)
		}
	}
	return out, nil
}
