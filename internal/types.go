package internal

type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusUnknown Status = "unknown"
)

const (
	UnknownName   = "Unknown"
	AbsenceMarker = "F"
	PunchSlots    = 4
)

// Punches holds morning-in, morning-out, afternoon-in and afternoon-out.
// An empty slot is "".
type Punches [PunchSlots]string

func (p Punches) Filled() int {
	n := 0
	for _, v := range p {
		if v != "" {
			n++
		}
	}
	return n
}

type Reconciliation struct {
	Canonical *string  `json:"canonical"`
	Score     *float64 `json:"score"`
}

func (r Reconciliation) Accepted() bool {
	return r.Canonical != nil
}

type AttendanceRecord struct {
	LineNo        int      `json:"lineNo"`
	OriginalLine  string   `json:"originalLine"`
	CleanedText   string   `json:"cleanedText"`
	CleanedName   string   `json:"cleanedName"`
	CorrectedName string   `json:"correctedName"`
	CanonicalName *string  `json:"canonicalName"`
	MatchScore    *float64 `json:"matchScore"`
	Status        Status   `json:"status"`
	Punches       Punches  `json:"punches"`
	HasTime       bool     `json:"hasTime"`
	HasAbsentMark bool     `json:"hasAbsentMark"`
}

type SheetResult struct {
	Present    int                `json:"present"`
	Absent     int                `json:"absent"`
	Unknown    int                `json:"unknown"`
	TotalLines int                `json:"totalLines"`
	Records    []AttendanceRecord `json:"records"`
}

func (s SheetResult) Processed() int {
	return len(s.Records)
}

type SheetRow struct {
	ID         int64
	Source     string
	Hash       string
	TotalLines int
	Present    int
	Absent     int
	Unknown    int
	CreatedAt  string
}

// Summary carries the stored counts of a sheet; Records stays empty.
func (s SheetRow) Summary() SheetResult {
	return SheetResult{
		Present:    s.Present,
		Absent:     s.Absent,
		Unknown:    s.Unknown,
		TotalLines: s.TotalLines,
		Records:    []AttendanceRecord{},
	}
}

type RecordExportRow struct {
	LineNo        int
	OriginalLine  string
	CleanedName   string
	CorrectedName string
	CanonicalName *string
	MatchScore    *float64
	Status        string
	MorningIn     string
	MorningOut    string
	AfternoonIn   string
	AfternoonOut  string
	HasTime       bool
	HasAbsentMark bool
}

func ExportRowFromRecord(r AttendanceRecord) RecordExportRow {
	return RecordExportRow{
		LineNo:        r.LineNo,
		OriginalLine:  r.OriginalLine,
		CleanedName:   r.CleanedName,
		CorrectedName: r.CorrectedName,
		CanonicalName: r.CanonicalName,
		MatchScore:    r.MatchScore,
		Status:        string(r.Status),
		MorningIn:     r.Punches[0],
		MorningOut:    r.Punches[1],
		AfternoonIn:   r.Punches[2],
		AfternoonOut:  r.Punches[3],
		HasTime:       r.HasTime,
		HasAbsentMark: r.HasAbsentMark,
	}
}
