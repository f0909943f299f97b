package pipeline

import (
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"attendance/internal"
	"attendance/internal/config"
	"attendance/internal/lexicon"
)

// Framing describes the header and footer rows printed around the body of a
// sheet. They are skipped only when the sheet has more than MinLines lines.
type Framing struct {
	MinLines    int
	HeaderLines int
	FooterLines int
}

func (f Framing) Body(lines []string) []string {
	if len(lines) <= f.MinLines {
		return lines
	}
	start, end := f.HeaderLines, len(lines)-f.FooterLines
	if start < 0 {
		start = 0
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start >= end {
		return nil
	}
	return lines[start:end]
}

// Parser runs the per-line pipeline over a whole sheet.
type Parser struct {
	normalizer    *Normalizer
	stripper      *FieldStripper
	reconstructor *NameReconstructor
	classifier    *LineClassifier
	reconciler    Reconciler
	framing       Framing
	minTokens     int
	splitColumns  bool
	workers       int
	logger        *slog.Logger
}

func NewParser(cfg config.Config, lex lexicon.Lexicon, reconciler Reconciler, logger *slog.Logger) *Parser {
	if reconciler == nil {
		reconciler = disabledReconciler{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	workers := cfg.ParseWorkers
	if workers < 1 {
		workers = 1
	}
	return &Parser{
		normalizer:    NewNormalizer(lex),
		stripper:      NewFieldStripper(lex),
		reconstructor: NewNameReconstructor(lex),
		classifier:    NewLineClassifier(lex, PrecedenceFromConfig(cfg.ClassifyPrecedence)),
		reconciler:    reconciler,
		framing: Framing{
			MinLines:    cfg.FramingMinLines,
			HeaderLines: cfg.FramingHeaderLines,
			FooterLines: cfg.FramingFooterLines,
		},
		minTokens:    cfg.MinLineTokens,
		splitColumns: cfg.NameColumnSplit,
		workers:      workers,
		logger:       logger,
	}
}

// ParseSheet never fails: every body line either becomes a record or, when it
// has too few tokens to hold a name and data, is skipped.
func (p *Parser) ParseSheet(text string) internal.SheetResult {
	lines := splitLines(text)
	result := internal.SheetResult{TotalLines: len(lines), Records: []internal.AttendanceRecord{}}
	if len(lines) == 0 {
		return result
	}

	body := p.framing.Body(lines)
	offset := 0
	if len(body) != len(lines) {
		offset = p.framing.HeaderLines
	}

	slots := make([]*internal.AttendanceRecord, len(body))
	var g errgroup.Group
	g.SetLimit(p.workers)
	for i, line := range body {
		i, line := i, line
		g.Go(func() error {
			slots[i] = p.ParseLine(offset+i+1, line)
			return nil
		})
	}
	_ = g.Wait()

	for _, rec := range slots {
		if rec == nil {
			continue
		}
		switch rec.Status {
		case internal.StatusPresent:
			result.Present++
		case internal.StatusAbsent:
			result.Absent++
		default:
			result.Unknown++
		}
		result.Records = append(result.Records, *rec)
	}

	p.logger.Debug("sheet parsed",
		"total_lines", result.TotalLines,
		"records", len(result.Records),
		"present", result.Present,
		"absent", result.Absent,
		"unknown", result.Unknown,
	)
	return result
}

// ParseLine returns nil for a structurally invalid line.
func (p *Parser) ParseLine(lineNo int, raw string) *internal.AttendanceRecord {
	if len(strings.Fields(raw)) < p.minTokens {
		p.logger.Debug("line skipped", "line_no", lineNo, "reason", "too few tokens")
		return nil
	}

	cleaned := p.normalizer.Normalize(raw)
	name := p.isolateName(raw, cleaned)
	corrected := p.reconstructor.Reconstruct(name)
	class := p.classifier.Classify(raw)
	match := p.reconciler.Reconcile(corrected)

	rec := newRecord(lineNo, raw, cleaned, name, corrected, class, match)
	p.logger.Debug("line parsed",
		"line_no", lineNo,
		"name", rec.CorrectedName,
		"status", rec.Status,
		"canonical", rec.CanonicalName != nil,
	)
	return &rec
}

// isolateName takes the first table column that still holds a name after
// stripping; a line without column separators is handled as one column.
func (p *Parser) isolateName(raw, cleaned string) string {
	if p.splitColumns {
		cols := p.stripper.Columns(raw)
		if len(cols) > 1 {
			for _, col := range cols {
				if name := p.stripper.StripNonName(p.normalizer.Normalize(col)); name != "" {
					return name
				}
			}
			return ""
		}
	}
	return p.stripper.StripNonName(cleaned)
}

func newRecord(lineNo int, raw, cleaned, name, corrected string, class Classification, match internal.Reconciliation) internal.AttendanceRecord {
	return internal.AttendanceRecord{
		LineNo:        lineNo,
		OriginalLine:  raw,
		CleanedText:   cleaned,
		CleanedName:   name,
		CorrectedName: corrected,
		CanonicalName: match.Canonical,
		MatchScore:    match.Score,
		Status:        class.Status,
		Punches:       class.Punches,
		HasTime:       class.HasTime,
		HasAbsentMark: class.HasAbsentMark,
	}
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	parts := strings.Split(text, "\n")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
