package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"attendance/internal"
	"attendance/internal/config"
	"attendance/internal/lexicon"
	"attendance/internal/roster"
	"attendance/internal/storage"
)

type ProcessingService struct {
	db     *storage.DB
	cfg    config.Config
	lex    lexicon.Lexicon
	logger *slog.Logger
}

func NewProcessingService(db *storage.DB, cfg config.Config, lex lexicon.Lexicon, logger *slog.Logger) *ProcessingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessingService{db: db, cfg: cfg, lex: lex, logger: logger}
}

type ProcessResult struct {
	SheetID int64
	TraceID string
	Result  internal.SheetResult
}

// ImportRoster replaces the stored roster with the names in path.
func (s *ProcessingService) ImportRoster(path string) (int, error) {
	r, err := roster.Load(path)
	if err != nil {
		return 0, err
	}
	n, err := s.db.ReplaceRoster(r.Names())
	if err != nil {
		return 0, err
	}
	_ = s.db.SetMetadata("roster_source", path)
	_ = s.db.SetMetadata("roster_imported_at", time.Now().UTC().Format(time.RFC3339))
	s.logger.Info("roster imported", "path", path, "names", n)
	return n, nil
}

// ProcessText parses one sheet against the stored roster and persists it.
// Identical text replaces the sheet stored earlier.
func (s *ProcessingService) ProcessText(source, text string) (ProcessResult, error) {
	start := time.Now()
	traceID := uuid.New().String()
	logger := s.logger.With("trace_id", traceID, "source", source)

	names, err := s.db.ListRoster()
	if err != nil {
		return ProcessResult{}, err
	}
	reconciler, err := NewReconciler(s.cfg, roster.New(names))
	if err != nil {
		return ProcessResult{}, err
	}
	parser := NewParser(s.cfg, s.lex, reconciler, logger)

	parseStart := time.Now()
	res := parser.ParseSheet(text)
	parseMs := float64(time.Since(parseStart).Milliseconds())

	sheetID, err := s.db.InsertSheet(source, contentHash(text), res)
	if err != nil {
		return ProcessResult{}, fmt.Errorf("store sheet: %w", err)
	}

	reconciled := 0
	for _, r := range res.Records {
		if r.CanonicalName != nil {
			reconciled++
		}
	}
	_ = s.db.InsertRun(traceID, sheetID,
		map[string]float64{"parseMs": parseMs, "totalMs": float64(time.Since(start).Milliseconds())},
		map[string]int{
			"totalLines": res.TotalLines,
			"records":    len(res.Records),
			"present":    res.Present,
			"absent":     res.Absent,
			"unknown":    res.Unknown,
			"reconciled": reconciled,
		},
	)

	logger.Info("sheet processed",
		"sheet_id", sheetID,
		"records", len(res.Records),
		"present", res.Present,
		"absent", res.Absent,
		"unknown", res.Unknown,
		"reconciled", reconciled,
		"matcher", reconciler.Enabled(),
	)
	return ProcessResult{SheetID: sheetID, TraceID: traceID, Result: res}, nil
}

// ProcessInput extracts the raw text of an input and processes it.
func (s *ProcessingService) ProcessInput(inputType, input, source string) (ProcessResult, error) {
	text, err := ExtractTextFromInput(inputType, input)
	if err != nil {
		return ProcessResult{}, err
	}
	if source == "" {
		source = input
		if inputType == InputText {
			source = "inline"
		}
	}
	return s.ProcessText(source, text)
}

func contentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
