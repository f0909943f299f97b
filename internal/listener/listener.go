package listener

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"attendance/internal/config"
	"attendance/internal/lexicon"
	"attendance/internal/pipeline"
	"attendance/internal/storage"
)

const (
	processedDir = "processed"
	failedDir    = "failed"
)

// Service polls an inbox directory for sheets the OCR step drops there.
// Each file is processed once, then moved to processed/ or failed/.
type Service struct {
	db     *storage.DB
	cfg    config.Config
	proc   *pipeline.ProcessingService
	logger *slog.Logger
}

func NewService(db *storage.DB, cfg config.Config, lex lexicon.Lexicon, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "listener")
	return &Service{
		db:     db,
		cfg:    cfg,
		proc:   pipeline.NewProcessingService(db, cfg, lex, logger),
		logger: logger,
	}
}

type CycleResult struct {
	Seen      int
	Processed int
	Failed    int
	Exported  int
}

func (s *Service) Run(ctx context.Context) error {
	interval := time.Duration(s.cfg.ListenerIntervalSec) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}
	for {
		if _, err := s.RunCycle(ctx); err != nil {
			s.logger.Error("listener cycle failed", "err", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
}

func (s *Service) RunCycle(ctx context.Context) (CycleResult, error) {
	var res CycleResult
	files, err := s.pending()
	if err != nil {
		return res, err
	}
	res.Seen = len(files)

	for _, path := range files {
		if ctx.Err() != nil {
			break
		}
		name := filepath.Base(path)
		out, err := s.proc.ProcessInput(pipeline.InputTypeFromPath(path), path, name)
		if err != nil {
			res.Failed++
			s.logger.Warn("sheet failed", "file", name, "err", err)
			if err := s.move(path, failedDir); err != nil {
				return res, err
			}
			continue
		}
		res.Processed++

		if s.cfg.ListenerAutoExport && len(out.Result.Records) > 0 {
			if err := s.export(out.SheetID, name); err != nil {
				return res, err
			}
			res.Exported++
		}
		if err := s.move(path, processedDir); err != nil {
			return res, err
		}
	}

	if res.Seen > 0 {
		s.logger.Info("listener cycle done", "seen", res.Seen, "processed", res.Processed, "failed", res.Failed, "exported", res.Exported)
	}
	return res, nil
}

// pending lists regular files directly in the inbox, oldest name first.
func (s *Service) pending() ([]string, error) {
	if err := os.MkdirAll(s.cfg.InboxDir, 0o755); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.cfg.InboxDir)
	if err != nil {
		return nil, err
	}
	out := []string{}
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		out = append(out, filepath.Join(s.cfg.InboxDir, e.Name()))
	}
	sort.Strings(out)
	limit := s.cfg.ListenerBatch
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Service) export(sheetID int64, name string) error {
	rows, err := s.db.GetExportRows(sheetID)
	if err != nil {
		return err
	}
	filename := fmt.Sprintf("%d_%s.xlsx", sheetID, sanitizeName(strings.TrimSuffix(name, filepath.Ext(name))))
	return pipeline.ExportRowsToXLSX(rows, filepath.Join(s.cfg.OutputDir, "listener", filename))
}

func (s *Service) move(path, sub string) error {
	dir := filepath.Join(s.cfg.InboxDir, sub)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.Rename(path, filepath.Join(dir, filepath.Base(path)))
}

func sanitizeName(input string) string {
	repl := strings.NewReplacer("<", "_", ">", "_", ":", "_", "/", "_", "\\", "_", "|", "_", "?", "_", "*", "_", " ", "_")
	out := repl.Replace(input)
	if len(out) > 120 {
		out = out[:120]
	}
	return out
}
