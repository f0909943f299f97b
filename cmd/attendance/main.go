package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"attendance/internal/config"
	"attendance/internal/lexicon"
	"attendance/internal/listener"
	"attendance/internal/pipeline"
	"attendance/internal/roster"
	"attendance/internal/storage"
)

var (
	cfg     config.Config
	lex     lexicon.Lexicon
	verbose bool
)

func main() {
	must(newRootCmd().Execute())
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "attendance",
		Short:         "Parse OCR'd attendance sheets into per-person records",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if cfg, err = config.Load(); err != nil {
				return err
			}
			if verbose {
				cfg.LogLevel = "debug"
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			slog.SetDefault(newLogger(cfg))
			if lex, err = lexicon.Load(cfg.LexiconPath); err != nil {
				return err
			}
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		rosterImportCmd(),
		sheetProcessCmd(),
		sheetsListCmd(),
		sheetListenCmd(),
		exportXLSXCmd(),
		reportSummaryCmd(),
		runCmd(),
		marksCmd(),
		lexiconDumpCmd(),
	)
	return root
}

func newLogger(cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if strings.EqualFold(cfg.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func openDB() *storage.DB {
	db, err := storage.Open(cfg.DBPath)
	must(err)
	return db
}

func rosterImportCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "roster:import",
		Short: "Replace the stored roster with names from a CSV, XLSX or text file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				file = cfg.RosterPath
			}
			if err := cfg.Require("ROSTER_PATH or --file", file); err != nil {
				return err
			}
			db := openDB()
			defer db.Close()
			n, err := pipeline.NewProcessingService(db, cfg, lex, slog.Default()).ImportRoster(file)
			if err != nil {
				return err
			}
			fmt.Printf("roster imported: %d names from %s\n", n, file)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "roster file (defaults to ROSTER_PATH)")
	return cmd
}

func sheetProcessCmd() *cobra.Command {
	var input, inType, source string
	var showRecords bool
	cmd := &cobra.Command{
		Use:   "sheet:process",
		Short: "Extract, parse and store one sheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			if input == "" {
				return fmt.Errorf("--input is required")
			}
			if inType == "" {
				inType = pipeline.InputTypeFromPath(input)
			}
			db := openDB()
			defer db.Close()
			res, err := pipeline.NewProcessingService(db, cfg, lex, slog.Default()).ProcessInput(inType, input, source)
			if err != nil {
				return err
			}
			fmt.Printf("processed sheet id=%d records=%d trace=%s\n", res.SheetID, len(res.Result.Records), res.TraceID)
			pipeline.RenderSummary(os.Stdout, res.Result)
			if showRecords {
				pipeline.RenderRecords(os.Stdout, res.Result.Records)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "file path, or raw text with --type=text")
	cmd.Flags().StringVar(&inType, "type", "", "text|file|pdf|hocr|eml|xlsx (guessed from the extension when empty)")
	cmd.Flags().StringVar(&source, "source", "", "label stored with the sheet")
	cmd.Flags().BoolVar(&showRecords, "records", false, "print every record")
	return cmd
}

func sheetsListCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "sheets:list",
		Short: "List stored sheets, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			db := openDB()
			defer db.Close()
			sheets, err := db.ListSheets(limit)
			if err != nil {
				return err
			}
			for _, s := range sheets {
				fmt.Printf("%d\t%s\t%s\tpresent=%d absent=%d unknown=%d lines=%d\n",
					s.ID, s.CreatedAt, s.Source, s.Present, s.Absent, s.Unknown, s.TotalLines)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "max sheets")
	return cmd
}

func sheetListenCmd() *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:   "sheet:listen",
		Short: "Poll INBOX_DIR and process every sheet dropped there",
		RunE: func(cmd *cobra.Command, args []string) error {
			db := openDB()
			defer db.Close()
			s := listener.NewService(db, cfg, lex, slog.Default())

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if once {
				res, err := s.RunCycle(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("listener cycle seen=%d processed=%d failed=%d exported=%d\n", res.Seen, res.Processed, res.Failed, res.Exported)
				return nil
			}
			slog.Info("listening", "inbox", cfg.InboxDir, "interval_sec", cfg.ListenerIntervalSec)
			return s.Run(ctx)
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "run a single cycle and exit")
	return cmd
}

func exportXLSXCmd() *cobra.Command {
	var sheetID int64
	var out string
	cmd := &cobra.Command{
		Use:   "export:xlsx",
		Short: "Export the records of a stored sheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			if sheetID == 0 || strings.TrimSpace(out) == "" {
				return fmt.Errorf("--sheetId and --out are required")
			}
			db := openDB()
			defer db.Close()
			rows, err := db.GetExportRows(sheetID)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				return fmt.Errorf("no export rows for sheetId=%d", sheetID)
			}
			if err := pipeline.ExportRowsToXLSX(rows, out); err != nil {
				return err
			}
			fmt.Printf("exported %d rows to %s\n", len(rows), out)
			return nil
		},
	}
	cmd.Flags().Int64Var(&sheetID, "sheetId", 0, "stored sheet id")
	cmd.Flags().StringVar(&out, "out", "", "output xlsx path")
	return cmd
}

func reportSummaryCmd() *cobra.Command {
	var sheetID int64
	var out string
	cmd := &cobra.Command{
		Use:   "report:summary",
		Short: "Write the present/absent summary CSV of a stored sheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			if sheetID == 0 {
				return fmt.Errorf("--sheetId is required")
			}
			db := openDB()
			defer db.Close()
			sheet, err := db.MustSheet(sheetID)
			if err != nil {
				return err
			}
			if out == "" {
				out = filepath.Join(cfg.OutputDir, pipeline.SummaryFileName(time.Now()))
			}
			if err := pipeline.WriteSummaryCSV(sheet.Summary(), out); err != nil {
				return err
			}
			pipeline.RenderSummary(os.Stdout, sheet.Summary())
			fmt.Printf("summary saved to %s\n", out)
			return nil
		},
	}
	cmd.Flags().Int64Var(&sheetID, "sheetId", 0, "stored sheet id")
	cmd.Flags().StringVar(&out, "out", "", "output csv path (defaults to OUTPUT_DIR/attendance_summary_<timestamp>.csv)")
	return cmd
}

func runCmd() *cobra.Command {
	var input, inType, output, rosterPath, summary string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "One-off parse of a sheet to xlsx without the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			if input == "" || output == "" {
				return fmt.Errorf("--input and --output are required")
			}
			if inType == "" {
				inType = pipeline.InputTypeFromPath(input)
			}
			text, err := pipeline.ExtractTextFromInput(inType, input)
			if err != nil {
				return err
			}
			if rosterPath == "" {
				rosterPath = cfg.RosterPath
			}
			r, err := roster.Load(rosterPath)
			if err != nil {
				return err
			}
			reconciler, err := pipeline.NewReconciler(cfg, r)
			if err != nil {
				return err
			}

			res := pipeline.NewParser(cfg, lex, reconciler, slog.Default()).ParseSheet(text)
			if err := pipeline.ExportResultToXLSX(res, output); err != nil {
				return err
			}
			if summary != "" {
				if err := pipeline.WriteSummaryCSV(res, summary); err != nil {
					return err
				}
			}
			pipeline.RenderSummary(os.Stdout, res)
			fmt.Printf("run done records=%d output=%s\n", len(res.Records), output)
			return nil
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "file path, or raw text with --type=text")
	cmd.Flags().StringVar(&inType, "type", "", "text|file|pdf|hocr|eml|xlsx")
	cmd.Flags().StringVar(&output, "output", "", "output xlsx path")
	cmd.Flags().StringVar(&rosterPath, "roster", "", "roster file (defaults to ROSTER_PATH)")
	cmd.Flags().StringVar(&summary, "summary", "", "also write a summary csv")
	return cmd
}

func marksCmd() *cobra.Command {
	var input, inType string
	cmd := &cobra.Command{
		Use:   "marks",
		Short: "Count presence and absence marks on a tick-mark sheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			if input == "" {
				return fmt.Errorf("--input is required")
			}
			if inType == "" {
				inType = pipeline.InputTypeFromPath(input)
			}
			text, err := pipeline.ExtractTextFromInput(inType, input)
			if err != nil {
				return err
			}
			tally := pipeline.CountMarks(text, lex)
			blob, _ := json.MarshalIndent(tally, "", "  ")
			fmt.Println(string(blob))
			return nil
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "file path, or raw text with --type=text")
	cmd.Flags().StringVar(&inType, "type", "", "text|file|pdf|hocr|eml|xlsx")
	return cmd
}

func lexiconDumpCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "lexicon:dump",
		Short: "Print the active lexicon as YAML, e.g. to start an override file",
		RunE: func(cmd *cobra.Command, args []string) error {
			blob, err := lex.Marshal()
			if err != nil {
				return err
			}
			if out == "" {
				_, err = os.Stdout.Write(blob)
				return err
			}
			return os.WriteFile(out, blob, 0o644)
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "output yaml path")
	return cmd
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
