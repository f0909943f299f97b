package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	PrecedenceTimeFirst    = "time_first"
	PrecedenceAbsenceFirst = "absence_first"
)

type Config struct {
	DBPath      string
	OutputDir   string
	RosterPath  string
	LexiconPath string

	MatchThreshold float64
	MatchEnabled   bool

	// Header/footer lines are skipped only when a sheet has more than
	// FramingMinLines non-blank lines.
	FramingMinLines    int
	FramingHeaderLines int
	FramingFooterLines int

	MinLineTokens      int
	ClassifyPrecedence string
	NameColumnSplit    bool
	ParseWorkers       int

	// The listener polls InboxDir for sheets dropped by the OCR step.
	InboxDir            string
	ListenerIntervalSec int
	ListenerBatch       int
	ListenerAutoExport  bool

	LogLevel  string
	LogFormat string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:      getEnv("DB_PATH", filepath.Join(cwd, "data", "attendance.db")),
		OutputDir:   getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),
		RosterPath:  getEnv("ROSTER_PATH", ""),
		LexiconPath: getEnv("LEXICON_PATH", ""),

		MatchThreshold: getEnvFloat("MATCH_THRESHOLD", 85),
		MatchEnabled:   getEnvBool("MATCH_ENABLED", true),

		FramingMinLines:    getEnvInt("FRAMING_MIN_LINES", 4),
		FramingHeaderLines: getEnvInt("FRAMING_HEADER_LINES", 2),
		FramingFooterLines: getEnvInt("FRAMING_FOOTER_LINES", 1),

		MinLineTokens:      getEnvInt("MIN_LINE_TOKENS", 4),
		ClassifyPrecedence: strings.ToLower(getEnv("CLASSIFY_PRECEDENCE", PrecedenceTimeFirst)),
		NameColumnSplit:    getEnvBool("NAME_COLUMN_SPLIT", true),
		ParseWorkers:       getEnvInt("PARSE_WORKERS", 4),

		InboxDir:            getEnv("INBOX_DIR", filepath.Join(cwd, "inbox")),
		ListenerIntervalSec: getEnvInt("LISTENER_INTERVAL_SEC", 30),
		ListenerBatch:       getEnvInt("LISTENER_BATCH", 20),
		ListenerAutoExport:  getEnvBool("LISTENER_AUTO_EXPORT", true),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	return cfg, nil
}

// Validate rejects values the pipeline cannot run with. Data quality never
// fails a run; a bad configuration does.
func (c Config) Validate() error {
	if c.MatchThreshold < 0 || c.MatchThreshold > 100 {
		return fmt.Errorf("MATCH_THRESHOLD must be within [0,100], got %v", c.MatchThreshold)
	}
	if c.FramingMinLines < 0 || c.FramingHeaderLines < 0 || c.FramingFooterLines < 0 {
		return fmt.Errorf("framing values must be non-negative")
	}
	if c.MinLineTokens < 0 {
		return fmt.Errorf("MIN_LINE_TOKENS must be non-negative, got %d", c.MinLineTokens)
	}
	if c.ParseWorkers < 1 {
		return fmt.Errorf("PARSE_WORKERS must be at least 1, got %d", c.ParseWorkers)
	}
	switch c.ClassifyPrecedence {
	case PrecedenceTimeFirst, PrecedenceAbsenceFirst:
	default:
		return fmt.Errorf("unsupported CLASSIFY_PRECEDENCE: %s", c.ClassifyPrecedence)
	}
	return nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}
