package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"attendance/internal"
	"attendance/internal/fuzzy"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS roster (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  canonicalName TEXT NOT NULL,
  matchKey TEXT NOT NULL UNIQUE,
  importedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS sheets (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  source TEXT NOT NULL,
  hash TEXT NOT NULL UNIQUE,
  totalLines INTEGER NOT NULL,
  present INTEGER NOT NULL,
  absent INTEGER NOT NULL,
  unknown INTEGER NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS records (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  sheetId INTEGER NOT NULL,
  lineNo INTEGER NOT NULL,
  originalLine TEXT NOT NULL,
  cleanedText TEXT NOT NULL,
  cleanedName TEXT NOT NULL,
  correctedName TEXT NOT NULL,
  canonicalName TEXT,
  matchScore REAL,
  status TEXT NOT NULL,
  morningIn TEXT NOT NULL,
  morningOut TEXT NOT NULL,
  afternoonIn TEXT NOT NULL,
  afternoonOut TEXT NOT NULL,
  hasTime INTEGER NOT NULL,
  hasAbsentMark INTEGER NOT NULL,
  UNIQUE(sheetId, lineNo),
  FOREIGN KEY(sheetId) REFERENCES sheets(id)
);
CREATE INDEX IF NOT EXISTS idx_records_canonical ON records(canonicalName);

CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  sheetId INTEGER,
  timingsJson TEXT NOT NULL,
  countsJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(sheetId) REFERENCES sheets(id)
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

// ReplaceRoster swaps the stored roster for names. Entries that collapse to the
// same match key keep the first spelling.
func (d *DB) ReplaceRoster(names []string) (int, error) {
	tx, err := d.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM roster`); err != nil {
		return 0, err
	}

	stmt, err := tx.Prepare(`INSERT INTO roster (canonicalName, matchKey) VALUES (?, ?) ON CONFLICT(matchKey) DO NOTHING`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	stored := 0
	for _, name := range names {
		key := fuzzy.Process(name)
		if key == "" {
			continue
		}
		res, err := stmt.Exec(name, key)
		if err != nil {
			return 0, err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			stored++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return stored, nil
}

func (d *DB) ListRoster() ([]string, error) {
	rows, err := d.conn.Query(`SELECT canonicalName FROM roster ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// InsertSheet stores a parsed sheet with its records. A sheet with the same
// content hash is replaced in place and keeps its id.
func (d *DB) InsertSheet(source, hash string, res internal.SheetResult) (int64, error) {
	tx, err := d.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
INSERT INTO sheets (source, hash, totalLines, present, absent, unknown)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(hash) DO UPDATE SET
  source=excluded.source,
  totalLines=excluded.totalLines,
  present=excluded.present,
  absent=excluded.absent,
  unknown=excluded.unknown,
  updatedAt=CURRENT_TIMESTAMP
`, source, hash, res.TotalLines, res.Present, res.Absent, res.Unknown); err != nil {
		return 0, err
	}

	var sheetID int64
	if err := tx.QueryRow(`SELECT id FROM sheets WHERE hash = ?`, hash).Scan(&sheetID); err != nil {
		return 0, err
	}
	if _, err := tx.Exec(`DELETE FROM records WHERE sheetId = ?`, sheetID); err != nil {
		return 0, err
	}

	stmt, err := tx.Prepare(`
INSERT INTO records (
  sheetId, lineNo, originalLine, cleanedText, cleanedName, correctedName, canonicalName, matchScore,
  status, morningIn, morningOut, afternoonIn, afternoonOut, hasTime, hasAbsentMark
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, r := range res.Records {
		if _, err := stmt.Exec(
			sheetID, r.LineNo, r.OriginalLine, r.CleanedText, r.CleanedName, r.CorrectedName, r.CanonicalName, r.MatchScore,
			string(r.Status), r.Punches[0], r.Punches[1], r.Punches[2], r.Punches[3], r.HasTime, r.HasAbsentMark,
		); err != nil {
			return 0, fmt.Errorf("insert record line %d: %w", r.LineNo, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return sheetID, nil
}

const sheetColumns = `id, source, hash, totalLines, present, absent, unknown, createdAt`

func scanSheet(scan func(dest ...any) error) (internal.SheetRow, error) {
	var row internal.SheetRow
	err := scan(&row.ID, &row.Source, &row.Hash, &row.TotalLines, &row.Present, &row.Absent, &row.Unknown, &row.CreatedAt)
	return row, err
}

func (d *DB) GetSheet(id int64) (*internal.SheetRow, error) {
	row, err := scanSheet(d.conn.QueryRow(`SELECT `+sheetColumns+` FROM sheets WHERE id = ?`, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) MustSheet(id int64) (internal.SheetRow, error) {
	row, err := d.GetSheet(id)
	if err != nil {
		return internal.SheetRow{}, err
	}
	if row == nil {
		return internal.SheetRow{}, fmt.Errorf("sheet not found: id=%d", id)
	}
	return *row, nil
}

func (d *DB) ListSheets(limit int) ([]internal.SheetRow, error) {
	rows, err := d.conn.Query(`SELECT `+sheetColumns+` FROM sheets ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.SheetRow
	for rows.Next() {
		row, err := scanSheet(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) GetExportRows(sheetID int64) ([]internal.RecordExportRow, error) {
	rows, err := d.conn.Query(`
SELECT
  lineNo, originalLine, cleanedName, correctedName, canonicalName, matchScore, status,
  morningIn, morningOut, afternoonIn, afternoonOut, hasTime, hasAbsentMark
FROM records
WHERE sheetId = ?
ORDER BY lineNo ASC
`, sheetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.RecordExportRow
	for rows.Next() {
		var row internal.RecordExportRow
		if err := rows.Scan(
			&row.LineNo,
			&row.OriginalLine,
			&row.CleanedName,
			&row.CorrectedName,
			&row.CanonicalName,
			&row.MatchScore,
			&row.Status,
			&row.MorningIn,
			&row.MorningOut,
			&row.AfternoonIn,
			&row.AfternoonOut,
			&row.HasTime,
			&row.HasAbsentMark,
		); err != nil {
			return nil, err
		}
		out = append(out, row)
	}

	return out, rows.Err()
}

func (d *DB) InsertRun(traceID string, sheetID int64, timings map[string]float64, counts map[string]int) error {
	timingsJSON, _ := json.Marshal(timings)
	countsJSON, _ := json.Marshal(counts)
	_, err := d.conn.Exec(`INSERT INTO runs (traceId, sheetId, timingsJson, countsJson) VALUES (?, ?, ?, ?)`, traceID, sheetID, string(timingsJSON), string(countsJSON))
	return err
}

// CountRuns reports how many processing runs touched a sheet.
func (d *DB) CountRuns(sheetID int64) (int, error) {
	var n int
	err := d.conn.QueryRow(`SELECT COUNT(*) FROM runs WHERE sheetId = ?`, sheetID).Scan(&n)
	return n, err
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}
