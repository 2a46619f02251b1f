// Package archive persists a run's records into a local SQLite file,
// as an additional export target alongside the JSON and CSV reports.
package archive

import (
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/Girlweb/ai-data-annotation-tool/internal/annotation"
	"github.com/Girlweb/ai-data-annotation-tool/internal/quality"
	"github.com/Girlweb/ai-data-annotation-tool/internal/session"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Archive wraps a SQLite database holding exported annotation records.
type Archive struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite file at path and runs pending
// migrations. Pass ":memory:" for an in-memory database (used by tests).
func Open(path string) (*Archive, error) {
	dsn := path
	if dsn != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating archive directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging archive: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	a := &Archive{db: db}
	if err := a.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return a, nil
}

// Close closes the underlying database connection.
func (a *Archive) Close() error {
	return a.db.Close()
}

// migrate reads embedded SQL migration files and applies any that
// haven't been run yet.
func (a *Archive) migrate() error {
	if _, err := a.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		var exists int
		if err := a.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := a.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}

		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// AppliedMigrations returns the applied migration versions in ascending order.
func (a *Archive) AppliedMigrations() ([]int, error) {
	rows, err := a.db.Query("SELECT version FROM schema_version ORDER BY version ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// Save writes every record of the store into the archive inside one
// transaction. Saving an empty store succeeds and writes nothing.
func (a *Archive) Save(s *session.Store) error {
	tx, err := a.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	for _, ann := range s.Annotations() {
		if _, err := tx.Exec(`
			INSERT INTO annotations (image_id, category, confidence, notes, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			ann.ID, ann.Category, ann.Confidence, ann.Notes, formatTime(ann.CreatedAt),
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("saving annotation %s: %w", ann.ID, err)
		}
	}

	for _, res := range s.QualityResults() {
		checks, err := json.Marshal(res.Checks)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("encoding checks for %s: %w", res.RID, err)
		}
		if _, err := tx.Exec(`
			INSERT INTO quality_checks (rid, image_id, checks, score, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			res.RID.String(), res.Entry.ID, string(checks), res.Score, formatTime(res.CreatedAt),
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("saving quality check %s: %w", res.RID, err)
		}
	}

	for _, c := range s.Comparisons() {
		if _, err := tx.Exec(`
			INSERT INTO comparisons (rid, item_a, item_b, criterion, winner, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			c.RID.String(), c.ItemA, c.ItemB, c.Criterion, string(c.Winner), formatTime(c.CreatedAt),
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("saving comparison %s: %w", c.RID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	return nil
}

// Counts reports how many records of each kind the archive holds.
type Counts struct {
	Annotations   int
	QualityChecks int
	Comparisons   int
}

// Count tallies the archived records.
func (a *Archive) Count() (Counts, error) {
	var c Counts
	tables := []struct {
		name string
		dst  *int
	}{
		{"annotations", &c.Annotations},
		{"quality_checks", &c.QualityChecks},
		{"comparisons", &c.Comparisons},
	}
	for _, t := range tables {
		if err := a.db.QueryRow("SELECT COUNT(*) FROM " + t.name).Scan(t.dst); err != nil {
			return Counts{}, fmt.Errorf("counting %s: %w", t.name, err)
		}
	}
	return c, nil
}

// Annotations loads the archived annotations in insertion order.
func (a *Archive) Annotations() ([]annotation.Annotation, error) {
	rows, err := a.db.Query(`
		SELECT image_id, category, confidence, notes, created_at
		FROM annotations ORDER BY seq ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []annotation.Annotation
	for rows.Next() {
		var ann annotation.Annotation
		var createdAt string
		if err := rows.Scan(&ann.ID, &ann.Category, &ann.Confidence, &ann.Notes, &createdAt); err != nil {
			return nil, err
		}
		ann.CreatedAt, err = parseTime(createdAt)
		if err != nil {
			return nil, err
		}
		out = append(out, ann)
	}
	return out, rows.Err()
}

// Comparisons loads the archived comparisons in insertion order.
func (a *Archive) Comparisons() ([]annotation.Comparison, error) {
	rows, err := a.db.Query(`
		SELECT rid, item_a, item_b, criterion, winner, created_at
		FROM comparisons ORDER BY created_at ASC, rid ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []annotation.Comparison
	for rows.Next() {
		var c annotation.Comparison
		var rid, winner, createdAt string
		if err := rows.Scan(&rid, &c.ItemA, &c.ItemB, &c.Criterion, &winner, &createdAt); err != nil {
			return nil, err
		}
		c.RID, err = uuid.Parse(rid)
		if err != nil {
			return nil, fmt.Errorf("parsing rid: %w", err)
		}
		c.Winner = annotation.Winner(winner)
		c.CreatedAt, err = parseTime(createdAt)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// QualityChecks loads the archived quality results in insertion order.
func (a *Archive) QualityChecks() ([]quality.Result, error) {
	rows, err := a.db.Query(`
		SELECT rid, image_id, checks, score, created_at
		FROM quality_checks ORDER BY created_at ASC, rid ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []quality.Result
	for rows.Next() {
		var res quality.Result
		var rid, checks, createdAt string
		if err := rows.Scan(&rid, &res.Entry.ID, &checks, &res.Score, &createdAt); err != nil {
			return nil, err
		}
		res.RID, err = uuid.Parse(rid)
		if err != nil {
			return nil, fmt.Errorf("parsing rid: %w", err)
		}
		if err := json.Unmarshal([]byte(checks), &res.Checks); err != nil {
			return nil, fmt.Errorf("decoding checks: %w", err)
		}
		res.CreatedAt, err = parseTime(createdAt)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing created_at: %w", err)
	}
	return t, nil
}
