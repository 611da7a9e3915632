package database

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// Migrate creates the schema on first run. Databases that already carry the
// tables (IF NOT EXISTS) are only stamped with the schema version.
func (db *DB) Migrate() error {
	log.Debug().Msg("Checking database schema")

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	var currentVersion int
	err = db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	log.Debug().Int("current_version", currentVersion).Msg("Current schema version")

	for _, m := range migrations {
		if m.Version <= currentVersion {
			continue
		}
		log.Info().Int("version", m.Version).Str("name", m.Name).Msg("Applying schema")

		if err := db.Transaction(func(tx *sql.Tx) error {
			statements := splitSQLStatements(m.SQL)
			for i, stmt := range statements {
				if _, err := tx.Exec(stmt); err != nil {
					return fmt.Errorf("schema %d statement %d failed: %w", m.Version, i+1, err)
				}
			}

			if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", m.Version); err != nil {
				return fmt.Errorf("failed to record schema %d: %w", m.Version, err)
			}

			return nil
		}); err != nil {
			return err
		}
	}

	return nil
}

type migration struct {
	Version int
	Name    string
	SQL     string
}

// splitSQLStatements splits a SQL string into individual statements.
// Comment lines are dropped and only non-empty statements are returned.
func splitSQLStatements(sql string) []string {
	var statements []string
	var current strings.Builder

	for line := range strings.SplitSeq(sql, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")

		if strings.HasSuffix(trimmed, ";") {
			stmt := strings.TrimSpace(current.String())
			if stmt != "" && stmt != ";" {
				statements = append(statements, stmt)
			}
			current.Reset()
		}
	}

	if remaining := strings.TrimSpace(current.String()); remaining != "" {
		statements = append(statements, remaining)
	}

	return statements
}

var migrations = []migration{
	{
		Version: 1,
		Name:    "initial_schema",
		SQL: `
			-- Courses offered by the administrator
			CREATE TABLE IF NOT EXISTS courses (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				title TEXT NOT NULL,
				description TEXT
			);

			-- Students are created on first enrollment, keyed by (name, email)
			CREATE TABLE IF NOT EXISTS students (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL,
				email TEXT
			);

			-- One row per (student_id, course_id); uniqueness is kept by Enroll
			CREATE TABLE IF NOT EXISTS enrollments (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				student_id INTEGER NOT NULL,
				course_id INTEGER NOT NULL,
				FOREIGN KEY(student_id) REFERENCES students(id),
				FOREIGN KEY(course_id) REFERENCES courses(id)
			);

			CREATE INDEX IF NOT EXISTS idx_enrollments_course ON enrollments(course_id);
		`,
	},
}
