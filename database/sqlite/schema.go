package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sagarc03/depot"
)

func quoteIdentifier(name string) string {
	return `"` + name + `"`
}

// artifactColumn is one column of the artifact table. The same list renders
// the CREATE TABLE statement and drives Validate, so the two cannot drift.
type artifactColumn struct {
	name string
	kind string // declared type as PRAGMA table_info reports it
	key  bool
}

var artifactColumns = []artifactColumn{
	{name: "id", kind: "TEXT", key: true},
	{name: "project", kind: "TEXT"},
	{name: "version", kind: "TEXT"},
	{name: "file_name", kind: "TEXT"},
	{name: "content_type", kind: "TEXT"},
	{name: "sha256", kind: "TEXT"},
	{name: "size_bytes", kind: "INTEGER"},
	{name: "created_at", kind: "TEXT"}, // RFC 3339, nanosecond precision
	{name: "updated_at", kind: "TEXT"},
}

func artifactTableDDL(table string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", quoteIdentifier(table))
	for _, col := range artifactColumns {
		fmt.Fprintf(&b, "\t%s %s NOT NULL", col.name, col.kind)
		if col.key {
			b.WriteString(" PRIMARY KEY")
		}
		b.WriteString(",\n")
	}
	b.WriteString("\tUNIQUE (project, version)\n)")
	return b.String()
}

// Migrate creates the artifact table and its per-project listing index. It is
// idempotent.
func Migrate(ctx context.Context, db *sql.DB, tables depot.Tables) error {
	table := tables.Artifacts
	if _, err := db.ExecContext(ctx, artifactTableDDL(table)); err != nil {
		return fmt.Errorf("migrate %s: create table: %w", table, err)
	}

	index := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (project, created_at)",
		quoteIdentifier("idx_"+table+"_project"), quoteIdentifier(table))
	if _, err := db.ExecContext(ctx, index); err != nil {
		return fmt.Errorf("migrate %s: create index: %w", table, err)
	}
	return nil
}

// DropTables removes the artifact table.
func DropTables(ctx context.Context, db *sql.DB, tables depot.Tables) error {
	if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdentifier(tables.Artifacts)); err != nil {
		return fmt.Errorf("drop %s: %w", tables.Artifacts, err)
	}
	return nil
}

// ValidateSchema checks that the artifact table exists and that every column
// the catalog reads is present, NOT NULL and of the declared type.
func ValidateSchema(ctx context.Context, db *sql.DB, tables depot.Tables) error {
	table := tables.Artifacts
	if !depot.IsValidTableName(table) {
		return fmt.Errorf("validate schema: invalid table name: %s", table)
	}

	var name string
	err := db.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("validate schema: artifact table %s does not exist", table)
	}
	if err != nil {
		return fmt.Errorf("validate schema: %w", err)
	}

	rows, err := db.QueryContext(ctx, `SELECT name, type, "notnull" FROM pragma_table_info(?)`, table)
	if err != nil {
		return fmt.Errorf("validate schema: read columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	type declared struct {
		kind    string
		notNull bool
	}
	found := make(map[string]declared)
	for rows.Next() {
		var col, kind string
		var notNull int
		if err := rows.Scan(&col, &kind, &notNull); err != nil {
			return fmt.Errorf("validate schema: scan column: %w", err)
		}
		found[col] = declared{kind: strings.ToUpper(kind), notNull: notNull == 1}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("validate schema: read columns: %w", err)
	}

	var problems []string
	for _, col := range artifactColumns {
		got, ok := found[col.name]
		switch {
		case !ok:
			problems = append(problems, "missing column "+col.name)
		case got.kind != col.kind:
			problems = append(problems, fmt.Sprintf("column %s is %s, want %s", col.name, got.kind, col.kind))
		case !got.notNull:
			problems = append(problems, fmt.Sprintf("column %s is nullable", col.name))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("validate schema: artifact table %s: %s", table, strings.Join(problems, "; "))
	}
	return nil
}
