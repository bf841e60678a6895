package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/depot"
)

// artifactColumn is one column of the artifact table. The same list renders
// the CREATE TABLE statement and drives ValidateSchema.
type artifactColumn struct {
	name     string
	ddl      string // type and default as written in CREATE TABLE
	dataType string // information_schema.columns.data_type
}

// id and the timestamps default server-side; Upsert never writes them.
var artifactColumns = []artifactColumn{
	{"id", "UUID PRIMARY KEY DEFAULT gen_random_uuid()", "uuid"},
	{"project", "TEXT NOT NULL", "text"},
	{"version", "TEXT NOT NULL", "text"},
	{"file_name", "TEXT NOT NULL", "text"},
	{"content_type", "TEXT NOT NULL", "text"},
	{"sha256", "TEXT NOT NULL", "text"},
	{"size_bytes", "BIGINT NOT NULL", "bigint"},
	{"created_at", "TIMESTAMPTZ NOT NULL DEFAULT NOW()", "timestamp with time zone"},
	{"updated_at", "TIMESTAMPTZ NOT NULL DEFAULT NOW()", "timestamp with time zone"},
}

func artifactTableDDL(table string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", pgx.Identifier{table}.Sanitize())
	for _, col := range artifactColumns {
		fmt.Fprintf(&b, "\t%s %s,\n", col.name, col.ddl)
	}
	fmt.Fprintf(&b, "\tCONSTRAINT %s UNIQUE (project, version)\n);\n",
		pgx.Identifier{"uq_" + table + "_project_version"}.Sanitize())
	fmt.Fprintf(&b, "CREATE INDEX IF NOT EXISTS %s ON %s (project, created_at);",
		pgx.Identifier{"idx_" + table + "_project"}.Sanitize(), pgx.Identifier{table}.Sanitize())
	return b.String()
}

// Migrate creates the artifact table and its per-project listing index. It is
// idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool, tables depot.Tables) error {
	if _, err := pool.Exec(ctx, artifactTableDDL(tables.Artifacts)); err != nil {
		return fmt.Errorf("migrate %s: %w", tables.Artifacts, err)
	}
	return nil
}

// DropTables removes the artifact table.
func DropTables(ctx context.Context, pool *pgxpool.Pool, tables depot.Tables) error {
	sql := "DROP TABLE IF EXISTS " + pgx.Identifier{tables.Artifacts}.Sanitize()
	if _, err := pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("drop %s: %w", tables.Artifacts, err)
	}
	return nil
}

// ValidateSchema checks that the artifact table exists in the public schema
// and that every column the catalog reads is present, NOT NULL and of the
// expected type.
func ValidateSchema(ctx context.Context, pool *pgxpool.Pool, tables depot.Tables) error {
	table := tables.Artifacts
	if !depot.IsValidTableName(table) {
		return fmt.Errorf("validate schema: invalid table name: %s", table)
	}

	rows, err := pool.Query(ctx, `
		SELECT column_name, data_type, is_nullable = 'YES'
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1`, table)
	if err != nil {
		return fmt.Errorf("validate schema: read columns: %w", err)
	}
	defer rows.Close()

	type declared struct {
		dataType string
		nullable bool
	}
	found := make(map[string]declared)
	for rows.Next() {
		var name, dataType string
		var nullable bool
		if err := rows.Scan(&name, &dataType, &nullable); err != nil {
			return fmt.Errorf("validate schema: scan column: %w", err)
		}
		found[name] = declared{dataType: dataType, nullable: nullable}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("validate schema: read columns: %w", err)
	}

	// A table with no visible columns does not exist for this role.
	if len(found) == 0 {
		return fmt.Errorf("validate schema: artifact table %s does not exist", table)
	}

	var problems []string
	for _, col := range artifactColumns {
		got, ok := found[col.name]
		switch {
		case !ok:
			problems = append(problems, "missing column "+col.name)
		case got.dataType != col.dataType:
			problems = append(problems, fmt.Sprintf("column %s is %s, want %s", col.name, got.dataType, col.dataType))
		case got.nullable:
			problems = append(problems, fmt.Sprintf("column %s is nullable", col.name))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("validate schema: artifact table %s: %s", table, strings.Join(problems, "; "))
	}
	return nil
}
