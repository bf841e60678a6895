package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sagarc03/depot"
)

type catalog struct {
	db        *sql.DB
	tableName string
}

func (c *catalog) Get(ctx context.Context, project, version string) (depot.Artifact, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT id, project, version, file_name, content_type, sha256, size_bytes, created_at, updated_at
		FROM %s
		WHERE project = ? AND version = ?`, quoteIdentifier(c.tableName))

	var a depot.Artifact
	var idStr, createdAt, updatedAt string

	err := c.db.QueryRowContext(ctx, query, project, version).Scan(
		&idStr, &a.Project, &a.Version, &a.FileName, &a.ContentType, &a.SHA256, &a.SizeBytes, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return depot.Artifact{}, depot.ErrNotFound
		}
		return depot.Artifact{}, fmt.Errorf("get: %w", err)
	}

	a.ID, err = uuid.Parse(idStr)
	if err != nil {
		return depot.Artifact{}, fmt.Errorf("get: parse uuid: %w", err)
	}

	a.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return depot.Artifact{}, fmt.Errorf("get: parse created_at: %w", err)
	}

	a.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return depot.Artifact{}, fmt.Errorf("get: parse updated_at: %w", err)
	}

	return a, nil
}

func (c *catalog) Upsert(ctx context.Context, entry depot.ArtifactEntry) (depot.Artifact, bool, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return depot.Artifact{}, false, fmt.Errorf("upsert: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	table := quoteIdentifier(c.tableName)

	var existingID, existingCreatedAt string
	checkQuery := fmt.Sprintf(`SELECT id, created_at FROM %s WHERE project = ? AND version = ?`, table) //nolint:gosec // table name is validated
	err = tx.QueryRowContext(ctx, checkQuery, entry.Project, entry.Version).Scan(&existingID, &existingCreatedAt)
	isInsert := errors.Is(err, sql.ErrNoRows)
	if err != nil && !isInsert {
		return depot.Artifact{}, false, fmt.Errorf("upsert: check existing: %w", err)
	}

	now := time.Now().UTC()
	nowStr := now.Format(time.RFC3339Nano)

	a := depot.Artifact{
		Project:     entry.Project,
		Version:     entry.Version,
		FileName:    entry.FileName,
		ContentType: entry.ContentType,
		SHA256:      entry.SHA256,
		SizeBytes:   entry.SizeBytes,
		UpdatedAt:   now,
	}

	if isInsert {
		a.ID = uuid.New()
		a.CreatedAt = now

		insertQuery := fmt.Sprintf( //nolint:gosec // G201: table name is validated
			`INSERT INTO %s (id, project, version, file_name, content_type, sha256, size_bytes, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, table)

		_, err = tx.ExecContext(ctx, insertQuery,
			a.ID.String(), entry.Project, entry.Version, entry.FileName, entry.ContentType, entry.SHA256, entry.SizeBytes, nowStr, nowStr,
		)
		if err != nil {
			return depot.Artifact{}, false, fmt.Errorf("upsert: insert: %w", err)
		}
	} else {
		if a.ID, err = uuid.Parse(existingID); err != nil {
			return depot.Artifact{}, false, fmt.Errorf("upsert: parse uuid: %w", err)
		}
		if a.CreatedAt, err = time.Parse(time.RFC3339Nano, existingCreatedAt); err != nil {
			return depot.Artifact{}, false, fmt.Errorf("upsert: parse created_at: %w", err)
		}

		updateQuery := fmt.Sprintf( //nolint:gosec // G201: table name is validated
			`UPDATE %s
			SET file_name = ?, content_type = ?, sha256 = ?, size_bytes = ?, updated_at = ?
			WHERE id = ?`, table)

		_, err = tx.ExecContext(ctx, updateQuery,
			entry.FileName, entry.ContentType, entry.SHA256, entry.SizeBytes, nowStr, existingID,
		)
		if err != nil {
			return depot.Artifact{}, false, fmt.Errorf("upsert: update: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return depot.Artifact{}, false, fmt.Errorf("upsert: commit: %w", err)
	}

	return a, isInsert, nil
}
