package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Import run statuses
const (
	ImportSuccess = "success"
	ImportAborted = "aborted"
	ImportFailed  = "failed"
)

// ImportRecord is one row of import_log
type ImportRecord struct {
	ID                    int64
	FilePath              string
	FileHash              string
	Strategy              string
	ImportedAt            time.Time
	ConversationsImported int
	ItemsImported         int
	EdgesImported         int
	Skipped               int
	Status                string
	ErrorMessage          string
}

// RecordImport appends a run to the import log
func (db *DB) RecordImport(ctx context.Context, rec ImportRecord) error {
	var errMsg sql.NullString
	if rec.ErrorMessage != "" {
		errMsg = sql.NullString{String: rec.ErrorMessage, Valid: true}
	}

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO import_log (
			file_path, file_hash, strategy, conversations_imported,
			items_imported, edges_imported, skipped, status, error_message
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.FilePath,
		rec.FileHash,
		rec.Strategy,
		rec.ConversationsImported,
		rec.ItemsImported,
		rec.EdgesImported,
		rec.Skipped,
		rec.Status,
		errMsg,
	)
	if err != nil {
		return fmt.Errorf("failed to record import: %w", err)
	}
	return nil
}

// RecentImports returns the latest runs, newest first
func (db *DB) RecentImports(ctx context.Context, limit int) ([]ImportRecord, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, file_path, file_hash, strategy, imported_at,
			conversations_imported, items_imported, edges_imported, skipped,
			status, error_message
		FROM import_log
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query import log: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var records []ImportRecord
	for rows.Next() {
		var rec ImportRecord
		var importedAt sql.NullString
		var errMsg sql.NullString
		if err := rows.Scan(
			&rec.ID, &rec.FilePath, &rec.FileHash, &rec.Strategy, &importedAt,
			&rec.ConversationsImported, &rec.ItemsImported, &rec.EdgesImported, &rec.Skipped,
			&rec.Status, &errMsg,
		); err != nil {
			return nil, fmt.Errorf("failed to scan import log: %w", err)
		}
		if importedAt.Valid {
			rec.ImportedAt = parseDBTime(importedAt.String)
		}
		rec.ErrorMessage = errMsg.String
		records = append(records, rec)
	}

	return records, rows.Err()
}

// parseDBTime handles both the driver's time formatting and SQLite's
// CURRENT_TIMESTAMP text.
func parseDBTime(s string) time.Time {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05.999999999 -0700 MST",
		"2006-01-02 15:04:05",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
