package store

import (
	"context"
	"fmt"
	"strings"
)

// Search runs a full-text query over every record field. An empty query
// returns all records (optionally filtered to approved ones), matching the
// behavior of the management views this backs.
func (s *Store) Search(ctx context.Context, query string, approvedOnly bool, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 100
	}

	if strings.TrimSpace(query) == "" {
		sql := "SELECT " + recordColumns + " FROM records"
		if approvedOnly {
			sql += " WHERE approved = 1"
		}
		sql += " ORDER BY id LIMIT ?"
		rows, err := s.db.QueryContext(ctx, sql, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to list records: %w", err)
		}
		defer rows.Close()
		return scanRecords(rows)
	}

	ftsQuery := sanitizeFTS(query)

	sql := `
		SELECT r.id, r.remote_id, r.site_name, r.category, r.subcategory,
			r.question, r.answer, r.additional_info, r.approved
		FROM records_fts fts
		JOIN records r ON r.id = fts.rowid
		WHERE records_fts MATCH ?
	`
	args := []any{ftsQuery}

	if approvedOnly {
		sql += " AND r.approved = 1"
	}

	sql += " ORDER BY fts.rank LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// SearchApproved is Search restricted to approved records
func (s *Store) SearchApproved(ctx context.Context, query string, limit int) ([]Record, error) {
	return s.Search(ctx, query, true, limit)
}

// RebuildFTS rebuilds the full-text index from the records table. Useful
// after bulk imports where triggers were bypassed.
func (s *Store) RebuildFTS(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO records_fts(records_fts) VALUES ('rebuild')"); err != nil {
		return fmt.Errorf("failed to rebuild full-text index: %w", err)
	}
	return nil
}

// sanitizeFTS wraps each term in quotes so user input cannot break the
// FTS5 query syntax
func sanitizeFTS(query string) string {
	words := strings.Fields(query)
	for i, w := range words {
		w = strings.Trim(w, `"`)
		words[i] = `"` + w + `"`
	}
	return strings.Join(words, " ")
}
