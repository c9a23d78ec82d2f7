package store

import (
	"context"
	"database/sql"
	"fmt"
)

const recordColumns = "id, remote_id, site_name, category, subcategory, question, answer, additional_info, approved"

// ListAll returns every record in local-id order
func (s *Store) ListAll(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+recordColumns+" FROM records ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// GetByLocalID returns a single record, or nil if absent
func (s *Store) GetByLocalID(ctx context.Context, localID int64) (*Record, error) {
	rec, err := s.scanOne(s.db.QueryRowContext(ctx,
		"SELECT "+recordColumns+" FROM records WHERE id = ?", localID))
	if err != nil {
		return nil, fmt.Errorf("failed to get record %d: %w", localID, err)
	}
	return rec, nil
}

// GetByRemoteID returns the record linked to remoteID, or nil if absent
func (s *Store) GetByRemoteID(ctx context.Context, remoteID string) (*Record, error) {
	rec, err := s.scanOne(s.db.QueryRowContext(ctx,
		"SELECT "+recordColumns+" FROM records WHERE remote_id = ?", remoteID))
	if err != nil {
		return nil, fmt.Errorf("failed to get record by remote id %s: %w", remoteID, err)
	}
	return rec, nil
}

// Insert creates a new record and returns its local id
func (s *Store) Insert(ctx context.Context, f Fields) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO records (remote_id, site_name, category, subcategory, question, answer, additional_info, approved)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, f.RemoteID, f.SiteName, f.Category, f.Subcategory, f.Question, f.Answer, f.AdditionalInfo, boolInt(f.Approved))
	if err != nil {
		return 0, fmt.Errorf("failed to insert record: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted id: %w", err)
	}
	return id, nil
}

// UpdateByLocalID overwrites the writable fields of a record. The remote
// link is only touched when f.RemoteID is set. Returns the number of rows
// changed (0 when the record does not exist).
func (s *Store) UpdateByLocalID(ctx context.Context, localID int64, f Fields) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE records
		SET remote_id = COALESCE(?, remote_id),
			site_name = ?, category = ?, subcategory = ?,
			question = ?, answer = ?, additional_info = ?, approved = ?
		WHERE id = ?
	`, f.RemoteID, f.SiteName, f.Category, f.Subcategory, f.Question, f.Answer, f.AdditionalInfo, boolInt(f.Approved), localID)
	if err != nil {
		return 0, fmt.Errorf("failed to update record %d: %w", localID, err)
	}
	return res.RowsAffected()
}

// AttachRemoteID links a local record to its remote counterpart
func (s *Store) AttachRemoteID(ctx context.Context, localID int64, remoteID string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE records SET remote_id = ? WHERE id = ?", remoteID, localID)
	if err != nil {
		return 0, fmt.Errorf("failed to attach remote id to record %d: %w", localID, err)
	}
	return res.RowsAffected()
}

// SetApproval flips the workflow flag on a record
func (s *Store) SetApproval(ctx context.Context, localID int64, approved bool) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE records SET approved = ? WHERE id = ?", boolInt(approved), localID)
	if err != nil {
		return 0, fmt.Errorf("failed to set approval on record %d: %w", localID, err)
	}
	return res.RowsAffected()
}

// DeleteByLocalID physically removes a record. Local deletes are physical;
// tombstoning only exists remote-side.
func (s *Store) DeleteByLocalID(ctx context.Context, localID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM records WHERE id = ?", localID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete record %d: %w", localID, err)
	}
	return res.RowsAffected()
}

// Count returns the total number of records and how many are still unlinked
func (s *Store) Count(ctx context.Context) (total, unlinked int, err error) {
	err = s.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COUNT(*) FILTER (WHERE remote_id IS NULL) FROM records",
	).Scan(&total, &unlinked)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count records: %w", err)
	}
	return total, unlinked, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanOne(row *sql.Row) (*Record, error) {
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func scanRecord(sc rowScanner) (*Record, error) {
	rec := &Record{}
	var remoteID sql.NullString
	var approved int
	if err := sc.Scan(
		&rec.LocalID, &remoteID, &rec.SiteName, &rec.Category, &rec.Subcategory,
		&rec.Question, &rec.Answer, &rec.AdditionalInfo, &approved,
	); err != nil {
		return nil, err
	}
	if remoteID.Valid {
		rec.RemoteID = &remoteID.String
	}
	rec.Approved = approved != 0
	return rec, nil
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
