package remote

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

const questionColumns = "id, site_name, category, subcategory, question, answer, additional_info, approved, is_deleted, created_at, updated_at"

// ListAll fetches the full remote record set ordered by ascending
// modification time. Tombstoned records are excluded unless includeDeleted
// is set (publish needs them to avoid re-deleting).
func (c *Client) ListAll(ctx context.Context, includeDeleted bool) ([]Record, error) {
	sql := "SELECT " + questionColumns + " FROM questions"
	if !includeDeleted {
		sql += " WHERE is_deleted = false"
	}
	sql += " ORDER BY updated_at ASC"

	rows, err := c.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to list remote records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(
			&r.ID, &r.SiteName, &r.Category, &r.Subcategory, &r.Question,
			&r.Answer, &r.AdditionalInfo, &r.Approved, &r.IsDeleted,
			&r.CreatedAt, &r.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan remote record: %w", err)
		}
		records = append(records, r)
	}

	return records, rows.Err()
}

// Create inserts a new remote record and returns it with the
// server-assigned id and timestamps
func (c *Client) Create(ctx context.Context, f Fields) (*Record, error) {
	row := c.writer().QueryRow(ctx, `
		INSERT INTO questions (site_name, category, subcategory, question, answer, additional_info, approved, is_deleted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, false)
		RETURNING `+questionColumns,
		f.SiteName, f.Category, f.Subcategory, f.Question, f.Answer, f.AdditionalInfo, f.Approved,
	)

	r := &Record{}
	if err := row.Scan(
		&r.ID, &r.SiteName, &r.Category, &r.Subcategory, &r.Question,
		&r.Answer, &r.AdditionalInfo, &r.Approved, &r.IsDeleted,
		&r.CreatedAt, &r.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to create remote record: %w", err)
	}
	return r, nil
}

// Update overwrites the writable fields of a remote record and clears any
// tombstone. Returns the record as the server now holds it.
func (c *Client) Update(ctx context.Context, id uuid.UUID, f Fields) (*Record, error) {
	row := c.writer().QueryRow(ctx, `
		UPDATE questions
		SET site_name = $2, category = $3, subcategory = $4,
			question = $5, answer = $6, additional_info = $7,
			approved = $8, is_deleted = false
		WHERE id = $1
		RETURNING `+questionColumns,
		id, f.SiteName, f.Category, f.Subcategory, f.Question, f.Answer, f.AdditionalInfo, f.Approved,
	)

	r := &Record{}
	if err := row.Scan(
		&r.ID, &r.SiteName, &r.Category, &r.Subcategory, &r.Question,
		&r.Answer, &r.AdditionalInfo, &r.Approved, &r.IsDeleted,
		&r.CreatedAt, &r.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to update remote record %s: %w", id, err)
	}
	return r, nil
}

// SoftDelete tombstones a remote record. The row stays so the deletion can
// propagate; physical removal is a server-side maintenance concern.
func (c *Client) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := c.writer().Exec(ctx,
		"UPDATE questions SET is_deleted = true WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to soft-delete remote record %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("remote record %s not found", id)
	}
	return nil
}
