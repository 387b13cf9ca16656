package sqlite

import (
	"context"
	"database/sql"
	"errors"

	stderrors "novaport-mcp/internal/errors"
	"novaport-mcp/pkg/types"
)

const progressColumns = "id, timestamp, status, description, parent_id"

// InsertProgress persists a new progress entry. A non-nil parent must
// exist.
func (s *Store) InsertProgress(ctx context.Context, p types.LogProgressParams) (*types.ProgressEntry, error) {
	if p.ParentID != nil {
		if _, err := s.GetProgress(ctx, *p.ParentID); err != nil {
			return nil, err
		}
	}
	ts := now()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO progress_entries (timestamp, status, description, parent_id) VALUES (?, ?, ?, ?)",
		ts, p.Status, p.Description, p.ParentID)
	if err != nil {
		return nil, stderrors.NewDatabase("insert progress entry", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, stderrors.NewDatabase("read progress id", err)
	}
	return &types.ProgressEntry{
		ID:          id,
		Timestamp:   ts,
		Status:      p.Status,
		Description: p.Description,
		ParentID:    p.ParentID,
	}, nil
}

// UpdateProgress applies the non-nil fields of p to an existing entry
// and returns the updated row.
func (s *Store) UpdateProgress(ctx context.Context, p types.UpdateProgressParams) (*types.ProgressEntry, error) {
	entry, err := s.GetProgress(ctx, p.ProgressID)
	if err != nil {
		return nil, err
	}
	if p.Status != nil {
		entry.Status = *p.Status
	}
	if p.Description != nil {
		entry.Description = *p.Description
	}
	if p.ParentID != nil {
		if *p.ParentID == p.ProgressID {
			return nil, stderrors.NewValidation("parent_id", "an entry cannot be its own parent", *p.ParentID)
		}
		if _, err := s.GetProgress(ctx, *p.ParentID); err != nil {
			return nil, err
		}
		entry.ParentID = p.ParentID
	}

	_, err = s.db.ExecContext(ctx,
		"UPDATE progress_entries SET status = ?, description = ?, parent_id = ? WHERE id = ?",
		entry.Status, entry.Description, entry.ParentID, entry.ID)
	if err != nil {
		return nil, stderrors.NewDatabase("update progress entry", err)
	}
	entry.Children = nil
	return entry, nil
}

// GetProgress fetches one entry by ID, without children.
func (s *Store) GetProgress(ctx context.Context, id int64) (*types.ProgressEntry, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+progressColumns+" FROM progress_entries WHERE id = ?", id)
	e, err := scanProgress(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, stderrors.NewNotFound("progress_entry", id)
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// ListProgress returns entries newest first with children attached one
// level deep. The default limit is 50.
func (s *Store) ListProgress(ctx context.Context, filter types.ProgressFilter) ([]types.ProgressEntry, error) {
	query := "SELECT " + progressColumns + " FROM progress_entries"
	var conds []string
	var args []interface{}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.ParentID != nil {
		conds = append(conds, "parent_id = ?")
		args = append(args, *filter.ParentID)
	}
	if filter.Since != nil {
		conds = append(conds, "timestamp >= ?")
		args = append(args, filter.Since.UTC())
	}
	if len(conds) > 0 {
		query += " WHERE " + joinAnd(conds)
	}
	query += " ORDER BY timestamp DESC, id DESC LIMIT ?"
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)

	entries, err := s.queryProgress(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		children, err := s.queryProgress(ctx,
			"SELECT "+progressColumns+" FROM progress_entries WHERE parent_id = ? ORDER BY timestamp DESC, id DESC",
			entries[i].ID)
		if err != nil {
			return nil, err
		}
		if len(children) > 0 {
			entries[i].Children = children
		}
	}
	return entries, nil
}

// DeleteProgress removes an entry. Children cascade-delete; the
// returned slice holds the IDs of every removed row (the entry itself
// plus its descendants) so callers can clean up embeddings.
func (s *Store) DeleteProgress(ctx context.Context, id int64) ([]int64, error) {
	removed := []int64{}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			WITH RECURSIVE subtree(id) AS (
				SELECT id FROM progress_entries WHERE id = ?
				UNION ALL
				SELECT p.id FROM progress_entries p JOIN subtree s ON p.parent_id = s.id
			)
			SELECT id FROM subtree`, id)
		if err != nil {
			return err
		}
		defer func() { _ = rows.Close() }()
		for rows.Next() {
			var rid int64
			if err := rows.Scan(&rid); err != nil {
				return err
			}
			removed = append(removed, rid)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		if len(removed) == 0 {
			return sql.ErrNoRows
		}

		_, err = tx.ExecContext(ctx, "DELETE FROM progress_entries WHERE id = ?", id)
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, stderrors.NewNotFound("progress_entry", id)
	}
	if err != nil {
		return nil, stderrors.NewDatabase("delete progress entry", err)
	}
	return removed, nil
}

func (s *Store) queryProgress(ctx context.Context, query string, args ...interface{}) ([]types.ProgressEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, stderrors.NewDatabase("query progress entries", err)
	}
	defer func() { _ = rows.Close() }()

	out := []types.ProgressEntry{}
	for rows.Next() {
		e, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, stderrors.NewDatabase("iterate progress entries", err)
	}
	return out, nil
}

func scanProgress(row rowScanner) (*types.ProgressEntry, error) {
	var e types.ProgressEntry
	var parent sql.NullInt64
	if err := row.Scan(&e.ID, &e.Timestamp, &e.Status, &e.Description, &parent); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, stderrors.NewDatabase("scan progress entry", err)
	}
	if parent.Valid {
		e.ParentID = &parent.Int64
	}
	return &e, nil
}
