package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	stderrors "novaport-mcp/internal/errors"
	"novaport-mcp/pkg/types"
)

const patternColumns = "id, timestamp, name, description, tags"

// InsertSystemPattern persists a new pattern. Duplicate names are a
// conflict.
func (s *Store) InsertSystemPattern(ctx context.Context, p types.LogSystemPatternParams) (*types.SystemPattern, error) {
	tags, err := encodeTags(p.Tags)
	if err != nil {
		return nil, stderrors.NewValidation("tags", "tags are not serializable", p.Tags)
	}
	ts := now()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO system_patterns (timestamp, name, description, tags) VALUES (?, ?, ?, ?)",
		ts, p.Name, nullable(p.Description), tags)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, stderrors.NewConflict("system_pattern", "system pattern name already exists: "+p.Name)
		}
		return nil, stderrors.NewDatabase("insert system pattern", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, stderrors.NewDatabase("read system pattern id", err)
	}
	return &types.SystemPattern{
		ID:          id,
		Timestamp:   ts,
		Name:        p.Name,
		Description: p.Description,
		Tags:        normalizeTags(p.Tags),
	}, nil
}

// GetSystemPattern fetches one pattern by ID.
func (s *Store) GetSystemPattern(ctx context.Context, id int64) (*types.SystemPattern, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+patternColumns+" FROM system_patterns WHERE id = ?", id)
	p, err := scanPattern(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, stderrors.NewNotFound("system_pattern", id)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListSystemPatterns returns patterns newest first. A non-positive
// limit returns everything.
func (s *Store) ListSystemPatterns(ctx context.Context, filter types.PatternFilter) ([]types.SystemPattern, error) {
	query := "SELECT " + patternColumns + " FROM system_patterns"
	var conds []string
	var args []interface{}
	for _, tag := range filter.TagsAll {
		conds = append(conds, "tags LIKE ?")
		args = append(args, tagPattern(tag))
	}
	if len(filter.TagsAny) > 0 {
		var ors []string
		for _, tag := range filter.TagsAny {
			ors = append(ors, "tags LIKE ?")
			args = append(args, tagPattern(tag))
		}
		conds = append(conds, "("+joinOr(ors)+")")
	}
	if len(conds) > 0 {
		query += " WHERE " + joinAnd(conds)
	}
	query += " ORDER BY timestamp DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, stderrors.NewDatabase("query system patterns", err)
	}
	defer func() { _ = rows.Close() }()

	out := []types.SystemPattern{}
	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, stderrors.NewDatabase("iterate system patterns", err)
	}
	return out, nil
}

// DeleteSystemPattern removes a pattern by ID.
func (s *Store) DeleteSystemPattern(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM system_patterns WHERE id = ?", id)
	if err != nil {
		return stderrors.NewDatabase("delete system pattern", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return stderrors.NewDatabase("delete system pattern", err)
	}
	if n == 0 {
		return stderrors.NewNotFound("system_pattern", id)
	}
	return nil
}

func scanPattern(row rowScanner) (*types.SystemPattern, error) {
	var p types.SystemPattern
	var description sql.NullString
	var tags string
	if err := row.Scan(&p.ID, &p.Timestamp, &p.Name, &description, &tags); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, stderrors.NewDatabase("scan system pattern", err)
	}
	p.Description = description.String
	p.Tags = decodeTags(tags)
	return &p, nil
}

// isUniqueViolation detects SQLite unique-constraint failures without
// depending on driver error types.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
