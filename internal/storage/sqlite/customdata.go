package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	stderrors "novaport-mcp/internal/errors"
	"novaport-mcp/pkg/types"
)

const customDataColumns = "id, timestamp, category, key, value"

// UpsertCustomData writes a value under (category, key), replacing any
// existing row. The returned row carries the surviving ID.
func (s *Store) UpsertCustomData(ctx context.Context, p types.LogCustomDataParams) (*types.CustomData, error) {
	raw, err := json.Marshal(p.Value)
	if err != nil {
		// Channels, funcs and cycles do not encode; keep the row by
		// storing the stringified form instead.
		raw, err = json.Marshal(fmt.Sprint(p.Value))
		if err != nil {
			return nil, stderrors.NewDatabase("encode custom data value", err)
		}
	}
	ts := now()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO custom_data (timestamp, category, key, value) VALUES (?, ?, ?, ?)
		ON CONFLICT (category, key) DO UPDATE SET timestamp = excluded.timestamp, value = excluded.value`,
		ts, p.Category, p.Key, string(raw))
	if err != nil {
		return nil, stderrors.NewDatabase("upsert custom data", err)
	}
	return s.GetCustomData(ctx, p.Category, p.Key)
}

// GetCustomData fetches one row by its natural key.
func (s *Store) GetCustomData(ctx context.Context, category, key string) (*types.CustomData, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+customDataColumns+" FROM custom_data WHERE category = ? AND key = ?", category, key)
	d, err := scanCustomData(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, stderrors.NewNotFound("custom_data", fmt.Sprintf("%s/%s", category, key))
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// ListCustomData returns rows, optionally restricted to one category,
// ordered by category then key.
func (s *Store) ListCustomData(ctx context.Context, category string) ([]types.CustomData, error) {
	query := "SELECT " + customDataColumns + " FROM custom_data"
	var args []interface{}
	if category != "" {
		query += " WHERE category = ?"
		args = append(args, category)
	}
	query += " ORDER BY category, key"
	return s.queryCustomData(ctx, query, args...)
}

// DeleteCustomData removes a row by its natural key and returns the
// deleted row's ID for embedding cleanup.
func (s *Store) DeleteCustomData(ctx context.Context, category, key string) (int64, error) {
	existing, err := s.GetCustomData(ctx, category, key)
	if err != nil {
		return 0, err
	}
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM custom_data WHERE category = ? AND key = ?", category, key); err != nil {
		return 0, stderrors.NewDatabase("delete custom data", err)
	}
	return existing.ID, nil
}

// SearchCustomDataFTS runs full-text search over category, key and the
// stringified value, optionally pinned to one category, falling back to
// LIKE matching when FTS is unavailable.
func (s *Store) SearchCustomDataFTS(ctx context.Context, term, category string, limit int) ([]types.CustomData, error) {
	if limit <= 0 {
		limit = 10
	}

	query := "SELECT c.id, c.timestamp, c.category, c.key, c.value " +
		"FROM custom_data c JOIN custom_data_fts f ON f.rowid = c.id " +
		"WHERE custom_data_fts MATCH ?"
	args := []interface{}{ftsQuote(term)}
	if category != "" {
		query += " AND c.category = ?"
		args = append(args, category)
	}
	query += " ORDER BY f.rank LIMIT ?"
	args = append(args, limit)

	out, err := s.queryCustomData(ctx, query, args...)
	if err == nil {
		return out, nil
	}

	pattern := likePattern(term)
	fallback := "SELECT " + customDataColumns + " FROM custom_data " +
		"WHERE (category LIKE ? ESCAPE '\\' OR key LIKE ? ESCAPE '\\' OR value LIKE ? ESCAPE '\\')"
	fbArgs := []interface{}{pattern, pattern, pattern}
	if category != "" {
		fallback += " AND category = ?"
		fbArgs = append(fbArgs, category)
	}
	fallback += " ORDER BY timestamp DESC, id DESC LIMIT ?"
	fbArgs = append(fbArgs, limit)
	return s.queryCustomData(ctx, fallback, fbArgs...)
}

func (s *Store) queryCustomData(ctx context.Context, query string, args ...interface{}) ([]types.CustomData, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, stderrors.NewDatabase("query custom data", err)
	}
	defer func() { _ = rows.Close() }()

	out := []types.CustomData{}
	for rows.Next() {
		d, err := scanCustomData(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, stderrors.NewDatabase("iterate custom data", err)
	}
	return out, nil
}

func scanCustomData(row rowScanner) (*types.CustomData, error) {
	var d types.CustomData
	var raw string
	if err := row.Scan(&d.ID, &d.Timestamp, &d.Category, &d.Key, &raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, stderrors.NewDatabase("scan custom data", err)
	}
	if err := json.Unmarshal([]byte(raw), &d.Value); err != nil {
		return nil, stderrors.NewDatabase("decode custom data value", err)
	}
	return &d, nil
}
