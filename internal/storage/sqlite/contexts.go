package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	stderrors "novaport-mcp/internal/errors"
	"novaport-mcp/pkg/types"
)

// ContextKind selects one of the two singleton contexts.
type ContextKind string

const (
	ContextProduct ContextKind = "product"
	ContextActive  ContextKind = "active"
)

func (k ContextKind) table() string {
	if k == ContextActive {
		return "active_context"
	}
	return "product_context"
}

func (k ContextKind) historyTable() string {
	if k == ContextActive {
		return "active_context_history"
	}
	return "product_context_history"
}

// ChangeSource is the label recorded with history rows produced by
// updates to this context.
func (k ContextKind) ChangeSource() string {
	if k == ContextActive {
		return "ActiveContext Update"
	}
	return "ProductContext Update"
}

// GetContext returns the singleton content, creating the empty row on
// first read.
func (s *Store) GetContext(ctx context.Context, kind ContextKind) (types.ContextContent, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT content FROM %s WHERE id = 1", kind.table())).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		_, err = s.db.ExecContext(ctx,
			fmt.Sprintf("INSERT OR IGNORE INTO %s (id, content) VALUES (1, '{}')", kind.table()))
		if err != nil {
			return nil, stderrors.NewDatabase("initialize context row", err)
		}
		return types.ContextContent{}, nil
	}
	if err != nil {
		return nil, stderrors.NewDatabase("read context", err)
	}

	var content types.ContextContent
	if err := json.Unmarshal([]byte(raw), &content); err != nil {
		return nil, stderrors.NewDatabase("decode context content", err)
	}
	if content == nil {
		content = types.ContextContent{}
	}
	return content, nil
}

// UpdateContext replaces the singleton content. When the new content
// differs from the old by deep equality, the prior value is appended to
// the history table with version = max+1 inside the same transaction.
// Returns whether anything changed.
func (s *Store) UpdateContext(ctx context.Context, kind ContextKind, content types.ContextContent) (bool, error) {
	if content == nil {
		content = types.ContextContent{}
	}
	newRaw, err := json.Marshal(content)
	if err != nil {
		return false, stderrors.NewValidation("content", "content is not JSON-serializable", nil)
	}

	changed := false
	txErr := s.withTx(ctx, func(tx *sql.Tx) error {
		var oldRaw string
		err := tx.QueryRowContext(ctx,
			fmt.Sprintf("SELECT content FROM %s WHERE id = 1", kind.table())).Scan(&oldRaw)
		if errors.Is(err, sql.ErrNoRows) {
			oldRaw = "{}"
			if _, err := tx.ExecContext(ctx,
				fmt.Sprintf("INSERT INTO %s (id, content) VALUES (1, '{}')", kind.table())); err != nil {
				return fmt.Errorf("initialize context row: %w", err)
			}
		} else if err != nil {
			return fmt.Errorf("read context: %w", err)
		}

		if contentEqual(oldRaw, newRaw) {
			return nil
		}
		changed = true

		var maxVersion sql.NullInt64
		if err := tx.QueryRowContext(ctx,
			fmt.Sprintf("SELECT MAX(version) FROM %s", kind.historyTable())).Scan(&maxVersion); err != nil {
			return fmt.Errorf("read history version: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf("INSERT INTO %s (timestamp, version, content, change_source) VALUES (?, ?, ?, ?)",
				kind.historyTable()),
			now(), maxVersion.Int64+1, oldRaw, kind.ChangeSource()); err != nil {
			return fmt.Errorf("append history: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf("UPDATE %s SET content = ? WHERE id = 1", kind.table()),
			string(newRaw)); err != nil {
			return fmt.Errorf("write context: %w", err)
		}
		return nil
	})
	if txErr != nil {
		return false, stderrors.NewDatabase("update context", txErr)
	}
	return changed, nil
}

// contentEqual compares stored content with the canonical encoding of
// the incoming value. json.Marshal sorts object keys, so byte equality
// of re-encoded values is deep equality.
func contentEqual(oldRaw string, newCanonical []byte) bool {
	var old interface{}
	if err := json.Unmarshal([]byte(oldRaw), &old); err != nil {
		return false
	}
	oldCanonical, err := json.Marshal(old)
	if err != nil {
		return false
	}
	return bytes.Equal(oldCanonical, newCanonical)
}

// GetContextHistory lists history rows, newest version first.
func (s *Store) GetContextHistory(ctx context.Context, kind ContextKind, filter types.HistoryFilter) ([]types.ContextHistory, error) {
	query := fmt.Sprintf("SELECT id, timestamp, version, content, change_source FROM %s", kind.historyTable())
	var conds []string
	var args []interface{}
	if filter.Version != nil {
		conds = append(conds, "version = ?")
		args = append(args, *filter.Version)
	}
	if filter.BeforeTimestamp != nil {
		conds = append(conds, "timestamp < ?")
		args = append(args, filter.BeforeTimestamp.UTC())
	}
	if filter.AfterTimestamp != nil {
		conds = append(conds, "timestamp > ?")
		args = append(args, filter.AfterTimestamp.UTC())
	}
	if len(conds) > 0 {
		query += " WHERE " + joinAnd(conds)
	}
	query += " ORDER BY version DESC"
	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	query += " LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, stderrors.NewDatabase("query context history", err)
	}
	defer func() { _ = rows.Close() }()

	out := []types.ContextHistory{}
	for rows.Next() {
		h, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, stderrors.NewDatabase("iterate context history", err)
	}
	return out, nil
}

// GetContextVersion fetches one history row by version number.
func (s *Store) GetContextVersion(ctx context.Context, kind ContextKind, version int) (*types.ContextHistory, error) {
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT id, timestamp, version, content, change_source FROM %s WHERE version = ?",
			kind.historyTable()), version)
	h, err := scanHistory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, stderrors.NewNotFound(string(kind)+"_context version", version)
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanHistory(row rowScanner) (types.ContextHistory, error) {
	var h types.ContextHistory
	var raw string
	var changeSource sql.NullString
	if err := row.Scan(&h.ID, &h.Timestamp, &h.Version, &raw, &changeSource); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return h, err
		}
		return h, stderrors.NewDatabase("scan context history", err)
	}
	h.ChangeSource = changeSource.String
	if err := json.Unmarshal([]byte(raw), &h.Content); err != nil {
		return h, stderrors.NewDatabase("decode history content", err)
	}
	return h, nil
}

func joinAnd(conds []string) string {
	out := conds[0]
	for _, c := range conds[1:] {
		out += " AND " + c
	}
	return out
}
