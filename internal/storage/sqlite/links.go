package sqlite

import (
	"context"
	"database/sql"

	stderrors "novaport-mcp/internal/errors"
	"novaport-mcp/pkg/types"
)

const linkColumns = "id, timestamp, source_item_type, source_item_id, target_item_type, target_item_id, relationship_type, description"

// InsertLink relates two items. Item existence is checked by the
// service layer; the row itself is a plain insert.
func (s *Store) InsertLink(ctx context.Context, p types.LinkItemsParams) (*types.ContextLink, error) {
	ts := now()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO context_links (timestamp, source_item_type, source_item_id, target_item_type, target_item_id, relationship_type, description) VALUES (?, ?, ?, ?, ?, ?, ?)",
		ts, p.SourceItemType, p.SourceItemID, p.TargetItemType, p.TargetItemID, p.RelationshipType, nullable(p.Description))
	if err != nil {
		return nil, stderrors.NewDatabase("insert context link", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, stderrors.NewDatabase("read link id", err)
	}
	return &types.ContextLink{
		ID:               id,
		Timestamp:        ts,
		SourceItemType:   p.SourceItemType,
		SourceItemID:     p.SourceItemID,
		TargetItemType:   p.TargetItemType,
		TargetItemID:     p.TargetItemID,
		RelationshipType: p.RelationshipType,
		Description:      p.Description,
	}, nil
}

// ListLinks returns every link where the item appears as source or
// target, newest first. The default limit is 50.
func (s *Store) ListLinks(ctx context.Context, filter types.LinkFilter) ([]types.ContextLink, error) {
	query := "SELECT " + linkColumns + " FROM context_links " +
		"WHERE ((source_item_type = ? AND source_item_id = ?) OR (target_item_type = ? AND target_item_id = ?))"
	args := []interface{}{filter.ItemType, filter.ItemID, filter.ItemType, filter.ItemID}
	if filter.RelationshipType != "" {
		query += " AND relationship_type = ?"
		args = append(args, filter.RelationshipType)
	}
	query += " ORDER BY timestamp DESC, id DESC LIMIT ?"
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, stderrors.NewDatabase("query context links", err)
	}
	defer func() { _ = rows.Close() }()

	out := []types.ContextLink{}
	for rows.Next() {
		var l types.ContextLink
		var description sql.NullString
		if err := rows.Scan(&l.ID, &l.Timestamp, &l.SourceItemType, &l.SourceItemID,
			&l.TargetItemType, &l.TargetItemID, &l.RelationshipType, &description); err != nil {
			return nil, stderrors.NewDatabase("scan context link", err)
		}
		l.Description = description.String
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, stderrors.NewDatabase("iterate context links", err)
	}
	return out, nil
}

// DeleteLink removes a link by ID.
func (s *Store) DeleteLink(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM context_links WHERE id = ?", id)
	if err != nil {
		return stderrors.NewDatabase("delete context link", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return stderrors.NewDatabase("delete context link", err)
	}
	if n == 0 {
		return stderrors.NewNotFound("context_link", id)
	}
	return nil
}
