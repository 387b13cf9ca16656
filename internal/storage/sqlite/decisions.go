package sqlite

import (
	"context"
	"database/sql"
	"errors"

	stderrors "novaport-mcp/internal/errors"
	"novaport-mcp/pkg/types"
)

const decisionColumns = "id, timestamp, summary, rationale, implementation_details, tags"

// InsertDecision persists a new decision and returns it with ID and
// timestamp filled in.
func (s *Store) InsertDecision(ctx context.Context, p types.LogDecisionParams) (*types.Decision, error) {
	tags, err := encodeTags(p.Tags)
	if err != nil {
		return nil, stderrors.NewValidation("tags", "tags are not serializable", p.Tags)
	}
	ts := now()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO decisions (timestamp, summary, rationale, implementation_details, tags) VALUES (?, ?, ?, ?, ?)",
		ts, p.Summary, nullable(p.Rationale), nullable(p.ImplementationDetails), tags)
	if err != nil {
		return nil, stderrors.NewDatabase("insert decision", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, stderrors.NewDatabase("read decision id", err)
	}
	return &types.Decision{
		ID:                    id,
		Timestamp:             ts,
		Summary:               p.Summary,
		Rationale:             p.Rationale,
		ImplementationDetails: p.ImplementationDetails,
		Tags:                  normalizeTags(p.Tags),
	}, nil
}

// GetDecision fetches one decision by ID.
func (s *Store) GetDecision(ctx context.Context, id int64) (*types.Decision, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+decisionColumns+" FROM decisions WHERE id = ?", id)
	d, err := scanDecision(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, stderrors.NewNotFound("decision", id)
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// ListDecisions returns decisions newest first, honoring tag and
// timestamp filters. The default limit is 100.
func (s *Store) ListDecisions(ctx context.Context, filter types.DecisionFilter) ([]types.Decision, error) {
	query := "SELECT " + decisionColumns + " FROM decisions"
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
		limit = 100
	}
	args = append(args, limit)

	return s.queryDecisions(ctx, query, args...)
}

// AllDecisions returns every decision oldest first, for export.
func (s *Store) AllDecisions(ctx context.Context) ([]types.Decision, error) {
	return s.queryDecisions(ctx,
		"SELECT "+decisionColumns+" FROM decisions ORDER BY timestamp ASC, id ASC")
}

// DeleteDecision removes a decision by ID.
func (s *Store) DeleteDecision(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM decisions WHERE id = ?", id)
	if err != nil {
		return stderrors.NewDatabase("delete decision", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return stderrors.NewDatabase("delete decision", err)
	}
	if n == 0 {
		return stderrors.NewNotFound("decision", id)
	}
	return nil
}

// SearchDecisionsFTS runs full-text search over summary, rationale and
// implementation details, ranked by relevance. When the FTS query fails
// (missing virtual table, unsupported syntax) it falls back to LIKE
// substring matching.
func (s *Store) SearchDecisionsFTS(ctx context.Context, term string, limit int) ([]types.Decision, error) {
	if limit <= 0 {
		limit = 10
	}
	query := "SELECT d.id, d.timestamp, d.summary, d.rationale, d.implementation_details, d.tags " +
		"FROM decisions d JOIN decisions_fts f ON f.rowid = d.id " +
		"WHERE decisions_fts MATCH ? ORDER BY f.rank LIMIT ?"
	out, err := s.queryDecisions(ctx, query, ftsQuote(term), limit)
	if err == nil {
		return out, nil
	}

	pattern := likePattern(term)
	fallback := "SELECT " + decisionColumns + " FROM decisions " +
		"WHERE summary LIKE ? ESCAPE '\\' OR rationale LIKE ? ESCAPE '\\' OR implementation_details LIKE ? ESCAPE '\\' " +
		"ORDER BY timestamp DESC, id DESC LIMIT ?"
	return s.queryDecisions(ctx, fallback, pattern, pattern, pattern, limit)
}

func (s *Store) queryDecisions(ctx context.Context, query string, args ...interface{}) ([]types.Decision, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, stderrors.NewDatabase("query decisions", err)
	}
	defer func() { _ = rows.Close() }()

	out := []types.Decision{}
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, stderrors.NewDatabase("iterate decisions", err)
	}
	return out, nil
}

func scanDecision(row rowScanner) (*types.Decision, error) {
	var d types.Decision
	var rationale, details sql.NullString
	var tags string
	if err := row.Scan(&d.ID, &d.Timestamp, &d.Summary, &rationale, &details, &tags); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, stderrors.NewDatabase("scan decision", err)
	}
	d.Rationale = rationale.String
	d.ImplementationDetails = details.String
	d.Tags = decodeTags(tags)
	return &d, nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func normalizeTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func joinOr(conds []string) string {
	out := conds[0]
	for _, c := range conds[1:] {
		out += " OR " + c
	}
	return out
}
