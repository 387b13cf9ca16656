// Package vector is the per-workspace embedding store, backed by a
// sqlite-vec vec0 virtual table inside the workspace's vectordb
// directory. Rows are keyed by the stable item ID "<type>_<row_id>".
package vector

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	stderrors "novaport-mcp/internal/errors"
	"novaport-mcp/internal/logging"
)

func init() {
	// Registers the sqlite-vec extension on every new connection.
	sqlite_vec.Auto()
}

// CollectionName is the well-known per-workspace collection.
const CollectionName = "conport_default"

// Result is one semantic search hit, ascending distance.
type Result struct {
	ID       string                 `json:"id"`
	Distance float64                `json:"distance"`
	Metadata map[string]interface{} `json:"metadata"`
}

// Collection wraps one workspace's vector database.
type Collection struct {
	db     *sql.DB
	dims   int
	logger logging.Logger
}

// Open opens (creating if needed) the vector database at path with the
// given embedding width.
func Open(ctx context.Context, path string, dims int) (*Collection, error) {
	if dims <= 0 {
		return nil, fmt.Errorf("vector dimensions must be positive, got %d", dims)
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open vector database %s: %w", path, err)
	}
	db.SetMaxOpenConns(2)

	c := &Collection{db: db, dims: dims, logger: logging.WithComponent("vector")}
	if err := c.createTable(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}

func (c *Collection) createTable(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE VIRTUAL TABLE IF NOT EXISTS %s USING vec0(
		item_id TEXT PRIMARY KEY,
		embedding FLOAT[%d],
		+meta TEXT
	)`, CollectionName, c.dims)
	if _, err := c.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create vector table: %w", err)
	}
	return nil
}

// Upsert writes a vector and its sanitized metadata under itemID,
// replacing any existing row.
func (c *Collection) Upsert(ctx context.Context, itemID string, embedding []float32, metadata map[string]interface{}) error {
	if len(embedding) != c.dims {
		return stderrors.NewEmbedding(
			fmt.Sprintf("embedding has %d dimensions, collection expects %d", len(embedding), c.dims), nil)
	}
	blob, err := sqlite_vec.SerializeFloat32(embedding)
	if err != nil {
		return stderrors.NewEmbedding("serialize embedding", err)
	}
	meta, err := json.Marshal(SanitizeMetadata(metadata))
	if err != nil {
		return stderrors.NewEmbedding("encode metadata", err)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return stderrors.NewDatabase("begin vector upsert", err)
	}
	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE item_id = ?", CollectionName), itemID); err != nil {
		_ = tx.Rollback()
		return stderrors.NewDatabase("replace vector", err)
	}
	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %s (item_id, embedding, meta) VALUES (?, ?, ?)", CollectionName),
		itemID, blob, string(meta)); err != nil {
		_ = tx.Rollback()
		return stderrors.NewDatabase("insert vector", err)
	}
	if err := tx.Commit(); err != nil {
		return stderrors.NewDatabase("commit vector upsert", err)
	}
	return nil
}

// Delete removes the embedding for itemID. Missing IDs only log a
// warning: the relational delete already happened and retrying is safe.
func (c *Collection) Delete(ctx context.Context, itemID string) error {
	res, err := c.db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE item_id = ?", CollectionName), itemID)
	if err != nil {
		return stderrors.NewDatabase("delete vector", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		c.logger.WarnContext(ctx, "vector delete found no embedding", "item_id", itemID)
	}
	return nil
}

// Query returns up to topK results by ascending distance, applying the
// optional filter expression to each candidate's metadata. With a
// filter present the KNN scan over-fetches so post-filtering can still
// fill topK.
func (c *Collection) Query(ctx context.Context, embedding []float32, topK int, filter Expr) ([]Result, error) {
	if topK <= 0 {
		topK = 5
	}
	pred, err := Compile(filter)
	if err != nil {
		return nil, err
	}
	blob, err := sqlite_vec.SerializeFloat32(embedding)
	if err != nil {
		return nil, stderrors.NewEmbedding("serialize query embedding", err)
	}

	candidateK := topK
	if pred != nil {
		candidateK = topK * 20
		if candidateK < 200 {
			candidateK = 200
		}
	}

	rows, err := c.db.QueryContext(ctx, fmt.Sprintf(
		"SELECT item_id, distance, meta FROM %s WHERE embedding MATCH ? ORDER BY distance LIMIT ?",
		CollectionName), blob, candidateK)
	if err != nil {
		return nil, stderrors.NewDatabase("query vectors", err)
	}
	defer func() { _ = rows.Close() }()

	results := []Result{}
	for rows.Next() {
		var r Result
		var meta sql.NullString
		if err := rows.Scan(&r.ID, &r.Distance, &meta); err != nil {
			return nil, stderrors.NewDatabase("scan vector row", err)
		}
		r.Metadata = map[string]interface{}{}
		if meta.Valid && meta.String != "" {
			if err := json.Unmarshal([]byte(meta.String), &r.Metadata); err != nil {
				c.logger.WarnContext(ctx, "unreadable vector metadata", "item_id", r.ID)
			}
		}
		if pred != nil && !pred(r.Metadata) {
			continue
		}
		results = append(results, r)
		if len(results) >= topK {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, stderrors.NewDatabase("iterate vector rows", err)
	}
	return results, nil
}

// Count returns the number of stored embeddings.
func (c *Collection) Count(ctx context.Context) (int64, error) {
	var n int64
	err := c.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM %s", CollectionName)).Scan(&n)
	if err != nil {
		return 0, stderrors.NewDatabase("count vectors", err)
	}
	return n, nil
}

// Reset drops and recreates the collection. Driven by tests and the
// workspace teardown path.
func (c *Collection) Reset(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx,
		fmt.Sprintf("DROP TABLE IF EXISTS %s", CollectionName)); err != nil {
		return stderrors.NewDatabase("drop vector table", err)
	}
	return c.createTable(ctx)
}

// Close releases the database handle.
func (c *Collection) Close() error { return c.db.Close() }

// SanitizeMetadata keeps only scalar values (string, numeric, bool);
// nested objects are not guaranteed to be indexable.
func SanitizeMetadata(metadata map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(metadata))
	for k, v := range metadata {
		switch v.(type) {
		case string, bool,
			int, int8, int16, int32, int64,
			uint, uint8, uint16, uint32, uint64,
			float32, float64:
			out[k] = v
		}
	}
	return out
}
