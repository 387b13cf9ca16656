package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"novaport-mcp/internal/embeddings"
	stderrors "novaport-mcp/internal/errors"
	"novaport-mcp/internal/logging"
	"novaport-mcp/internal/workspace"
	"novaport-mcp/pkg/types"
)

// indexer applies the vector-store side effect after a committed
// relational write: embed the entity's canonical text projection and
// upsert it under the stable item ID.
type indexer struct {
	ws       *workspace.Workspace
	embedder embeddings.Service
	logger   logging.Logger
}

// upsert embeds text and writes it with sanitized metadata. Failures
// surface as embedding errors: the relational write already committed,
// so the caller reports the inconsistency instead of rolling back.
func (ix *indexer) upsert(ctx context.Context, itemType string, rowID int64, text string, metadata map[string]interface{}) error {
	metadata["item_type"] = itemType
	vec, err := ix.embedder.Generate(ctx, text)
	if err != nil {
		return stderrors.NewEmbedding("embed "+itemType, err)
	}
	id := types.EmbeddingID(itemType, rowID)
	if err := ix.ws.Vectors.Upsert(ctx, id, vec, metadata); err != nil {
		return stderrors.NewEmbedding("index "+itemType, err)
	}
	return nil
}

// remove deletes an embedding best-effort; a failure is logged and
// suppressed because the relational delete already succeeded.
func (ix *indexer) remove(ctx context.Context, itemType string, rowID int64) {
	id := types.EmbeddingID(itemType, rowID)
	if err := ix.ws.Vectors.Delete(ctx, id); err != nil {
		ix.logger.WarnContext(ctx, "embedding delete failed", "item_id", id, "error", err.Error())
	}
}

// Canonical embedding text projections and search metadata per entity.

func decisionText(d *types.Decision) string {
	return fmt.Sprintf("Decision: %s\nRationale: %s", d.Summary, d.Rationale)
}

func decisionMetadata(d *types.Decision) map[string]interface{} {
	return map[string]interface{}{
		"summary": d.Summary,
		"tags":    strings.Join(d.Tags, ","),
	}
}

func progressText(e *types.ProgressEntry) string {
	return fmt.Sprintf("Progress %s: %s", e.Status, e.Description)
}

func progressMetadata(e *types.ProgressEntry) map[string]interface{} {
	return map[string]interface{}{
		"status": e.Status,
	}
}

func patternText(p *types.SystemPattern) string {
	return fmt.Sprintf("System Pattern: %s\nDescription: %s", p.Name, p.Description)
}

func patternMetadata(p *types.SystemPattern) map[string]interface{} {
	return map[string]interface{}{
		"name": p.Name,
		"tags": strings.Join(p.Tags, ","),
	}
}

// customDataText builds the canonical projection for a stored row. The
// value came out of the database, so it is JSON-representable.
func customDataText(d *types.CustomData) string {
	raw, _ := json.Marshal(d.Value)
	return fmt.Sprintf("Custom Data in category '%s' key '%s': %s", d.Category, d.Key, string(raw))
}

func customDataMetadata(d *types.CustomData) map[string]interface{} {
	return map[string]interface{}{
		"category": d.Category,
		"key":      d.Key,
	}
}
