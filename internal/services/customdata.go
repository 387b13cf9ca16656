package services

import (
	"context"
	"encoding/json"

	stderrors "novaport-mcp/internal/errors"
	"novaport-mcp/internal/workspace"
	"novaport-mcp/pkg/types"
)

// GlossaryCategory is the custom-data category backing the project
// glossary search tool.
const GlossaryCategory = "ProjectGlossary"

// CustomDataService owns the free-form (category, key) → value store.
type CustomDataService struct {
	ws  *workspace.Workspace
	idx *indexer
}

// Log upserts a value under (category, key) and indexes it. A value
// that cannot be JSON-serialized still lands in the relational store;
// the embedding is skipped with a warning.
func (s *CustomDataService) Log(ctx context.Context, p types.LogCustomDataParams) (*types.CustomData, error) {
	if err := checkStruct(p); err != nil {
		return nil, err
	}
	d, err := s.ws.Store.UpsertCustomData(ctx, p)
	if err != nil {
		return nil, err
	}
	if _, jsonErr := json.Marshal(p.Value); jsonErr != nil {
		s.idx.logger.WarnContext(ctx, "custom data value not serializable, skipping embedding",
			"category", d.Category, "key", d.Key)
		return d, nil
	}
	if err := s.idx.upsert(ctx, types.ItemTypeCustomData, d.ID, customDataText(d), customDataMetadata(d)); err != nil {
		return nil, err
	}
	return d, nil
}

// Get fetches one value by (category, key).
func (s *CustomDataService) Get(ctx context.Context, category, key string) (*types.CustomData, error) {
	return s.ws.Store.GetCustomData(ctx, category, key)
}

// List returns all values, optionally restricted to one category.
func (s *CustomDataService) List(ctx context.Context, category string) ([]types.CustomData, error) {
	return s.ws.Store.ListCustomData(ctx, category)
}

// Delete removes a value and its embedding.
func (s *CustomDataService) Delete(ctx context.Context, category, key string) error {
	id, err := s.ws.Store.DeleteCustomData(ctx, category, key)
	if err != nil {
		return err
	}
	s.idx.remove(ctx, types.ItemTypeCustomData, id)
	return nil
}

// SearchFTS runs ranked full-text search over custom data, optionally
// pinned to one category.
func (s *CustomDataService) SearchFTS(ctx context.Context, term, category string, limit int) ([]types.CustomData, error) {
	if term == "" {
		return nil, stderrors.ErrQueryRequired
	}
	return s.ws.Store.SearchCustomDataFTS(ctx, term, category, limit)
}

// SearchGlossary is SearchFTS pinned to the ProjectGlossary category.
func (s *CustomDataService) SearchGlossary(ctx context.Context, term string, limit int) ([]types.CustomData, error) {
	return s.SearchFTS(ctx, term, GlossaryCategory, limit)
}
