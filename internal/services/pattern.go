package services

import (
	"context"

	"novaport-mcp/internal/workspace"
	"novaport-mcp/pkg/types"
)

// PatternService owns system-pattern CRUD. Names are unique per
// workspace; duplicates surface as conflict errors.
type PatternService struct {
	ws  *workspace.Workspace
	idx *indexer
}

// Log validates and persists a pattern, then indexes it.
func (s *PatternService) Log(ctx context.Context, p types.LogSystemPatternParams) (*types.SystemPattern, error) {
	if err := checkStruct(p); err != nil {
		return nil, err
	}
	sp, err := s.ws.Store.InsertSystemPattern(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := s.idx.upsert(ctx, types.ItemTypeSystemPattern, sp.ID, patternText(sp), patternMetadata(sp)); err != nil {
		return nil, err
	}
	return sp, nil
}

// Get fetches one pattern by ID.
func (s *PatternService) Get(ctx context.Context, id int64) (*types.SystemPattern, error) {
	return s.ws.Store.GetSystemPattern(ctx, id)
}

// List returns patterns newest first.
func (s *PatternService) List(ctx context.Context, filter types.PatternFilter) ([]types.SystemPattern, error) {
	return s.ws.Store.ListSystemPatterns(ctx, filter)
}

// Delete removes a pattern and its embedding.
func (s *PatternService) Delete(ctx context.Context, id int64) error {
	if err := s.ws.Store.DeleteSystemPattern(ctx, id); err != nil {
		return err
	}
	s.idx.remove(ctx, types.ItemTypeSystemPattern, id)
	return nil
}
