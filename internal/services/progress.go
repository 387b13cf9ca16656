package services

import (
	"context"
	"strconv"

	"novaport-mcp/internal/workspace"
	"novaport-mcp/pkg/types"
)

// defaultProgressLinkRelationship is used when a progress entry is
// linked to another item at creation time without an explicit
// relationship type.
const defaultProgressLinkRelationship = "relates_to_progress"

// ProgressService owns progress-entry CRUD, including the optional
// create-time link to another item.
type ProgressService struct {
	ws  *workspace.Workspace
	idx *indexer
}

// Log validates and persists an entry, indexes it, and optionally links
// it to an existing item in the same call.
func (s *ProgressService) Log(ctx context.Context, p types.LogProgressParams) (*types.ProgressEntry, error) {
	if err := checkStruct(p); err != nil {
		return nil, err
	}
	e, err := s.ws.Store.InsertProgress(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := s.idx.upsert(ctx, types.ItemTypeProgress, e.ID, progressText(e), progressMetadata(e)); err != nil {
		return nil, err
	}

	if p.LinkedItemType != "" && p.LinkedItemID != "" {
		relationship := p.LinkRelationshipType
		if relationship == "" {
			relationship = defaultProgressLinkRelationship
		}
		_, err := s.ws.Store.InsertLink(ctx, types.LinkItemsParams{
			SourceItemType:   types.ItemTypeProgress,
			SourceItemID:     strconv.FormatInt(e.ID, 10),
			TargetItemType:   p.LinkedItemType,
			TargetItemID:     p.LinkedItemID,
			RelationshipType: relationship,
		})
		if err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Update mutates status, description or parent and refreshes the
// embedding: every mutation of indexed fields re-projects the entry.
func (s *ProgressService) Update(ctx context.Context, p types.UpdateProgressParams) (*types.ProgressEntry, error) {
	if err := checkStruct(p); err != nil {
		return nil, err
	}
	e, err := s.ws.Store.UpdateProgress(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := s.idx.upsert(ctx, types.ItemTypeProgress, e.ID, progressText(e), progressMetadata(e)); err != nil {
		return nil, err
	}
	return e, nil
}

// Get fetches one entry by ID.
func (s *ProgressService) Get(ctx context.Context, id int64) (*types.ProgressEntry, error) {
	return s.ws.Store.GetProgress(ctx, id)
}

// List returns entries newest first, children attached one level deep.
func (s *ProgressService) List(ctx context.Context, filter types.ProgressFilter) ([]types.ProgressEntry, error) {
	return s.ws.Store.ListProgress(ctx, filter)
}

// Delete removes an entry; children cascade and every removed row's
// embedding is cleaned up.
func (s *ProgressService) Delete(ctx context.Context, id int64) error {
	removed, err := s.ws.Store.DeleteProgress(ctx, id)
	if err != nil {
		return err
	}
	for _, rid := range removed {
		s.idx.remove(ctx, types.ItemTypeProgress, rid)
	}
	return nil
}
