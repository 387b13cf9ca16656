package services

import (
	"context"

	"novaport-mcp/internal/workspace"
	"novaport-mcp/pkg/types"
)

// LinkService relates items across entity types. Links are plain
// relational rows with no vector side effect.
type LinkService struct {
	ws *workspace.Workspace
}

// Create validates and inserts a link.
func (s *LinkService) Create(ctx context.Context, p types.LinkItemsParams) (*types.ContextLink, error) {
	if err := checkStruct(p); err != nil {
		return nil, err
	}
	return s.ws.Store.InsertLink(ctx, p)
}

// List returns links where the given item appears as source or target.
func (s *LinkService) List(ctx context.Context, filter types.LinkFilter) ([]types.ContextLink, error) {
	if err := checkStruct(filter); err != nil {
		return nil, err
	}
	return s.ws.Store.ListLinks(ctx, filter)
}

// Delete removes a link by row ID.
func (s *LinkService) Delete(ctx context.Context, id int64) error {
	return s.ws.Store.DeleteLink(ctx, id)
}
