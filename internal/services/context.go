package services

import (
	"context"

	stderrors "novaport-mcp/internal/errors"
	"novaport-mcp/internal/storage/sqlite"
	"novaport-mcp/internal/workspace"
	"novaport-mcp/pkg/types"
)

// ContextService reads and mutates the two singleton contexts. Every
// content-changing update appends the prior value to the history table
// inside the update transaction.
type ContextService struct {
	ws *workspace.Workspace
}

// Get returns the current content, {} on first read.
func (s *ContextService) Get(ctx context.Context, kind sqlite.ContextKind) (types.ContextContent, error) {
	return s.ws.Store.GetContext(ctx, kind)
}

// Update applies a full replacement or a shallow patch. Exactly one of
// Content and PatchContent must be provided. Patch values equal to the
// delete sentinel remove their key. Returns the resulting content.
func (s *ContextService) Update(ctx context.Context, kind sqlite.ContextKind, p types.UpdateContextParams) (types.ContextContent, error) {
	hasContent := p.Content != nil
	hasPatch := p.PatchContent != nil
	if hasContent == hasPatch {
		return nil, stderrors.NewValidation("content",
			"provide exactly one of 'content' and 'patch_content'", nil)
	}

	next := p.Content
	if hasPatch {
		current, err := s.ws.Store.GetContext(ctx, kind)
		if err != nil {
			return nil, err
		}
		next = applyPatch(current, p.PatchContent)
	}

	if _, err := s.ws.Store.UpdateContext(ctx, kind, next); err != nil {
		return nil, err
	}
	return next, nil
}

// History lists version snapshots, newest first.
func (s *ContextService) History(ctx context.Context, kind sqlite.ContextKind, filter types.HistoryFilter) ([]types.ContextHistory, error) {
	return s.ws.Store.GetContextHistory(ctx, kind, filter)
}

// applyPatch merges patch into a copy of current, shallow, honoring the
// delete sentinel.
func applyPatch(current, patch types.ContextContent) types.ContextContent {
	next := make(types.ContextContent, len(current)+len(patch))
	for k, v := range current {
		next[k] = v
	}
	for k, v := range patch {
		if s, ok := v.(string); ok && s == types.PatchDeleteSentinel {
			delete(next, k)
			continue
		}
		next[k] = v
	}
	return next
}

// KindFromItemType maps the public item_type names onto context kinds.
func KindFromItemType(itemType string) (sqlite.ContextKind, error) {
	switch itemType {
	case types.ItemTypeProductContext:
		return sqlite.ContextProduct, nil
	case types.ItemTypeActiveContext:
		return sqlite.ContextActive, nil
	default:
		return "", stderrors.NewValidation("item_type",
			"must be 'product_context' or 'active_context'", itemType)
	}
}
