package services

import (
	"context"

	stderrors "novaport-mcp/internal/errors"
	"novaport-mcp/internal/workspace"
	"novaport-mcp/pkg/types"
)

// DecisionService owns decision CRUD and keeps the vector store in
// lockstep with the relational rows.
type DecisionService struct {
	ws  *workspace.Workspace
	idx *indexer
}

// Log validates and persists a decision, then indexes its embedding.
func (s *DecisionService) Log(ctx context.Context, p types.LogDecisionParams) (*types.Decision, error) {
	if err := checkStruct(p); err != nil {
		return nil, err
	}
	d, err := s.ws.Store.InsertDecision(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := s.idx.upsert(ctx, types.ItemTypeDecision, d.ID, decisionText(d), decisionMetadata(d)); err != nil {
		return nil, err
	}
	return d, nil
}

// Get fetches one decision by ID.
func (s *DecisionService) Get(ctx context.Context, id int64) (*types.Decision, error) {
	return s.ws.Store.GetDecision(ctx, id)
}

// List returns decisions newest first.
func (s *DecisionService) List(ctx context.Context, filter types.DecisionFilter) ([]types.Decision, error) {
	return s.ws.Store.ListDecisions(ctx, filter)
}

// Delete removes a decision and its embedding.
func (s *DecisionService) Delete(ctx context.Context, id int64) error {
	if err := s.ws.Store.DeleteDecision(ctx, id); err != nil {
		return err
	}
	s.idx.remove(ctx, types.ItemTypeDecision, id)
	return nil
}

// SearchFTS runs ranked full-text search over decisions.
func (s *DecisionService) SearchFTS(ctx context.Context, term string, limit int) ([]types.Decision, error) {
	if term == "" {
		return nil, stderrors.ErrQueryRequired
	}
	return s.ws.Store.SearchDecisionsFTS(ctx, term, limit)
}
