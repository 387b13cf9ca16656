package services

import (
	"context"
	"strconv"
	"strings"

	"novaport-mcp/internal/embeddings"
	stderrors "novaport-mcp/internal/errors"
	"novaport-mcp/internal/storage/vector"
	"novaport-mcp/internal/workspace"
	"novaport-mcp/pkg/types"
)

const (
	defaultTopK = 5
	maxTopK     = 25
)

// SearchService runs semantic queries against the workspace's vector
// collection. Structured list and FTS paths live on the entity
// services; this one shares no state with them.
type SearchService struct {
	ws       *workspace.Workspace
	embedder embeddings.Service
}

// SemanticResult is one semantic-search hit resolved back to a
// relational row.
type SemanticResult struct {
	ItemType string                 `json:"item_type"`
	ItemID   int64                  `json:"item_id"`
	Distance float64                `json:"distance"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Semantic embeds the query, applies the composed metadata filter and
// returns up to top_k hits nearest first. Hits whose relational row no
// longer exists are dropped: the vector side effect is outside the
// relational transaction, so a stale embedding can survive a delete.
func (s *SearchService) Semantic(ctx context.Context, p types.SemanticSearchParams) ([]SemanticResult, error) {
	if err := checkStruct(p); err != nil {
		return nil, err
	}
	topK := p.TopK
	if topK == 0 {
		topK = defaultTopK
	}
	if topK < 1 || topK > maxTopK {
		return nil, stderrors.NewValidation("top_k", "must be between 1 and 25", p.TopK)
	}

	vec, err := s.embedder.Generate(ctx, p.QueryText)
	if err != nil {
		return nil, stderrors.NewEmbedding("embed query", err)
	}

	hits, err := s.ws.Vectors.Query(ctx, vec, topK, composeFilter(p))
	if err != nil {
		return nil, err
	}

	results := make([]SemanticResult, 0, len(hits))
	for _, h := range hits {
		itemType, rowID, ok := splitEmbeddingID(h.ID)
		if !ok {
			continue
		}
		exists, err := s.rowExists(ctx, itemType, rowID)
		if err != nil {
			return nil, err
		}
		if !exists {
			continue
		}
		results = append(results, SemanticResult{
			ItemType: itemType,
			ItemID:   rowID,
			Distance: h.Distance,
			Metadata: h.Metadata,
		})
	}
	return results, nil
}

// composeFilter builds the vector filter expression from the public
// search parameters. Returns nil when no condition applies.
func composeFilter(p types.SemanticSearchParams) vector.Expr {
	var conds []interface{}

	if len(p.ItemTypes) > 0 {
		conds = append(conds, vector.Expr{
			"item_type": map[string]interface{}{"$in": toAnySlice(p.ItemTypes)},
		})
	}
	if len(p.CustomDataCategories) > 0 && containsString(p.ItemTypes, types.ItemTypeCustomData) {
		conds = append(conds, vector.Expr{
			"category": map[string]interface{}{"$in": toAnySlice(p.CustomDataCategories)},
		})
	}
	for _, tag := range p.TagsAll {
		conds = append(conds, vector.Expr{
			"tags": map[string]interface{}{"$contains": tag},
		})
	}
	if len(p.TagsAny) > 0 {
		anyConds := make([]interface{}, 0, len(p.TagsAny))
		for _, tag := range p.TagsAny {
			anyConds = append(anyConds, vector.Expr{
				"tags": map[string]interface{}{"$contains": tag},
			})
		}
		conds = append(conds, vector.Expr{"$or": anyConds})
	}

	switch len(conds) {
	case 0:
		return nil
	case 1:
		return conds[0].(vector.Expr)
	default:
		return vector.Expr{"$and": conds}
	}
}

// rowExists checks whether the relational row behind a hit is still
// present. Singleton contexts always exist.
func (s *SearchService) rowExists(ctx context.Context, itemType string, rowID int64) (bool, error) {
	var err error
	switch itemType {
	case types.ItemTypeDecision:
		_, err = s.ws.Store.GetDecision(ctx, rowID)
	case types.ItemTypeProgress:
		_, err = s.ws.Store.GetProgress(ctx, rowID)
	case types.ItemTypeSystemPattern:
		_, err = s.ws.Store.GetSystemPattern(ctx, rowID)
	case types.ItemTypeCustomData:
		err = s.customDataExists(ctx, rowID)
	default:
		return true, nil
	}
	if err != nil {
		if stderrors.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *SearchService) customDataExists(ctx context.Context, rowID int64) error {
	var n int
	row := s.ws.Store.DB().QueryRowContext(ctx,
		"SELECT COUNT(1) FROM custom_data WHERE id = ?", rowID)
	if err := row.Scan(&n); err != nil {
		return stderrors.NewDatabase("check custom data", err)
	}
	if n == 0 {
		return stderrors.NewNotFound("custom_data", strconv.FormatInt(rowID, 10))
	}
	return nil
}

// splitEmbeddingID inverts types.EmbeddingID. Item types themselves
// contain underscores, so split at the last one.
func splitEmbeddingID(id string) (string, int64, bool) {
	i := strings.LastIndexByte(id, '_')
	if i <= 0 || i == len(id)-1 {
		return "", 0, false
	}
	rowID, err := strconv.ParseInt(id[i+1:], 10, 64)
	if err != nil {
		return "", 0, false
	}
	return id[:i], rowID, true
}

func toAnySlice(in []string) []interface{} {
	out := make([]interface{}, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

func containsString(in []string, want string) bool {
	for _, s := range in {
		if s == want {
			return true
		}
	}
	return false
}
