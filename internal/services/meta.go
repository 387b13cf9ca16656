package services

import (
	"context"
	"time"

	"github.com/go-viper/mapstructure/v2"

	stderrors "novaport-mcp/internal/errors"
	"novaport-mcp/internal/workspace"
	"novaport-mcp/pkg/types"
)

const defaultActivityLimit = 5

// MetaService hosts the cross-entity operations: batch ingest, recent
// activity, item history and the context-version diff.
type MetaService struct {
	ws     *workspace.Workspace
	bundle *Bundle
}

// BatchLogItems ingests a list of raw items of one type. Per-item
// failures are recorded and skipped; an unknown item type fails the
// whole call.
func (s *MetaService) BatchLogItems(ctx context.Context, itemType string, items []map[string]interface{}) (*types.BatchResult, error) {
	logOne, err := s.batchHandler(itemType)
	if err != nil {
		return nil, err
	}

	result := &types.BatchResult{Details: []types.BatchItemError{}}
	for _, item := range items {
		if err := logOne(ctx, item); err != nil {
			result.Failed++
			result.Details = append(result.Details, types.BatchItemError{
				Item:  item,
				Error: errorMessage(err),
			})
			continue
		}
		result.Succeeded++
	}
	return result, nil
}

// batchHandler resolves the per-item ingest function for a batch item
// type. The batch surface accepts "progress" as the alias for progress
// entries.
func (s *MetaService) batchHandler(itemType string) (func(context.Context, map[string]interface{}) error, error) {
	switch itemType {
	case "decision":
		return func(ctx context.Context, item map[string]interface{}) error {
			var p types.LogDecisionParams
			if err := decodeItem(item, &p); err != nil {
				return err
			}
			_, err := s.bundle.Decision.Log(ctx, p)
			return err
		}, nil
	case "progress":
		return func(ctx context.Context, item map[string]interface{}) error {
			var p types.LogProgressParams
			if err := decodeItem(item, &p); err != nil {
				return err
			}
			_, err := s.bundle.Progress.Log(ctx, p)
			return err
		}, nil
	case "system_pattern":
		return func(ctx context.Context, item map[string]interface{}) error {
			var p types.LogSystemPatternParams
			if err := decodeItem(item, &p); err != nil {
				return err
			}
			_, err := s.bundle.Pattern.Log(ctx, p)
			return err
		}, nil
	case "custom_data":
		return func(ctx context.Context, item map[string]interface{}) error {
			var p types.LogCustomDataParams
			if err := decodeItem(item, &p); err != nil {
				return err
			}
			_, err := s.bundle.Custom.Log(ctx, p)
			return err
		}, nil
	default:
		return nil, stderrors.NewValidation("item_type",
			"must be one of decision, progress, system_pattern, custom_data", itemType)
	}
}

// RecentActivityParams bounds a recent-activity summary.
type RecentActivityParams struct {
	Since    *time.Time `json:"since,omitempty" mapstructure:"-"`
	HoursAgo int        `json:"hours_ago,omitempty" mapstructure:"hours_ago"`
	Limit    int        `json:"limit_per_type,omitempty" mapstructure:"limit_per_type"`
}

// RecentActivity returns the most recent items per entity type. Since
// takes precedence over HoursAgo when both are provided.
func (s *MetaService) RecentActivity(ctx context.Context, p RecentActivityParams) (*types.RecentActivity, error) {
	since := p.Since
	if since == nil && p.HoursAgo > 0 {
		t := time.Now().UTC().Add(-time.Duration(p.HoursAgo) * time.Hour)
		since = &t
	}
	limit := p.Limit
	if limit <= 0 {
		limit = defaultActivityLimit
	}

	decisions, err := s.ws.Store.ListDecisions(ctx, types.DecisionFilter{Limit: limit, Since: since})
	if err != nil {
		return nil, err
	}
	progress, err := s.ws.Store.ListProgress(ctx, types.ProgressFilter{Limit: limit, Since: since})
	if err != nil {
		return nil, err
	}
	// System patterns are a curated catalog rather than an activity
	// stream; the time window deliberately does not apply to them.
	patterns, err := s.ws.Store.ListSystemPatterns(ctx, types.PatternFilter{Limit: limit})
	if err != nil {
		return nil, err
	}

	return &types.RecentActivity{
		Decisions:      decisions,
		Progress:       progress,
		SystemPatterns: patterns,
	}, nil
}

// ItemHistory lists version history for a singleton context. Only
// product_context and active_context carry history.
func (s *MetaService) ItemHistory(ctx context.Context, itemType string, filter types.HistoryFilter) ([]types.ContextHistory, error) {
	kind, err := KindFromItemType(itemType)
	if err != nil {
		return nil, err
	}
	return s.ws.Store.GetContextHistory(ctx, kind, filter)
}

// decodeItem maps a raw batch item onto a typed parameter record,
// tolerating the loose typing of decoded JSON.
func decodeItem(item map[string]interface{}, out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return stderrors.NewInternal("build item decoder", err)
	}
	if err := dec.Decode(item); err != nil {
		return stderrors.NewValidation("item", err.Error(), item)
	}
	return nil
}

// errorMessage flattens an error for a batch detail row.
func errorMessage(err error) string {
	if std := stderrors.AsStandard(err); std != nil {
		return std.ErrorInfo.Message
	}
	return err.Error()
}
