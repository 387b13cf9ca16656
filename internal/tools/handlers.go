package tools

import (
	"context"

	stderrors "novaport-mcp/internal/errors"
	"novaport-mcp/internal/services"
	"novaport-mcp/internal/storage/sqlite"
	"novaport-mcp/pkg/types"
)

// handlerTable binds every catalog entry to its implementation.
func (cs *ContextServer) handlerTable() map[string]handlerFunc {
	return map[string]handlerFunc{
		"get_product_context":    getContext(sqlite.ContextProduct),
		"update_product_context": updateContext(sqlite.ContextProduct),
		"get_active_context":     getContext(sqlite.ContextActive),
		"update_active_context":  updateContext(sqlite.ContextActive),

		"log_decision":          logDecision,
		"get_decisions":         getDecisions,
		"delete_decision_by_id": deleteDecision,
		"search_decisions_fts":  searchDecisionsFTS,

		"log_progress":          logProgress,
		"get_progress":          getProgress,
		"update_progress":       updateProgress,
		"delete_progress_by_id": deleteProgress,

		"log_system_pattern":          logSystemPattern,
		"get_system_patterns":         getSystemPatterns,
		"delete_system_pattern_by_id": deleteSystemPattern,

		"log_custom_data":              logCustomData,
		"get_custom_data":              getCustomData,
		"delete_custom_data":           deleteCustomData,
		"search_custom_data_value_fts": searchCustomDataFTS,
		"search_project_glossary_fts":  searchGlossaryFTS,

		"link_conport_items": linkItems,
		"get_linked_items":   getLinkedItems,

		"batch_log_items":             batchLogItems,
		"get_item_history":            getItemHistory,
		"get_recent_activity_summary": getRecentActivity,
		"diff_context_versions":       diffContextVersions,
		"semantic_search_conport":     semanticSearch,

		"export_conport_to_markdown": exportMarkdown,
		"import_markdown_to_conport": importMarkdown,
		"get_conport_schema":         getSchema,
	}
}

func getContext(kind sqlite.ContextKind) handlerFunc {
	return func(ctx context.Context, b *services.Bundle, _ map[string]interface{}) (interface{}, error) {
		return b.Context.Get(ctx, kind)
	}
}

func updateContext(kind sqlite.ContextKind) handlerFunc {
	return func(ctx context.Context, b *services.Bundle, args map[string]interface{}) (interface{}, error) {
		var p types.UpdateContextParams
		if err := decodeArgs(args, &p); err != nil {
			return nil, err
		}
		return b.Context.Update(ctx, kind, p)
	}
}

func logDecision(ctx context.Context, b *services.Bundle, args map[string]interface{}) (interface{}, error) {
	var p types.LogDecisionParams
	if err := decodeArgs(args, &p); err != nil {
		return nil, err
	}
	return b.Decision.Log(ctx, p)
}

func getDecisions(ctx context.Context, b *services.Bundle, args map[string]interface{}) (interface{}, error) {
	var f types.DecisionFilter
	if err := decodeArgs(args, &f); err != nil {
		return nil, err
	}
	return b.Decision.List(ctx, f)
}

func deleteDecision(ctx context.Context, b *services.Bundle, args map[string]interface{}) (interface{}, error) {
	id, err := requireInt64(args, "decision_id")
	if err != nil {
		return nil, err
	}
	if err := b.Decision.Delete(ctx, id); err != nil {
		return nil, err
	}
	return deletedResult(id), nil
}

func searchDecisionsFTS(ctx context.Context, b *services.Bundle, args map[string]interface{}) (interface{}, error) {
	limit, _ := argInt(args, "limit")
	return b.Decision.SearchFTS(ctx, argString(args, "query_term"), limit)
}

func logProgress(ctx context.Context, b *services.Bundle, args map[string]interface{}) (interface{}, error) {
	var p types.LogProgressParams
	if err := decodeArgs(args, &p); err != nil {
		return nil, err
	}
	return b.Progress.Log(ctx, p)
}

func getProgress(ctx context.Context, b *services.Bundle, args map[string]interface{}) (interface{}, error) {
	var f types.ProgressFilter
	if err := decodeArgs(args, &f); err != nil {
		return nil, err
	}
	return b.Progress.List(ctx, f)
}

func updateProgress(ctx context.Context, b *services.Bundle, args map[string]interface{}) (interface{}, error) {
	var p types.UpdateProgressParams
	if err := decodeArgs(args, &p); err != nil {
		return nil, err
	}
	return b.Progress.Update(ctx, p)
}

func deleteProgress(ctx context.Context, b *services.Bundle, args map[string]interface{}) (interface{}, error) {
	id, err := requireInt64(args, "progress_id")
	if err != nil {
		return nil, err
	}
	if err := b.Progress.Delete(ctx, id); err != nil {
		return nil, err
	}
	return deletedResult(id), nil
}

func logSystemPattern(ctx context.Context, b *services.Bundle, args map[string]interface{}) (interface{}, error) {
	var p types.LogSystemPatternParams
	if err := decodeArgs(args, &p); err != nil {
		return nil, err
	}
	return b.Pattern.Log(ctx, p)
}

func getSystemPatterns(ctx context.Context, b *services.Bundle, args map[string]interface{}) (interface{}, error) {
	var f types.PatternFilter
	if err := decodeArgs(args, &f); err != nil {
		return nil, err
	}
	return b.Pattern.List(ctx, f)
}

func deleteSystemPattern(ctx context.Context, b *services.Bundle, args map[string]interface{}) (interface{}, error) {
	id, err := requireInt64(args, "pattern_id")
	if err != nil {
		return nil, err
	}
	if err := b.Pattern.Delete(ctx, id); err != nil {
		return nil, err
	}
	return deletedResult(id), nil
}

func logCustomData(ctx context.Context, b *services.Bundle, args map[string]interface{}) (interface{}, error) {
	p := types.LogCustomDataParams{
		Category: argString(args, "category"),
		Key:      argString(args, "key"),
		Value:    args["value"],
	}
	return b.Custom.Log(ctx, p)
}

// getCustomData reads one value when both category and key are given,
// a whole category when only category is given, and everything when
// neither is.
func getCustomData(ctx context.Context, b *services.Bundle, args map[string]interface{}) (interface{}, error) {
	category := argString(args, "category")
	key := argString(args, "key")
	if key != "" && category == "" {
		return nil, stderrors.NewValidation("category", "required when key is provided", nil)
	}
	if key != "" {
		return b.Custom.Get(ctx, category, key)
	}
	return b.Custom.List(ctx, category)
}

func deleteCustomData(ctx context.Context, b *services.Bundle, args map[string]interface{}) (interface{}, error) {
	category := argString(args, "category")
	key := argString(args, "key")
	if category == "" {
		return nil, stderrors.NewRequiredField("category")
	}
	if key == "" {
		return nil, stderrors.NewRequiredField("key")
	}
	if err := b.Custom.Delete(ctx, category, key); err != nil {
		return nil, err
	}
	return map[string]interface{}{"status": "deleted", "category": category, "key": key}, nil
}

func searchCustomDataFTS(ctx context.Context, b *services.Bundle, args map[string]interface{}) (interface{}, error) {
	limit, _ := argInt(args, "limit")
	return b.Custom.SearchFTS(ctx, argString(args, "query_term"), argString(args, "category_filter"), limit)
}

func searchGlossaryFTS(ctx context.Context, b *services.Bundle, args map[string]interface{}) (interface{}, error) {
	limit, _ := argInt(args, "limit")
	return b.Custom.SearchGlossary(ctx, argString(args, "query_term"), limit)
}

func linkItems(ctx context.Context, b *services.Bundle, args map[string]interface{}) (interface{}, error) {
	var p types.LinkItemsParams
	if err := decodeArgs(args, &p); err != nil {
		return nil, err
	}
	return b.Link.Create(ctx, p)
}

func getLinkedItems(ctx context.Context, b *services.Bundle, args map[string]interface{}) (interface{}, error) {
	var f types.LinkFilter
	if err := decodeArgs(args, &f); err != nil {
		return nil, err
	}
	return b.Link.List(ctx, f)
}

func batchLogItems(ctx context.Context, b *services.Bundle, args map[string]interface{}) (interface{}, error) {
	itemType := argString(args, "item_type")
	rawItems, ok := args["items"].([]interface{})
	if !ok {
		return nil, stderrors.NewValidation("items", "must be a list of objects", args["items"])
	}
	items := make([]map[string]interface{}, 0, len(rawItems))
	for _, raw := range rawItems {
		item, ok := raw.(map[string]interface{})
		if !ok {
			return nil, stderrors.NewValidation("items", "every item must be an object", raw)
		}
		items = append(items, item)
	}
	return b.Meta.BatchLogItems(ctx, itemType, items)
}

func getItemHistory(ctx context.Context, b *services.Bundle, args map[string]interface{}) (interface{}, error) {
	filter := types.HistoryFilter{}
	if limit, ok := argInt(args, "limit"); ok {
		filter.Limit = limit
	}
	if version, ok := argInt(args, "version"); ok {
		filter.Version = &version
	}
	var err error
	if filter.BeforeTimestamp, err = argTime(args, "before_timestamp"); err != nil {
		return nil, err
	}
	if filter.AfterTimestamp, err = argTime(args, "after_timestamp"); err != nil {
		return nil, err
	}
	return b.Meta.ItemHistory(ctx, argString(args, "item_type"), filter)
}

func getRecentActivity(ctx context.Context, b *services.Bundle, args map[string]interface{}) (interface{}, error) {
	since, err := argTime(args, "since_timestamp")
	if err != nil {
		return nil, err
	}
	hoursAgo, _ := argInt(args, "hours_ago")
	limit, _ := argInt(args, "limit_per_type")
	return b.Meta.RecentActivity(ctx, services.RecentActivityParams{
		Since:    since,
		HoursAgo: hoursAgo,
		Limit:    limit,
	})
}

func diffContextVersions(ctx context.Context, b *services.Bundle, args map[string]interface{}) (interface{}, error) {
	kind, err := services.KindFromItemType(argString(args, "item_type"))
	if err != nil {
		return nil, err
	}
	versionA, err := requireInt64(args, "version_a")
	if err != nil {
		return nil, err
	}
	versionB, err := requireInt64(args, "version_b")
	if err != nil {
		return nil, err
	}
	return b.Meta.DiffContextVersions(ctx, kind, int(versionA), int(versionB))
}

func semanticSearch(ctx context.Context, b *services.Bundle, args map[string]interface{}) (interface{}, error) {
	var p types.SemanticSearchParams
	if err := decodeArgs(args, &p); err != nil {
		return nil, err
	}
	return b.Search.Semantic(ctx, p)
}

func exportMarkdown(ctx context.Context, b *services.Bundle, args map[string]interface{}) (interface{}, error) {
	return b.IO.Export(ctx, argString(args, "output_path"))
}

func importMarkdown(ctx context.Context, b *services.Bundle, args map[string]interface{}) (interface{}, error) {
	return b.IO.Import(ctx, argString(args, "input_path"))
}

// getSchema reports every tool's input schema keyed by name.
func getSchema(_ context.Context, _ *services.Bundle, _ map[string]interface{}) (interface{}, error) {
	schemas := make(map[string]interface{})
	for _, def := range catalog() {
		schemas[def.name] = map[string]interface{}{
			"description": def.description,
			"input_schema": map[string]interface{}{
				"type":       "object",
				"properties": def.schema,
				"required":   def.required,
			},
		}
	}
	return schemas, nil
}

func deletedResult(id int64) map[string]interface{} {
	return map[string]interface{}{"status": "deleted", "id": id}
}
