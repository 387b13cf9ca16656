package tools

// The tool catalog. Every tool takes workspace_id first; schemas here
// are what get_conport_schema reports, so they stay in one place
// instead of being scattered over the registration calls.

func workspaceIDProp() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Identifier of the workspace (an absolute path)",
	}
}

func strProp(desc string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": desc}
}

func intProp(desc string) map[string]interface{} {
	return map[string]interface{}{"type": "integer", "description": desc}
}

func objProp(desc string) map[string]interface{} {
	return map[string]interface{}{"type": "object", "description": desc, "additionalProperties": true}
}

func strArrayProp(desc string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"description": desc,
		"items":       map[string]interface{}{"type": "string"},
	}
}

// toolDef pairs one tool's schema with its name and description.
type toolDef struct {
	name        string
	description string
	schema      map[string]interface{}
	required    []string
}

func contextToolDefs() []toolDef {
	updateSchema := func(which string) map[string]interface{} {
		return map[string]interface{}{
			"workspace_id":  workspaceIDProp(),
			"content":       objProp("Full replacement for the " + which + " content"),
			"patch_content": objProp("Shallow merge into the " + which + " content; a value of \"__DELETE__\" removes the key"),
		}
	}
	return []toolDef{
		{
			name:        "get_product_context",
			description: "Retrieve the product context: the long-lived description of the project, its goals and constraints.",
			schema:      map[string]interface{}{"workspace_id": workspaceIDProp()},
			required:    []string{"workspace_id"},
		},
		{
			name:        "update_product_context",
			description: "Update the product context with a full content object or a shallow patch. Exactly one of content and patch_content must be provided.",
			schema:      updateSchema("product context"),
			required:    []string{"workspace_id"},
		},
		{
			name:        "get_active_context",
			description: "Retrieve the active context: the current working focus, recent changes and open issues.",
			schema:      map[string]interface{}{"workspace_id": workspaceIDProp()},
			required:    []string{"workspace_id"},
		},
		{
			name:        "update_active_context",
			description: "Update the active context with a full content object or a shallow patch. Exactly one of content and patch_content must be provided.",
			schema:      updateSchema("active context"),
			required:    []string{"workspace_id"},
		},
	}
}

func decisionToolDefs() []toolDef {
	return []toolDef{
		{
			name:        "log_decision",
			description: "Log an architectural or implementation decision with optional rationale, implementation details and tags.",
			schema: map[string]interface{}{
				"workspace_id":           workspaceIDProp(),
				"summary":                strProp("Concise summary of the decision"),
				"rationale":              strProp("Why the decision was made"),
				"implementation_details": strProp("How the decision is being implemented"),
				"tags":                   strArrayProp("Tags for categorization"),
			},
			required: []string{"workspace_id", "summary"},
		},
		{
			name:        "get_decisions",
			description: "List decisions, newest first, with optional tag filters and a limit.",
			schema: map[string]interface{}{
				"workspace_id":            workspaceIDProp(),
				"limit":                   intProp("Maximum number of decisions to return (default 100)"),
				"tags_filter_include_all": strArrayProp("Only decisions carrying every one of these tags"),
				"tags_filter_include_any": strArrayProp("Only decisions carrying at least one of these tags"),
			},
			required: []string{"workspace_id"},
		},
		{
			name:        "delete_decision_by_id",
			description: "Delete a decision and its search index entry.",
			schema: map[string]interface{}{
				"workspace_id": workspaceIDProp(),
				"decision_id":  intProp("ID of the decision to delete"),
			},
			required: []string{"workspace_id", "decision_id"},
		},
		{
			name:        "search_decisions_fts",
			description: "Full-text search over decision summaries, rationale and implementation details, ranked by relevance.",
			schema: map[string]interface{}{
				"workspace_id": workspaceIDProp(),
				"query_term":   strProp("Search term"),
				"limit":        intProp("Maximum number of results (default 10)"),
			},
			required: []string{"workspace_id", "query_term"},
		},
	}
}

func progressToolDefs() []toolDef {
	return []toolDef{
		{
			name:        "log_progress",
			description: "Log a progress entry or task. Optionally link it to another item in the same call.",
			schema: map[string]interface{}{
				"workspace_id":           workspaceIDProp(),
				"status":                 strProp("Entry status, e.g. TODO, IN_PROGRESS, DONE"),
				"description":            strProp("What the entry tracks"),
				"parent_id":              intProp("Optional ID of a parent entry"),
				"linked_item_type":       strProp("Optional item type to link the new entry to"),
				"linked_item_id":         strProp("Optional item ID to link the new entry to"),
				"link_relationship_type": strProp("Relationship type for the optional link (default relates_to_progress)"),
			},
			required: []string{"workspace_id", "status", "description"},
		},
		{
			name:        "get_progress",
			description: "List progress entries, newest first, with optional status, parent and limit filters.",
			schema: map[string]interface{}{
				"workspace_id":     workspaceIDProp(),
				"status_filter":    strProp("Only entries with this status"),
				"parent_id_filter": intProp("Only entries under this parent"),
				"limit":            intProp("Maximum number of entries (default 50)"),
			},
			required: []string{"workspace_id"},
		},
		{
			name:        "update_progress",
			description: "Update the status, description or parent of an existing progress entry.",
			schema: map[string]interface{}{
				"workspace_id": workspaceIDProp(),
				"progress_id":  intProp("ID of the entry to update"),
				"status":       strProp("New status"),
				"description":  strProp("New description"),
				"parent_id":    intProp("New parent entry ID"),
			},
			required: []string{"workspace_id", "progress_id"},
		},
		{
			name:        "delete_progress_by_id",
			description: "Delete a progress entry. Child entries are deleted with it.",
			schema: map[string]interface{}{
				"workspace_id": workspaceIDProp(),
				"progress_id":  intProp("ID of the entry to delete"),
			},
			required: []string{"workspace_id", "progress_id"},
		},
	}
}

func patternToolDefs() []toolDef {
	return []toolDef{
		{
			name:        "log_system_pattern",
			description: "Log a named system pattern. Pattern names are unique within a workspace.",
			schema: map[string]interface{}{
				"workspace_id": workspaceIDProp(),
				"name":         strProp("Unique name of the pattern"),
				"description":  strProp("What the pattern is and when to apply it"),
				"tags":         strArrayProp("Tags for categorization"),
			},
			required: []string{"workspace_id", "name"},
		},
		{
			name:        "get_system_patterns",
			description: "List system patterns with optional tag filters.",
			schema: map[string]interface{}{
				"workspace_id":            workspaceIDProp(),
				"tags_filter_include_all": strArrayProp("Only patterns carrying every one of these tags"),
				"tags_filter_include_any": strArrayProp("Only patterns carrying at least one of these tags"),
				"limit":                   intProp("Maximum number of patterns to return"),
			},
			required: []string{"workspace_id"},
		},
		{
			name:        "delete_system_pattern_by_id",
			description: "Delete a system pattern and its search index entry.",
			schema: map[string]interface{}{
				"workspace_id": workspaceIDProp(),
				"pattern_id":   intProp("ID of the pattern to delete"),
			},
			required: []string{"workspace_id", "pattern_id"},
		},
	}
}

func customDataToolDefs() []toolDef {
	return []toolDef{
		{
			name:        "log_custom_data",
			description: "Store a free-form JSON value under a (category, key) pair. Writing to an existing pair overwrites it.",
			schema: map[string]interface{}{
				"workspace_id": workspaceIDProp(),
				"category":     strProp("Grouping category, e.g. ProjectGlossary"),
				"key":          strProp("Key within the category"),
				"value":        map[string]interface{}{"description": "Arbitrary JSON value to store"},
			},
			required: []string{"workspace_id", "category", "key", "value"},
		},
		{
			name:        "get_custom_data",
			description: "Retrieve custom data: one value by (category, key), all values in a category, or everything.",
			schema: map[string]interface{}{
				"workspace_id": workspaceIDProp(),
				"category":     strProp("Category to read"),
				"key":          strProp("Key to read; requires category"),
			},
			required: []string{"workspace_id"},
		},
		{
			name:        "delete_custom_data",
			description: "Delete one custom data value by (category, key).",
			schema: map[string]interface{}{
				"workspace_id": workspaceIDProp(),
				"category":     strProp("Category of the value"),
				"key":          strProp("Key of the value"),
			},
			required: []string{"workspace_id", "category", "key"},
		},
		{
			name:        "search_custom_data_value_fts",
			description: "Full-text search over custom data categories, keys and stringified values.",
			schema: map[string]interface{}{
				"workspace_id":    workspaceIDProp(),
				"query_term":      strProp("Search term"),
				"category_filter": strProp("Restrict the search to one category"),
				"limit":           intProp("Maximum number of results (default 10)"),
			},
			required: []string{"workspace_id", "query_term"},
		},
		{
			name:        "search_project_glossary_fts",
			description: "Full-text search restricted to the ProjectGlossary custom data category.",
			schema: map[string]interface{}{
				"workspace_id": workspaceIDProp(),
				"query_term":   strProp("Search term"),
				"limit":        intProp("Maximum number of results (default 10)"),
			},
			required: []string{"workspace_id", "query_term"},
		},
	}
}

func linkToolDefs() []toolDef {
	return []toolDef{
		{
			name:        "link_conport_items",
			description: "Create a directed, typed relationship between two existing items.",
			schema: map[string]interface{}{
				"workspace_id":      workspaceIDProp(),
				"source_item_type":  strProp("Item type of the source, e.g. decision"),
				"source_item_id":    strProp("ID of the source item"),
				"target_item_type":  strProp("Item type of the target"),
				"target_item_id":    strProp("ID of the target item"),
				"relationship_type": strProp("Relationship label, e.g. implements"),
				"description":       strProp("Optional note on the relationship"),
			},
			required: []string{"workspace_id", "source_item_type", "source_item_id", "target_item_type", "target_item_id", "relationship_type"},
		},
		{
			name:        "get_linked_items",
			description: "List relationships where the given item appears as source or target.",
			schema: map[string]interface{}{
				"workspace_id":             workspaceIDProp(),
				"item_type":                strProp("Item type to look up"),
				"item_id":                  strProp("Item ID to look up"),
				"relationship_type_filter": strProp("Only relationships with this label"),
				"limit":                    intProp("Maximum number of links (default 50)"),
			},
			required: []string{"workspace_id", "item_type", "item_id"},
		},
	}
}

func metaToolDefs() []toolDef {
	return []toolDef{
		{
			name:        "batch_log_items",
			description: "Create many items of one type in a single call. Invalid items are reported individually without aborting the batch.",
			schema: map[string]interface{}{
				"workspace_id": workspaceIDProp(),
				"item_type": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"decision", "progress", "system_pattern", "custom_data"},
					"description": "Type of every item in the batch",
				},
				"items": map[string]interface{}{
					"type":        "array",
					"description": "Item payloads, each matching the create schema of item_type",
					"items":       map[string]interface{}{"type": "object"},
				},
			},
			required: []string{"workspace_id", "item_type", "items"},
		},
		{
			name:        "get_item_history",
			description: "List version history for the product or active context, newest first.",
			schema: map[string]interface{}{
				"workspace_id": workspaceIDProp(),
				"item_type": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"product_context", "active_context"},
					"description": "Which context's history to read",
				},
				"limit":            intProp("Maximum number of versions (default 10)"),
				"version":          intProp("Fetch one specific version"),
				"before_timestamp": strProp("Only versions recorded before this RFC 3339 timestamp"),
				"after_timestamp":  strProp("Only versions recorded after this RFC 3339 timestamp"),
			},
			required: []string{"workspace_id", "item_type"},
		},
		{
			name:        "get_recent_activity_summary",
			description: "Summarize recent decisions, progress entries and system patterns. since_timestamp takes precedence over hours_ago when both are given.",
			schema: map[string]interface{}{
				"workspace_id":    workspaceIDProp(),
				"since_timestamp": strProp("Only items at or after this RFC 3339 timestamp"),
				"hours_ago":       intProp("Look back this many hours from now"),
				"limit_per_type":  intProp("Maximum items per entity type (default 5)"),
			},
			required: []string{"workspace_id"},
		},
		{
			name:        "diff_context_versions",
			description: "Compute the edit operations between two history versions of the product or active context.",
			schema: map[string]interface{}{
				"workspace_id": workspaceIDProp(),
				"item_type": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"product_context", "active_context"},
					"description": "Which context to diff",
				},
				"version_a": intProp("Older version number"),
				"version_b": intProp("Newer version number"),
			},
			required: []string{"workspace_id", "item_type", "version_a", "version_b"},
		},
		{
			name:        "semantic_search_conport",
			description: "Search the workspace by meaning, with optional item type, category and tag filters.",
			schema: map[string]interface{}{
				"workspace_id":                  workspaceIDProp(),
				"query_text":                    strProp("Natural-language query"),
				"top_k":                         intProp("Number of results, 1 to 25 (default 5)"),
				"filter_item_types":             strArrayProp("Restrict to these item types"),
				"filter_custom_data_categories": strArrayProp("Restrict custom data hits to these categories"),
				"filter_tags_include_all":       strArrayProp("Only items carrying every one of these tags"),
				"filter_tags_include_any":       strArrayProp("Only items carrying at least one of these tags"),
			},
			required: []string{"workspace_id", "query_text"},
		},
		{
			name:        "export_conport_to_markdown",
			description: "Export workspace knowledge to markdown files under the workspace directory.",
			schema: map[string]interface{}{
				"workspace_id": workspaceIDProp(),
				"output_path":  strProp("Directory under the workspace to write into (default conport_export)"),
			},
			required: []string{"workspace_id"},
		},
		{
			name:        "import_markdown_to_conport",
			description: "Import previously exported markdown files back into the workspace.",
			schema: map[string]interface{}{
				"workspace_id": workspaceIDProp(),
				"input_path":   strProp("Directory under the workspace to read from (default conport_export)"),
			},
			required: []string{"workspace_id"},
		},
		{
			name:        "get_conport_schema",
			description: "Return the JSON schema of every available tool, keyed by tool name.",
			schema:      map[string]interface{}{"workspace_id": workspaceIDProp()},
			required:    []string{"workspace_id"},
		},
	}
}

// catalog returns every tool definition in registration order.
func catalog() []toolDef {
	var defs []toolDef
	defs = append(defs, contextToolDefs()...)
	defs = append(defs, decisionToolDefs()...)
	defs = append(defs, progressToolDefs()...)
	defs = append(defs, patternToolDefs()...)
	defs = append(defs, customDataToolDefs()...)
	defs = append(defs, linkToolDefs()...)
	defs = append(defs, metaToolDefs()...)
	return defs
}
