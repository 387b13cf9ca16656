package types

import "time"

// UpdateContextParams carries a singleton-context mutation. Exactly one
// of Content and PatchContent must be set; PatchContent merges shallowly
// and treats PatchDeleteSentinel values as key removals.
type UpdateContextParams struct {
	Content      ContextContent `json:"content,omitempty" mapstructure:"content"`
	PatchContent ContextContent `json:"patch_content,omitempty" mapstructure:"patch_content"`
}

// LogDecisionParams creates a decision.
type LogDecisionParams struct {
	Summary               string   `json:"summary" mapstructure:"summary" validate:"required,min=1"`
	Rationale             string   `json:"rationale,omitempty" mapstructure:"rationale"`
	ImplementationDetails string   `json:"implementation_details,omitempty" mapstructure:"implementation_details"`
	Tags                  []string `json:"tags,omitempty" mapstructure:"tags"`
}

// DecisionFilter selects decisions for list operations.
type DecisionFilter struct {
	Limit   int        `json:"limit,omitempty" mapstructure:"limit"`
	TagsAll []string   `json:"tags_filter_include_all,omitempty" mapstructure:"tags_filter_include_all"`
	TagsAny []string   `json:"tags_filter_include_any,omitempty" mapstructure:"tags_filter_include_any"`
	Since   *time.Time `json:"since,omitempty" mapstructure:"-"`
}

// LogProgressParams creates a progress entry, optionally linking it to
// an existing item in the same call.
type LogProgressParams struct {
	Status      string `json:"status" mapstructure:"status" validate:"required,min=1"`
	Description string `json:"description" mapstructure:"description" validate:"required,min=1"`
	ParentID    *int64 `json:"parent_id,omitempty" mapstructure:"parent_id"`

	LinkedItemType       string `json:"linked_item_type,omitempty" mapstructure:"linked_item_type"`
	LinkedItemID         string `json:"linked_item_id,omitempty" mapstructure:"linked_item_id"`
	LinkRelationshipType string `json:"link_relationship_type,omitempty" mapstructure:"link_relationship_type"`
}

// UpdateProgressParams mutates an existing progress entry. Nil fields
// are left unchanged.
type UpdateProgressParams struct {
	ProgressID  int64   `json:"progress_id" mapstructure:"progress_id" validate:"required"`
	Status      *string `json:"status,omitempty" mapstructure:"status"`
	Description *string `json:"description,omitempty" mapstructure:"description"`
	ParentID    *int64  `json:"parent_id,omitempty" mapstructure:"parent_id"`
}

// ProgressFilter selects progress entries for list operations.
type ProgressFilter struct {
	Status   string     `json:"status_filter,omitempty" mapstructure:"status_filter"`
	ParentID *int64     `json:"parent_id_filter,omitempty" mapstructure:"parent_id_filter"`
	Limit    int        `json:"limit,omitempty" mapstructure:"limit"`
	Since    *time.Time `json:"since,omitempty" mapstructure:"-"`
}

// LogSystemPatternParams creates a system pattern.
type LogSystemPatternParams struct {
	Name        string   `json:"name" mapstructure:"name" validate:"required,min=1"`
	Description string   `json:"description,omitempty" mapstructure:"description"`
	Tags        []string `json:"tags,omitempty" mapstructure:"tags"`
}

// PatternFilter selects system patterns for list operations.
type PatternFilter struct {
	TagsAll []string `json:"tags_filter_include_all,omitempty" mapstructure:"tags_filter_include_all"`
	TagsAny []string `json:"tags_filter_include_any,omitempty" mapstructure:"tags_filter_include_any"`
	Limit   int      `json:"limit,omitempty" mapstructure:"limit"`
}

// LogCustomDataParams upserts a custom data value under (category, key).
type LogCustomDataParams struct {
	Category string      `json:"category" mapstructure:"category" validate:"required,min=1"`
	Key      string      `json:"key" mapstructure:"key" validate:"required,min=1"`
	Value    interface{} `json:"value" mapstructure:"value"`
}

// LinkItemsParams relates two existing items.
type LinkItemsParams struct {
	SourceItemType   string `json:"source_item_type" mapstructure:"source_item_type" validate:"required,min=1"`
	SourceItemID     string `json:"source_item_id" mapstructure:"source_item_id" validate:"required,min=1"`
	TargetItemType   string `json:"target_item_type" mapstructure:"target_item_type" validate:"required,min=1"`
	TargetItemID     string `json:"target_item_id" mapstructure:"target_item_id" validate:"required,min=1"`
	RelationshipType string `json:"relationship_type" mapstructure:"relationship_type" validate:"required,min=1"`
	Description      string `json:"description,omitempty" mapstructure:"description"`
}

// LinkFilter selects links touching one item as source or target.
type LinkFilter struct {
	ItemType         string `json:"item_type" mapstructure:"item_type" validate:"required,min=1"`
	ItemID           string `json:"item_id" mapstructure:"item_id" validate:"required,min=1"`
	RelationshipType string `json:"relationship_type_filter,omitempty" mapstructure:"relationship_type_filter"`
	Limit            int    `json:"limit,omitempty" mapstructure:"limit"`
}

// HistoryFilter selects history rows for one singleton context.
type HistoryFilter struct {
	Limit           int        `json:"limit,omitempty" mapstructure:"limit"`
	Version         *int       `json:"version,omitempty" mapstructure:"version"`
	BeforeTimestamp *time.Time `json:"before_timestamp,omitempty" mapstructure:"-"`
	AfterTimestamp  *time.Time `json:"after_timestamp,omitempty" mapstructure:"-"`
}

// SemanticSearchParams drives a vector query with composable metadata
// filters.
type SemanticSearchParams struct {
	QueryText            string   `json:"query_text" mapstructure:"query_text" validate:"required,min=1"`
	TopK                 int      `json:"top_k,omitempty" mapstructure:"top_k"`
	ItemTypes            []string `json:"filter_item_types,omitempty" mapstructure:"filter_item_types"`
	CustomDataCategories []string `json:"filter_custom_data_categories,omitempty" mapstructure:"filter_custom_data_categories"`
	TagsAll              []string `json:"filter_tags_include_all,omitempty" mapstructure:"filter_tags_include_all"`
	TagsAny              []string `json:"filter_tags_include_any,omitempty" mapstructure:"filter_tags_include_any"`
}

// BatchResult reports the outcome of a mixed-validity batch ingest.
type BatchResult struct {
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
	Details   []BatchItemError `json:"details"`
}

// BatchItemError pairs one failed batch item with its error message.
type BatchItemError struct {
	Item  interface{} `json:"item"`
	Error string      `json:"error"`
}

// DiffOp is one edit operation in a context-version diff. Op is "add",
// "remove" or "change"; Path walks keys into the nested object; Value
// holds the added/removed value, or [old, new] for a change.
type DiffOp struct {
	Op    string      `json:"op"`
	Path  []string    `json:"path"`
	Value interface{} `json:"value"`
}

// RecentActivity groups the most recent items per entity type.
type RecentActivity struct {
	Decisions      []Decision      `json:"decisions"`
	Progress       []ProgressEntry `json:"progress"`
	SystemPatterns []SystemPattern `json:"system_patterns"`
}
