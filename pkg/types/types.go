// Package types defines the entities persisted per workspace and the
// parameter records accepted by the tool and HTTP surfaces.
package types

import (
	"fmt"
	"time"
)

// Item types addressable by links, history, batch ingest and semantic
// search filters.
const (
	ItemTypeDecision       = "decision"
	ItemTypeProgress       = "progress_entry"
	ItemTypeSystemPattern  = "system_pattern"
	ItemTypeCustomData     = "custom_data"
	ItemTypeProductContext = "product_context"
	ItemTypeActiveContext  = "active_context"
)

// BatchItemTypes are the item types accepted by batch ingest. The batch
// surface uses "progress" as the short alias for progress entries.
var BatchItemTypes = []string{"decision", "progress", "system_pattern", "custom_data"}

// EmbeddingID builds the stable vector-store ID for a relational row.
func EmbeddingID(itemType string, rowID int64) string {
	return fmt.Sprintf("%s_%d", itemType, rowID)
}

// PatchDeleteSentinel removes a key when used as a patch value.
const PatchDeleteSentinel = "__DELETE__"

// ContextContent is the arbitrary JSON object held by a singleton
// context.
type ContextContent = map[string]interface{}

// Decision is a logged architectural or implementation decision.
type Decision struct {
	ID                    int64     `json:"id"`
	Timestamp             time.Time `json:"timestamp"`
	Summary               string    `json:"summary"`
	Rationale             string    `json:"rationale,omitempty"`
	ImplementationDetails string    `json:"implementation_details,omitempty"`
	Tags                  []string  `json:"tags"`
}

// ProgressEntry is a task or status entry, optionally parented to
// another entry. Children are attached one level deep on retrieval.
type ProgressEntry struct {
	ID          int64           `json:"id"`
	Timestamp   time.Time       `json:"timestamp"`
	Status      string          `json:"status"`
	Description string          `json:"description"`
	ParentID    *int64          `json:"parent_id,omitempty"`
	Children    []ProgressEntry `json:"children,omitempty"`
}

// SystemPattern names a recurring architectural pattern. Names are
// unique within a workspace.
type SystemPattern struct {
	ID          int64     `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Tags        []string  `json:"tags"`
}

// CustomData is a free-form JSON value addressed by (category, key).
// Writes are upserts.
type CustomData struct {
	ID        int64       `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	Category  string      `json:"category"`
	Key       string      `json:"key"`
	Value     interface{} `json:"value"`
}

// ContextLink relates two items of any type. Item IDs are strings so
// heterogeneous types link uniformly.
type ContextLink struct {
	ID               int64     `json:"id"`
	Timestamp        time.Time `json:"timestamp"`
	SourceItemType   string    `json:"source_item_type"`
	SourceItemID     string    `json:"source_item_id"`
	TargetItemType   string    `json:"target_item_type"`
	TargetItemID     string    `json:"target_item_id"`
	RelationshipType string    `json:"relationship_type"`
	Description      string    `json:"description,omitempty"`
}

// ContextHistory is one immutable version snapshot of a singleton
// context. Content holds the value the context had before the change.
type ContextHistory struct {
	ID           int64          `json:"id"`
	Timestamp    time.Time      `json:"timestamp"`
	Version      int            `json:"version"`
	Content      ContextContent `json:"content"`
	ChangeSource string         `json:"change_source,omitempty"`
}
