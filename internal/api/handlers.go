package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	stderrors "novaport-mcp/internal/errors"
	"novaport-mcp/internal/services"
	"novaport-mcp/internal/storage/sqlite"
	"novaport-mcp/pkg/types"
)

func (r *Router) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// contextKind resolves the {contextKind} route parameter.
func contextKind(req *http.Request) (sqlite.ContextKind, error) {
	switch chi.URLParam(req, "contextKind") {
	case "product":
		return sqlite.ContextProduct, nil
	case "active":
		return sqlite.ContextActive, nil
	default:
		return "", stderrors.NewValidation("contextKind", "must be 'product' or 'active'", chi.URLParam(req, "contextKind"))
	}
}

func (r *Router) handleGetContext(w http.ResponseWriter, req *http.Request) {
	kind, err := contextKind(req)
	if err != nil {
		writeError(w, err)
		return
	}
	content, err := bundle(req).Context.Get(req.Context(), kind)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, content)
}

func (r *Router) handleUpdateContext(w http.ResponseWriter, req *http.Request) {
	kind, err := contextKind(req)
	if err != nil {
		writeError(w, err)
		return
	}
	var p types.UpdateContextParams
	if err := decodeBody(req, &p); err != nil {
		writeError(w, err)
		return
	}
	content, err := bundle(req).Context.Update(req.Context(), kind, p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, content)
}

func (r *Router) handleContextHistory(w http.ResponseWriter, req *http.Request) {
	kind, err := contextKind(req)
	if err != nil {
		writeError(w, err)
		return
	}
	filter := types.HistoryFilter{Limit: queryInt(req, "limit")}
	if v := queryInt(req, "version"); v > 0 {
		filter.Version = &v
	}
	if filter.BeforeTimestamp, err = queryTime(req, "before_timestamp"); err != nil {
		writeError(w, err)
		return
	}
	if filter.AfterTimestamp, err = queryTime(req, "after_timestamp"); err != nil {
		writeError(w, err)
		return
	}
	history, err := bundle(req).Context.History(req.Context(), kind, filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (r *Router) handleContextDiff(w http.ResponseWriter, req *http.Request) {
	kind, err := contextKind(req)
	if err != nil {
		writeError(w, err)
		return
	}
	versionA := queryInt(req, "version_a")
	versionB := queryInt(req, "version_b")
	if versionA <= 0 || versionB <= 0 {
		writeError(w, stderrors.NewValidation("version_a/version_b", "both versions are required", nil))
		return
	}
	ops, err := bundle(req).Meta.DiffContextVersions(req.Context(), kind, versionA, versionB)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ops)
}

func (r *Router) handleLogDecision(w http.ResponseWriter, req *http.Request) {
	var p types.LogDecisionParams
	if err := decodeBody(req, &p); err != nil {
		writeError(w, err)
		return
	}
	d, err := bundle(req).Decision.Log(req.Context(), p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (r *Router) handleListDecisions(w http.ResponseWriter, req *http.Request) {
	filter := types.DecisionFilter{
		Limit:   queryInt(req, "limit"),
		TagsAll: queryList(req, "tags_all"),
		TagsAny: queryList(req, "tags_any"),
	}
	var err error
	if filter.Since, err = queryTime(req, "since"); err != nil {
		writeError(w, err)
		return
	}
	decisions, err := bundle(req).Decision.List(req.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, decisions)
}

func (r *Router) handleSearchDecisions(w http.ResponseWriter, req *http.Request) {
	decisions, err := bundle(req).Decision.SearchFTS(req.Context(),
		req.URL.Query().Get("q"), queryInt(req, "limit"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, decisions)
}

func (r *Router) handleDeleteDecision(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := bundle(req).Decision.Delete(req.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (r *Router) handleLogProgress(w http.ResponseWriter, req *http.Request) {
	var p types.LogProgressParams
	if err := decodeBody(req, &p); err != nil {
		writeError(w, err)
		return
	}
	e, err := bundle(req).Progress.Log(req.Context(), p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (r *Router) handleListProgress(w http.ResponseWriter, req *http.Request) {
	filter := types.ProgressFilter{
		Status: req.URL.Query().Get("status"),
		Limit:  queryInt(req, "limit"),
	}
	if parent := queryInt(req, "parent_id"); parent > 0 {
		parent64 := int64(parent)
		filter.ParentID = &parent64
	}
	var err error
	if filter.Since, err = queryTime(req, "since"); err != nil {
		writeError(w, err)
		return
	}
	entries, err := bundle(req).Progress.List(req.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (r *Router) handleUpdateProgress(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		writeError(w, err)
		return
	}
	var p types.UpdateProgressParams
	if err := decodeBody(req, &p); err != nil {
		writeError(w, err)
		return
	}
	p.ProgressID = id
	e, err := bundle(req).Progress.Update(req.Context(), p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (r *Router) handleDeleteProgress(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := bundle(req).Progress.Delete(req.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (r *Router) handleLogPattern(w http.ResponseWriter, req *http.Request) {
	var p types.LogSystemPatternParams
	if err := decodeBody(req, &p); err != nil {
		writeError(w, err)
		return
	}
	sp, err := bundle(req).Pattern.Log(req.Context(), p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sp)
}

func (r *Router) handleListPatterns(w http.ResponseWriter, req *http.Request) {
	patterns, err := bundle(req).Pattern.List(req.Context(), types.PatternFilter{
		TagsAll: queryList(req, "tags_all"),
		TagsAny: queryList(req, "tags_any"),
		Limit:   queryInt(req, "limit"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, patterns)
}

func (r *Router) handleDeletePattern(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := bundle(req).Pattern.Delete(req.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (r *Router) handleLogCustomData(w http.ResponseWriter, req *http.Request) {
	var p types.LogCustomDataParams
	if err := decodeBody(req, &p); err != nil {
		writeError(w, err)
		return
	}
	d, err := bundle(req).Custom.Log(req.Context(), p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (r *Router) handleGetCustomData(w http.ResponseWriter, req *http.Request) {
	category := req.URL.Query().Get("category")
	key := req.URL.Query().Get("key")
	b := bundle(req)
	if key != "" {
		if category == "" {
			writeError(w, stderrors.NewValidation("category", "required when key is provided", nil))
			return
		}
		d, err := b.Custom.Get(req.Context(), category, key)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, d)
		return
	}
	values, err := b.Custom.List(req.Context(), category)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, values)
}

func (r *Router) handleDeleteCustomData(w http.ResponseWriter, req *http.Request) {
	err := bundle(req).Custom.Delete(req.Context(),
		chi.URLParam(req, "category"), chi.URLParam(req, "key"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (r *Router) handleSearchCustomData(w http.ResponseWriter, req *http.Request) {
	values, err := bundle(req).Custom.SearchFTS(req.Context(),
		req.URL.Query().Get("q"), req.URL.Query().Get("category"), queryInt(req, "limit"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, values)
}

func (r *Router) handleSearchGlossary(w http.ResponseWriter, req *http.Request) {
	values, err := bundle(req).Custom.SearchGlossary(req.Context(),
		req.URL.Query().Get("q"), queryInt(req, "limit"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, values)
}

func (r *Router) handleCreateLink(w http.ResponseWriter, req *http.Request) {
	var p types.LinkItemsParams
	if err := decodeBody(req, &p); err != nil {
		writeError(w, err)
		return
	}
	link, err := bundle(req).Link.Create(req.Context(), p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, link)
}

func (r *Router) handleListLinks(w http.ResponseWriter, req *http.Request) {
	links, err := bundle(req).Link.List(req.Context(), types.LinkFilter{
		ItemType:         req.URL.Query().Get("item_type"),
		ItemID:           req.URL.Query().Get("item_id"),
		RelationshipType: req.URL.Query().Get("relationship_type"),
		Limit:            queryInt(req, "limit"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, links)
}

func (r *Router) handleBatchLogItems(w http.ResponseWriter, req *http.Request) {
	var body struct {
		ItemType string                   `json:"item_type"`
		Items    []map[string]interface{} `json:"items"`
	}
	if err := decodeBody(req, &body); err != nil {
		writeError(w, err)
		return
	}
	result, err := bundle(req).Meta.BatchLogItems(req.Context(), body.ItemType, body.Items)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (r *Router) handleRecentActivity(w http.ResponseWriter, req *http.Request) {
	since, err := queryTime(req, "since")
	if err != nil {
		writeError(w, err)
		return
	}
	activity, err := bundle(req).Meta.RecentActivity(req.Context(), services.RecentActivityParams{
		Since:    since,
		HoursAgo: queryInt(req, "hours_ago"),
		Limit:    queryInt(req, "limit_per_type"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, activity)
}

func (r *Router) handleSemanticSearch(w http.ResponseWriter, req *http.Request) {
	var p types.SemanticSearchParams
	if err := decodeBody(req, &p); err != nil {
		writeError(w, err)
		return
	}
	hits, err := bundle(req).Search.Semantic(req.Context(), p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hits)
}

func (r *Router) handleExport(w http.ResponseWriter, req *http.Request) {
	var body struct {
		OutputPath string `json:"output_path"`
	}
	if req.ContentLength > 0 {
		if err := decodeBody(req, &body); err != nil {
			writeError(w, err)
			return
		}
	}
	result, err := bundle(req).IO.Export(req.Context(), body.OutputPath)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (r *Router) handleImport(w http.ResponseWriter, req *http.Request) {
	var body struct {
		InputPath string `json:"input_path"`
	}
	if req.ContentLength > 0 {
		if err := decodeBody(req, &body); err != nil {
			writeError(w, err)
			return
		}
	}
	result, err := bundle(req).IO.Import(req.Context(), body.InputPath)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// queryList parses a comma-separated query parameter.
func queryList(req *http.Request, key string) []string {
	raw := req.URL.Query().Get(key)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
