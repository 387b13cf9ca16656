// Package services implements the per-workspace operations on top of
// the relational and vector stores: entity CRUD with paired embedding
// upserts, singleton-context versioning, batch ingest, search and
// markdown import/export.
package services

import (
	"github.com/go-playground/validator/v10"

	"novaport-mcp/internal/embeddings"
	stderrors "novaport-mcp/internal/errors"
	"novaport-mcp/internal/logging"
	"novaport-mcp/internal/workspace"
)

// validate is the process-wide struct validator.
var validate = validator.New()

// Bundle groups every service for one acquired workspace. Construction
// is cheap; a bundle lives for one request.
type Bundle struct {
	Context  *ContextService
	Decision *DecisionService
	Progress *ProgressService
	Pattern  *PatternService
	Custom   *CustomDataService
	Link     *LinkService
	Meta     *MetaService
	Search   *SearchService
	IO       *IOService
}

// NewBundle wires the services for one workspace handle.
func NewBundle(ws *workspace.Workspace, embedder embeddings.Service) *Bundle {
	idx := &indexer{
		ws:       ws,
		embedder: embedder,
		logger:   logging.WithComponent("indexer"),
	}
	b := &Bundle{
		Context:  &ContextService{ws: ws},
		Decision: &DecisionService{ws: ws, idx: idx},
		Progress: &ProgressService{ws: ws, idx: idx},
		Pattern:  &PatternService{ws: ws, idx: idx},
		Custom:   &CustomDataService{ws: ws, idx: idx},
		Link:     &LinkService{ws: ws},
		Search:   &SearchService{ws: ws, embedder: embedder},
	}
	b.Meta = &MetaService{ws: ws, bundle: b}
	b.IO = &IOService{ws: ws, decisions: b.Decision}
	return b
}

// checkStruct runs validator tags and converts the first failure into a
// validation error naming the offending field.
func checkStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return stderrors.NewValidation(fe.Field(), "failed '"+fe.Tag()+"' constraint", fe.Value())
	}
	return stderrors.NewValidation("arguments", err.Error(), nil)
}
