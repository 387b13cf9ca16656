package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"novaport-mcp/internal/config"
	stderrors "novaport-mcp/internal/errors"
	"novaport-mcp/internal/workspace"
	"novaport-mcp/pkg/types"
)

const decisionsFileName = "decisions.md"

// IOService exports workspace knowledge to markdown files and imports
// them back.
type IOService struct {
	ws        *workspace.Workspace
	decisions *DecisionService
}

// ExportResult reports which files an export produced.
type ExportResult struct {
	Status       string   `json:"status"`
	FilesCreated []string `json:"files_created"`
}

// ImportResult reports the outcome of a markdown import.
type ImportResult struct {
	Status   string `json:"status"`
	Imported int    `json:"imported,omitempty"`
	Failed   int    `json:"failed,omitempty"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Export writes decisions.md under <workspace>/<outDir>, creating the
// directory. With no decisions logged, no file is written.
func (s *IOService) Export(ctx context.Context, outDir string) (*ExportResult, error) {
	if outDir == "" {
		outDir = config.ExportDirName
	}
	decisions, err := s.ws.Store.AllDecisions(ctx)
	if err != nil {
		return nil, err
	}
	if len(decisions) == 0 {
		return &ExportResult{Status: "success", FilesCreated: []string{}}, nil
	}

	dir := filepath.Join(s.ws.Paths.Root, outDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, stderrors.NewInternal("create export directory", err)
	}
	path := filepath.Join(dir, decisionsFileName)
	if err := os.WriteFile(path, []byte(renderDecisions(decisions)), 0o644); err != nil {
		return nil, stderrors.NewInternal("write decisions.md", err)
	}
	return &ExportResult{Status: "success", FilesCreated: []string{filepath.Join(outDir, decisionsFileName)}}, nil
}

// renderDecisions produces the decision log markdown: one H1, then one
// H2 block per decision with the optional fields omitted when absent.
func renderDecisions(decisions []types.Decision) string {
	var b strings.Builder
	b.WriteString("# Decision Log\n\n")
	for _, d := range decisions {
		fmt.Fprintf(&b, "## %s\n\n", d.Summary)
		fmt.Fprintf(&b, "**Timestamp:** %s\n\n", d.Timestamp.UTC().Format(time.RFC3339))
		if d.Rationale != "" {
			fmt.Fprintf(&b, "**Rationale:**\n%s\n\n", d.Rationale)
		}
		if d.ImplementationDetails != "" {
			fmt.Fprintf(&b, "**Implementation Details:**\n%s\n\n", d.ImplementationDetails)
		}
		if len(d.Tags) > 0 {
			fmt.Fprintf(&b, "**Tags:** %s\n\n", strings.Join(d.Tags, ", "))
		}
		b.WriteString("---\n\n")
	}
	return b.String()
}

// Import reads decisions.md from <workspace>/<inDir> and recreates the
// decisions it describes. Malformed blocks are counted, well-formed
// blocks are imported.
func (s *IOService) Import(ctx context.Context, inDir string) (*ImportResult, error) {
	if inDir == "" {
		inDir = config.ExportDirName
	}
	path := filepath.Join(s.ws.Paths.Root, inDir, decisionsFileName)
	src, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &ImportResult{Status: "failed", Error: "decisions.md not found"}, nil
		}
		return nil, stderrors.NewInternal("read decisions.md", err)
	}

	blocks := parseDecisionBlocks(src)
	imported, failed := 0, 0
	for _, blk := range blocks {
		if blk.Summary == "" {
			failed++
			continue
		}
		_, err := s.decisions.Log(ctx, types.LogDecisionParams{
			Summary:               blk.Summary,
			Rationale:             blk.Rationale,
			ImplementationDetails: blk.ImplementationDetails,
			Tags:                  blk.Tags,
		})
		if err != nil {
			failed++
			continue
		}
		imported++
	}
	return &ImportResult{
		Status:   "completed",
		Imported: imported,
		Failed:   failed,
		Message:  fmt.Sprintf("imported %d decisions, %d malformed or failed", imported, failed),
	}, nil
}

// decisionBlock is one parsed "## summary" section of decisions.md.
type decisionBlock struct {
	Summary               string
	Rationale             string
	ImplementationDetails string
	Tags                  []string
}

// parseDecisionBlocks walks the markdown AST. A level-2 heading opens a
// block, a thematic break closes it; labeled bold paragraphs inside the
// block carry the optional fields.
func parseDecisionBlocks(src []byte) []decisionBlock {
	doc := goldmark.DefaultParser().Parse(text.NewReader(src))

	var blocks []decisionBlock
	var current *decisionBlock
	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		switch n := node.(type) {
		case *ast.Heading:
			if n.Level != 2 {
				continue
			}
			if current != nil {
				blocks = append(blocks, *current)
			}
			current = &decisionBlock{Summary: strings.TrimSpace(nodeText(n, src))}
		case *ast.ThematicBreak:
			if current != nil {
				blocks = append(blocks, *current)
				current = nil
			}
		case *ast.Paragraph:
			if current == nil {
				continue
			}
			label, body := splitLabeledParagraph(n, src)
			switch label {
			case "Rationale:":
				current.Rationale = body
			case "Implementation Details:":
				current.ImplementationDetails = body
			case "Tags:":
				current.Tags = splitTags(body)
			}
		}
	}
	if current != nil {
		blocks = append(blocks, *current)
	}
	return blocks
}

// splitLabeledParagraph separates a leading bold label ("**Label:**")
// from the rest of the paragraph text. Paragraphs without a leading
// bold span return an empty label.
func splitLabeledParagraph(p *ast.Paragraph, src []byte) (label, body string) {
	first := p.FirstChild()
	em, ok := first.(*ast.Emphasis)
	if !ok || em.Level != 2 {
		return "", ""
	}
	label = strings.TrimSpace(nodeText(em, src))

	var b strings.Builder
	for node := first.NextSibling(); node != nil; node = node.NextSibling() {
		b.WriteString(nodeText(node, src))
	}
	return label, strings.TrimSpace(b.String())
}

// nodeText flattens the text content of an inline subtree, preserving
// soft line breaks as newlines.
func nodeText(node ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, ok := n.(*ast.Text); ok {
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte('\n')
			}
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
