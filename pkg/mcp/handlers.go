package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ormasoftchile/scriptcheck/pkg/kb"
	"github.com/ormasoftchile/scriptcheck/pkg/report"
	"github.com/ormasoftchile/scriptcheck/pkg/script"
	"github.com/ormasoftchile/scriptcheck/pkg/sorter"
	"github.com/ormasoftchile/scriptcheck/pkg/validate"
)

// Handlers implements the scriptcheck tools over one knowledge base.
type Handlers struct {
	look      kb.Lookup
	validator *validate.Validator
	ordered   *validate.Validator
	sorter    *sorter.Sorter
}

// NewHandlers builds tool handlers. A nil look uses the embedded knowledge
// base.
func NewHandlers(look kb.Lookup, opts validate.Options) *Handlers {
	if look == nil {
		look = kb.Default()
	}
	ordered := opts
	ordered.ScriptOrder = true
	return &Handlers{
		look:      look,
		validator: validate.New(look, opts),
		ordered:   validate.New(look, ordered),
		sorter:    sorter.New(look),
	}
}

// Validate implements the scriptcheck/validate tool.
func (h *Handlers) Validate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sc, errRes := loadScript(args)
	if errRes != nil {
		return errRes, nil
	}

	v := h.validator
	if order, _ := args["order"].(bool); order {
		v = h.ordered
	}
	findings := v.Validate(sc)
	if raw, _ := args["min_severity"].(string); raw != "" {
		floor, err := kb.ParseSeverity(raw)
		if err != nil {
			return errorResult(err.Error()), nil
		}
		findings = validate.Filter(findings, floor)
	}

	path, _ := args["path"].(string)
	return jsonResult(report.New(path, sc.Title(), findings, sc.Lookup(h.look), v.Label))
}

// Sort implements the scriptcheck/sort tool.
func (h *Handlers) Sort(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sc, errRes := loadScript(args)
	if errRes != nil {
		return errRes, nil
	}
	sorted := h.sorter.Sort(sc)
	if explain, _ := args["explain"].(bool); !explain {
		return jsonResult(sorted)
	}
	explanation := h.sorter.ExplainScript(sorted)
	if explanation == nil {
		explanation = []string{}
	}
	return jsonResult(map[string]any{"script": sorted, "explanation": explanation})
}

// Rules implements the scriptcheck/rules tool.
func (h *Handlers) Rules(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(h.validator.Rules())
}

// HandleSchema implements the scriptcheck/schema tool.
func HandleSchema(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	schemaType, _ := args["type"].(string)

	var data []byte
	var err error

	switch schemaType {
	case "script":
		data, err = script.GenerateJSONSchema()
	case "characters":
		data, err = kb.GenerateCharactersJSONSchema()
	case "considerations":
		data, err = kb.GenerateConsiderationsJSONSchema()
	default:
		return errorResult(fmt.Sprintf("unknown schema type %q: use 'script', 'characters', or 'considerations'", schemaType)), nil
	}

	if err != nil {
		return errorResult(err.Error()), nil
	}
	return textResult(string(data)), nil
}

// loadScript reads the script from the "script" or "path" argument.
func loadScript(args map[string]any) (*script.Script, *mcp.CallToolResult) {
	text, _ := args["script"].(string)
	path, _ := args["path"].(string)

	var sc *script.Script
	var err error
	switch {
	case text != "":
		sc, err = script.Parse([]byte(text))
	case path != "":
		sc, err = script.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errorResult(fmt.Sprintf("read script: %s", err))
		}
	default:
		return nil, errorResult("script or path argument is required")
	}
	if err != nil {
		return nil, errorResult(err.Error())
	}
	return sc, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return textResult(string(data)), nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(msg),
		},
		IsError: true,
	}
}
