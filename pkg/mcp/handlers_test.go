package mcp

import (
	"context"
	"encoding/json"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ormasoftchile/scriptcheck/pkg/validate"
)

func testdataDir() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "..", "..", "testdata")
}

func call(t *testing.T, fn func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) (*mcp.CallToolResult, string) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	result, err := fn(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Content) == 0 {
		t.Fatal("expected content")
	}
	return result, text(result.Content[0])
}

func text(c mcp.Content) string {
	switch tc := c.(type) {
	case mcp.TextContent:
		return tc.Text
	case *mcp.TextContent:
		return tc.Text
	}
	return ""
}

func TestHandleValidate_MissingScript(t *testing.T) {
	h := NewHandlers(nil, validate.Options{})
	result, _ := call(t, h.Validate, map[string]any{})
	if !result.IsError {
		t.Error("expected error for missing script")
	}
}

func TestHandleValidate_Path(t *testing.T) {
	h := NewHandlers(nil, validate.Options{})
	path := filepath.Join(testdataDir(), "scripts", "low-misinfo.json")
	result, body := call(t, h.Validate, map[string]any{"path": path})
	if result.IsError {
		t.Fatalf("unexpected error: %s", body)
	}
	var resp struct {
		File     string `json:"file"`
		Title    string `json:"title"`
		Findings []struct {
			ID         string   `json:"id"`
			Severity   string   `json:"severity"`
			Characters []string `json:"characters"`
		} `json:"findings"`
	}
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		t.Fatalf("decode: %v\n%s", err, body)
	}
	if resp.File != path || resp.Title != "Low Misinformation" {
		t.Errorf("file/title = %q/%q", resp.File, resp.Title)
	}
	var misinfo int
	for _, f := range resp.Findings {
		if f.ID == string(validate.RuleMisinfo) {
			misinfo++
			if f.Severity != "low" || len(f.Characters) != 1 || f.Characters[0] != "poisoner" {
				t.Errorf("misinfo finding = %+v", f)
			}
		}
	}
	if misinfo != 1 {
		t.Errorf("misinfo findings = %d, want 1", misinfo)
	}
}

func TestHandleValidate_Inline(t *testing.T) {
	h := NewHandlers(nil, validate.Options{})
	_, body := call(t, h.Validate, map[string]any{"script": `["imp", "chef"]`, "order": true})
	if !strings.Contains(body, `"script-order"`) {
		t.Errorf("expected script-order finding: %s", body)
	}

	_, body = call(t, h.Validate, map[string]any{"script": `["imp", "chef"]`, "order": true, "min_severity": "medium"})
	if strings.Contains(body, `"low"`) {
		t.Errorf("low findings should be filtered: %s", body)
	}
}

func TestHandleValidate_BadInput(t *testing.T) {
	h := NewHandlers(nil, validate.Options{})
	tests := []map[string]any{
		{"script": `{"id": "_meta"}`},
		{"script": `["chef"`},
		{"path": filepath.Join(t.TempDir(), "missing.json")},
		{"script": `["chef"]`, "min_severity": "critical"},
	}
	for _, args := range tests {
		result, body := call(t, h.Validate, args)
		if !result.IsError {
			t.Errorf("args %v: expected error, got %s", args, body)
		}
	}
}

func TestHandleSort(t *testing.T) {
	h := NewHandlers(nil, validate.Options{})
	_, body := call(t, h.Sort, map[string]any{"script": `["imp", {"id": "_meta", "name": "S"}, "chef"]`})
	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(body), &elems); err != nil {
		t.Fatalf("decode: %v\n%s", err, body)
	}
	if len(elems) != 3 || !strings.Contains(string(elems[0]), "_meta") || string(elems[1]) != `"chef"` {
		t.Errorf("sorted = %s", body)
	}

	_, body = call(t, h.Sort, map[string]any{"script": `["imp", "chef"]`, "explain": true})
	if !strings.Contains(body, "Chef comes before Imp") {
		t.Errorf("missing explanation: %s", body)
	}
}

func TestHandleRules(t *testing.T) {
	h := NewHandlers(nil, validate.Options{Disable: []validate.RuleID{validate.RuleMisinfo}})
	_, body := call(t, h.Rules, map[string]any{})
	var rules []validate.Rule
	if err := json.Unmarshal([]byte(body), &rules); err != nil {
		t.Fatal(err)
	}
	for _, r := range rules {
		if r.ID == validate.RuleMisinfo {
			t.Error("disabled rule listed")
		}
	}
	if len(rules) != len(validate.Labels())-2 {
		t.Errorf("got %d rules, want all but misinfo and script-order", len(rules))
	}
}

func TestHandleSchema(t *testing.T) {
	for _, typ := range []string{"script", "characters", "considerations"} {
		result, body := call(t, HandleSchema, map[string]any{"type": typ})
		if result.IsError {
			t.Errorf("%s: unexpected error %s", typ, body)
		}
		if !json.Valid([]byte(body)) {
			t.Errorf("%s: schema is not JSON", typ)
		}
	}
}

func TestHandleSchema_UnknownType(t *testing.T) {
	result, _ := call(t, HandleSchema, map[string]any{"type": "foo"})
	if !result.IsError {
		t.Error("expected error for unknown schema type")
	}
}

func TestNewServer(t *testing.T) {
	if s := NewServer("test", NewHandlers(nil, validate.Options{})); s == nil {
		t.Fatal("nil server")
	}
}
