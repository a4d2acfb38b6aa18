package script

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ErrNoScriptBlock is returned when a markdown document has no fenced
// script block.
var ErrNoScriptBlock = errors.New("no ```json script block found")

// IsMarkdown reports whether path names a markdown document.
func IsMarkdown(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

// ParseMarkdown extracts the first fenced code block tagged json (or
// untagged and starting with '[') and parses it as a script. When the
// script carries no _meta element, the first level-1 heading becomes its
// title.
func ParseMarkdown(source []byte) (*Script, error) {
	doc := goldmark.DefaultParser().Parse(text.NewReader(source))

	var block []byte
	var title string
	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := node.(type) {
		case *ast.Heading:
			if n.Level == 1 && title == "" {
				title = headingText(n, source)
			}
		case *ast.FencedCodeBlock:
			if block != nil {
				return ast.WalkSkipChildren, nil
			}
			lang := strings.ToLower(string(n.Language(source)))
			content := codeContent(n, source)
			if lang == "json" || (lang == "" && bytes.HasPrefix(bytes.TrimSpace(content), []byte("["))) {
				block = content
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}
	if block == nil {
		return nil, ErrNoScriptBlock
	}

	s, err := Parse(block)
	if err != nil {
		return nil, err
	}
	if _, ok := s.Meta(); !ok && title != "" {
		s.Elements = append([]Element{&Metadata{Name: title}}, s.Elements...)
	}
	return s, nil
}

// ReadFile parses the script at path, extracting it from markdown when
// the extension says so.
func ReadFile(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if IsMarkdown(path) {
		return ParseMarkdown(data)
	}
	return Parse(data)
}

// ReadAny reads r as JSON, or as markdown when markdown is set.
func ReadAny(r io.Reader, markdown bool) (*Script, error) {
	if !markdown {
		return ParseReader(r)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ParseMarkdown(data)
}

func headingText(n *ast.Heading, source []byte) string {
	var sb strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			sb.Write(t.Segment.Value(source))
		}
	}
	return strings.TrimSpace(sb.String())
}

func codeContent(n *ast.FencedCodeBlock, source []byte) []byte {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		buf.Write(line.Value(source))
	}
	return buf.Bytes()
}
