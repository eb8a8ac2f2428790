// Package treesitter lowers tree-sitter parse trees into ast.Node trees.
package treesitter

import (
	"context"

	"github.com/panbanda/triage/pkg/ast"
	"github.com/panbanda/triage/pkg/parser"
	sitter "github.com/smacker/go-tree-sitter"
)

// Supported reports whether functions in path can be lowered and scored.
func Supported(path string) bool {
	_, ok := languageRules[parser.DetectLanguage(path)]
	return ok
}

// ParseFile parses content with psr and lowers the result. The tree-sitter
// tree is released before returning.
func ParseFile(ctx context.Context, psr *parser.Parser, path string, content []byte) (*ast.File, error) {
	result, err := psr.ParseSource(ctx, content, path)
	if err != nil {
		return nil, err
	}
	defer result.Close()

	return Lower(result), nil
}

// Lower converts a parse result into a lowered file.
func Lower(result *parser.ParseResult) *ast.File {
	root := result.Tree.RootNode()
	lowered := &ast.Node{
		Kind:      ast.KindRoot,
		Type:      root.Type(),
		StartLine: int(root.StartPoint().Row) + 1,
		EndLine:   int(root.EndPoint().Row) + 1,
	}
	l := lowerer{lang: result.Language, source: result.Source}
	for i := range int(root.ChildCount()) {
		l.lower(root.Child(i), lowered)
	}
	return &ast.File{
		Path:     result.Path,
		Language: string(result.Language),
		Root:     lowered,
	}
}

type lowerer struct {
	lang   parser.Language
	source []byte
}

// lower appends the lowered form of node to parent. Nodes of no interest are
// elided and their children attached to parent directly.
func (l *lowerer) lower(node *sitter.Node, parent *ast.Node) {
	if node == nil {
		return
	}

	nodeType := node.Type()
	kind, op := classify(l.lang, node, nodeType, l.source)

	target := parent
	if kind != ast.KindOther {
		n := &ast.Node{
			Kind:      kind,
			Type:      nodeType,
			Operator:  op,
			StartLine: int(node.StartPoint().Row) + 1,
			EndLine:   int(node.EndPoint().Row) + 1,
		}
		switch kind {
		case ast.KindFunction:
			n.Name = functionName(l.lang, node, l.source)
			if n.Name == "" {
				n.Name = ast.AnonymousName
			}
		case ast.KindIf:
			n.Chained = isElseBranch(node, nodeType)
		}
		parent.Children = append(parent.Children, n)
		target = n
	}

	for i := range int(node.ChildCount()) {
		l.lower(node.Child(i), target)
	}
}

// isElseBranch reports whether an if node continues an if/else chain rather
// than opening a new level.
func isElseBranch(node *sitter.Node, nodeType string) bool {
	switch nodeType {
	case "elif_clause", "elsif", "else_if_clause":
		return true
	}
	parent := node.Parent()
	if parent == nil {
		return false
	}
	if parent.Type() == "else_clause" {
		return true
	}
	alt := parent.ChildByFieldName("alternative")
	return alt != nil && alt.StartByte() == node.StartByte() && alt.EndByte() == node.EndByte()
}
