package treesitter

import (
	"strings"

	"github.com/panbanda/triage/pkg/ast"
	"github.com/panbanda/triage/pkg/parser"
	sitter "github.com/smacker/go-tree-sitter"
)

// kindTable maps raw grammar node types to lowered kinds.
type kindTable map[string]ast.NodeKind

// merge returns a new table with the entries of extra layered over t.
func (t kindTable) merge(extra kindTable) kindTable {
	out := make(kindTable, len(t)+len(extra))
	for k, v := range t {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// cLike covers the statement names shared by the brace-family grammars.
var cLike = kindTable{
	"if_statement":           ast.KindIf,
	"ternary_expression":     ast.KindTernary,
	"conditional_expression": ast.KindTernary,
	"for_statement":          ast.KindFor,
	"while_statement":        ast.KindWhile,
	"do_statement":           ast.KindDoWhile,
	"switch_statement":       ast.KindSwitch,
	"try_statement":          ast.KindTry,
	"catch_clause":           ast.KindCatch,
}

var jsRules = cLike.merge(kindTable{
	"for_in_statement":               ast.KindForIn, // also for-of
	"switch_case":                    ast.KindCase,
	"switch_default":                 ast.KindDefault,
	"function_declaration":           ast.KindFunction,
	"function":                       ast.KindFunction,
	"function_expression":            ast.KindFunction,
	"generator_function_declaration": ast.KindFunction,
	"generator_function":             ast.KindFunction,
	"arrow_function":                 ast.KindFunction,
	"method_definition":              ast.KindFunction,
})

var languageRules = map[parser.Language]kindTable{
	parser.LangJavaScript: jsRules,
	parser.LangTypeScript: jsRules,
	parser.LangTSX:        jsRules,
	parser.LangGo: cLike.merge(kindTable{
		"expression_switch_statement": ast.KindSwitch,
		"type_switch_statement":       ast.KindSwitch,
		"select_statement":            ast.KindSwitch,
		"expression_case":             ast.KindCase,
		"type_case":                   ast.KindCase,
		"communication_case":          ast.KindCase,
		"default_case":                ast.KindDefault,
		"function_declaration":        ast.KindFunction,
		"method_declaration":          ast.KindFunction,
		"func_literal":                ast.KindFunction,
	}),
	parser.LangPython: {
		"if_statement":           ast.KindIf,
		"elif_clause":            ast.KindIf,
		"conditional_expression": ast.KindTernary,
		"for_statement":          ast.KindForIn,
		"while_statement":        ast.KindWhile,
		"try_statement":          ast.KindTry,
		"except_clause":          ast.KindCatch,
		"match_statement":        ast.KindSwitch,
		"case_clause":            ast.KindCase,
		"boolean_operator":       ast.KindLogical,
		"function_definition":    ast.KindFunction,
	},
	parser.LangJava: cLike.merge(kindTable{
		"enhanced_for_statement":  ast.KindForIn,
		"switch_expression":       ast.KindSwitch,
		"method_declaration":      ast.KindFunction,
		"constructor_declaration": ast.KindFunction,
	}),
	parser.LangC: cLike.merge(kindTable{
		"function_definition": ast.KindFunction,
	}),
	parser.LangCPP: cLike.merge(kindTable{
		"for_range_loop":      ast.KindForIn,
		"function_definition": ast.KindFunction,
		"lambda_expression":   ast.KindFunction,
	}),
	parser.LangCSharp: cLike.merge(kindTable{
		"foreach_statement":         ast.KindForIn,
		"switch_expression":         ast.KindSwitch,
		"case_switch_label":         ast.KindCase,
		"case_pattern_switch_label": ast.KindCase,
		"default_switch_label":      ast.KindDefault,
		"method_declaration":        ast.KindFunction,
		"constructor_declaration":   ast.KindFunction,
		"local_function_statement":  ast.KindFunction,
	}),
	parser.LangPHP: cLike.merge(kindTable{
		"else_if_clause":      ast.KindIf,
		"foreach_statement":   ast.KindForIn,
		"case_statement":      ast.KindCase,
		"default_statement":   ast.KindDefault,
		"function_definition": ast.KindFunction,
		"method_declaration":  ast.KindFunction,
		"anonymous_function":  ast.KindFunction,
		"arrow_function":      ast.KindFunction,
	}),
	parser.LangRuby: {
		"if":               ast.KindIf,
		"elsif":            ast.KindIf,
		"unless":           ast.KindIf,
		"if_modifier":      ast.KindIf,
		"unless_modifier":  ast.KindIf,
		"conditional":      ast.KindTernary,
		"for":              ast.KindForIn,
		"while":            ast.KindWhile,
		"until":            ast.KindWhile,
		"while_modifier":   ast.KindWhile,
		"until_modifier":   ast.KindWhile,
		"case":             ast.KindSwitch,
		"when":             ast.KindCase,
		"begin":            ast.KindTry,
		"rescue":           ast.KindCatch,
		"method":           ast.KindFunction,
		"singleton_method": ast.KindFunction,
	},
	parser.LangRust: {
		"if_expression":      ast.KindIf,
		"if_let_expression":  ast.KindIf,
		"for_expression":     ast.KindForIn,
		"while_expression":   ast.KindWhile,
		"loop_expression":    ast.KindWhile,
		"match_expression":   ast.KindSwitch,
		"match_arm":          ast.KindCase,
		"function_item":      ast.KindFunction,
		"closure_expression": ast.KindFunction,
	},
	parser.LangBash: {
		"if_statement":          ast.KindIf,
		"elif_clause":           ast.KindIf,
		"for_statement":         ast.KindForIn,
		"c_style_for_statement": ast.KindFor,
		"while_statement":       ast.KindWhile,
		"case_statement":        ast.KindSwitch,
		"case_item":             ast.KindCase,
		"function_definition":   ast.KindFunction,
	},
}

// logicalOperators are the short-circuit operators counted as decisions.
var logicalOperators = map[string]bool{
	"&&":  true,
	"||":  true,
	"and": true,
	"or":  true,
}

// classify returns the lowered kind for a grammar node. Node types whose
// meaning depends on their children (case labels, binary operators) are
// resolved here rather than in the static tables.
func classify(lang parser.Language, node *sitter.Node, nodeType string, source []byte) (ast.NodeKind, string) {
	// Keyword tokens share their type name with the construct ("if", "function").
	if !node.IsNamed() {
		return ast.KindOther, ""
	}

	switch nodeType {
	case "binary_expression", "binary":
		if op := operator(node, source); logicalOperators[op] {
			return ast.KindLogical, op
		}
		return ast.KindOther, ""
	case "case_statement":
		// C and C++ reuse case_statement for default; PHP and Bash are table driven.
		if lang == parser.LangC || lang == parser.LangCPP {
			if node.ChildByFieldName("value") == nil {
				return ast.KindDefault, ""
			}
			return ast.KindCase, ""
		}
	case "switch_label":
		if strings.HasPrefix(strings.TrimSpace(parser.GetNodeText(node, source)), "default") {
			return ast.KindDefault, ""
		}
		return ast.KindCase, ""
	}

	rules, ok := languageRules[lang]
	if !ok {
		return ast.KindOther, ""
	}
	kind := rules[nodeType]
	if kind == ast.KindLogical && nodeType == "boolean_operator" {
		return kind, operator(node, source)
	}
	return kind, ""
}

// operator extracts the operator token of a binary node.
func operator(node *sitter.Node, source []byte) string {
	if op := node.ChildByFieldName("operator"); op != nil {
		return op.Type()
	}
	for i := range int(node.ChildCount()) {
		child := node.Child(i)
		if child.IsNamed() {
			continue
		}
		t := child.Type()
		if logicalOperators[t] {
			return t
		}
	}
	return ""
}

// functionName resolves the identifier of a function node, or "" when the
// function is anonymous.
func functionName(lang parser.Language, node *sitter.Node, source []byte) string {
	if lang == parser.LangC || lang == parser.LangCPP {
		return declaratorName(node.ChildByFieldName("declarator"), source)
	}
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		return parser.GetNodeText(nameNode, source)
	}
	return ""
}

// declaratorName follows C declarator chains (pointer, function, reference)
// down to the identifier.
func declaratorName(node *sitter.Node, source []byte) string {
	for depth := 0; node != nil && depth < 8; depth++ {
		switch node.Type() {
		case "identifier", "field_identifier", "qualified_identifier",
			"destructor_name", "operator_name":
			return parser.GetNodeText(node, source)
		}
		next := node.ChildByFieldName("declarator")
		if next == nil {
			return ""
		}
		node = next
	}
	return ""
}
