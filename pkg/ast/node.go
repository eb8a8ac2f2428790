package ast

// NodeKind is the construct a lowered node represents.
type NodeKind uint8

const (
	KindOther NodeKind = iota
	KindRoot
	KindFunction
	KindIf
	KindTernary
	KindFor
	KindForIn
	KindWhile
	KindDoWhile
	KindSwitch
	KindCase
	KindDefault
	KindTry
	KindCatch
	KindLogical
)

var kindNames = [...]string{
	KindOther:    "other",
	KindRoot:     "root",
	KindFunction: "function",
	KindIf:       "if",
	KindTernary:  "ternary",
	KindFor:      "for",
	KindForIn:    "for-in",
	KindWhile:    "while",
	KindDoWhile:  "do-while",
	KindSwitch:   "switch",
	KindCase:     "case",
	KindDefault:  "default",
	KindTry:      "try",
	KindCatch:    "catch",
	KindLogical:  "logical",
}

// String returns the kind's display name.
func (k NodeKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "other"
}

// IsDecision reports whether the kind adds one path to cyclomatic complexity.
// A default case is not a decision; only cases with a test expression are.
func (k NodeKind) IsDecision() bool {
	switch k {
	case KindIf, KindTernary, KindFor, KindForIn, KindWhile, KindDoWhile,
		KindCatch, KindCase, KindLogical:
		return true
	default:
		return false
	}
}

// IsControl reports whether the kind opens a nesting level.
func (k NodeKind) IsControl() bool {
	switch k {
	case KindIf, KindFor, KindForIn, KindWhile, KindDoWhile, KindSwitch, KindTry:
		return true
	default:
		return false
	}
}

// AnonymousName is used for functions without an identifier.
const AnonymousName = "anonymous"

// Node is a lowered syntax node.
type Node struct {
	Kind      NodeKind
	Type      string // raw node type from the source grammar
	Name      string // set for KindFunction
	Operator  string // set for KindLogical
	Chained   bool   // KindIf that is the else branch of another if
	StartLine int
	EndLine   int
	Children  []*Node
}

// Lines returns the inclusive number of source lines the node spans.
func (n *Node) Lines() int {
	if n.EndLine < n.StartLine {
		return 0
	}
	return n.EndLine - n.StartLine + 1
}

// File is a lowered source file.
type File struct {
	Path     string
	Language string
	Root     *Node
}

// Visitor is called for each node. Returning false skips the node's children.
type Visitor func(n *Node) bool

// Walk traverses the tree depth-first in source order.
func Walk(n *Node, visit Visitor) {
	if n == nil {
		return
	}
	if !visit(n) {
		return
	}
	for _, child := range n.Children {
		Walk(child, visit)
	}
}

// Functions returns every function node in the tree in source order,
// including functions nested inside other functions.
func Functions(root *Node) []*Node {
	var fns []*Node
	Walk(root, func(n *Node) bool {
		if n.Kind == KindFunction {
			fns = append(fns, n)
		}
		return true
	})
	return fns
}
