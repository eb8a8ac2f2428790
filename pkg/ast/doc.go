// Package ast defines a small, language-neutral syntax tree used by the
// complexity and smell analyzers.
//
// Concrete parse trees (tree-sitter) are lowered into Node values whose Kind
// is one of a finite set of constructs. Nodes that carry no meaning for
// complexity or nesting are dropped during lowering and their children are
// spliced into the parent, so a lowered tree only contains functions,
// control structures, branches and logical operators.
//
// Usage:
//
//	file, err := treesitter.ParseFile(ctx, psr, path, content)
//	if err != nil {
//	    return err
//	}
//
//	ast.Walk(file.Root, func(n *ast.Node) bool {
//	    switch n.Kind {
//	    case ast.KindFunction:
//	        fmt.Printf("%s at line %d\n", n.Name, n.StartLine)
//	    }
//	    return true
//	})
package ast
