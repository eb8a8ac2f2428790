package smells

import (
	"fmt"

	"github.com/panbanda/triage/pkg/ast"
	"github.com/panbanda/triage/pkg/models"
)

// functionSmells flags long and overly complex functions.
func functionSmells(fns []models.FunctionMetric, th Thresholds) []models.CodeSmell {
	var out []models.CodeSmell
	for _, fn := range fns {
		if fn.LineCount > th.FunctionLines {
			out = append(out, models.CodeSmell{
				Type:     models.SmellLongFunction,
				Severity: th.FunctionLinesBand.Grade(fn.LineCount),
				File:     fn.File,
				Line:     fn.Line,
				Description: fmt.Sprintf("Function %q is %d lines long (limit %d)",
					fn.Name, fn.LineCount, th.FunctionLines),
				Metadata: map[string]any{
					"function":  fn.Name,
					"lines":     fn.LineCount,
					"threshold": th.FunctionLines,
				},
			})
		}
		if fn.Complexity > th.Complexity {
			out = append(out, models.CodeSmell{
				Type:     models.SmellTooComplex,
				Severity: th.ComplexityBand.Grade(fn.Complexity),
				File:     fn.File,
				Line:     fn.Line,
				Description: fmt.Sprintf("Function %q has cyclomatic complexity %d (limit %d)",
					fn.Name, fn.Complexity, th.Complexity),
				Metadata: map[string]any{
					"function":   fn.Name,
					"complexity": fn.Complexity,
					"threshold":  th.Complexity,
				},
			})
		}
	}
	return out
}

// nestingSmells reports every control structure whose nesting depth
// exceeds the threshold. Depth counts enclosing control structures from
// the top of the file, including the structure itself. An else-if stays on
// the level of the if it continues.
func nestingSmells(file *ast.File, th Thresholds) []models.CodeSmell {
	var out []models.CodeSmell
	var visit func(n *ast.Node, depth int)
	visit = func(n *ast.Node, depth int) {
		if n.Kind.IsControl() && !n.Chained {
			depth++
			if depth > th.Nesting {
				out = append(out, models.CodeSmell{
					Type:     models.SmellDeepNesting,
					Severity: th.NestingBand.Grade(depth),
					File:     file.Path,
					Line:     n.StartLine,
					Description: fmt.Sprintf("%s nested %d levels deep (limit %d)",
						n.Kind, depth, th.Nesting),
					Metadata: map[string]any{
						"depth":     depth,
						"construct": n.Kind.String(),
						"threshold": th.Nesting,
					},
				})
			}
		}
		for _, child := range n.Children {
			visit(child, depth)
		}
	}
	visit(file.Root, 0)
	return out
}
