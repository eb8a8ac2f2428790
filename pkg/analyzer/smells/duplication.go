package smells

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/panbanda/triage/pkg/langs"
	"github.com/panbanda/triage/pkg/models"
	"github.com/panbanda/triage/pkg/source"
)

// block is one candidate window after normalization.
type block struct {
	loc   models.Location
	text  string
	lines int
}

// fileBlocks holds the windows of one file in line order.
type fileBlocks struct {
	path   string
	blocks []block
}

// normalizeLines strips comments, collapses whitespace and drops blank lines.
func normalizeLines(lines []string, style langs.CommentStyle) []string {
	out := make([]string, 0, len(lines))
	inBlock := false
	for _, line := range lines {
		var kept strings.Builder
		rest := line
		for rest != "" {
			if inBlock {
				i := strings.Index(rest, style.BlockEnd)
				if i < 0 || (style.BlockAtLineStart && !strings.HasPrefix(strings.TrimSpace(rest), style.BlockEnd)) {
					rest = ""
					break
				}
				rest = rest[i+len(style.BlockEnd):]
				inBlock = false
				if style.BlockAtLineStart {
					rest = ""
				}
				continue
			}
			cut, opensBlock := commentStart(rest, style)
			if cut < 0 {
				kept.WriteString(rest)
				break
			}
			kept.WriteString(rest[:cut])
			if !opensBlock {
				break
			}
			inBlock = true
			rest = rest[cut+len(style.BlockStart):]
		}

		if collapsed := strings.Join(strings.Fields(kept.String()), " "); collapsed != "" {
			out = append(out, collapsed)
		}
	}
	return out
}

// commentStart returns the offset of the first comment in s and whether it
// opens a block comment. It returns -1 when s holds no comment.
func commentStart(s string, style langs.CommentStyle) (int, bool) {
	first, block := -1, false
	if style.HasBlock() {
		if style.BlockAtLineStart {
			if strings.HasPrefix(strings.TrimSpace(s), style.BlockStart) {
				return strings.Index(s, style.BlockStart), true
			}
		} else if i := strings.Index(s, style.BlockStart); i >= 0 {
			first, block = i, true
		}
	}
	for _, prefix := range style.Line {
		if i := strings.Index(s, prefix); i >= 0 && (first < 0 || i < first) {
			first, block = i, false
		}
	}
	return first, block
}

// windows slides a window of size raw lines over content, one line at a
// time. Windows whose normalized form is shorter than minLines are dropped.
// Files shorter than the window produce no windows.
func windows(path string, content []byte, size, minLines int) fileBlocks {
	fb := fileBlocks{path: path}
	lines := source.SplitLines(content)
	if len(lines) < size {
		return fb
	}
	style := langs.CLike
	if info, ok := langs.Lookup(path); ok {
		style = info.Comments
	}
	for i := 0; i+size <= len(lines); i++ {
		normalized := normalizeLines(lines[i:i+size], style)
		if len(normalized) < minLines {
			continue
		}
		fb.blocks = append(fb.blocks, block{
			loc:   models.Location{File: path, Line: i + 1},
			text:  strings.Join(normalized, "\n"),
			lines: len(normalized),
		})
	}
	return fb
}

// group is a set of locations sharing one normalized text.
type group struct {
	text  string
	lines int
	locs  []models.Location
}

// duplicationSmells groups blocks by normalized text and emits one smell per
// occurrence of every group seen at two or more locations. files must be in
// discovery order; occurrences are reported in that order.
func duplicationSmells(files []fileBlocks, band Band) []models.CodeSmell {
	buckets := make(map[uint64][]*group)
	var order []*group

	for _, fb := range files {
		for _, b := range fb.blocks {
			h := xxhash.Sum64String(b.text)
			var g *group
			for _, candidate := range buckets[h] {
				if candidate.text == b.text {
					g = candidate
					break
				}
			}
			if g == nil {
				g = &group{text: b.text, lines: b.lines}
				buckets[h] = append(buckets[h], g)
				order = append(order, g)
			}
			g.locs = append(g.locs, b.loc)
		}
	}

	var out []models.CodeSmell
	for _, g := range order {
		if len(g.locs) < 2 {
			continue
		}
		severity := band.Grade(g.lines * len(g.locs))
		for i, loc := range g.locs {
			others := make([]models.Location, 0, len(g.locs)-1)
			for j, other := range g.locs {
				if j != i {
					others = append(others, other)
				}
			}
			out = append(out, models.CodeSmell{
				Type:     models.SmellDuplication,
				Severity: severity,
				File:     loc.File,
				Line:     loc.Line,
				Description: fmt.Sprintf("Block of %d lines is duplicated at %d other location(s)",
					g.lines, len(others)),
				Metadata: map[string]any{
					"lines":           g.lines,
					"occurrences":     len(g.locs),
					"other_locations": others,
				},
			})
		}
	}
	return out
}
