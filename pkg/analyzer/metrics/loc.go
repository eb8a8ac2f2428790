package metrics

import (
	"strings"

	"github.com/panbanda/triage/pkg/langs"
	"github.com/panbanda/triage/pkg/models"
	"github.com/panbanda/triage/pkg/source"
)

// StyleFor returns the comment style used to classify path's lines. Files
// the registry does not know are treated as C-like.
func StyleFor(path string) langs.CommentStyle {
	if info, ok := langs.Lookup(path); ok {
		return info.Comments
	}
	return langs.CLike
}

// CountLOC classifies every line of content as code, comment or blank.
// Block-comment state carries across lines.
func CountLOC(content []byte, style langs.CommentStyle) models.LineCounts {
	var counts models.LineCounts
	inBlock := false

	for _, line := range source.SplitLines(content) {
		counts.Total++
		trimmed := strings.TrimSpace(line)

		if inBlock {
			counts.Comment++
			if closesBlock(trimmed, style) {
				inBlock = false
			}
			continue
		}

		switch {
		case trimmed == "":
			counts.Blank++
		case style.HasBlock() && strings.HasPrefix(trimmed, style.BlockStart):
			counts.Comment++
			rest := trimmed[len(style.BlockStart):]
			if style.BlockAtLineStart || !strings.Contains(rest, style.BlockEnd) {
				inBlock = true
			}
		case hasLinePrefix(trimmed, style):
			counts.Comment++
		default:
			counts.Code++
			if opensTrailingBlock(trimmed, style) {
				inBlock = true
			}
		}
	}
	return counts
}

func closesBlock(trimmed string, style langs.CommentStyle) bool {
	if style.BlockAtLineStart {
		return strings.HasPrefix(trimmed, style.BlockEnd)
	}
	return strings.Contains(trimmed, style.BlockEnd)
}

func hasLinePrefix(trimmed string, style langs.CommentStyle) bool {
	for _, prefix := range style.Line {
		if strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	return false
}

// opensTrailingBlock reports whether a code line ends inside a block comment,
// as in `x = 1; /* note`.
func opensTrailingBlock(trimmed string, style langs.CommentStyle) bool {
	if !style.HasBlock() || style.BlockAtLineStart {
		return false
	}
	i := strings.LastIndex(trimmed, style.BlockStart)
	if i < 0 {
		return false
	}
	return !strings.Contains(trimmed[i+len(style.BlockStart):], style.BlockEnd)
}
