package language

import "regexp"

// signature is a content rule for files whose name does not identify them.
type signature struct {
	language string
	patterns []*regexp.Regexp
}

// signatures is ordered: when two languages score the same, the one
// declared first wins.
var signatures = []signature{
	{"Python", compile(
		`^#!.*\bpython[0-9.]*\b`,
		`^\s*def \w+\(.*\)\s*(->.*)?:\s*$`,
		`^\s*from [\w.]+ import `,
		`^\s*import \w+(\.\w+)*\s*$`,
		`^\s*class \w+(\(.*\))?:\s*$`,
		`^if __name__ == ['"]__main__['"]:`,
	)},
	{"JavaScript", compile(
		`^#!.*\bnode\b`,
		`\brequire\(['"][^'"]+['"]\)`,
		`\bmodule\.exports\b`,
		`^\s*(const|let|var) \w+ = `,
		`\bfunction\s*\w*\s*\(`,
		`\bconsole\.log\(`,
	)},
	{"Ruby", compile(
		`^#!.*\bruby\b`,
		`^\s*require ['"][^'"]+['"]\s*$`,
		`^\s*def \w+[?!]?(\(.*\))?\s*$`,
		`^\s*class \w+ < \w+`,
		`^\s*end\s*$`,
		`\bputs\b`,
	)},
	{"Shell", compile(
		`^#!.*\b(ba|z|k|da)?sh\b`,
		`^\s*(if|while) \[\[? `,
		`^\s*(fi|done|esac)\s*$`,
		`^\s*export \w+=`,
		`^\s*echo `,
	)},
	{"PHP", compile(
		`<\?php`,
		`^\s*namespace [\w\\]+;`,
		`\$\w+\s*=`,
		`^\s*use [\w\\]+;`,
	)},
	{"Perl", compile(
		`^#!.*\bperl\b`,
		`^\s*use (strict|warnings);`,
		`^\s*my [\$@%]\w+`,
		`^\s*sub \w+\s*\{`,
	)},
	{"Go", compile(
		`^package \w+\s*$`,
		`^import \($`,
		`^func (\(\w+ \*?\w+\) )?\w+\(`,
	)},
	{"Java", compile(
		`^\s*package [\w.]+;`,
		`^\s*import (static )?[\w.*]+;`,
		`\bpublic (static )?(final )?(class|interface|enum|void)\b`,
	)},
	{"C", compile(
		`^#include\s*[<"][\w/]+\.h[>"]`,
		`\bint main\s*\(`,
		`\bprintf\s*\(`,
	)},
}

func compile(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(`(?m)` + p)
	}
	return out
}

// score returns the number of the signature's patterns found in head.
func (s signature) score(head []byte) int {
	n := 0
	for _, p := range s.patterns {
		if p.Match(head) {
			n++
		}
	}
	return n
}

// DetectContent classifies content by signature scoring over its first
// HeadSize bytes. The highest score wins and ties go to the earlier
// declaration. It returns false when no pattern matches.
func DetectContent(content []byte) (string, bool) {
	head := content
	if len(head) > HeadSize {
		head = head[:HeadSize]
	}

	best, bestScore := "", 0
	for _, sig := range signatures {
		if s := sig.score(head); s > bestScore {
			best, bestScore = sig.language, s
		}
	}
	return best, bestScore > 0
}
