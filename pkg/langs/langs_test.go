package langs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{"src/app.js", "JavaScript", true},
		{"src/App.TSX", "TypeScript", true},
		{"lib/x.py", "Python", true},
		{"a/b/Dockerfile", "Dockerfile", true},
		{"Rakefile", "Ruby", true},
		{"native/util.h", "C", true},
		{"README.md", "", false},
		{"package.json", "", false},
		{"LICENSE", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			info, ok := Lookup(tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, info.Name)
			assert.Equal(t, tt.ok, IsSource(tt.path))
		})
	}
}

func TestExtensionsCoverage(t *testing.T) {
	assert.GreaterOrEqual(t, Extensions(), 40)
}

func TestByName(t *testing.T) {
	info, ok := ByName("Ruby")
	assert.True(t, ok)
	assert.Equal(t, "=begin", info.Comments.BlockStart)

	info, ok = ByName("Makefile")
	assert.True(t, ok)
	assert.Equal(t, []string{"#"}, info.Comments.Line)

	_, ok = ByName("Brainfuck")
	assert.False(t, ok)
}

func TestCommentStyle_HasBlock(t *testing.T) {
	assert.True(t, CLike.HasBlock())
	assert.True(t, Markup.HasBlock())
	assert.False(t, Hash.HasBlock())
}

func TestHasShebang(t *testing.T) {
	assert.True(t, HasShebang([]byte("#!/usr/bin/env python\n")))
	assert.False(t, HasShebang([]byte("# comment")))
	assert.False(t, HasShebang(nil))
}
