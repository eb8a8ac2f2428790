// Package langs is the static registry of languages the analyzers know:
// file extensions, well-known file names and comment syntax.
package langs

import (
	"path/filepath"
	"strings"
)

// CommentStyle describes a language family's comment syntax.
type CommentStyle struct {
	Line       []string
	BlockStart string
	BlockEnd   string
	// BlockAtLineStart requires block delimiters to open a line (=begin/=end).
	BlockAtLineStart bool
}

// HasBlock reports whether the style has block comments.
func (c CommentStyle) HasBlock() bool {
	return c.BlockStart != "" && c.BlockEnd != ""
}

var (
	CLike    = CommentStyle{Line: []string{"//"}, BlockStart: "/*", BlockEnd: "*/"}
	Hash     = CommentStyle{Line: []string{"#"}}
	Ruby     = CommentStyle{Line: []string{"#"}, BlockStart: "=begin", BlockEnd: "=end", BlockAtLineStart: true}
	DashDash = CommentStyle{Line: []string{"--"}, BlockStart: "/*", BlockEnd: "*/"}
	Lua      = CommentStyle{Line: []string{"--"}, BlockStart: "--[[", BlockEnd: "]]"}
	Haskell  = CommentStyle{Line: []string{"--"}, BlockStart: "{-", BlockEnd: "-}"}
	Markup   = CommentStyle{BlockStart: "<!--", BlockEnd: "-->"}
	CSS      = CommentStyle{BlockStart: "/*", BlockEnd: "*/"}
	PHP      = CommentStyle{Line: []string{"//", "#"}, BlockStart: "/*", BlockEnd: "*/"}
	Lisp     = CommentStyle{Line: []string{";"}}
	Erlang   = CommentStyle{Line: []string{"%"}}
	Fortran  = CommentStyle{Line: []string{"!"}}
	VB       = CommentStyle{Line: []string{"'"}}
)

// Info describes a known language.
type Info struct {
	Name     string
	Comments CommentStyle
}

var (
	javaScript = Info{"JavaScript", CLike}
	typeScript = Info{"TypeScript", CLike}
	python     = Info{"Python", Hash}
	ruby       = Info{"Ruby", Ruby}
	golang     = Info{"Go", CLike}
	rust       = Info{"Rust", CLike}
	java       = Info{"Java", CLike}
	kotlin     = Info{"Kotlin", CLike}
	scala      = Info{"Scala", CLike}
	groovy     = Info{"Groovy", CLike}
	c          = Info{"C", CLike}
	cpp        = Info{"C++", CLike}
	csharp     = Info{"C#", CLike}
	fsharp     = Info{"F#", CLike}
	php        = Info{"PHP", PHP}
	swift      = Info{"Swift", CLike}
	objc       = Info{"Objective-C", CLike}
	dart       = Info{"Dart", CLike}
	lua        = Info{"Lua", Lua}
	perl       = Info{"Perl", Hash}
	r          = Info{"R", Hash}
	julia      = Info{"Julia", Hash}
	elixir     = Info{"Elixir", Hash}
	erlang     = Info{"Erlang", Erlang}
	haskell    = Info{"Haskell", Haskell}
	clojure    = Info{"Clojure", Lisp}
	shell      = Info{"Shell", Hash}
	powershell = Info{"PowerShell", Hash}
	sql        = Info{"SQL", DashDash}
	html       = Info{"HTML", Markup}
	css        = Info{"CSS", CSS}
	scss       = Info{"SCSS", CLike}
	less       = Info{"Less", CLike}
	vue        = Info{"Vue", Markup}
	svelte     = Info{"Svelte", Markup}
	fortran    = Info{"Fortran", Fortran}
	vb         = Info{"Visual Basic", VB}
	docker     = Info{"Dockerfile", Hash}
	makefile   = Info{"Makefile", Hash}
	cmake      = Info{"CMake", Hash}
)

var extensions = map[string]Info{
	".js":     javaScript,
	".mjs":    javaScript,
	".cjs":    javaScript,
	".jsx":    javaScript,
	".ts":     typeScript,
	".mts":    typeScript,
	".cts":    typeScript,
	".tsx":    typeScript,
	".py":     python,
	".pyw":    python,
	".rb":     ruby,
	".rake":   ruby,
	".go":     golang,
	".rs":     rust,
	".java":   java,
	".kt":     kotlin,
	".kts":    kotlin,
	".scala":  scala,
	".groovy": groovy,
	".gradle": groovy,
	".c":      c,
	".h":      c,
	".cc":     cpp,
	".cpp":    cpp,
	".cxx":    cpp,
	".hpp":    cpp,
	".hh":     cpp,
	".cs":     csharp,
	".fs":     fsharp,
	".php":    php,
	".swift":  swift,
	".m":      objc,
	".mm":     objc,
	".dart":   dart,
	".lua":    lua,
	".pl":     perl,
	".pm":     perl,
	".r":      r,
	".jl":     julia,
	".ex":     elixir,
	".exs":    elixir,
	".erl":    erlang,
	".hs":     haskell,
	".clj":    clojure,
	".sh":     shell,
	".bash":   shell,
	".zsh":    shell,
	".ps1":    powershell,
	".sql":    sql,
	".html":   html,
	".htm":    html,
	".css":    css,
	".scss":   scss,
	".less":   less,
	".vue":    vue,
	".svelte": svelte,
	".f90":    fortran,
	".vb":     vb,
}

// fileNames maps well-known extensionless files to their language.
var fileNames = map[string]Info{
	"Dockerfile":     docker,
	"Makefile":       makefile,
	"GNUmakefile":    makefile,
	"Rakefile":       ruby,
	"Gemfile":        ruby,
	"Jenkinsfile":    groovy,
	"CMakeLists.txt": cmake,
}

// ByName returns the language with the given display name.
func ByName(name string) (Info, bool) {
	for _, info := range extensions {
		if info.Name == name {
			return info, true
		}
	}
	for _, info := range fileNames {
		if info.Name == name {
			return info, true
		}
	}
	return Info{}, false
}

// Lookup identifies a file's language from its name alone.
func Lookup(path string) (Info, bool) {
	base := filepath.Base(path)
	if info, ok := fileNames[base]; ok {
		return info, true
	}
	info, ok := extensions[strings.ToLower(filepath.Ext(base))]
	return info, ok
}

// IsSource reports whether path has a recognized source extension or name.
func IsSource(path string) bool {
	_, ok := Lookup(path)
	return ok
}

// Extensions returns the number of registered extensions.
func Extensions() int {
	return len(extensions)
}

// HasShebang reports whether content starts with an interpreter line.
func HasShebang(content []byte) bool {
	return len(content) >= 2 && content[0] == '#' && content[1] == '!'
}
