package deps

import (
	"bufio"
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/panbanda/triage/pkg/models"
	"github.com/pelletier/go-toml"
	"golang.org/x/mod/modfile"
)

// ErrBinaryManifest is returned for manifests that are not valid text.
var ErrBinaryManifest = errors.New("manifest is not valid UTF-8 text")

// parseFunc extracts declared dependencies from one manifest's content.
type parseFunc func(content []byte) ([]models.Dependency, error)

// parsers maps manifest file names to their parser.
var parsers = map[string]parseFunc{
	"package.json":     ParsePackageJSON,
	"requirements.txt": ParseRequirements,
	"Pipfile":          ParsePipfile,
	"pom.xml":          ParsePom,
	"build.gradle":     ParseGradle,
	"composer.json":    ParseComposer,
	"Gemfile":          ParseGemfile,
	"go.mod":           ParseGoMod,
	"Cargo.toml":       ParseCargo,
	"pyproject.toml":   ParsePyproject,
}

// IsManifest reports whether name is a manifest file name the analyzer parses.
func IsManifest(name string) bool {
	_, ok := parsers[name]
	return ok
}

func dep(name, version string, kind models.DependencyKind) models.Dependency {
	return models.Dependency{Name: name, Version: NormalizeVersion(version), Kind: kind}
}

// sortedSection converts a name -> version map into dependencies sorted
// by name.
func sortedSection(section map[string]string, kind models.DependencyKind, skip func(string) bool) []models.Dependency {
	names := make([]string, 0, len(section))
	for name := range section {
		if skip == nil || !skip(name) {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	out := make([]models.Dependency, 0, len(names))
	for _, name := range names {
		out = append(out, dep(name, section[name], kind))
	}
	return out
}

// ParsePackageJSON reads dependencies and devDependencies.
func ParsePackageJSON(content []byte) ([]models.Dependency, error) {
	var pkg struct {
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal(content, &pkg); err != nil {
		return nil, fmt.Errorf("parse package.json: %w", err)
	}
	out := sortedSection(pkg.Dependencies, models.DependencyRuntime, nil)
	return append(out, sortedSection(pkg.DevDependencies, models.DependencyDev, nil)...), nil
}

// ParseComposer reads require and require-dev, skipping platform packages.
func ParseComposer(content []byte) ([]models.Dependency, error) {
	var pkg struct {
		Require    map[string]string `json:"require"`
		RequireDev map[string]string `json:"require-dev"`
	}
	if err := json.Unmarshal(content, &pkg); err != nil {
		return nil, fmt.Errorf("parse composer.json: %w", err)
	}
	platform := func(name string) bool {
		return name == "php" || strings.HasPrefix(name, "ext-") || strings.HasPrefix(name, "lib-")
	}
	out := sortedSection(pkg.Require, models.DependencyRuntime, platform)
	return append(out, sortedSection(pkg.RequireDev, models.DependencyDev, platform)...), nil
}

func checkText(content []byte) error {
	if bytes.IndexByte(content, 0) >= 0 || !utf8.Valid(content) {
		return ErrBinaryManifest
	}
	return nil
}

// ParseRequirements reads a pip requirements file. Option lines (-r, -e,
// --index-url) and URL requirements are skipped.
func ParseRequirements(content []byte) ([]models.Dependency, error) {
	if err := checkText(content); err != nil {
		return nil, fmt.Errorf("parse requirements.txt: %w", err)
	}
	var out []models.Dependency
	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		if d, ok := parseRequirementLine(scanner.Text(), models.DependencyRuntime); ok {
			out = append(out, d)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("parse requirements.txt: %w", err)
	}
	return out, nil
}

// parseRequirementLine parses one PEP 508 style requirement.
func parseRequirementLine(line string, kind models.DependencyKind) (models.Dependency, bool) {
	if i := strings.Index(line, " #"); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") || strings.Contains(line, "://") {
		return models.Dependency{}, false
	}
	if i := strings.Index(line, ";"); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}

	name, version := line, ""
	if i := strings.IndexAny(line, "=<>!~"); i >= 0 {
		name, version = line[:i], line[i:]
	}
	if i := strings.Index(name, "["); i >= 0 {
		name = name[:i]
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Dependency{}, false
	}
	return dep(name, version, kind), true
}

// ParsePipfile reads [packages] and [dev-packages]. Files that are not
// valid TOML fall back to a section-aware line scan.
func ParsePipfile(content []byte) ([]models.Dependency, error) {
	tree, err := toml.LoadBytes(content)
	if err != nil {
		return parsePipfileLines(content), nil
	}
	doc := tree.ToMap()
	out := tomlSection(doc["packages"], models.DependencyRuntime)
	return append(out, tomlSection(doc["dev-packages"], models.DependencyDev)...), nil
}

var pipfileEntry = regexp.MustCompile(`^\s*"?([A-Za-z0-9_.\-\[\]]+)"?\s*=\s*(.+?)\s*$`)
var inlineVersion = regexp.MustCompile(`version\s*=\s*"([^"]*)"`)

func parsePipfileLines(content []byte) []models.Dependency {
	var out []models.Dependency
	var kind models.DependencyKind
	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			switch line {
			case "[packages]":
				kind = models.DependencyRuntime
			case "[dev-packages]":
				kind = models.DependencyDev
			default:
				kind = ""
			}
			continue
		}
		if kind == "" {
			continue
		}
		m := pipfileEntry.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		version := strings.Trim(m[2], `"'`)
		if strings.HasPrefix(m[2], "{") {
			version = ""
			if v := inlineVersion.FindStringSubmatch(m[2]); v != nil {
				version = v[1]
			}
		}
		out = append(out, dep(m[1], version, kind))
	}
	return out
}

// tomlSection converts a TOML table of name = "version" or
// name = { version = "..." } entries.
func tomlSection(section any, kind models.DependencyKind) []models.Dependency {
	table, ok := section.(map[string]any)
	if !ok {
		return nil
	}
	versions := make(map[string]string, len(table))
	for name, value := range table {
		versions[name] = tomlVersion(value)
	}
	return sortedSection(versions, kind, func(name string) bool { return name == "python" })
}

func tomlVersion(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case map[string]any:
		if s, ok := v["version"].(string); ok {
			return s
		}
	}
	return ""
}

type pomProject struct {
	Properties struct {
		Entries []pomProperty `xml:",any"`
	} `xml:"properties"`
	Dependencies []pomDependency `xml:"dependencies>dependency"`
}

type pomProperty struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

type pomDependency struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
	Scope      string `xml:"scope"`
}

var pomPlaceholder = regexp.MustCompile(`\$\{([^}]+)\}`)

// ParsePom reads <dependencies>. Test scope is dev; ${property} versions
// are resolved from <properties>.
func ParsePom(content []byte) ([]models.Dependency, error) {
	var pom pomProject
	if err := xml.Unmarshal(content, &pom); err != nil {
		return nil, fmt.Errorf("parse pom.xml: %w", err)
	}
	props := make(map[string]string, len(pom.Properties.Entries))
	for _, p := range pom.Properties.Entries {
		props[p.XMLName.Local] = strings.TrimSpace(p.Value)
	}

	out := make([]models.Dependency, 0, len(pom.Dependencies))
	for _, d := range pom.Dependencies {
		artifact := strings.TrimSpace(d.ArtifactID)
		if artifact == "" {
			continue
		}
		name := artifact
		if g := strings.TrimSpace(d.GroupID); g != "" {
			name = g + ":" + artifact
		}
		version := pomPlaceholder.ReplaceAllStringFunc(strings.TrimSpace(d.Version), func(ref string) string {
			if v, ok := props[ref[2:len(ref)-1]]; ok {
				return v
			}
			return ref
		})
		if strings.Contains(version, "${") {
			version = ""
		}
		kind := models.DependencyRuntime
		if strings.EqualFold(strings.TrimSpace(d.Scope), "test") {
			kind = models.DependencyDev
		}
		out = append(out, dep(name, version, kind))
	}
	return out, nil
}

var gradleDependency = regexp.MustCompile(
	`(?m)^\s*(implementation|api|compile|runtimeOnly|compileOnly|testImplementation|testCompile|testRuntimeOnly)\s*\(?\s*['"]([^:'"\s]+):([^:'"\s]+)(?::([^'"@\s]+))?(?:@\w+)?['"]`)

// ParseGradle reads string-notation dependencies. test* configurations
// are dev.
func ParseGradle(content []byte) ([]models.Dependency, error) {
	var out []models.Dependency
	for _, m := range gradleDependency.FindAllStringSubmatch(string(content), -1) {
		kind := models.DependencyRuntime
		if strings.HasPrefix(m[1], "test") {
			kind = models.DependencyDev
		}
		out = append(out, dep(m[2]+":"+m[3], m[4], kind))
	}
	return out, nil
}

var gemLine = regexp.MustCompile(`^\s*gem\s+['"]([^'"]+)['"](?:\s*,\s*['"]([^'"]+)['"])?`)
var gemGroup = regexp.MustCompile(`^\s*group\s+(.+?)\s+do\s*$`)
var blockOpen = regexp.MustCompile(`\bdo\s*(\|[^|]*\|)?\s*$`)

// ParseGemfile reads gem declarations. Gems inside development or test
// groups, or tagged with such a group inline, are dev. Other blocks
// (platforms, source, path) inherit the group they sit in.
func ParseGemfile(content []byte) ([]models.Dependency, error) {
	var out []models.Dependency
	var blocks []bool // dev flag per open block
	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		inDevGroup := len(blocks) > 0 && blocks[len(blocks)-1]

		if m := gemGroup.FindStringSubmatch(line); m != nil {
			blocks = append(blocks, inDevGroup || isDevGroup(m[1]))
			continue
		}
		if blockOpen.MatchString(trimmed) && !strings.HasPrefix(trimmed, "#") {
			blocks = append(blocks, inDevGroup)
			continue
		}
		if trimmed == "end" && len(blocks) > 0 {
			blocks = blocks[:len(blocks)-1]
			continue
		}

		m := gemLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		kind := models.DependencyRuntime
		if inDevGroup || (strings.Contains(line, "group:") && isDevGroup(line[strings.Index(line, "group:"):])) {
			kind = models.DependencyDev
		}
		out = append(out, dep(m[1], m[2], kind))
	}
	return out, scanner.Err()
}

func isDevGroup(groups string) bool {
	return strings.Contains(groups, ":development") || strings.Contains(groups, ":test")
}

// ParseGoMod reads require directives. Indirect requirements stay runtime.
func ParseGoMod(content []byte) ([]models.Dependency, error) {
	f, err := modfile.ParseLax("go.mod", content, nil)
	if err != nil {
		return nil, fmt.Errorf("parse go.mod: %w", err)
	}
	out := make([]models.Dependency, 0, len(f.Require))
	for _, req := range f.Require {
		out = append(out, dep(req.Mod.Path, req.Mod.Version, models.DependencyRuntime))
	}
	return out, nil
}

// ParseCargo reads [dependencies]; dev and build dependencies are dev.
func ParseCargo(content []byte) ([]models.Dependency, error) {
	tree, err := toml.LoadBytes(content)
	if err != nil {
		return nil, fmt.Errorf("parse Cargo.toml: %w", err)
	}
	doc := tree.ToMap()
	out := tomlSection(doc["dependencies"], models.DependencyRuntime)
	out = append(out, tomlSection(doc["dev-dependencies"], models.DependencyDev)...)
	return append(out, tomlSection(doc["build-dependencies"], models.DependencyDev)...), nil
}

// ParsePyproject reads PEP 621 [project] dependencies and Poetry tables.
func ParsePyproject(content []byte) ([]models.Dependency, error) {
	tree, err := toml.LoadBytes(content)
	if err != nil {
		return nil, fmt.Errorf("parse pyproject.toml: %w", err)
	}
	doc := tree.ToMap()

	var out []models.Dependency
	if project, ok := doc["project"].(map[string]any); ok {
		out = append(out, requirementList(project["dependencies"], models.DependencyRuntime)...)
		if optional, ok := project["optional-dependencies"].(map[string]any); ok {
			for _, group := range []string{"dev", "test", "tests"} {
				out = append(out, requirementList(optional[group], models.DependencyDev)...)
			}
		}
	}

	tool, _ := doc["tool"].(map[string]any)
	poetry, _ := tool["poetry"].(map[string]any)
	if poetry != nil {
		out = append(out, tomlSection(poetry["dependencies"], models.DependencyRuntime)...)
		out = append(out, tomlSection(poetry["dev-dependencies"], models.DependencyDev)...)
		if groups, ok := poetry["group"].(map[string]any); ok {
			names := make([]string, 0, len(groups))
			for name := range groups {
				names = append(names, name)
			}
			slices.Sort(names)
			for _, name := range names {
				if g, ok := groups[name].(map[string]any); ok {
					out = append(out, tomlSection(g["dependencies"], models.DependencyDev)...)
				}
			}
		}
	}
	return out, nil
}

func requirementList(value any, kind models.DependencyKind) []models.Dependency {
	list, ok := value.([]any)
	if !ok {
		return nil
	}
	var out []models.Dependency
	for _, item := range list {
		if s, ok := item.(string); ok {
			if d, ok := parseRequirementLine(s, kind); ok {
				out = append(out, d)
			}
		}
	}
	return out
}
