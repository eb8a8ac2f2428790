package deps

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/panbanda/triage/pkg/models"
)

// Ecosystem selects how a framework's version is read from raw manifest text.
type Ecosystem string

const (
	EcosystemNPM      Ecosystem = "npm"
	EcosystemPyPI     Ecosystem = "pypi"
	EcosystemMaven    Ecosystem = "maven"
	EcosystemRubyGems Ecosystem = "rubygems"
	EcosystemGo       Ecosystem = "go"
	EcosystemCargo    Ecosystem = "cargo"
	EcosystemComposer Ecosystem = "composer"
)

// FrameworkRule is one entry of the framework table. DependencyNames match
// case-insensitively; a trailing "*" matches by prefix.
type FrameworkRule struct {
	Name            string
	RequiredFiles   []string
	DependencyNames []string
	Confidence      float64
	Ecosystem       Ecosystem
}

var (
	npmFiles    = []string{"package.json"}
	pythonFiles = []string{"requirements.txt", "Pipfile", "pyproject.toml"}
	jvmFiles    = []string{"pom.xml", "build.gradle"}
	phpFiles    = []string{"composer.json"}
)

// Frameworks is the ordered detection table. Output follows this order.
var Frameworks = []FrameworkRule{
	{"React", npmFiles, []string{"react"}, 0.9, EcosystemNPM},
	{"Vue", npmFiles, []string{"vue"}, 0.9, EcosystemNPM},
	{"Angular", npmFiles, []string{"@angular/core"}, 0.95, EcosystemNPM},
	{"Next.js", npmFiles, []string{"next"}, 0.95, EcosystemNPM},
	{"Express", npmFiles, []string{"express"}, 0.85, EcosystemNPM},
	{"NestJS", npmFiles, []string{"@nestjs/core"}, 0.95, EcosystemNPM},
	{"Django", pythonFiles, []string{"django"}, 0.95, EcosystemPyPI},
	{"Flask", pythonFiles, []string{"flask"}, 0.9, EcosystemPyPI},
	{"FastAPI", pythonFiles, []string{"fastapi"}, 0.9, EcosystemPyPI},
	{"Spring Boot", jvmFiles, []string{"org.springframework.boot:spring-boot*"}, 0.95, EcosystemMaven},
	{"Spring", jvmFiles, []string{"org.springframework:spring-core", "org.springframework:spring-context", "org.springframework:spring-webmvc"}, 0.85, EcosystemMaven},
	{"Rails", []string{"Gemfile"}, []string{"rails"}, 0.95, EcosystemRubyGems},
	{"Laravel", phpFiles, []string{"laravel/framework"}, 0.95, EcosystemComposer},
	{"Symfony", phpFiles, []string{"symfony/framework-bundle", "symfony/symfony"}, 0.9, EcosystemComposer},
	{"Gin", []string{"go.mod"}, []string{"github.com/gin-gonic/gin"}, 0.9, EcosystemGo},
	{"Echo", []string{"go.mod"}, []string{"github.com/labstack/echo*"}, 0.9, EcosystemGo},
	{"Actix", []string{"Cargo.toml"}, []string{"actix-web"}, 0.9, EcosystemCargo},
	{"Axum", []string{"Cargo.toml"}, []string{"axum"}, 0.9, EcosystemCargo},
}

// matchesName reports whether dependency name satisfies pattern.
func matchesName(pattern, name string) bool {
	pattern, name = strings.ToLower(pattern), strings.ToLower(name)
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(name, prefix)
	}
	return pattern == name
}

// parsedManifest is a manifest that parsed successfully.
type parsedManifest struct {
	path    string
	name    string
	content []byte
	deps    []models.Dependency
}

// detectFrameworks walks the table in order. A framework is reported at
// most once, from the first manifest whose file name the rule requires and
// whose dependencies include one of the rule's names.
func detectFrameworks(manifests []parsedManifest, rules []FrameworkRule) []models.Framework {
	out := []models.Framework{}
	for _, rule := range rules {
		if fw, ok := detectFramework(manifests, rule); ok {
			out = append(out, fw)
		}
	}
	return out
}

func detectFramework(manifests []parsedManifest, rule FrameworkRule) (models.Framework, bool) {
	for _, m := range manifests {
		if !containsString(rule.RequiredFiles, m.name) {
			continue
		}
		for _, d := range m.deps {
			for _, pattern := range rule.DependencyNames {
				if !matchesName(pattern, d.Name) {
					continue
				}
				// The parsed entry comes from the dependency sections, so it
				// wins over a text match that may hit peerDependencies.
				version := d.Version
				if version == "" || version == models.AnyVersion {
					if v := extractVersion(rule.Ecosystem, d.Name, m.content); v != "" {
						version = v
					}
				}
				fw := models.Framework{Name: rule.Name, Confidence: rule.Confidence}
				if version != models.AnyVersion && version != "" {
					fw.Version = &version
				}
				return fw, true
			}
		}
	}
	return models.Framework{}, false
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// versionPatterns build a regex whose first non-empty group is the
// declared version of a dependency.
var versionPatterns = map[Ecosystem]func(name string) string{
	EcosystemNPM:      jsonVersion,
	EcosystemComposer: jsonVersion,
	EcosystemPyPI: func(name string) string {
		return fmt.Sprintf(`(?mi)^\s*"?%s(?:\[[^\]]*\])?"?\s*(?:===|==|~=|>=|<=|>|<|=)\s*"?(?:[=<>~^]*)\s*([0-9][^"\s,;]*)`, regexp.QuoteMeta(name))
	},
	EcosystemMaven: func(name string) string {
		artifact := name
		if i := strings.LastIndex(name, ":"); i >= 0 {
			artifact = name[i+1:]
		}
		return fmt.Sprintf(`(?s)<artifactId>\s*%s\s*</artifactId>\s*<version>\s*([^<$\s]+)\s*</version>|['"]%s:([^'"$]+)['"]`,
			regexp.QuoteMeta(artifact), regexp.QuoteMeta(name))
	},
	EcosystemRubyGems: func(name string) string {
		return fmt.Sprintf(`(?m)^\s*gem\s+['"]%s['"]\s*,\s*['"][~>=<\s]*([0-9][^'"]*)['"]`, regexp.QuoteMeta(name))
	},
	EcosystemGo: func(name string) string {
		return fmt.Sprintf(`(?m)^\s*(?:require\s+)?%s\s+(v[^\s]+)`, regexp.QuoteMeta(name))
	},
	EcosystemCargo: func(name string) string {
		return fmt.Sprintf(`(?m)^\s*%s\s*=\s*(?:"([^"]+)"|\{[^}]*version\s*=\s*"([^"]+)")`, regexp.QuoteMeta(name))
	},
}

func jsonVersion(name string) string {
	return fmt.Sprintf(`"%s"\s*:\s*"([^"]+)"`, regexp.QuoteMeta(name))
}

// extractVersion reads a dependency's version from raw manifest text.
// It returns "" when the manifest does not state one.
func extractVersion(eco Ecosystem, name string, content []byte) string {
	build, ok := versionPatterns[eco]
	if !ok {
		return ""
	}
	re, err := regexp.Compile(build(name))
	if err != nil {
		return ""
	}
	m := re.FindSubmatch(content)
	if m == nil {
		return ""
	}
	for _, group := range m[1:] {
		if len(group) > 0 {
			return NormalizeVersion(string(group))
		}
	}
	return ""
}
