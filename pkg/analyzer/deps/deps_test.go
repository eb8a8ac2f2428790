package deps

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/panbanda/triage/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func TestAnalyze_SinglePackageJSON(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"package.json": `{"dependencies":{"express":"^4.18.0"}}`,
	})

	res, err := New().Analyze(context.Background(), root)
	require.NoError(t, err)

	require.Len(t, res.Dependencies, 1)
	d := res.Dependencies[0]
	assert.Equal(t, "express", d.Name)
	assert.Equal(t, "4.18.0", d.Version)
	assert.Equal(t, models.DependencyRuntime, d.Kind)
	assert.Equal(t, "package.json", d.Manifest)

	require.Len(t, res.Frameworks, 1)
	assert.Equal(t, "Express", res.Frameworks[0].Name)
	require.NotNil(t, res.Frameworks[0].Version)
	assert.Equal(t, "4.18.0", *res.Frameworks[0].Version)
	assert.InDelta(t, 0.85, res.Frameworks[0].Confidence, 1e-9)
	assert.Empty(t, res.Errors)
}

func TestAnalyze_BadManifestDoesNotStopOthers(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"package.json":         `{"dependencies":{"react":"18.2.0"}}`,
		"api/requirements.txt": "django==4.2\x00\xff",
		"web/package.json":     `{"dependencies": {`,
	})

	res, err := New().Analyze(context.Background(), root)
	require.NoError(t, err)

	require.Len(t, res.Dependencies, 1)
	assert.Equal(t, "react", res.Dependencies[0].Name)
	assert.Len(t, res.Manifests, 3)

	require.Len(t, res.Errors, 2)
	failed := []string{res.Errors[0].Path, res.Errors[1].Path}
	assert.ElementsMatch(t, []string{"api/requirements.txt", "web/package.json"}, failed)

	var names []string
	for _, fw := range res.Frameworks {
		names = append(names, fw.Name)
	}
	assert.Equal(t, []string{"React"}, names)
}

func TestAnalyze_NoManifests(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"README.md": "# hi\n"})

	res, err := New().Analyze(context.Background(), root)
	require.NoError(t, err)
	assert.NotNil(t, res.Dependencies)
	assert.Empty(t, res.Dependencies)
	assert.NotNil(t, res.Frameworks)
	assert.Empty(t, res.Frameworks)
}

func TestAnalyze_SkipsVendoredAndDeepDirs(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"node_modules/lodash/package.json": `{"dependencies":{"vue":"3.0.0"}}`,
		"a/b/c/d/e/f/package.json":         `{"dependencies":{"next":"14.0.0"}}`,
		"a/b/package.json":                 `{"dependencies":{"express":"4.0.0"}}`,
	})

	res, err := New(WithMaxDepth(3)).Analyze(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []string{"a/b/package.json"}, res.Manifests)
	require.Len(t, res.Dependencies, 1)
	assert.Equal(t, "express", res.Dependencies[0].Name)
}

func TestAnalyze_MissingRoot(t *testing.T) {
	_, err := New().Analyze(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestAnalyze_Cancelled(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"package.json": `{}`})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Analyze(ctx, root)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDetectFrameworks_TableOrder(t *testing.T) {
	manifests := []parsedManifest{{
		name:    "package.json",
		content: []byte(`{"dependencies":{"express":"^4.18.0","react":"^18.2.0","next":"14.0.3"}}`),
		deps: []models.Dependency{
			{Name: "express", Version: "4.18.0"},
			{Name: "next", Version: "14.0.3"},
			{Name: "react", Version: "18.2.0"},
		},
	}}

	got := detectFrameworks(manifests, Frameworks)
	var names []string
	for _, fw := range got {
		names = append(names, fw.Name)
	}
	assert.Equal(t, []string{"React", "Next.js", "Express"}, names)
	assert.Equal(t, "18.2.0", *got[0].Version)
}

func TestDetectFrameworks_UnpinnedVersionIsNil(t *testing.T) {
	manifests := []parsedManifest{{
		name:    "requirements.txt",
		content: []byte("flask\n"),
		deps:    []models.Dependency{{Name: "flask", Version: models.AnyVersion}},
	}}

	got := detectFrameworks(manifests, Frameworks)
	require.Len(t, got, 1)
	assert.Equal(t, "Flask", got[0].Name)
	assert.Nil(t, got[0].Version)
}

func TestDetectFrameworks_VersionFromDependencySection(t *testing.T) {
	content := []byte(`{"peerDependencies":{"react":">=16"},"dependencies":{"react":"18.2.0"}}`)
	deps, err := ParsePackageJSON(content)
	require.NoError(t, err)

	got := detectFrameworks([]parsedManifest{{name: "package.json", content: content, deps: deps}}, Frameworks)
	require.Len(t, got, 1)
	assert.Equal(t, "React", got[0].Name)
	require.NotNil(t, got[0].Version)
	assert.Equal(t, "18.2.0", *got[0].Version)
}

func TestDetectFrameworks_RequiresDependency(t *testing.T) {
	// A manifest that exists but does not declare the package detects nothing.
	manifests := []parsedManifest{{
		name:    "Gemfile",
		content: []byte("gem 'sinatra'\n"),
		deps:    []models.Dependency{{Name: "sinatra", Version: models.AnyVersion}},
	}}
	assert.Empty(t, detectFrameworks(manifests, Frameworks))
}

func TestDetectFrameworks_WrongManifestIgnored(t *testing.T) {
	manifests := []parsedManifest{{
		name: "Cargo.toml",
		deps: []models.Dependency{{Name: "django", Version: "4.2"}},
	}}
	assert.Empty(t, detectFrameworks(manifests, Frameworks))
}

func TestDetectFrameworks_PrefixMatch(t *testing.T) {
	content := []byte(`<project><dependencies><dependency>
  <groupId>org.springframework.boot</groupId>
  <artifactId>spring-boot-starter-web</artifactId>
  <version>3.1.0</version>
</dependency></dependencies></project>`)
	deps, err := ParsePom(content)
	require.NoError(t, err)

	got := detectFrameworks([]parsedManifest{{name: "pom.xml", content: content, deps: deps}}, Frameworks)
	require.Len(t, got, 1)
	assert.Equal(t, "Spring Boot", got[0].Name)
	require.NotNil(t, got[0].Version)
	assert.Equal(t, "3.1.0", *got[0].Version)
}

func TestExtractVersion(t *testing.T) {
	tests := []struct {
		name    string
		eco     Ecosystem
		dep     string
		content string
		want    string
	}{
		{"npm", EcosystemNPM, "react", `{"react": "^18.2.0"}`, "18.2.0"},
		{"pypi pinned", EcosystemPyPI, "django", "Django==4.2.1\n", "4.2.1"},
		{"pypi pipfile", EcosystemPyPI, "django", "django = \"==4.2\"\n", "4.2"},
		{"pypi bare", EcosystemPyPI, "flask", "flask\n", ""},
		{"gem", EcosystemRubyGems, "rails", "gem 'rails', '~> 7.0.4'\n", "7.0.4"},
		{"go", EcosystemGo, "github.com/gin-gonic/gin", "require (\n\tgithub.com/gin-gonic/gin v1.9.1\n)\n", "v1.9.1"},
		{"cargo inline", EcosystemCargo, "axum", "axum = { version = \"0.7.2\" }\n", "0.7.2"},
		{"composer", EcosystemComposer, "laravel/framework", `{"laravel/framework": "^10.0"}`, "10.0"},
		{"absent", EcosystemNPM, "vue", `{"react": "1"}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractVersion(tt.eco, tt.dep, []byte(tt.content)))
		})
	}
}

func TestMatchesName(t *testing.T) {
	assert.True(t, matchesName("django", "Django"))
	assert.True(t, matchesName("github.com/labstack/echo*", "github.com/labstack/echo/v4"))
	assert.False(t, matchesName("react", "react-dom"))
}
