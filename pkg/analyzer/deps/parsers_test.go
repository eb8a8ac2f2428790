package deps

import (
	"testing"

	"github.com/panbanda/triage/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeVersion(t *testing.T) {
	tests := map[string]string{
		"^4.18.0":    "4.18.0",
		"~1.2":       "1.2",
		">=2.0":      "2.0",
		"<= 3":       "3",
		"==1.0.0":    "1.0.0",
		"~> 7.0.4":   "7.0.4",
		">=4.2,<5":   "4.2",
		"":           "*",
		"*":          "*",
		"latest":     "*",
		"1.2.3":      "1.2.3",
		"v1.9.1":     "v1.9.1",
		"^1.0 || ^2": "1.0",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeVersion(in), "input %q", in)
	}
}

func TestParsePackageJSON(t *testing.T) {
	got, err := ParsePackageJSON([]byte(`{"dependencies":{"express":"^4.18.0"}}`))
	require.NoError(t, err)
	assert.Equal(t, []models.Dependency{
		{Name: "express", Version: "4.18.0", Kind: models.DependencyRuntime},
	}, got)
}

func TestParsePackageJSON_DevAndMalformed(t *testing.T) {
	got, err := ParsePackageJSON([]byte(`{
  "dependencies": {"react": "18.2.0", "axios": "~1.4.0"},
  "devDependencies": {"jest": ">=29"}
}`))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "axios", got[0].Name)
	assert.Equal(t, "react", got[1].Name)
	assert.Equal(t, models.Dependency{Name: "jest", Version: "29", Kind: models.DependencyDev}, got[2])

	_, err = ParsePackageJSON([]byte(`{"dependencies": {`))
	assert.Error(t, err)
}

func TestParseRequirements(t *testing.T) {
	got, err := ParseRequirements([]byte(`# pinned
Django==4.2.1
requests
flask>=2.0,<3  # web
-r base.txt
-e git+https://example.com/pkg.git#egg=pkg
uvicorn[standard]~=0.23 ; python_version >= "3.8"

`))
	require.NoError(t, err)
	assert.Equal(t, []models.Dependency{
		{Name: "Django", Version: "4.2.1", Kind: models.DependencyRuntime},
		{Name: "requests", Version: "*", Kind: models.DependencyRuntime},
		{Name: "flask", Version: "2.0", Kind: models.DependencyRuntime},
		{Name: "uvicorn", Version: "0.23", Kind: models.DependencyRuntime},
	}, got)
}

func TestParseRequirements_Binary(t *testing.T) {
	_, err := ParseRequirements([]byte("django\x00\xff\xfe"))
	assert.ErrorIs(t, err, ErrBinaryManifest)
}

func TestParsePipfile(t *testing.T) {
	content := []byte(`[[source]]
url = "https://pypi.org/simple"

[packages]
django = "==4.2"
requests = {version = ">=2.31", extras = ["socks"]}
flask = "*"

[dev-packages]
pytest = "*"

[requires]
python_version = "3.11"
`)
	got, err := ParsePipfile(content)
	require.NoError(t, err)
	assert.Equal(t, []models.Dependency{
		{Name: "django", Version: "4.2", Kind: models.DependencyRuntime},
		{Name: "flask", Version: "*", Kind: models.DependencyRuntime},
		{Name: "requests", Version: "2.31", Kind: models.DependencyRuntime},
		{Name: "pytest", Version: "*", Kind: models.DependencyDev},
	}, got)
}

func TestParsePipfile_LineFallback(t *testing.T) {
	// Duplicate keys make this invalid TOML.
	content := []byte(`[packages]
django = "==4.2"
django = "==4.2"

[dev-packages]
black = {version = "==23.1"}

[scripts]
serve = "python manage.py runserver"
`)
	got, err := ParsePipfile(content)
	require.NoError(t, err)
	assert.Equal(t, []models.Dependency{
		{Name: "django", Version: "4.2", Kind: models.DependencyRuntime},
		{Name: "django", Version: "4.2", Kind: models.DependencyRuntime},
		{Name: "black", Version: "23.1", Kind: models.DependencyDev},
	}, got)
}

func TestParsePom(t *testing.T) {
	content := []byte(`<?xml version="1.0"?>
<project>
  <properties>
    <junit.version>5.10.0</junit.version>
  </properties>
  <dependencies>
    <dependency>
      <groupId>org.springframework.boot</groupId>
      <artifactId>spring-boot-starter-web</artifactId>
      <version>3.1.0</version>
    </dependency>
    <dependency>
      <groupId>org.junit.jupiter</groupId>
      <artifactId>junit-jupiter</artifactId>
      <version>${junit.version}</version>
      <scope>test</scope>
    </dependency>
    <dependency>
      <artifactId>standalone</artifactId>
      <version>${missing}</version>
    </dependency>
  </dependencies>
</project>`)
	got, err := ParsePom(content)
	require.NoError(t, err)
	assert.Equal(t, []models.Dependency{
		{Name: "org.springframework.boot:spring-boot-starter-web", Version: "3.1.0", Kind: models.DependencyRuntime},
		{Name: "org.junit.jupiter:junit-jupiter", Version: "5.10.0", Kind: models.DependencyDev},
		{Name: "standalone", Version: "*", Kind: models.DependencyRuntime},
	}, got)

	_, err = ParsePom([]byte("<project><dependencies>"))
	assert.Error(t, err)
}

func TestParseGradle(t *testing.T) {
	content := []byte(`plugins { id 'java' }
dependencies {
    implementation 'org.springframework.boot:spring-boot-starter-web:3.1.0'
    api "com.google.guava:guava:32.1.2-jre"
    compile 'commons-io:commons-io'
    testImplementation 'junit:junit:4.13.2'
    testCompile("org.mockito:mockito-core:5.0.0")
}
`)
	got, err := ParseGradle(content)
	require.NoError(t, err)
	assert.Equal(t, []models.Dependency{
		{Name: "org.springframework.boot:spring-boot-starter-web", Version: "3.1.0", Kind: models.DependencyRuntime},
		{Name: "com.google.guava:guava", Version: "32.1.2-jre", Kind: models.DependencyRuntime},
		{Name: "commons-io:commons-io", Version: "*", Kind: models.DependencyRuntime},
		{Name: "junit:junit", Version: "4.13.2", Kind: models.DependencyDev},
		{Name: "org.mockito:mockito-core", Version: "5.0.0", Kind: models.DependencyDev},
	}, got)
}

func TestParseComposer(t *testing.T) {
	got, err := ParseComposer([]byte(`{
  "require": {"php": "^8.1", "ext-json": "*", "laravel/framework": "^10.0"},
  "require-dev": {"phpunit/phpunit": "^10.1"}
}`))
	require.NoError(t, err)
	assert.Equal(t, []models.Dependency{
		{Name: "laravel/framework", Version: "10.0", Kind: models.DependencyRuntime},
		{Name: "phpunit/phpunit", Version: "10.1", Kind: models.DependencyDev},
	}, got)
}

func TestParseGemfile(t *testing.T) {
	got, err := ParseGemfile([]byte(`source "https://rubygems.org"
gem "rails", "~> 7.0.4"
gem 'pg'
gem 'debug', group: :development

group :development, :test do
  gem "rspec-rails", "6.0.0"
end

group :production do
  gem 'puma'
end
`))
	require.NoError(t, err)
	assert.Equal(t, []models.Dependency{
		{Name: "rails", Version: "7.0.4", Kind: models.DependencyRuntime},
		{Name: "pg", Version: "*", Kind: models.DependencyRuntime},
		{Name: "debug", Version: "*", Kind: models.DependencyDev},
		{Name: "rspec-rails", Version: "6.0.0", Kind: models.DependencyDev},
		{Name: "puma", Version: "*", Kind: models.DependencyRuntime},
	}, got)
}

func TestParseGemfile_NestedBlocksKeepGroup(t *testing.T) {
	got, err := ParseGemfile([]byte(`group :development, :test do
  platforms :mri do
    gem 'byebug'
  end
  gem 'rspec-rails'
end

source "https://gems.example.com" do
  gem 'private-gem'
end
gem 'rack'
`))
	require.NoError(t, err)
	assert.Equal(t, []models.Dependency{
		{Name: "byebug", Version: "*", Kind: models.DependencyDev},
		{Name: "rspec-rails", Version: "*", Kind: models.DependencyDev},
		{Name: "private-gem", Version: "*", Kind: models.DependencyRuntime},
		{Name: "rack", Version: "*", Kind: models.DependencyRuntime},
	}, got)
}

func TestParseGoMod(t *testing.T) {
	got, err := ParseGoMod([]byte(`module example.com/app

go 1.22

require (
	github.com/gin-gonic/gin v1.9.1
	golang.org/x/text v0.14.0 // indirect
)
`))
	require.NoError(t, err)
	assert.Equal(t, []models.Dependency{
		{Name: "github.com/gin-gonic/gin", Version: "v1.9.1", Kind: models.DependencyRuntime},
		{Name: "golang.org/x/text", Version: "v0.14.0", Kind: models.DependencyRuntime},
	}, got)
}

func TestParseCargo(t *testing.T) {
	got, err := ParseCargo([]byte(`[package]
name = "svc"

[dependencies]
axum = "0.7"
tokio = { version = "1.35", features = ["full"] }

[dev-dependencies]
criterion = "0.5"
`))
	require.NoError(t, err)
	assert.Equal(t, []models.Dependency{
		{Name: "axum", Version: "0.7", Kind: models.DependencyRuntime},
		{Name: "tokio", Version: "1.35", Kind: models.DependencyRuntime},
		{Name: "criterion", Version: "0.5", Kind: models.DependencyDev},
	}, got)
}

func TestParsePyproject(t *testing.T) {
	got, err := ParsePyproject([]byte(`[project]
name = "api"
dependencies = ["fastapi[all]>=0.100", "pydantic"]

[project.optional-dependencies]
dev = ["pytest>=7"]

[tool.poetry.dependencies]
python = "^3.11"
httpx = "^0.25"

[tool.poetry.group.lint.dependencies]
ruff = "0.1.0"
`))
	require.NoError(t, err)
	assert.Equal(t, []models.Dependency{
		{Name: "fastapi", Version: "0.100", Kind: models.DependencyRuntime},
		{Name: "pydantic", Version: "*", Kind: models.DependencyRuntime},
		{Name: "pytest", Version: "7", Kind: models.DependencyDev},
		{Name: "httpx", Version: "0.25", Kind: models.DependencyRuntime},
		{Name: "ruff", Version: "0.1.0", Kind: models.DependencyDev},
	}, got)
}

func TestIsManifest(t *testing.T) {
	assert.True(t, IsManifest("package.json"))
	assert.True(t, IsManifest("Pipfile"))
	assert.False(t, IsManifest("package-lock.json"))
}
