package models

// DependencyKind distinguishes runtime from development dependencies.
type DependencyKind string

const (
	DependencyRuntime DependencyKind = "runtime"
	DependencyDev     DependencyKind = "dev"
)

// AnyVersion is recorded when a manifest does not pin a version.
const AnyVersion = "*"

// Dependency is a package declared in a manifest.
type Dependency struct {
	Name     string         `json:"name"`
	Version  string         `json:"version"`
	Kind     DependencyKind `json:"kind"`
	Manifest string         `json:"manifest,omitempty"`
}

// Framework is a framework detected from manifest evidence.
type Framework struct {
	Name       string  `json:"name"`
	Version    *string `json:"version"`
	Confidence float64 `json:"confidence"`
}
