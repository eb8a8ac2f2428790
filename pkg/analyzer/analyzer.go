// Package analyzer holds what the pipeline's analyzers share: progress
// tracking carried through the context and the stage names used in logs
// and metrics.
package analyzer

// Stage names, in pipeline order.
const (
	StageDiscover     = "discover"
	StageLanguages    = "languages"
	StageDependencies = "dependencies"
	StageMetrics      = "metrics"
	StageSmells       = "smells"
	StageReport       = "report"
)

// Stages lists the stage names in execution order.
var Stages = []string{
	StageDiscover,
	StageLanguages,
	StageDependencies,
	StageMetrics,
	StageSmells,
	StageReport,
}
