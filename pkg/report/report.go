// Package report assembles analyzer output into an AnalysisReport, checks it
// against the report schema and hands it to the analysis store.
package report

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/panbanda/triage/pkg/models"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// AgentType is the key code analysis reports are stored under.
const AgentType = "code_analysis"

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "https://github.com/panbanda/triage/schema/analysis-report.json"

// ErrInvalidReport is returned when a report does not satisfy the schema.
var ErrInvalidReport = errors.New("report does not match schema")

// AnalysisStore persists finished reports.
type AnalysisStore interface {
	Save(ctx context.Context, projectID, agentType string, report *models.AnalysisReport) error
}

// Data is everything the analyzers produced for one run. Nil lists are
// allowed and become empty lists in the report.
type Data struct {
	StartTime    time.Time
	EndTime      time.Time
	Languages    []models.LanguageStat
	Frameworks   []models.Framework
	Dependencies []models.Dependency
	Metrics      models.CodeMetrics
	Issues       []models.CodeSmell
}

// Generator builds and persists reports.
type Generator struct {
	store AnalysisStore
	now   func() time.Time
}

// Option is a functional option for configuring Generator.
type Option func(*Generator)

// WithClock overrides the time source used for missing timestamps.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

// New creates a generator that saves to store.
func New(store AnalysisStore, opts ...Option) *Generator {
	g := &Generator{store: store, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate builds a completed report from data.
func (g *Generator) Generate(data Data) *models.AnalysisReport {
	r := g.build(data)
	r.Status = models.ReportCompleted
	return r
}

// GeneratePartial builds a partial report for a run that ended with cause.
// Whatever data was gathered is kept; everything else is empty.
func (g *Generator) GeneratePartial(data Data, cause error) *models.AnalysisReport {
	r := g.build(data)
	r.Status = models.ReportPartial
	if cause != nil {
		r.Error = cause.Error()
	} else {
		r.Error = "analysis incomplete"
	}
	return r
}

func (g *Generator) build(data Data) *models.AnalysisReport {
	r := &models.AnalysisReport{
		StartTime:    data.StartTime,
		EndTime:      data.EndTime,
		Languages:    data.Languages,
		Frameworks:   data.Frameworks,
		Dependencies: data.Dependencies,
		Metrics:      data.Metrics,
		Issues:       data.Issues,
	}
	if r.EndTime.IsZero() {
		r.EndTime = g.now()
	}
	if r.StartTime.IsZero() {
		r.StartTime = r.EndTime
	}
	r.Normalize()
	return r
}

// Save stamps report with projectID, validates it and stores it under
// AgentType.
func (g *Generator) Save(ctx context.Context, projectID string, report *models.AnalysisReport) error {
	if g.store == nil {
		return errors.New("report: no analysis store configured")
	}
	report.ProjectID = projectID
	report.Normalize()
	if err := Validate(report); err != nil {
		return err
	}
	if err := g.store.Save(ctx, projectID, AgentType, report); err != nil {
		return fmt.Errorf("save report %s: %w", projectID, err)
	}
	return nil
}

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("load report schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, fmt.Errorf("load report schema: %w", err)
	}
	return c.Compile(schemaURL)
})

// Validate checks the JSON form of report against the embedded schema.
func Validate(report *models.AnalysisReport) error {
	schema, err := compiledSchema()
	if err != nil {
		return err
	}
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode report: %w", err)
	}
	if err := schema.Validate(inst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidReport, err)
	}
	return nil
}

// Schema returns the embedded JSON schema reports are validated against.
func Schema() []byte {
	return bytes.Clone(schemaJSON)
}
