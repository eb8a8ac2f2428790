// Package memstore is an in-memory project and analysis store.
package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/panbanda/triage/pkg/models"
	"github.com/panbanda/triage/pkg/store"
)

type reportKey struct {
	projectID string
	agentType string
}

// Store keeps project statuses and reports in memory. It is safe for
// concurrent use.
type Store struct {
	mu       sync.RWMutex
	statuses map[string]models.ProjectStatus
	history  map[string][]models.ProjectStatus
	reports  map[reportKey][]byte
}

// New creates an empty store.
func New() *Store {
	return &Store{
		statuses: make(map[string]models.ProjectStatus),
		history:  make(map[string][]models.ProjectStatus),
		reports:  make(map[reportKey][]byte),
	}
}

// UpdateStatus moves a project to status, enforcing the lifecycle.
func (s *Store) UpdateStatus(ctx context.Context, projectID string, status models.ProjectStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := store.CheckTransition(s.statuses[projectID], status); err != nil {
		return fmt.Errorf("project %s: %w", projectID, err)
	}
	s.statuses[projectID] = status
	s.history[projectID] = append(s.history[projectID], status)
	return nil
}

// Status returns the current status of a project.
func (s *Store) Status(_ context.Context, projectID string) (models.ProjectStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	status, ok := s.statuses[projectID]
	if !ok {
		return "", fmt.Errorf("project %s: %w", projectID, store.ErrNotFound)
	}
	return status, nil
}

// History returns every status a project has been moved to, in order.
func (s *Store) History(projectID string) []models.ProjectStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.history[projectID])
}

// Save stores a snapshot of report. Later changes to report are not seen.
func (s *Store) Save(ctx context.Context, projectID, agentType string, report *models.AnalysisReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	s.mu.Lock()
	s.reports[reportKey{projectID, agentType}] = data
	s.mu.Unlock()
	return nil
}

// Get returns the stored report for a project and agent type.
func (s *Store) Get(_ context.Context, projectID, agentType string) (*models.AnalysisReport, error) {
	s.mu.RLock()
	data, ok := s.reports[reportKey{projectID, agentType}]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("report %s/%s: %w", projectID, agentType, store.ErrNotFound)
	}
	var report models.AnalysisReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &report, nil
}
