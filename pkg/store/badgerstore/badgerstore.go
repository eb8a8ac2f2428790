// Package badgerstore persists project statuses and analysis reports in an
// embedded Badger database.
package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/panbanda/triage/pkg/models"
	"github.com/panbanda/triage/pkg/store"
)

const (
	statusPrefix = "status/"
	reportPrefix = "report/"
)

// Config holds options for opening a store.
type Config struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path       string
	InMemory   bool
	SyncWrites bool
	Logger     *slog.Logger
}

// Store is a Badger-backed project and analysis store.
type Store struct {
	db *badger.DB
}

type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// Open opens or creates a store.
func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("badgerstore: path is required for a persistent store")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create store directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func statusKey(projectID string) []byte {
	return []byte(statusPrefix + projectID)
}

func reportKey(projectID, agentType string) []byte {
	return []byte(reportPrefix + projectID + "/" + agentType)
}

// UpdateStatus moves a project to status, enforcing the lifecycle. The read
// and write happen in one transaction.
func (s *Store) UpdateStatus(ctx context.Context, projectID string, status models.ProjectStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		current, err := readStatus(txn, projectID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if err := store.CheckTransition(current, status); err != nil {
			return fmt.Errorf("project %s: %w", projectID, err)
		}
		return txn.Set(statusKey(projectID), []byte(status))
	})
}

// Status returns the current status of a project.
func (s *Store) Status(_ context.Context, projectID string) (models.ProjectStatus, error) {
	var status models.ProjectStatus
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		status, err = readStatus(txn, projectID)
		return err
	})
	return status, err
}

func readStatus(txn *badger.Txn, projectID string) (models.ProjectStatus, error) {
	item, err := txn.Get(statusKey(projectID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", fmt.Errorf("project %s: %w", projectID, store.ErrNotFound)
	}
	if err != nil {
		return "", err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return "", err
	}
	return models.ProjectStatus(val), nil
}

// Save stores report as JSON under the project and agent type.
func (s *Store) Save(ctx context.Context, projectID, agentType string, report *models.AnalysisReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(reportKey(projectID, agentType), data)
	})
}

// Get loads a stored report.
func (s *Store) Get(_ context.Context, projectID, agentType string) (*models.AnalysisReport, error) {
	var report models.AnalysisReport
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(reportKey(projectID, agentType))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("report %s/%s: %w", projectID, agentType, store.ErrNotFound)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &report)
		})
	})
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// Summary is one project listed by List.
type Summary struct {
	ProjectID string               `json:"project_id"`
	Status    models.ProjectStatus `json:"status"`
}

// List returns every known project in key order.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	var out []Summary
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(statusPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			out = append(out, Summary{
				ProjectID: strings.TrimPrefix(string(item.Key()), statusPrefix),
				Status:    models.ProjectStatus(val),
			})
		}
		return nil
	})
	return out, err
}
