package core

import (
	"context"
	"fmt"
	"time"

	"github.com/JonMunkholm/doorsync/internal/logging"
	"github.com/google/uuid"
)

// Settings are the per-account values the engine needs.
type Settings struct {
	AccountName      string
	LocalPhonePrefix string
	SecurityLevels   SecurityLevels
}

// ServiceConfig bounds how many reconciliations may run at once.
type ServiceConfig struct {
	MaxConcurrent int
	MaxWait       time.Duration
}

// Service is the entry point shared by the batch command and the web server.
// Each Run owns its own code book, so runs never share mutable state; the
// limiter only caps memory when many uploads arrive together.
type Service struct {
	settings Settings
	limiter  *RunLimiter
}

// NewService creates a service for one account.
func NewService(settings Settings, cfg ServiceConfig) *Service {
	return &Service{
		settings: settings,
		limiter:  NewRunLimiter(cfg.MaxConcurrent, cfg.MaxWait),
	}
}

// Settings returns the account settings the service was created with.
func (s *Service) Settings() Settings {
	return s.settings
}

// Summary counts what a run produced.
type Summary struct {
	DirectoryRows int `json:"directoryRows"`
	CodeRows      int `json:"codeRows"`
	DeletedRows   int `json:"deletedRows"`
	Entries       int `json:"entries"`
	Primary       int `json:"primary"`
	Hidden        int `json:"hidden"`
	Vendors       int `json:"vendors"`
	Legacy        int `json:"legacy"`
	Coded         int `json:"coded"`
}

// RunResult is the outcome of a successful run.
type RunResult struct {
	RunID    string        `json:"runId"`
	Entries  []Entry       `json:"entries"`
	Summary  Summary       `json:"summary"`
	Duration time.Duration `json:"durationNs"`
}

// Run reconciles one set of tables. It either returns every entry or an
// error; there is no partial result.
func (s *Service) Run(ctx context.Context, tables Tables) (*RunResult, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	runID := uuid.NewString()
	logger := logging.WithFields(ctx, "run_id", runID, "account", s.settings.AccountName)
	start := time.Now()

	logger.Info("run started",
		"directory_rows", len(tables.Directory),
		"code_rows", len(tables.Codes),
		"deleted_rows", len(tables.Deleted),
	)

	entries, err := Reconcile(tables, s.settings.LocalPhonePrefix, s.settings.SecurityLevels)
	if err != nil {
		logger.Error("run failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	summary := Summarize(tables, entries)
	duration := time.Since(start)
	logger.Info("run finished",
		"entries", summary.Entries,
		"hidden", summary.Hidden,
		"vendors", summary.Vendors,
		"legacy", summary.Legacy,
		"duration_ms", duration.Milliseconds(),
	)

	return &RunResult{
		RunID:    runID,
		Entries:  entries,
		Summary:  summary,
		Duration: duration,
	}, nil
}

// Summarize counts the entries of a run by kind.
func Summarize(tables Tables, entries []Entry) Summary {
	sum := Summary{
		DirectoryRows: len(tables.Directory),
		CodeRows:      len(tables.Codes),
		DeletedRows:   len(tables.Deleted),
		Entries:       len(entries),
	}
	for _, e := range entries {
		if _, ok := e.EntryCode(); ok {
			sum.Coded++
		}
		switch {
		case e.Vendor():
			sum.Vendors++
		case e.Notes() == legacyEntryNotes && e.Hidden():
			sum.Legacy++
		case e.Hidden():
			sum.Hidden++
		default:
			sum.Primary++
		}
	}
	return sum
}

// LimiterStatus reports how many runs are in flight.
func (s *Service) LimiterStatus() RunLimiterStatus {
	return s.limiter.Status()
}

// WaitForRuns blocks until in-flight runs finish or ctx is done.
func (s *Service) WaitForRuns(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
