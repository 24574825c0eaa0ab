package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/unicaf/gh-release-sync/internal/config"
	"github.com/unicaf/gh-release-sync/internal/github"
	"github.com/unicaf/gh-release-sync/internal/release"
)

// Service orchestrates one reconciliation run: board and field resolution,
// item fetch, calendar resolution, engine and promoter passes. Every run
// starts from a cold slate; nothing is cached across runs.
type Service struct {
	client github.Client
	cfg    *config.Config
	now    func() time.Time
}

// NewService creates a new reconciliation service
func NewService(client github.Client, cfg *config.Config) *Service {
	return &Service{client: client, cfg: cfg, now: time.Now}
}

// board holds everything resolved once per run and reused for all items
type board struct {
	projectID    string
	dueDateField github.FieldRef
	releaseField *github.SingleSelectField
	statusField  *github.SingleSelectField
}

// resolveBoard resolves the project and its fields. Any failure here is a
// run precondition failure: there is nothing to reconcile without them.
func (s *Service) resolveBoard(ctx context.Context) (*board, error) {
	ownerType := github.ParseOwnerType(s.cfg.OwnerType)

	var projectID string
	var err error
	if s.cfg.ProjectNumber > 0 {
		projectID, err = s.client.GetProjectID(ctx, ownerType, s.cfg.RepositoryOwner, s.cfg.ProjectNumber)
	} else {
		projectID, err = s.client.GetProjectIDByTitle(ctx, ownerType, s.cfg.RepositoryOwner, s.cfg.ProjectTitle)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project: %w", err)
	}

	releaseField, err := s.client.GetSingleSelectField(ctx, projectID, s.cfg.ReleaseFieldName)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve release field: %w", err)
	}

	statusField, err := s.client.GetSingleSelectField(ctx, projectID, s.cfg.StatusFieldName)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve status field: %w", err)
	}

	dueDateField, err := s.client.GetDateField(ctx, projectID, s.cfg.DueDateFieldName)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve due date field: %w", err)
	}

	slog.Debug("resolved board fields",
		"project_id", projectID,
		"due_date_field", dueDateField.ID,
		"release_field", releaseField.ID,
		"status_field", statusField.ID,
	)

	return &board{
		projectID:    projectID,
		dueDateField: *dueDateField,
		releaseField: releaseField,
		statusField:  statusField,
	}, nil
}

// fetchItems retrieves the tracked items for the configured scope. A
// fetch failure degrades to an empty item set: it is logged at error
// level and the run continues with whatever was retrievable.
func (s *Service) fetchItems(ctx context.Context, b *board) []github.TrackedItem {
	fields := github.ItemFieldNames{
		DueDate: s.cfg.DueDateFieldName,
		Release: s.cfg.ReleaseFieldName,
		Status:  s.cfg.StatusFieldName,
	}

	var items []github.TrackedItem
	var err error
	if s.cfg.Enterprise {
		items, err = s.client.GetProjectItems(ctx, b.projectID, fields, github.FetchOptions{OpenOnly: true})
	} else {
		items, err = s.client.GetRepoIssues(ctx, s.cfg.RepositoryOwner, s.cfg.RepositoryName, s.cfg.ProjectNumber, fields)
	}
	if err != nil {
		slog.Error("failed to fetch items", "error", err)
		return nil
	}
	if len(items) == 0 {
		slog.Info("no items have been found")
	}
	return items
}

// terminalStatusOption finds the option of the terminal status label
func (s *Service) terminalStatusOption(b *board) (github.FieldOption, error) {
	for _, opt := range b.statusField.Options {
		if opt.Name == s.cfg.StatusTerminalValue {
			return opt, nil
		}
	}
	return github.FieldOption{}, fmt.Errorf("status option %q: %w", s.cfg.StatusTerminalValue, github.ErrFieldNotFound)
}

// Run executes a full reconciliation: the engine pass followed by the
// status promotion pass over the same fetched item set.
func (s *Service) Run(ctx context.Context) (*Report, *PromoteReport, error) {
	b, err := s.resolveBoard(ctx)
	if err != nil {
		return nil, nil, err
	}

	terminal, err := s.terminalStatusOption(b)
	if err != nil {
		return nil, nil, err
	}

	items := s.fetchItems(ctx, b)
	calendar := release.ResolveCalendar(b.releaseField, s.now(), s.cfg.ReleaseExcludeLabels)
	slog.Info("resolved release calendar",
		"windows", calendar.Len(),
		"options", len(b.releaseField.Options),
	)

	report := NewEngine(s.client, s.cfg.DryRun).Reconcile(ctx, b.projectID, items, calendar, b.releaseField.FieldRef)
	report.Log()

	promoteReport := NewPromoter(s.client, s.cfg.DryRun).Promote(ctx, b.projectID, items, b.statusField.FieldRef, terminal)
	promoteReport.Log()

	return report, promoteReport, nil
}

// Promote executes only the status promotion pass
func (s *Service) Promote(ctx context.Context) (*PromoteReport, error) {
	b, err := s.resolveBoard(ctx)
	if err != nil {
		return nil, err
	}

	terminal, err := s.terminalStatusOption(b)
	if err != nil {
		return nil, err
	}

	items := s.fetchItems(ctx, b)
	report := NewPromoter(s.client, s.cfg.DryRun).Promote(ctx, b.projectID, items, b.statusField.FieldRef, terminal)
	report.Log()
	return report, nil
}

// ReleaseCalendar resolves and returns the release calendar of the board
func (s *Service) ReleaseCalendar(ctx context.Context) (*release.Calendar, error) {
	b, err := s.resolveBoard(ctx)
	if err != nil {
		return nil, err
	}
	return release.ResolveCalendar(b.releaseField, s.now(), s.cfg.ReleaseExcludeLabels), nil
}
