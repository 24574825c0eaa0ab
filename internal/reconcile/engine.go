// Package reconcile contains the reconciliation engine: it assigns each
// tracked item to the release window matching its due date and issues at
// most one field update per item, tolerating per-item failures.
package reconcile

import (
	"context"
	"log/slog"

	"github.com/unicaf/gh-release-sync/internal/github"
	"github.com/unicaf/gh-release-sync/internal/release"
)

// Outcome classifies what the engine did with one item
type Outcome string

const (
	OutcomeUpdated          Outcome = "updated"
	OutcomeAlreadyCurrent   Outcome = "already_current"
	OutcomeNoDueDate        Outcome = "no_due_date"
	OutcomeNoMatchingWindow Outcome = "no_matching_window"
	OutcomeSkippedClosed    Outcome = "skipped_closed"
	OutcomeMutationFailed   Outcome = "mutation_failed"
)

// ItemResult is the per-item detail of one reconciliation pass
type ItemResult struct {
	ItemID   string
	Title    string
	Outcome  Outcome
	OptionID string
	Label    string
	Err      error
}

// Report tallies one reconciliation run. It is the primary observable
// artifact of a run and the basis for monitoring.
type Report struct {
	Updated          int
	AlreadyCurrent   int
	NoDueDate        int
	NoMatchingWindow int
	SkippedClosed    int
	MutationFailed   int

	Items []ItemResult
}

func (r *Report) add(res ItemResult) {
	switch res.Outcome {
	case OutcomeUpdated:
		r.Updated++
	case OutcomeAlreadyCurrent:
		r.AlreadyCurrent++
	case OutcomeNoDueDate:
		r.NoDueDate++
	case OutcomeNoMatchingWindow:
		r.NoMatchingWindow++
	case OutcomeSkippedClosed:
		r.SkippedClosed++
	case OutcomeMutationFailed:
		r.MutationFailed++
	}
	r.Items = append(r.Items, res)
}

// Failed reports whether any mutation was rejected
func (r *Report) Failed() bool {
	return r.MutationFailed > 0
}

// Log emits the run summary
func (r *Report) Log() {
	slog.Info("reconciliation report",
		"updated", r.Updated,
		"already_current", r.AlreadyCurrent,
		"no_due_date", r.NoDueDate,
		"no_matching_window", r.NoMatchingWindow,
		"skipped_closed", r.SkippedClosed,
		"mutation_failed", r.MutationFailed,
	)
}

// Engine assigns items to release windows
type Engine struct {
	client github.Client
	dryRun bool
}

// NewEngine creates a new reconciliation engine
func NewEngine(client github.Client, dryRun bool) *Engine {
	return &Engine{client: client, dryRun: dryRun}
}

// Reconcile processes the items in fetch order. For each open item with a
// due date it selects the first calendar window containing the date and,
// unless the item already carries that option, issues exactly one field
// update. A failed update is recorded and does not stop later items. In
// dry-run mode the report is computed identically but nothing is written.
func (e *Engine) Reconcile(ctx context.Context, projectID string, items []github.TrackedItem, calendar *release.Calendar, releaseField github.FieldRef) *Report {
	report := &Report{}

	for _, item := range items {
		report.add(e.reconcileItem(ctx, projectID, item, calendar, releaseField))
	}

	return report
}

func (e *Engine) reconcileItem(ctx context.Context, projectID string, item github.TrackedItem, calendar *release.Calendar, releaseField github.FieldRef) ItemResult {
	res := ItemResult{ItemID: item.ItemID, Title: item.Title}

	if item.State == github.IssueStateClosed {
		res.Outcome = OutcomeSkippedClosed
		return res
	}

	if item.DueDate == nil {
		slog.Info("no due date found", "item", item.Title)
		res.Outcome = OutcomeNoDueDate
		return res
	}

	window, ok := calendar.Match(*item.DueDate)
	if !ok {
		slog.Info("no release window matches due date",
			"item", item.Title,
			"due_date", item.DueDate.Format("2006-01-02"),
		)
		res.Outcome = OutcomeNoMatchingWindow
		return res
	}
	res.OptionID = window.OptionID
	res.Label = window.Label

	if item.ReleaseOptionID == window.OptionID {
		slog.Debug("skipping field update",
			"message", "release already up to date",
			"item", item.Title,
			"release", window.Label,
		)
		res.Outcome = OutcomeAlreadyCurrent
		return res
	}

	if e.dryRun {
		slog.Info("dry run, would set release",
			"item", item.Title,
			"release", window.Label,
			"due_date", item.DueDate.Format("2006-01-02"),
		)
		res.Outcome = OutcomeUpdated
		return res
	}

	if _, err := e.client.UpdateItemFieldOption(ctx, projectID, item.ItemID, releaseField.ID, window.OptionID); err != nil {
		slog.Error("failed to update release field",
			"item", item.Title,
			"release", window.Label,
			"error", err,
		)
		res.Outcome = OutcomeMutationFailed
		res.Err = err
		return res
	}

	slog.Info("release assigned",
		"item", item.Title,
		"release", window.Label,
		"due_date", item.DueDate.Format("2006-01-02"),
	)
	res.Outcome = OutcomeUpdated
	return res
}
