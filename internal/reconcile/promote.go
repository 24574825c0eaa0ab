package reconcile

import (
	"context"
	"log/slog"

	"github.com/unicaf/gh-release-sync/internal/github"
)

// PromoteReport tallies one status promotion pass
type PromoteReport struct {
	Promoted        int
	AlreadyTerminal int
	NotMerged       int
	SkippedClosed   int
	CheckFailed     int
	MutationFailed  int
}

// Failed reports whether any status mutation was rejected
func (r *PromoteReport) Failed() bool {
	return r.MutationFailed > 0
}

// Log emits the promotion summary
func (r *PromoteReport) Log() {
	slog.Info("status promotion report",
		"promoted", r.Promoted,
		"already_terminal", r.AlreadyTerminal,
		"not_merged", r.NotMerged,
		"skipped_closed", r.SkippedClosed,
		"check_failed", r.CheckFailed,
		"mutation_failed", r.MutationFailed,
	)
}

// Promoter moves items whose issue has a merged pull request into the
// terminal status. The transition is one-way: items already in the
// terminal status are never touched.
type Promoter struct {
	client github.Client
	dryRun bool
}

// NewPromoter creates a new status promoter
func NewPromoter(client github.Client, dryRun bool) *Promoter {
	return &Promoter{client: client, dryRun: dryRun}
}

// Promote processes the items in fetch order. statusField must be the
// resolved status field and terminal the option of its terminal label.
// Per-item failures are counted and never stop later items.
func (p *Promoter) Promote(ctx context.Context, projectID string, items []github.TrackedItem, statusField github.FieldRef, terminal github.FieldOption) *PromoteReport {
	report := &PromoteReport{}

	for _, item := range items {
		if item.State == github.IssueStateClosed {
			report.SkippedClosed++
			continue
		}
		if item.StatusOptionID == terminal.ID || item.StatusName == terminal.Name {
			report.AlreadyTerminal++
			continue
		}

		merged, err := p.client.HasMergedPullRequest(ctx, item.IssueID)
		if err != nil {
			slog.Error("failed to check pull request state", "item", item.Title, "error", err)
			report.CheckFailed++
			continue
		}
		if !merged {
			report.NotMerged++
			continue
		}

		if p.dryRun {
			slog.Info("dry run, would set status", "item", item.Title, "status", terminal.Name)
			report.Promoted++
			continue
		}

		if _, err := p.client.UpdateItemFieldOption(ctx, projectID, item.ItemID, statusField.ID, terminal.ID); err != nil {
			slog.Error("failed to update status field", "item", item.Title, "error", err)
			report.MutationFailed++
			continue
		}

		slog.Info("status promoted", "item", item.Title, "status", terminal.Name)
		report.Promoted++
	}

	return report
}
