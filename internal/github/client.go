package github

import (
	"context"
	"errors"
)

// Sentinel errors for run preconditions. Anything wrapping these aborts
// the whole run; other errors degrade to per-scope or per-item skips.
var (
	// ErrProjectNotFound indicates the project could not be resolved
	ErrProjectNotFound = errors.New("project not found")
	// ErrFieldNotFound indicates a named field is absent from the project
	ErrFieldNotFound = errors.New("field not found")
)

// Client defines the interface for interacting with GitHub
type Client interface {
	// GetProjectID retrieves the globally unique node ID for a project
	GetProjectID(ctx context.Context, ownerType OwnerType, ownerLogin string, projectNumber int) (string, error)

	// GetProjectIDByTitle retrieves a project node ID by its title
	GetProjectIDByTitle(ctx context.Context, ownerType OwnerType, ownerLogin string, title string) (string, error)

	// GetProjectItems retrieves all items of a project with the named
	// field values, following pagination cursors until exhausted
	GetProjectItems(ctx context.Context, projectID string, fields ItemFieldNames, opts FetchOptions) ([]TrackedItem, error)

	// GetRepoIssues retrieves the open issues of a repository together
	// with their items on the given project, following pagination
	GetRepoIssues(ctx context.Context, owner, repo string, projectNumber int, fields ItemFieldNames) ([]TrackedItem, error)

	// GetSingleSelectField resolves a single-select field and its options
	// in server-declared order
	GetSingleSelectField(ctx context.Context, projectID string, fieldName string) (*SingleSelectField, error)

	// GetDateField resolves a date field by name
	GetDateField(ctx context.Context, projectID string, fieldName string) (*FieldRef, error)

	// UpdateItemFieldOption sets a single-select field of an item to the
	// given option and returns the updated item ID
	UpdateItemFieldOption(ctx context.Context, projectID, itemID, fieldID, optionID string) (string, error)

	// HasMergedPullRequest reports whether the issue is referenced by at
	// least one merged pull request
	HasMergedPullRequest(ctx context.Context, issueID string) (bool, error)
}
