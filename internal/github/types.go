package github

import (
	"time"
)

// OwnerType represents the type of project owner (user or organization)
type OwnerType int

const (
	// OwnerTypeUser represents a user-owned project
	OwnerTypeUser OwnerType = iota
	// OwnerTypeOrg represents an organization-owned project
	OwnerTypeOrg
)

// ParseOwnerType converts the owner type string from the action environment
func ParseOwnerType(s string) OwnerType {
	if s == "organization" || s == "org" {
		return OwnerTypeOrg
	}
	return OwnerTypeUser
}

// IssueState is the open/closed state of the underlying issue
type IssueState string

const (
	IssueStateOpen   IssueState = "OPEN"
	IssueStateClosed IssueState = "CLOSED"
)

// Assignee is one user assigned to an issue
type Assignee struct {
	Login string
	Name  string
	Email string
}

// TrackedItem is one project item together with the board-scoped field
// values the reconciler cares about. ItemID is the project item node ID,
// IssueID the underlying issue node ID; the two identifier spaces are
// distinct and must not be mixed.
type TrackedItem struct {
	ItemID          string
	IssueID         string
	Title           string
	URL             string
	State           IssueState
	DueDate         *time.Time
	ReleaseOptionID string
	StatusOptionID  string
	StatusName      string
	Assignees       []Assignee
}

// FieldRef identifies a project field, resolved once per run and reused
// for every item in that run.
type FieldRef struct {
	ID   string
	Name string
}

// FieldOption is one option of a single-select field
type FieldOption struct {
	ID   string
	Name string
}

// SingleSelectField is a single-select project field with its options in
// the order the server declared them.
type SingleSelectField struct {
	FieldRef
	Options []FieldOption
}

// ItemFieldNames names the board fields whose values are fetched per item
type ItemFieldNames struct {
	DueDate string
	Release string
	Status  string
}

// FetchOptions control item-level filtering during a paginated fetch
type FetchOptions struct {
	// OpenOnly drops items whose issue is not open, per page, before
	// accumulation, so pagination cursors are unaffected by filtering.
	OpenOnly bool
}
