package github

import (
	"context"
)

// MockClient implements the Client interface for testing
type MockClient struct {
	GetProjectIDFunc          func(ctx context.Context, ownerType OwnerType, ownerLogin string, projectNumber int) (string, error)
	GetProjectIDByTitleFunc   func(ctx context.Context, ownerType OwnerType, ownerLogin string, title string) (string, error)
	GetProjectItemsFunc       func(ctx context.Context, projectID string, fields ItemFieldNames, opts FetchOptions) ([]TrackedItem, error)
	GetRepoIssuesFunc         func(ctx context.Context, owner, repo string, projectNumber int, fields ItemFieldNames) ([]TrackedItem, error)
	GetSingleSelectFieldFunc  func(ctx context.Context, projectID string, fieldName string) (*SingleSelectField, error)
	GetDateFieldFunc          func(ctx context.Context, projectID string, fieldName string) (*FieldRef, error)
	UpdateItemFieldOptionFunc func(ctx context.Context, projectID, itemID, fieldID, optionID string) (string, error)
	HasMergedPullRequestFunc  func(ctx context.Context, issueID string) (bool, error)
}

// GetProjectID implements the Client interface
func (c *MockClient) GetProjectID(ctx context.Context, ownerType OwnerType, ownerLogin string, projectNumber int) (string, error) {
	if c.GetProjectIDFunc != nil {
		return c.GetProjectIDFunc(ctx, ownerType, ownerLogin, projectNumber)
	}
	return "", nil
}

// GetProjectIDByTitle implements the Client interface
func (c *MockClient) GetProjectIDByTitle(ctx context.Context, ownerType OwnerType, ownerLogin string, title string) (string, error) {
	if c.GetProjectIDByTitleFunc != nil {
		return c.GetProjectIDByTitleFunc(ctx, ownerType, ownerLogin, title)
	}
	return "", nil
}

// GetProjectItems implements the Client interface
func (c *MockClient) GetProjectItems(ctx context.Context, projectID string, fields ItemFieldNames, opts FetchOptions) ([]TrackedItem, error) {
	if c.GetProjectItemsFunc != nil {
		return c.GetProjectItemsFunc(ctx, projectID, fields, opts)
	}
	return nil, nil
}

// GetRepoIssues implements the Client interface
func (c *MockClient) GetRepoIssues(ctx context.Context, owner, repo string, projectNumber int, fields ItemFieldNames) ([]TrackedItem, error) {
	if c.GetRepoIssuesFunc != nil {
		return c.GetRepoIssuesFunc(ctx, owner, repo, projectNumber, fields)
	}
	return nil, nil
}

// GetSingleSelectField implements the Client interface
func (c *MockClient) GetSingleSelectField(ctx context.Context, projectID string, fieldName string) (*SingleSelectField, error) {
	if c.GetSingleSelectFieldFunc != nil {
		return c.GetSingleSelectFieldFunc(ctx, projectID, fieldName)
	}
	return nil, nil
}

// GetDateField implements the Client interface
func (c *MockClient) GetDateField(ctx context.Context, projectID string, fieldName string) (*FieldRef, error) {
	if c.GetDateFieldFunc != nil {
		return c.GetDateFieldFunc(ctx, projectID, fieldName)
	}
	return nil, nil
}

// UpdateItemFieldOption implements the Client interface
func (c *MockClient) UpdateItemFieldOption(ctx context.Context, projectID, itemID, fieldID, optionID string) (string, error) {
	if c.UpdateItemFieldOptionFunc != nil {
		return c.UpdateItemFieldOptionFunc(ctx, projectID, itemID, fieldID, optionID)
	}
	return itemID, nil
}

// HasMergedPullRequest implements the Client interface
func (c *MockClient) HasMergedPullRequest(ctx context.Context, issueID string) (bool, error) {
	if c.HasMergedPullRequestFunc != nil {
		return c.HasMergedPullRequestFunc(ctx, issueID)
	}
	return false, nil
}
