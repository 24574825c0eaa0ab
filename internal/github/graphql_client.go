package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	gogithub "github.com/google/go-github/v41/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"
)

// GraphQLClient implements the Client interface using GitHub's GraphQL API
type GraphQLClient struct {
	client *githubv4.Client
}

// CustomDate is a custom date type that can parse GitHub's date format.
// A malformed value degrades to the zero time so that a single bad field
// value skips one item instead of failing the whole page.
type CustomDate struct {
	time.Time
}

// UnmarshalJSON implements the json.Unmarshaler interface
func (d *CustomDate) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s == "null" {
		return nil
	}
	// Remove quotes
	s = s[1 : len(s)-1]

	// Parse date in YYYY-MM-DD format
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		slog.Warn("unparsable date value, skipping", "value", s)
		return nil
	}

	d.Time = t
	return nil
}

// NewGraphQLClient creates a new GitHub GraphQL client. graphqlURL selects
// an Enterprise endpoint when set to something other than the public API;
// serverURL is used to derive the REST base URL for the startup token
// check. verbose enables HTTP traffic dumping.
func NewGraphQLClient(ctx context.Context, token, graphqlURL, serverURL string, verbose bool) (*GraphQLClient, error) {
	if token == "" {
		return nil, fmt.Errorf("github token is empty")
	}

	src := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	httpClient := oauth2.NewClient(ctx, src)

	if verbose {
		httpClient.Transport = &debugTransport{
			transport: httpClient.Transport,
		}
	}

	if err := verifyToken(ctx, httpClient, serverURL); err != nil {
		return nil, err
	}

	var client *githubv4.Client
	if graphqlURL != "" && graphqlURL != "https://api.github.com/graphql" {
		client = githubv4.NewEnterpriseClient(graphqlURL, httpClient)
	} else {
		client = githubv4.NewClient(httpClient)
	}

	return &GraphQLClient{client: client}, nil
}

// verifyToken tests the token against the REST API before any GraphQL
// traffic, so auth failures surface with a clear error instead of an
// empty query result.
func verifyToken(ctx context.Context, httpClient *http.Client, serverURL string) error {
	client := gogithub.NewClient(httpClient)

	if serverURL != "" && serverURL != "https://github.com" {
		apiURL := strings.TrimSuffix(serverURL, "/") + "/api/v3/"
		parsed, err := url.Parse(apiURL)
		if err != nil {
			return fmt.Errorf("invalid server URL %q: %w", serverURL, err)
		}
		client.BaseURL = parsed
		client.UploadURL = parsed
	}

	tctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	user, _, err := client.Users.Get(tctx, "")
	if err != nil {
		return fmt.Errorf("failed to verify github token: %w", err)
	}

	slog.Debug("github authentication successful", "login", user.GetLogin())
	return nil
}

// pageInfo carries the pagination cursor of one page
type pageInfo struct {
	HasNextPage bool
	EndCursor   githubv4.String
}

// GraphQL node shapes shared by the item and issue queries
type (
	assigneeNode struct {
		Login string
		Name  string
		Email string
	}

	issueContent struct {
		ID        string
		Title     string
		URL       string
		State     string
		Assignees struct {
			Nodes []assigneeNode
		} `graphql:"assignees(first: 10)"`
	}

	dateValue struct {
		DateValue struct {
			Date *CustomDate `graphql:"date"`
		} `graphql:"... on ProjectV2ItemFieldDateValue"`
	}

	selectValue struct {
		SelectValue struct {
			OptionID *string `graphql:"optionId"`
			Name     *string
		} `graphql:"... on ProjectV2ItemFieldSingleSelectValue"`
	}

	projectItemNode struct {
		ID      string
		DueDate dateValue   `graphql:"dueDate: fieldValueByName(name: $dueDateField)"`
		Release selectValue `graphql:"release: fieldValueByName(name: $releaseField)"`
		Status  selectValue `graphql:"status: fieldValueByName(name: $statusField)"`
		Content struct {
			TypeName string       `graphql:"__typename"`
			Issue    issueContent `graphql:"... on Issue"`
		}
	}
)

// toTrackedItem flattens a project item node into the internal record.
// Items whose content is not an issue (draft items, pull requests) are
// rejected with ok=false.
func (n *projectItemNode) toTrackedItem() (TrackedItem, bool) {
	if n.Content.TypeName != "Issue" {
		return TrackedItem{}, false
	}

	item := TrackedItem{
		ItemID:  n.ID,
		IssueID: n.Content.Issue.ID,
		Title:   n.Content.Issue.Title,
		URL:     n.Content.Issue.URL,
		State:   IssueState(n.Content.Issue.State),
	}
	if d := n.DueDate.DateValue.Date; d != nil && !d.IsZero() {
		t := d.Time
		item.DueDate = &t
	}
	if n.Release.SelectValue.OptionID != nil {
		item.ReleaseOptionID = *n.Release.SelectValue.OptionID
	}
	if n.Status.SelectValue.OptionID != nil {
		item.StatusOptionID = *n.Status.SelectValue.OptionID
	}
	if n.Status.SelectValue.Name != nil {
		item.StatusName = *n.Status.SelectValue.Name
	}
	for _, a := range n.Content.Issue.Assignees.Nodes {
		item.Assignees = append(item.Assignees, Assignee(a))
	}
	return item, true
}

// GetProjectID implements the Client interface
func (c *GraphQLClient) GetProjectID(ctx context.Context, ownerType OwnerType, ownerLogin string, projectNumber int) (string, error) {
	variables := map[string]interface{}{
		"login":         githubv4.String(ownerLogin),
		"projectNumber": githubv4.Int(projectNumber),
	}

	var id string
	switch ownerType {
	case OwnerTypeOrg:
		var query struct {
			Organization struct {
				ProjectV2 struct {
					ID string
				} `graphql:"projectV2(number: $projectNumber)"`
			} `graphql:"organization(login: $login)"`
		}
		if err := c.client.Query(ctx, &query, variables); err != nil {
			return "", fmt.Errorf("failed to query organization project: %w", err)
		}
		id = query.Organization.ProjectV2.ID
	case OwnerTypeUser:
		var query struct {
			User struct {
				ProjectV2 struct {
					ID string
				} `graphql:"projectV2(number: $projectNumber)"`
			} `graphql:"user(login: $login)"`
		}
		if err := c.client.Query(ctx, &query, variables); err != nil {
			return "", fmt.Errorf("failed to query user project: %w", err)
		}
		id = query.User.ProjectV2.ID
	default:
		return "", fmt.Errorf("invalid owner type")
	}

	if id == "" {
		return "", fmt.Errorf("project %d of %s: %w", projectNumber, ownerLogin, ErrProjectNotFound)
	}
	return id, nil
}

// GetProjectIDByTitle implements the Client interface
func (c *GraphQLClient) GetProjectIDByTitle(ctx context.Context, ownerType OwnerType, ownerLogin string, title string) (string, error) {
	type projectsV2 struct {
		Nodes []struct {
			ID    string
			Title string
		}
	}

	variables := map[string]interface{}{
		"login": githubv4.String(ownerLogin),
		"query": githubv4.String(title),
	}

	var projects projectsV2
	switch ownerType {
	case OwnerTypeOrg:
		var query struct {
			Organization struct {
				ProjectsV2 projectsV2 `graphql:"projectsV2(first: 20, query: $query)"`
			} `graphql:"organization(login: $login)"`
		}
		if err := c.client.Query(ctx, &query, variables); err != nil {
			return "", fmt.Errorf("failed to search organization projects: %w", err)
		}
		projects = query.Organization.ProjectsV2
	case OwnerTypeUser:
		var query struct {
			User struct {
				ProjectsV2 projectsV2 `graphql:"projectsV2(first: 20, query: $query)"`
			} `graphql:"user(login: $login)"`
		}
		if err := c.client.Query(ctx, &query, variables); err != nil {
			return "", fmt.Errorf("failed to search user projects: %w", err)
		}
		projects = query.User.ProjectsV2
	default:
		return "", fmt.Errorf("invalid owner type")
	}

	for _, p := range projects.Nodes {
		if p.Title == title {
			return p.ID, nil
		}
	}
	return "", fmt.Errorf("project %q of %s: %w", title, ownerLogin, ErrProjectNotFound)
}

// GetProjectItems implements the Client interface. Pages are requested
// strictly in sequence; each request carries the previous page's end
// cursor. Accumulation is append-only in page order.
func (c *GraphQLClient) GetProjectItems(ctx context.Context, projectID string, fields ItemFieldNames, opts FetchOptions) ([]TrackedItem, error) {
	var query struct {
		Node struct {
			ProjectV2 struct {
				Items struct {
					Nodes    []projectItemNode
					PageInfo pageInfo
				} `graphql:"items(first: 100, after: $cursor)"`
			} `graphql:"... on ProjectV2"`
		} `graphql:"node(id: $projectID)"`
	}

	variables := map[string]interface{}{
		"projectID":    githubv4.ID(projectID),
		"dueDateField": githubv4.String(fields.DueDate),
		"releaseField": githubv4.String(fields.Release),
		"statusField":  githubv4.String(fields.Status),
		"cursor":       (*githubv4.String)(nil),
	}

	var items []TrackedItem
	pages := 0
	for {
		if err := c.client.Query(ctx, &query, variables); err != nil {
			return nil, fmt.Errorf("failed to query project items (page %d): %w", pages+1, err)
		}
		pages++

		for _, node := range query.Node.ProjectV2.Items.Nodes {
			item, ok := node.toTrackedItem()
			if !ok {
				continue
			}
			if opts.OpenOnly && item.State != IssueStateOpen {
				continue
			}
			items = append(items, item)
		}

		pi := query.Node.ProjectV2.Items.PageInfo
		if !pi.HasNextPage {
			break
		}
		variables["cursor"] = githubv4.NewString(pi.EndCursor)
	}

	slog.Debug("fetched project items", "project_id", projectID, "items", len(items), "pages", pages)
	return items, nil
}

// GetRepoIssues implements the Client interface. Each open issue is joined
// to the board through its project items; issues not on the given project
// are dropped.
func (c *GraphQLClient) GetRepoIssues(ctx context.Context, owner, repo string, projectNumber int, fields ItemFieldNames) ([]TrackedItem, error) {
	type repoIssueNode struct {
		ID        string
		Title     string
		URL       string
		State     string
		Assignees struct {
			Nodes []assigneeNode
		} `graphql:"assignees(first: 10)"`
		ProjectItems struct {
			Nodes []struct {
				ID      string
				DueDate dateValue   `graphql:"dueDate: fieldValueByName(name: $dueDateField)"`
				Release selectValue `graphql:"release: fieldValueByName(name: $releaseField)"`
				Status  selectValue `graphql:"status: fieldValueByName(name: $statusField)"`
				Project struct {
					Number int
				}
			}
		} `graphql:"projectItems(first: 10)"`
	}

	var query struct {
		Repository struct {
			Issues struct {
				Nodes    []repoIssueNode
				PageInfo pageInfo
			} `graphql:"issues(first: 100, after: $cursor, states: OPEN)"`
		} `graphql:"repository(owner: $owner, name: $name)"`
	}

	variables := map[string]interface{}{
		"owner":        githubv4.String(owner),
		"name":         githubv4.String(repo),
		"dueDateField": githubv4.String(fields.DueDate),
		"releaseField": githubv4.String(fields.Release),
		"statusField":  githubv4.String(fields.Status),
		"cursor":       (*githubv4.String)(nil),
	}

	var items []TrackedItem
	pages := 0
	for {
		if err := c.client.Query(ctx, &query, variables); err != nil {
			return nil, fmt.Errorf("failed to query repository issues (page %d): %w", pages+1, err)
		}
		pages++

		for _, issue := range query.Repository.Issues.Nodes {
			for _, pi := range issue.ProjectItems.Nodes {
				if pi.Project.Number != projectNumber {
					continue
				}
				item := TrackedItem{
					ItemID:  pi.ID,
					IssueID: issue.ID,
					Title:   issue.Title,
					URL:     issue.URL,
					State:   IssueState(issue.State),
				}
				if d := pi.DueDate.DateValue.Date; d != nil && !d.IsZero() {
					t := d.Time
					item.DueDate = &t
				}
				if pi.Release.SelectValue.OptionID != nil {
					item.ReleaseOptionID = *pi.Release.SelectValue.OptionID
				}
				if pi.Status.SelectValue.OptionID != nil {
					item.StatusOptionID = *pi.Status.SelectValue.OptionID
				}
				if pi.Status.SelectValue.Name != nil {
					item.StatusName = *pi.Status.SelectValue.Name
				}
				for _, a := range issue.Assignees.Nodes {
					item.Assignees = append(item.Assignees, Assignee(a))
				}
				items = append(items, item)
				break
			}
		}

		pi := query.Repository.Issues.PageInfo
		if !pi.HasNextPage {
			break
		}
		variables["cursor"] = githubv4.NewString(pi.EndCursor)
	}

	slog.Debug("fetched repository issues", "repository", owner+"/"+repo, "items", len(items), "pages", pages)
	return items, nil
}

// GetSingleSelectField implements the Client interface
func (c *GraphQLClient) GetSingleSelectField(ctx context.Context, projectID string, fieldName string) (*SingleSelectField, error) {
	var query struct {
		Node struct {
			ProjectV2 struct {
				Field struct {
					TypeName          string `graphql:"__typename"`
					SingleSelectField struct {
						ID      string
						Name    string
						Options []struct {
							ID   string
							Name string
						}
					} `graphql:"... on ProjectV2SingleSelectField"`
				} `graphql:"field(name: $name)"`
			} `graphql:"... on ProjectV2"`
		} `graphql:"node(id: $projectID)"`
	}

	variables := map[string]interface{}{
		"projectID": githubv4.ID(projectID),
		"name":      githubv4.String(fieldName),
	}

	if err := c.client.Query(ctx, &query, variables); err != nil {
		return nil, fmt.Errorf("failed to query field %q: %w", fieldName, err)
	}

	f := query.Node.ProjectV2.Field.SingleSelectField
	if query.Node.ProjectV2.Field.TypeName != "ProjectV2SingleSelectField" || f.ID == "" {
		return nil, fmt.Errorf("single-select field %q: %w", fieldName, ErrFieldNotFound)
	}

	field := &SingleSelectField{FieldRef: FieldRef{ID: f.ID, Name: f.Name}}
	for _, o := range f.Options {
		field.Options = append(field.Options, FieldOption(o))
	}
	return field, nil
}

// GetDateField implements the Client interface
func (c *GraphQLClient) GetDateField(ctx context.Context, projectID string, fieldName string) (*FieldRef, error) {
	var query struct {
		Node struct {
			ProjectV2 struct {
				Field struct {
					TypeName  string `graphql:"__typename"`
					DateField struct {
						ID   string
						Name string
					} `graphql:"... on ProjectV2Field"`
				} `graphql:"field(name: $name)"`
			} `graphql:"... on ProjectV2"`
		} `graphql:"node(id: $projectID)"`
	}

	variables := map[string]interface{}{
		"projectID": githubv4.ID(projectID),
		"name":      githubv4.String(fieldName),
	}

	if err := c.client.Query(ctx, &query, variables); err != nil {
		return nil, fmt.Errorf("failed to query field %q: %w", fieldName, err)
	}

	f := query.Node.ProjectV2.Field.DateField
	if f.ID == "" {
		return nil, fmt.Errorf("date field %q: %w", fieldName, ErrFieldNotFound)
	}
	return &FieldRef{ID: f.ID, Name: f.Name}, nil
}

// UpdateItemFieldOption implements the Client interface
func (c *GraphQLClient) UpdateItemFieldOption(ctx context.Context, projectID, itemID, fieldID, optionID string) (string, error) {
	var mutation struct {
		UpdateProjectV2ItemFieldValue struct {
			ProjectV2Item struct {
				ID string
			}
		} `graphql:"updateProjectV2ItemFieldValue(input: $input)"`
	}

	option := githubv4.String(optionID)
	input := githubv4.UpdateProjectV2ItemFieldValueInput{
		ProjectID: githubv4.ID(projectID),
		ItemID:    githubv4.ID(itemID),
		FieldID:   githubv4.ID(fieldID),
		Value: githubv4.ProjectV2FieldValue{
			SingleSelectOptionID: &option,
		},
	}

	if err := c.client.Mutate(ctx, &mutation, input, nil); err != nil {
		return "", fmt.Errorf("failed to update field value: %w", err)
	}
	return mutation.UpdateProjectV2ItemFieldValue.ProjectV2Item.ID, nil
}

// HasMergedPullRequest implements the Client interface
func (c *GraphQLClient) HasMergedPullRequest(ctx context.Context, issueID string) (bool, error) {
	var query struct {
		Node struct {
			Issue struct {
				ClosedByPullRequestsReferences struct {
					Nodes []struct {
						Merged bool
					}
				} `graphql:"closedByPullRequestsReferences(first: 10, includeClosedPrs: true)"`
			} `graphql:"... on Issue"`
		} `graphql:"node(id: $issueID)"`
	}

	variables := map[string]interface{}{
		"issueID": githubv4.ID(issueID),
	}

	if err := c.client.Query(ctx, &query, variables); err != nil {
		return false, fmt.Errorf("failed to query pull request references: %w", err)
	}

	for _, pr := range query.Node.Issue.ClosedByPullRequestsReferences.Nodes {
		if pr.Merged {
			return true, nil
		}
	}
	return false, nil
}
