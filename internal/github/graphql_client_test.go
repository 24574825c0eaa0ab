package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shurcooL/githubv4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var itemFields = ItemFieldNames{DueDate: "Due Date", Release: "Release", Status: "Status"}

func itemNode(i int, state string) map[string]interface{} {
	return map[string]interface{}{
		"id":      fmt.Sprintf("ITEM_%d", i),
		"dueDate": map[string]interface{}{"date": "2024-11-20"},
		"release": map[string]interface{}{"optionId": "OPT_NOV", "name": "Nov 13 - Dec 06, 2024"},
		"status":  map[string]interface{}{"optionId": "OPT_PROG", "name": "In Progress"},
		"content": map[string]interface{}{
			"__typename": "Issue",
			"id":         fmt.Sprintf("ISSUE_%d", i),
			"title":      fmt.Sprintf("Issue %d", i),
			"url":        fmt.Sprintf("https://github.example.com/unicaf/platform/issues/%d", i),
			"state":      state,
			"assignees": map[string]interface{}{
				"nodes": []interface{}{
					map[string]interface{}{"login": "dev", "name": "Dev", "email": "dev@example.com"},
				},
			},
		},
	}
}

func itemsPage(nodes []map[string]interface{}, hasNext bool, cursor string) map[string]interface{} {
	return map[string]interface{}{
		"data": map[string]interface{}{
			"node": map[string]interface{}{
				"items": map[string]interface{}{
					"nodes":    nodes,
					"pageInfo": map[string]interface{}{"hasNextPage": hasNext, "endCursor": cursor},
				},
			},
		},
	}
}

// graphQLServer serves one canned response per request, in order
func graphQLServer(t *testing.T, responses []map[string]interface{}) (*GraphQLClient, *[]map[string]interface{}) {
	t.Helper()
	requests := &[]map[string]interface{}{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		*requests = append(*requests, body)
		require.Less(t, len(*requests)-1, len(responses), "unexpected extra request")
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(responses[len(*requests)-1]))
	}))
	t.Cleanup(srv.Close)
	return &GraphQLClient{client: githubv4.NewEnterpriseClient(srv.URL, srv.Client())}, requests
}

func TestGetProjectItemsPagination(t *testing.T) {
	var pages []map[string]interface{}
	n := 0
	for p, count := range []int{100, 100, 37} {
		var nodes []map[string]interface{}
		for i := 0; i < count; i++ {
			nodes = append(nodes, itemNode(n, "OPEN"))
			n++
		}
		pages = append(pages, itemsPage(nodes, p < 2, fmt.Sprintf("cursor-%d", p+1)))
	}

	client, requests := graphQLServer(t, pages)
	items, err := client.GetProjectItems(context.Background(), "PROJECT", itemFields, FetchOptions{})

	require.NoError(t, err)
	// Exactly three page requests, 237 items in page order
	assert.Len(t, *requests, 3)
	require.Len(t, items, 237)
	assert.Equal(t, "ITEM_0", items[0].ItemID)
	assert.Equal(t, "ISSUE_0", items[0].IssueID)
	assert.Equal(t, "ITEM_236", items[236].ItemID)

	// Each request after the first carries the previous page's end cursor
	vars := (*requests)[1]["variables"].(map[string]interface{})
	assert.Equal(t, "cursor-1", vars["cursor"])
	vars = (*requests)[2]["variables"].(map[string]interface{})
	assert.Equal(t, "cursor-2", vars["cursor"])

	// Field values survive the flattening
	require.NotNil(t, items[0].DueDate)
	assert.Equal(t, "2024-11-20", items[0].DueDate.Format("2006-01-02"))
	assert.Equal(t, "OPT_NOV", items[0].ReleaseOptionID)
	assert.Equal(t, "In Progress", items[0].StatusName)
	require.Len(t, items[0].Assignees, 1)
	assert.Equal(t, "dev", items[0].Assignees[0].Login)
}

func TestGetProjectItemsOpenOnlyFilter(t *testing.T) {
	page := itemsPage([]map[string]interface{}{
		itemNode(0, "OPEN"),
		itemNode(1, "CLOSED"),
		itemNode(2, "OPEN"),
	}, false, "")

	client, _ := graphQLServer(t, []map[string]interface{}{page})
	items, err := client.GetProjectItems(context.Background(), "PROJECT", itemFields, FetchOptions{OpenOnly: true})

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "ITEM_0", items[0].ItemID)
	assert.Equal(t, "ITEM_2", items[1].ItemID)
}

func TestGetProjectItemsSkipsNonIssueContent(t *testing.T) {
	draft := map[string]interface{}{
		"id":      "ITEM_DRAFT",
		"content": map[string]interface{}{"__typename": "DraftIssue"},
	}
	page := itemsPage([]map[string]interface{}{draft, itemNode(1, "OPEN")}, false, "")

	client, _ := graphQLServer(t, []map[string]interface{}{page})
	items, err := client.GetProjectItems(context.Background(), "PROJECT", itemFields, FetchOptions{})

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "ITEM_1", items[0].ItemID)
}

func TestGetProjectItemsGraphErrorResponse(t *testing.T) {
	errResp := map[string]interface{}{
		"errors": []interface{}{map[string]interface{}{"message": "something went wrong"}},
	}

	client, _ := graphQLServer(t, []map[string]interface{}{errResp})
	_, err := client.GetProjectItems(context.Background(), "PROJECT", itemFields, FetchOptions{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to query project items")
}

func TestGetSingleSelectField(t *testing.T) {
	resp := map[string]interface{}{
		"data": map[string]interface{}{
			"node": map[string]interface{}{
				"field": map[string]interface{}{
					"__typename": "ProjectV2SingleSelectField",
					"id":         "FIELD_RELEASE",
					"name":       "Release",
					"options": []interface{}{
						map[string]interface{}{"id": "OPT_NOV", "name": "Nov 13 - Dec 06, 2024"},
						map[string]interface{}{"id": "OPT_DEC", "name": "Dec 09 - Jan 06, 2025"},
					},
				},
			},
		},
	}

	client, _ := graphQLServer(t, []map[string]interface{}{resp})
	field, err := client.GetSingleSelectField(context.Background(), "PROJECT", "Release")

	require.NoError(t, err)
	assert.Equal(t, "FIELD_RELEASE", field.ID)
	// Options keep server-declared order
	require.Len(t, field.Options, 2)
	assert.Equal(t, "OPT_NOV", field.Options[0].ID)
	assert.Equal(t, "OPT_DEC", field.Options[1].ID)
}

func TestGetSingleSelectFieldNotFound(t *testing.T) {
	resp := map[string]interface{}{
		"data": map[string]interface{}{
			"node": map[string]interface{}{"field": nil},
		},
	}

	client, _ := graphQLServer(t, []map[string]interface{}{resp})
	_, err := client.GetSingleSelectField(context.Background(), "PROJECT", "Nope")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFieldNotFound)
}

func TestHasMergedPullRequest(t *testing.T) {
	resp := func(merged ...bool) map[string]interface{} {
		var nodes []interface{}
		for _, m := range merged {
			nodes = append(nodes, map[string]interface{}{"merged": m})
		}
		return map[string]interface{}{
			"data": map[string]interface{}{
				"node": map[string]interface{}{
					"closedByPullRequestsReferences": map[string]interface{}{"nodes": nodes},
				},
			},
		}
	}

	client, _ := graphQLServer(t, []map[string]interface{}{resp(false, true), resp(false)})

	merged, err := client.HasMergedPullRequest(context.Background(), "ISSUE_1")
	require.NoError(t, err)
	assert.True(t, merged)

	merged, err = client.HasMergedPullRequest(context.Background(), "ISSUE_2")
	require.NoError(t, err)
	assert.False(t, merged)
}
