package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("INPUT_GH_TOKEN", "token")
	t.Setenv("GITHUB_REPOSITORY_OWNER", "unicaf")
	t.Setenv("GITHUB_REPOSITORY", "unicaf/platform")
	t.Setenv("INPUT_PROJECT_NUMBER", "7")
}

func TestLoad(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("INPUT_REPOSITORY_OWNER_TYPE", "organization")
	t.Setenv("INPUT_ENTERPRISE_GITHUB", "True")
	t.Setenv("INPUT_DRY_RUN", "True")
	t.Setenv("GITHUB_SERVER_URL", "https://github.example.com")
	t.Setenv("GITHUB_GRAPHQL_URL", "https://github.example.com/api/graphql")
	t.Setenv("INPUT_DUEDATE_FIELD_NAME", "Due")
	t.Setenv("INPUT_RELEASE_EXCLUDE_LABELS", "Unicaf Release, TBD")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "token", cfg.Token)
	assert.Equal(t, "unicaf", cfg.RepositoryOwner)
	assert.Equal(t, "platform", cfg.RepositoryName)
	assert.Equal(t, 7, cfg.ProjectNumber)
	assert.True(t, cfg.Enterprise)
	assert.True(t, cfg.DryRun)
	assert.Equal(t, "https://github.example.com", cfg.ServerURL)
	assert.Equal(t, "https://github.example.com/api/graphql", cfg.GraphQLEndpoint)
	assert.Equal(t, "Due", cfg.DueDateFieldName)
	assert.Equal(t, []string{"Unicaf Release", "TBD"}, cfg.ReleaseExcludeLabels)
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://github.com", cfg.ServerURL)
	assert.Equal(t, "https://api.github.com/graphql", cfg.GraphQLEndpoint)
	assert.Equal(t, "Status", cfg.StatusFieldName)
	assert.Equal(t, "Due Date", cfg.DueDateFieldName)
	assert.Equal(t, "Release", cfg.ReleaseFieldName)
	assert.Equal(t, "QA Testing", cfg.StatusTerminalValue)
	assert.False(t, cfg.Enterprise)
	assert.False(t, cfg.DryRun)
	assert.Empty(t, cfg.ReleaseExcludeLabels)
}

func TestLoadTokenFallback(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("INPUT_GH_TOKEN", "")
	t.Setenv("GITHUB_TOKEN", "fallback")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "fallback", cfg.Token)
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("INPUT_GH_TOKEN", "")
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("GITHUB_REPOSITORY_OWNER", "")
	t.Setenv("GITHUB_REPOSITORY", "")
	t.Setenv("INPUT_PROJECT_NUMBER", "")
	t.Setenv("INPUT_PROJECT_TITLE", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INPUT_GH_TOKEN")
	assert.Contains(t, err.Error(), "GITHUB_REPOSITORY_OWNER")
}

func TestLoadProjectTitleSatisfiesProjectRequirement(t *testing.T) {
	t.Setenv("INPUT_GH_TOKEN", "token")
	t.Setenv("GITHUB_REPOSITORY_OWNER", "unicaf")
	t.Setenv("GITHUB_REPOSITORY", "unicaf/platform")
	t.Setenv("INPUT_PROJECT_NUMBER", "")
	t.Setenv("INPUT_PROJECT_TITLE", "Platform Roadmap")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "Platform Roadmap", cfg.ProjectTitle)
	assert.Zero(t, cfg.ProjectNumber)
}
