// Package config provides the configuration surface of the reconciler.
// The value is constructed once at process start from the GitHub Actions
// style environment and passed down explicitly; no package reads the
// environment on its own.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration parameters for one run
type Config struct {
	Token           string
	RepositoryOwner string
	OwnerType       string
	Repository      string
	RepositoryName  string
	ServerURL       string
	GraphQLEndpoint string
	Enterprise      bool
	DryRun          bool

	ProjectNumber int
	ProjectTitle  string

	StatusFieldName     string
	DueDateFieldName    string
	ReleaseFieldName    string
	StatusTerminalValue string

	// ReleaseExcludeLabels are substrings; release options whose label
	// contains one of them never enter the calendar.
	ReleaseExcludeLabels []string
}

// Load initializes and loads configuration from environment variables
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.BindEnv("token", "INPUT_GH_TOKEN", "GITHUB_TOKEN")
	v.BindEnv("repository_owner", "GITHUB_REPOSITORY_OWNER")
	v.BindEnv("owner_type", "INPUT_REPOSITORY_OWNER_TYPE")
	v.BindEnv("repository", "GITHUB_REPOSITORY")
	v.BindEnv("server_url", "GITHUB_SERVER_URL")
	v.BindEnv("graphql_url", "GITHUB_GRAPHQL_URL")
	v.BindEnv("enterprise", "INPUT_ENTERPRISE_GITHUB")
	v.BindEnv("dry_run", "INPUT_DRY_RUN")
	v.BindEnv("project_number", "INPUT_PROJECT_NUMBER")
	v.BindEnv("project_title", "INPUT_PROJECT_TITLE")
	v.BindEnv("status_field_name", "INPUT_STATUS_FIELD_NAME")
	v.BindEnv("duedate_field_name", "INPUT_DUEDATE_FIELD_NAME")
	v.BindEnv("release_field_name", "INPUT_RELEASE_FIELD_NAME")
	v.BindEnv("status_terminal_value", "INPUT_STATUS_TERMINAL_VALUE")
	v.BindEnv("release_exclude_labels", "INPUT_RELEASE_EXCLUDE_LABELS")

	v.SetDefault("server_url", "https://github.com")
	v.SetDefault("graphql_url", "https://api.github.com/graphql")
	v.SetDefault("owner_type", "organization")
	v.SetDefault("status_field_name", "Status")
	v.SetDefault("duedate_field_name", "Due Date")
	v.SetDefault("release_field_name", "Release")
	v.SetDefault("status_terminal_value", "QA Testing")

	cfg := &Config{
		Token:               v.GetString("token"),
		RepositoryOwner:     v.GetString("repository_owner"),
		OwnerType:           v.GetString("owner_type"),
		Repository:          v.GetString("repository"),
		ServerURL:           v.GetString("server_url"),
		GraphQLEndpoint:     v.GetString("graphql_url"),
		Enterprise:          v.GetBool("enterprise"),
		DryRun:              v.GetBool("dry_run"),
		ProjectNumber:       v.GetInt("project_number"),
		ProjectTitle:        v.GetString("project_title"),
		StatusFieldName:     v.GetString("status_field_name"),
		DueDateFieldName:    v.GetString("duedate_field_name"),
		ReleaseFieldName:    v.GetString("release_field_name"),
		StatusTerminalValue: v.GetString("status_terminal_value"),
	}

	if parts := strings.SplitN(cfg.Repository, "/", 2); len(parts) == 2 {
		cfg.RepositoryName = parts[1]
	}

	for _, p := range strings.Split(v.GetString("release_exclude_labels"), ",") {
		if p = strings.TrimSpace(p); p != "" {
			cfg.ReleaseExcludeLabels = append(cfg.ReleaseExcludeLabels, p)
		}
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate ensures that all required configuration values are provided
func validate(cfg *Config) error {
	var missing []string

	if cfg.Token == "" {
		missing = append(missing, "INPUT_GH_TOKEN")
	}
	if cfg.RepositoryOwner == "" {
		missing = append(missing, "GITHUB_REPOSITORY_OWNER")
	}
	if !cfg.Enterprise && cfg.RepositoryName == "" {
		missing = append(missing, "GITHUB_REPOSITORY")
	}
	if cfg.ProjectNumber == 0 && cfg.ProjectTitle == "" {
		missing = append(missing, "INPUT_PROJECT_NUMBER")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %v", missing)
	}
	return nil
}
