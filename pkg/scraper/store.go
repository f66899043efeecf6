package scraper

import (
	"context"

	"github.com/garv999/web-scraping-tutor-assignment-apache-jira-llm-corpus/pkg/jira"
)

// Store persists issues, their comments, and scrape checkpoints. All
// upserts must be idempotent keyed on the stable issue/comment key:
// re-submitting the same key updates rather than duplicates.
type Store interface {
	// UpsertIssue persists one issue keyed on its issue key.
	UpsertIssue(ctx context.Context, issue *jira.Issue) error

	// UpsertComments persists the comments of the given issue, each keyed
	// on its own comment ID.
	UpsertComments(ctx context.Context, issueKey string, comments []jira.Comment) error

	// GetCheckpoint returns the checkpoint for a project, or (nil, nil)
	// when none exists yet.
	GetCheckpoint(ctx context.Context, projectKey string) (*Checkpoint, error)

	// PutCheckpoint atomically writes a project's checkpoint.
	PutCheckpoint(ctx context.Context, cp *Checkpoint) error
}
