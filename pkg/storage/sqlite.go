// Package storage implements the scraper's store on SQLite. Issues,
// comments, and checkpoints are upserted keyed on their stable keys, so
// re-ingesting a page is always safe.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/garv999/web-scraping-tutor-assignment-apache-jira-llm-corpus/pkg/jira"
	"github.com/garv999/web-scraping-tutor-assignment-apache-jira-llm-corpus/pkg/scraper"
)

// DB wraps SQLite database operations.
type DB struct {
	db *sql.DB
}

var _ scraper.Store = (*DB)(nil)

// Open opens or creates a SQLite database.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable foreign keys and WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	storage := &DB{db: db}
	if err := storage.initSchema(); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return storage, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// initSchema creates tables if they don't exist.
func (d *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS issues (
		issue_key TEXT PRIMARY KEY,
		project_key TEXT NOT NULL,
		summary TEXT,
		description TEXT,
		status TEXT,
		issue_type TEXT,
		priority TEXT,
		reporter TEXT,
		assignee TEXT,
		labels TEXT,
		created TEXT,
		updated TEXT,
		raw TEXT NOT NULL,
		synced_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_issues_project ON issues(project_key);
	CREATE INDEX IF NOT EXISTS idx_issues_updated ON issues(updated);

	CREATE TABLE IF NOT EXISTS issue_comments (
		comment_id TEXT PRIMARY KEY,
		issue_key TEXT NOT NULL,
		author TEXT,
		body TEXT,
		created TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_comments_issue ON issue_comments(issue_key);

	CREATE TABLE IF NOT EXISTS scrape_checkpoints (
		project_key TEXT PRIMARY KEY,
		next_offset INTEGER NOT NULL,
		ingested_count INTEGER NOT NULL,
		last_issue_key TEXT,
		status TEXT NOT NULL,
		error TEXT,
		started_at TIMESTAMP NOT NULL,
		completed_at TIMESTAMP,
		updated_at TIMESTAMP NOT NULL
	);
	`

	_, err := d.db.Exec(schema)
	return err
}

// UpsertIssue inserts or updates an issue keyed on its issue key.
func (d *DB) UpsertIssue(ctx context.Context, issue *jira.Issue) error {
	description, err := issue.DescriptionText()
	if err != nil {
		return fmt.Errorf("flatten description of %s: %w", issue.Key, err)
	}

	raw, err := json.Marshal(issue)
	if err != nil {
		return fmt.Errorf("marshal issue %s: %w", issue.Key, err)
	}

	var reporter, assignee string
	if issue.Fields.Reporter != nil {
		reporter = issue.Fields.Reporter.DisplayName
	}
	if issue.Fields.Assignee != nil {
		assignee = issue.Fields.Assignee.DisplayName
	}

	query := `
	INSERT INTO issues (
		issue_key, project_key, summary, description, status, issue_type,
		priority, reporter, assignee, labels, created, updated, raw, synced_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(issue_key) DO UPDATE SET
		project_key = excluded.project_key,
		summary = excluded.summary,
		description = excluded.description,
		status = excluded.status,
		issue_type = excluded.issue_type,
		priority = excluded.priority,
		reporter = excluded.reporter,
		assignee = excluded.assignee,
		labels = excluded.labels,
		created = excluded.created,
		updated = excluded.updated,
		raw = excluded.raw,
		synced_at = excluded.synced_at
	`

	_, err = d.db.ExecContext(ctx, query,
		issue.Key, issue.ProjectKey(), issue.Fields.Summary, description,
		issue.Fields.Status.Name, issue.Fields.IssueType.Name,
		issue.Fields.Priority.Name, reporter, assignee,
		strings.Join(issue.Fields.Labels, ","),
		issue.Fields.Created, issue.Fields.Updated,
		string(raw), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert issue %s: %w", issue.Key, err)
	}
	return nil
}

// UpsertComments inserts or updates the comments of an issue in one
// transaction, each keyed on its comment ID.
func (d *DB) UpsertComments(ctx context.Context, issueKey string, comments []jira.Comment) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	query := `
	INSERT INTO issue_comments (comment_id, issue_key, author, body, created)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(comment_id) DO UPDATE SET
		issue_key = excluded.issue_key,
		author = excluded.author,
		body = excluded.body,
		created = excluded.created
	`

	for i := range comments {
		c := &comments[i]
		body, err := c.BodyText()
		if err != nil {
			return fmt.Errorf("flatten comment %s: %w", c.ID, err)
		}
		if _, err := tx.ExecContext(ctx, query,
			c.ID, issueKey, c.Author.DisplayName, body, c.Created); err != nil {
			return fmt.Errorf("upsert comment %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit comments of %s: %w", issueKey, err)
	}
	return nil
}

// GetCheckpoint retrieves a project's checkpoint, or (nil, nil) if absent.
func (d *DB) GetCheckpoint(ctx context.Context, projectKey string) (*scraper.Checkpoint, error) {
	cp := &scraper.Checkpoint{}
	var errDetail sql.NullString
	var lastKey sql.NullString
	var completedAt sql.NullTime

	query := `
	SELECT project_key, next_offset, ingested_count, last_issue_key, status,
	       error, started_at, completed_at, updated_at
	FROM scrape_checkpoints
	WHERE project_key = ?
	`

	err := d.db.QueryRowContext(ctx, query, projectKey).Scan(
		&cp.ProjectKey, &cp.Offset, &cp.Count, &lastKey, &cp.Status,
		&errDetail, &cp.StartedAt, &completedAt, &cp.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get checkpoint %s: %w", projectKey, err)
	}

	cp.LastIssueKey = lastKey.String
	cp.Error = errDetail.String
	if completedAt.Valid {
		cp.CompletedAt = &completedAt.Time
	}
	return cp, nil
}

// PutCheckpoint writes a project's checkpoint as a single upsert statement,
// so the write is atomic.
func (d *DB) PutCheckpoint(ctx context.Context, cp *scraper.Checkpoint) error {
	query := `
	INSERT INTO scrape_checkpoints (
		project_key, next_offset, ingested_count, last_issue_key, status,
		error, started_at, completed_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(project_key) DO UPDATE SET
		next_offset = excluded.next_offset,
		ingested_count = excluded.ingested_count,
		last_issue_key = excluded.last_issue_key,
		status = excluded.status,
		error = excluded.error,
		started_at = excluded.started_at,
		completed_at = excluded.completed_at,
		updated_at = excluded.updated_at
	`

	var completedAt any
	if cp.CompletedAt != nil {
		completedAt = *cp.CompletedAt
	}

	_, err := d.db.ExecContext(ctx, query,
		cp.ProjectKey, cp.Offset, cp.Count, cp.LastIssueKey, string(cp.Status),
		cp.Error, cp.StartedAt, completedAt, cp.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("put checkpoint %s: %w", cp.ProjectKey, err)
	}
	return nil
}

// StoredIssue is one issue row as persisted, with text fields flattened.
type StoredIssue struct {
	Key         string
	ProjectKey  string
	Summary     string
	Description string
	Status      string
	IssueType   string
	Priority    string
	Reporter    string
	Assignee    string
	Labels      string
	Created     string
	Updated     string
}

// StoredComment is one comment row as persisted.
type StoredComment struct {
	ID       string
	IssueKey string
	Author   string
	Body     string
	Created  string
}

// ListIssues returns all issues of a project ordered by key, or all
// projects when projectKey is empty.
func (d *DB) ListIssues(ctx context.Context, projectKey string) ([]StoredIssue, error) {
	query := `
	SELECT issue_key, project_key, summary, description, status, issue_type,
	       priority, reporter, assignee, labels, created, updated
	FROM issues
	`
	args := []any{}
	if projectKey != "" {
		query += " WHERE project_key = ?"
		args = append(args, projectKey)
	}
	query += " ORDER BY issue_key"

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	defer rows.Close()

	var issues []StoredIssue
	for rows.Next() {
		var si StoredIssue
		if err := rows.Scan(
			&si.Key, &si.ProjectKey, &si.Summary, &si.Description, &si.Status,
			&si.IssueType, &si.Priority, &si.Reporter, &si.Assignee,
			&si.Labels, &si.Created, &si.Updated,
		); err != nil {
			return nil, fmt.Errorf("scan issue: %w", err)
		}
		issues = append(issues, si)
	}
	return issues, rows.Err()
}

// ListComments returns the comments of an issue ordered by creation.
func (d *DB) ListComments(ctx context.Context, issueKey string) ([]StoredComment, error) {
	query := `
	SELECT comment_id, issue_key, author, body, created
	FROM issue_comments
	WHERE issue_key = ?
	ORDER BY created
	`

	rows, err := d.db.QueryContext(ctx, query, issueKey)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var comments []StoredComment
	for rows.Next() {
		var sc StoredComment
		if err := rows.Scan(&sc.ID, &sc.IssueKey, &sc.Author, &sc.Body, &sc.Created); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, sc)
	}
	return comments, rows.Err()
}

// CountIssues returns the number of stored issues for a project.
func (d *DB) CountIssues(ctx context.Context, projectKey string) (int, error) {
	var count int
	err := d.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM issues WHERE project_key = ?", projectKey).Scan(&count)
	return count, err
}
