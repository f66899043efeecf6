// Package export turns stored issues into a JSONL training corpus. Each
// line is one self-contained document combining the issue text with its
// comment thread.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/garv999/web-scraping-tutor-assignment-apache-jira-llm-corpus/pkg/logging"
	"github.com/garv999/web-scraping-tutor-assignment-apache-jira-llm-corpus/pkg/storage"
)

var recordsExported = promauto.NewCounter(prometheus.CounterOpts{
	Name: "jira_scraper_corpus_records_total",
	Help: "Total number of corpus records written.",
})

// Record is one corpus document. Text carries the flattened issue and
// comment bodies in reading order, the remaining fields are metadata for
// downstream filtering.
type Record struct {
	Key       string   `json:"key"`
	Project   string   `json:"project"`
	Title     string   `json:"title"`
	Text      string   `json:"text"`
	Status    string   `json:"status"`
	IssueType string   `json:"issue_type"`
	Priority  string   `json:"priority,omitempty"`
	Labels    []string `json:"labels,omitempty"`
	Comments  int      `json:"comments"`
	Created   string   `json:"created"`
	Updated   string   `json:"updated"`
}

// BuildRecord assembles one corpus record from a stored issue and its
// comments.
func BuildRecord(issue storage.StoredIssue, comments []storage.StoredComment) Record {
	var b strings.Builder
	b.WriteString(issue.Summary)
	if issue.Description != "" {
		b.WriteString("\n\n")
		b.WriteString(issue.Description)
	}
	for _, c := range comments {
		if c.Body == "" {
			continue
		}
		b.WriteString("\n\n")
		if c.Author != "" {
			b.WriteString(c.Author)
			b.WriteString(": ")
		}
		b.WriteString(c.Body)
	}

	var labels []string
	if issue.Labels != "" {
		labels = strings.Split(issue.Labels, ",")
	}

	return Record{
		Key:       issue.Key,
		Project:   issue.ProjectKey,
		Title:     issue.Summary,
		Text:      b.String(),
		Status:    issue.Status,
		IssueType: issue.IssueType,
		Priority:  issue.Priority,
		Labels:    labels,
		Comments:  len(comments),
		Created:   issue.Created,
		Updated:   issue.Updated,
	}
}

// Exporter streams stored issues out as JSONL.
type Exporter struct {
	db     *storage.DB
	logger zerolog.Logger
}

// NewExporter creates an exporter over a database.
func NewExporter(db *storage.DB) *Exporter {
	return &Exporter{
		db:     db,
		logger: logging.NewLogger("export"),
	}
}

// Export writes one JSONL record per stored issue of a project to w, or
// every project when projectKey is empty. Returns the number of records
// written.
func (e *Exporter) Export(ctx context.Context, w io.Writer, projectKey string) (int, error) {
	issues, err := e.db.ListIssues(ctx, projectKey)
	if err != nil {
		return 0, fmt.Errorf("load issues: %w", err)
	}

	enc := json.NewEncoder(w)
	written := 0
	for _, issue := range issues {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		comments, err := e.db.ListComments(ctx, issue.Key)
		if err != nil {
			return written, fmt.Errorf("load comments of %s: %w", issue.Key, err)
		}
		if err := enc.Encode(BuildRecord(issue, comments)); err != nil {
			return written, fmt.Errorf("encode %s: %w", issue.Key, err)
		}
		written++
		recordsExported.Inc()
	}

	e.logger.Info().
		Str("project", projectKey).
		Int("records", written).
		Msg("corpus export finished")
	return written, nil
}
