// Package scraper implements checkpointed issue ingestion: it drives the
// paginated fetcher page by page, persists every issue and its comments,
// and durably records progress after each page so an interrupted scrape
// resumes from the last committed offset.
package scraper

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/garv999/web-scraping-tutor-assignment-apache-jira-llm-corpus/pkg/jira"
	"github.com/garv999/web-scraping-tutor-assignment-apache-jira-llm-corpus/pkg/logging"
	"github.com/garv999/web-scraping-tutor-assignment-apache-jira-llm-corpus/pkg/pagination"
)

// Prometheus metrics for ingestion.
var (
	issuesIngestedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jira_scraper_issues_ingested_total",
		Help: "Total issues persisted by project",
	}, []string{"project"})

	persistFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jira_scraper_issue_persist_failures_total",
		Help: "Total per-issue persistence failures by project",
	}, []string{"project"})

	projectsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jira_scraper_projects_total",
		Help: "Total project scrapes by final status",
	}, []string{"status"})
)

// PageFetcher fetches one page of issues for a JQL query.
// A (nil, nil) return signals end-of-stream.
type PageFetcher interface {
	FetchPage(ctx context.Context, jql string, offset, pageSize int) (*pagination.Page, error)
}

// MetadataFetcher resolves project metadata.
// A (nil, nil) return means the project does not exist.
type MetadataFetcher interface {
	GetProject(ctx context.Context, key string) (*jira.Project, error)
}

// Options control one ingestion run.
type Options struct {
	// Resume continues from an existing checkpoint. When false, any prior
	// checkpoint is discarded and the project restarts at offset 0.
	Resume bool

	// MaxIssues caps the cumulative number of issues persisted per project.
	// Zero means no cap.
	MaxIssues int

	// PageSize is the search page size (default pagination.DefaultPageSize).
	PageSize int
}

// Result is the per-project outcome of an ingestion run.
type Result struct {
	ProjectKey string
	Status     Status
	Count      int
	Err        error
}

// Ingestor orchestrates fetch, persist, and checkpoint per project.
type Ingestor struct {
	fetcher PageFetcher
	api     MetadataFetcher
	store   Store
	logger  zerolog.Logger
}

// New creates an ingestor.
func New(fetcher PageFetcher, api MetadataFetcher, store Store) *Ingestor {
	return &Ingestor{
		fetcher: fetcher,
		api:     api,
		store:   store,
		logger:  logging.NewLogger("scraper"),
	}
}

// Ingest scrapes the given projects strictly sequentially. A failing
// project is recorded in its result and never prevents the next project
// from being attempted.
func (ing *Ingestor) Ingest(ctx context.Context, projectKeys []string, opts Options) []Result {
	results := make([]Result, 0, len(projectKeys))

	for _, key := range projectKeys {
		res := ing.ingestProject(ctx, key, opts)
		projectsTotal.WithLabelValues(string(res.Status)).Inc()

		if res.Err != nil {
			ing.logger.Error().
				Err(res.Err).
				Str("project", key).
				Int("count", res.Count).
				Msg("Project scrape failed")
		} else {
			ing.logger.Info().
				Str("project", key).
				Str("status", string(res.Status)).
				Int("count", res.Count).
				Msg("Project scrape finished")
		}
		results = append(results, res)
	}

	return results
}

// Status returns the current checkpoint for a project, or (nil, nil) if
// the project has never been scraped.
func (ing *Ingestor) Status(ctx context.Context, projectKey string) (*Checkpoint, error) {
	return ing.store.GetCheckpoint(ctx, projectKey)
}

// ingestProject runs the scrape state machine for one project.
func (ing *Ingestor) ingestProject(ctx context.Context, key string, opts Options) Result {
	project, err := ing.api.GetProject(ctx, key)
	if err != nil {
		return Result{ProjectKey: key, Status: StatusError, Err: fmt.Errorf("project metadata: %w", err)}
	}
	if project == nil {
		return Result{ProjectKey: key, Status: StatusError, Err: fmt.Errorf("project %q not found", key)}
	}

	cp, err := ing.store.GetCheckpoint(ctx, key)
	if err != nil {
		return Result{ProjectKey: key, Status: StatusError, Err: fmt.Errorf("load checkpoint: %w", err)}
	}

	switch {
	case cp == nil:
		cp = NewCheckpoint(key)
	case !opts.Resume:
		ing.logger.Info().Str("project", key).Msg("Forced restart, resetting checkpoint")
		cp = NewCheckpoint(key)
	case cp.Status == StatusCompleted:
		// Idempotence: a completed project costs zero fetches.
		ing.logger.Info().
			Str("project", key).
			Int("count", cp.Count).
			Msg("Project already completed, skipping")
		return Result{ProjectKey: key, Status: StatusCompleted, Count: cp.Count}
	default:
		ing.logger.Info().
			Str("project", key).
			Int("offset", cp.Offset).
			Int("count", cp.Count).
			Msg("Resuming from checkpoint")
	}

	cp.MarkRunning()
	if err := ing.store.PutCheckpoint(ctx, cp); err != nil {
		return Result{ProjectKey: key, Status: StatusError, Count: cp.Count,
			Err: fmt.Errorf("write checkpoint: %w", err)}
	}

	jql := fmt.Sprintf("project = %s ORDER BY created ASC", key)
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = pagination.DefaultPageSize
	}

	for {
		if err := ctx.Err(); err != nil {
			return ing.fail(ctx, cp, fmt.Errorf("scrape interrupted: %w", err))
		}
		if opts.MaxIssues > 0 && cp.Count >= opts.MaxIssues {
			break
		}

		page, err := ing.fetcher.FetchPage(ctx, jql, cp.Offset, pageSize)
		if err != nil {
			return ing.fail(ctx, cp, err)
		}
		if page == nil {
			break
		}

		issues := page.Issues
		if opts.MaxIssues > 0 {
			if remaining := opts.MaxIssues - cp.Count; len(issues) > remaining {
				issues = issues[:remaining]
			}
		}

		persisted := 0
		lastKey := ""
		for i := range issues {
			issue := &issues[i]
			lastKey = issue.Key
			if err := ing.persistIssue(ctx, issue); err != nil {
				// One bad issue never aborts the batch.
				persistFailuresTotal.WithLabelValues(key).Inc()
				ing.logger.Warn().
					Err(err).
					Str("project", key).
					Str("issue", issue.Key).
					Msg("Failed to persist issue, skipping")
				continue
			}
			persisted++
		}
		issuesIngestedTotal.WithLabelValues(key).Add(float64(persisted))

		cp.Advance(len(issues), persisted, lastKey)
		if err := ing.store.PutCheckpoint(ctx, cp); err != nil {
			return ing.fail(ctx, cp, fmt.Errorf("write checkpoint: %w", err))
		}

		ing.logger.Info().
			Str("project", key).
			Int("offset", cp.Offset).
			Int("count", cp.Count).
			Int("total", page.Total).
			Msg("Page committed")

		if cp.Offset >= page.Total {
			break
		}
	}

	cp.MarkCompleted()
	if err := ing.store.PutCheckpoint(ctx, cp); err != nil {
		return Result{ProjectKey: key, Status: StatusError, Count: cp.Count,
			Err: fmt.Errorf("write checkpoint: %w", err)}
	}
	return Result{ProjectKey: key, Status: StatusCompleted, Count: cp.Count}
}

// persistIssue persists one issue and its comments.
func (ing *Ingestor) persistIssue(ctx context.Context, issue *jira.Issue) error {
	if err := ing.store.UpsertIssue(ctx, issue); err != nil {
		return fmt.Errorf("upsert issue: %w", err)
	}
	if comments := issue.Fields.Comment.Comments; len(comments) > 0 {
		if err := ing.store.UpsertComments(ctx, issue.Key, comments); err != nil {
			return fmt.Errorf("upsert comments: %w", err)
		}
	}
	return nil
}

// fail records a page-level failure into the checkpoint and surfaces it.
// The checkpoint write is best-effort: the last committed state is already
// durable and a resume continues from it regardless.
func (ing *Ingestor) fail(ctx context.Context, cp *Checkpoint, cause error) Result {
	cp.MarkError(cause)
	if err := ing.store.PutCheckpoint(ctx, cp); err != nil {
		ing.logger.Error().
			Err(err).
			Str("project", cp.ProjectKey).
			Msg("Failed to record error checkpoint")
	}
	return Result{ProjectKey: cp.ProjectKey, Status: StatusError, Count: cp.Count, Err: cause}
}
