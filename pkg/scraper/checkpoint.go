package scraper

import "time"

// Status is the lifecycle state of a project's scrape.
type Status string

const (
	// StatusPending marks a checkpoint created but not yet running.
	StatusPending Status = "pending"

	// StatusRunning marks a scrape in progress.
	StatusRunning Status = "running"

	// StatusCompleted marks a finished scrape. No further writes happen
	// unless the caller forces a restart.
	StatusCompleted Status = "completed"

	// StatusError marks an aborted scrape. Resumable by re-invoking with
	// resume enabled.
	StatusError Status = "error"
)

// Checkpoint is the durable resume point for one project. Offset and Count
// never decrease while the scrape is running, and a checkpoint is written
// only after the corresponding page's issues are persisted, so it never
// points past durable data.
type Checkpoint struct {
	ProjectKey   string     `json:"project_key"`
	Offset       int        `json:"offset"`
	Count        int        `json:"count"`
	LastIssueKey string     `json:"last_issue_key"`
	Status       Status     `json:"status"`
	Error        string     `json:"error,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// NewCheckpoint creates a fresh checkpoint for a project.
func NewCheckpoint(projectKey string) *Checkpoint {
	now := time.Now().UTC()
	return &Checkpoint{
		ProjectKey: projectKey,
		Status:     StatusPending,
		StartedAt:  now,
		UpdatedAt:  now,
	}
}

// Terminal reports whether the checkpoint is in a terminal state.
func (c *Checkpoint) Terminal() bool {
	return c.Status == StatusCompleted || c.Status == StatusError
}

// MarkRunning transitions the checkpoint into the running state and clears
// any stale error detail from a previous aborted run.
func (c *Checkpoint) MarkRunning() {
	c.Status = StatusRunning
	c.Error = ""
	c.CompletedAt = nil
	c.UpdatedAt = time.Now().UTC()
}

// Advance records one committed page: offset moves by the issues processed,
// count by the issues actually persisted.
func (c *Checkpoint) Advance(processed, persisted int, lastIssueKey string) {
	c.Offset += processed
	c.Count += persisted
	if lastIssueKey != "" {
		c.LastIssueKey = lastIssueKey
	}
	c.UpdatedAt = time.Now().UTC()
}

// MarkCompleted transitions the checkpoint into the completed state.
func (c *Checkpoint) MarkCompleted() {
	now := time.Now().UTC()
	c.Status = StatusCompleted
	c.Error = ""
	c.CompletedAt = &now
	c.UpdatedAt = now
}

// MarkError records a page-level failure. The offset and count keep their
// last committed values so a later resume continues from good data.
func (c *Checkpoint) MarkError(err error) {
	c.Status = StatusError
	if err != nil {
		c.Error = err.Error()
	}
	c.UpdatedAt = time.Now().UTC()
}
