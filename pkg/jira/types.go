// Package jira defines the wire types of the Jira REST API subset used by
// the scraper: issue search results, project metadata, and the rich-text
// document format used for descriptions and comment bodies.
package jira

import "encoding/json"

// Project is the metadata record for a Jira project.
type Project struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

// User identifies the author of an issue or comment.
type User struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// Issue is one issue as returned by the search endpoint. Key is the stable
// unique identifier within its project.
type Issue struct {
	ID     string      `json:"id"`
	Key    string      `json:"key"`
	Fields IssueFields `json:"fields"`
}

// IssueFields holds the subset of issue fields the corpus cares about.
// Description is kept raw because the API returns either a plain string
// (v2) or a rich-text document (v3).
type IssueFields struct {
	Summary     string          `json:"summary"`
	Description json.RawMessage `json:"description"`
	Created     string          `json:"created"`
	Updated     string          `json:"updated"`
	Labels      []string        `json:"labels"`

	Project   NamedRef    `json:"project"`
	Status    NamedRef    `json:"status"`
	IssueType NamedRef    `json:"issuetype"`
	Priority  NamedRef    `json:"priority"`
	Reporter  *User       `json:"reporter"`
	Assignee  *User       `json:"assignee"`
	Comment   CommentPage `json:"comment"`
}

// NamedRef is a reference field carrying a key and/or display name.
type NamedRef struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// CommentPage is the embedded comment container of an issue.
type CommentPage struct {
	Comments []Comment `json:"comments"`
	Total    int       `json:"total"`
}

// Comment is one comment on an issue, with its own stable ID.
type Comment struct {
	ID      string          `json:"id"`
	Author  User            `json:"author"`
	Body    json.RawMessage `json:"body"`
	Created string          `json:"created"`
}

// SearchResult is one page of an offset-paginated issue search.
type SearchResult struct {
	StartAt    int     `json:"startAt"`
	MaxResults int     `json:"maxResults"`
	Total      int     `json:"total"`
	Issues     []Issue `json:"issues"`
}

// ProjectKey returns the key of the project owning the issue.
func (i *Issue) ProjectKey() string {
	return i.Fields.Project.Key
}

// DescriptionText returns the issue description flattened to plain text.
func (i *Issue) DescriptionText() (string, error) {
	return DecodeText(i.Fields.Description)
}

// BodyText returns the comment body flattened to plain text.
func (c *Comment) BodyText() (string, error) {
	return DecodeText(c.Body)
}
