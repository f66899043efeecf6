package jira

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"testing"
)

type fakeRequester struct {
	body     []byte
	err      error
	endpoint string
	query    url.Values
}

func (f *fakeRequester) Get(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	f.endpoint = endpoint
	f.query = query
	return f.body, f.err
}

func TestGetProject(t *testing.T) {
	req := &fakeRequester{body: []byte(`{"id":"12310240","key":"HADOOP","name":"Hadoop Common"}`)}
	api := NewAPI(req)

	project, err := api.GetProject(context.Background(), "HADOOP")
	if err != nil {
		t.Fatalf("GetProject: %v", err)
	}
	if project.Key != "HADOOP" || project.Name != "Hadoop Common" {
		t.Errorf("project = %+v", project)
	}
	if req.endpoint != "/rest/api/2/project/HADOOP" {
		t.Errorf("endpoint = %q", req.endpoint)
	}
}

func TestGetProject_NotFound(t *testing.T) {
	api := NewAPI(&fakeRequester{body: nil})

	project, err := api.GetProject(context.Background(), "NOPE")
	if err != nil {
		t.Fatalf("GetProject: %v", err)
	}
	if project != nil {
		t.Errorf("expected nil project for absent key, got %+v", project)
	}
}

func TestGetProject_RequestError(t *testing.T) {
	wantErr := errors.New("boom")
	api := NewAPI(&fakeRequester{err: wantErr})

	_, err := api.GetProject(context.Background(), "HADOOP")
	if !errors.Is(err, wantErr) {
		t.Errorf("error = %v, want wrapped %v", err, wantErr)
	}
}

func TestSearch(t *testing.T) {
	result := SearchResult{
		StartAt:    100,
		MaxResults: 50,
		Total:      1234,
		Issues: []Issue{
			{ID: "1", Key: "HADOOP-101", Fields: IssueFields{Summary: "first"}},
			{ID: "2", Key: "HADOOP-102", Fields: IssueFields{Summary: "second"}},
		},
	}
	body, _ := json.Marshal(result)
	req := &fakeRequester{body: body}
	api := NewAPI(req)

	got, err := api.Search(context.Background(), "project = HADOOP ORDER BY created ASC", 100, 50)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got.Total != 1234 {
		t.Errorf("total = %d, want 1234", got.Total)
	}
	if len(got.Issues) != 2 || got.Issues[0].Key != "HADOOP-101" {
		t.Errorf("issues = %+v", got.Issues)
	}

	if req.endpoint != "/rest/api/2/search" {
		t.Errorf("endpoint = %q", req.endpoint)
	}
	if req.query.Get("startAt") != "100" || req.query.Get("maxResults") != "50" {
		t.Errorf("pagination params = %v", req.query)
	}
	if req.query.Get("jql") != "project = HADOOP ORDER BY created ASC" {
		t.Errorf("jql = %q", req.query.Get("jql"))
	}
	if req.query.Get("fields") != "*all" {
		t.Errorf("fields = %q", req.query.Get("fields"))
	}
}

func TestSearch_InvalidJSON(t *testing.T) {
	api := NewAPI(&fakeRequester{body: []byte("not json")})

	if _, err := api.Search(context.Background(), "project = X", 0, 50); err == nil {
		t.Error("expected decode error")
	}
}

func TestSearch_MissingBody(t *testing.T) {
	api := NewAPI(&fakeRequester{body: nil})

	if _, err := api.Search(context.Background(), "project = X", 0, 50); err == nil {
		t.Error("expected error when the search endpoint yields no body")
	}
}
