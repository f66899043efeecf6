package pagination

import (
	"context"
	"errors"
	"testing"

	"github.com/garv999/web-scraping-tutor-assignment-apache-jira-llm-corpus/pkg/jira"
)

// fakeSearcher returns canned results keyed by offset.
type fakeSearcher struct {
	results map[int]*jira.SearchResult
	err     error
	calls   []searchCall
}

type searchCall struct {
	jql        string
	startAt    int
	maxResults int
}

func (f *fakeSearcher) Search(ctx context.Context, jql string, startAt, maxResults int) (*jira.SearchResult, error) {
	f.calls = append(f.calls, searchCall{jql, startAt, maxResults})
	if f.err != nil {
		return nil, f.err
	}
	if r, ok := f.results[startAt]; ok {
		return r, nil
	}
	return &jira.SearchResult{StartAt: startAt, Total: 0}, nil
}

func issuesNamed(keys ...string) []jira.Issue {
	out := make([]jira.Issue, 0, len(keys))
	for _, k := range keys {
		out = append(out, jira.Issue{Key: k})
	}
	return out
}

func TestFetchPage_ReturnsPage(t *testing.T) {
	searcher := &fakeSearcher{results: map[int]*jira.SearchResult{
		0: {Total: 3, Issues: issuesNamed("HADOOP-1", "HADOOP-2")},
	}}
	f := NewFetcher(searcher)

	page, err := f.FetchPage(context.Background(), "project = HADOOP", 0, 2)
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if page == nil {
		t.Fatal("expected a page")
	}
	if len(page.Issues) != 2 {
		t.Errorf("items = %d, want 2", len(page.Issues))
	}
	if page.Total != 3 {
		t.Errorf("total = %d, want 3", page.Total)
	}
}

func TestFetchPage_EmptyPageSignalsEndOfStream(t *testing.T) {
	searcher := &fakeSearcher{results: map[int]*jira.SearchResult{}}
	f := NewFetcher(searcher)

	page, err := f.FetchPage(context.Background(), "project = HADOOP", 100, 50)
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if page != nil {
		t.Errorf("page = %+v, want nil for end of stream", page)
	}
}

func TestFetchPage_PropagatesError(t *testing.T) {
	searchErr := errors.New("search failed")
	f := NewFetcher(&fakeSearcher{err: searchErr})

	_, err := f.FetchPage(context.Background(), "project = HADOOP", 0, 50)
	if !errors.Is(err, searchErr) {
		t.Errorf("error = %v, want wrapped %v", err, searchErr)
	}
}

func TestFetchPage_DoesNotMutateOffset(t *testing.T) {
	searcher := &fakeSearcher{results: map[int]*jira.SearchResult{
		40: {Total: 100, Issues: issuesNamed("HADOOP-41")},
	}}
	f := NewFetcher(searcher)

	// Same inputs, same request: the fetcher holds no pagination state.
	for i := 0; i < 2; i++ {
		if _, err := f.FetchPage(context.Background(), "project = HADOOP", 40, 10); err != nil {
			t.Fatalf("FetchPage: %v", err)
		}
	}

	if len(searcher.calls) != 2 {
		t.Fatalf("calls = %d, want 2", len(searcher.calls))
	}
	for _, call := range searcher.calls {
		if call.startAt != 40 || call.maxResults != 10 {
			t.Errorf("call = %+v, want startAt=40 maxResults=10", call)
		}
	}
}

func TestFetchPage_DefaultPageSize(t *testing.T) {
	searcher := &fakeSearcher{results: map[int]*jira.SearchResult{}}
	f := NewFetcher(searcher)

	if _, err := f.FetchPage(context.Background(), "project = HADOOP", 0, 0); err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if searcher.calls[0].maxResults != DefaultPageSize {
		t.Errorf("maxResults = %d, want %d", searcher.calls[0].maxResults, DefaultPageSize)
	}
}
