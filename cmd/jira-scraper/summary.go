package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/garv999/web-scraping-tutor-assignment-apache-jira-llm-corpus/pkg/scraper"
)

// formatSummary renders the per-project scrape results as a table.
func formatSummary(results []scraper.Result) string {
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PROJECT\tSTATUS\tISSUES\tDETAIL")
	for _, r := range results {
		detail := ""
		if r.Err != nil {
			detail = r.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", r.ProjectKey, r.Status, r.Count, detail)
	}
	w.Flush()
	return sb.String()
}

func countFailed(results []scraper.Result) int {
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	return failed
}
