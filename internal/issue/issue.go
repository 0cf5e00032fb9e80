// Package issue defines the issue documents mirrored between trackers.
package issue

import (
	"fmt"
	"time"
)

// TimeLayout is the timestamp format issues are stored with.
const TimeLayout = "2006-01-02T15:04:05.000000-0700"

// SourceDefault names the generic tracker.
const SourceDefault = "default"

type Issue struct {
	Source      string
	IssueID     string
	Name        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Description string
}

// Document returns the stored form of the issue.
func (i Issue) Document() map[string]any {
	src := i.Source
	if src == "" {
		src = SourceDefault
	}
	return map[string]any{
		"source":      src,
		"issue_id":    i.IssueID,
		"issue_name":  i.Name,
		"created_at":  i.CreatedAt.Format(TimeLayout),
		"updated_at":  i.UpdatedAt.Format(TimeLayout),
		"description": i.Description,
	}
}

// FromDocument parses a stored issue. Missing string fields are left empty;
// timestamps must be present and in TimeLayout.
func FromDocument(doc map[string]any) (Issue, error) {
	var (
		i   Issue
		err error
	)
	i.Source = str(doc, "source")
	i.IssueID = str(doc, "issue_id")
	i.Name = str(doc, "issue_name")
	i.Description = str(doc, "description")
	if i.CreatedAt, err = time.Parse(TimeLayout, str(doc, "created_at")); err != nil {
		return Issue{}, fmt.Errorf("issue %q created_at: %w", i.IssueID, err)
	}
	if i.UpdatedAt, err = time.Parse(TimeLayout, str(doc, "updated_at")); err != nil {
		return Issue{}, fmt.Errorf("issue %q updated_at: %w", i.IssueID, err)
	}
	return i, nil
}

func str(doc map[string]any, key string) string {
	s, _ := doc[key].(string)
	return s
}

// MockIssues returns the fixture issues used to seed an empty database.
func MockIssues() []Issue {
	return []Issue{
		{
			Source:      SourceDefault,
			IssueID:     "1",
			Name:        "hello world",
			CreatedAt:   mustTime("2024-04-27T10:15:30.123456+0530"),
			UpdatedAt:   mustTime("2024-04-27T10:15:30.123456+0530"),
			Description: "default issue old",
		},
		{
			Source:      SourceDefault,
			IssueID:     "2",
			Name:        "hello world",
			CreatedAt:   mustTime("2024-04-28T10:15:30.123456+0530"),
			UpdatedAt:   mustTime("2024-04-28T10:15:30.123456+0530"),
			Description: "default issue new",
		},
	}
}

func mustTime(s string) time.Time {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}
