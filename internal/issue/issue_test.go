package issue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockIssues(t *testing.T) {
	issues := MockIssues()
	require.Len(t, issues, 2)

	assert.Equal(t, "1", issues[0].IssueID)
	assert.Equal(t, "default issue old", issues[0].Description)
	assert.Equal(t, "2", issues[1].IssueID)
	assert.True(t, issues[1].CreatedAt.After(issues[0].CreatedAt))
}

func TestDocument_KeepsTimestampLayout(t *testing.T) {
	doc := MockIssues()[0].Document()

	assert.Equal(t, "2024-04-27T10:15:30.123456+0530", doc["created_at"])
	assert.Equal(t, "hello world", doc["issue_name"])
	assert.Equal(t, SourceDefault, doc["source"])
}

func TestDocument_DefaultsSource(t *testing.T) {
	i := MockIssues()[0]
	i.Source = ""

	assert.Equal(t, SourceDefault, i.Document()["source"])
}

func TestFromDocument(t *testing.T) {
	want := MockIssues()[1]

	got, err := FromDocument(want.Document())
	require.NoError(t, err)
	assert.Equal(t, want.IssueID, got.IssueID)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
	assert.True(t, want.UpdatedAt.Equal(got.UpdatedAt))
}

func TestFromDocument_BadTimestamp(t *testing.T) {
	doc := MockIssues()[0].Document()
	doc["updated_at"] = "yesterday"

	_, err := FromDocument(doc)
	assert.ErrorContains(t, err, "updated_at")
}
