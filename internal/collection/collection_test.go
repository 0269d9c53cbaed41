package collection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/dealroom/internal/ids"
	"github.com/starford/dealroom/internal/models"
)

var fixedNow = time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC)

func testBuilder() *Builder {
	return NewBuilder(ids.NewSequence("t"), WithClock(func() time.Time { return fixedNow }))
}

func TestAddComment_AppendsWithDefaults(t *testing.T) {
	b := testBuilder()
	c := models.Client{ID: "1", Comments: []models.Comment{}}

	patch, ok := b.AddComment(c, "Looks good")
	require.True(t, ok)
	require.NotNil(t, patch.Comments)

	got := patch.Apply(c)
	require.Len(t, got.Comments, 1)
	cm := got.Comments[0]
	assert.Equal(t, "Current User", cm.Author)
	assert.Equal(t, "Looks good", cm.Content)
	assert.Equal(t, "Just now", cm.Timestamp)
	assert.NotEmpty(t, cm.ID)

	// only the comments key is set
	patch.Comments = nil
	assert.True(t, patch.IsEmpty())
}

func TestAddComment_PreservesOrderAndInput(t *testing.T) {
	b := testBuilder()
	existing := make([]models.Comment, 2, 8)
	existing[0] = models.Comment{ID: "a"}
	existing[1] = models.Comment{ID: "b"}
	c := models.Client{ID: "1", Comments: existing}

	patch, ok := b.AddComment(c, "third")
	require.True(t, ok)
	comments := *patch.Comments
	require.Len(t, comments, 3)
	assert.Equal(t, "a", comments[0].ID)
	assert.Equal(t, "b", comments[1].ID)
	assert.Equal(t, "third", comments[2].Content)
	assert.Len(t, c.Comments, 2, "input must not grow")
	assert.Equal(t, models.Comment{}, existing[:3][2], "spare capacity of the input must not be written")
}

func TestBlankTextIsNoOp(t *testing.T) {
	b := testBuilder()
	c := models.Client{ID: "1"}
	for _, text := range []string{"", "   ", "\n\t"} {
		_, ok := b.AddComment(c, text)
		assert.False(t, ok, "comment %q", text)
		_, ok = b.AddIdea(c, text)
		assert.False(t, ok, "idea %q", text)
		_, ok = b.AddActionItem(c, text)
		assert.False(t, ok, "action item %q", text)
		_, ok = b.AddDocument(c, text, "pdf")
		assert.False(t, ok, "document %q", text)
	}
}

func TestAddIdea_ZeroVotes(t *testing.T) {
	b := testBuilder()
	patch, ok := b.AddIdea(models.Client{}, "AR trailers")
	require.True(t, ok)
	ideas := *patch.BigIdeas
	require.Len(t, ideas, 1)
	assert.Equal(t, 0, ideas[0].Votes)
	assert.Equal(t, CurrentUser, ideas[0].Author)
	assert.Equal(t, JustNow, ideas[0].Timestamp)
}

func TestAddActionItem_Defaults(t *testing.T) {
	b := testBuilder()
	patch, ok := b.AddActionItem(models.Client{}, "Draft brief")
	require.True(t, ok)
	items := *patch.ActionItems
	require.Len(t, items, 1)
	assert.Equal(t, "Draft brief", items[0].Task)
	assert.Equal(t, Unassigned, items[0].Assignee)
	assert.False(t, items[0].Completed)
	assert.Equal(t, "March 5, 2024", items[0].DueDate)
	assert.Empty(t, items[0].Description)
}

func TestIDsAreNeverReused(t *testing.T) {
	b := testBuilder()
	c := models.Client{}
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		patch, _ := b.AddComment(c, "x")
		c = patch.Apply(c)
	}
	for _, cm := range c.Comments {
		require.False(t, seen[cm.ID], "duplicate id %s", cm.ID)
		seen[cm.ID] = true
	}
}

func TestPlaceholderDocument(t *testing.T) {
	b := testBuilder()
	patch := b.PlaceholderDocument(models.Client{})
	docs := *patch.Documents
	require.Len(t, docs, 1)
	assert.Equal(t, PlaceholderName, docs[0].Name)
	assert.Equal(t, PlaceholderType, docs[0].Type)
	assert.Equal(t, "March 5, 2024", docs[0].UploadDate)
}

func TestSetActionItemCompleted(t *testing.T) {
	c := models.Client{ActionItems: []models.ActionItem{{ID: "a1"}, {ID: "a2"}}}

	patch, ok := SetActionItemCompleted(c, "a2", true)
	require.True(t, ok)
	items := *patch.ActionItems
	assert.False(t, items[0].Completed)
	assert.True(t, items[1].Completed)
	assert.False(t, c.ActionItems[1].Completed, "input must not be modified")

	_, ok = SetActionItemCompleted(c, "missing", true)
	assert.False(t, ok)
}

func TestSetActionItemDescription(t *testing.T) {
	c := models.Client{ActionItems: []models.ActionItem{{ID: "a1", Description: "old"}}}
	patch, ok := SetActionItemDescription(c, "a1", "new")
	require.True(t, ok)
	assert.Equal(t, "new", (*patch.ActionItems)[0].Description)
	assert.Equal(t, "old", c.ActionItems[0].Description)
}

func TestDocumentKind(t *testing.T) {
	cases := map[string]string{
		"excel":      KindSpreadsheet,
		"text/csv":   KindSpreadsheet,
		"powerpoint": KindPresentation,
		"pptx":       KindPresentation,
		"pdf":        KindDocument,
		"":           KindDocument,
	}
	for in, want := range cases {
		assert.Equal(t, want, DocumentKind(in), in)
	}
}
