package presenter_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/dealroom/internal/apperr"
	"github.com/starford/dealroom/internal/fieldedit"
	"github.com/starford/dealroom/internal/ids"
	"github.com/starford/dealroom/internal/metrics"
	"github.com/starford/dealroom/internal/models"
	"github.com/starford/dealroom/internal/presenter"
	"github.com/starford/dealroom/internal/testutil"
)

func newRegistry(t *testing.T, opts ...presenter.Option) (*presenter.Registry, presenter.Clients) {
	t.Helper()
	svc, _ := testutil.TestService(t)
	opts = append([]presenter.Option{
		presenter.WithIDs(ids.NewSequence("s")),
		presenter.WithLogger(testutil.Logger()),
	}, opts...)
	return presenter.NewRegistry(svc, opts...), svc
}

func TestView_CollapsedByDefault(t *testing.T) {
	reg, _ := newRegistry(t)
	s := reg.Create()
	ctx := context.Background()

	v := s.View(ctx)
	assert.Equal(t, "s-1", v.SessionID)
	assert.Equal(t, presenter.ModeCollapsed, v.Mode)
	assert.Equal(t, models.BucketCurrent, v.ActiveTab)
	assert.Nil(t, v.Overlay)
	require.Len(t, v.Cards, 2)
	assert.Equal(t, "Giphy", v.Cards[0].Name)
	assert.Equal(t, "G", v.Cards[0].Initial)
	assert.Equal(t, "#FF6B6B", v.Cards[0].BrandColor)
	assert.Equal(t, 2, v.Counts[models.BucketCurrent])
}

func TestExpandAndClose(t *testing.T) {
	reg, _ := newRegistry(t)
	s := reg.Create()
	ctx := context.Background()

	s.Expand("2")
	v := s.View(ctx)
	require.Equal(t, presenter.ModeExpanded, v.Mode)
	require.NotNil(t, v.Overlay)
	assert.Equal(t, "Netflix", v.Overlay.Client.Name)
	assert.Len(t, v.Overlay.AssignedMembers, 3)
	assert.Len(t, v.Overlay.UnassignedMembers, 2)
	assert.True(t, v.Overlay.CanSubmitInterest)
	assert.False(t, v.Overlay.EditAffordances)
	assert.Equal(t, "spreadsheet", v.Overlay.DocumentKinds["doc-002"])
	assert.Equal(t, "presentation", v.Overlay.DocumentKinds["doc-003"])
	assert.Equal(t, "document", v.Overlay.DocumentKinds["doc-001"])

	s.Close()
	assert.Equal(t, "", s.ExpandedID())
	assert.Equal(t, presenter.ModeCollapsed, s.View(ctx).Mode)
}

func TestExpand_UnknownIDRendersCollapsed(t *testing.T) {
	reg, _ := newRegistry(t)
	s := reg.Create()
	s.Expand("nope")
	assert.Equal(t, presenter.ModeCollapsed, s.View(context.Background()).Mode)
}

func TestGlobalEditModeKeepsEdits(t *testing.T) {
	reg, _ := newRegistry(t)
	s := reg.Create()
	ctx := context.Background()

	s.Expand("2")
	require.True(t, s.StartEditing(ctx, "projectScope"))
	assert.True(t, s.ToggleGlobalEditMode())

	v := s.View(ctx)
	assert.True(t, v.Overlay.EditAffordances)
	assert.Equal(t, []string{"projectScope"}, v.Overlay.Editing)
	assert.Contains(t, v.Overlay.Drafts["projectScope"], "Multi-market")

	assert.False(t, s.ToggleGlobalEditMode())
	assert.Equal(t, []string{"projectScope"}, s.View(ctx).Overlay.Editing)
}

func TestEditSaveCommitsDraft(t *testing.T) {
	reg, clients := newRegistry(t)
	s := reg.Create()
	ctx := context.Background()

	s.Expand("2")
	require.True(t, s.StartEditingFrom("companyProfile", "v1"))
	require.True(t, s.UpdateDraft("companyProfile", "v2"))
	ok, err := s.SaveEdit(ctx, "companyProfile")
	require.NoError(t, err)
	require.True(t, ok)

	d, err := clients.Get(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "v2", d.CompanyProfile)
	assert.Empty(t, s.View(ctx).Overlay.Editing)

	// Saving again is a stale trigger.
	ok, err = s.SaveEdit(ctx, "companyProfile")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEditCancelLeavesValue(t *testing.T) {
	reg, clients := newRegistry(t)
	s := reg.Create()
	ctx := context.Background()

	s.Expand("2")
	require.True(t, s.StartEditing(ctx, "boxUrl"))
	s.UpdateDraft("boxUrl", "https://elsewhere")
	s.CancelEdit("boxUrl")

	d, err := clients.Get(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "https://app.box.com/folder/netflix-project-2024", d.BoxURL)
	assert.Empty(t, s.View(ctx).Overlay.Editing)
}

func TestEditActionItemDescription(t *testing.T) {
	reg, clients := newRegistry(t)
	s := reg.Create()
	ctx := context.Background()

	field := fieldedit.ActionItemDescriptionField("3")
	s.Expand("2")
	require.True(t, s.StartEditing(ctx, field))
	assert.Contains(t, s.View(ctx).Overlay.Drafts[field], "five largest")
	s.UpdateDraft(field, "Focus on Germany first")
	_, err := s.SaveEdit(ctx, field)
	require.NoError(t, err)

	d, err := clients.Get(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "Focus on Germany first", d.ActionItems[0].Description)
}

func TestEditingWhileCollapsedIsNoop(t *testing.T) {
	reg, _ := newRegistry(t)
	s := reg.Create()
	ctx := context.Background()

	assert.False(t, s.StartEditing(ctx, "name"))
	assert.False(t, s.UpdateDraft("name", "x"))
	ok, err := s.SaveEdit(ctx, "name")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = s.AddComment(ctx, "hello")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCrossEntityStateIsKeptByDefault(t *testing.T) {
	reg, _ := newRegistry(t)
	s := reg.Create()
	ctx := context.Background()

	s.Expand("1")
	s.StartEditingFrom("budget", "$1")
	s.ToggleActionItem("1")
	s.Close()
	s.Expand("2")

	v := s.View(ctx)
	assert.Equal(t, []string{"budget"}, v.Overlay.Editing)
	assert.Equal(t, []string{"1"}, v.Overlay.ExpandedActionItems)
}

func TestResetOnSwitch(t *testing.T) {
	reg, _ := newRegistry(t, presenter.WithResetOnSwitch(true))
	s := reg.Create()
	ctx := context.Background()

	s.Expand("1")
	s.StartEditingFrom("budget", "$1")
	s.ToggleContact("1-contact-1")
	s.Close()

	// Re-expanding the same client keeps state.
	s.Expand("1")
	assert.Equal(t, []string{"budget"}, s.View(ctx).Overlay.Editing)

	s.Close()
	s.Expand("2")
	v := s.View(ctx)
	assert.Empty(t, v.Overlay.Editing)
	assert.Empty(t, v.Overlay.ExpandedContacts)
}

func TestDisclosureToggles(t *testing.T) {
	reg, _ := newRegistry(t)
	s := reg.Create()
	ctx := context.Background()

	s.Expand("1")
	assert.True(t, s.ToggleContact("1-contact-2"))
	assert.True(t, s.ToggleActionItem("2"))
	assert.False(t, s.ToggleActionItem("2"))

	v := s.View(ctx)
	assert.Equal(t, []string{"1-contact-2"}, v.Overlay.ExpandedContacts)
	assert.Empty(t, v.Overlay.ExpandedActionItems)
}

func TestAppendsThroughSession(t *testing.T) {
	reg, clients := newRegistry(t)
	s := reg.Create()
	ctx := context.Background()

	s.Expand("4")
	ok, err := s.AddComment(ctx, "Looks good")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.AddIdea(ctx, "  ")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = s.AddActionItem(ctx, "Send proposal")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.UploadPlaceholderDocument(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	d, err := clients.Get(ctx, "4")
	require.NoError(t, err)
	assert.Len(t, d.Comments, 1)
	assert.Empty(t, d.BigIdeas)
	require.Len(t, d.ActionItems, 1)
	assert.Equal(t, "Sample Document.pdf", d.Documents[0].Name)

	ok, err = s.SetActionItemCompleted(ctx, d.ActionItems[0].ID, true)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.SetActionItemCompleted(ctx, "missing", true)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTabSearchAndFilters(t *testing.T) {
	reg, _ := newRegistry(t)
	s := reg.Create()
	ctx := context.Background()

	s.SetTab(models.BucketArchived)
	v := s.View(ctx)
	require.Len(t, v.Cards, 1)
	assert.Equal(t, "Spotify", v.Cards[0].Name)

	s.SetTab(models.BucketCurrent)
	s.SetSearch("NETFLIX")
	v = s.View(ctx)
	require.Len(t, v.Cards, 1)
	assert.Equal(t, "2", v.Cards[0].ID)

	s.SetSearch("nothing matches")
	assert.True(t, s.View(ctx).NoClientsFound)

	require.NoError(t, s.SetFilter(presenter.FilterIndustry, "media"))
	require.NoError(t, s.SetFilter(presenter.FilterTeamMember, "2"))
	assert.ErrorIs(t, s.SetFilter("colour", "red"), apperr.ErrInvalidInput)
	assert.Equal(t, 2, s.View(ctx).ActiveFilterCount)
	require.NoError(t, s.SetFilter(presenter.FilterIndustry, ""))
	assert.Equal(t, 1, s.View(ctx).ActiveFilterCount)
	s.ClearFilters()
	assert.Zero(t, s.View(ctx).ActiveFilterCount)
}

func TestTeamMemberStubsOnlyLog(t *testing.T) {
	var buf bytes.Buffer
	svc, _ := testutil.TestService(t)
	reg := presenter.NewRegistry(svc, presenter.WithLogger(slog.New(slog.NewJSONHandler(&buf, nil))))
	s := reg.Create()
	ctx := context.Background()

	s.Expand("1")
	before := s.View(ctx).Overlay
	s.AddTeamMember("New Person")
	s.RemoveTeamMember("1")
	after := s.View(ctx).Overlay

	assert.Equal(t, before.AssignedMembers, after.AssignedMembers)
	assert.Contains(t, buf.String(), "add team member requested")
	assert.Contains(t, buf.String(), `"member_id":"1"`)
}

func TestRegistryLifecycle(t *testing.T) {
	m := metrics.New()
	reg, _ := newRegistry(t, presenter.WithMetrics(m))

	a := reg.Create()
	b := reg.Create()
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, 2, reg.Len())

	got, ok := reg.Get(a.ID())
	require.True(t, ok)
	assert.Same(t, a, got)

	assert.True(t, reg.Delete(a.ID()))
	assert.False(t, reg.Delete(a.ID()))
	_, ok = reg.Get(a.ID())
	assert.False(t, ok)
	assert.Equal(t, 1, reg.Len())
}

func TestRegistry_IdleSessionsExpire(t *testing.T) {
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	reg, _ := newRegistry(t,
		presenter.WithIdleTimeout(time.Minute),
		presenter.WithRegistryClock(func() time.Time { return now }),
	)
	idle := reg.Create()
	active := reg.Create()

	now = now.Add(40 * time.Second)
	_, ok := reg.Get(active.ID())
	require.True(t, ok)

	now = now.Add(30 * time.Second)
	_, ok = reg.Get(idle.ID())
	assert.False(t, ok, "idle session should have expired")
	_, ok = reg.Get(active.ID())
	assert.True(t, ok, "recently used session should survive")

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, reg.Prune())
	assert.Equal(t, 0, reg.Len())
}

func TestRegistry_CapEvictsLeastRecentlyUsed(t *testing.T) {
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	reg, _ := newRegistry(t,
		presenter.WithMaxSessions(2),
		presenter.WithRegistryClock(func() time.Time { return now }),
	)
	first := reg.Create()
	now = now.Add(time.Second)
	second := reg.Create()
	now = now.Add(time.Second)
	_, _ = reg.Get(first.ID())
	now = now.Add(time.Second)

	third := reg.Create()
	assert.Equal(t, 2, reg.Len())
	_, ok := reg.Get(second.ID())
	assert.False(t, ok, "least recently used session should be evicted")
	_, ok = reg.Get(first.ID())
	assert.True(t, ok)
	_, ok = reg.Get(third.ID())
	assert.True(t, ok)
}
