package services

import (
	"context"
	"testing"

	"github.com/beaconai/beacon-server/internal/beacon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishUpdate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session, caseID, key := submitReport(t, env)

	env.ai.Rewritten = "The investigation has moved to the review stage."
	update, err := env.updates.Publish(ctx, session.ReportID,
		"Spoke to inspector Kowalski, he confirms the clerk's shift records", "staff@ngo.org")
	require.NoError(t, err)
	assert.Equal(t, "The investigation has moved to the review stage.", update.PublicText)

	view, err := env.tracking.Track(ctx, caseID, key)
	require.NoError(t, err)
	require.Len(t, view.Updates, 1)
	assert.Equal(t, update.PublicText, view.Updates[0].Message)
	// The raw note never appears on the anonymous path.
	assert.NotContains(t, view.Updates[0].Message, "Kowalski")
}

func TestPublishBlockedWhenRewriterDown(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session, caseID, key := submitReport(t, env)

	env.ai.RewriteFail = true
	_, err := env.updates.Publish(ctx, session.ReportID, "sensitive raw note", "staff@ngo.org")
	assert.ErrorIs(t, err, beacon.ErrRewriteUnavailable)

	// No row was created, so nothing is retrievable anywhere.
	assert.Empty(t, env.store.RawUpdates(session.ReportID))
	view, err := env.tracking.Track(ctx, caseID, key)
	require.NoError(t, err)
	assert.Empty(t, view.Updates)
}

func TestPublishRequiresSubmittedReport(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	session, err := env.sessions.CreateSession(ctx, "")
	require.NoError(t, err)

	_, err = env.updates.Publish(ctx, session.ReportID, "note", "staff@ngo.org")
	assert.ErrorIs(t, err, beacon.ErrNotFound)
}

func TestUpdatesRenderOldestFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session, caseID, key := submitReport(t, env)

	env.ai.Rewritten = "First public note."
	_, err := env.updates.Publish(ctx, session.ReportID, "raw one", "staff@ngo.org")
	require.NoError(t, err)
	env.ai.Rewritten = "Second public note."
	_, err = env.updates.Publish(ctx, session.ReportID, "raw two", "staff@ngo.org")
	require.NoError(t, err)

	view, err := env.tracking.Track(ctx, caseID, key)
	require.NoError(t, err)
	require.Len(t, view.Updates, 2)
	assert.Equal(t, "First public note.", view.Updates[0].Message)
	assert.Equal(t, "Second public note.", view.Updates[1].Message)
	assert.True(t, !view.Updates[1].Timestamp.Before(view.Updates[0].Timestamp))
}
