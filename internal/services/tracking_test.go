package services

import (
	"context"
	"testing"

	"github.com/beaconai/beacon-server/internal/beacon"
	"github.com/beaconai/beacon-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackSucceedsWithIssuedCredentials(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, caseID, key := submitReport(t, env)

	view, err := env.tracking.Track(ctx, caseID, key)
	require.NoError(t, err)
	assert.Equal(t, caseID, view.CaseID)
	assert.Equal(t, "Received", view.Status)
	assert.False(t, view.ReportedAt.IsZero())
	assert.NotEmpty(t, view.Messages)
}

func TestTrackFailuresAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, caseID, _ := submitReport(t, env)

	cases := []struct {
		name    string
		caseID  string
		key     string
	}{
		{"wrong key", caseID, "AAAAA-BBBBB-CCCCC-DDDDD"},
		{"unknown case id", "BCN999999999999", "AAAAA-BBBBB-CCCCC-DDDDD"},
		{"both wrong", "BCN000000000000", "nonsense"},
		{"empty key", caseID, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			view, err := env.tracking.Track(ctx, tc.caseID, tc.key)
			assert.Nil(t, view)
			assert.ErrorIs(t, err, beacon.ErrInvalidCredentials)
		})
	}
}

func TestTrackDoesNotAuthenticateDrafts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// A draft has no case id or secret key yet; nothing should resolve.
	_, err := env.sessions.CreateSession(ctx, "")
	require.NoError(t, err)
	_, err = env.tracking.Track(ctx, "", "")
	assert.ErrorIs(t, err, beacon.ErrInvalidCredentials)
}

func TestTrackRedactsContent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, caseID, key := submitReport(t, env)

	_, err := env.tracking.SendMessage(ctx, &models.TrackMessageRequest{
		CaseID:    caseID,
		SecretKey: key,
		Content:   "reach me at user@example.com or 555-123-4567",
	})
	require.NoError(t, err)

	view, err := env.tracking.Track(ctx, caseID, key)
	require.NoError(t, err)

	last := view.Messages[len(view.Messages)-1]
	assert.Contains(t, last.Content, "[EMAIL REDACTED]")
	assert.Contains(t, last.Content, "[PHONE REDACTED]")
	assert.NotContains(t, last.Content, "user@example.com")
	assert.NotContains(t, last.Content, "555-123-4567")
}

func TestSendMessageReauthenticatesEveryCall(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, caseID, key := submitReport(t, env)

	_, err := env.tracking.SendMessage(ctx, &models.TrackMessageRequest{
		CaseID: caseID, SecretKey: key, Content: "any news?",
	})
	require.NoError(t, err)

	// A prior success buys nothing for the next call.
	_, err = env.tracking.SendMessage(ctx, &models.TrackMessageRequest{
		CaseID: caseID, SecretKey: "WRONG-KEY", Content: "hello",
	})
	assert.ErrorIs(t, err, beacon.ErrInvalidCredentials)
}

func TestMessagesRenderInInsertionOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, caseID, key := submitReport(t, env)

	for _, content := range []string{"first", "second", "third"} {
		_, err := env.tracking.SendMessage(ctx, &models.TrackMessageRequest{
			CaseID: caseID, SecretKey: key, Content: content,
		})
		require.NoError(t, err)
	}

	view, err := env.tracking.Track(ctx, caseID, key)
	require.NoError(t, err)
	n := len(view.Messages)
	require.GreaterOrEqual(t, n, 3)
	assert.Equal(t, "first", view.Messages[n-3].Content)
	assert.Equal(t, "second", view.Messages[n-2].Content)
	assert.Equal(t, "third", view.Messages[n-1].Content)
	for i := 1; i < n; i++ {
		assert.False(t, view.Messages[i].CreatedAt.Before(view.Messages[i-1].CreatedAt))
	}
}
