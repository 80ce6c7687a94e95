package services

import (
	"context"
	"strings"
	"testing"

	"github.com/beaconai/beacon-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuidedFlowWalksEveryStep(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	session, err := env.sessions.CreateSession(ctx, "")
	require.NoError(t, err)

	var steps []string
	for i := 0; i < 7; i++ {
		resp, err := env.chat.HandleMessage(ctx, &models.ChatMessageRequest{
			ReportID:    session.ReportID,
			AccessToken: session.AccessToken,
			Content:     "answer",
		})
		require.NoError(t, err)
		assert.Equal(t, models.SenderAssistant, resp.Sender)
		assert.Empty(t, resp.CaseID, "credentials must not appear before the terminal turn")
		assert.Empty(t, resp.SecretKey)
		steps = append(steps, resp.NextStep)
	}
	assert.Equal(t, []string{
		"what_happened", "full_story", "where", "when", "who", "evidence", "confirm",
	}, steps)

	final, err := env.chat.HandleMessage(ctx, &models.ChatMessageRequest{
		ReportID:    session.ReportID,
		AccessToken: session.AccessToken,
		Content:     "nothing to add",
	})
	require.NoError(t, err)
	assert.Equal(t, "submitted", final.NextStep)
	assert.NotEmpty(t, final.CaseID)
	assert.NotEmpty(t, final.SecretKey)
	assert.Contains(t, final.Content, final.CaseID)
	assert.Contains(t, final.Content, final.SecretKey)
}

func TestSecretKeyAbsentFromTranscript(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session, _, key := submitReport(t, env)

	msgs, err := env.store.ListMessages(ctx, session.ReportID)
	require.NoError(t, err)
	require.NotEmpty(t, msgs)
	for _, m := range msgs {
		assert.False(t, strings.Contains(m.Content, key),
			"secret key leaked into stored transcript")
	}
}

func TestMessageAfterSubmissionRepeatsCaseIDOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session, caseID, _ := submitReport(t, env)

	resp, err := env.chat.HandleMessage(ctx, &models.ChatMessageRequest{
		ReportID:    session.ReportID,
		AccessToken: session.AccessToken,
		Content:     "did it go through?",
	})
	require.NoError(t, err)
	assert.Equal(t, "submitted", resp.NextStep)
	assert.Equal(t, caseID, resp.CaseID)
	// The secret key is gone for good; it is never repeated.
	assert.Empty(t, resp.SecretKey)
}

func TestChatFallsBackWhenAIDown(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	session, err := env.sessions.CreateSession(ctx, "")
	require.NoError(t, err)

	env.ai.Fail = true
	resp, err := env.chat.HandleMessage(ctx, &models.ChatMessageRequest{
		ReportID:    session.ReportID,
		AccessToken: session.AccessToken,
		Content:     "someone demanded a bribe",
	})
	require.NoError(t, err)
	// Canned prompt for the next step.
	assert.Contains(t, resp.Content, "What kind of incident")
}

func TestSessionStatusTracksProgress(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	session, err := env.sessions.CreateSession(ctx, "")
	require.NoError(t, err)

	status, err := env.chat.SessionStatus(ctx, session.ReportID, session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "greeting", status.CurrentStep)
	assert.False(t, status.Submitted)

	_, err = env.chat.HandleMessage(ctx, &models.ChatMessageRequest{
		ReportID:    session.ReportID,
		AccessToken: session.AccessToken,
		Content:     "hello",
	})
	require.NoError(t, err)

	status, err = env.chat.SessionStatus(ctx, session.ReportID, session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "what_happened", status.CurrentStep)
}
