package services

import (
	"context"
	"testing"

	"github.com/beaconai/beacon-server/internal/beacon"
	"github.com/beaconai/beacon-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func seedAdmin(t *testing.T, env *testEnv, email, password string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, env.store.EnsureAdmin(context.Background(), email, string(hash)))
}

func TestAdminLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedAdmin(t, env, "staff@ngo.org", "correct horse")

	token, err := env.admin.Login(ctx, "staff@ngo.org", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "bearer", token.TokenType)
	assert.NotEmpty(t, token.AccessToken)

	_, err = env.admin.Login(ctx, "staff@ngo.org", "wrong")
	assert.ErrorIs(t, err, beacon.ErrInvalidCredentials)
	_, err = env.admin.Login(ctx, "nobody@ngo.org", "correct horse")
	assert.ErrorIs(t, err, beacon.ErrInvalidCredentials)
}

func TestAdminListAndGetCase(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session, caseID, _ := submitReport(t, env)

	reports, err := env.admin.ListReports(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, caseID, reports[0].CaseID)

	view, err := env.admin.GetCase(ctx, session.ReportID)
	require.NoError(t, err)
	assert.Equal(t, caseID, view.Report.CaseID)
	assert.NotEmpty(t, view.Messages)
}

func TestAdminSeesRawUpdateText(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session, _, _ := submitReport(t, env)

	env.ai.Rewritten = "Public note."
	_, err := env.updates.Publish(ctx, session.ReportID, "raw internal note", "staff@ngo.org")
	require.NoError(t, err)

	view, err := env.admin.GetCase(ctx, session.ReportID)
	require.NoError(t, err)
	require.Len(t, view.Updates, 1)
	assert.Equal(t, "raw internal note", view.Updates[0].RawText)
	assert.Equal(t, "Public note.", view.Updates[0].PublicText)
}

func TestChangeStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session, caseID, key := submitReport(t, env)

	err := env.admin.ChangeStatus(ctx, session.ReportID, &models.StatusChangeRequest{
		Status:   models.StatusInReview,
		Priority: models.PriorityHigh,
	})
	require.NoError(t, err)

	view, err := env.tracking.Track(ctx, caseID, key)
	require.NoError(t, err)
	assert.Equal(t, "In Review", view.Status)

	// Drafts and unknown values are rejected.
	assert.Error(t, env.admin.ChangeStatus(ctx, session.ReportID,
		&models.StatusChangeRequest{Status: models.StatusDraft}))
	assert.Error(t, env.admin.ChangeStatus(ctx, session.ReportID,
		&models.StatusChangeRequest{Status: "bogus"}))
}

func TestNGOMessageVisibleToReporter(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session, caseID, key := submitReport(t, env)

	_, err := env.admin.SendMessage(ctx, session.ReportID, "We have opened an investigation.")
	require.NoError(t, err)

	view, err := env.tracking.Track(ctx, caseID, key)
	require.NoError(t, err)
	last := view.Messages[len(view.Messages)-1]
	assert.Equal(t, models.SenderNGO, last.Sender)
	assert.Equal(t, "We have opened an investigation.", last.Content)
}
