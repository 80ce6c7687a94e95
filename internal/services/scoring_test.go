package services

import (
	"context"
	"testing"

	"github.com/beaconai/beacon-server/internal/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoringStoresAssessment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session, _, _ := submitReport(t, env)

	env.ai.Assessment = ai.Assessment{
		Score:       82,
		Explanation: "Specific location, date, and actor; internally consistent.",
		Categories:  []string{"bribery", "public-services"},
	}
	require.NoError(t, env.scoring.Run(ctx, session.ReportID))

	report, err := env.store.GetReport(ctx, session.ReportID)
	require.NoError(t, err)
	require.NotNil(t, report.CredibilityScore)
	assert.Equal(t, 82, *report.CredibilityScore)
	assert.Equal(t, []string{"bribery", "public-services"}, report.Categories)
	assert.NotEmpty(t, report.ScoreExplanation)
}

func TestScoringFailureLeavesReportUntouched(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session, _, _ := submitReport(t, env)

	env.ai.Fail = true
	assert.Error(t, env.scoring.Run(ctx, session.ReportID))

	report, err := env.store.GetReport(ctx, session.ReportID)
	require.NoError(t, err)
	assert.Nil(t, report.CredibilityScore)
}

func TestScoringRejectsDrafts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	session, err := env.sessions.CreateSession(ctx, "")
	require.NoError(t, err)
	assert.Error(t, env.scoring.Run(ctx, session.ReportID))
}
