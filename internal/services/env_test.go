package services

import (
	"context"
	"testing"

	"github.com/beaconai/beacon-server/internal/models"
	"github.com/beaconai/beacon-server/internal/storage"
	"github.com/beaconai/beacon-server/internal/testhelpers"
	"github.com/stretchr/testify/require"
)

const testQuotaBytes = 5 * 1024 * 1024

// testEnv wires the full service graph over in-memory fakes.
type testEnv struct {
	store       *testhelpers.MemStore
	ai          *testhelpers.StubAI
	sessions    *SessionService
	credentials *CredentialService
	chat        *ChatService
	tracking    *TrackingService
	evidence    *EvidenceService
	updates     *UpdatePublisher
	scoring     *ScoringService
	admin       *AdminService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := testhelpers.NewLogger()
	st := testhelpers.NewMemStore()
	stub := &testhelpers.StubAI{}

	blobs, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)

	sessions := NewSessionService(st, logger)
	credentials := NewCredentialService(st, logger)
	scoring := NewScoringService(st, stub, logger)
	tracking := NewTrackingService(st, logger)

	return &testEnv{
		store:       st,
		ai:          stub,
		sessions:    sessions,
		credentials: credentials,
		chat:        NewChatService(st, sessions, credentials, nil, stub, logger),
		tracking:    tracking,
		evidence:    NewEvidenceService(st, blobs, sessions, tracking, testQuotaBytes, logger),
		updates:     NewUpdatePublisher(st, stub, logger),
		scoring:     scoring,
		admin:       NewAdminService(st, "test-secret", logger),
	}
}

// submitReport drives a fresh session through the whole guided flow and
// returns the issued credentials.
func submitReport(t *testing.T, env *testEnv) (session *models.CreateSessionResponse, caseID, secretKey string) {
	t.Helper()
	ctx := context.Background()

	session, err := env.sessions.CreateSession(ctx, "seed")
	require.NoError(t, err)

	answers := []string{
		"I witnessed a bribe",
		"A clerk demanded money for a permit",
		"I applied for a permit and the clerk refused to process it without a payment",
		"The municipal office in Riverside",
		"Last Tuesday around noon",
		"The permits counter clerk",
		"I have a receipt photo",
		"Nothing to add",
	}
	var resp *models.ChatMessageResponse
	for _, answer := range answers {
		resp, err = env.chat.HandleMessage(ctx, &models.ChatMessageRequest{
			ReportID:    session.ReportID,
			AccessToken: session.AccessToken,
			Content:     answer,
		})
		require.NoError(t, err)
	}
	require.Equal(t, "submitted", resp.NextStep)
	require.NotEmpty(t, resp.CaseID)
	require.NotEmpty(t, resp.SecretKey)
	return session, resp.CaseID, resp.SecretKey
}
