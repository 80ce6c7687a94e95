package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/beaconai/beacon-server/internal/beacon"
	"github.com/beaconai/beacon-server/internal/models"
	"github.com/beaconai/beacon-server/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// caseIDRetries bounds the allocation loop when concurrent submissions race
// for the same Case ID.
const caseIDRetries = 3

// CredentialService mints the public Case ID and one-time Secret Key when a
// guided flow reaches its terminal step.
type CredentialService struct {
	store  store.Store
	logger *zap.SugaredLogger
}

// NewCredentialService creates a credential service.
func NewCredentialService(st store.Store, logger *zap.SugaredLogger) *CredentialService {
	return &CredentialService{store: st, logger: logger}
}

// IssuedCredentials are returned from Finalize exactly once. The SecretKey
// plaintext exists nowhere else for the lifetime of the system.
type IssuedCredentials struct {
	CaseID    string
	SecretKey string
}

// Finalize moves a draft report to received, assigns the next Case ID, and
// mints the Secret Key, persisting only its bcrypt hash. Calling it on an
// already-submitted report fails with beacon.ErrAlreadySubmitted; the key
// from the first call remains the only valid one.
func (s *CredentialService) Finalize(ctx context.Context, reportID uuid.UUID) (*IssuedCredentials, error) {
	secretKey, err := beacon.NewSecretKey()
	if err != nil {
		return nil, fmt.Errorf("mint secret key: %w", err)
	}
	// The secret key works as a password, so it gets a slow salted hash,
	// not the fast hash used for session tokens.
	keyHash, err := bcrypt.GenerateFromPassword([]byte(secretKey), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash secret key: %w", err)
	}

	summary, err := s.buildSummary(ctx, reportID)
	if err != nil {
		return nil, err
	}

	// Concurrent submissions can read the same high-water mark and race
	// for one Case ID; the loser hits the unique index and re-reads.
	var caseID string
	for attempt := 0; attempt < caseIDRetries; attempt++ {
		maxID, err := s.store.MaxCaseID(ctx)
		if err != nil {
			return nil, fmt.Errorf("max case id: %w", err)
		}
		caseID = beacon.NextCaseID(maxID)

		updated, err := s.store.Finalize(ctx, reportID, caseID, string(keyHash), summary)
		if errors.Is(err, beacon.ErrCaseIDTaken) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("finalize: %w", err)
		}
		if !updated {
			return nil, beacon.ErrAlreadySubmitted
		}

		s.logger.Infow("Report submitted", "report_id", reportID, "case_id", caseID)
		return &IssuedCredentials{CaseID: caseID, SecretKey: secretKey}, nil
	}
	return nil, fmt.Errorf("case id allocation exhausted %d attempts", caseIDRetries)
}

// buildSummary condenses the reporter's side of the conversation into the
// incident summary stored on the report.
func (s *CredentialService) buildSummary(ctx context.Context, reportID uuid.UUID) (string, error) {
	msgs, err := s.store.ListMessages(ctx, reportID)
	if err != nil {
		return "", fmt.Errorf("list messages: %w", err)
	}
	var parts []string
	for _, m := range msgs {
		if m.Sender == models.SenderReporter {
			parts = append(parts, strings.TrimSpace(m.Content))
		}
	}
	return strings.Join(parts, "\n"), nil
}
