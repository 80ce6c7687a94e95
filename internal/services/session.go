// Package services contains business logic layers.
// Services are called by handlers and interact with the store, blob storage,
// and the AI collaborator.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/beaconai/beacon-server/internal/beacon"
	"github.com/beaconai/beacon-server/internal/models"
	"github.com/beaconai/beacon-server/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionService manages anonymous reporting sessions: it creates draft
// reports with an opaque access token and validates that token on every
// pre-submission write.
type SessionService struct {
	store  store.Store
	logger *zap.SugaredLogger
}

// NewSessionService creates a session service.
func NewSessionService(st store.Store, logger *zap.SugaredLogger) *SessionService {
	return &SessionService{store: st, logger: logger}
}

// CreateSession allocates a draft report and mints its access token. The
// clientSeed is folded into token generation but server randomness always
// dominates. The plaintext token is returned once; only its hash is stored.
func (s *SessionService) CreateSession(ctx context.Context, clientSeed string) (*models.CreateSessionResponse, error) {
	token, err := beacon.NewAccessToken(clientSeed)
	if err != nil {
		return nil, fmt.Errorf("mint access token: %w", err)
	}

	report := &models.Report{
		ID:              uuid.New(),
		AccessTokenHash: beacon.HashToken(token),
		Status:          models.StatusDraft,
		Priority:        models.PriorityMedium,
		CurrentStep:     beacon.StepGreeting.String(),
	}
	if err := s.store.CreateDraft(ctx, report); err != nil {
		return nil, fmt.Errorf("create draft: %w", err)
	}

	s.logger.Infow("Session created", "report_id", report.ID)

	return &models.CreateSessionResponse{
		ReportID:    report.ID,
		AccessToken: token,
		Message:     "Secure session established. Use this token for all future messages.",
	}, nil
}

// ValidateAccess authenticates a pre-submission write. Every failure path
// returns beacon.ErrInvalidCredentials so callers cannot learn whether the
// report exists; the hash comparison is constant-time. Successful validation
// touches last_updated_at.
func (s *SessionService) ValidateAccess(ctx context.Context, reportID uuid.UUID, accessToken string) (*models.Report, error) {
	report, err := s.store.GetReport(ctx, reportID)
	if err != nil {
		if errors.Is(err, beacon.ErrNotFound) {
			// Equalize work with the found path before failing.
			beacon.TokenHashEqual(beacon.HashToken(accessToken), beacon.HashToken(accessToken))
			return nil, beacon.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load report: %w", err)
	}

	if !beacon.TokenHashEqual(report.AccessTokenHash, beacon.HashToken(accessToken)) {
		return nil, beacon.ErrInvalidCredentials
	}

	if err := s.store.Touch(ctx, report.ID); err != nil {
		s.logger.Warnw("Failed to touch report", "report_id", report.ID, "error", err)
	}
	return report, nil
}
