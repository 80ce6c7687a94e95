package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/beaconai/beacon-server/internal/beacon"
	"github.com/beaconai/beacon-server/internal/models"
	"github.com/beaconai/beacon-server/internal/store"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// dummySecretHash keeps the unknown-case path doing the same bcrypt work as
// the known-case path, so response timing does not reveal Case ID existence.
var dummySecretHash, _ = bcrypt.GenerateFromPassword([]byte("beacon-timing-pad"), bcrypt.DefaultCost)

// TrackingService is the anonymous read/write gate for submitted cases.
// Every call authenticates the (Case ID, Secret Key) pair from scratch;
// there is no tracking session.
type TrackingService struct {
	store  store.Store
	logger *zap.SugaredLogger
}

// NewTrackingService creates a tracking service.
func NewTrackingService(st store.Store, logger *zap.SugaredLogger) *TrackingService {
	return &TrackingService{store: st, logger: logger}
}

// Authenticate verifies a Secret Key against the stored bcrypt hash. Every
// failure (unknown Case ID, wrong key, unsubmitted report) collapses into
// beacon.ErrInvalidCredentials.
func (s *TrackingService) Authenticate(ctx context.Context, caseID, secretKey string) (*models.Report, error) {
	report, err := s.store.GetReportByCaseID(ctx, caseID)
	if err != nil {
		if errors.Is(err, beacon.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummySecretHash, []byte(secretKey))
			return nil, beacon.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load case: %w", err)
	}
	if !report.Submitted() || report.SecretKeyHash == "" {
		_ = bcrypt.CompareHashAndPassword(dummySecretHash, []byte(secretKey))
		return nil, beacon.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(report.SecretKeyHash), []byte(secretKey)) != nil {
		return nil, beacon.ErrInvalidCredentials
	}
	return report, nil
}

// Track returns the redacted read-only case view: status, public updates,
// and the message thread. Everything passes through the display redaction
// filter before leaving the service boundary.
func (s *TrackingService) Track(ctx context.Context, caseID, secretKey string) (*models.CaseView, error) {
	report, err := s.Authenticate(ctx, caseID, secretKey)
	if err != nil {
		return nil, err
	}

	updates, err := s.store.ListUpdates(ctx, report.ID)
	if err != nil {
		return nil, fmt.Errorf("list updates: %w", err)
	}
	msgs, err := s.store.ListMessages(ctx, report.ID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	evidence, err := s.store.ListEvidence(ctx, report.ID)
	if err != nil {
		return nil, fmt.Errorf("list evidence: %w", err)
	}

	view := &models.CaseView{
		CaseID:          report.CaseID,
		Status:          report.Status.Display(),
		IncidentSummary: beacon.Redact(report.IncidentSummary),
		LastUpdated:     report.LastUpdatedAt,
		Updates:         make([]models.PublicUpdate, 0, len(updates)),
		Messages:        make([]models.Message, 0, len(msgs)),
		Evidence:        make([]models.EvidenceRef, 0, len(evidence)),
	}
	if report.SubmittedAt != nil {
		view.ReportedAt = *report.SubmittedAt
	}

	for _, u := range updates {
		// Only the public paraphrase ever reaches this view.
		view.Updates = append(view.Updates, models.PublicUpdate{
			Message:   beacon.Redact(u.PublicText),
			Timestamp: u.CreatedAt,
		})
	}
	for _, m := range msgs {
		m.Content = beacon.Redact(m.Content)
		view.Messages = append(view.Messages, m)
	}
	for _, ev := range evidence {
		view.Evidence = append(view.Evidence, models.EvidenceRef{
			ID:         ev.ID,
			FileName:   ev.FileName,
			MimeType:   ev.MimeType,
			SizeBytes:  ev.SizeBytes,
			UploadedAt: ev.UploadedAt,
		})
	}
	return view, nil
}

// SendMessage appends a reporter message to a submitted case. Credentials
// are re-verified on every call.
func (s *TrackingService) SendMessage(ctx context.Context, req *models.TrackMessageRequest) (*models.Message, error) {
	report, err := s.Authenticate(ctx, req.CaseID, req.SecretKey)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		ReportID:    report.ID,
		Sender:      models.SenderReporter,
		Content:     req.Content,
		Attachments: req.Attachments,
	}
	if err := s.store.AppendMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}
	if err := s.store.Touch(ctx, report.ID); err != nil {
		s.logger.Warnw("Failed to touch report", "report_id", report.ID, "error", err)
	}

	out := *msg
	out.Content = beacon.Redact(out.Content)
	return &out, nil
}
