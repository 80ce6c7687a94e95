package services

import (
	"context"
	"fmt"
	"time"

	"github.com/beaconai/beacon-server/internal/ai"
	"github.com/beaconai/beacon-server/internal/beacon"
	"github.com/beaconai/beacon-server/internal/models"
	"github.com/beaconai/beacon-server/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ChatService runs the guided reporting flow. The flow is a linear wizard:
// step advancement is decided here from the stored step, never parsed out of
// free text. The AI collaborator only phrases the next question; when it is
// unavailable the step's canned prompt is used verbatim.
type ChatService struct {
	store       store.Store
	sessions    *SessionService
	credentials *CredentialService
	scoring     *ScoringService
	ai          ai.Collaborator
	logger      *zap.SugaredLogger
}

// NewChatService creates a chat service.
func NewChatService(st store.Store, sessions *SessionService, credentials *CredentialService,
	scoring *ScoringService, collaborator ai.Collaborator, logger *zap.SugaredLogger) *ChatService {
	return &ChatService{
		store:       st,
		sessions:    sessions,
		credentials: credentials,
		scoring:     scoring,
		ai:          collaborator,
		logger:      logger,
	}
}

// HandleMessage processes one reporter turn: authenticate, append the
// message, advance the wizard, and reply. The turn that answers the confirm
// step finalizes the report and is the only response ever carrying the
// plaintext Secret Key.
func (s *ChatService) HandleMessage(ctx context.Context, req *models.ChatMessageRequest) (*models.ChatMessageResponse, error) {
	report, err := s.sessions.ValidateAccess(ctx, req.ReportID, req.AccessToken)
	if err != nil {
		return nil, err
	}

	if report.Submitted() {
		// The reporter missed the submission turn; repeat the Case ID
		// (never the Secret Key, which is gone for good).
		return &models.ChatMessageResponse{
			ReportID: report.ID,
			Sender:   models.SenderSystem,
			Content: fmt.Sprintf("Your report has already been submitted. Your Case ID is %s. "+
				"Please use it together with your Secret Key to track your case.", report.CaseID),
			Timestamp: time.Now().UTC(),
			NextStep:  beacon.StepSubmitted.String(),
			CaseID:    report.CaseID,
		}, nil
	}

	userMsg := &models.Message{
		ReportID: report.ID,
		Sender:   models.SenderReporter,
		Content:  req.Content,
	}
	if err := s.store.AppendMessage(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("append reporter message: %w", err)
	}

	next := beacon.ParseStep(report.CurrentStep).Next()
	if next.Terminal() {
		return s.finalizeTurn(ctx, report)
	}

	if err := s.store.SetStep(ctx, report.ID, next.String()); err != nil {
		return nil, fmt.Errorf("advance step: %w", err)
	}

	reply := s.phrase(ctx, report.ID, next)
	assistantMsg := &models.Message{
		ReportID: report.ID,
		Sender:   models.SenderAssistant,
		Content:  reply,
	}
	if err := s.store.AppendMessage(ctx, assistantMsg); err != nil {
		return nil, fmt.Errorf("append assistant message: %w", err)
	}

	return &models.ChatMessageResponse{
		ReportID:  report.ID,
		Sender:    models.SenderAssistant,
		Content:   reply,
		Timestamp: assistantMsg.CreatedAt,
		NextStep:  next.String(),
	}, nil
}

// finalizeTurn issues credentials and closes the flow.
func (s *ChatService) finalizeTurn(ctx context.Context, report *models.Report) (*models.ChatMessageResponse, error) {
	creds, err := s.credentials.Finalize(ctx, report.ID)
	if err != nil {
		return nil, err
	}

	content := fmt.Sprintf("Thank you for your courage in reporting this. Your Case ID is %s "+
		"and your one-time Secret Key is %s. Save both now: the Secret Key will never be shown "+
		"again, and you need it to track your case. We will review your report and take "+
		"appropriate action.", creds.CaseID, creds.SecretKey)

	// The transcript copy of this message must not contain the Secret Key;
	// only the direct response carries it.
	stored := fmt.Sprintf("Thank you for your courage in reporting this. Your Case ID is %s. "+
		"Your one-time Secret Key was shown to you at submission.", creds.CaseID)
	sysMsg := &models.Message{
		ReportID: report.ID,
		Sender:   models.SenderSystem,
		Content:  stored,
	}
	if err := s.store.AppendMessage(ctx, sysMsg); err != nil {
		s.logger.Errorw("Failed to record submission message", "report_id", report.ID, "error", err)
	}

	if s.scoring != nil {
		go s.scoring.Run(context.WithoutCancel(ctx), report.ID)
	}

	return &models.ChatMessageResponse{
		ReportID:  report.ID,
		Sender:    models.SenderSystem,
		Content:   content,
		Timestamp: time.Now().UTC(),
		NextStep:  beacon.StepSubmitted.String(),
		CaseID:    creds.CaseID,
		SecretKey: creds.SecretKey,
	}, nil
}

// phrase asks the collaborator to word the next question, falling back to
// the deterministic prompt.
func (s *ChatService) phrase(ctx context.Context, reportID uuid.UUID, step beacon.Step) string {
	history, err := s.store.ListMessages(ctx, reportID)
	if err != nil {
		s.logger.Warnw("Failed to load history for phrasing", "report_id", reportID, "error", err)
		return step.Prompt()
	}
	reply, err := s.ai.NextPrompt(ctx, step, history)
	if err != nil || reply == "" {
		s.logger.Warnw("AI prompt phrasing unavailable, using canned prompt",
			"report_id", reportID, "step", step.String(), "error", err)
		return step.Prompt()
	}
	return reply
}

// SessionStatus returns the flow position for an authenticated session.
func (s *ChatService) SessionStatus(ctx context.Context, reportID uuid.UUID, accessToken string) (*models.SessionStatus, error) {
	report, err := s.sessions.ValidateAccess(ctx, reportID, accessToken)
	if err != nil {
		return nil, err
	}
	return &models.SessionStatus{
		ReportID:    report.ID,
		CurrentStep: report.CurrentStep,
		Submitted:   report.Submitted(),
		CaseID:      report.CaseID,
		CreatedAt:   report.CreatedAt,
	}, nil
}
