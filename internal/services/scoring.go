package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/beaconai/beacon-server/internal/ai"
	"github.com/beaconai/beacon-server/internal/models"
	"github.com/beaconai/beacon-server/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ScoringService runs AI credibility analysis over a submitted report's
// transcript. It fires once after submission and can be re-triggered from
// the NGO portal. Failures are explicit: the report keeps its current
// fields and the error is surfaced to the caller.
type ScoringService struct {
	store  store.Store
	ai     ai.Collaborator
	logger *zap.SugaredLogger
}

// NewScoringService creates a scoring service.
func NewScoringService(st store.Store, collaborator ai.Collaborator, logger *zap.SugaredLogger) *ScoringService {
	return &ScoringService{store: st, ai: collaborator, logger: logger}
}

// Run scores one report. Safe to call from a goroutine after finalize; also
// the body of the NGO analyze endpoint.
func (s *ScoringService) Run(ctx context.Context, reportID uuid.UUID) error {
	report, err := s.store.GetReport(ctx, reportID)
	if err != nil {
		return err
	}
	if !report.Submitted() {
		return fmt.Errorf("report %s not submitted", reportID)
	}

	msgs, err := s.store.ListMessages(ctx, reportID)
	if err != nil {
		return fmt.Errorf("list messages: %w", err)
	}
	transcript := buildTranscript(msgs)
	if transcript == "" {
		return fmt.Errorf("report %s has no transcript", reportID)
	}

	assessment, err := s.ai.ScoreReport(ctx, transcript)
	if err != nil {
		s.logger.Errorw("Credibility scoring failed", "report_id", reportID, "error", err)
		return fmt.Errorf("score report: %w", err)
	}

	if err := s.store.SaveAnalysis(ctx, reportID, assessment.Score, assessment.Explanation, assessment.Categories); err != nil {
		return fmt.Errorf("save analysis: %w", err)
	}

	s.logger.Infow("Credibility analysis stored",
		"report_id", reportID,
		"case_id", report.CaseID,
		"score", assessment.Score,
	)
	return nil
}

// buildTranscript renders the conversation for the scoring model, skipping
// system bookkeeping messages.
func buildTranscript(msgs []models.Message) string {
	var b strings.Builder
	for _, m := range msgs {
		if m.Sender == models.SenderSystem {
			continue
		}
		b.WriteString(string(m.Sender))
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}
