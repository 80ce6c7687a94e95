package services

import (
	"context"
	"fmt"

	"github.com/beaconai/beacon-server/internal/ai"
	"github.com/beaconai/beacon-server/internal/beacon"
	"github.com/beaconai/beacon-server/internal/models"
	"github.com/beaconai/beacon-server/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UpdatePublisher turns internal NGO notes into public case updates. The
// raw note is persisted alongside the AI paraphrase, but only the paraphrase
// is ever visible outside NGO-authenticated endpoints.
type UpdatePublisher struct {
	store  store.Store
	ai     ai.Collaborator
	logger *zap.SugaredLogger
}

// NewUpdatePublisher creates an update publisher.
func NewUpdatePublisher(st store.Store, collaborator ai.Collaborator, logger *zap.SugaredLogger) *UpdatePublisher {
	return &UpdatePublisher{store: st, ai: collaborator, logger: logger}
}

// Publish rewrites rawUpdate for public display and appends it to the case's
// update log. If the rewrite collaborator fails, nothing is persisted and
// the call fails with beacon.ErrRewriteUnavailable: raw text must never
// reach the public view through any failure path.
func (p *UpdatePublisher) Publish(ctx context.Context, reportID uuid.UUID, rawUpdate, updatedBy string) (*models.CaseUpdate, error) {
	report, err := p.store.GetReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if !report.Submitted() {
		return nil, beacon.ErrNotFound
	}

	publicText, err := p.ai.RewriteUpdate(ctx, rawUpdate)
	if err != nil || publicText == "" {
		p.logger.Errorw("Update rewrite failed, publish blocked",
			"report_id", reportID, "error", err)
		return nil, beacon.ErrRewriteUnavailable
	}

	update := &models.CaseUpdate{
		ReportID:   report.ID,
		RawText:    rawUpdate,
		PublicText: publicText,
		UpdatedBy:  updatedBy,
	}
	if err := p.store.AppendUpdate(ctx, update); err != nil {
		return nil, fmt.Errorf("append update: %w", err)
	}
	if err := p.store.Touch(ctx, report.ID); err != nil {
		p.logger.Warnw("Failed to touch report", "report_id", report.ID, "error", err)
	}

	p.logger.Infow("Case update published", "report_id", report.ID, "updated_by", updatedBy)
	return update, nil
}
