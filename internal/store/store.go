// Package store persists reports, conversations, evidence metadata, case
// updates, and NGO accounts in PostgreSQL via pgx.
package store

import (
	"context"

	"github.com/beaconai/beacon-server/internal/models"
	"github.com/google/uuid"
)

// Store is the persistence surface consumed by the services. The Postgres
// implementation is the only production backend; tests substitute an
// in-memory fake.
type Store interface {
	// Reports
	CreateDraft(ctx context.Context, r *models.Report) error
	GetReport(ctx context.Context, id uuid.UUID) (*models.Report, error)
	GetReportByCaseID(ctx context.Context, caseID string) (*models.Report, error)
	// MaxCaseID returns the largest assigned Case ID, or "" when none exist.
	MaxCaseID(ctx context.Context) (string, error)
	// Finalize atomically moves a draft to received and stores its issued
	// credentials. It reports false when the report was not in draft state,
	// without modifying anything.
	Finalize(ctx context.Context, id uuid.UUID, caseID, secretKeyHash, summary string) (bool, error)
	SetStatus(ctx context.Context, id uuid.UUID, status models.Status, priority models.Priority) error
	SetStep(ctx context.Context, id uuid.UUID, step string) error
	// Touch bumps last_updated_at.
	Touch(ctx context.Context, id uuid.UUID) error
	SaveAnalysis(ctx context.Context, id uuid.UUID, score int, explanation string, categories []string) error
	ListReports(ctx context.Context) ([]models.Report, error)

	// Conversation log (append-only, server-assigned timestamps)
	AppendMessage(ctx context.Context, m *models.Message) error
	ListMessages(ctx context.Context, reportID uuid.UUID) ([]models.Message, error)

	// Evidence
	// InsertEvidence persists metadata only if the report's cumulative
	// evidence size stays within maxTotalBytes; check and insert run in one
	// transaction so a rejected file never partially persists.
	InsertEvidence(ctx context.Context, ev *models.Evidence, maxTotalBytes int64) error
	ListEvidence(ctx context.Context, reportID uuid.UUID) ([]models.Evidence, error)
	GetEvidence(ctx context.Context, id uuid.UUID) (*models.Evidence, error)

	// Public update log (append-only)
	AppendUpdate(ctx context.Context, u *models.CaseUpdate) error
	ListUpdates(ctx context.Context, reportID uuid.UUID) ([]models.CaseUpdate, error)

	// NGO accounts
	GetAdminByEmail(ctx context.Context, email string) (*models.Admin, error)
	EnsureAdmin(ctx context.Context, email, passwordHash string) error
}
