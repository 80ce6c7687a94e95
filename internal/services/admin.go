package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/beaconai/beacon-server/internal/beacon"
	"github.com/beaconai/beacon-server/internal/models"
	"github.com/beaconai/beacon-server/internal/store"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const tokenLifetime = 24 * time.Hour

// AdminService backs the NGO administration portal: login, case review, and
// lifecycle changes. All of its read paths are internal and unredacted.
type AdminService struct {
	store     store.Store
	jwtSecret string
	logger    *zap.SugaredLogger
}

// NewAdminService creates an admin service.
func NewAdminService(st store.Store, jwtSecret string, logger *zap.SugaredLogger) *AdminService {
	return &AdminService{store: st, jwtSecret: jwtSecret, logger: logger}
}

// Login verifies NGO credentials and mints a bearer token. The NGO
// credential is entirely separate from reporter credentials.
func (s *AdminService) Login(ctx context.Context, email, password string) (*models.TokenResponse, error) {
	admin, err := s.store.GetAdminByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, beacon.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummySecretHash, []byte(password))
			return nil, beacon.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load admin: %w", err)
	}
	if !admin.IsActive {
		return nil, beacon.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)) != nil {
		return nil, beacon.ErrInvalidCredentials
	}

	claims := jwt.MapClaims{
		"sub": admin.ID.String(),
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(tokenLifetime).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	s.logger.Infow("NGO login", "admin_id", admin.ID)
	return &models.TokenResponse{AccessToken: token, TokenType: "bearer"}, nil
}

// ListReports returns all submitted reports for the dashboard.
func (s *AdminService) ListReports(ctx context.Context) ([]models.Report, error) {
	return s.store.ListReports(ctx)
}

// GetCase returns the full internal view of one report.
func (s *AdminService) GetCase(ctx context.Context, reportID uuid.UUID) (*models.AdminCaseView, error) {
	report, err := s.store.GetReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	msgs, err := s.store.ListMessages(ctx, reportID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	updates, err := s.store.ListUpdates(ctx, reportID)
	if err != nil {
		return nil, fmt.Errorf("list updates: %w", err)
	}
	evidence, err := s.store.ListEvidence(ctx, reportID)
	if err != nil {
		return nil, fmt.Errorf("list evidence: %w", err)
	}
	return &models.AdminCaseView{
		Report:   *report,
		Messages: msgs,
		Updates:  updates,
		Evidence: evidence,
	}, nil
}

// ChangeStatus applies a lifecycle change. The update is a single atomic
// statement; concurrent NGO changes serialize at the row.
func (s *AdminService) ChangeStatus(ctx context.Context, reportID uuid.UUID, req *models.StatusChangeRequest) error {
	if !req.Status.Valid() || req.Status == models.StatusDraft {
		return fmt.Errorf("invalid status %q", req.Status)
	}
	priority := req.Priority
	if priority == "" {
		report, err := s.store.GetReport(ctx, reportID)
		if err != nil {
			return err
		}
		priority = report.Priority
	} else if !priority.Valid() {
		return fmt.Errorf("invalid priority %q", priority)
	}

	if err := s.store.SetStatus(ctx, reportID, req.Status, priority); err != nil {
		return err
	}
	s.logger.Infow("Status changed", "report_id", reportID, "status", req.Status, "priority", priority)
	return nil
}

// SendMessage appends an NGO-authored message to a case conversation.
func (s *AdminService) SendMessage(ctx context.Context, reportID uuid.UUID, content string) (*models.Message, error) {
	report, err := s.store.GetReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	msg := &models.Message{
		ReportID: report.ID,
		Sender:   models.SenderNGO,
		Content:  content,
	}
	if err := s.store.AppendMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}
	if err := s.store.Touch(ctx, report.ID); err != nil {
		s.logger.Warnw("Failed to touch report", "report_id", report.ID, "error", err)
	}
	return msg, nil
}
