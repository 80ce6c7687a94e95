package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/beaconai/beacon-server/internal/beacon"
	"github.com/beaconai/beacon-server/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres implements Store on a pgx connection pool.
type Postgres struct {
	db *pgxpool.Pool
}

// NewPostgres creates a Postgres store.
func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

const reportColumns = `id, COALESCE(case_id, ''), access_token_hash, secret_key_hash,
	status, priority, current_step, credibility_score, score_explanation,
	categories, location_meta, incident_summary, created_at, submitted_at, last_updated_at`

func scanReport(row pgx.Row) (*models.Report, error) {
	var r models.Report
	err := row.Scan(&r.ID, &r.CaseID, &r.AccessTokenHash, &r.SecretKeyHash,
		&r.Status, &r.Priority, &r.CurrentStep, &r.CredibilityScore, &r.ScoreExplanation,
		&r.Categories, &r.LocationMeta, &r.IncidentSummary, &r.CreatedAt, &r.SubmittedAt, &r.LastUpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, beacon.ErrNotFound
		}
		return nil, fmt.Errorf("scan report: %w", err)
	}
	return &r, nil
}

// CreateDraft inserts a new draft report.
func (p *Postgres) CreateDraft(ctx context.Context, r *models.Report) error {
	query := `
		INSERT INTO reports (id, access_token_hash, status, priority, current_step)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, last_updated_at
	`
	err := p.db.QueryRow(ctx, query, r.ID, r.AccessTokenHash, r.Status, r.Priority, r.CurrentStep).
		Scan(&r.CreatedAt, &r.LastUpdatedAt)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// GetReport fetches a report by internal id.
func (p *Postgres) GetReport(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE id = $1`
	return scanReport(p.db.QueryRow(ctx, query, id))
}

// GetReportByCaseID fetches a report by public Case ID.
func (p *Postgres) GetReportByCaseID(ctx context.Context, caseID string) (*models.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE case_id = $1`
	return scanReport(p.db.QueryRow(ctx, query, caseID))
}

// MaxCaseID returns the largest assigned Case ID. Case IDs are fixed-width
// digits after the prefix so lexical max equals numeric max.
func (p *Postgres) MaxCaseID(ctx context.Context) (string, error) {
	var max *string
	err := p.db.QueryRow(ctx,
		`SELECT MAX(case_id) FROM reports WHERE case_id LIKE $1`, beacon.CaseIDPrefix+"%").Scan(&max)
	if err != nil {
		return "", fmt.Errorf("max case id: %w", err)
	}
	if max == nil {
		return "", nil
	}
	return *max, nil
}

// Finalize performs the draft -> received transition as a single conditional
// update so two concurrent finalize calls cannot both mint credentials.
func (p *Postgres) Finalize(ctx context.Context, id uuid.UUID, caseID, secretKeyHash, summary string) (bool, error) {
	query := `
		UPDATE reports
		SET case_id = $2, secret_key_hash = $3, incident_summary = $4,
			status = $5, current_step = $6, submitted_at = now(), last_updated_at = now()
		WHERE id = $1 AND status = $7
	`
	tag, err := p.db.Exec(ctx, query, id, caseID, secretKeyHash, summary,
		models.StatusReceived, beacon.StepSubmitted.String(), models.StatusDraft)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation on case_id
			return false, beacon.ErrCaseIDTaken
		}
		return false, fmt.Errorf("finalize report: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// SetStatus atomically updates the lifecycle fields of a report.
func (p *Postgres) SetStatus(ctx context.Context, id uuid.UUID, status models.Status, priority models.Priority) error {
	query := `
		UPDATE reports SET status = $2, priority = $3, last_updated_at = now()
		WHERE id = $1
	`
	tag, err := p.db.Exec(ctx, query, id, status, priority)
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return beacon.ErrNotFound
	}
	return nil
}

// SetStep persists the guided-flow position.
func (p *Postgres) SetStep(ctx context.Context, id uuid.UUID, step string) error {
	_, err := p.db.Exec(ctx,
		`UPDATE reports SET current_step = $2, last_updated_at = now() WHERE id = $1`, id, step)
	if err != nil {
		return fmt.Errorf("set step: %w", err)
	}
	return nil
}

// Touch bumps last_updated_at.
func (p *Postgres) Touch(ctx context.Context, id uuid.UUID) error {
	_, err := p.db.Exec(ctx, `UPDATE reports SET last_updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("touch report: %w", err)
	}
	return nil
}

// SaveAnalysis stores the credibility scoring result.
func (p *Postgres) SaveAnalysis(ctx context.Context, id uuid.UUID, score int, explanation string, categories []string) error {
	query := `
		UPDATE reports
		SET credibility_score = $2, score_explanation = $3, categories = $4, last_updated_at = now()
		WHERE id = $1
	`
	tag, err := p.db.Exec(ctx, query, id, score, explanation, categories)
	if err != nil {
		return fmt.Errorf("save analysis: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return beacon.ErrNotFound
	}
	return nil
}

// ListReports returns all submitted reports, newest first.
func (p *Postgres) ListReports(ctx context.Context) ([]models.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE status <> $1 ORDER BY submitted_at DESC`
	rows, err := p.db.Query(ctx, query, models.StatusDraft)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var reports []models.Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *r)
	}
	return reports, rows.Err()
}

// AppendMessage inserts a conversation entry with a server-assigned timestamp.
func (p *Postgres) AppendMessage(ctx context.Context, m *models.Message) error {
	attachments, err := json.Marshal(m.Attachments)
	if err != nil {
		return fmt.Errorf("marshal attachments: %w", err)
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	query := `
		INSERT INTO messages (id, report_id, sender, content, attachments)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	if err := p.db.QueryRow(ctx, query, m.ID, m.ReportID, m.Sender, m.Content, attachments).
		Scan(&m.CreatedAt); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// ListMessages returns the conversation in insertion order.
func (p *Postgres) ListMessages(ctx context.Context, reportID uuid.UUID) ([]models.Message, error) {
	query := `
		SELECT id, report_id, sender, content, attachments, created_at
		FROM messages WHERE report_id = $1 ORDER BY created_at ASC, id ASC
	`
	rows, err := p.db.Query(ctx, query, reportID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var msgs []models.Message
	for rows.Next() {
		var m models.Message
		var attachments []byte
		if err := rows.Scan(&m.ID, &m.ReportID, &m.Sender, &m.Content, &attachments, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if err := json.Unmarshal(attachments, &m.Attachments); err != nil {
			return nil, fmt.Errorf("unmarshal attachments: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// InsertEvidence persists evidence metadata subject to the cumulative size
// cap. The report row is locked for the duration of the check so concurrent
// uploads cannot race past the quota together.
func (p *Postgres) InsertEvidence(ctx context.Context, ev *models.Evidence, maxTotalBytes int64) error {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists uuid.UUID
	if err := tx.QueryRow(ctx, `SELECT id FROM reports WHERE id = $1 FOR UPDATE`, ev.ReportID).
		Scan(&exists); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return beacon.ErrNotFound
		}
		return fmt.Errorf("lock report: %w", err)
	}

	var total int64
	if err := tx.QueryRow(ctx,
		`SELECT COALESCE(SUM(size_bytes), 0) FROM evidence WHERE report_id = $1`, ev.ReportID).
		Scan(&total); err != nil {
		return fmt.Errorf("sum evidence: %w", err)
	}
	if total+ev.SizeBytes > maxTotalBytes {
		return beacon.ErrQuotaExceeded
	}

	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	query := `
		INSERT INTO evidence (id, report_id, file_name, mime_type, size_bytes, file_hash, storage_key, pii_cleansed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING uploaded_at
	`
	if err := tx.QueryRow(ctx, query, ev.ID, ev.ReportID, ev.FileName, ev.MimeType,
		ev.SizeBytes, ev.FileHash, ev.StorageKey, ev.PIICleansed).Scan(&ev.UploadedAt); err != nil {
		return fmt.Errorf("insert evidence: %w", err)
	}
	return tx.Commit(ctx)
}

// ListEvidence returns a report's evidence files in upload order.
func (p *Postgres) ListEvidence(ctx context.Context, reportID uuid.UUID) ([]models.Evidence, error) {
	query := `
		SELECT id, report_id, file_name, mime_type, size_bytes, file_hash, storage_key, pii_cleansed, uploaded_at
		FROM evidence WHERE report_id = $1 ORDER BY uploaded_at ASC
	`
	rows, err := p.db.Query(ctx, query, reportID)
	if err != nil {
		return nil, fmt.Errorf("list evidence: %w", err)
	}
	defer rows.Close()

	var files []models.Evidence
	for rows.Next() {
		var ev models.Evidence
		if err := rows.Scan(&ev.ID, &ev.ReportID, &ev.FileName, &ev.MimeType, &ev.SizeBytes,
			&ev.FileHash, &ev.StorageKey, &ev.PIICleansed, &ev.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan evidence: %w", err)
		}
		files = append(files, ev)
	}
	return files, rows.Err()
}

// GetEvidence fetches one evidence record.
func (p *Postgres) GetEvidence(ctx context.Context, id uuid.UUID) (*models.Evidence, error) {
	query := `
		SELECT id, report_id, file_name, mime_type, size_bytes, file_hash, storage_key, pii_cleansed, uploaded_at
		FROM evidence WHERE id = $1
	`
	var ev models.Evidence
	err := p.db.QueryRow(ctx, query, id).Scan(&ev.ID, &ev.ReportID, &ev.FileName, &ev.MimeType,
		&ev.SizeBytes, &ev.FileHash, &ev.StorageKey, &ev.PIICleansed, &ev.UploadedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, beacon.ErrNotFound
		}
		return nil, fmt.Errorf("get evidence: %w", err)
	}
	return &ev, nil
}

// AppendUpdate inserts a case update with a server-assigned timestamp.
func (p *Postgres) AppendUpdate(ctx context.Context, u *models.CaseUpdate) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	query := `
		INSERT INTO case_updates (id, report_id, raw_text, public_text, updated_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	if err := p.db.QueryRow(ctx, query, u.ID, u.ReportID, u.RawText, u.PublicText, u.UpdatedBy).
		Scan(&u.CreatedAt); err != nil {
		return fmt.Errorf("insert update: %w", err)
	}
	return nil
}

// ListUpdates returns a report's updates oldest first.
func (p *Postgres) ListUpdates(ctx context.Context, reportID uuid.UUID) ([]models.CaseUpdate, error) {
	query := `
		SELECT id, report_id, raw_text, public_text, updated_by, created_at
		FROM case_updates WHERE report_id = $1 ORDER BY created_at ASC, id ASC
	`
	rows, err := p.db.Query(ctx, query, reportID)
	if err != nil {
		return nil, fmt.Errorf("list updates: %w", err)
	}
	defer rows.Close()

	var updates []models.CaseUpdate
	for rows.Next() {
		var u models.CaseUpdate
		if err := rows.Scan(&u.ID, &u.ReportID, &u.RawText, &u.PublicText, &u.UpdatedBy, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan update: %w", err)
		}
		updates = append(updates, u)
	}
	return updates, rows.Err()
}

// GetAdminByEmail fetches an NGO account.
func (p *Postgres) GetAdminByEmail(ctx context.Context, email string) (*models.Admin, error) {
	query := `SELECT id, email, password_hash, is_active, created_at FROM admins WHERE email = $1`
	var a models.Admin
	err := p.db.QueryRow(ctx, query, email).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.IsActive, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, beacon.ErrNotFound
		}
		return nil, fmt.Errorf("get admin: %w", err)
	}
	return &a, nil
}

// EnsureAdmin seeds an NGO account at startup, updating the password hash if
// the account already exists.
func (p *Postgres) EnsureAdmin(ctx context.Context, email, passwordHash string) error {
	query := `
		INSERT INTO admins (id, email, password_hash)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET password_hash = EXCLUDED.password_hash
	`
	if _, err := p.db.Exec(ctx, query, uuid.New(), email, passwordHash); err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}
	return nil
}
