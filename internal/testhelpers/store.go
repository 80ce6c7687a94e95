// Package testhelpers provides in-memory doubles for tests: a Store fake, a
// scriptable AI collaborator, and a blob store. Nothing here is imported by
// production code.
package testhelpers

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/beaconai/beacon-server/internal/beacon"
	"github.com/beaconai/beacon-server/internal/models"
	"github.com/google/uuid"
)

// MemStore is an in-memory store.Store with the same invariants as the
// Postgres implementation: conditional finalize, transactional quota check,
// server-assigned non-decreasing timestamps.
type MemStore struct {
	mu       sync.Mutex
	clock    time.Time
	reports  map[uuid.UUID]*models.Report
	messages map[uuid.UUID][]models.Message
	evidence map[uuid.UUID][]models.Evidence
	updates  map[uuid.UUID][]models.CaseUpdate
	admins   map[string]*models.Admin
}

// NewMemStore creates an empty store.
func NewMemStore() *MemStore {
	return &MemStore{
		clock:    time.Now().UTC(),
		reports:  make(map[uuid.UUID]*models.Report),
		messages: make(map[uuid.UUID][]models.Message),
		evidence: make(map[uuid.UUID][]models.Evidence),
		updates:  make(map[uuid.UUID][]models.CaseUpdate),
		admins:   make(map[string]*models.Admin),
	}
}

// now returns a strictly increasing timestamp so insertion order and
// timestamp order agree, like server-assigned now() in Postgres.
func (m *MemStore) now() time.Time {
	m.clock = m.clock.Add(time.Microsecond)
	return m.clock
}

func (m *MemStore) CreateDraft(_ context.Context, r *models.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	r.CreatedAt = now
	r.LastUpdatedAt = now
	cp := *r
	m.reports[r.ID] = &cp
	return nil
}

func (m *MemStore) GetReport(_ context.Context, id uuid.UUID) (*models.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	if !ok {
		return nil, beacon.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *MemStore) GetReportByCaseID(_ context.Context, caseID string) (*models.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reports {
		if r.CaseID == caseID && caseID != "" {
			cp := *r
			return &cp, nil
		}
	}
	return nil, beacon.ErrNotFound
}

func (m *MemStore) MaxCaseID(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	max := ""
	for _, r := range m.reports {
		if strings.HasPrefix(r.CaseID, beacon.CaseIDPrefix) && r.CaseID > max {
			max = r.CaseID
		}
	}
	return max, nil
}

func (m *MemStore) Finalize(_ context.Context, id uuid.UUID, caseID, secretKeyHash, summary string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	if !ok || r.Status != models.StatusDraft {
		return false, nil
	}
	for _, other := range m.reports {
		if other.ID != id && other.CaseID == caseID {
			return false, beacon.ErrCaseIDTaken
		}
	}
	now := m.now()
	r.CaseID = caseID
	r.SecretKeyHash = secretKeyHash
	r.IncidentSummary = summary
	r.Status = models.StatusReceived
	r.CurrentStep = beacon.StepSubmitted.String()
	r.SubmittedAt = &now
	r.LastUpdatedAt = now
	return true, nil
}

func (m *MemStore) SetStatus(_ context.Context, id uuid.UUID, status models.Status, priority models.Priority) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	if !ok {
		return beacon.ErrNotFound
	}
	r.Status = status
	r.Priority = priority
	r.LastUpdatedAt = m.now()
	return nil
}

func (m *MemStore) SetStep(_ context.Context, id uuid.UUID, step string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	if !ok {
		return beacon.ErrNotFound
	}
	r.CurrentStep = step
	r.LastUpdatedAt = m.now()
	return nil
}

func (m *MemStore) Touch(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	if !ok {
		return beacon.ErrNotFound
	}
	r.LastUpdatedAt = m.now()
	return nil
}

func (m *MemStore) SaveAnalysis(_ context.Context, id uuid.UUID, score int, explanation string, categories []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	if !ok {
		return beacon.ErrNotFound
	}
	r.CredibilityScore = &score
	r.ScoreExplanation = explanation
	r.Categories = categories
	r.LastUpdatedAt = m.now()
	return nil
}

func (m *MemStore) ListReports(_ context.Context) ([]models.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Report
	for _, r := range m.reports {
		if r.Status != models.StatusDraft {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SubmittedAt.After(*out[j].SubmittedAt)
	})
	return out, nil
}

func (m *MemStore) AppendMessage(_ context.Context, msg *models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reports[msg.ReportID]; !ok {
		return beacon.ErrNotFound
	}
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	msg.CreatedAt = m.now()
	m.messages[msg.ReportID] = append(m.messages[msg.ReportID], *msg)
	return nil
}

func (m *MemStore) ListMessages(_ context.Context, reportID uuid.UUID) ([]models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Message(nil), m.messages[reportID]...), nil
}

func (m *MemStore) InsertEvidence(_ context.Context, ev *models.Evidence, maxTotalBytes int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reports[ev.ReportID]; !ok {
		return beacon.ErrNotFound
	}
	var total int64
	for _, e := range m.evidence[ev.ReportID] {
		total += e.SizeBytes
	}
	if total+ev.SizeBytes > maxTotalBytes {
		return beacon.ErrQuotaExceeded
	}
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	ev.UploadedAt = m.now()
	m.evidence[ev.ReportID] = append(m.evidence[ev.ReportID], *ev)
	return nil
}

func (m *MemStore) ListEvidence(_ context.Context, reportID uuid.UUID) ([]models.Evidence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Evidence(nil), m.evidence[reportID]...), nil
}

func (m *MemStore) GetEvidence(_ context.Context, id uuid.UUID) (*models.Evidence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, files := range m.evidence {
		for _, ev := range files {
			if ev.ID == id {
				cp := ev
				return &cp, nil
			}
		}
	}
	return nil, beacon.ErrNotFound
}

func (m *MemStore) AppendUpdate(_ context.Context, u *models.CaseUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reports[u.ReportID]; !ok {
		return beacon.ErrNotFound
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.CreatedAt = m.now()
	m.updates[u.ReportID] = append(m.updates[u.ReportID], *u)
	return nil
}

func (m *MemStore) ListUpdates(_ context.Context, reportID uuid.UUID) ([]models.CaseUpdate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.CaseUpdate(nil), m.updates[reportID]...), nil
}

func (m *MemStore) GetAdminByEmail(_ context.Context, email string) (*models.Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.admins[email]
	if !ok {
		return nil, beacon.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *MemStore) EnsureAdmin(_ context.Context, email, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.admins[email]; ok {
		a.PasswordHash = passwordHash
		return nil
	}
	m.admins[email] = &models.Admin{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		IsActive:     true,
		CreatedAt:    m.now(),
	}
	return nil
}

// RawUpdates exposes stored updates (including raw text) for assertions.
func (m *MemStore) RawUpdates(reportID uuid.UUID) []models.CaseUpdate {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.CaseUpdate(nil), m.updates[reportID]...)
}
