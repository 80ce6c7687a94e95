// Package models defines the data structures used across the application.
// These map to the PostgreSQL schema in internal/store/schema.sql.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a report. A report starts as a draft
// chat session and becomes "received" when the guided flow finalizes it.
// All later states are set by NGO staff.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusReceived  Status = "received"
	StatusAnalyzing Status = "analyzing"
	StatusInReview  Status = "in_review"
	StatusEscalated Status = "escalated"
	StatusClosed    Status = "closed"
	StatusDismissed Status = "dismissed"
)

// Valid reports whether s is a known lifecycle state.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusReceived, StatusAnalyzing, StatusInReview,
		StatusEscalated, StatusClosed, StatusDismissed:
		return true
	}
	return false
}

// Display returns the user-facing label shown on the tracking page.
func (s Status) Display() string {
	switch s {
	case StatusDraft:
		return "Draft"
	case StatusReceived:
		return "Received"
	case StatusAnalyzing:
		return "Analyzing"
	case StatusInReview:
		return "In Review"
	case StatusEscalated:
		return "Escalated"
	case StatusClosed:
		return "Closed"
	case StatusDismissed:
		return "Dismissed"
	}
	return string(s)
}

// Priority of a report, set by NGO staff or by the scoring pass.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Sender identifies who authored a conversation message.
type Sender string

const (
	SenderReporter  Sender = "reporter"
	SenderAssistant Sender = "assistant"
	SenderSystem    Sender = "system"
	SenderNGO       Sender = "ngo"
)

// Report is one anonymous corruption report. It is created as a draft when
// the reporter opens a chat session and holds only hashed credentials:
// access_token_hash for the pre-submission session and secret_key_hash for
// long-term tracking. Plaintext credentials are never persisted.
type Report struct {
	ID              uuid.UUID `json:"id" db:"id"`
	CaseID          string    `json:"case_id,omitempty" db:"case_id"`
	AccessTokenHash string    `json:"-" db:"access_token_hash"`
	SecretKeyHash   string    `json:"-" db:"secret_key_hash"`

	Status   Status   `json:"status" db:"status"`
	Priority Priority `json:"priority" db:"priority"`

	CurrentStep string `json:"-" db:"current_step"`

	CredibilityScore *int     `json:"credibility_score,omitempty" db:"credibility_score"`
	ScoreExplanation string   `json:"score_explanation,omitempty" db:"score_explanation"`
	Categories       []string `json:"categories,omitempty" db:"categories"`
	LocationMeta     string   `json:"location_meta,omitempty" db:"location_meta"`
	IncidentSummary  string   `json:"incident_summary,omitempty" db:"incident_summary"`

	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	SubmittedAt   *time.Time `json:"submitted_at,omitempty" db:"submitted_at"`
	LastUpdatedAt time.Time  `json:"last_updated_at" db:"last_updated_at"`
}

// Submitted reports whether credentials have been issued for this report.
func (r *Report) Submitted() bool {
	return r.Status != StatusDraft
}

// Message is one entry in a report's append-only conversation log.
// Ordering is by server-assigned CreatedAt.
type Message struct {
	ID          uuid.UUID    `json:"id" db:"id"`
	ReportID    uuid.UUID    `json:"report_id" db:"report_id"`
	Sender      Sender       `json:"sender" db:"sender"`
	Content     string       `json:"content" db:"content"`
	Attachments []Attachment `json:"attachments,omitempty" db:"attachments"`
	CreatedAt   time.Time    `json:"timestamp" db:"created_at"`
}

// Attachment references an evidence file from a message.
type Attachment struct {
	EvidenceID uuid.UUID `json:"evidence_id"`
	FileName   string    `json:"file_name"`
	MimeType   string    `json:"mime_type"`
}

// Evidence is an uploaded file owned by exactly one report. The bytes live
// in blob storage under StorageKey; only metadata is kept in the database.
type Evidence struct {
	ID          uuid.UUID `json:"id" db:"id"`
	ReportID    uuid.UUID `json:"report_id" db:"report_id"`
	FileName    string    `json:"file_name" db:"file_name"`
	MimeType    string    `json:"mime_type" db:"mime_type"`
	SizeBytes   int64     `json:"size_bytes" db:"size_bytes"`
	FileHash    string    `json:"file_hash" db:"file_hash"`
	StorageKey  string    `json:"-" db:"storage_key"`
	PIICleansed bool      `json:"pii_cleansed" db:"pii_cleansed"`
	UploadedAt  time.Time `json:"uploaded_at" db:"uploaded_at"`
}

// CaseUpdate is one entry in a report's append-only public update log.
// RawText is the NGO-authored note; PublicText is the externally visible
// paraphrase. Anonymous endpoints serve PublicUpdate projections only, so a
// CaseUpdate must never be marshaled into an anonymous-facing response.
type CaseUpdate struct {
	ID         uuid.UUID `json:"id" db:"id"`
	ReportID   uuid.UUID `json:"report_id" db:"report_id"`
	RawText    string    `json:"raw_text,omitempty" db:"raw_text"`
	PublicText string    `json:"message" db:"public_text"`
	UpdatedBy  string    `json:"updated_by,omitempty" db:"updated_by"`
	CreatedAt  time.Time `json:"timestamp" db:"created_at"`
}

// Admin is an NGO staff account for the administration portal.
type Admin struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// CreateSessionRequest starts a new anonymous reporting session. ClientSeed
// is caller-supplied entropy folded into token generation; the server always
// adds its own randomness.
type CreateSessionRequest struct {
	ClientSeed string `json:"client_seed,omitempty"`
}

// CreateSessionResponse returns the session credentials. AccessToken is the
// only time the plaintext token leaves the server.
type CreateSessionResponse struct {
	ReportID    uuid.UUID `json:"report_id"`
	AccessToken string    `json:"access_token"`
	Message     string    `json:"message"`
}

// ChatMessageRequest is one reporter turn in the guided flow.
type ChatMessageRequest struct {
	ReportID    uuid.UUID `json:"report_id"`
	AccessToken string    `json:"access_token"`
	Content     string    `json:"content"`
}

// ChatMessageResponse is the assistant's reply. CaseID and SecretKey are set
// only on the turn that finalizes the report; SecretKey is shown exactly once
// and is never retrievable afterwards.
type ChatMessageResponse struct {
	ReportID  uuid.UUID `json:"report_id"`
	Sender    Sender    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	NextStep  string    `json:"next_step"`
	CaseID    string    `json:"case_id,omitempty"`
	SecretKey string    `json:"secret_key,omitempty"`
}

// SessionStatus describes a session for the reporting frontend.
type SessionStatus struct {
	ReportID    uuid.UUID `json:"report_id"`
	CurrentStep string    `json:"current_step"`
	Submitted   bool      `json:"submitted"`
	CaseID      string    `json:"case_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// TrackRequest authenticates an anonymous tracking call. Every call carries
// both credentials; there is no tracking session.
type TrackRequest struct {
	CaseID    string `json:"case_id"`
	SecretKey string `json:"secret_key"`
}

// PublicUpdate is the anonymous-facing view of a CaseUpdate.
type PublicUpdate struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// EvidenceRef is the anonymous-facing view of an evidence file.
type EvidenceRef struct {
	ID         uuid.UUID `json:"id"`
	FileName   string    `json:"file_name"`
	MimeType   string    `json:"mime_type"`
	SizeBytes  int64     `json:"size_bytes"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// CaseView is the redacted read-only view returned by the tracking gate.
type CaseView struct {
	CaseID          string         `json:"case_id"`
	Status          string         `json:"status"`
	ReportedAt      time.Time      `json:"reported_at"`
	IncidentSummary string         `json:"incident_summary,omitempty"`
	LastUpdated     time.Time      `json:"last_updated"`
	Updates         []PublicUpdate `json:"updates"`
	Messages        []Message      `json:"messages"`
	Evidence        []EvidenceRef  `json:"evidence"`
}

// TrackMessageRequest appends a reporter message to a submitted case.
type TrackMessageRequest struct {
	CaseID      string       `json:"case_id"`
	SecretKey   string       `json:"secret_key"`
	Content     string       `json:"content"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// AdminCaseView is the full internal view for NGO staff, including raw
// update text. Never served on anonymous endpoints.
type AdminCaseView struct {
	Report   Report       `json:"report"`
	Messages []Message    `json:"messages"`
	Updates  []CaseUpdate `json:"updates"`
	Evidence []Evidence   `json:"evidence"`
}

// LoginRequest authenticates an NGO staff member.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries the NGO bearer token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// StatusChangeRequest mutates the lifecycle fields of a report.
type StatusChangeRequest struct {
	Status   Status   `json:"status"`
	Priority Priority `json:"priority,omitempty"`
}

// PublishUpdateRequest submits an internal NGO note for public paraphrase.
type PublishUpdateRequest struct {
	RawUpdate string `json:"raw_update"`
}

// NGOMessageRequest appends an NGO message to a case conversation.
type NGOMessageRequest struct {
	Content string `json:"content"`
}

// HealthStatus represents the server health check response.
type HealthStatus struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Uptime   string `json:"uptime"`
	Database string `json:"database,omitempty"`
}
