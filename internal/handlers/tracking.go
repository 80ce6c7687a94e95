package handlers

import (
	"net/http"
	"strings"

	"github.com/beaconai/beacon-server/internal/models"
	"github.com/beaconai/beacon-server/internal/services"
	"go.uber.org/zap"
)

// TrackingHandler serves the anonymous tracking gate. Every request carries
// the full Case ID + Secret Key pair; there is no tracking session to hold.
type TrackingHandler struct {
	tracking *services.TrackingService
	evidence *services.EvidenceService
	logger   *zap.SugaredLogger
}

// NewTrackingHandler creates a tracking handler.
func NewTrackingHandler(tracking *services.TrackingService, evidence *services.EvidenceService, logger *zap.SugaredLogger) *TrackingHandler {
	return &TrackingHandler{tracking: tracking, evidence: evidence, logger: logger}
}

// Track handles POST /api/v1/tracking/track and returns the redacted case
// view. Credentials travel in the body, never in the URL.
func (h *TrackingHandler) Track(w http.ResponseWriter, r *http.Request) {
	var req models.TrackRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	view, err := h.tracking.Track(r.Context(), req.CaseID, req.SecretKey)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, view)
}

// Message handles POST /api/v1/tracking/message, a post-submission follow-up
// from the reporter.
func (h *TrackingHandler) Message(w http.ResponseWriter, r *http.Request) {
	var req models.TrackMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		respondError(w, http.StatusBadRequest, "content is required")
		return
	}

	msg, err := h.tracking.SendMessage(r.Context(), &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, msg)
}

// Upload handles POST /api/v1/tracking/upload: evidence attached to an
// already-submitted case, authenticated by the credential pair in form
// fields case_id and secret_key.
func (h *TrackingHandler) Upload(w http.ResponseWriter, r *http.Request) {
	caseID, secretKey, fileName, mimeType, data, ok := parseEvidenceUpload(w, r, "case_id", "secret_key")
	if !ok {
		return
	}

	ev, err := h.evidence.UploadForCase(r.Context(), caseID, secretKey, fileName, mimeType, data)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, models.EvidenceRef{
		ID:         ev.ID,
		FileName:   ev.FileName,
		MimeType:   ev.MimeType,
		SizeBytes:  ev.SizeBytes,
		UploadedAt: ev.UploadedAt,
	})
}
