package handlers

import (
	"net/http"
	"strings"

	"github.com/beaconai/beacon-server/internal/models"
	"github.com/beaconai/beacon-server/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReportHandler serves the anonymous guided reporting flow: session
// creation, chat turns, and session status.
type ReportHandler struct {
	sessions *services.SessionService
	chat     *services.ChatService
	logger   *zap.SugaredLogger
}

// NewReportHandler creates a report handler.
func NewReportHandler(sessions *services.SessionService, chat *services.ChatService, logger *zap.SugaredLogger) *ReportHandler {
	return &ReportHandler{sessions: sessions, chat: chat, logger: logger}
}

// Create handles POST /api/v1/reports/create. The body is optional; a
// client_seed mixes client entropy into the access token.
func (h *ReportHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSessionRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	resp, err := h.sessions.CreateSession(r.Context(), req.ClientSeed)
	if err != nil {
		h.logger.Errorw("failed to create report session", "error", err)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, resp)
}

// Message handles POST /api/v1/reports/message, one turn of the guided flow.
func (h *ReportHandler) Message(w http.ResponseWriter, r *http.Request) {
	var req models.ChatMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ReportID == uuid.Nil || req.AccessToken == "" {
		respondError(w, http.StatusBadRequest, "report_id and access_token are required")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		respondError(w, http.StatusBadRequest, "content is required")
		return
	}

	resp, err := h.chat.HandleMessage(r.Context(), &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// Status handles GET /api/v1/reports/status/{id}. The access token rides in
// the X-Access-Token header so it never lands in URL logs.
func (h *ReportHandler) Status(w http.ResponseWriter, r *http.Request) {
	reportID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid report id")
		return
	}
	token := r.Header.Get("X-Access-Token")
	if token == "" {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	status, err := h.chat.SessionStatus(r.Context(), reportID, token)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, status)
}
