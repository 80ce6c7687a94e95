package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/beaconai/beacon-server/internal/middleware"
	"github.com/beaconai/beacon-server/internal/models"
	"github.com/beaconai/beacon-server/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AdminHandler serves the NGO portal endpoints. Everything except Login sits
// behind the JWT middleware.
type AdminHandler struct {
	admin    *services.AdminService
	scoring  *services.ScoringService
	updates  *services.UpdatePublisher
	evidence *services.EvidenceService
	logger   *zap.SugaredLogger
}

// NewAdminHandler creates an admin handler.
func NewAdminHandler(admin *services.AdminService, scoring *services.ScoringService,
	updates *services.UpdatePublisher, evidence *services.EvidenceService, logger *zap.SugaredLogger) *AdminHandler {
	return &AdminHandler{admin: admin, scoring: scoring, updates: updates, evidence: evidence, logger: logger}
}

// Login handles POST /api/v1/admin/auth/login.
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, err := h.admin.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, token)
}

// ListReports handles GET /api/v1/admin/reports.
func (h *AdminHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.admin.ListReports(r.Context())
	if err != nil {
		h.logger.Errorw("failed to list reports", "error", err)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"reports": reports,
		"count":   len(reports),
	})
}

// GetCase handles GET /api/v1/admin/reports/{id}, the full internal view
// including raw update text.
func (h *AdminHandler) GetCase(w http.ResponseWriter, r *http.Request) {
	reportID, ok := parseReportID(w, r)
	if !ok {
		return
	}

	view, err := h.admin.GetCase(r.Context(), reportID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, view)
}

// ChangeStatus handles PUT /api/v1/admin/reports/{id}/status.
func (h *AdminHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	reportID, ok := parseReportID(w, r)
	if !ok {
		return
	}
	var req models.StatusChangeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.admin.ChangeStatus(r.Context(), reportID, &req); err != nil {
		if strings.Contains(err.Error(), "invalid") {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": string(req.Status)})
}

// Analyze handles POST /api/v1/admin/reports/{id}/analyze, re-running the
// AI credibility assessment synchronously.
func (h *AdminHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	reportID, ok := parseReportID(w, r)
	if !ok {
		return
	}

	if err := h.scoring.Run(r.Context(), reportID); err != nil {
		h.logger.Errorw("analysis failed", "report_id", reportID, "error", err)
		respondServiceError(w, err)
		return
	}

	view, err := h.admin.GetCase(r.Context(), reportID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view.Report)
}

// PublishUpdate handles POST /api/v1/admin/reports/{id}/update.
func (h *AdminHandler) PublishUpdate(w http.ResponseWriter, r *http.Request) {
	reportID, ok := parseReportID(w, r)
	if !ok {
		return
	}
	var req models.PublishUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.RawUpdate) == "" {
		respondError(w, http.StatusBadRequest, "raw_update is required")
		return
	}

	update, err := h.updates.Publish(r.Context(), reportID, req.RawUpdate, middleware.AdminSubject(r.Context()))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, update)
}

// Message handles POST /api/v1/admin/reports/{id}/message.
func (h *AdminHandler) Message(w http.ResponseWriter, r *http.Request) {
	reportID, ok := parseReportID(w, r)
	if !ok {
		return
	}
	var req models.NGOMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		respondError(w, http.StatusBadRequest, "content is required")
		return
	}

	msg, err := h.admin.SendMessage(r.Context(), reportID, req.Content)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, msg)
}

// DownloadEvidence handles GET /api/v1/admin/evidence/{id}/download.
func (h *AdminHandler) DownloadEvidence(w http.ResponseWriter, r *http.Request) {
	evidenceID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid evidence id")
		return
	}

	ev, data, err := h.evidence.Download(r.Context(), evidenceID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", ev.MimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Content-Disposition", `attachment; filename="`+ev.FileName+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func parseReportID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	reportID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid report id")
		return uuid.Nil, false
	}
	return reportID, true
}
