package handlers

import (
	"io"
	"net/http"

	"github.com/beaconai/beacon-server/internal/models"
	"github.com/beaconai/beacon-server/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxUploadBody caps a single multipart request body. The per-case quota is
// enforced transactionally in the store; this only stops oversized bodies
// from being buffered at all.
const maxUploadBody = 8 << 20

// EvidenceHandler serves evidence uploads during the pre-submission chat
// phase, authenticated by report id + access token.
type EvidenceHandler struct {
	evidence *services.EvidenceService
	logger   *zap.SugaredLogger
}

// NewEvidenceHandler creates an evidence handler.
func NewEvidenceHandler(evidence *services.EvidenceService, logger *zap.SugaredLogger) *EvidenceHandler {
	return &EvidenceHandler{evidence: evidence, logger: logger}
}

// Upload handles POST /api/v1/evidence/upload. Multipart form with fields
// report_id, access_token and a single "file" part.
func (h *EvidenceHandler) Upload(w http.ResponseWriter, r *http.Request) {
	rawID, token, fileName, mimeType, data, ok := parseEvidenceUpload(w, r, "report_id", "access_token")
	if !ok {
		return
	}
	reportID, err := uuid.Parse(rawID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid report id")
		return
	}

	ev, err := h.evidence.UploadForSession(r.Context(), reportID, token, fileName, mimeType, data)
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

// List handles GET /api/v1/evidence/{reportID} with the access token in the
// X-Access-Token header.
func (h *EvidenceHandler) List(w http.ResponseWriter, r *http.Request) {
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

	refs, err := h.evidence.ListForSession(r.Context(), reportID, token)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"evidence": refs})
}

// parseEvidenceUpload pulls the two credential form fields and the file part
// out of a multipart upload. It writes the error response itself and returns
// ok=false when the request is malformed.
func parseEvidenceUpload(w http.ResponseWriter, r *http.Request, credField, keyField string) (cred, key, fileName, mimeType string, data []byte, ok bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(maxUploadBody); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	cred = r.FormValue(credField)
	key = r.FormValue(keyField)
	if cred == "" || key == "" {
		respondError(w, http.StatusBadRequest, credField+" and "+keyField+" are required")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "file part is required")
		return
	}
	defer file.Close()

	data, err = io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Could not read file")
		return
	}

	fileName = header.Filename
	mimeType = header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	ok = true
	return
}
