package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/beaconai/beacon-server/internal/beacon"
	"github.com/beaconai/beacon-server/internal/models"
	"github.com/beaconai/beacon-server/internal/storage"
	"github.com/beaconai/beacon-server/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var safeExt = regexp.MustCompile(`^\.[a-z0-9]{1,8}$`)

// EvidenceService handles evidence uploads during the chat phase (access
// token) and after submission (secret key), subject to a cumulative
// per-report size cap.
type EvidenceService struct {
	store    store.Store
	blobs    storage.BlobStore
	sessions *SessionService
	tracking *TrackingService
	maxBytes int64
	logger   *zap.SugaredLogger
}

// NewEvidenceService creates an evidence service. maxBytes is the cumulative
// cap per report.
func NewEvidenceService(st store.Store, blobs storage.BlobStore, sessions *SessionService,
	tracking *TrackingService, maxBytes int64, logger *zap.SugaredLogger) *EvidenceService {
	return &EvidenceService{
		store:    st,
		blobs:    blobs,
		sessions: sessions,
		tracking: tracking,
		maxBytes: maxBytes,
		logger:   logger,
	}
}

// UploadForSession stores evidence during the pre-submission chat phase.
func (s *EvidenceService) UploadForSession(ctx context.Context, reportID uuid.UUID, accessToken,
	fileName, mimeType string, data []byte) (*models.Evidence, error) {
	report, err := s.sessions.ValidateAccess(ctx, reportID, accessToken)
	if err != nil {
		return nil, err
	}
	if report.Submitted() {
		return nil, beacon.ErrSessionClosed
	}
	return s.save(ctx, report.ID, fileName, mimeType, data)
}

// UploadForCase stores evidence against a submitted case, authenticated by
// the long-term credential pair.
func (s *EvidenceService) UploadForCase(ctx context.Context, caseID, secretKey,
	fileName, mimeType string, data []byte) (*models.Evidence, error) {
	report, err := s.tracking.Authenticate(ctx, caseID, secretKey)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, report.ID, fileName, mimeType, data)
}

// save writes the blob first, then the metadata row under the quota check.
// A rejected file removes its blob so nothing partially persists.
func (s *EvidenceService) save(ctx context.Context, reportID uuid.UUID, fileName, mimeType string, data []byte) (*models.Evidence, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty upload")
	}
	if int64(len(data)) > s.maxBytes {
		return nil, beacon.ErrQuotaExceeded
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	// Text uploads get the PII scrub before anything touches disk. Binary
	// formats are stored as-is and flagged uncleansed; they are only ever
	// served to authenticated NGO staff.
	cleansed := false
	if isTextMime(mimeType) {
		data = []byte(beacon.Redact(string(data)))
		cleansed = true
	}

	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])
	// The key is namespaced by report so identical bytes uploaded to two
	// reports never share a blob; deleting one report's rejected upload
	// must not touch another's evidence.
	key := reportID.String() + "-" + hash + blobExt(fileName)

	if err := s.blobs.Put(ctx, key, data); err != nil {
		return nil, fmt.Errorf("store blob: %w", err)
	}

	ev := &models.Evidence{
		ID:          uuid.New(),
		ReportID:    reportID,
		FileName:    filepath.Base(fileName),
		MimeType:    mimeType,
		SizeBytes:   int64(len(data)),
		FileHash:    hash,
		StorageKey:  key,
		PIICleansed: cleansed,
	}
	if err := s.store.InsertEvidence(ctx, ev, s.maxBytes); err != nil {
		if delErr := s.blobs.Delete(ctx, key); delErr != nil {
			s.logger.Warnw("Failed to remove rejected blob", "key", key, "error", delErr)
		}
		return nil, err
	}

	s.logger.Infow("Evidence stored",
		"report_id", reportID,
		"file_hash", hash,
		"size_bytes", ev.SizeBytes,
	)
	return ev, nil
}

// ListForSession returns the session's uploaded files.
func (s *EvidenceService) ListForSession(ctx context.Context, reportID uuid.UUID, accessToken string) ([]models.EvidenceRef, error) {
	report, err := s.sessions.ValidateAccess(ctx, reportID, accessToken)
	if err != nil {
		return nil, err
	}
	files, err := s.store.ListEvidence(ctx, report.ID)
	if err != nil {
		return nil, fmt.Errorf("list evidence: %w", err)
	}
	refs := make([]models.EvidenceRef, 0, len(files))
	for _, ev := range files {
		refs = append(refs, models.EvidenceRef{
			ID:         ev.ID,
			FileName:   ev.FileName,
			MimeType:   ev.MimeType,
			SizeBytes:  ev.SizeBytes,
			UploadedAt: ev.UploadedAt,
		})
	}
	return refs, nil
}

// Download returns an evidence record and its bytes. NGO endpoints only.
func (s *EvidenceService) Download(ctx context.Context, evidenceID uuid.UUID) (*models.Evidence, []byte, error) {
	ev, err := s.store.GetEvidence(ctx, evidenceID)
	if err != nil {
		return nil, nil, err
	}
	data, err := s.blobs.Get(ctx, ev.StorageKey)
	if err != nil {
		return nil, nil, fmt.Errorf("read blob: %w", err)
	}
	return ev, data, nil
}

func blobExt(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	if safeExt.MatchString(ext) {
		return ext
	}
	return ".bin"
}

func isTextMime(mimeType string) bool {
	return strings.HasPrefix(mimeType, "text/")
}
