package registrationService

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"ekyc-backend/internal/api/registration"
	"ekyc-backend/internal/entity"
	contextPkg "ekyc-backend/pkg/context"
	"ekyc-backend/pkg/imaging"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

const (
	liveFaceFile         = "live_face.jpg"
	registeredDigestTTL  = 24 * time.Hour
	registeredDigestKeys = "ekyc:registered:%s:%s"

	archiveDocumentFile = "document.jpg"
	archiveLiveFaceFile = "live_face.jpg"
)

// RegisterIdentity runs the verification-and-dedup pipeline for one upload.
// Stages run strictly in order and the first failure terminates the run; a
// record is written exactly once, only after the duplicate check passes.
func (s *registrationService) RegisterIdentity(c context.Context, req registration.RegisterRequest) (registration.RegisterResponse, error) {
	requestID := contextPkg.GetRequestID(c)

	if !req.DocumentType.Valid() {
		return registration.RegisterResponse{}, registration.ErrInvalidDocumentType
	}
	if len(req.DocumentImage) == 0 {
		return registration.RegisterResponse{}, registration.ErrNoDocumentImage
	}
	if len(req.FaceImage) == 0 {
		return registration.RegisterResponse{}, registration.ErrNoFaceImage
	}

	runID, err := s.utils.NewULIDFromTimestamp(time.Now())
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to generate run ID")
		return registration.RegisterResponse{}, err
	}

	// Each run gets its own workspace so concurrent invocations never read
	// each other's intermediate crops.
	workDir := filepath.Join(s.workingDir, runID)
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"work_dir":   workDir,
			}).Warn("Failed to remove invocation workspace")
		}
	}()

	region, err := s.imaging.ExtractDocument(req.DocumentImage, workDir)
	if err != nil {
		return registration.RegisterResponse{}, s.mapImagingError(requestID, err, registration.ErrNoDocumentImage, registration.ErrDocumentUndecodable)
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"bounds":     region.Bounds.String(),
	}).Info("Document region located")

	livePath, err := s.imaging.SaveUpload(req.FaceImage, workDir, liveFaceFile)
	if err != nil {
		return registration.RegisterResponse{}, s.mapImagingError(requestID, err, registration.ErrNoFaceImage, registration.ErrFaceImageUndecodable)
	}

	documentFacePath, err := s.imaging.ExtractFace(region.Path, workDir)
	if err != nil {
		if errors.Is(err, imaging.ErrNoFaceFound) {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
			}).Warn("No face detected on document region")
			return registration.RegisterResponse{}, registration.ErrFaceNotFound
		}
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Face extraction failed")
		return registration.RegisterResponse{}, err
	}

	if !s.biometric.Compare(livePath, documentFacePath) {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
		}).Warn("Live face does not match the face printed on the document")
		return registration.RegisterResponse{}, registration.ErrFaceVerificationFailed
	}

	lines, err := s.ocr.ExtractText(region.Path)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("OCR text extraction failed")
		return registration.RegisterResponse{}, registration.ErrTextExtractionFailed
	}

	extractor, err := extractorFor(req.DocumentType)
	if err != nil {
		return registration.RegisterResponse{}, err
	}

	fields, err := extractor.Extract(lines)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id":    requestID,
			"document_type": req.DocumentType,
			"ocr_lines":     len(lines),
			"error":         err.Error(),
		}).Warn("Field extraction failed")
		return registration.RegisterResponse{}, err
	}

	record := normalizeIdentity(req.DocumentType, fields)

	repo, err := s.repo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return registration.RegisterResponse{}, err
	}

	prior, err := repo.Identities.Fetch(c, record)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Failed to fetch prior records for display")
	}

	cacheKey := fmt.Sprintf(registeredDigestKeys, req.DocumentType, record.IDDigest)
	if found, err := s.redis.IsDigestRegistered(c, cacheKey); err == nil && found {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"id_digest":  record.IDDigest,
		}).Info("Duplicate identity found in digest cache")
		return registration.RegisterResponse{}, registration.ErrDuplicateIdentity
	}

	exists, err := repo.Identities.Exists(c, record)
	if err != nil {
		return registration.RegisterResponse{}, err
	}
	if exists {
		if err := s.redis.MarkDigestRegistered(c, cacheKey, registeredDigestTTL); err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
			}).Warn("Failed to cache registered digest")
		}
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"id_digest":  record.IDDigest,
		}).Info("Duplicate identity, registration rejected")
		return registration.RegisterResponse{}, registration.ErrDuplicateIdentity
	}

	embedding := s.biometric.Embed(livePath)
	if len(embedding) == 0 {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
		}).Warn("Face embedding could not be computed")
		return registration.RegisterResponse{}, registration.ErrEmbeddingFailed
	}

	record.ID = runID
	// The response echoes the stored row, so the row and the response share
	// one timestamp.
	record.CreatedAt = time.Now()
	record.Embedding = make([]float64, len(embedding))
	for idx, v := range embedding {
		record.Embedding[idx] = float64(v)
	}

	if err := repo.Identities.Insert(c, record); err != nil {
		return registration.RegisterResponse{}, err
	}

	if err := s.redis.MarkDigestRegistered(c, cacheKey, registeredDigestTTL); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
		}).Warn("Failed to cache registered digest")
	}

	s.archiveArtifacts(requestID, record.ID, region.Path, livePath)

	s.log.WithFields(logrus.Fields{
		"request_id":    requestID,
		"record_id":     record.ID,
		"document_type": record.DocumentType,
	}).Info("Identity registered")

	data := toRegisteredIdentity(record)
	s.attachArchiveLinks(&data)

	return registration.RegisterResponse{
		Status:       "registered",
		PriorMatches: len(prior),
		Data:         data,
	}, nil
}

func (s *registrationService) ListRegistrations(c context.Context, documentType entity.DocumentType, limit int) ([]registration.RegisteredIdentity, error) {
	if !documentType.Valid() {
		return nil, registration.ErrInvalidDocumentType
	}

	repo, err := s.repo.NewClient(false)
	if err != nil {
		return nil, err
	}

	records, err := repo.Identities.List(c, documentType, limit)
	if err != nil {
		return nil, err
	}

	out := make([]registration.RegisteredIdentity, 0, len(records))
	for _, record := range records {
		item := toRegisteredIdentity(record)
		s.attachArchiveLinks(&item)
		out = append(out, item)
	}

	return out, nil
}

// DetectDocumentFrame backs the live preview websocket: it only locates the
// document bounding box in the frame, no files are written.
func (s *registrationService) DetectDocumentFrame(frame []byte) (*entity.DocumentDetectionResult, error) {
	rect, err := s.imaging.LocateDocument(frame)
	if err != nil {
		if errors.Is(err, imaging.ErrNoDocumentRegion) {
			return &entity.DocumentDetectionResult{
				Found:   false,
				Message: "NO_DOCUMENT_DETECTED",
			}, nil
		}
		return nil, err
	}

	return &entity.DocumentDetectionResult{
		Found:   true,
		Message: "DOCUMENT_DETECTED",
		Position: &entity.DocumentPosition{
			X1: rect.Min.X,
			Y1: rect.Min.Y,
			X2: rect.Max.X,
			Y2: rect.Max.Y,
		},
	}, nil
}

func (s *registrationService) mapImagingError(requestID string, err error, missing error, undecodable error) error {
	switch {
	case errors.Is(err, imaging.ErrEmptyImage):
		return missing
	case errors.Is(err, imaging.ErrUndecodableImage):
		return undecodable
	case errors.Is(err, imaging.ErrNoDocumentRegion):
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
		}).Warn("No document region found in uploaded image")
		return registration.ErrDocumentRegionNotFound
	default:
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Image processing failed")
		return err
	}
}

func (s *registrationService) archiveArtifacts(requestID string, recordID string, documentPath string, livePath string) {
	if s.s3Client == nil {
		return
	}

	for name, path := range map[string]string{
		archiveDocumentFile: documentPath,
		archiveLiveFaceFile: livePath,
	} {
		key := archiveKey(recordID, name)
		if _, err := s.s3Client.UploadLocalFile(key, path); err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"key":        key,
				"error":      err.Error(),
			}).Warn("Failed to archive verification artifact")
		}
	}
}

// attachArchiveLinks decorates a record with short-lived download links for
// its archived crops. Links are best effort: without object storage, or when
// presigning fails, the record goes out without them.
func (s *registrationService) attachArchiveLinks(item *registration.RegisteredIdentity) {
	if s.s3Client == nil {
		return
	}

	if url, err := s.s3Client.PresignUrl(archiveKey(item.ID, archiveDocumentFile)); err == nil {
		item.DocumentImageURL = url
	}
	if url, err := s.s3Client.PresignUrl(archiveKey(item.ID, archiveLiveFaceFile)); err == nil {
		item.FaceImageURL = url
	}
}

func archiveKey(recordID string, name string) string {
	return fmt.Sprintf("registrations/%s/%s", recordID, name)
}
