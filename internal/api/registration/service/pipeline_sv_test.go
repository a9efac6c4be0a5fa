package registrationService

import (
	"image"
	"io"
	"mime/multipart"
	"path/filepath"
	"testing"
	"time"

	"ekyc-backend/internal/api/registration"
	registrationRepository "ekyc-backend/internal/api/registration/repository"
	"ekyc-backend/internal/entity"
	"ekyc-backend/pkg/imaging"
	"ekyc-backend/pkg/s3"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/context"
)

const testRunID = "01JTESTRUN0000000000000000"

type stubImaging struct {
	locateRect image.Rectangle
	locateErr  error
	extractErr error
	faceErr    error
}

func (s *stubImaging) LocateDocument(buf []byte) (image.Rectangle, error) {
	return s.locateRect, s.locateErr
}

func (s *stubImaging) ExtractDocument(buf []byte, workDir string) (*imaging.DocumentRegion, error) {
	if s.extractErr != nil {
		return nil, s.extractErr
	}
	return &imaging.DocumentRegion{
		Path:   filepath.Join(workDir, imaging.DocumentRegionFile),
		Bounds: image.Rect(10, 20, 200, 150),
	}, nil
}

func (s *stubImaging) ExtractFace(documentPath string, workDir string) (string, error) {
	if s.faceErr != nil {
		return "", s.faceErr
	}
	return filepath.Join(workDir, imaging.DocumentFaceFile), nil
}

func (s *stubImaging) SaveUpload(buf []byte, workDir string, name string) (string, error) {
	return filepath.Join(workDir, name), nil
}

type stubBiometric struct {
	match     bool
	embedding []float32
}

func (s *stubBiometric) Compare(pathA string, pathB string) bool { return s.match }
func (s *stubBiometric) Embed(path string) []float32             { return s.embedding }
func (s *stubBiometric) Close()                                  {}

type stubOCR struct {
	lines []string
	err   error
}

func (s *stubOCR) ExtractText(imagePath string) ([]string, error) {
	return s.lines, s.err
}

type stubRedis struct {
	registered map[string]bool
	marked     []string
}

func (s *stubRedis) MarkDigestRegistered(ctx context.Context, key string, expiration time.Duration) error {
	if s.registered == nil {
		s.registered = map[string]bool{}
	}
	s.registered[key] = true
	s.marked = append(s.marked, key)
	return nil
}

func (s *stubRedis) IsDigestRegistered(ctx context.Context, key string) (bool, error) {
	return s.registered[key], nil
}

type stubS3 struct {
	uploaded   []string
	presignErr error
}

func (s *stubS3) UploadLocalFile(key string, path string) (string, error) {
	s.uploaded = append(s.uploaded, key)
	return "https://bucket.s3.test/" + key, nil
}

func (s *stubS3) PresignUrl(key string) (string, error) {
	if s.presignErr != nil {
		return "", s.presignErr
	}
	return "https://bucket.s3.test/" + key + "?signature=stub", nil
}

type stubIdentities struct {
	prior     []entity.IdentityRecord
	exists    bool
	existsErr error
	insertErr error
	inserted  []entity.IdentityRecord
	listed    []entity.IdentityRecord
}

func (s *stubIdentities) Fetch(ctx context.Context, record entity.IdentityRecord) ([]entity.IdentityRecord, error) {
	return s.prior, nil
}

func (s *stubIdentities) Exists(ctx context.Context, record entity.IdentityRecord) (bool, error) {
	return s.exists, s.existsErr
}

func (s *stubIdentities) Insert(ctx context.Context, record entity.IdentityRecord) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.inserted = append(s.inserted, record)
	return nil
}

func (s *stubIdentities) List(ctx context.Context, documentType entity.DocumentType, limit int) ([]entity.IdentityRecord, error) {
	return s.listed, nil
}

type stubRepo struct {
	identities *stubIdentities
}

func (s *stubRepo) NewClient(tx bool) (registrationRepository.Client, error) {
	return registrationRepository.Client{
		Identities: s.identities,
		Commit:     func() error { return nil },
		Rollback:   func() error { return nil },
	}, nil
}

type stubUtils struct{}

func (stubUtils) NewULIDFromTimestamp(t time.Time) (string, error) { return testRunID, nil }
func (stubUtils) ValidateImageFile(file *multipart.FileHeader) error {
	return nil
}
func (stubUtils) ReadFileBytes(file multipart.File) ([]byte, error) {
	return io.ReadAll(file)
}

func panOCRLines() []string {
	return []string{
		"INCOME TAX DEPARTMENT",
		"ABCDE1234F",
		"Name",
		"RAKESH KUMAR",
		"Father's Name",
		"SURESH KUMAR",
		"21/03/1994",
	}
}

type testDeps struct {
	imaging    *stubImaging
	biometric  *stubBiometric
	ocr        *stubOCR
	redis      *stubRedis
	identities *stubIdentities
	s3         *stubS3
}

func newTestService(t *testing.T, deps testDeps) IRegistrationService {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	if deps.imaging == nil {
		deps.imaging = &stubImaging{}
	}
	if deps.biometric == nil {
		deps.biometric = &stubBiometric{match: true, embedding: make([]float32, 128)}
	}
	if deps.ocr == nil {
		deps.ocr = &stubOCR{lines: panOCRLines()}
	}
	if deps.redis == nil {
		deps.redis = &stubRedis{}
	}
	if deps.identities == nil {
		deps.identities = &stubIdentities{}
	}

	var s3Client s3.ItfS3
	if deps.s3 != nil {
		s3Client = deps.s3
	}

	return New(
		logger,
		&stubRepo{identities: deps.identities},
		deps.imaging,
		deps.ocr,
		deps.biometric,
		deps.redis,
		s3Client,
		stubUtils{},
		t.TempDir(),
	)
}

func panRequest() registration.RegisterRequest {
	return registration.RegisterRequest{
		DocumentType:  entity.DocumentTypePAN,
		DocumentImage: []byte("document-bytes"),
		FaceImage:     []byte("face-bytes"),
	}
}

func TestRegisterIdentityHappyPath(t *testing.T) {
	identities := &stubIdentities{
		prior: []entity.IdentityRecord{{ID: "existing-1"}, {ID: "existing-2"}},
	}
	svc := newTestService(t, testDeps{identities: identities})

	res, err := svc.RegisterIdentity(context.Background(), panRequest())
	require.NoError(t, err)

	assert.Equal(t, "registered", res.Status)
	assert.Equal(t, 2, res.PriorMatches)
	assert.Equal(t, testRunID, res.Data.ID)
	assert.Equal(t, digestID("ABCDE1234F"), res.Data.IDDigest)
	assert.Equal(t, "1994-03-21", res.Data.DOB)

	require.Len(t, identities.inserted, 1)
	stored := identities.inserted[0]
	assert.Equal(t, testRunID, stored.ID)
	assert.Equal(t, digestID("ABCDE1234F"), stored.IDDigest)
	assert.Equal(t, "1994-03-21", stored.DOB)
	assert.Len(t, stored.Embedding, 128)

	assert.False(t, stored.CreatedAt.IsZero())
	assert.True(t, stored.CreatedAt.Equal(res.Data.CreatedAt), "response must echo the stored timestamp")
}

func TestRegisterIdentityArchivesArtifacts(t *testing.T) {
	s3Stub := &stubS3{}
	svc := newTestService(t, testDeps{s3: s3Stub})

	res, err := svc.RegisterIdentity(context.Background(), panRequest())
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		"registrations/" + testRunID + "/document.jpg",
		"registrations/" + testRunID + "/live_face.jpg",
	}, s3Stub.uploaded)

	assert.Contains(t, res.Data.DocumentImageURL, "registrations/"+testRunID+"/document.jpg")
	assert.Contains(t, res.Data.FaceImageURL, "registrations/"+testRunID+"/live_face.jpg")
}

func TestRegisterIdentityMissingInputs(t *testing.T) {
	svc := newTestService(t, testDeps{})

	req := panRequest()
	req.DocumentImage = nil
	_, err := svc.RegisterIdentity(context.Background(), req)
	assert.ErrorIs(t, err, registration.ErrNoDocumentImage)

	req = panRequest()
	req.FaceImage = nil
	_, err = svc.RegisterIdentity(context.Background(), req)
	assert.ErrorIs(t, err, registration.ErrNoFaceImage)

	req = panRequest()
	req.DocumentType = "PASSPORT"
	_, err = svc.RegisterIdentity(context.Background(), req)
	assert.ErrorIs(t, err, registration.ErrInvalidDocumentType)
}

func TestRegisterIdentityNoDocumentRegion(t *testing.T) {
	identities := &stubIdentities{}
	svc := newTestService(t, testDeps{
		imaging:    &stubImaging{extractErr: imaging.ErrNoDocumentRegion},
		identities: identities,
	})

	_, err := svc.RegisterIdentity(context.Background(), panRequest())
	assert.ErrorIs(t, err, registration.ErrDocumentRegionNotFound)
	assert.Empty(t, identities.inserted)
}

func TestRegisterIdentityNoFaceOnDocument(t *testing.T) {
	identities := &stubIdentities{}
	svc := newTestService(t, testDeps{
		imaging:    &stubImaging{faceErr: imaging.ErrNoFaceFound},
		identities: identities,
	})

	_, err := svc.RegisterIdentity(context.Background(), panRequest())
	assert.ErrorIs(t, err, registration.ErrFaceNotFound)
	assert.Empty(t, identities.inserted)
}

func TestRegisterIdentityFaceMismatch(t *testing.T) {
	identities := &stubIdentities{}
	svc := newTestService(t, testDeps{
		biometric:  &stubBiometric{match: false},
		identities: identities,
	})

	_, err := svc.RegisterIdentity(context.Background(), panRequest())
	assert.ErrorIs(t, err, registration.ErrFaceVerificationFailed)
	assert.Empty(t, identities.inserted, "a rejected registration must not write a record")
}

func TestRegisterIdentityOCRFailure(t *testing.T) {
	identities := &stubIdentities{}
	svc := newTestService(t, testDeps{
		ocr:        &stubOCR{err: assert.AnError},
		identities: identities,
	})

	_, err := svc.RegisterIdentity(context.Background(), panRequest())
	assert.ErrorIs(t, err, registration.ErrTextExtractionFailed)
	assert.Empty(t, identities.inserted)
}

func TestRegisterIdentityDuplicate(t *testing.T) {
	identities := &stubIdentities{exists: true}
	redisStub := &stubRedis{}
	svc := newTestService(t, testDeps{
		identities: identities,
		redis:      redisStub,
	})

	_, err := svc.RegisterIdentity(context.Background(), panRequest())
	assert.ErrorIs(t, err, registration.ErrDuplicateIdentity)
	assert.Empty(t, identities.inserted, "duplicates must not be written again")
	assert.NotEmpty(t, redisStub.marked, "known duplicates should be cached for the fast path")
}

func TestRegisterIdentityDuplicateCacheFastPath(t *testing.T) {
	identities := &stubIdentities{existsErr: assert.AnError}
	redisStub := &stubRedis{registered: map[string]bool{}}

	// Prime the cache with the digest computed from the PAN OCR fixture.
	key := "ekyc:registered:PAN:" + digestID("ABCDE1234F")
	redisStub.registered[key] = true

	svc := newTestService(t, testDeps{
		identities: identities,
		redis:      redisStub,
	})

	_, err := svc.RegisterIdentity(context.Background(), panRequest())
	assert.ErrorIs(t, err, registration.ErrDuplicateIdentity, "cache hit must short-circuit before the database")
	assert.Empty(t, identities.inserted)
}

func TestRegisterIdentityEmbeddingFailure(t *testing.T) {
	identities := &stubIdentities{}
	svc := newTestService(t, testDeps{
		biometric:  &stubBiometric{match: true, embedding: nil},
		identities: identities,
	})

	_, err := svc.RegisterIdentity(context.Background(), panRequest())
	assert.ErrorIs(t, err, registration.ErrEmbeddingFailed)
	assert.Empty(t, identities.inserted)
}

func TestListRegistrations(t *testing.T) {
	identities := &stubIdentities{
		listed: []entity.IdentityRecord{
			{ID: "a", DocumentType: entity.DocumentTypePAN},
			{ID: "b", DocumentType: entity.DocumentTypePAN},
		},
	}
	svc := newTestService(t, testDeps{identities: identities})

	records, err := svc.ListRegistrations(context.Background(), entity.DocumentTypePAN, 10)
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, "a", records[0].ID)

	_, err = svc.ListRegistrations(context.Background(), "PASSPORT", 10)
	assert.ErrorIs(t, err, registration.ErrInvalidDocumentType)
}

func TestListRegistrationsPresignedLinks(t *testing.T) {
	identities := &stubIdentities{
		listed: []entity.IdentityRecord{{ID: "rec-1", DocumentType: entity.DocumentTypePAN}},
	}

	svc := newTestService(t, testDeps{identities: identities, s3: &stubS3{}})
	records, err := svc.ListRegistrations(context.Background(), entity.DocumentTypePAN, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Contains(t, records[0].DocumentImageURL, "registrations/rec-1/document.jpg")
	assert.Contains(t, records[0].FaceImageURL, "registrations/rec-1/live_face.jpg")

	// Presign failures degrade to a listing without links.
	svc = newTestService(t, testDeps{identities: identities, s3: &stubS3{presignErr: assert.AnError}})
	records, err = svc.ListRegistrations(context.Background(), entity.DocumentTypePAN, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Empty(t, records[0].DocumentImageURL)
	assert.Empty(t, records[0].FaceImageURL)

	// Without object storage there are no links either.
	svc = newTestService(t, testDeps{identities: identities})
	records, err = svc.ListRegistrations(context.Background(), entity.DocumentTypePAN, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Empty(t, records[0].DocumentImageURL)
}

func TestDetectDocumentFrame(t *testing.T) {
	svc := newTestService(t, testDeps{
		imaging: &stubImaging{locateRect: image.Rect(5, 10, 100, 80)},
	})

	result, err := svc.DetectDocumentFrame([]byte("frame"))
	require.NoError(t, err)
	assert.True(t, result.Found)
	require.NotNil(t, result.Position)
	assert.Equal(t, 5, result.Position.X1)
	assert.Equal(t, 80, result.Position.Y2)

	svc = newTestService(t, testDeps{
		imaging: &stubImaging{locateErr: imaging.ErrNoDocumentRegion},
	})

	result, err = svc.DetectDocumentFrame([]byte("frame"))
	require.NoError(t, err)
	assert.False(t, result.Found)
	assert.Equal(t, "NO_DOCUMENT_DETECTED", result.Message)
}
