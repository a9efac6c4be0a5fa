package registrationService

import (
	"ekyc-backend/internal/api/registration"
	registrationRepository "ekyc-backend/internal/api/registration/repository"
	"ekyc-backend/internal/entity"
	"ekyc-backend/pkg/biometric"
	"ekyc-backend/pkg/imaging"
	"ekyc-backend/pkg/ocr"
	"ekyc-backend/pkg/redis"
	"ekyc-backend/pkg/s3"
	"ekyc-backend/pkg/utils"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type IRegistrationService interface {
	RegisterIdentity(ctx context.Context, req registration.RegisterRequest) (registration.RegisterResponse, error)
	ListRegistrations(ctx context.Context, documentType entity.DocumentType, limit int) ([]registration.RegisteredIdentity, error)
	DetectDocumentFrame(frame []byte) (*entity.DocumentDetectionResult, error)
}

type registrationService struct {
	log        *logrus.Logger
	repo       registrationRepository.Repository
	imaging    imaging.IImaging
	ocr        ocr.IOCR
	biometric  biometric.IBiometric
	redis      redis.IRedis
	s3Client   s3.ItfS3
	utils      utils.IUtils
	workingDir string
}

func New(
	log *logrus.Logger,
	repo registrationRepository.Repository,
	imagingProc imaging.IImaging,
	ocrEngine ocr.IOCR,
	matcher biometric.IBiometric,
	redisServer redis.IRedis,
	s3Client s3.ItfS3,
	utils utils.IUtils,
	workingDir string,
) IRegistrationService {
	return &registrationService{
		log:        log,
		repo:       repo,
		imaging:    imagingProc,
		ocr:        ocrEngine,
		biometric:  matcher,
		redis:      redisServer,
		s3Client:   s3Client,
		utils:      utils,
		workingDir: workingDir,
	}
}
