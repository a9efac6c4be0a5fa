package config

import (
	"fmt"
	"os"

	"ekyc-backend/database/postgres"
	authHandler "ekyc-backend/internal/api/auth/handler"
	authRepository "ekyc-backend/internal/api/auth/repository"
	authService "ekyc-backend/internal/api/auth/service"
	registrationHandler "ekyc-backend/internal/api/registration/handler"
	registrationRepository "ekyc-backend/internal/api/registration/repository"
	registrationService "ekyc-backend/internal/api/registration/service"
	"ekyc-backend/internal/middleware"
	"ekyc-backend/pkg/bcrypt"
	"ekyc-backend/pkg/biometric"
	"ekyc-backend/pkg/imaging"
	"ekyc-backend/pkg/ocr"
	"ekyc-backend/pkg/redis"
	"ekyc-backend/pkg/s3"
	"ekyc-backend/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type ServerOption func(*Server) error

type Server struct {
	engine      *fiber.App
	db          *sqlx.DB
	log         *logrus.Logger
	middleware  middleware.Middleware
	validator   *validator.Validate
	utils       utils.IUtils
	bcryptUtils bcrypt.IBcrypt
	handlers    []handler
	redisServer redis.IRedis
	s3Client    s3.ItfS3

	pipelineCfg      PipelineConfig
	imagingProcessor imaging.IImaging
	biometricMatcher biometric.IBiometric
	ocrEngine        ocr.IOCR
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

func WithDatabase() ServerOption {
	return func(s *Server) error {
		db, err := postgres.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to connect to database: %v", err)
			}
			return fmt.Errorf("failed to create database connection: %w", err)
		}
		s.db = db
		return nil
	}
}

func WithRedisServer(redisServer redis.IRedis) ServerOption {
	return func(s *Server) error {
		s.redisServer = redisServer
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log)
		return nil
	}
}

func WithS3Client() ServerOption {
	return func(s *Server) error {
		client, err := s3.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to initialize S3 client: %v", err)
			}
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		s.s3Client = client
		return nil
	}
}

// WithPipeline initializes the image processing, face matching and OCR
// engines from the model paths in cfg. The logger has to come first.
func WithPipeline(cfg PipelineConfig) ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before pipeline")
		}

		if err := os.MkdirAll(cfg.WorkingDir, 0o755); err != nil {
			return fmt.Errorf("failed to create working directory: %w", err)
		}

		imagingProcessor, err := imaging.New(s.log, cfg.CascadePath)
		if err != nil {
			s.log.Errorf("Failed to initialize imaging processor: %v", err)
			return fmt.Errorf("failed to create imaging processor: %w", err)
		}

		biometricMatcher, err := biometric.New(s.log, cfg.FaceModelDir)
		if err != nil {
			s.log.Errorf("Failed to initialize face matcher: %v", err)
			return fmt.Errorf("failed to create face matcher: %w", err)
		}

		s.pipelineCfg = cfg
		s.imagingProcessor = imagingProcessor
		s.biometricMatcher = biometricMatcher
		s.ocrEngine = ocr.New(s.log, cfg.OCRLanguages)
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New()
		return nil
	}
}

func WithBcryptUtils() ServerOption {
	return func(s *Server) error {
		s.bcryptUtils = bcrypt.New()
		return nil
	}
}

func (s *Server) RegisterHandler() {
	// Auth Domain
	authRepo := authRepository.New(s.db, s.log)
	authServices := authService.New(s.log, authRepo, s.bcryptUtils, s.utils)
	authHandlers := authHandler.New(s.log, s.validator, s.middleware, authServices)

	// Registration Domain
	registrationRepo := registrationRepository.New(s.db, s.log)
	registrationServices := registrationService.New(
		s.log,
		registrationRepo,
		s.imagingProcessor,
		s.ocrEngine,
		s.biometricMatcher,
		s.redisServer,
		s.s3Client,
		s.utils,
		s.pipelineCfg.WorkingDir,
	)
	registrationHandlers := registrationHandler.New(s.log, s.validator, s.middleware, registrationServices, s.utils)

	s.setupHealthCheck()
	s.handlers = append(s.handlers, authHandlers, registrationHandlers)
}

func (s *Server) Run() error {
	router := s.engine.Group("/api/v1")
	s.engine.Use(s.middleware.NewRequestIDMiddleware())

	for _, h := range s.handlers {
		h.Start(router)
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "3000"
	}

	if err := s.engine.Listen(fmt.Sprintf(":%s", port)); err != nil {
		if s.biometricMatcher != nil {
			s.biometricMatcher.Close()
		}
		return err
	}

	return nil
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"message": "Server is Healthy!",
		})
	})
}
