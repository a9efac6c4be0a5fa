package authHandler

import (
	authService "ekyc-backend/internal/api/auth/service"
	"ekyc-backend/internal/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type AuthHandler struct {
	log         *logrus.Logger
	validator   *validator.Validate
	middleware  middleware.Middleware
	authService authService.AuthService
}

func New(
	log *logrus.Logger,
	validator *validator.Validate,
	middleware middleware.Middleware,
	as authService.AuthService,
) *AuthHandler {
	return &AuthHandler{
		authService: as,
		log:         log,
		validator:   validator,
		middleware:  middleware,
	}
}

func (h *AuthHandler) Start(srv fiber.Router) {
	auth := srv.Group("/auth")
	auth.Post("/register", h.middleware.NewRateLimiter, h.RegisterOperator)
	auth.Post("/login", h.middleware.NewRateLimiter, h.Login)
	auth.Get("/me", h.middleware.NewTokenMiddleware, h.GetProfile)
}
