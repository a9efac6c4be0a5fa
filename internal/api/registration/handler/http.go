package registrationHandler

import (
	registrationService "ekyc-backend/internal/api/registration/service"
	"ekyc-backend/internal/middleware"
	"ekyc-backend/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

type RegistrationHandler struct {
	log                 *logrus.Logger
	validator           *validator.Validate
	middleware          middleware.Middleware
	registrationService registrationService.IRegistrationService
	utils               utils.IUtils
}

func New(
	log *logrus.Logger,
	validator *validator.Validate,
	middleware middleware.Middleware,
	rs registrationService.IRegistrationService,
	utils utils.IUtils,
) *RegistrationHandler {
	return &RegistrationHandler{
		registrationService: rs,
		log:                 log,
		validator:           validator,
		middleware:          middleware,
		utils:               utils,
	}
}

func (h *RegistrationHandler) Start(srv fiber.Router) {
	srv.Post("/registrations", h.middleware.NewRateLimiter, h.middleware.NewTokenMiddleware, h.RegisterIdentity)
	srv.Get("/registrations", h.middleware.NewTokenMiddleware, h.ListRegistrations)

	wsMiddleware := func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}

	detection := srv.Group("/detection/document")
	detection.Use("/ws", wsMiddleware)
	detection.Get("/ws", websocket.New(h.handleDocumentWebSocket))
}
