package handlerUtil

import (
	"errors"

	"ekyc-backend/internal/api/auth"
	"ekyc-backend/internal/api/registration"
	"ekyc-backend/pkg/log"
	"ekyc-backend/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/sirupsen/logrus"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

type ErrorHandler struct {
	logger *logrus.Logger
}

func New(logger *logrus.Logger) *ErrorHandler {
	return &ErrorHandler{
		logger: logger,
	}
}

func (h *ErrorHandler) Handle(c *fiber.Ctx, requestID string, err error, path string, operation string) error {
	var respErr *response.Error
	if errors.As(err, &respErr) {
		h.logger.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"code":       respErr.Code,
			"path":       path,
			"operation":  operation,
		}).Warn("Operation failed with error response")
		body := fiber.Map{"error": err.Error()}
		if code := errorCode(err); code != "" {
			body["code"] = code
		}
		return c.Status(respErr.Code).JSON(body)
	}

	h.logger.WithFields(log.Fields{
		"request_id": requestID,
		"error":      err.Error(),
		"path":       path,
		"operation":  operation,
	}).Error("Unexpected error")

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "An unexpected error occurred",
	})
}

// errorCode gives clients a stable identifier per failure, independent of the
// human-readable message.
func errorCode(err error) string {
	switch {
	case errors.Is(err, registration.ErrDuplicateIdentity):
		return "DUPLICATE_IDENTITY"
	case errors.Is(err, registration.ErrFaceVerificationFailed):
		return "FACE_VERIFICATION_FAILED"
	case errors.Is(err, registration.ErrFaceNotFound):
		return "FACE_NOT_FOUND"
	case errors.Is(err, registration.ErrDocumentRegionNotFound):
		return "DOCUMENT_NOT_FOUND"
	case errors.Is(err, registration.ErrTextExtractionFailed):
		return "TEXT_EXTRACTION_FAILED"
	case errors.Is(err, registration.ErrIDFieldMissing):
		return "ID_FIELD_MISSING"
	case errors.Is(err, registration.ErrEmbeddingFailed):
		return "EMBEDDING_FAILED"
	case errors.Is(err, registration.ErrInvalidDocumentType):
		return "INVALID_DOCUMENT_TYPE"
	case errors.Is(err, registration.ErrNoDocumentImage), errors.Is(err, registration.ErrNoFaceImage):
		return "MISSING_IMAGE"
	case errors.Is(err, registration.ErrDocumentUndecodable), errors.Is(err, registration.ErrFaceImageUndecodable):
		return "UNDECODABLE_IMAGE"
	case errors.Is(err, auth.ErrEmailAlreadyExists):
		return "EMAIL_ALREADY_EXISTS"
	case errors.Is(err, auth.ErrInvalidEmailOrPassword):
		return "INVALID_CREDENTIALS"
	case errors.Is(err, auth.ErrUserNotFound):
		return "USER_NOT_FOUND"
	default:
		return ""
	}
}

func (h *ErrorHandler) HandleValidationError(c *fiber.Ctx, requestID string, err error, path string) error {
	h.logger.WithFields(log.Fields{
		"request_id": requestID,
		"error":      err.Error(),
		"path":       path,
	}).Warn("Validation failed")

	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "Validation failed: " + err.Error(),
		"code":  "VALIDATION_ERROR",
	})
}

func (h *ErrorHandler) HandleRequestTimeout(c *fiber.Ctx) error {
	return c.Status(fiber.StatusRequestTimeout).JSON(utils.StatusMessage(fiber.StatusRequestTimeout))
}

func (h *ErrorHandler) HandleUnauthorized(c *fiber.Ctx, requestID string, message string) error {
	h.logger.WithFields(log.Fields{
		"request_id": requestID,
		"path":       c.Path(),
		"message":    message,
	}).Warn("Unauthorized access")

	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": message,
		"code":  "UNAUTHORIZED",
	})
}

func (h *ErrorHandler) HandleSuccess(c *fiber.Ctx, statusCode int, data interface{}) error {
	if data == nil {
		return c.SendStatus(statusCode)
	}
	return c.Status(statusCode).JSON(data)
}
