package registrationHandler

import (
	"strconv"
	"strings"
	"time"

	"ekyc-backend/internal/api/registration"
	"ekyc-backend/internal/entity"
	contextPkg "ekyc-backend/pkg/context"
	"ekyc-backend/pkg/handlerUtil"
	"ekyc-backend/pkg/log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"golang.org/x/net/context"
)

func (h *RegistrationHandler) RegisterIdentity(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 30*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing identity registration request")

	documentType := entity.DocumentType(strings.ToUpper(strings.TrimSpace(ctx.FormValue("document_type"))))
	if !documentType.Valid() {
		return errHandler.Handle(ctx, requestID, registration.ErrInvalidDocumentType, ctx.Path(), "parse_document_type")
	}

	documentImage, err := h.readImageField(ctx, "document")
	if err != nil {
		return errHandler.Handle(ctx, requestID, registration.ErrNoDocumentImage, ctx.Path(), "read_document_image")
	}

	faceImage, err := h.readImageField(ctx, "face")
	if err != nil {
		return errHandler.Handle(ctx, requestID, registration.ErrNoFaceImage, ctx.Path(), "read_face_image")
	}

	res, err := h.registrationService.RegisterIdentity(c, registration.RegisterRequest{
		DocumentType:  documentType,
		DocumentImage: documentImage,
		FaceImage:     faceImage,
	})
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "register_identity")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		h.log.WithFields(log.Fields{
			"request_id":    requestID,
			"path":          ctx.Path(),
			"record_id":     res.Data.ID,
			"document_type": res.Data.DocumentType,
		}).Info("Identity registration successful")
		return errHandler.HandleSuccess(ctx, fiber.StatusCreated, res)
	}
}

func (h *RegistrationHandler) ListRegistrations(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 5*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	documentType := entity.DocumentType(strings.ToUpper(strings.TrimSpace(ctx.Query("document_type"))))
	limit, _ := strconv.Atoi(ctx.Query("limit"))

	records, err := h.registrationService.ListRegistrations(c, documentType, limit)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "list_registrations")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, registration.ListRegistrationsResponse{
			Data: records,
		})
	}
}

func (h *RegistrationHandler) readImageField(ctx *fiber.Ctx, field string) ([]byte, error) {
	file, err := ctx.FormFile(field)
	if err != nil {
		return nil, err
	}

	if err := h.utils.ValidateImageFile(file); err != nil {
		return nil, err
	}

	fileContent, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer fileContent.Close()

	return h.utils.ReadFileBytes(fileContent)
}

func (h *RegistrationHandler) handleDocumentWebSocket(c *websocket.Conn) {
	h.log.Info("Document detection WebSocket client connected")
	defer h.log.Info("Document detection WebSocket client disconnected")

	c.SetPingHandler(func(data string) error {
		if err := c.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(5*time.Second)); err != nil {
			h.log.Errorf("Error sending pong: %v", err)
		}
		return nil
	})

	maxReadTimeout := 60 * time.Second

	for {
		if err := c.SetReadDeadline(time.Now().Add(maxReadTimeout)); err != nil {
			h.log.Errorf("Error setting read deadline: %v", err)
			break
		}

		messageType, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Errorf("Document detection WebSocket error: %v", err)
			} else {
				h.log.Info("Document detection WebSocket connection closed")
			}
			break
		}

		if messageType != websocket.BinaryMessage {
			h.log.Warnf("Received unexpected message type: %d", messageType)
			continue
		}

		result, err := h.registrationService.DetectDocumentFrame(message)
		if err != nil {
			h.log.Errorf("Error processing document frame: %v", err)
			if writeErr := c.WriteJSON(map[string]string{"error": err.Error()}); writeErr != nil {
				h.log.Errorf("Error sending error response: %v", writeErr)
				break
			}
			continue
		}

		if err := c.SetWriteDeadline(time.Now().Add(10 * time.Second)); err != nil {
			h.log.Errorf("Error setting write deadline: %v", err)
			break
		}

		if err := c.WriteJSON(result); err != nil {
			h.log.Errorf("Error writing JSON response: %v", err)
			break
		}

		if err := c.SetWriteDeadline(time.Time{}); err != nil {
			h.log.Errorf("Error resetting write deadline: %v", err)
			break
		}
	}
}
