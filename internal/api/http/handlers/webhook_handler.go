package handlers

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/dispatch-service/internal/api/dto"
	"github.com/spec-kit/dispatch-service/internal/auth"
	"github.com/spec-kit/dispatch-service/internal/config"
	"github.com/spec-kit/dispatch-service/internal/service"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util/errorutil"
)

// WebhookHandler receives signed identity-provider events.
type WebhookHandler struct {
	directory *service.DirectoryService
	cfg       config.IdentityConfig
	logger    *zap.Logger
}

// NewWebhookHandler constructs handler.
func NewWebhookHandler(directoryService *service.DirectoryService, cfg config.IdentityConfig, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{directory: directoryService, cfg: cfg, logger: logger}
}

// HandleIdentity POST /webhooks/identity. Verifies the HMAC signature before
// touching the payload; unverifiable deliveries are rejected 401 so the
// provider retries.
func (h *WebhookHandler) HandleIdentity(c *fiber.Ctx) error {
	body := c.Body()
	err := auth.VerifyWebhookSignature(
		h.cfg.WebhookSecret,
		c.Get("webhook-id"),
		c.Get("webhook-timestamp"),
		body,
		c.Get("webhook-signature"),
		h.cfg.WebhookTolerance,
		time.Now(),
	)
	if err != nil {
		h.logger.Warn("identity webhook rejected", zap.Error(err))
		return apperrors.NewUnauthorized("webhook verification failed")
	}

	var req dto.IdentityWebhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	event := service.IdentityEvent{
		Type:  req.Type,
		ID:    req.Data.ID,
		Email: primaryEmail(req.Data.EmailAddresses),
		Name:  strings.TrimSpace(req.Data.FirstName + " " + req.Data.LastName),
		Role:  req.Data.PublicMetadata.Role,
	}
	if err := h.directory.SyncIdentity(c.Context(), event); err != nil {
		return err
	}
	return c.JSON(dto.SuccessResponse{Success: true})
}

func primaryEmail(addresses []dto.IdentityWebhookEmail) string {
	if len(addresses) == 0 {
		return ""
	}
	return addresses[0].EmailAddress
}
