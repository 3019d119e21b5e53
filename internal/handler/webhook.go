package handler

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tareksakakini/SipLocal-sub003/internal/apperr"
	"github.com/tareksakakini/SipLocal-sub003/internal/service"
)

// SignatureHeader carries the provider HMAC over the callback URL and body.
const SignatureHeader = "x-square-hmacsha256-signature"

type WebhookHandler struct {
	webhookService service.WebhookService
}

func NewWebhookHandler(webhookService service.WebhookService) *WebhookHandler {
	return &WebhookHandler{
		webhookService: webhookService,
	}
}

// HandleWebhook answers with a bare status: 401 for bad signatures, 400 for
// unparseable payloads, 500 when processing should be retried, 200 once the
// event is processed or intentionally discarded. The delivery side has no
// use for a semantic error body.
func (h *WebhookHandler) HandleWebhook(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.NoContent(http.StatusBadRequest)
	}

	signature := c.Request().Header.Get(SignatureHeader)

	if err := h.webhookService.HandleWebhook(ctx, signature, body); err != nil {
		switch apperr.CodeOf(err) {
		case apperr.CodeSignatureInvalid:
			return c.NoContent(http.StatusUnauthorized)
		case apperr.CodeInvalidArgument:
			return c.NoContent(http.StatusBadRequest)
		default:
			c.Logger().Error(err)
			return c.NoContent(http.StatusInternalServerError)
		}
	}

	return c.NoContent(http.StatusOK)
}
