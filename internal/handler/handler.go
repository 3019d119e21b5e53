package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tareksakakini/SipLocal-sub003/internal/apperr"
	"github.com/tareksakakini/SipLocal-sub003/internal/dto"
)

// decodeRequest reads the body into out, unwrapping a single `data` envelope
// if present. Some clients double-wrap their payloads; unwrapping happens
// here, once, and nowhere else.
func decodeRequest(c echo.Context, out interface{}) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return apperr.InvalidArgument("unreadable request body")
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Data) > 0 {
		body = envelope.Data
	}

	if err := json.Unmarshal(body, out); err != nil {
		return apperr.InvalidArgument("malformed request body")
	}
	return nil
}

// respondError maps a service error onto the structured error response.
func respondError(c echo.Context, err error) error {
	code := apperr.CodeOf(err)

	message := "internal error"
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	if code == apperr.CodeInternal {
		// Don't leak internals to callers; the full chain goes to the log
		// via echo's error handler.
		c.Logger().Error(err)
	}

	return c.JSON(apperr.HTTPStatus(code), &dto.ErrorResponse{
		Error: dto.ErrorBody{
			Code:    string(code),
			Message: message,
		},
	})
}

func respondOK(c echo.Context, payload interface{}) error {
	return c.JSON(http.StatusOK, payload)
}
