package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/tareksakakini/SipLocal-sub003/internal/apperr"
	"github.com/tareksakakini/SipLocal-sub003/internal/dto"
	"github.com/tareksakakini/SipLocal-sub003/internal/model"
	"github.com/tareksakakini/SipLocal-sub003/internal/service"
)

type CredentialHandler struct {
	credentialService service.CredentialService
}

func NewCredentialHandler(credentialService service.CredentialService) *CredentialHandler {
	return &CredentialHandler{
		credentialService: credentialService,
	}
}

func (h *CredentialHandler) GetCredential(c echo.Context) error {
	ctx := c.Request().Context()

	merchantID := c.QueryParam("merchantId")
	if merchantID == "" {
		return respondError(c, apperr.InvalidArgument("merchantId is required"))
	}

	cred, err := h.credentialService.Resolve(ctx, merchantID)
	if err != nil {
		return respondError(c, err)
	}

	return respondOK(c, &dto.CredentialResponse{
		MerchantID:  cred.MerchantID,
		AccessToken: cred.AccessToken,
		LocationID:  cred.LocationID,
	})
}

func (h *CredentialHandler) UpsertCredential(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CredentialRequest
	if err := decodeRequest(c, &req); err != nil {
		return respondError(c, err)
	}
	if req.MerchantID == "" || req.AccessToken == "" {
		return respondError(c, apperr.InvalidArgument("merchant_id and access_token are required"))
	}

	err := h.credentialService.Upsert(ctx, &model.MerchantCredential{
		MerchantID:  req.MerchantID,
		POSType:     req.POSType,
		AccessToken: req.AccessToken,
		LocationID:  req.LocationID,
	})
	if err != nil {
		return respondError(c, err)
	}

	return respondOK(c, &dto.SuccessResponse{Success: true})
}
