package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	commondto "github.com/keygate-inc/keygate/internal/application/common/dto"
	"github.com/keygate-inc/keygate/internal/application/idempotency"
	"github.com/keygate-inc/keygate/internal/application/licensing/dto"
	"github.com/keygate-inc/keygate/internal/domain/license"
	"github.com/keygate-inc/keygate/internal/domain/tenant"
	"github.com/keygate-inc/keygate/internal/shared/constants"
	"github.com/keygate-inc/keygate/internal/shared/errors"
	"github.com/keygate-inc/keygate/internal/shared/logger"
	"github.com/keygate-inc/keygate/internal/shared/utils"
)

// LicenseHandler serves the brand API.
type LicenseHandler struct {
	provisionUC  provisionLicenseUseCase
	renewUC      renewLicenseUseCase
	transitionUC transitionLicenseUseCase
	getUC        getLicenseUseCase
	listUC       listLicensesByEmailUseCase
	ledger       idempotencyLedger
	logger       logger.Interface
}

func NewLicenseHandler(
	provisionUC provisionLicenseUseCase,
	renewUC renewLicenseUseCase,
	transitionUC transitionLicenseUseCase,
	getUC getLicenseUseCase,
	listUC listLicensesByEmailUseCase,
	ledger idempotencyLedger,
	logger logger.Interface,
) *LicenseHandler {
	return &LicenseHandler{
		provisionUC:  provisionUC,
		renewUC:      renewUC,
		transitionUC: transitionUC,
		getUC:        getUC,
		listUC:       listUC,
		ledger:       ledger,
		logger:       logger,
	}
}

// Provision godoc
//
//	@Summary		Provision a license key
//	@Description	Creates a license key for a customer with one license per product. The plaintext key is returned only once.
//	@Tags			brand
//	@Accept			json
//	@Produce		json
//	@Param			X-API-Key		header		string					true	"Brand API key"
//	@Param			Idempotency-Key	header		string					false	"Replay guard for retries"
//	@Param			request			body		dto.ProvisionRequest	true	"Provision request"
//	@Success		201				{object}	utils.APIResponse{data=dto.ProvisionResult}
//	@Failure		400				{object}	utils.APIResponse
//	@Failure		403				{object}	utils.APIResponse
//	@Router			/api/v1/brand/licenses/provision [post]
func (h *LicenseHandler) Provision(c *gin.Context) {
	tc, err := tenantFrom(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	var req dto.ProvisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, "invalid request body for provision", bindError(err), "tenant_id", tc.BrandID)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		respondError(c, h.logger, "invalid request body for provision", err, "tenant_id", tc.BrandID)
		return
	}

	h.runIdempotent(c, tc, http.StatusCreated, "License key provisioned successfully", func(ctx context.Context) (any, error) {
		return h.provisionUC.Execute(ctx, dto.ProvisionCommand{
			Tenant:        tc,
			CustomerEmail: req.CustomerEmail,
			ProductIDs:    req.ProductIDs,
			SeatLimit:     req.SeatLimit,
			ExpiresAt:     req.ExpiresAt,
		})
	})
}

// Renew godoc
//
//	@Summary	Renew a license
//	@Tags		brand
//	@Accept		json
//	@Produce	json
//	@Param		X-API-Key		header		string				true	"Brand API key"
//	@Param		Idempotency-Key	header		string				false	"Replay guard for retries"
//	@Param		id				path		string				true	"License ID"
//	@Param		request			body		dto.RenewRequest	true	"New expiry"
//	@Success	200				{object}	utils.APIResponse{data=commondto.LicenseDTO}
//	@Failure	404				{object}	utils.APIResponse
//	@Failure	409				{object}	utils.APIResponse
//	@Router		/api/v1/brand/licenses/{id}/renew [post]
func (h *LicenseHandler) Renew(c *gin.Context) {
	tc, err := tenantFrom(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	licenseID := c.Param("id")
	var req dto.RenewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, "invalid request body for renew", bindError(err), "license_id", licenseID)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		respondError(c, h.logger, "invalid request body for renew", err, "license_id", licenseID)
		return
	}

	h.runIdempotent(c, tc, http.StatusOK, "License renewed successfully", func(ctx context.Context) (any, error) {
		return licenseOrNil(h.renewUC.Execute(ctx, dto.RenewCommand{
			Tenant:    tc,
			LicenseID: licenseID,
			ExpiresAt: req.ExpiresAt,
		}))
	})
}

// Suspend godoc
//
//	@Summary	Suspend a license
//	@Tags		brand
//	@Produce	json
//	@Param		X-API-Key		header		string	true	"Brand API key"
//	@Param		Idempotency-Key	header		string	false	"Replay guard for retries"
//	@Param		id				path		string	true	"License ID"
//	@Success	200				{object}	utils.APIResponse{data=commondto.LicenseDTO}
//	@Failure	409				{object}	utils.APIResponse
//	@Router		/api/v1/brand/licenses/{id}/suspend [post]
func (h *LicenseHandler) Suspend(c *gin.Context) {
	h.transition(c, license.ActionSuspend, "License suspended successfully")
}

// Resume godoc
//
//	@Summary	Resume a suspended license
//	@Tags		brand
//	@Produce	json
//	@Param		X-API-Key		header		string	true	"Brand API key"
//	@Param		Idempotency-Key	header		string	false	"Replay guard for retries"
//	@Param		id				path		string	true	"License ID"
//	@Success	200				{object}	utils.APIResponse{data=commondto.LicenseDTO}
//	@Failure	409				{object}	utils.APIResponse
//	@Router		/api/v1/brand/licenses/{id}/resume [post]
func (h *LicenseHandler) Resume(c *gin.Context) {
	h.transition(c, license.ActionResume, "License resumed successfully")
}

// Cancel godoc
//
//	@Summary	Cancel a license permanently
//	@Tags		brand
//	@Produce	json
//	@Param		X-API-Key		header		string	true	"Brand API key"
//	@Param		Idempotency-Key	header		string	false	"Replay guard for retries"
//	@Param		id				path		string	true	"License ID"
//	@Success	200				{object}	utils.APIResponse{data=commondto.LicenseDTO}
//	@Failure	409				{object}	utils.APIResponse
//	@Router		/api/v1/brand/licenses/{id}/cancel [post]
func (h *LicenseHandler) Cancel(c *gin.Context) {
	h.transition(c, license.ActionCancel, "License cancelled successfully")
}

func (h *LicenseHandler) transition(c *gin.Context, action license.Action, message string) {
	tc, err := tenantFrom(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	licenseID := c.Param("id")
	h.runIdempotent(c, tc, http.StatusOK, message, func(ctx context.Context) (any, error) {
		return licenseOrNil(h.transitionUC.Execute(ctx, dto.TransitionCommand{
			Tenant:    tc,
			LicenseID: licenseID,
			Action:    action,
		}))
	})
}

// licenseOrNil keeps a failed call from handing the ledger a typed nil body.
func licenseOrNil(l *commondto.LicenseDTO, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return l, nil
}

// GetLicense godoc
//
//	@Summary	Get a license with its seat usage
//	@Tags		brand
//	@Produce	json
//	@Param		X-API-Key	header		string	true	"Brand API key"
//	@Param		id			path		string	true	"License ID"
//	@Success	200			{object}	utils.APIResponse{data=commondto.LicenseDTO}
//	@Failure	404			{object}	utils.APIResponse
//	@Router		/api/v1/brand/licenses/{id} [get]
func (h *LicenseHandler) GetLicense(c *gin.Context) {
	tc, err := tenantFrom(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.getUC.Execute(c.Request.Context(), dto.GetLicenseQuery{
		Tenant:    tc,
		LicenseID: c.Param("id"),
	})
	if err != nil {
		respondError(c, h.logger, "failed to get license", err, "tenant_id", tc.BrandID, "license_id", c.Param("id"))
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// ListByEmail godoc
//
//	@Summary	List a customer's license keys
//	@Tags		brand
//	@Produce	json
//	@Param		X-API-Key	header		string	true	"Brand API key"
//	@Param		email		query		string	true	"Customer email"
//	@Success	200			{object}	utils.APIResponse{data=dto.ListByEmailResult}
//	@Failure	400			{object}	utils.APIResponse
//	@Router		/api/v1/brand/licenses [get]
func (h *LicenseHandler) ListByEmail(c *gin.Context) {
	tc, err := tenantFrom(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	email := strings.TrimSpace(c.Query("email"))
	if email == "" {
		utils.ErrorResponseWithError(c, errors.NewValidationError("email query parameter is required"))
		return
	}

	result, err := h.listUC.Execute(c.Request.Context(), dto.ListByEmailQuery{Tenant: tc, Email: email})
	if err != nil {
		respondError(c, h.logger, "failed to list licenses", err, "tenant_id", tc.BrandID)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// runIdempotent executes fn through the ledger and writes the recorded envelope.
// Replayed responses are byte-identical to the original and carry Idempotent-Replayed.
func (h *LicenseHandler) runIdempotent(c *gin.Context, tc tenant.Context, status int, message string, fn func(ctx context.Context) (any, error)) {
	token := strings.TrimSpace(c.GetHeader(constants.HeaderIdempotencyKey))

	resp, err := h.ledger.Execute(c.Request.Context(), tc.BrandID, token, func(ctx context.Context) (*idempotency.Response, error) {
		data, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		body, err := utils.MarshalSuccess(message, data)
		if err != nil {
			return nil, errors.NewInternalError("failed to encode response").WithCause(err)
		}
		return &idempotency.Response{StatusCode: status, Body: body}, nil
	})
	if err != nil {
		respondError(c, h.logger, "brand command failed", err,
			"tenant_id", tc.BrandID,
			"path", c.FullPath(),
			"license_id", c.Param("id"))
		return
	}

	if resp.Replayed {
		c.Header(constants.HeaderIdempotentReplay, "true")
	}
	utils.RawJSONResponse(c, resp.StatusCode, resp.Body)
}
