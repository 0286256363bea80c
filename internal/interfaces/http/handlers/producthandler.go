package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/keygate-inc/keygate/internal/application/activation/dto"
	"github.com/keygate-inc/keygate/internal/shared/logger"
	"github.com/keygate-inc/keygate/internal/shared/utils"
)

type activateUseCase interface {
	Execute(ctx context.Context, cmd dto.ActivateCommand) (*dto.ActivateResult, error)
}

type deactivateUseCase interface {
	Execute(ctx context.Context, cmd dto.DeactivateCommand) (*dto.DeactivateResult, error)
}

type checkUseCase interface {
	Execute(ctx context.Context, cmd dto.CheckCommand) (*dto.CheckResult, error)
}

// ProductHandler serves the product API used by installed software.
type ProductHandler struct {
	activateUC   activateUseCase
	deactivateUC deactivateUseCase
	checkUC      checkUseCase
	logger       logger.Interface
}

func NewProductHandler(
	activateUC activateUseCase,
	deactivateUC deactivateUseCase,
	checkUC checkUseCase,
	logger logger.Interface,
) *ProductHandler {
	return &ProductHandler{
		activateUC:   activateUC,
		deactivateUC: deactivateUC,
		checkUC:      checkUC,
		logger:       logger,
	}
}

// Activate godoc
//
//	@Summary		Activate an installation
//	@Description	Takes a seat on the key's license. Activating an instance that already holds a seat returns it unchanged.
//	@Tags			product
//	@Accept			json
//	@Produce		json
//	@Param			X-License-Key	header		string				true	"License key"
//	@Param			request			body		dto.ActivateRequest	true	"Instance to activate"
//	@Success		201				{object}	utils.APIResponse{data=dto.ActivateResult}
//	@Success		200				{object}	utils.APIResponse{data=dto.ActivateResult}
//	@Failure		403				{object}	utils.APIResponse
//	@Failure		409				{object}	utils.APIResponse
//	@Router			/api/v1/product/activate [post]
func (h *ProductHandler) Activate(c *gin.Context) {
	key, err := licenseKeyFrom(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	var req dto.ActivateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, "invalid request body for activate", bindError(err))
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		respondError(c, h.logger, "invalid request body for activate", err)
		return
	}

	result, err := h.activateUC.Execute(c.Request.Context(), dto.ActivateCommand{
		LicenseKey:         key,
		ProductSlug:        req.ProductSlug,
		InstanceIdentifier: req.InstanceIdentifier,
		InstanceType:       req.InstanceType,
		Metadata:           req.InstanceMetadata,
	})
	if err != nil {
		respondError(c, h.logger, "activation failed", err, "product_slug", req.ProductSlug)
		return
	}

	if result.AlreadyActive {
		utils.SuccessResponse(c, http.StatusOK, "Instance already active", result)
		return
	}
	utils.CreatedResponse(c, result, "Instance activated successfully")
}

// Deactivate godoc
//
//	@Summary	Release an installation's seats
//	@Tags		product
//	@Accept		json
//	@Produce	json
//	@Param		X-License-Key	header		string					true	"License key"
//	@Param		request			body		dto.DeactivateRequest	true	"Instance to release"
//	@Success	200				{object}	utils.APIResponse{data=dto.DeactivateResult}
//	@Failure	404				{object}	utils.APIResponse
//	@Router		/api/v1/product/deactivate [post]
func (h *ProductHandler) Deactivate(c *gin.Context) {
	key, err := licenseKeyFrom(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	var req dto.DeactivateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, "invalid request body for deactivate", bindError(err))
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		respondError(c, h.logger, "invalid request body for deactivate", err)
		return
	}

	result, err := h.deactivateUC.Execute(c.Request.Context(), dto.DeactivateCommand{
		LicenseKey:         key,
		InstanceIdentifier: req.InstanceIdentifier,
	})
	if err != nil {
		respondError(c, h.logger, "deactivation failed", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// Status godoc
//
//	@Summary	Check a license key
//	@Tags		product
//	@Produce	json
//	@Param		X-License-Key		header		string	true	"License key"
//	@Param		instance_identifier	query		string	false	"Installation to report on"
//	@Success	200					{object}	utils.APIResponse{data=dto.CheckResult}
//	@Failure	404					{object}	utils.APIResponse
//	@Router		/api/v1/product/status [get]
func (h *ProductHandler) Status(c *gin.Context) {
	key, err := licenseKeyFrom(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.checkUC.Execute(c.Request.Context(), dto.CheckCommand{
		LicenseKey:         key,
		InstanceIdentifier: strings.TrimSpace(c.Query("instance_identifier")),
	})
	if err != nil {
		respondError(c, h.logger, "status check failed", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}
