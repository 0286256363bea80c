package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/keygate-inc/keygate/internal/domain/tenant"
	"github.com/keygate-inc/keygate/internal/shared/constants"
	"github.com/keygate-inc/keygate/internal/shared/errors"
	"github.com/keygate-inc/keygate/internal/shared/logger"
	"github.com/keygate-inc/keygate/internal/shared/utils"
)

func tenantFrom(c *gin.Context) (tenant.Context, error) {
	v, exists := c.Get(constants.ContextKeyTenant)
	tc, ok := v.(tenant.Context)
	if !exists || !ok {
		return tenant.Context{}, errors.NewUnauthorizedError(constants.ErrMsgUnauthorized)
	}
	return tc, nil
}

func licenseKeyFrom(c *gin.Context) (string, error) {
	key := c.GetString(constants.ContextKeyLicense)
	if key == "" {
		return "", errors.NewUnauthorizedError("missing " + constants.HeaderLicenseKey + " header")
	}
	return key, nil
}

func bindError(err error) error {
	return errors.NewValidationError(constants.ErrMsgValidationFailed, err.Error())
}

// respondError writes err and logs it once. Client errors log at warn, the rest at error.
func respondError(c *gin.Context, log logger.Interface, msg string, err error, keysAndValues ...interface{}) {
	args := append([]interface{}{
		"error", err,
		"request_id", c.GetString(constants.ContextKeyRequestID),
	}, keysAndValues...)

	appErr := errors.GetAppError(err)
	if appErr == nil || appErr.Code >= 500 {
		log.Errorw(msg, args...)
	} else {
		log.Warnw(msg, args...)
	}
	utils.ErrorResponseWithError(c, err)
}
