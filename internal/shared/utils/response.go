package utils

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/keygate-inc/keygate/internal/shared/constants"
	"github.com/keygate-inc/keygate/internal/shared/errors"
)

// APIResponse represents a standard API response structure
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

// ErrorInfo represents error information in API response
type ErrorInfo struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
	EntityID  string `json:"entity_id,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

// SuccessResponse sends a successful response with custom status code
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, APIResponse{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// CreatedResponse sends a created response
func CreatedResponse(c *gin.Context, data interface{}, message ...string) {
	response := APIResponse{
		Success: true,
		Data:    data,
	}

	if len(message) > 0 {
		response.Message = message[0]
	} else {
		response.Message = "Resource created successfully"
	}

	c.JSON(http.StatusCreated, response)
}

// MarshalSuccess renders a success envelope to bytes so it can be stored and replayed verbatim.
func MarshalSuccess(message string, data interface{}) ([]byte, error) {
	return json.Marshal(APIResponse{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// RawJSONResponse writes pre-rendered JSON bytes unchanged.
func RawJSONResponse(c *gin.Context, statusCode int, body []byte) {
	c.Data(statusCode, constants.ContentTypeJSON, body)
}

// ErrorResponse sends an error response with custom status code and message
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, APIResponse{
		Success: false,
		Error: &ErrorInfo{
			Type:    "error",
			Message: message,
		},
	})
}

// ErrorResponseWithError sends an error response based on error type
func ErrorResponseWithError(c *gin.Context, err error) {
	statusCode, info := errorInfo(err)
	c.JSON(statusCode, APIResponse{
		Success: false,
		Error:   &info,
	})
}

func errorInfo(err error) (int, ErrorInfo) {
	appErr := errors.GetAppError(err)
	if appErr == nil {
		// For non-AppError, do not expose internal error details to prevent information leakage
		return http.StatusInternalServerError, ErrorInfo{
			Type:    string(errors.ErrorTypeInternal),
			Message: constants.ErrMsgInternalServerError,
		}
	}
	return appErr.Code, ErrorInfo{
		Type:      string(appErr.Type),
		Message:   appErr.Message,
		Details:   appErr.Details,
		EntityID:  appErr.EntityID,
		Retryable: appErr.Retryable,
	}
}
