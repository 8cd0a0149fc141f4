package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	platformerrors "github.com/mengzhisuoliu/easyVoice/internal/platform/errors"
)

// APIResponse is the uniform reply envelope of the web layer.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Message string      `json:"message"`
	Code    int         `json:"code"`
}

func respond(c *gin.Context, httpStatus int, success bool, message string, data interface{}) {
	if message == "" {
		if success {
			message = "ok"
		} else {
			message = http.StatusText(httpStatus)
		}
	}

	resp := APIResponse{
		Success: success,
		Message: message,
		Code:    httpStatus,
	}
	if data == nil {
		resp.Data = gin.H{}
	} else {
		resp.Data = data
	}

	c.JSON(httpStatus, resp)
}

func respondSuccess(c *gin.Context, httpStatus int, data interface{}, message string) {
	respond(c, httpStatus, true, message, data)
}

func respondError(c *gin.Context, httpStatus int, message string, data interface{}) {
	respond(c, httpStatus, false, message, data)
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch platformerrors.KindOf(err) {
	case platformerrors.KindValidation:
		return http.StatusBadRequest
	case platformerrors.KindConnect, platformerrors.KindConnectTimeout,
		platformerrors.KindTransport, platformerrors.KindAbnormalClose,
		platformerrors.KindSynthesisTimeout:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
