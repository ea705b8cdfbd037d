package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	CodeOK               = 0
	CodeBadRequest       = 40000
	CodeEmptyQuestion    = 40001
	CodeNoSelection      = 40002
	CodeNotFound         = 40400
	CodeBlockNotFound    = 40401
	CodeExchangeInFlight = 40901
	CodeUploadInProgress = 40902
	CodeInternalServer   = 50000
	CodeBackendFailure   = 50200
)

type APIResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Code:    CodeOK,
		Message: "ok",
		Data:    data,
	})
}

func Error(c *gin.Context, httpStatus, code int, message string) {
	c.JSON(httpStatus, APIResponse{
		Code:    code,
		Message: message,
	})
}

// Back sends a browser form post back to the page, optionally to an anchor.
func Back(c *gin.Context, anchor string) {
	target := "/"
	if anchor != "" {
		target += "#" + anchor
	}
	c.Redirect(http.StatusSeeOther, target)
}
