package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/webapi/proxyutil"

	"github.com/xxxsen/cmdguard/internal/pkg/errcode"
)

type ErrorData struct {
	Reason string `json:"reason"`
}

func Success(c *gin.Context, data interface{}) {
	proxyutil.SuccessJson(c, data)
}

// Error always answers with http 200. The failure lives in the code field and
// its symbolic name in data.reason.
func Error(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(http.StatusOK, &proxyutil.CommonResponse{
		Code:    uint32(code),
		Message: message,
		Data:    ErrorData{Reason: errcode.Name(code)},
	})
}
