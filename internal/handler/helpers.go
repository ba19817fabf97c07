package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/cmdguard/internal/middleware"
	"github.com/xxxsen/cmdguard/internal/pkg/errcode"
	appErr "github.com/xxxsen/cmdguard/internal/pkg/errors"
	"github.com/xxxsen/cmdguard/internal/pkg/response"
)

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID, _ := c.Get(middleware.ContextRequestIDKey)
	logutil.GetLogger(c.Request.Context()).Warn("request failed",
		zap.Any("request_id", requestID),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	switch {
	case appErr.IsInitialization(err):
		response.Error(c, errcode.ErrModelUnavailable, err.Error())
	case appErr.IsDataFormat(err):
		response.Error(c, errcode.ErrDataFormat, err.Error())
	case appErr.IsValidation(err):
		response.Error(c, errcode.ErrValidation, err.Error())
	case appErr.IsNotFound(err):
		response.Error(c, errcode.ErrNotFound, "not found")
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}
