package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/cmdguard/internal/insight"
	"github.com/xxxsen/cmdguard/internal/pkg/errcode"
	appErr "github.com/xxxsen/cmdguard/internal/pkg/errors"
	"github.com/xxxsen/cmdguard/internal/pkg/response"
)

const maxTopN = 100

type InsightProvider interface {
	Insights(ctx context.Context, n int) (*insight.Report, error)
	State() string
}

type InsightHandler struct {
	insights InsightProvider
}

func NewInsightHandler(insights InsightProvider) *InsightHandler {
	return &InsightHandler{insights: insights}
}

func (h *InsightHandler) Insights(c *gin.Context) {
	n := 0
	if raw := c.Query("top_n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 || v > maxTopN {
			response.Error(c, errcode.ErrInvalid, "invalid top_n")
			return
		}
		n = v
	}
	report, err := h.insights.Insights(c.Request.Context(), n)
	if err != nil {
		if appErr.IsInitialization(err) {
			response.Error(c, errcode.ErrDatasetUnavailable, err.Error())
			return
		}
		handleError(c, err)
		return
	}
	response.Success(c, report)
}
