package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/cmdguard/internal/pkg/response"
	"github.com/xxxsen/cmdguard/internal/service"
)

type PageHandler struct {
	predictor Predictor
	insights  InsightProvider
}

func NewPageHandler(predictor Predictor, insights InsightProvider) *PageHandler {
	return &PageHandler{predictor: predictor, insights: insights}
}

func (h *PageHandler) Pages(c *gin.Context) {
	response.Success(c, gin.H{"items": service.Pages()})
}

func (h *PageHandler) Health(c *gin.Context) {
	response.Success(c, gin.H{
		"prediction": h.predictor.State(),
		"insights":   h.insights.State(),
	})
}
