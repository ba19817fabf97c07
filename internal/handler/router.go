package handler

import (
	"github.com/gin-gonic/gin"
)

type RouterDeps struct {
	Predict  *PredictHandler
	Insights *InsightHandler
	Pages    *PageHandler
	// PredictLimit guards the model endpoints, nil means unlimited.
	PredictLimit gin.HandlerFunc
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/pages", deps.Pages.Pages)
	api.GET("/health", deps.Pages.Health)

	limited := api.Group("")
	if deps.PredictLimit != nil {
		limited.Use(deps.PredictLimit)
	}
	limited.POST("/predict", deps.Predict.Predict)
	limited.GET("/insights", deps.Insights.Insights)
}
