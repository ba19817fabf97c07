package handler

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/cmdguard/internal/model"
	"github.com/xxxsen/cmdguard/internal/pkg/errcode"
	"github.com/xxxsen/cmdguard/internal/pkg/response"
)

type Predictor interface {
	Classify(ctx context.Context, text string) (*model.PredictionResult, error)
	State() string
}

type PredictHandler struct {
	predictor Predictor
}

func NewPredictHandler(predictor Predictor) *PredictHandler {
	return &PredictHandler{predictor: predictor}
}

type predictRequest struct {
	Text *string `json:"text" binding:"required"`
}

type predictResponse struct {
	IsMalicious        bool    `json:"is_malicious"`
	Probability        float64 `json:"probability"`
	ProbabilityPercent string  `json:"probability_percent"`
	Threshold          float64 `json:"threshold"`
}

func (h *PredictHandler) Predict(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	res, err := h.predictor.Classify(c.Request.Context(), *req.Text)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, predictResponse{
		IsMalicious:        res.IsMalicious,
		Probability:        res.Probability,
		ProbabilityPercent: fmt.Sprintf("%.4f", res.Percent()),
		Threshold:          res.Threshold,
	})
}
