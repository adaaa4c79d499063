package v1

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vetlink/vetlink/internal/service"
)

type PredictionHandler struct {
	predictions *service.PredictionService
}

func NewPredictionHandler(predictions *service.PredictionService) *PredictionHandler {
	return &PredictionHandler{predictions: predictions}
}

func (h *PredictionHandler) PredictDisease(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}

	var req service.DiseaseInput
	if !bindJSON(c, &req) {
		return
	}

	prediction, err := h.predictions.PredictDisease(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"prediction": prediction, "analysis_id": prediction.AnalysisID})
}

func (h *PredictionHandler) PredictMultiDisease(c *gin.Context) {
	var req service.MultiDiseaseInput
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.predictions.PredictMultiDisease(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"result": result})
}

func (h *PredictionHandler) GaitHistory(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}

	analyses, err := h.predictions.ListGaitHistory(c.Request.Context(), claims.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, analyses)
}

func (h *PredictionHandler) AnalyzeLimping(c *gin.Context) {
	file, header, err := c.Request.FormFile("video")
	if err != nil {
		respondError(c, http.StatusBadRequest, "video file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		respondError(c, http.StatusBadRequest, "could not read video upload")
		return
	}

	result, err := h.predictions.AnalyzeLimping(c.Request.Context(), header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"result": result})
}

func (h *PredictionHandler) DetectPose(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		respondError(c, http.StatusBadRequest, "could not read upload")
		return
	}

	kind := c.PostForm("type")
	if kind == "" {
		kind = "image"
	}

	result, err := h.predictions.AnalyzePose(c.Request.Context(), kind, header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"result": result})
}

func (h *PredictionHandler) PredictDemand(c *gin.Context) {
	var req service.DemandInput
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.predictions.PredictDemand(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"prediction": result})
}
