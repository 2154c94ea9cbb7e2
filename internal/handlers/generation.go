package handlers

import (
  "fmt"
  "net/http"

  "github.com/gin-gonic/gin"

  "github.com/paceline/paceline-backend/internal/services"
)

type GenerationHandler struct {
  generationService services.GenerationService
  repairService     services.RepairService
}

func NewGenerationHandler(generationService services.GenerationService, repairService services.RepairService) *GenerationHandler {
  return &GenerationHandler{generationService: generationService, repairService: repairService}
}

func (gh *GenerationHandler) GenerateQuestions(c *gin.Context) {
  var req struct {
    Count int `json:"count"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_argument", fmt.Errorf("invalid request body"))
    return
  }
  result, err := gh.generationService.GenerateQuestionsBatch(c.Request.Context(), req.Count)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  c.JSON(http.StatusCreated, gin.H{
    "message":      fmt.Sprintf("generated %d of %d questions", len(result.Questions), result.RequestedCount),
    "questions":    result.Questions,
    "failed_count": len(result.Failures),
    "failures":     result.Failures,
  })
}

func (gh *GenerationHandler) GenerateAnswers(c *gin.Context) {
  var req struct {
    Count int    `json:"count"`
    Mode  string `json:"mode"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_argument", fmt.Errorf("invalid request body"))
    return
  }
  result, err := gh.generationService.GenerateAnswersBatch(c.Request.Context(), req.Count, req.Mode)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  if result.EligibleTargets == 0 {
    RespondError(c, http.StatusNotFound, "no_eligible_questions", fmt.Errorf("no questions are eligible for AI answers"))
    return
  }
  c.JSON(http.StatusCreated, gin.H{
    "message":         fmt.Sprintf("generated %d answers for %d eligible questions", len(result.Answers), result.EligibleTargets),
    "generated_count": len(result.Answers),
    "failed_count":    len(result.Failures),
    "failures":        result.Failures,
  })
}

func (gh *GenerationHandler) ReconcileLinks(c *gin.Context) {
  result, err := gh.repairService.ReconcileAnswerLinks(c.Request.Context())
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, result)
}
