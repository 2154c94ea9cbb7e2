package handlers

import (
  "fmt"
  "net/http"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/paceline/paceline-backend/internal/services"
)

type AnswerHandler struct {
  answerService services.AnswerService
}

func NewAnswerHandler(answerService services.AnswerService) *AnswerHandler {
  return &AnswerHandler{answerService: answerService}
}

func (ah *AnswerHandler) Create(c *gin.Context) {
  questionID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_argument", fmt.Errorf("invalid question id"))
    return
  }
  var req struct {
    Content string `json:"content"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_argument", fmt.Errorf("invalid request body"))
    return
  }
  answer, err := ah.answerService.Create(c.Request.Context(), questionID, req.Content)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  c.JSON(http.StatusCreated, answer)
}

func (ah *AnswerHandler) Delete(c *gin.Context) {
  answerID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_argument", fmt.Errorf("invalid answer id"))
    return
  }
  if err := ah.answerService.Delete(c.Request.Context(), answerID); err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{"message": "answer deleted"})
}

func (ah *AnswerHandler) ToggleLike(c *gin.Context) {
  answerID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_argument", fmt.Errorf("invalid answer id"))
    return
  }
  answer, err := ah.answerService.ToggleLike(c.Request.Context(), answerID)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{"id": answer.ID, "likes": answer.Likes})
}
