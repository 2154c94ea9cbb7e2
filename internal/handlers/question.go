package handlers

import (
  "fmt"
  "net/http"
  "strconv"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/paceline/paceline-backend/internal/services"
)

type QuestionHandler struct {
  questionService services.QuestionService
}

func NewQuestionHandler(questionService services.QuestionService) *QuestionHandler {
  return &QuestionHandler{questionService: questionService}
}

func (qh *QuestionHandler) Create(c *gin.Context) {
  var req struct {
    Title   string   `json:"title"`
    Content string   `json:"content"`
    Tags    []string `json:"tags"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_argument", fmt.Errorf("invalid request body"))
    return
  }
  question, err := qh.questionService.Create(c.Request.Context(), services.CreateQuestionInput{
    Title:   req.Title,
    Content: req.Content,
    Tags:    req.Tags,
  })
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  c.JSON(http.StatusCreated, question)
}

func (qh *QuestionHandler) Get(c *gin.Context) {
  questionID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_argument", fmt.Errorf("invalid question id"))
    return
  }
  question, err := qh.questionService.Get(c.Request.Context(), questionID)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, question)
}

func (qh *QuestionHandler) List(c *gin.Context) {
  page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
  limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
  questions, total, err := qh.questionService.List(c.Request.Context(), services.ListQuestionsInput{
    Tag:    c.Query("tag"),
    Search: c.Query("search"),
    Page:   page,
    Limit:  limit,
  })
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{"questions": questions, "total": total, "page": page})
}

func (qh *QuestionHandler) Update(c *gin.Context) {
  questionID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_argument", fmt.Errorf("invalid question id"))
    return
  }
  var req struct {
    Title   string   `json:"title"`
    Content string   `json:"content"`
    Tags    []string `json:"tags"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_argument", fmt.Errorf("invalid request body"))
    return
  }
  question, err := qh.questionService.Update(c.Request.Context(), questionID, services.UpdateQuestionInput{
    Title:   req.Title,
    Content: req.Content,
    Tags:    req.Tags,
  })
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, question)
}

func (qh *QuestionHandler) Delete(c *gin.Context) {
  questionID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_argument", fmt.Errorf("invalid question id"))
    return
  }
  if err := qh.questionService.Delete(c.Request.Context(), questionID); err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{"message": "question deleted"})
}

func (qh *QuestionHandler) SetBestAnswer(c *gin.Context) {
  questionID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_argument", fmt.Errorf("invalid question id"))
    return
  }
  answerID, err := uuid.Parse(c.Param("answerId"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_argument", fmt.Errorf("invalid answer id"))
    return
  }
  if err := qh.questionService.SetBestAnswer(c.Request.Context(), questionID, answerID); err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{"message": "best answer set"})
}

func (qh *QuestionHandler) ListTags(c *gin.Context) {
  tags, err := qh.questionService.ListTags(c.Request.Context())
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{"tags": tags})
}
