package server

import (
  "github.com/gin-contrib/cors"
  "github.com/gin-gonic/gin"

  "github.com/paceline/paceline-backend/internal/handlers"
  "github.com/paceline/paceline-backend/internal/middleware"
)

type RouterConfig struct {
  AuthMiddleware      *middleware.AuthMiddleware
  AuthHandler         *handlers.AuthHandler
  UserHandler         *handlers.UserHandler
  QuestionHandler     *handlers.QuestionHandler
  AnswerHandler       *handlers.AnswerHandler
  NotificationHandler *handlers.NotificationHandler
  GenerationHandler   *handlers.GenerationHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  router := gin.Default()

  router.Use(cors.New(cors.Config{
    AllowOrigins: []string{
      "http://localhost:80",
      "http://localhost:3000",
      "http://localhost:5173",
    },
    AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
    AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
    AllowCredentials: true,
  }))

  // Public
  router.GET("/healthcheck", handlers.HealthCheck)
  api := router.Group("/api")
  {
    api.POST("/register", cfg.AuthHandler.Register)
    api.POST("/login", cfg.AuthHandler.Login)
    api.GET("/questions", cfg.QuestionHandler.List)
    api.GET("/questions/:id", cfg.QuestionHandler.Get)
    api.GET("/tags", cfg.QuestionHandler.ListTags)
    api.GET("/users/:id", cfg.UserHandler.GetByID)
  }

  // Protected
  protected := router.Group("/api")
  protected.Use(cfg.AuthMiddleware.RequireAuth())
  {
    protected.POST("/refresh", cfg.AuthHandler.Refresh)
    protected.POST("/logout", cfg.AuthHandler.Logout)

    protected.GET("/me", cfg.UserHandler.GetMe)
    protected.PUT("/me/bio", cfg.UserHandler.UpdateBio)

    protected.POST("/questions", cfg.QuestionHandler.Create)
    protected.PUT("/questions/:id", cfg.QuestionHandler.Update)
    protected.DELETE("/questions/:id", cfg.QuestionHandler.Delete)
    protected.POST("/questions/:id/best-answer/:answerId", cfg.QuestionHandler.SetBestAnswer)

    protected.POST("/questions/:id/answers", cfg.AnswerHandler.Create)
    protected.DELETE("/answers/:id", cfg.AnswerHandler.Delete)
    protected.POST("/answers/:id/like", cfg.AnswerHandler.ToggleLike)

    protected.GET("/notifications", cfg.NotificationHandler.List)
    protected.GET("/notifications/unread-count", cfg.NotificationHandler.UnreadCount)
    protected.POST("/notifications/mark-read", cfg.NotificationHandler.MarkRead)
    protected.POST("/notifications/mark-all-read", cfg.NotificationHandler.MarkAllRead)
    protected.GET("/notifications/stream", cfg.NotificationHandler.Stream)
  }

  // Admin
  admin := router.Group("/api/admin")
  admin.Use(cfg.AuthMiddleware.RequireAuth(), cfg.AuthMiddleware.RequireAdmin())
  {
    admin.POST("/generate/questions", cfg.GenerationHandler.GenerateQuestions)
    admin.POST("/generate/answers", cfg.GenerationHandler.GenerateAnswers)
    admin.POST("/questions/reconcile-links", cfg.GenerationHandler.ReconcileLinks)
  }

  return router
}
