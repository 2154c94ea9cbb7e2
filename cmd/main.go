package main

import (
  "context"
  "fmt"
  "os"
  "time"

  "github.com/joho/godotenv"

  redisclient "github.com/paceline/paceline-backend/internal/clients/redis"
  "github.com/paceline/paceline-backend/internal/db"
  "github.com/paceline/paceline-backend/internal/genai"
  "github.com/paceline/paceline-backend/internal/handlers"
  "github.com/paceline/paceline-backend/internal/logger"
  "github.com/paceline/paceline-backend/internal/middleware"
  "github.com/paceline/paceline-backend/internal/repos"
  "github.com/paceline/paceline-backend/internal/server"
  "github.com/paceline/paceline-backend/internal/services"
  "github.com/paceline/paceline-backend/internal/sse"
  "github.com/paceline/paceline-backend/internal/utils"
)

func main() {
  _ = godotenv.Load()

  // Logger
  logMode := os.Getenv("LOG_MODE")
  if logMode == "" {
    logMode = "development"
  }
  log, err := logger.New(logMode)
  if err != nil {
    fmt.Printf("Failed to init logger: %v\n", err)
    os.Exit(1)
  }
  defer log.Sync()

  // Env
  log.Info("Loading environment variables from main...")
  jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
  accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
  refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)

  // Postgres
  postgresService, err := db.NewPostgresService(log)
  if err != nil {
    log.Error("Postgres init failed", "error", err)
    os.Exit(1)
  }
  if err = postgresService.AutoMigrateAll(); err != nil {
    log.Error("Postgres auto migration failed", "error", err)
    os.Exit(1)
  }
  thePG := postgresService.DB()

  // Repos
  log.Info("Setting up Repos from main...")
  userRepo := repos.NewUserRepo(thePG, log)
  userTokenRepo := repos.NewUserTokenRepo(thePG, log)
  questionRepo := repos.NewQuestionRepo(thePG, log)
  answerRepo := repos.NewAnswerRepo(thePG, log)
  tagRepo := repos.NewTagRepo(thePG, log)
  notificationRepo := repos.NewNotificationRepo(thePG, log)
  aiCallLogRepo := repos.NewAICallLogRepo(thePG, log)

  // SSE
  log.Info("Setting up SSE hub now...")
  sseHub := sse.NewSSEHub(log)

  // Redis bus is optional; a single instance works fine without it.
  var notificationBus redisclient.NotificationBus
  if bus, busErr := redisclient.NewNotificationBus(log); busErr != nil {
    log.Warn("Redis notification bus unavailable, running without cross-instance fanout", "error", busErr)
  } else {
    notificationBus = bus
    if fwdErr := bus.StartForwarder(context.Background(), sseHub.Broadcast); fwdErr != nil {
      log.Warn("Failed to start redis forwarder", "error", fwdErr)
    }
  }

  // Services
  log.Info("Setting up Services from main...")
  geminiClient, err := genai.NewGeminiClient(log)
  if err != nil {
    log.Error("Could not init GeminiClient", "error", err)
    os.Exit(1)
  }
  authService := services.NewAuthService(thePG, log, userRepo, userTokenRepo, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second, time.Duration(refreshTokenTTL)*time.Second)
  userService := services.NewUserService(thePG, log, userRepo)
  notificationService := services.NewNotificationService(thePG, log, notificationRepo, sseHub, notificationBus)
  questionService := services.NewQuestionService(thePG, log, questionRepo, answerRepo, tagRepo, notificationService)
  answerService := services.NewAnswerService(thePG, log, questionRepo, answerRepo, notificationService)
  generationService := services.NewGenerationService(thePG, log, geminiClient, questionRepo, answerRepo, aiCallLogRepo, notificationService)
  repairService := services.NewRepairService(thePG, log, questionRepo, answerRepo)

  // Handlers
  log.Info("Setting up handlers from main...")
  authHandler := handlers.NewAuthHandler(authService)
  userHandler := handlers.NewUserHandler(userService)
  questionHandler := handlers.NewQuestionHandler(questionService)
  answerHandler := handlers.NewAnswerHandler(answerService)
  notificationHandler := handlers.NewNotificationHandler(notificationService, sseHub)
  generationHandler := handlers.NewGenerationHandler(generationService, repairService)

  // Middleware
  log.Info("Setting up middleware from main...")
  authMiddleware := middleware.NewAuthMiddleware(log, authService)

  // Router
  log.Info("Setting up router from main...")
  router := server.NewRouter(server.RouterConfig{
    AuthMiddleware:      authMiddleware,
    AuthHandler:         authHandler,
    UserHandler:         userHandler,
    QuestionHandler:     questionHandler,
    AnswerHandler:       answerHandler,
    NotificationHandler: notificationHandler,
    GenerationHandler:   generationHandler,
  })

  port := utils.GetEnv("PORT", "8080", log)
  fmt.Printf("Server listening on :%s\n", port)
  if err := router.Run(":" + port); err != nil {
    log.Error("Server failed", "error", err)
  }
}
