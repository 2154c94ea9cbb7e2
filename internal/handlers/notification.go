package handlers

import (
  "fmt"
  "net/http"
  "strconv"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/paceline/paceline-backend/internal/requestdata"
  "github.com/paceline/paceline-backend/internal/services"
  "github.com/paceline/paceline-backend/internal/sse"
)

type NotificationHandler struct {
  notificationService services.NotificationService
  hub                 *sse.SSEHub
}

func NewNotificationHandler(notificationService services.NotificationService, hub *sse.SSEHub) *NotificationHandler {
  return &NotificationHandler{notificationService: notificationService, hub: hub}
}

func (nh *NotificationHandler) List(c *gin.Context) {
  page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
  limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
  notifications, err := nh.notificationService.List(c.Request.Context(), page, limit)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{"notifications": notifications, "page": page})
}

func (nh *NotificationHandler) UnreadCount(c *gin.Context) {
  count, err := nh.notificationService.UnreadCount(c.Request.Context())
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{"unread": count})
}

func (nh *NotificationHandler) MarkRead(c *gin.Context) {
  var req struct {
    NotificationIDs []uuid.UUID `json:"notification_ids"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_argument", fmt.Errorf("invalid request body"))
    return
  }
  if err := nh.notificationService.MarkRead(c.Request.Context(), req.NotificationIDs); err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{"message": "notifications marked read"})
}

func (nh *NotificationHandler) MarkAllRead(c *gin.Context) {
  if err := nh.notificationService.MarkAllRead(c.Request.Context()); err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{"message": "all notifications marked read"})
}

// Stream subscribes the caller to their own notification channel and holds
// the connection open until the client goes away.
func (nh *NotificationHandler) Stream(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  if rd == nil || rd.UserID == uuid.Nil {
    RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing user identity"))
    return
  }
  client := nh.hub.NewSSEClient(rd.UserID)
  nh.hub.AddChannel(client, sse.UserChannel(rd.UserID))
  defer nh.hub.CloseClient(client)

  nh.hub.ServeHTTP(c.Writer, c.Request, client)
}
