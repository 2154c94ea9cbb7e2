package services

import (
  "context"
  "fmt"

  "github.com/google/uuid"
  "gorm.io/gorm"

  redisclient "github.com/paceline/paceline-backend/internal/clients/redis"
  "github.com/paceline/paceline-backend/internal/logger"
  "github.com/paceline/paceline-backend/internal/repos"
  "github.com/paceline/paceline-backend/internal/requestdata"
  "github.com/paceline/paceline-backend/internal/sse"
  "github.com/paceline/paceline-backend/internal/types"
)

type NotificationService interface {
  // Notify is best-effort: a failed insert or broadcast is logged and
  // never fails the operation that triggered it.
  Notify(ctx context.Context, userID uuid.UUID, notificationType, message string, questionID, answerID *uuid.UUID)
  List(ctx context.Context, page, limit int) ([]*types.Notification, error)
  UnreadCount(ctx context.Context) (int64, error)
  MarkRead(ctx context.Context, notificationIDs []uuid.UUID) error
  MarkAllRead(ctx context.Context) error
}

type notificationService struct {
  db               *gorm.DB
  log              *logger.Logger
  notificationRepo repos.NotificationRepo
  hub              *sse.SSEHub
  bus              redisclient.NotificationBus
}

func NewNotificationService(
  db *gorm.DB,
  log *logger.Logger,
  notificationRepo repos.NotificationRepo,
  hub *sse.SSEHub,
  bus redisclient.NotificationBus,
) NotificationService {
  serviceLog := log.With("service", "NotificationService")
  return &notificationService{
    db:               db,
    log:              serviceLog,
    notificationRepo: notificationRepo,
    hub:              hub,
    bus:              bus,
  }
}

func (ns *notificationService) Notify(ctx context.Context, userID uuid.UUID, notificationType, message string, questionID, answerID *uuid.UUID) {
  notification := &types.Notification{
    ID:         uuid.New(),
    UserID:     userID,
    Type:       notificationType,
    Message:    message,
    QuestionID: questionID,
    AnswerID:   answerID,
  }
  if _, err := ns.notificationRepo.Create(ctx, nil, []*types.Notification{notification}); err != nil {
    ns.log.Warn("Failed to persist notification", "user_id", userID, "type", notificationType, "error", err)
    return
  }

  msg := sse.SSEMessage{
    Channel: sse.UserChannel(userID),
    Event:   sse.SSEEventNotificationCreated,
    Data:    notification,
  }
  if ns.hub != nil {
    ns.hub.Broadcast(msg)
  }
  if ns.bus != nil {
    if err := ns.bus.Publish(ctx, msg); err != nil {
      ns.log.Warn("Failed to publish notification to bus", "user_id", userID, "error", err)
    }
  }
}

func (ns *notificationService) List(ctx context.Context, page, limit int) ([]*types.Notification, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return nil, fmt.Errorf("%w: no authenticated user", ErrForbidden)
  }
  if page < 1 {
    page = 1
  }
  if limit < 1 || limit > 100 {
    limit = 20
  }
  notifications, err := ns.notificationRepo.GetByUserID(ctx, nil, rd.UserID, (page-1)*limit, limit)
  if err != nil {
    return nil, fmt.Errorf("Failed to list notifications: %w", err)
  }
  return notifications, nil
}

func (ns *notificationService) UnreadCount(ctx context.Context) (int64, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return 0, fmt.Errorf("%w: no authenticated user", ErrForbidden)
  }
  count, err := ns.notificationRepo.CountUnread(ctx, nil, rd.UserID)
  if err != nil {
    return 0, fmt.Errorf("Failed to count unread notifications: %w", err)
  }
  return count, nil
}

func (ns *notificationService) MarkRead(ctx context.Context, notificationIDs []uuid.UUID) error {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return fmt.Errorf("%w: no authenticated user", ErrForbidden)
  }
  if err := ns.notificationRepo.MarkRead(ctx, nil, rd.UserID, notificationIDs); err != nil {
    return fmt.Errorf("Failed to mark notifications read: %w", err)
  }
  return nil
}

func (ns *notificationService) MarkAllRead(ctx context.Context) error {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return fmt.Errorf("%w: no authenticated user", ErrForbidden)
  }
  if err := ns.notificationRepo.MarkAllRead(ctx, nil, rd.UserID); err != nil {
    return fmt.Errorf("Failed to mark all notifications read: %w", err)
  }
  return nil
}
