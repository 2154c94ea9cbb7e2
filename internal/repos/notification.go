package repos

import (
  "context"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/paceline/paceline-backend/internal/logger"
  "github.com/paceline/paceline-backend/internal/types"
)

type NotificationRepo interface {
  Create(ctx context.Context, tx *gorm.DB, notifications []*types.Notification) ([]*types.Notification, error)
  GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, offset, limit int) ([]*types.Notification, error)
  CountUnread(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error)
  MarkRead(ctx context.Context, tx *gorm.DB, userID uuid.UUID, notificationIDs []uuid.UUID) error
  MarkAllRead(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
}

type notificationRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewNotificationRepo(db *gorm.DB, baseLog *logger.Logger) NotificationRepo {
  repoLog := baseLog.With("repo", "NotificationRepo")
  return &notificationRepo{db: db, log: repoLog}
}

func (r *notificationRepo) Create(ctx context.Context, tx *gorm.DB, notifications []*types.Notification) ([]*types.Notification, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(notifications) == 0 {
    return []*types.Notification{}, nil
  }

  if err := transaction.WithContext(ctx).Create(&notifications).Error; err != nil {
    return nil, err
  }
  return notifications, nil
}

func (r *notificationRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, offset, limit int) ([]*types.Notification, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.Notification
  if err := transaction.WithContext(ctx).
    Where("user_id = ?", userID).
    Order("created_at DESC").
    Offset(offset).
    Limit(limit).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *notificationRepo) CountUnread(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var count int64
  if err := transaction.WithContext(ctx).
    Model(&types.Notification{}).
    Where("user_id = ? AND is_read = ?", userID, false).
    Count(&count).Error; err != nil {
    return 0, err
  }
  return count, nil
}

func (r *notificationRepo) MarkRead(ctx context.Context, tx *gorm.DB, userID uuid.UUID, notificationIDs []uuid.UUID) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(notificationIDs) == 0 {
    return nil
  }

  if err := transaction.WithContext(ctx).
    Model(&types.Notification{}).
    Where("user_id = ? AND id IN ?", userID, notificationIDs).
    Update("is_read", true).Error; err != nil {
    return err
  }
  return nil
}

func (r *notificationRepo) MarkAllRead(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if err := transaction.WithContext(ctx).
    Model(&types.Notification{}).
    Where("user_id = ? AND is_read = ?", userID, false).
    Update("is_read", true).Error; err != nil {
    return err
  }
  return nil
}
