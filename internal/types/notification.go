package types

import (
  "time"

  "github.com/google/uuid"
)

const (
  NotificationTypeNewAnswer  = "new_answer"
  NotificationTypeBestAnswer = "best_answer"
)

type Notification struct {
  ID            uuid.UUID     `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  UserID        uuid.UUID     `gorm:"type:uuid;not null;index" json:"user_id"`
  Type          string        `gorm:"column:type;not null" json:"type"`
  Message       string        `gorm:"column:message;not null" json:"message"`
  QuestionID    *uuid.UUID    `gorm:"type:uuid" json:"question_id,omitempty"`
  AnswerID      *uuid.UUID    `gorm:"type:uuid" json:"answer_id,omitempty"`
  IsRead        bool          `gorm:"column:is_read;not null;default:false" json:"is_read"`
  CreatedAt     time.Time     `gorm:"not null;default:now()" json:"created_at"`
  UpdatedAt     time.Time     `gorm:"not null;default:now()" json:"updated_at"`
}

func (Notification) TableName() string {
  return "notification"
}
