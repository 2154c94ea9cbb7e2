package types

import (
  "time"

  "github.com/google/uuid"
  "gorm.io/datatypes"
  "gorm.io/gorm"
)

type Answer struct {
  ID              uuid.UUID         `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  Content         string            `gorm:"column:content;not null" json:"content"`
  QuestionID      uuid.UUID         `gorm:"type:uuid;not null;index" json:"question_id"`
  AuthorID        *uuid.UUID        `gorm:"type:uuid;index" json:"author_id,omitempty"`
  Author          *User             `gorm:"constraint:OnDelete:SET NULL;foreignKey:AuthorID;references:ID" json:"author,omitempty"`
  IsAIGenerated   bool              `gorm:"column:is_ai_generated;not null;default:false" json:"is_ai_generated"`
  AIPersonality   *string           `gorm:"column:ai_personality" json:"ai_personality,omitempty"`
  IsBestAnswer    bool              `gorm:"column:is_best_answer;not null;default:false" json:"is_best_answer"`
  Likes           int64             `gorm:"column:likes;not null;default:0" json:"likes"`
  LikedBy         datatypes.JSON    `gorm:"column:liked_by;type:jsonb" json:"liked_by"`
  CreatedAt       time.Time         `gorm:"not null;default:now()" json:"created_at"`
  UpdatedAt       time.Time         `gorm:"not null;default:now()" json:"updated_at"`
  DeletedAt       gorm.DeletedAt    `gorm:"index" json:"deleted_at,omitempty"`
}

func (Answer) TableName() string {
  return "answer"
}
