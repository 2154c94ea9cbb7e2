package types

import (
  "time"

  "github.com/google/uuid"
  "gorm.io/datatypes"
  "gorm.io/gorm"
)

// Question.AnswerIDs mirrors the set of answers whose QuestionID points back
// here. The mirror is appended best-effort after an answer insert and may
// lag behind the answers table; ReconcileAnswerLinks repairs the drift.
type Question struct {
  ID              uuid.UUID         `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  Title           string            `gorm:"column:title;not null" json:"title"`
  Content         string            `gorm:"column:content;not null" json:"content"`
  AuthorID        *uuid.UUID        `gorm:"type:uuid;index" json:"author_id,omitempty"`
  Author          *User             `gorm:"constraint:OnDelete:SET NULL;foreignKey:AuthorID;references:ID" json:"author,omitempty"`
  Tags            []Tag             `gorm:"many2many:question_tags" json:"tags"`
  IsAIGenerated   bool              `gorm:"column:is_ai_generated;not null;default:false" json:"is_ai_generated"`
  AIPersonality   *string           `gorm:"column:ai_personality" json:"ai_personality,omitempty"`
  AnswerIDs       datatypes.JSON    `gorm:"column:answer_ids;type:jsonb" json:"answer_ids"`
  BestAnswerID    *uuid.UUID        `gorm:"type:uuid;column:best_answer_id" json:"best_answer_id,omitempty"`
  Views           int64             `gorm:"column:views;not null;default:0" json:"views"`
  Answers         []Answer          `gorm:"foreignKey:QuestionID" json:"answers,omitempty"`
  CreatedAt       time.Time         `gorm:"not null;default:now()" json:"created_at"`
  UpdatedAt       time.Time         `gorm:"not null;default:now()" json:"updated_at"`
  DeletedAt       gorm.DeletedAt    `gorm:"index" json:"deleted_at,omitempty"`
}

func (Question) TableName() string {
  return "question"
}
