package types

import (
  "time"

  "github.com/google/uuid"
)

type Tag struct {
  ID          uuid.UUID   `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  Name        string      `gorm:"uniqueIndex;not null;column:name" json:"name"`
  CreatedAt   time.Time   `gorm:"not null;default:now()" json:"created_at"`
}

func (Tag) TableName() string {
  return "tag"
}
