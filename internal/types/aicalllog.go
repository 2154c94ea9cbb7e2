package types

import (
  "time"

  "github.com/google/uuid"
)

const (
  AICallTypeQuestion = "question_generation"
  AICallTypeAnswer   = "answer_generation"
)

type AICallLog struct {
  ID            uuid.UUID     `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  CallType      string        `gorm:"column:call_type;not null" json:"call_type"`
  Personality   string        `gorm:"column:personality" json:"personality"`
  QuestionID    *uuid.UUID    `gorm:"type:uuid;index" json:"question_id,omitempty"`
  Model         string        `gorm:"column:model;not null" json:"model"`
  Prompt        string        `gorm:"column:prompt" json:"prompt"`
  Response      string        `gorm:"column:response" json:"response"`
  Success       bool          `gorm:"column:success;not null" json:"success"`
  Error         string        `gorm:"column:error" json:"error"`
  LatencyMS     int64         `gorm:"column:latency_ms;not null;default:0" json:"latency_ms"`
  CreatedAt     time.Time     `gorm:"not null;default:now()" json:"created_at"`
  UpdatedAt     time.Time     `gorm:"not null;default:now()" json:"updated_at"`
}

func (AICallLog) TableName() string {
  return "ai_call_log"
}
