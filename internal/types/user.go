package types

import (
  "time"

  "github.com/google/uuid"
)

const (
  UserRoleMember = "user"
  UserRoleAdmin  = "admin"
)

type User struct {
  ID          uuid.UUID   `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  Username    string      `gorm:"uniqueIndex;not null;column:username" json:"username"`
  Email       string      `gorm:"uniqueIndex;not null;column:email" json:"email"`
  Password    string      `gorm:"not null;column:password" json:"-"`
  Role        string      `gorm:"not null;default:user;column:role" json:"role"`
  Bio         string      `gorm:"column:bio" json:"bio"`
  CreatedAt   time.Time   `gorm:"not null;default:now()" json:"created_at"`
  UpdatedAt   time.Time   `gorm:"not null;default:now()" json:"updated_at"`
}

func (User) TableName() string {
  return "user"
}
