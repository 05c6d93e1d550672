package models

import (
	"time"
)

type User struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	Name           string     `json:"name" gorm:"not null"`
	Firstname      string     `json:"firstname" gorm:"not null"`
	Society        string     `json:"society"`
	Email          string     `json:"email" gorm:"uniqueIndex;not null"`
	Password       string     `json:"-" gorm:"not null"`
	IsAdmin        bool       `json:"is_admin" gorm:"not null;default:false"`
	LastConnection *time.Time `json:"last_connection"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
