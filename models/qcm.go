package models

import (
	"time"
)

type QCM struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Title       string    `json:"title" gorm:"not null"`
	Description string    `json:"description"`
	AuthorID    *uint     `json:"author_id" gorm:"column:author_id;index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relationships
	Author    *User      `json:"author,omitempty" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	Questions []Question `json:"questions,omitempty" gorm:"foreignKey:QCMID;constraint:OnDelete:CASCADE"`
}

func (QCM) TableName() string {
	return "qcm"
}
