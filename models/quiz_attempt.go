package models

import (
	"time"
)

type QuizAttempt struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	UserID    uint       `json:"id_user" gorm:"column:id_user;not null;index"`
	QCMID     uint       `json:"id_qcm" gorm:"column:id_qcm;not null;index"`
	StartedAt *time.Time `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at"`
	Score     float64    `json:"score" gorm:"not null;default:0"` // 0-100
	CreatedAt time.Time  `json:"created_at"`

	// Relationships
	User    *User        `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	QCM     *QCM         `json:"qcm,omitempty" gorm:"foreignKey:QCMID;constraint:OnDelete:CASCADE"`
	Answers []UserAnswer `json:"answers,omitempty" gorm:"foreignKey:AttemptID;constraint:OnDelete:CASCADE"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

// Duration reports the elapsed time of a timed attempt.
func (a QuizAttempt) Duration() (time.Duration, bool) {
	if a.StartedAt == nil || a.EndedAt == nil {
		return 0, false
	}
	return a.EndedAt.Sub(*a.StartedAt), true
}
