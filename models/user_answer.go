package models

type UserAnswer struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	AttemptID  uint `json:"id_attempt" gorm:"column:id_attempt;not null;index"`
	QuestionID uint `json:"id_question" gorm:"column:id_question;not null;index"`
	ResponseID uint `json:"id_response" gorm:"column:id_response;not null"`
}

func (UserAnswer) TableName() string {
	return "user_answers"
}
