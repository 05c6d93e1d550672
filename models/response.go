package models

type Response struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	QuestionID uint   `json:"id_question" gorm:"column:id_question;not null;index"`
	Text       string `json:"response" gorm:"column:response;not null"`
	IsCorrect  bool   `json:"is_correct" gorm:"not null;default:false"`
	Position   int    `json:"position" gorm:"not null"`
}

func (Response) TableName() string {
	return "response_question"
}
