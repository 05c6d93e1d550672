package models

const (
	QuestionTypeSingle   = "single"
	QuestionTypeMultiple = "multiple"
)

type Question struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	QCMID    uint   `json:"id_qcm" gorm:"column:id_qcm;not null;index"`
	Text     string `json:"question" gorm:"column:question;not null"`
	Type     string `json:"type" gorm:"not null;default:'single'"`
	Position int    `json:"position" gorm:"not null"`

	// Relationships
	Responses []Response `json:"responses,omitempty" gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE"`
}

func (Question) TableName() string {
	return "question_qcm"
}

// CorrectCount returns how many loaded responses are flagged correct.
func (q Question) CorrectCount() int {
	n := 0
	for _, r := range q.Responses {
		if r.IsCorrect {
			n++
		}
	}
	return n
}
