package services

import (
	"strings"

	"qcmanager/models"

	"gorm.io/gorm"
)

type ResponseInput struct {
	Text      string `json:"response"`
	IsCorrect bool   `json:"is_correct"`
	Position  int    `json:"position"`
}

// validateResponses enforces the per-question response rules: at least two
// options, none of them blank.
func validateResponses(responses []ResponseInput) error {
	if len(responses) < 2 {
		return invalid("a question must have at least 2 responses")
	}
	for i, r := range responses {
		if strings.TrimSpace(r.Text) == "" {
			return invalid("response %d text must not be blank", i+1)
		}
	}
	return nil
}

func countCorrect(responses []ResponseInput) int {
	n := 0
	for _, r := range responses {
		if r.IsCorrect {
			n++
		}
	}
	return n
}

// inferType derives the question type from the correctness flags.
func inferType(responses []ResponseInput) string {
	if countCorrect(responses) > 1 {
		return models.QuestionTypeMultiple
	}
	return models.QuestionTypeSingle
}

func checkType(t string) error {
	if t != models.QuestionTypeSingle && t != models.QuestionTypeMultiple {
		return invalid("type must be %q or %q", models.QuestionTypeSingle, models.QuestionTypeMultiple)
	}
	return nil
}

// checkTypeMatches rejects an explicit type that contradicts the correctness
// flags. A question with no correct response yet is accepted under either type.
func checkTypeMatches(t string, responses []ResponseInput) error {
	if err := checkType(t); err != nil {
		return err
	}
	correct := countCorrect(responses)
	switch {
	case t == models.QuestionTypeSingle && correct > 1:
		return invalid("a single-answer question cannot have %d correct responses", correct)
	case t == models.QuestionTypeMultiple && correct == 1:
		return invalid("a multiple-answer question needs more than one correct response")
	}
	return nil
}

func buildResponses(questionID uint, inputs []ResponseInput) []models.Response {
	responses := make([]models.Response, len(inputs))
	for i, in := range inputs {
		position := in.Position
		if position <= 0 {
			position = i + 1
		}
		responses[i] = models.Response{
			QuestionID: questionID,
			Text:       strings.TrimSpace(in.Text),
			IsCorrect:  in.IsCorrect,
			Position:   position,
		}
	}
	return responses
}

// insertQuestion writes a question and its responses using tx.
func insertQuestion(tx *gorm.DB, question *models.Question, inputs []ResponseInput) error {
	if err := tx.Omit("Responses").Create(question).Error; err != nil {
		return err
	}

	responses := buildResponses(question.ID, inputs)
	if err := tx.Create(&responses).Error; err != nil {
		return err
	}
	question.Responses = responses
	return nil
}

// replaceResponses drops every response of a question, with the recorded
// answers that selected them, and inserts the new set.
func replaceResponses(tx *gorm.DB, questionID uint, inputs []ResponseInput) ([]models.Response, error) {
	old := tx.Model(&models.Response{}).Select("id").Where("id_question = ?", questionID)
	if err := tx.Where("id_response IN (?)", old).Delete(&models.UserAnswer{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("id_question = ?", questionID).Delete(&models.Response{}).Error; err != nil {
		return nil, err
	}

	responses := buildResponses(questionID, inputs)
	if err := tx.Create(&responses).Error; err != nil {
		return nil, err
	}
	return responses, nil
}

// nextQuestionPosition returns max(position)+1 inside a QCM.
func nextQuestionPosition(tx *gorm.DB, qcmID uint) (int, error) {
	var max int
	err := tx.Model(&models.Question{}).
		Where("id_qcm = ?", qcmID).
		Select("COALESCE(MAX(position), 0)").
		Scan(&max).Error
	return max + 1, err
}

// deleteQuestionTree removes the recorded answers, responses and the question row.
func deleteQuestionTree(tx *gorm.DB, questionID uint) error {
	if err := tx.Where("id_question = ?", questionID).Delete(&models.UserAnswer{}).Error; err != nil {
		return err
	}
	if err := tx.Where("id_question = ?", questionID).Delete(&models.Response{}).Error; err != nil {
		return err
	}
	return tx.Delete(&models.Question{}, questionID).Error
}

// deleteQCMTree removes a QCM with everything hanging off it: attempts and
// their answers, then responses, questions and the QCM row.
func deleteQCMTree(tx *gorm.DB, qcmID uint) error {
	attempts := tx.Model(&models.QuizAttempt{}).Select("id").Where("id_qcm = ?", qcmID)
	if err := tx.Where("id_attempt IN (?)", attempts).Delete(&models.UserAnswer{}).Error; err != nil {
		return err
	}
	if err := tx.Where("id_qcm = ?", qcmID).Delete(&models.QuizAttempt{}).Error; err != nil {
		return err
	}

	questions := tx.Model(&models.Question{}).Select("id").Where("id_qcm = ?", qcmID)
	if err := tx.Where("id_question IN (?)", questions).Delete(&models.Response{}).Error; err != nil {
		return err
	}
	if err := tx.Where("id_qcm = ?", qcmID).Delete(&models.Question{}).Error; err != nil {
		return err
	}
	return tx.Delete(&models.QCM{}, qcmID).Error
}

func orderedQuestions(db *gorm.DB) *gorm.DB {
	return db.Order("question_qcm.position, question_qcm.id")
}

func orderedResponses(db *gorm.DB) *gorm.DB {
	return db.Order("response_question.position, response_question.id")
}
