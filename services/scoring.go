package services

import (
	"reflect"

	"qcmanager/models"
)

type AnswerInput struct {
	QuestionID uint `json:"id_question"`
	ResponseID uint `json:"id_response"`
}

// QuestionResult is the per-question outcome of an attempt.
type QuestionResult struct {
	QuestionID uint   `json:"id_question"`
	Corrects   []uint `json:"corrects"`
	Selects    []uint `json:"selects"`
	Satisfied  bool   `json:"satisfied"`
}

type ScoreResult struct {
	Score     float64          `json:"score"`
	Satisfied int              `json:"satisfied"`
	Total     int              `json:"total"`
	Questions []QuestionResult `json:"questions"`
}

// ScoreAttempt grades answers against questions (responses must be loaded).
// A question counts when the selected response set equals its correct set,
// which covers single-answer questions as the one-element case.
func ScoreAttempt(questions []models.Question, answers []AnswerInput) (*ScoreResult, error) {
	if len(questions) == 0 {
		return nil, invalid("cannot score a QCM without questions")
	}

	selected := make(map[uint]map[uint]struct{})
	for _, a := range answers {
		if selected[a.QuestionID] == nil {
			selected[a.QuestionID] = make(map[uint]struct{})
		}
		selected[a.QuestionID][a.ResponseID] = struct{}{}
	}

	result := &ScoreResult{
		Total:     len(questions),
		Questions: make([]QuestionResult, 0, len(questions)),
	}
	for _, q := range questions {
		correct := make(map[uint]struct{})
		corrects := make([]uint, 0)
		selects := make([]uint, 0)
		for _, r := range q.Responses {
			if r.IsCorrect {
				correct[r.ID] = struct{}{}
				corrects = append(corrects, r.ID)
			}
			if _, ok := selected[q.ID][r.ID]; ok {
				selects = append(selects, r.ID)
			}
		}

		chosen := selected[q.ID]
		if chosen == nil {
			chosen = map[uint]struct{}{}
		}
		satisfied := reflect.DeepEqual(chosen, correct)
		if satisfied {
			result.Satisfied++
		}
		result.Questions = append(result.Questions, QuestionResult{
			QuestionID: q.ID,
			Corrects:   corrects,
			Selects:    selects,
			Satisfied:  satisfied,
		})
	}

	result.Score = float64(result.Satisfied) / float64(result.Total) * 100
	return result, nil
}
