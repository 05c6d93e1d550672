package services

import (
	"context"
	"strings"

	"qcmanager/models"

	"gorm.io/gorm"
)

type QuestionService struct {
	db *gorm.DB
}

func NewQuestionService(db *gorm.DB) *QuestionService {
	return &QuestionService{db: db}
}

type CreateQuestionRequest struct {
	QCMID     uint            `json:"id_qcm" validate:"required"`
	Text      string          `json:"question" validate:"required"`
	Type      string          `json:"type"`
	Position  int             `json:"position"`
	Responses []ResponseInput `json:"responses"`
}

type UpdateQuestionRequest struct {
	Text      *string         `json:"question"`
	Type      *string         `json:"type"`
	Position  *int            `json:"position"`
	Responses []ResponseInput `json:"responses"`
}

func (r *CreateQuestionRequest) validate() error {
	r.Text = strings.TrimSpace(r.Text)
	if err := validateStruct(r); err != nil {
		return err
	}
	return validateResponses(r.Responses)
}

// CreateWithExplicitType stores a question whose type is given by the caller.
func (s *QuestionService) CreateWithExplicitType(ctx context.Context, req *CreateQuestionRequest) (*models.Question, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if req.Type == "" {
		return nil, invalid("type is required")
	}
	if err := checkTypeMatches(req.Type, req.Responses); err != nil {
		return nil, err
	}
	return s.create(ctx, req, req.Type)
}

// CreateWithInferredType stores a question typed from its correctness flags:
// more than one correct response makes it a multiple-answer question.
func (s *QuestionService) CreateWithInferredType(ctx context.Context, req *CreateQuestionRequest) (*models.Question, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	return s.create(ctx, req, inferType(req.Responses))
}

func (s *QuestionService) create(ctx context.Context, req *CreateQuestionRequest, qType string) (*models.Question, error) {
	question := models.Question{
		QCMID:    req.QCMID,
		Text:     req.Text,
		Type:     qType,
		Position: req.Position,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var qcm models.QCM
		if err := tx.Select("id").First(&qcm, req.QCMID).Error; err != nil {
			return notFoundOr(err, "qcm", req.QCMID)
		}
		if question.Position <= 0 {
			next, err := nextQuestionPosition(tx, req.QCMID)
			if err != nil {
				return err
			}
			question.Position = next
		}
		return insertQuestion(tx, &question, req.Responses)
	})
	if err != nil {
		return nil, err
	}
	return &question, nil
}

func (s *QuestionService) List(ctx context.Context) ([]models.Question, error) {
	var questions []models.Question
	err := s.db.WithContext(ctx).
		Preload("Responses", orderedResponses).
		Order("id_qcm, position, id").
		Find(&questions).Error
	return questions, err
}

func (s *QuestionService) Get(ctx context.Context, questionID uint) (*models.Question, error) {
	return loadQuestion(s.db.WithContext(ctx), questionID)
}

func loadQuestion(db *gorm.DB, questionID uint) (*models.Question, error) {
	var question models.Question
	if err := db.Preload("Responses", orderedResponses).First(&question, questionID).Error; err != nil {
		return nil, notFoundOr(err, "question", questionID)
	}
	return &question, nil
}

func (s *QuestionService) ListResponses(ctx context.Context, questionID uint) ([]models.Response, error) {
	question, err := s.Get(ctx, questionID)
	if err != nil {
		return nil, err
	}
	return question.Responses, nil
}

// Update coalesces the supplied fields onto the stored question; a responses
// array replaces every existing response.
func (s *QuestionService) Update(ctx context.Context, questionID uint, req *UpdateQuestionRequest) (*models.Question, error) {
	in := UpdateQuestionInput{
		ID:        &questionID,
		Text:      req.Text,
		Type:      req.Type,
		Position:  req.Position,
		Responses: req.Responses,
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	var question *models.Question
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := patchQuestion(tx, 0, questionID, in); err != nil {
			return err
		}
		q, err := loadQuestion(tx, questionID)
		question = q
		return err
	})
	if err != nil {
		return nil, err
	}
	return question, nil
}

func (s *QuestionService) Delete(ctx context.Context, questionID uint) (*models.Question, error) {
	var snapshot *models.Question
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q, err := loadQuestion(tx, questionID)
		if err != nil {
			return err
		}
		snapshot = q
		return deleteQuestionTree(tx, questionID)
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}
