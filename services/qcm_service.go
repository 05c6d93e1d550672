package services

import (
	"context"
	"strings"

	"qcmanager/models"

	"gorm.io/gorm"
)

type QCMService struct {
	db *gorm.DB
}

func NewQCMService(db *gorm.DB) *QCMService {
	return &QCMService{db: db}
}

type CreateQCMRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
}

type CreateQCMTreeRequest struct {
	Title       string                `json:"title" validate:"required"`
	Description string                `json:"description"`
	Questions   []CreateQuestionInput `json:"questions"`
}

type CreateQuestionInput struct {
	Text      string          `json:"question"`
	Type      string          `json:"type"`
	Position  int             `json:"position"`
	Responses []ResponseInput `json:"responses"`
}

type UpdateQCMRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
}

type UpdateQCMTreeRequest struct {
	Title       string                `json:"title" validate:"required"`
	Description string                `json:"description"`
	Questions   []UpdateQuestionInput `json:"questions"`
}

// UpdateQuestionInput patches an existing question when ID is set and adds a
// new one otherwise. Nil fields keep their stored value; a nil Responses
// slice leaves the responses untouched.
type UpdateQuestionInput struct {
	ID        *uint           `json:"id"`
	Text      *string         `json:"question"`
	Type      *string         `json:"type"`
	Position  *int            `json:"position"`
	Responses []ResponseInput `json:"responses"`
}

// QuestionSummary is the light listing row for a question.
type QuestionSummary struct {
	ID          uint     `json:"id_question"`
	QCMID       uint     `json:"id_qcm"`
	Text        string   `json:"question"`
	Type        string   `json:"type"`
	Position    int      `json:"position"`
	NbResponses int      `json:"nb_responses"`
	Responses   []string `json:"responses"`
}

func (r *CreateQCMTreeRequest) validate() error {
	r.Title = strings.TrimSpace(r.Title)
	if err := validateStruct(r); err != nil {
		return err
	}
	if len(r.Questions) == 0 {
		return invalid("questions must contain at least one question")
	}
	for i := range r.Questions {
		q := &r.Questions[i]
		q.Text = strings.TrimSpace(q.Text)
		if q.Text == "" {
			return invalid("question %d text must not be blank", i+1)
		}
		if err := validateResponses(q.Responses); err != nil {
			return invalid("question %d: %s", i+1, err.Error())
		}
		if q.Type != "" {
			if err := checkTypeMatches(q.Type, q.Responses); err != nil {
				return invalid("question %d: %s", i+1, err.Error())
			}
		}
	}
	return nil
}

func (r *UpdateQCMTreeRequest) validate() error {
	r.Title = strings.TrimSpace(r.Title)
	if err := validateStruct(r); err != nil {
		return err
	}
	for i := range r.Questions {
		if err := r.Questions[i].validate(); err != nil {
			return invalid("question %d: %s", i+1, err.Error())
		}
	}
	return nil
}

func (q *UpdateQuestionInput) validate() error {
	if q.Text != nil {
		trimmed := strings.TrimSpace(*q.Text)
		if trimmed == "" {
			return invalid("question text must not be blank")
		}
		q.Text = &trimmed
	}
	if q.ID == nil {
		if q.Text == nil {
			return invalid("question text is required for a new question")
		}
		if q.Responses == nil {
			return invalid("responses are required for a new question")
		}
	}
	if q.Position != nil && *q.Position <= 0 {
		return invalid("position must be a positive number")
	}
	if q.Responses != nil {
		if err := validateResponses(q.Responses); err != nil {
			return err
		}
	}
	if q.Type != nil {
		if q.Responses != nil {
			return checkTypeMatches(*q.Type, q.Responses)
		}
		return checkType(*q.Type)
	}
	return nil
}

// ensureTitleFree fails with a ConflictError when another QCM already uses title.
func ensureTitleFree(tx *gorm.DB, title string, exceptID uint) error {
	var count int64
	query := tx.Model(&models.QCM{}).Where("LOWER(title) = LOWER(?)", title)
	if exceptID != 0 {
		query = query.Where("id <> ?", exceptID)
	}
	if err := query.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return &ConflictError{Message: "a QCM titled \"" + title + "\" already exists"}
	}
	return nil
}

func (s *QCMService) CreateQCM(ctx context.Context, authorID uint, req *CreateQCMRequest) (*models.QCM, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	qcm := models.QCM{
		Title:       req.Title,
		Description: req.Description,
		AuthorID:    authorRef(authorID),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureTitleFree(tx, qcm.Title, 0); err != nil {
			return err
		}
		return tx.Create(&qcm).Error
	})
	if err != nil {
		return nil, err
	}
	return &qcm, nil
}

func (s *QCMService) CreateQCMWithQuestions(ctx context.Context, authorID uint, req *CreateQCMTreeRequest) (*models.QCM, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	qcm := models.QCM{
		Title:       req.Title,
		Description: req.Description,
		AuthorID:    authorRef(authorID),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureTitleFree(tx, qcm.Title, 0); err != nil {
			return err
		}
		if err := tx.Omit("Questions").Create(&qcm).Error; err != nil {
			return err
		}

		for i, qReq := range req.Questions {
			position := qReq.Position
			if position <= 0 {
				position = i + 1
			}
			qType := qReq.Type
			if qType == "" {
				qType = inferType(qReq.Responses)
			}

			question := models.Question{
				QCMID:    qcm.ID,
				Text:     qReq.Text,
				Type:     qType,
				Position: position,
			}
			if err := insertQuestion(tx, &question, qReq.Responses); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetQCMTree(ctx, qcm.ID)
}

func (s *QCMService) ListQCMs(ctx context.Context) ([]models.QCM, error) {
	var qcms []models.QCM
	err := s.db.WithContext(ctx).Order("id").Find(&qcms).Error
	return qcms, err
}

func (s *QCMService) GetQCM(ctx context.Context, qcmID uint) (*models.QCM, error) {
	var qcm models.QCM
	if err := s.db.WithContext(ctx).First(&qcm, qcmID).Error; err != nil {
		return nil, notFoundOr(err, "qcm", qcmID)
	}
	return &qcm, nil
}

// GetQCMTree loads a QCM with its questions and responses in display order.
func (s *QCMService) GetQCMTree(ctx context.Context, qcmID uint) (*models.QCM, error) {
	return loadQCMTree(s.db.WithContext(ctx), qcmID)
}

func loadQCMTree(db *gorm.DB, qcmID uint) (*models.QCM, error) {
	var qcm models.QCM
	err := db.Preload("Questions", orderedQuestions).
		Preload("Questions.Responses", orderedResponses).
		First(&qcm, qcmID).Error
	if err != nil {
		return nil, notFoundOr(err, "qcm", qcmID)
	}
	return &qcm, nil
}

// ListQuestionSummaries returns one row per question of a QCM with its
// response texts in display order.
func (s *QCMService) ListQuestionSummaries(ctx context.Context, qcmID uint) ([]QuestionSummary, error) {
	qcm, err := s.GetQCMTree(ctx, qcmID)
	if err != nil {
		return nil, err
	}

	summaries := make([]QuestionSummary, 0, len(qcm.Questions))
	for _, q := range qcm.Questions {
		texts := make([]string, len(q.Responses))
		for i, r := range q.Responses {
			texts[i] = r.Text
		}
		summaries = append(summaries, QuestionSummary{
			ID:          q.ID,
			QCMID:       q.QCMID,
			Text:        q.Text,
			Type:        q.Type,
			Position:    q.Position,
			NbResponses: len(texts),
			Responses:   texts,
		})
	}
	return summaries, nil
}

func (s *QCMService) UpdateQCM(ctx context.Context, qcmID uint, req *UpdateQCMRequest) (*models.QCM, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	var qcm models.QCM
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&qcm, qcmID).Error; err != nil {
			return notFoundOr(err, "qcm", qcmID)
		}
		if err := ensureTitleFree(tx, req.Title, qcmID); err != nil {
			return err
		}

		qcm.Title = req.Title
		qcm.Description = req.Description
		return tx.Save(&qcm).Error
	})
	if err != nil {
		return nil, err
	}
	return &qcm, nil
}

func (s *QCMService) UpdateQCMWithQuestions(ctx context.Context, qcmID uint, req *UpdateQCMTreeRequest) (*models.QCM, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var qcm models.QCM
		if err := tx.First(&qcm, qcmID).Error; err != nil {
			return notFoundOr(err, "qcm", qcmID)
		}
		if err := ensureTitleFree(tx, req.Title, qcmID); err != nil {
			return err
		}

		qcm.Title = req.Title
		qcm.Description = req.Description
		if err := tx.Save(&qcm).Error; err != nil {
			return err
		}

		for _, qReq := range req.Questions {
			if qReq.ID == nil {
				if err := s.addQuestion(tx, qcmID, qReq); err != nil {
					return err
				}
				continue
			}
			if err := patchQuestion(tx, qcmID, *qReq.ID, qReq); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetQCMTree(ctx, qcmID)
}

func (s *QCMService) addQuestion(tx *gorm.DB, qcmID uint, in UpdateQuestionInput) error {
	position := 0
	if in.Position != nil {
		position = *in.Position
	}
	if position <= 0 {
		next, err := nextQuestionPosition(tx, qcmID)
		if err != nil {
			return err
		}
		position = next
	}

	qType := inferType(in.Responses)
	if in.Type != nil {
		qType = *in.Type
	}

	question := models.Question{
		QCMID:    qcmID,
		Text:     *in.Text,
		Type:     qType,
		Position: position,
	}
	return insertQuestion(tx, &question, in.Responses)
}

// patchQuestion coalesces the supplied fields onto a stored question. qcmID
// of zero skips the ownership check.
func patchQuestion(tx *gorm.DB, qcmID, questionID uint, in UpdateQuestionInput) error {
	var question models.Question
	query := tx.Where("id = ?", questionID)
	if qcmID != 0 {
		query = query.Where("id_qcm = ?", qcmID)
	}
	if err := query.First(&question).Error; err != nil {
		return notFoundOr(err, "question", questionID)
	}

	if in.Text != nil {
		question.Text = *in.Text
	}
	if in.Position != nil {
		question.Position = *in.Position
	}
	switch {
	case in.Type != nil:
		question.Type = *in.Type
	case in.Responses != nil:
		question.Type = inferType(in.Responses)
	}

	if err := tx.Omit("Responses").Save(&question).Error; err != nil {
		return err
	}

	if in.Responses != nil {
		if _, err := replaceResponses(tx, question.ID, in.Responses); err != nil {
			return err
		}
	}
	return nil
}

// DeleteQCM removes the whole tree and returns what was deleted.
func (s *QCMService) DeleteQCM(ctx context.Context, qcmID uint) (*models.QCM, error) {
	var snapshot *models.QCM
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		qcm, err := loadQCMTree(tx, qcmID)
		if err != nil {
			return err
		}
		snapshot = qcm
		return deleteQCMTree(tx, qcmID)
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

func authorRef(id uint) *uint {
	if id == 0 {
		return nil
	}
	return &id
}
