package services

import (
	"context"
	"errors"
	"time"

	"qcmanager/models"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type AttemptService struct {
	db       *gorm.DB
	sessions *SessionStore
	now      func() time.Time
}

// NewAttemptService builds the recorder. sessions may be nil, in which case
// every submission must carry its own started_at.
func NewAttemptService(db *gorm.DB, sessions *SessionStore) *AttemptService {
	return &AttemptService{
		db:       db,
		sessions: sessions,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type StartAttemptRequest struct {
	QCMID uint `json:"id_qcm" validate:"required"`
}

type RecordAttemptRequest struct {
	UserID    uint          `json:"id_user" validate:"required"`
	QCMID     uint          `json:"id_qcm" validate:"required"`
	StartedAt *time.Time    `json:"started_at"`
	EndedAt   *time.Time    `json:"ended_at"`
	Answers   []AnswerInput `json:"answers"`
}

type AttemptResult struct {
	Attempt *models.QuizAttempt `json:"attempt"`
	Result  *ScoreResult        `json:"result"`
}

type AttemptDetails struct {
	ID        uint              `json:"id"`
	UserID    uint              `json:"id_user"`
	QCMID     uint              `json:"id_qcm"`
	Title     string            `json:"title"`
	StartedAt *time.Time        `json:"started_at"`
	EndedAt   *time.Time        `json:"ended_at"`
	Score     float64           `json:"score"`
	Questions []DetailsQuestion `json:"questions"`
}

type DetailsQuestion struct {
	ID        uint              `json:"id_question"`
	Text      string            `json:"question"`
	Type      string            `json:"type"`
	Position  int               `json:"position"`
	Satisfied bool              `json:"satisfied"`
	Responses []DetailsResponse `json:"responses"`
}

type DetailsResponse struct {
	ID        uint   `json:"id_response"`
	Text      string `json:"response"`
	IsCorrect bool   `json:"is_correct"`
	Position  int    `json:"position"`
	Selected  bool   `json:"selected"`
}

// StartAttempt records when a trainee opened a QCM so the submission can be
// timed without trusting a client-side start time.
func (s *AttemptService) StartAttempt(ctx context.Context, userID uint, req *StartAttemptRequest) (*AttemptSession, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if s.sessions == nil {
		return nil, errors.New("attempt sessions are not configured")
	}

	var qcm models.QCM
	if err := s.db.WithContext(ctx).Select("id").First(&qcm, req.QCMID).Error; err != nil {
		return nil, notFoundOr(err, "qcm", req.QCMID)
	}

	session := &AttemptSession{UserID: userID, QCMID: req.QCMID, StartedAt: s.now()}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// resolveTimes fills missing timestamps: ended_at defaults to now and
// started_at comes from the attempt session.
func (s *AttemptService) resolveTimes(ctx context.Context, req *RecordAttemptRequest) (started, ended time.Time, err error) {
	ended = s.now()
	if req.EndedAt != nil {
		ended = req.EndedAt.UTC()
	}

	switch {
	case req.StartedAt != nil:
		started = req.StartedAt.UTC()
	case s.sessions != nil:
		session, serr := s.sessions.Get(ctx, req.UserID, req.QCMID)
		if serr != nil {
			return started, ended, serr
		}
		if session == nil {
			return started, ended, invalid("started_at is required when no attempt was started")
		}
		started = session.StartedAt.UTC()
	default:
		return started, ended, invalid("started_at is required")
	}

	if ended.Before(started) {
		return started, ended, invalid("ended_at must not be before started_at")
	}
	return started, ended, nil
}

// checkAnswers makes sure every answer points at a question of the QCM and
// at a response of that question.
func checkAnswers(qcm *models.QCM, answers []AnswerInput) error {
	owned := make(map[uint]map[uint]struct{}, len(qcm.Questions))
	for _, q := range qcm.Questions {
		ids := make(map[uint]struct{}, len(q.Responses))
		for _, r := range q.Responses {
			ids[r.ID] = struct{}{}
		}
		owned[q.ID] = ids
	}

	for _, a := range answers {
		responses, ok := owned[a.QuestionID]
		if !ok {
			return invalid("question %d does not belong to qcm %d", a.QuestionID, qcm.ID)
		}
		if _, ok := responses[a.ResponseID]; !ok {
			return invalid("response %d does not belong to question %d", a.ResponseID, a.QuestionID)
		}
	}
	return nil
}

func dedupeAnswers(answers []AnswerInput) []AnswerInput {
	seen := make(map[AnswerInput]struct{}, len(answers))
	out := make([]AnswerInput, 0, len(answers))
	for _, a := range answers {
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}

// RecordAttempt validates and scores a submission, then stores the attempt
// and its answers in one transaction.
func (s *AttemptService) RecordAttempt(ctx context.Context, req *RecordAttemptRequest) (*AttemptResult, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	started, ended, err := s.resolveTimes(ctx, req)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	var user models.User
	if err := db.Select("id").First(&user, req.UserID).Error; err != nil {
		return nil, notFoundOr(err, "user", req.UserID)
	}

	qcm, err := loadQCMTree(db, req.QCMID)
	if err != nil {
		return nil, err
	}

	answers := dedupeAnswers(req.Answers)
	if err := checkAnswers(qcm, answers); err != nil {
		return nil, err
	}

	result, err := ScoreAttempt(qcm.Questions, answers)
	if err != nil {
		return nil, err
	}

	attempt := models.QuizAttempt{
		UserID:    req.UserID,
		QCMID:     req.QCMID,
		StartedAt: &started,
		EndedAt:   &ended,
		Score:     result.Score,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Answers", "User", "QCM").Create(&attempt).Error; err != nil {
			return err
		}
		if len(answers) == 0 {
			return nil
		}

		rows := make([]models.UserAnswer, len(answers))
		for i, a := range answers {
			rows[i] = models.UserAnswer{
				AttemptID:  attempt.ID,
				QuestionID: a.QuestionID,
				ResponseID: a.ResponseID,
			}
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
		attempt.Answers = rows
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.sessions != nil {
		if err := s.sessions.Delete(ctx, req.UserID, req.QCMID); err != nil {
			log.WithError(err).WithField("attempt", attempt.ID).Warn("failed to clear attempt session")
		}
	}

	log.WithFields(log.Fields{
		"attempt": attempt.ID,
		"user":    attempt.UserID,
		"qcm":     attempt.QCMID,
		"score":   attempt.Score,
	}).Info("attempt recorded")

	return &AttemptResult{Attempt: &attempt, Result: result}, nil
}

func (s *AttemptService) ListAttempts(ctx context.Context) ([]models.QuizAttempt, error) {
	var attempts []models.QuizAttempt
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("QCM").
		Order("id DESC").
		Find(&attempts).Error
	return attempts, err
}

func (s *AttemptService) ListUserAttempts(ctx context.Context, userID uint) ([]models.QuizAttempt, error) {
	db := s.db.WithContext(ctx)

	var user models.User
	if err := db.Select("id").First(&user, userID).Error; err != nil {
		return nil, notFoundOr(err, "user", userID)
	}

	var attempts []models.QuizAttempt
	err := db.Where("id_user = ?", userID).
		Preload("QCM").
		Order("id DESC").
		Find(&attempts).Error
	return attempts, err
}

// GetAttemptDetails rebuilds the QCM as the trainee saw it, flagging the
// responses they selected.
func (s *AttemptService) GetAttemptDetails(ctx context.Context, attemptID uint) (*AttemptDetails, error) {
	db := s.db.WithContext(ctx)

	var attempt models.QuizAttempt
	if err := db.Preload("Answers").First(&attempt, attemptID).Error; err != nil {
		return nil, notFoundOr(err, "attempt", attemptID)
	}

	qcm, err := loadQCMTree(db, attempt.QCMID)
	if err != nil {
		return nil, err
	}

	selected := make(map[uint]struct{}, len(attempt.Answers))
	answers := make([]AnswerInput, len(attempt.Answers))
	for i, a := range attempt.Answers {
		selected[a.ResponseID] = struct{}{}
		answers[i] = AnswerInput{QuestionID: a.QuestionID, ResponseID: a.ResponseID}
	}

	satisfied := make(map[uint]bool, len(qcm.Questions))
	if len(qcm.Questions) > 0 {
		result, err := ScoreAttempt(qcm.Questions, answers)
		if err != nil {
			return nil, err
		}
		for _, qr := range result.Questions {
			satisfied[qr.QuestionID] = qr.Satisfied
		}
	}

	details := &AttemptDetails{
		ID:        attempt.ID,
		UserID:    attempt.UserID,
		QCMID:     attempt.QCMID,
		Title:     qcm.Title,
		StartedAt: attempt.StartedAt,
		EndedAt:   attempt.EndedAt,
		Score:     attempt.Score,
		Questions: make([]DetailsQuestion, 0, len(qcm.Questions)),
	}
	for _, q := range qcm.Questions {
		dq := DetailsQuestion{
			ID:        q.ID,
			Text:      q.Text,
			Type:      q.Type,
			Position:  q.Position,
			Satisfied: satisfied[q.ID],
			Responses: make([]DetailsResponse, 0, len(q.Responses)),
		}
		for _, r := range q.Responses {
			_, isSelected := selected[r.ID]
			dq.Responses = append(dq.Responses, DetailsResponse{
				ID:        r.ID,
				Text:      r.Text,
				IsCorrect: r.IsCorrect,
				Position:  r.Position,
				Selected:  isSelected,
			})
		}
		details.Questions = append(details.Questions, dq)
	}
	return details, nil
}
