package services

import (
	"context"
	"testing"
	"time"

	"qcmanager/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoResponses(correct ...bool) []ResponseInput {
	out := []ResponseInput{{Text: "A"}, {Text: "B"}}
	for i, c := range correct {
		out[i].IsCorrect = c
	}
	return out
}

func TestCreateQuestion(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	svc := NewQuestionService(db)
	qcm := seedGeoQCM(t, db, 0)

	tests := []struct {
		name     string
		explicit bool
		req      CreateQuestionRequest
		wantType string
		wantErr  func(error) bool
	}{
		{
			name:     "explicit single",
			explicit: true,
			req:      CreateQuestionRequest{QCMID: qcm.ID, Text: "Q", Type: "single", Responses: twoResponses(true)},
			wantType: models.QuestionTypeSingle,
		},
		{
			name:     "explicit type is required",
			explicit: true,
			req:      CreateQuestionRequest{QCMID: qcm.ID, Text: "Q", Responses: twoResponses(true)},
			wantErr:  IsValidation,
		},
		{
			name:     "explicit multiple with one correct",
			explicit: true,
			req:      CreateQuestionRequest{QCMID: qcm.ID, Text: "Q", Type: "multiple", Responses: twoResponses(true, false)},
			wantErr:  IsValidation,
		},
		{
			name:     "inferred multiple",
			req:      CreateQuestionRequest{QCMID: qcm.ID, Text: "Q", Responses: twoResponses(true, true)},
			wantType: models.QuestionTypeMultiple,
		},
		{
			name:     "inferred single",
			req:      CreateQuestionRequest{QCMID: qcm.ID, Text: "Q", Responses: twoResponses(false, true)},
			wantType: models.QuestionTypeSingle,
		},
		{
			name:    "one response",
			req:     CreateQuestionRequest{QCMID: qcm.ID, Text: "Q", Responses: twoResponses(true)[:1]},
			wantErr: IsValidation,
		},
		{
			name:    "blank text",
			req:     CreateQuestionRequest{QCMID: qcm.ID, Text: "   ", Responses: twoResponses(true)},
			wantErr: IsValidation,
		},
		{
			name:    "unknown qcm",
			req:     CreateQuestionRequest{QCMID: qcm.ID + 50, Text: "Q", Responses: twoResponses(true)},
			wantErr: IsNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := countRows(t, db, &models.Question{})
			req := tt.req

			var q *models.Question
			var err error
			if tt.explicit {
				q, err = svc.CreateWithExplicitType(ctx, &req)
			} else {
				q, err = svc.CreateWithInferredType(ctx, &req)
			}

			if tt.wantErr != nil {
				assert.True(t, tt.wantErr(err), "got %v", err)
				assert.Equal(t, before, countRows(t, db, &models.Question{}))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, q.Type)
			assert.Len(t, q.Responses, 2)
			assert.Equal(t, int(before)+1, q.Position, "appended after the last question")
		})
	}
}

func TestUpdateQuestionCoalesces(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	svc := NewQuestionService(db)
	qcm := seedGeoQCM(t, db, 0)
	original := qcm.Questions[0]

	newType := models.QuestionTypeMultiple
	updated, err := svc.Update(ctx, original.ID, &UpdateQuestionRequest{Type: &newType})
	require.NoError(t, err)

	assert.Equal(t, models.QuestionTypeMultiple, updated.Type)
	assert.Equal(t, original.Text, updated.Text)
	assert.Equal(t, original.Position, updated.Position)
	assert.Equal(t, original.Responses, updated.Responses)
}

func TestUpdateQuestionReplacesResponses(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	svc := NewQuestionService(db)
	qcm := seedGeoQCM(t, db, 0)
	q := qcm.Questions[1]

	updated, err := svc.Update(ctx, q.ID, &UpdateQuestionRequest{
		Responses: []ResponseInput{{Text: "Seine", IsCorrect: true}, {Text: "Nile"}},
	})
	require.NoError(t, err)
	require.Len(t, updated.Responses, 2)
	assert.Equal(t, "Seine", updated.Responses[0].Text)
	assert.Equal(t, models.QuestionTypeSingle, updated.Type)

	_, err = svc.Update(ctx, q.ID, &UpdateQuestionRequest{Responses: []ResponseInput{{Text: "only"}}})
	assert.True(t, IsValidation(err))

	responses, err := svc.ListResponses(ctx, q.ID)
	require.NoError(t, err)
	assert.Len(t, responses, 2, "a rejected update leaves the responses untouched")

	_, err = svc.Update(ctx, q.ID+100, &UpdateQuestionRequest{})
	assert.True(t, IsNotFound(err))
}

func TestUpdateQuestionResponsesDropsTheirAnswers(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	svc := NewQuestionService(db)
	trainee := seedUser(t, db, "t@example.com", false)
	qcm := seedGeoQCM(t, db, 0)
	q0, q1 := qcm.Questions[0], qcm.Questions[1]

	answers := []AnswerInput{{q0.ID, correctIDs(q0)[0]}}
	for _, id := range correctIDs(q1) {
		answers = append(answers, AnswerInput{q1.ID, id})
	}
	start := time.Now().Add(-time.Minute)
	recorded, err := NewAttemptService(db, nil).RecordAttempt(ctx, &RecordAttemptRequest{
		UserID:    trainee.ID,
		QCMID:     qcm.ID,
		StartedAt: &start,
		Answers:   answers,
	})
	require.NoError(t, err)

	_, err = svc.Update(ctx, q0.ID, &UpdateQuestionRequest{
		Responses: []ResponseInput{{Text: "Paris", IsCorrect: true}, {Text: "Lyon"}},
	})
	require.NoError(t, err)

	var dangling int64
	require.NoError(t, db.Model(&models.UserAnswer{}).
		Where("id_response NOT IN (?)", db.Model(&models.Response{}).Select("id")).
		Count(&dangling).Error)
	assert.Zero(t, dangling)

	var kept int64
	require.NoError(t, db.Model(&models.UserAnswer{}).Where("id_question = ?", q1.ID).Count(&kept).Error)
	assert.Equal(t, int64(len(correctIDs(q1))), kept, "answers to other questions survive")

	var attempt models.QuizAttempt
	require.NoError(t, db.First(&attempt, recorded.Attempt.ID).Error)
	assert.InDelta(t, recorded.Attempt.Score, attempt.Score, 1e-9)
}

func TestUpdateQuestionRejectsNonPositivePosition(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	svc := NewQuestionService(db)
	q := seedGeoQCM(t, db, 0).Questions[0]

	for _, position := range []int{0, -3} {
		position := position
		_, err := svc.Update(ctx, q.ID, &UpdateQuestionRequest{Position: &position})
		assert.True(t, IsValidation(err), "position %d", position)
	}

	stored, err := svc.Get(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, q.Position, stored.Position)
}

func TestDeleteQuestion(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	svc := NewQuestionService(db)
	trainee := seedUser(t, db, "t@example.com", false)
	qcm := seedGeoQCM(t, db, 0)
	q := qcm.Questions[0]

	start := time.Now().Add(-time.Minute)
	_, err := NewAttemptService(db, nil).RecordAttempt(ctx, &RecordAttemptRequest{
		UserID:    trainee.ID,
		QCMID:     qcm.ID,
		StartedAt: &start,
		Answers:   []AnswerInput{{q.ID, correctIDs(q)[0]}},
	})
	require.NoError(t, err)

	deleted, err := svc.Delete(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, q.Text, deleted.Text)

	assert.Equal(t, int64(3), countRows(t, db, &models.Response{}))
	assert.Zero(t, countRows(t, db, &models.UserAnswer{}))

	_, err = svc.Get(ctx, q.ID)
	assert.True(t, IsNotFound(err))
	_, err = svc.Delete(ctx, q.ID)
	assert.True(t, IsNotFound(err))
}

func TestListQuestions(t *testing.T) {
	db := newTestDB(t)
	seedGeoQCM(t, db, 0)

	questions, err := NewQuestionService(db).List(context.Background())
	require.NoError(t, err)
	require.Len(t, questions, 2)
	for _, q := range questions {
		assert.GreaterOrEqual(t, len(q.Responses), 2)
	}
	assert.Less(t, questions[0].Position, questions[1].Position)
}
