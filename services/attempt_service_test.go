package services

import (
	"context"
	"testing"
	"time"

	"qcmanager/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAttempt(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	trainee := seedUser(t, db, "t@example.com", false)
	qcm := seedGeoQCM(t, db, 0)
	q1, q2 := qcm.Questions[0], qcm.Questions[1]

	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Second)
	svc := NewAttemptService(db, nil)

	res, err := svc.RecordAttempt(ctx, &RecordAttemptRequest{
		UserID:    trainee.ID,
		QCMID:     qcm.ID,
		StartedAt: &start,
		EndedAt:   &end,
		Answers: []AnswerInput{
			{q1.ID, correctIDs(q1)[0]},
			{q2.ID, correctIDs(q2)[0]},
		},
	})
	require.NoError(t, err)

	assert.InDelta(t, 50.0, res.Attempt.Score, 1e-9)
	assert.Equal(t, 1, res.Result.Satisfied)
	assert.Len(t, res.Attempt.Answers, 2)
	d, ok := res.Attempt.Duration()
	require.True(t, ok)
	assert.Equal(t, 90*time.Second, d)

	assert.Equal(t, int64(1), countRows(t, db, &models.QuizAttempt{}))
	assert.Equal(t, int64(2), countRows(t, db, &models.UserAnswer{}))
}

func TestRecordAttemptValidation(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	trainee := seedUser(t, db, "t@example.com", false)
	geo := seedGeoQCM(t, db, 0)
	other, err := NewQCMService(db).CreateQCMWithQuestions(ctx, 0, geoRequest("Other"))
	require.NoError(t, err)
	empty, err := NewQCMService(db).CreateQCM(ctx, 0, &CreateQCMRequest{Title: "Empty"})
	require.NoError(t, err)

	start := time.Now().Add(-time.Hour)
	before := start.Add(-time.Hour)
	q1 := geo.Questions[0]

	tests := []struct {
		name    string
		req     RecordAttemptRequest
		wantErr func(error) bool
	}{
		{"missing user", RecordAttemptRequest{QCMID: geo.ID, StartedAt: &start}, IsValidation},
		{"unknown user", RecordAttemptRequest{UserID: 999, QCMID: geo.ID, StartedAt: &start}, IsNotFound},
		{"unknown qcm", RecordAttemptRequest{UserID: trainee.ID, QCMID: 999, StartedAt: &start}, IsNotFound},
		{"no start time", RecordAttemptRequest{UserID: trainee.ID, QCMID: geo.ID}, IsValidation},
		{"ends before start", RecordAttemptRequest{UserID: trainee.ID, QCMID: geo.ID, StartedAt: &start, EndedAt: &before}, IsValidation},
		{"zero questions", RecordAttemptRequest{UserID: trainee.ID, QCMID: empty.ID, StartedAt: &start}, IsValidation},
		{
			"question of another qcm",
			RecordAttemptRequest{UserID: trainee.ID, QCMID: geo.ID, StartedAt: &start,
				Answers: []AnswerInput{{other.Questions[0].ID, other.Questions[0].Responses[0].ID}}},
			IsValidation,
		},
		{
			"response of another question",
			RecordAttemptRequest{UserID: trainee.ID, QCMID: geo.ID, StartedAt: &start,
				Answers: []AnswerInput{{q1.ID, geo.Questions[1].Responses[0].ID}}},
			IsValidation,
		},
	}

	svc := NewAttemptService(db, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			res, err := svc.RecordAttempt(ctx, &req)
			assert.Nil(t, res)
			assert.True(t, tt.wantErr(err), "got %v", err)
		})
	}
	assert.Zero(t, countRows(t, db, &models.QuizAttempt{}))
	assert.Zero(t, countRows(t, db, &models.UserAnswer{}))
}

func TestRecordAttemptUsesSession(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	store, mr := newTestSessionStore(t)
	trainee := seedUser(t, db, "t@example.com", false)
	qcm := seedGeoQCM(t, db, 0)

	clock := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	svc := NewAttemptService(db, store)
	svc.now = func() time.Time { return clock }

	session, err := svc.StartAttempt(ctx, trainee.ID, &StartAttemptRequest{QCMID: qcm.ID})
	require.NoError(t, err)
	assert.True(t, clock.Equal(session.StartedAt))
	assert.True(t, mr.Exists(sessionKey(trainee.ID, qcm.ID)))

	clock = clock.Add(3 * time.Minute)
	res, err := svc.RecordAttempt(ctx, &RecordAttemptRequest{UserID: trainee.ID, QCMID: qcm.ID})
	require.NoError(t, err)

	d, ok := res.Attempt.Duration()
	require.True(t, ok)
	assert.Equal(t, 3*time.Minute, d)
	assert.Zero(t, res.Attempt.Score)
	assert.False(t, mr.Exists(sessionKey(trainee.ID, qcm.ID)), "session is cleared after recording")

	_, err = svc.RecordAttempt(ctx, &RecordAttemptRequest{UserID: trainee.ID, QCMID: qcm.ID})
	assert.True(t, IsValidation(err), "a second submission needs a new session")

	_, err = svc.StartAttempt(ctx, trainee.ID, &StartAttemptRequest{QCMID: qcm.ID + 10})
	assert.True(t, IsNotFound(err))
}

func TestGetAttemptDetails(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	trainee := seedUser(t, db, "t@example.com", false)
	qcm := seedGeoQCM(t, db, 0)
	q1, q2 := qcm.Questions[0], qcm.Questions[1]

	start := time.Now().Add(-time.Minute)
	svc := NewAttemptService(db, nil)
	res, err := svc.RecordAttempt(ctx, &RecordAttemptRequest{
		UserID:    trainee.ID,
		QCMID:     qcm.ID,
		StartedAt: &start,
		Answers: []AnswerInput{
			{q1.ID, wrongID(q1)},
			{q2.ID, correctIDs(q2)[0]},
			{q2.ID, correctIDs(q2)[1]},
		},
	})
	require.NoError(t, err)

	details, err := svc.GetAttemptDetails(ctx, res.Attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, "Geo", details.Title)
	assert.InDelta(t, 50.0, details.Score, 1e-9)
	require.Len(t, details.Questions, 2)

	d1 := details.Questions[0]
	assert.False(t, d1.Satisfied)
	assert.Equal(t, []bool{false, true}, selectedFlags(d1))

	d2 := details.Questions[1]
	assert.True(t, d2.Satisfied)
	assert.Equal(t, []bool{true, true, false}, selectedFlags(d2))

	_, err = svc.GetAttemptDetails(ctx, res.Attempt.ID+1)
	assert.True(t, IsNotFound(err))
}

func selectedFlags(q DetailsQuestion) []bool {
	flags := make([]bool, len(q.Responses))
	for i, r := range q.Responses {
		flags[i] = r.Selected
	}
	return flags
}

func TestListAttempts(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := seedUser(t, db, "alice@example.com", false)
	bob := seedUser(t, db, "bob@example.com", false)
	qcm := seedGeoQCM(t, db, 0)

	start := time.Now().Add(-time.Minute)
	svc := NewAttemptService(db, nil)
	for _, u := range []*models.User{alice, bob, alice} {
		_, err := svc.RecordAttempt(ctx, &RecordAttemptRequest{UserID: u.ID, QCMID: qcm.ID, StartedAt: &start})
		require.NoError(t, err)
	}

	all, err := svc.ListAttempts(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Greater(t, all[0].ID, all[1].ID, "newest first")
	require.NotNil(t, all[0].QCM)
	assert.Equal(t, "Geo", all[0].QCM.Title)
	require.NotNil(t, all[0].User)

	mine, err := svc.ListUserAttempts(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	_, err = svc.ListUserAttempts(ctx, 999)
	assert.True(t, IsNotFound(err))
}
