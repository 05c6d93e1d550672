package services

import (
	"context"
	"testing"

	"qcmanager/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a private in-memory database with the full schema. A single
// connection keeps every query on the same memory database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, models.Migrate(db))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email string, admin bool) *models.User {
	t.Helper()
	user := &models.User{
		Name:      "Doe",
		Firstname: "Jane",
		Email:     email,
		Password:  "x",
		IsAdmin:   admin,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// geoRequest is a two-question QCM: q1 single (Paris), q2 multiple (Rhine, Rhone).
func geoRequest(title string) *CreateQCMTreeRequest {
	return &CreateQCMTreeRequest{
		Title:       title,
		Description: "capitals and rivers",
		Questions: []CreateQuestionInput{
			{
				Text: "Capital of France?",
				Type: models.QuestionTypeSingle,
				Responses: []ResponseInput{
					{Text: "Paris", IsCorrect: true},
					{Text: "Lyon"},
				},
			},
			{
				Text: "Rivers of France?",
				Responses: []ResponseInput{
					{Text: "Rhine", IsCorrect: true},
					{Text: "Rhone", IsCorrect: true},
					{Text: "Danube"},
				},
			},
		},
	}
}

func seedGeoQCM(t *testing.T, db *gorm.DB, authorID uint) *models.QCM {
	t.Helper()
	qcm, err := NewQCMService(db).CreateQCMWithQuestions(context.Background(), authorID, geoRequest("Geo"))
	require.NoError(t, err)
	require.Len(t, qcm.Questions, 2)
	return qcm
}

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func correctIDs(q models.Question) []uint {
	var ids []uint
	for _, r := range q.Responses {
		if r.IsCorrect {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

func wrongID(q models.Question) uint {
	for _, r := range q.Responses {
		if !r.IsCorrect {
			return r.ID
		}
	}
	return 0
}
