package services

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"time"

	"qcmanager/models"

	"gorm.io/gorm"
)

type StatsService struct {
	db *gorm.DB
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{db: db}
}

// AverageTime is a mean duration in minutes; it encodes as a number rounded
// to two decimals, or "-" when no timed attempt exists.
type AverageTime struct {
	Minutes float64
	Valid   bool
}

func (a AverageTime) MarshalJSON() ([]byte, error) {
	if !a.Valid {
		return json.Marshal("-")
	}
	return json.Marshal(round2(a.Minutes))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func averageTime(durations []time.Duration) AverageTime {
	if len(durations) == 0 {
		return AverageTime{}
	}
	var total time.Duration
	for _, d := range durations {
		total += d
	}
	minutes := total.Minutes() / float64(len(durations))
	return AverageTime{Minutes: round2(minutes), Valid: true}
}

type PopularQCM struct {
	QCMID      uint   `json:"id_qcm"`
	Title      string `json:"title"`
	NbAttempts int64  `json:"nb_attempts"`
}

type ActiveTrainee struct {
	UserID     uint   `json:"id_user"`
	Name       string `json:"name"`
	Firstname  string `json:"firstname"`
	Email      string `json:"email"`
	NbAttempts int64  `json:"nb_attempts"`
}

// TraineeStats is one zero-filled row of the per-trainee listing.
type TraineeStats struct {
	UserID           uint        `json:"id_user"`
	Name             string      `json:"name"`
	Firstname        string      `json:"firstname"`
	Email            string      `json:"email"`
	Society          string      `json:"society"`
	NbQuestionnaires int         `json:"nb_questionnaires"`
	NbCompleted      int         `json:"nb_completed"`
	AvgScore         float64     `json:"avg_score"`
	BestScore        float64     `json:"best_score"`
	AvgTime          AverageTime `json:"avg_time"`
	Rank             int         `json:"rank"`
}

func (s *StatsService) CountTrainees(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.User{}).Where("is_admin = ?", false).Count(&n).Error
	return n, err
}

func (s *StatsService) CountQCMs(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.QCM{}).Count(&n).Error
	return n, err
}

func (s *StatsService) CountAttempts(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.QuizAttempt{}).Count(&n).Error
	return n, err
}

// CountCompletedAttempts counts attempts where every question was answered
// exactly right.
func (s *StatsService) CountCompletedAttempts(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.QuizAttempt{}).Where("score >= ?", 100).Count(&n).Error
	return n, err
}

// MostPopularQCM returns the QCM with the most attempts, lowest id on ties.
func (s *StatsService) MostPopularQCM(ctx context.Context) (*PopularQCM, error) {
	var row struct {
		QCMID      uint  `gorm:"column:qcm_id"`
		NbAttempts int64 `gorm:"column:nb_attempts"`
	}
	res := s.db.WithContext(ctx).Model(&models.QuizAttempt{}).
		Select("id_qcm AS qcm_id, COUNT(*) AS nb_attempts").
		Group("id_qcm").
		Order("nb_attempts DESC, id_qcm ASC").
		Limit(1).
		Scan(&row)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, &NotFoundError{Resource: "attempt"}
	}

	var qcm models.QCM
	if err := s.db.WithContext(ctx).First(&qcm, row.QCMID).Error; err != nil {
		return nil, notFoundOr(err, "qcm", row.QCMID)
	}
	return &PopularQCM{QCMID: qcm.ID, Title: qcm.Title, NbAttempts: row.NbAttempts}, nil
}

// MostActiveTrainee returns the non-admin user with the most attempts,
// lowest id on ties.
func (s *StatsService) MostActiveTrainee(ctx context.Context) (*ActiveTrainee, error) {
	var row struct {
		UserID     uint  `gorm:"column:user_id"`
		NbAttempts int64 `gorm:"column:nb_attempts"`
	}
	res := s.db.WithContext(ctx).Model(&models.QuizAttempt{}).
		Select("quiz_attempts.id_user AS user_id, COUNT(*) AS nb_attempts").
		Joins("JOIN users ON users.id = quiz_attempts.id_user").
		Where("users.is_admin = ?", false).
		Group("quiz_attempts.id_user").
		Order("nb_attempts DESC, quiz_attempts.id_user ASC").
		Limit(1).
		Scan(&row)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, &NotFoundError{Resource: "attempt"}
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, row.UserID).Error; err != nil {
		return nil, notFoundOr(err, "user", row.UserID)
	}
	return &ActiveTrainee{
		UserID:     user.ID,
		Name:       user.Name,
		Firstname:  user.Firstname,
		Email:      user.Email,
		NbAttempts: row.NbAttempts,
	}, nil
}

// AverageAttemptTime is the mean duration over every timed attempt.
func (s *StatsService) AverageAttemptTime(ctx context.Context) (AverageTime, error) {
	var attempts []models.QuizAttempt
	err := s.db.WithContext(ctx).
		Select("id", "started_at", "ended_at").
		Where("started_at IS NOT NULL AND ended_at IS NOT NULL").
		Find(&attempts).Error
	if err != nil {
		return AverageTime{}, err
	}

	durations := make([]time.Duration, 0, len(attempts))
	for _, a := range attempts {
		if d, ok := a.Duration(); ok {
			durations = append(durations, d)
		}
	}
	return averageTime(durations), nil
}

// TraineeRanking lists every non-admin user, including those without
// attempts, ranked by average score with competition ranking (1, 2, 2, 4).
func (s *StatsService) TraineeRanking(ctx context.Context) ([]TraineeStats, error) {
	db := s.db.WithContext(ctx)

	var users []models.User
	if err := db.Where("is_admin = ?", false).Order("id").Find(&users).Error; err != nil {
		return nil, err
	}

	var attempts []models.QuizAttempt
	err := db.Select("quiz_attempts.id", "quiz_attempts.id_user", "quiz_attempts.score",
		"quiz_attempts.started_at", "quiz_attempts.ended_at").
		Joins("JOIN users ON users.id = quiz_attempts.id_user").
		Where("users.is_admin = ?", false).
		Find(&attempts).Error
	if err != nil {
		return nil, err
	}

	byUser := make(map[uint][]models.QuizAttempt, len(users))
	for _, a := range attempts {
		byUser[a.UserID] = append(byUser[a.UserID], a)
	}

	rows := make([]TraineeStats, 0, len(users))
	for _, u := range users {
		rows = append(rows, traineeStats(u, byUser[u.ID]))
	}
	rankByAverageScore(rows)
	return rows, nil
}

func traineeStats(u models.User, attempts []models.QuizAttempt) TraineeStats {
	row := TraineeStats{
		UserID:           u.ID,
		Name:             u.Name,
		Firstname:        u.Firstname,
		Email:            u.Email,
		Society:          u.Society,
		NbQuestionnaires: len(attempts),
	}

	var total float64
	durations := make([]time.Duration, 0, len(attempts))
	for _, a := range attempts {
		total += a.Score
		if a.Score > row.BestScore {
			row.BestScore = a.Score
		}
		if a.Score >= 100 {
			row.NbCompleted++
		}
		if d, ok := a.Duration(); ok {
			durations = append(durations, d)
		}
	}
	if len(attempts) > 0 {
		row.AvgScore = round2(total / float64(len(attempts)))
	}
	row.AvgTime = averageTime(durations)
	return row
}

// rankByAverageScore sorts rows by descending average score (user id breaks
// ties in ordering only) and assigns competition ranks.
func rankByAverageScore(rows []TraineeStats) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].AvgScore != rows[j].AvgScore {
			return rows[i].AvgScore > rows[j].AvgScore
		}
		return rows[i].UserID < rows[j].UserID
	})
	for i := range rows {
		if i > 0 && rows[i].AvgScore == rows[i-1].AvgScore {
			rows[i].Rank = rows[i-1].Rank
			continue
		}
		rows[i].Rank = i + 1
	}
}
