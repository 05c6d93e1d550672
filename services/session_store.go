package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// AttemptSession marks a trainee as having opened a QCM.
type AttemptSession struct {
	UserID    uint      `json:"id_user"`
	QCMID     uint      `json:"id_qcm"`
	StartedAt time.Time `json:"started_at"`
}

type SessionStore struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{redis: client, ttl: ttl}
}

func sessionKey(userID, qcmID uint) string {
	return fmt.Sprintf("attempt:%d:%d", userID, qcmID)
}

func (s *SessionStore) Save(ctx context.Context, session *AttemptSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal attempt session: %w", err)
	}

	if err := s.redis.Set(ctx, sessionKey(session.UserID, session.QCMID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store attempt session: %w", err)
	}

	log.WithFields(log.Fields{"user": session.UserID, "qcm": session.QCMID}).Debug("stored attempt session")
	return nil
}

// Get returns nil without error when no session exists.
func (s *SessionStore) Get(ctx context.Context, userID, qcmID uint) (*AttemptSession, error) {
	data, err := s.redis.Get(ctx, sessionKey(userID, qcmID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read attempt session: %w", err)
	}

	var session AttemptSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal attempt session: %w", err)
	}
	return &session, nil
}

func (s *SessionStore) Delete(ctx context.Context, userID, qcmID uint) error {
	return s.redis.Del(ctx, sessionKey(userID, qcmID)).Err()
}
