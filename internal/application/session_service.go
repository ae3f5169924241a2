package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/linkcircle/internal/domain/entity"
	repo "github.com/oksasatya/linkcircle/internal/domain/repository"
	"github.com/oksasatya/linkcircle/pkg/helpers"
)

var (
	ErrInvalidIdentity = errors.New("invalid identity token")
	ErrInvalidSession  = errors.New("session expired or revoked")
)

// TokenPair is a freshly issued access/refresh pair for one session.
type TokenPair struct {
	SessionID          string
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

// SessionService exchanges identity-provider tokens for cookie sessions.
// Live sessions are recorded in Redis; without Redis, sessions are
// stateless and end only when their tokens expire.
type SessionService struct {
	Repo   repo.UserRepository
	JWT    *helpers.JWTManager
	Redis  *redis.Client
	Logger *logrus.Logger
}

func NewSessionService(repo repo.UserRepository, jwt *helpers.JWTManager, rdb *redis.Client, logger *logrus.Logger) *SessionService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &SessionService{Repo: repo, JWT: jwt, Redis: rdb, Logger: logger}
}

func sessionKey(sid string) string { return "session:" + sid }

// SignIn verifies the identity token and opens a session for the user
// registered under its email.
func (s *SessionService) SignIn(ctx context.Context, identityToken string) (*entity.User, TokenPair, error) {
	claims, err := s.JWT.ParseIdentityToken(identityToken)
	if err != nil {
		return nil, TokenPair{}, ErrInvalidIdentity
	}
	u, err := s.Repo.GetByEmail(ctx, entity.NormalizeEmail(claims.Email))
	if err != nil {
		return nil, TokenPair{}, mapRepoError(err)
	}
	sid := uuid.NewString()
	pair, err := s.issue(u.ID, sid)
	if err != nil {
		return nil, TokenPair{}, err
	}
	if s.Redis != nil {
		key := sessionKey(sid)
		if err := s.Redis.HSet(ctx, key, map[string]any{
			"user_id":    u.ID,
			"email":      u.Email,
			"name":       u.Name,
			"created_at": time.Now().UTC().Format(time.RFC3339),
		}).Err(); err != nil {
			return nil, TokenPair{}, err
		}
		s.Redis.Expire(ctx, key, s.JWT.RefreshTTL)
	}
	s.Logger.WithFields(logrus.Fields{"user_id": u.ID, "session_id": sid}).Info("session opened")
	return u, pair, nil
}

// Refresh rotates both tokens of a live session.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, ErrInvalidSession
	}
	if err := s.Validate(ctx, claims.UserID, claims.SessionID); err != nil {
		return TokenPair{}, err
	}
	pair, err := s.issue(claims.UserID, claims.SessionID)
	if err != nil {
		return TokenPair{}, err
	}
	if s.Redis != nil {
		s.Redis.Expire(ctx, sessionKey(claims.SessionID), s.JWT.RefreshTTL)
	}
	return pair, nil
}

// Validate checks that the session is still recorded for userID.
func (s *SessionService) Validate(ctx context.Context, userID, sid string) error {
	if s.Redis == nil {
		return nil
	}
	if sid == "" {
		return ErrInvalidSession
	}
	owner, err := s.Redis.HGet(ctx, sessionKey(sid), "user_id").Result()
	if errors.Is(err, redis.Nil) || (err == nil && owner != userID) {
		return ErrInvalidSession
	}
	return err
}

// SignOut revokes the session. Unknown sessions are ignored.
func (s *SessionService) SignOut(ctx context.Context, sid string) error {
	if s.Redis == nil || sid == "" {
		return nil
	}
	return s.Redis.Del(ctx, sessionKey(sid)).Err()
}

func (s *SessionService) issue(userID, sid string) (TokenPair, error) {
	access, aexp, err := s.JWT.GenerateAccessToken(userID, sid)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(userID, sid)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		SessionID:          sid,
		AccessToken:        access,
		AccessTokenExpiry:  aexp,
		RefreshToken:       refresh,
		RefreshTokenExpiry: rexp,
	}, nil
}
