package helpers

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTManager handles generation and validation of session tokens and
// verification of identity-provider tokens.
type JWTManager struct {
	AccessSecret   []byte
	RefreshSecret  []byte
	IdentitySecret []byte
	AccessTTL      time.Duration
	RefreshTTL     time.Duration
}

func NewJWTManager(accessSecret, refreshSecret, identitySecret string, accessTTL, refreshTTL time.Duration) *JWTManager {
	return &JWTManager{
		AccessSecret:   []byte(accessSecret),
		RefreshSecret:  []byte(refreshSecret),
		IdentitySecret: []byte(identitySecret),
		AccessTTL:      accessTTL,
		RefreshTTL:     refreshTTL,
	}
}

// Claims identify a session: the user and the session id recorded in Redis.
type Claims struct {
	UserID    string `json:"uid"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// IdentityClaims is what the identity provider asserts on sign-in.
type IdentityClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

func (m *JWTManager) GenerateAccessToken(userID, sid string) (string, time.Time, error) {
	return m.generate(userID, sid, m.AccessTTL, m.AccessSecret)
}

func (m *JWTManager) GenerateRefreshToken(userID, sid string) (string, time.Time, error) {
	return m.generate(userID, sid, m.RefreshTTL, m.RefreshSecret)
}

func (m *JWTManager) generate(userID, sid string, ttl time.Duration, secret []byte) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(ttl)
	claims := &Claims{
		UserID:    userID,
		SessionID: sid,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(secret)
	return s, exp, err
}

func (m *JWTManager) ParseAccessToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	if err := parseToken(tokenStr, m.AccessSecret, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (m *JWTManager) ParseRefreshToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	if err := parseToken(tokenStr, m.RefreshSecret, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// ParseIdentityToken verifies a token minted by the identity provider and
// returns the asserted email and display name.
func (m *JWTManager) ParseIdentityToken(tokenStr string) (*IdentityClaims, error) {
	claims := &IdentityClaims{}
	if err := parseToken(tokenStr, m.IdentitySecret, claims); err != nil {
		return nil, err
	}
	if strings.TrimSpace(claims.Email) == "" {
		return nil, errors.New("identity token has no email")
	}
	return claims, nil
}

// SignIdentityToken mints an identity token; used by the seed tool and tests
// to stand in for the provider.
func (m *JWTManager) SignIdentityToken(email, name string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &IdentityClaims{
		Email: email,
		Name:  name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.IdentitySecret)
}

func parseToken(tokenStr string, secret []byte, claims jwt.Claims) error {
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return err
	}
	if !tkn.Valid {
		return errors.New("invalid token")
	}
	return nil
}
