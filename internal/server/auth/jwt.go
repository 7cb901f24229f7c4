// Package auth issues and verifies the HS256 access and refresh tokens.
package auth

import (
	"errors"
	"time"

	"github.com/Shubhajeetgithub/expense-tracker-server/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims carries the registered claims plus the identity fields the
// clients read. Refresh tokens leave Email and FullName empty.
type Claims struct {
	jwt.RegisteredClaims
	Email    string `json:"email,omitempty"`
	FullName string `json:"fullName,omitempty"`
}

// UserID returns the subject, which is always the user id.
func (c *Claims) UserID() string {
	return c.Subject
}

// Subject is what a token is minted for.
type Subject struct {
	UserID   string
	Email    string
	FullName string
}

// TokenIssuer signs access and refresh tokens with independent secrets so a
// leaked access key cannot mint refresh tokens.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

func (i *TokenIssuer) AccessTTL() time.Duration  { return i.accessTTL }
func (i *TokenIssuer) RefreshTTL() time.Duration { return i.refreshTTL }

func (i *TokenIssuer) IssueAccessToken(s Subject) (string, error) {
	return GenerateToken(Claims{
		RegisteredClaims: i.registered(s.UserID, i.accessTTL),
		Email:            s.Email,
		FullName:         s.FullName,
	}, i.accessSecret)
}

func (i *TokenIssuer) IssueRefreshToken(userID string) (string, error) {
	return GenerateToken(Claims{RegisteredClaims: i.registered(userID, i.refreshTTL)}, i.refreshSecret)
}

func (i *TokenIssuer) VerifyAccessToken(token string) (*Claims, error) {
	return ParseToken(token, i.accessSecret)
}

func (i *TokenIssuer) VerifyRefreshToken(token string) (*Claims, error) {
	return ParseToken(token, i.refreshSecret)
}

// jti makes every token unique, even two minted for the same user in the same second.
func (i *TokenIssuer) registered(userID string, ttl time.Duration) jwt.RegisteredClaims {
	now := i.now()
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func GenerateToken(claims Claims, secretKey []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies signature and expiry. Expired tokens yield
// common.ErrTokenExpired; anything else unusable yields common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
