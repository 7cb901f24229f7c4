package rest

import (
	"context"
	"time"

	"github.com/Shubhajeetgithub/expense-tracker-server/internal/common"
	"github.com/Shubhajeetgithub/expense-tracker-server/internal/server/auth"
	"github.com/Shubhajeetgithub/expense-tracker-server/internal/server/models"
	"github.com/Shubhajeetgithub/expense-tracker-server/internal/server/services"
)

// fakeSession records the last call and returns canned results.
type fakeSession struct {
	registerErr error
	loginRes    *services.LoginResult
	loginErr    error
	refreshRes  *services.TokenPair
	refreshErr  error
	logoutN     int
	logoutErr   error
	guestN      int
	guestErr    error

	gotFullName, gotEmail, gotPassword string
	gotRefresh                         string
	gotUserID                          string
	gotBatch                           []byte
	gotGuestBatch                      string
	logoutCalls                        int
}

const validAccess = "good-access"

func (f *fakeSession) Register(ctx context.Context, fullName, email, password string) (*models.User, error) {
	f.gotFullName, f.gotEmail, f.gotPassword = fullName, email, password
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &models.User{ID: "u-1", Email: common.NormalizeEmail(email), FullName: fullName, PasswordHash: "secret-hash"}, nil
}

func (f *fakeSession) Login(ctx context.Context, email, password string) (*services.LoginResult, error) {
	f.gotEmail, f.gotPassword = email, password
	return f.loginRes, f.loginErr
}

func (f *fakeSession) Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error) {
	f.gotRefresh = refreshToken
	return f.refreshRes, f.refreshErr
}

func (f *fakeSession) Logout(ctx context.Context, userID string, rawBatch []byte) (int, error) {
	f.logoutCalls++
	f.gotUserID, f.gotBatch = userID, rawBatch
	return f.logoutN, f.logoutErr
}

func (f *fakeSession) GuestSync(ctx context.Context, fullName, email, rawBatch string) (int, error) {
	f.gotFullName, f.gotEmail, f.gotGuestBatch = fullName, email, rawBatch
	return f.guestN, f.guestErr
}

func (f *fakeSession) Authenticate(token string) (*auth.Claims, error) {
	switch token {
	case validAccess:
		c := &auth.Claims{Email: "a@b.com"}
		c.Subject = "u-1"
		return c, nil
	case "expired":
		return nil, common.ErrTokenExpired
	default:
		return nil, common.ErrInvalidToken
	}
}

func (f *fakeSession) AccessTTL() time.Duration  { return time.Hour }
func (f *fakeSession) RefreshTTL() time.Duration { return 30 * 24 * time.Hour }
