package grpc

import (
	"bytes"
	"context"

	"github.com/Shubhajeetgithub/expense-tracker-server/internal/server/models"
	"github.com/Shubhajeetgithub/expense-tracker-server/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func toUser(u *models.User) User {
	return User{ID: u.ID, Email: u.Email, FullName: u.FullName}
}

func (s *GRPCServer) Register(ctx context.Context, req *RegisterRequest) (*RegisterResponse, error) {
	user, err := s.svc.Register(ctx, req.FullName, req.Email, req.Password)
	if err != nil {
		return nil, toStatus(err)
	}
	return &RegisterResponse{User: toUser(user)}, nil
}

func (s *GRPCServer) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	res, err := s.svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, toStatus(err)
	}

	record := res.Transactions
	if record == nil {
		record = []services.TransactionView{}
	}

	return &LoginResponse{
		AccessToken:       res.Tokens.AccessToken,
		RefreshToken:      res.Tokens.RefreshToken,
		User:              toUser(res.User),
		TransactionRecord: record,
	}, nil
}

func (s *GRPCServer) Refresh(ctx context.Context, req *RefreshRequest) (*RefreshResponse, error) {
	pair, err := s.svc.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return nil, toStatus(err)
	}
	return &RefreshResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}, nil
}

func (s *GRPCServer) Logout(ctx context.Context, req *LogoutRequest) (*LogoutResponse, error) {
	claims, ok := claimsFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "Unauthorized request")
	}

	var raw []byte
	if t := bytes.TrimSpace(req.Transactions); len(t) > 0 && !bytes.Equal(t, []byte("null")) {
		raw = t
	}

	n, err := s.svc.Logout(ctx, claims.UserID(), raw)
	if err != nil {
		return nil, toStatus(err)
	}
	return &LogoutResponse{TransactionsProcessed: n}, nil
}
