// Package grpc exposes the session operations over gRPC with a JSON codec.
package grpc

import (
	"context"
	"net"

	"github.com/Shubhajeetgithub/expense-tracker-server/internal/logging"
	"github.com/Shubhajeetgithub/expense-tracker-server/internal/server/auth"
	"github.com/Shubhajeetgithub/expense-tracker-server/internal/server/models"
	"github.com/Shubhajeetgithub/expense-tracker-server/internal/server/services"
	"google.golang.org/grpc"
)

// SessionAPI is the slice of services.SessionService the RPCs use.
type SessionAPI interface {
	Register(ctx context.Context, fullName, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, userID string, rawBatch []byte) (int, error)
	Authenticate(token string) (*auth.Claims, error)
}

type GRPCServer struct {
	address string
	svc     SessionAPI
	logger  logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, svc SessionAPI) *GRPCServer {
	return &GRPCServer{
		address: a,
		logger:  l.With("module", "grpc_server"),
		svc:     svc,
	}
}

// NewServer builds a grpc.Server with the auth interceptor and the session
// service registered.
func (s *GRPCServer) NewServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(s.accessTokenInterceptor))
	srv := grpc.NewServer(opts...)
	srv.RegisterService(&SessionServiceDesc, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

func (s *GRPCServer) Serve(ctx context.Context, listen net.Listener) error {
	srv := s.NewServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
