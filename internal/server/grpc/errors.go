package grpc

import (
	"errors"
	"strings"

	"github.com/Shubhajeetgithub/expense-tracker-server/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus maps service errors onto gRPC codes with the same client-facing
// messages the HTTP transport uses.
func toStatus(err error) error {
	switch {
	case errors.Is(err, common.ErrorValidation):
		return status.Error(codes.InvalidArgument, strings.TrimPrefix(err.Error(), common.ErrorValidation.Error()+": "))
	case errors.Is(err, common.ErrorDuplicateUser):
		return status.Error(codes.AlreadyExists, "User already exists")
	case errors.Is(err, common.ErrorNoValidTransactions):
		return status.Error(codes.InvalidArgument, "No valid transactions found in the provided data")
	case errors.Is(err, common.ErrorUnauthorized):
		return status.Error(codes.Unauthenticated, "Invalid email or password")
	case errors.Is(err, common.ErrTokenExpired):
		return status.Error(codes.Unauthenticated, "Token expired")
	case errors.Is(err, common.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, "Invalid or revoked token")
	default:
		return status.Error(codes.Internal, "Internal server error")
	}
}
