package users

import (
	"context"

	"github.com/Shubhajeetgithub/expense-tracker-server/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	// SetRefreshToken stores token as the only live refresh token; nil clears it.
	SetRefreshToken(ctx context.Context, userID string, token *string) error
	// RotateRefreshToken swaps current for next only if current is still the
	// stored token; otherwise it returns common.ErrorNotFound.
	RotateRefreshToken(ctx context.Context, userID string, current, next string) error
	SetTransactionBatch(ctx context.Context, userID string, batchID string) error
}
