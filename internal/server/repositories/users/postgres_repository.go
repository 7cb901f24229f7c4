package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Shubhajeetgithub/expense-tracker-server/internal/common"
	"github.com/Shubhajeetgithub/expense-tracker-server/internal/dbx"
	"github.com/Shubhajeetgithub/expense-tracker-server/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

const selectUser = `SELECT id, email, full_name, password_hash, refresh_token, transaction_batch_id, created_at FROM users`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (email, full_name, password_hash)
         VALUES ($1, $2, $3)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.Email, user.FullName, user.PasswordHash).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrorDuplicateUser
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, selectUser+` WHERE email = $1`, email)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, selectUser+` WHERE id = $1`, id)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.FullName, &user.PasswordHash,
		&user.RefreshToken, &user.TransactionBatchID, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) SetRefreshToken(ctx context.Context, userID string, token *string) error {
	query :=
		`UPDATE users SET refresh_token = $1, updated_at = now()
		 WHERE id = $2
		 `
	return r.updateOne(ctx, query, token, userID)
}

func (r *PostgresRepository) RotateRefreshToken(ctx context.Context, userID string, current, next string) error {
	query :=
		`UPDATE users SET refresh_token = $1, updated_at = now()
		 WHERE id = $2 AND refresh_token = $3
		 `
	return r.updateOne(ctx, query, next, userID, current)
}

// SetTransactionBatch repoints the user at batchID. The single-row update is
// the whole swap: the previous batch simply stops being referenced.
func (r *PostgresRepository) SetTransactionBatch(ctx context.Context, userID string, batchID string) error {
	query :=
		`UPDATE users SET transaction_batch_id = $1, updated_at = now()
		 WHERE id = $2
		 `
	return r.updateOne(ctx, query, batchID, userID)
}

func (r *PostgresRepository) updateOne(ctx context.Context, query string, args ...any) error {
	if err := dbx.ExecOne(ctx, r.db, query, args...); err != nil {
		if errors.Is(err, dbx.ErrNoRowsAffected) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
