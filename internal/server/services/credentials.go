// Package services contains server-side business logic: credential checks,
// the session lifecycle and transaction reconciliation.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Shubhajeetgithub/expense-tracker-server/internal/common"
	"github.com/Shubhajeetgithub/expense-tracker-server/internal/dbx"
	"github.com/Shubhajeetgithub/expense-tracker-server/internal/server/models"
	"github.com/Shubhajeetgithub/expense-tracker-server/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

// PlaceholderPasswordHash is stored for users created implicitly by guest
// sync. No known password matches it.
const PlaceholderPasswordHash = "$2b$10$USgXelRakjf7mHntgcHjwuwBPADtsHCsQk08oBuNC/1vvFiJ70fFu"

// CredentialStore persists identities and checks secrets against their
// bcrypt hashes. Hashes never leave this type except inside models.User.
type CredentialStore struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	cost        int
}

func NewCredentialStore(db *sql.DB, m repomanager.RepositoryManager) *CredentialStore {
	return &CredentialStore{db: db, repomanager: m, cost: bcrypt.DefaultCost}
}

// FindByEmail looks the user up by normalized email. Absent users yield
// common.ErrorNotFound.
func (s *CredentialStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByEmail(ctx, common.NormalizeEmail(email))
}

// Create hashes secret and inserts the user. A taken email yields
// common.ErrorDuplicateUser.
func (s *CredentialStore) Create(ctx context.Context, email, fullName, secret string) (*models.User, error) {
	hash, err := s.Hash(secret)
	if err != nil {
		return nil, err
	}
	return s.insert(ctx, s.db, email, fullName, hash)
}

func (s *CredentialStore) insert(ctx context.Context, db dbx.DBTX, email, fullName, hash string) (*models.User, error) {
	user := &models.User{
		Email:        common.NormalizeEmail(email),
		FullName:     fullName,
		PasswordHash: hash,
	}
	return s.repomanager.Users(db).Create(ctx, user)
}

func (s *CredentialStore) Hash(secret string) (string, error) {
	b := []byte(secret)
	defer common.WipeByteArray(b)

	hash, err := bcrypt.GenerateFromPassword(b, s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%w: password must be at most 72 bytes", common.ErrorValidation)
		}
		return "", fmt.Errorf("hash secret: %w", err)
	}
	return string(hash), nil
}

// VerifySecret reports whether candidate matches the user's stored hash.
// A nil user is checked against the placeholder hash and always fails, so
// unknown emails cost the same as wrong passwords. Users still holding the
// placeholder never verify.
func (s *CredentialStore) VerifySecret(user *models.User, candidate string) bool {
	hash := PlaceholderPasswordHash
	if user != nil {
		hash = user.PasswordHash
	}

	b := []byte(candidate)
	defer common.WipeByteArray(b)

	ok := bcrypt.CompareHashAndPassword([]byte(hash), b) == nil
	return ok && user != nil && user.PasswordHash != PlaceholderPasswordHash
}
