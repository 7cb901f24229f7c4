package services

import (
	"context"
	"strings"
	"testing"

	"github.com/Shubhajeetgithub/expense-tracker-server/internal/common"
	"github.com/Shubhajeetgithub/expense-tracker-server/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestCredentialStore(t *testing.T) (*CredentialStore, *fakeRepoManager) {
	t.Helper()
	db, _ := newSQLMockDB(t)
	rm := newFakeRepoManager()
	s := NewCredentialStore(db, rm)
	s.cost = bcrypt.MinCost
	return s, rm
}

func TestCredentialStore_CreateStoresOnlyHash(t *testing.T) {
	s, rm := newTestCredentialStore(t)

	u, err := s.Create(context.Background(), "  Alice@Example.COM ", "Alice", "s3cret")
	require.NoError(t, err)

	stored := rm.u.get(u.ID)
	require.NotNil(t, stored)
	assert.Equal(t, "alice@example.com", stored.Email)
	assert.NotEqual(t, "s3cret", stored.PasswordHash)
	assert.False(t, strings.Contains(stored.PasswordHash, "s3cret"))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("s3cret")))
}

func TestCredentialStore_CreateDuplicate(t *testing.T) {
	s, _ := newTestCredentialStore(t)

	_, err := s.Create(context.Background(), "a@b.com", "A", "pw")
	require.NoError(t, err)
	_, err = s.Create(context.Background(), "A@B.com", "A2", "pw")
	assert.ErrorIs(t, err, common.ErrorDuplicateUser)
}

func TestCredentialStore_FindByEmailNormalizes(t *testing.T) {
	s, _ := newTestCredentialStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, "a@b.com", "A", "pw")
	require.NoError(t, err)

	got, err := s.FindByEmail(ctx, "  A@B.COM")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = s.FindByEmail(ctx, "nobody@b.com")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestCredentialStore_VerifySecret(t *testing.T) {
	s, _ := newTestCredentialStore(t)

	u, err := s.Create(context.Background(), "a@b.com", "A", "pw123")
	require.NoError(t, err)

	assert.True(t, s.VerifySecret(u, "pw123"))
	assert.False(t, s.VerifySecret(u, "pw124"))
	assert.False(t, s.VerifySecret(u, ""))
	assert.False(t, s.VerifySecret(nil, "pw123"))
}

func TestCredentialStore_PlaceholderNeverVerifies(t *testing.T) {
	s, _ := newTestCredentialStore(t)

	guest := &models.User{ID: "g", PasswordHash: PlaceholderPasswordHash}
	for _, candidate := range []string{"", "password", "123456", "guest"} {
		assert.False(t, s.VerifySecret(guest, candidate), candidate)
	}
}

func TestCredentialStore_HashTooLong(t *testing.T) {
	s, _ := newTestCredentialStore(t)

	_, err := s.Hash(strings.Repeat("x", 73))
	assert.ErrorIs(t, err, common.ErrorValidation)
}
