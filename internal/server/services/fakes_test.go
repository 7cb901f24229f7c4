package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Shubhajeetgithub/expense-tracker-server/internal/common"
	"github.com/Shubhajeetgithub/expense-tracker-server/internal/dbx"
	"github.com/Shubhajeetgithub/expense-tracker-server/internal/server/models"
	transactionsrepo "github.com/Shubhajeetgithub/expense-tracker-server/internal/server/repositories/transactions"
	usersrepo "github.com/Shubhajeetgithub/expense-tracker-server/internal/server/repositories/users"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

type fakeUsersRepo struct {
	mu     sync.Mutex
	byID   map[string]*models.User
	nextID int

	createErr     error
	getErr        error
	setRefreshErr error
	setBatchErr   error

	// beforeCreate runs ahead of Create without the lock held.
	beforeCreate func()
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byID: map[string]*models.User{}}
}

func copyUser(u *models.User) *models.User {
	c := *u
	return &c
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.beforeCreate != nil {
		f.beforeCreate()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return nil, common.ErrorDuplicateUser
		}
	}
	f.nextID++
	u.ID = fmt.Sprintf("u-%d", f.nextID)
	u.CreatedAt = time.Now()
	f.byID[u.ID] = copyUser(u)
	return u, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byID {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return copyUser(u), nil
}

func (f *fakeUsersRepo) SetRefreshToken(ctx context.Context, userID string, token *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setRefreshErr != nil {
		return f.setRefreshErr
	}
	u, ok := f.byID[userID]
	if !ok {
		return common.ErrorNotFound
	}
	if token == nil {
		u.RefreshToken = nil
	} else {
		v := *token
		u.RefreshToken = &v
	}
	return nil
}

func (f *fakeUsersRepo) RotateRefreshToken(ctx context.Context, userID string, current, next string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[userID]
	if !ok || u.RefreshToken == nil || *u.RefreshToken != current {
		return common.ErrorNotFound
	}
	u.RefreshToken = &next
	return nil
}

func (f *fakeUsersRepo) SetTransactionBatch(ctx context.Context, userID string, batchID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setBatchErr != nil {
		return f.setBatchErr
	}
	u, ok := f.byID[userID]
	if !ok {
		return common.ErrorNotFound
	}
	u.TransactionBatchID = &batchID
	return nil
}

func (f *fakeUsersRepo) get(id string) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byID[id]; ok {
		return copyUser(u)
	}
	return nil
}

type fakeTransactionsRepo struct {
	mu        sync.Mutex
	batches   map[string][]models.Transaction
	insertErr error
	listErr   error
}

func newFakeTransactionsRepo() *fakeTransactionsRepo {
	return &fakeTransactionsRepo{batches: map[string][]models.Transaction{}}
}

func (f *fakeTransactionsRepo) InsertBatch(ctx context.Context, txs []models.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	for _, t := range txs {
		f.batches[t.BatchID] = append(f.batches[t.BatchID], t)
	}
	return nil
}

func (f *fakeTransactionsRepo) ListByBatch(ctx context.Context, batchID string) ([]models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := append([]models.Transaction{}, f.batches[batchID]...)
	return out, nil
}

func (f *fakeTransactionsRepo) batchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batches)
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	t *fakeTransactionsRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{u: newFakeUsersRepo(), t: newFakeTransactionsRepo()}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error         { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository               { return m.u }
func (m *fakeRepoManager) Transactions(db dbx.DBTX) transactionsrepo.Repository { return m.t }

type fakeRecorder struct {
	mu       sync.Mutex
	auth     map[string]int
	accepted int
	skipped  int
}

func newFakeRecorder() *fakeRecorder { return &fakeRecorder{auth: map[string]int{}} }

func (r *fakeRecorder) AuthAttempt(op, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.auth[op+"/"+outcome]++
}

func (r *fakeRecorder) SyncTransactions(accepted, skipped int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accepted += accepted
	r.skipped += skipped
}

type fakeArchive struct {
	mu    sync.Mutex
	calls []string
	count []int
	err   error
}

func (a *fakeArchive) Archive(ctx context.Context, userID string, txs []models.Transaction) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, userID)
	a.count = append(a.count, len(txs))
	return a.err
}
