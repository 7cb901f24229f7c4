package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Shubhajeetgithub/expense-tracker-server/internal/common"
	"github.com/Shubhajeetgithub/expense-tracker-server/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	insertQ   = `(?s)^INSERT\s+INTO\s+users\s*\(email,\s*full_name,\s*password_hash\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*RETURNING\s+id,\s*created_at\s*$`
	byEmailQ  = `(?s)^SELECT\s+id,\s*email,\s*full_name,\s*password_hash,\s*refresh_token,\s*transaction_batch_id,\s*created_at\s+FROM\s+users\s+WHERE\s+email\s*=\s*\$1$`
	byIDQ     = `(?s)^SELECT\s+id,.*FROM\s+users\s+WHERE\s+id\s*=\s*\$1$`
	refreshQ  = `(?s)^UPDATE\s+users\s+SET\s+refresh_token\s*=\s*\$1,\s*updated_at\s*=\s*now\(\)\s+WHERE\s+id\s*=\s*\$2\s*$`
	batchPtrQ = `(?s)^UPDATE\s+users\s+SET\s+transaction_batch_id\s*=\s*\$1,\s*updated_at\s*=\s*now\(\)\s+WHERE\s+id\s*=\s*\$2\s*$`
)

var userCols = []string{"id", "email", "full_name", "password_hash", "refresh_token", "transaction_batch_id", "created_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "created_at"}).AddRow("42", now)
	mock.ExpectQuery(insertQ).
		WithArgs("alice@example.com", "Alice", "hash").
		WillReturnRows(rows)

	u := &models.User{Email: "alice@example.com", FullName: "Alice", PasswordHash: "hash"}
	got, err := repo.Create(context.Background(), u)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != "42" || got.Email != "alice@example.com" || !got.CreatedAt.Equal(now) {
		t.Fatalf("unexpected user: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_UniqueViolation(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).
		WithArgs("alice@example.com", "Alice", "hash").
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value"})

	_, err := repo.Create(context.Background(), &models.User{Email: "alice@example.com", FullName: "Alice", PasswordHash: "hash"})
	if !errors.Is(err, common.ErrorDuplicateUser) {
		t.Fatalf("want common.ErrorDuplicateUser, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).
		WithArgs("alice@example.com", "Alice", "hash").
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{Email: "alice@example.com", FullName: "Alice", PasswordHash: "hash"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetByEmail_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows(userCols).
		AddRow("u-1", "alice@example.com", "Alice", "hash", "rt", "b-1", time.Now())
	mock.ExpectQuery(byEmailQ).
		WithArgs("alice@example.com").
		WillReturnRows(rows)

	got, err := repo.GetByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("GetByEmail error: %v", err)
	}
	if got.ID != "u-1" || got.FullName != "Alice" || got.PasswordHash != "hash" {
		t.Fatalf("unexpected user: %+v", got)
	}
	if got.RefreshToken == nil || *got.RefreshToken != "rt" {
		t.Fatalf("refresh token not scanned: %+v", got.RefreshToken)
	}
	if got.TransactionBatchID == nil || *got.TransactionBatchID != "b-1" {
		t.Fatalf("batch id not scanned: %+v", got.TransactionBatchID)
	}
}

func TestGetByEmail_NullablesAreNil(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows(userCols).
		AddRow("u-1", "alice@example.com", "Alice", "hash", nil, nil, time.Now())
	mock.ExpectQuery(byEmailQ).WithArgs("alice@example.com").WillReturnRows(rows)

	got, err := repo.GetByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("GetByEmail error: %v", err)
	}
	if got.RefreshToken != nil || got.TransactionBatchID != nil {
		t.Fatalf("expected nil nullables, got %+v", got)
	}
}

func TestGetByEmail_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(byEmailQ).
		WithArgs("ghost@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByEmail(context.Background(), "ghost@example.com")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestGetByID_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(byIDQ).
		WithArgs("u-1").
		WillReturnError(errors.New("db err"))

	_, err := repo.GetByID(context.Background(), "u-1")
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestSetRefreshToken_SetAndClear(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(refreshQ).WithArgs("tok", "u-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(refreshQ).WithArgs(nil, "u-1").WillReturnResult(sqlmock.NewResult(0, 1))

	tok := "tok"
	if err := repo.SetRefreshToken(context.Background(), "u-1", &tok); err != nil {
		t.Fatalf("SetRefreshToken error: %v", err)
	}
	if err := repo.SetRefreshToken(context.Background(), "u-1", nil); err != nil {
		t.Fatalf("SetRefreshToken(nil) error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSetRefreshToken_NoRows(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(refreshQ).WithArgs(nil, "ghost").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.SetRefreshToken(context.Background(), "ghost", nil); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestSetTransactionBatch(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(batchPtrQ).WithArgs("b-2", "u-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(batchPtrQ).WithArgs("b-3", "u-1").WillReturnError(errors.New("conn reset"))

	if err := repo.SetTransactionBatch(context.Background(), "u-1", "b-2"); err != nil {
		t.Fatalf("SetTransactionBatch error: %v", err)
	}
	err := repo.SetTransactionBatch(context.Background(), "u-1", "b-3")
	if err == nil || !regexp.MustCompile(`db error: .*conn reset`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestRotateRefreshToken(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+users\s+SET\s+refresh_token\s*=\s*\$1,\s*updated_at\s*=\s*now\(\)\s+WHERE\s+id\s*=\s*\$2\s+AND\s+refresh_token\s*=\s*\$3\s*$`
	mock.ExpectExec(q).WithArgs("new", "u-1", "old").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("newer", "u-1", "old").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.RotateRefreshToken(context.Background(), "u-1", "old", "new"); err != nil {
		t.Fatalf("RotateRefreshToken error: %v", err)
	}
	if err := repo.RotateRefreshToken(context.Background(), "u-1", "old", "newer"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("stale token must not rotate, got %v", err)
	}
}
