package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Shubhajeetgithub/expense-tracker-server/internal/common"
	"github.com/Shubhajeetgithub/expense-tracker-server/internal/dbx"
	"github.com/Shubhajeetgithub/expense-tracker-server/internal/logging"
	"github.com/Shubhajeetgithub/expense-tracker-server/internal/server/auth"
	"github.com/Shubhajeetgithub/expense-tracker-server/internal/server/config"
	"github.com/Shubhajeetgithub/expense-tracker-server/internal/server/metrics"
	"github.com/Shubhajeetgithub/expense-tracker-server/internal/server/models"
	"github.com/Shubhajeetgithub/expense-tracker-server/internal/server/repositories/repomanager"
)

const archiveTimeout = 5 * time.Second

// Recorder receives auth and sync counters. *metrics.Prometheus implements it.
type Recorder interface {
	AuthAttempt(op, outcome string)
	SyncTransactions(accepted, skipped int)
}

type nopRecorder struct{}

func (nopRecorder) AuthAttempt(string, string) {}
func (nopRecorder) SyncTransactions(int, int)  {}

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// LoginResult is everything a client needs right after login.
type LoginResult struct {
	Tokens       TokenPair
	User         *models.User
	Transactions []TransactionView
}

// SessionService runs the Anonymous -> Authenticated -> Anonymous lifecycle:
//   - Register creates users
//   - Login checks credentials, mints tokens and returns the synced transactions
//   - Refresh rotates the stored refresh token
//   - Logout optionally syncs a batch and revokes the refresh token
type SessionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	credentials *CredentialStore
	tokens      *auth.TokenIssuer
	reconciler  *Reconciler
	archive     Archiver
	recorder    Recorder
	log         logging.Logger
}

// NewSessionService wires the service from configuration. archive and rec
// may be nil.
func NewSessionService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config,
	log logging.Logger, rec Recorder, archive Archiver) *SessionService {
	if log == nil {
		log = logging.Nop{}
	}
	if rec == nil {
		rec = nopRecorder{}
	}
	return &SessionService{
		db:          db,
		repomanager: m,
		credentials: NewCredentialStore(db, m),
		tokens: auth.NewTokenIssuer(cfg.AccessTokenSecret, cfg.RefreshTokenSecret,
			cfg.AccessTokenValidityDuration, cfg.RefreshTokenValidityDuration),
		reconciler: NewReconciler(db, m, log.With("module", "reconciler")),
		archive:    archive,
		recorder:   rec,
		log:        log,
	}
}

// Credentials exposes the store for tooling such as the adduser command.
func (s *SessionService) Credentials() *CredentialStore { return s.credentials }

func (s *SessionService) AccessTTL() time.Duration  { return s.tokens.AccessTTL() }
func (s *SessionService) RefreshTTL() time.Duration { return s.tokens.RefreshTTL() }

// Authenticate verifies an access token and returns its claims.
func (s *SessionService) Authenticate(token string) (*auth.Claims, error) {
	if token == "" {
		return nil, common.ErrInvalidToken
	}
	return s.tokens.VerifyAccessToken(token)
}

// Register creates a user. All fields are required after trimming.
func (s *SessionService) Register(ctx context.Context, fullName, email, password string) (*models.User, error) {
	fullName = strings.TrimSpace(fullName)
	email = common.NormalizeEmail(email)
	password = strings.TrimSpace(password)

	if err := required("fullName", fullName, "email", email, "password", password); err != nil {
		s.recorder.AuthAttempt("register", metrics.OutcomeRejected)
		return nil, err
	}

	if _, err := s.credentials.FindByEmail(ctx, email); err == nil {
		s.recorder.AuthAttempt("register", metrics.OutcomeRejected)
		return nil, common.ErrorDuplicateUser
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, s.internal(ctx, "register", err)
	}

	user, err := s.credentials.Create(ctx, email, fullName, password)
	if err != nil {
		if errors.Is(err, common.ErrorDuplicateUser) || errors.Is(err, common.ErrorValidation) {
			s.recorder.AuthAttempt("register", metrics.OutcomeRejected)
			return nil, err
		}
		return nil, s.internal(ctx, "register", err)
	}

	s.recorder.AuthAttempt("register", metrics.OutcomeSuccess)
	s.log.Info(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// Login verifies credentials. Unknown email and wrong password both yield
// common.ErrorUnauthorized after the same amount of hashing work.
func (s *SessionService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = common.NormalizeEmail(email)
	password = strings.TrimSpace(password)

	if err := required("email", email, "password", password); err != nil {
		s.recorder.AuthAttempt("login", metrics.OutcomeRejected)
		return nil, err
	}

	user, err := s.credentials.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return nil, s.internal(ctx, "login", err)
	}

	if !s.credentials.VerifySecret(user, password) {
		s.recorder.AuthAttempt("login", metrics.OutcomeRejected)
		return nil, common.ErrorUnauthorized
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return nil, s.internal(ctx, "login", err)
	}

	// overwriting the stored token revokes whatever an earlier login issued
	if err := s.repomanager.Users(s.db).SetRefreshToken(ctx, user.ID, &pair.RefreshToken); err != nil {
		return nil, s.internal(ctx, "login", err)
	}
	user.RefreshToken = &pair.RefreshToken

	views, err := s.reconciler.Expand(ctx, user)
	if err != nil {
		return nil, s.internal(ctx, "login", err)
	}

	s.recorder.AuthAttempt("login", metrics.OutcomeSuccess)
	s.log.Info(ctx, "user logged in", "user_id", user.ID, "transactions", len(views))
	return &LoginResult{Tokens: *pair, User: user, Transactions: views}, nil
}

// Refresh trades a live refresh token for a new pair. A token that was
// superseded by a later login, cleared by logout, or already rotated yields
// common.ErrorUnauthorized.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		s.recorder.AuthAttempt("refresh", metrics.OutcomeRejected)
		return nil, common.ErrInvalidToken
	}

	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		s.recorder.AuthAttempt("refresh", metrics.OutcomeRejected)
		return nil, err
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByID(ctx, claims.UserID())
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.recorder.AuthAttempt("refresh", metrics.OutcomeRejected)
			return nil, common.ErrorUnauthorized
		}
		return nil, s.internal(ctx, "refresh", err)
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return nil, s.internal(ctx, "refresh", err)
	}

	if err := repo.RotateRefreshToken(ctx, user.ID, refreshToken, pair.RefreshToken); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.recorder.AuthAttempt("refresh", metrics.OutcomeRejected)
			return nil, common.ErrorUnauthorized
		}
		return nil, s.internal(ctx, "refresh", err)
	}

	s.recorder.AuthAttempt("refresh", metrics.OutcomeSuccess)
	return pair, nil
}

// Logout revokes the user's refresh token. When rawBatch is non-empty it is
// reconciled in the same transaction; an unusable batch fails the whole
// call and leaves the user untouched. It returns the number of stored
// transactions.
func (s *SessionService) Logout(ctx context.Context, userID string, rawBatch []byte) (int, error) {
	var batch *Batch
	if len(rawBatch) > 0 {
		b, err := s.reconciler.Ingest(ctx, rawBatch)
		if err != nil {
			s.recorder.AuthAttempt("logout", metrics.OutcomeRejected)
			return 0, err
		}
		batch = b
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if batch != nil {
			if err := s.reconciler.Commit(ctx, tx, userID, batch); err != nil {
				return err
			}
		}
		return s.repomanager.Users(tx).SetRefreshToken(ctx, userID, nil)
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.recorder.AuthAttempt("logout", metrics.OutcomeRejected)
			return 0, common.ErrInvalidToken
		}
		return 0, s.internal(ctx, "logout", err)
	}

	processed := 0
	if batch != nil {
		processed = len(batch.Transactions)
		s.recorder.SyncTransactions(processed, batch.Skipped)
		s.archiveBatch(ctx, userID, batch)
	}

	s.recorder.AuthAttempt("logout", metrics.OutcomeSuccess)
	s.log.Info(ctx, "user logged out", "user_id", userID, "transactions", processed)
	return processed, nil
}

// GuestSync is the legacy unauthenticated sync: the user is looked up by
// email and created with PlaceholderPasswordHash if absent. It does not
// touch the stored refresh token.
func (s *SessionService) GuestSync(ctx context.Context, fullName, email, rawBatch string) (int, error) {
	fullName = strings.TrimSpace(fullName)
	email = common.NormalizeEmail(email)

	if fullName == "" || email == "" || strings.TrimSpace(rawBatch) == "" {
		s.recorder.AuthAttempt("guest_sync", metrics.OutcomeRejected)
		return 0, fmt.Errorf("%w: missing required fields: fullName, email, or transactions_string", common.ErrorValidation)
	}

	batch, err := s.reconciler.Ingest(ctx, []byte(rawBatch))
	if err != nil {
		s.recorder.AuthAttempt("guest_sync", metrics.OutcomeRejected)
		return 0, err
	}

	// A concurrent guest sync may create the same user between our lookup
	// and insert; the second attempt then finds it.
	var userID string
	for attempt := 0; attempt < 2; attempt++ {
		userID, err = s.guestCommit(ctx, email, fullName, batch)
		if !errors.Is(err, common.ErrorDuplicateUser) {
			break
		}
		s.log.Debug(ctx, "guest sync lost user creation race, retrying")
	}
	if errors.Is(err, common.ErrorDuplicateUser) {
		s.recorder.AuthAttempt("guest_sync", metrics.OutcomeRejected)
		return 0, err
	}
	if err != nil {
		return 0, s.internal(ctx, "guest_sync", err)
	}

	s.recorder.SyncTransactions(len(batch.Transactions), batch.Skipped)
	s.archiveBatch(ctx, userID, batch)
	s.recorder.AuthAttempt("guest_sync", metrics.OutcomeSuccess)
	return len(batch.Transactions), nil
}

// --- helpers below ---

// guestCommit finds or creates the user by email and commits the batch in
// one transaction.
func (s *SessionService) guestCommit(ctx context.Context, email, fullName string, batch *Batch) (string, error) {
	var userID string
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		user, err := s.repomanager.Users(tx).GetByEmail(ctx, email)
		if errors.Is(err, common.ErrorNotFound) {
			user, err = s.credentials.insert(ctx, tx, email, fullName, PlaceholderPasswordHash)
			if err == nil {
				s.log.Warn(ctx, "user created by guest sync", "user_id", user.ID)
			}
		}
		if err != nil {
			return err
		}
		userID = user.ID
		return s.reconciler.Commit(ctx, tx, user.ID, batch)
	})
	return userID, err
}

func (s *SessionService) issuePair(user *models.User) (*TokenPair, error) {
	access, err := s.tokens.IssueAccessToken(auth.Subject{UserID: user.ID, Email: user.Email, FullName: user.FullName})
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// archiveBatch is best effort: the batch is already committed.
func (s *SessionService) archiveBatch(ctx context.Context, userID string, b *Batch) {
	if s.archive == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancel()
	if err := s.archive.Archive(ctx, userID, b.Transactions); err != nil {
		s.log.Warn(ctx, "archive batch failed", "user_id", userID, "batch_id", b.ID, "error", err)
	}
}

func (s *SessionService) internal(ctx context.Context, op string, err error) error {
	s.recorder.AuthAttempt(op, metrics.OutcomeError)
	s.log.Error(ctx, op+" failed", "error", err)
	return fmt.Errorf("%w: %s", common.ErrorInternal, op)
}

// required takes name/value pairs and reports the first empty value.
func required(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			return fmt.Errorf("%w: %s is required", common.ErrorValidation, pairs[i])
		}
	}
	return nil
}
