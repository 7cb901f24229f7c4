package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Shubhajeetgithub/expense-tracker-server/internal/common"
	"github.com/Shubhajeetgithub/expense-tracker-server/internal/dbx"
	"github.com/Shubhajeetgithub/expense-tracker-server/internal/logging"
	"github.com/Shubhajeetgithub/expense-tracker-server/internal/server/models"
	"github.com/Shubhajeetgithub/expense-tracker-server/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// dateLayouts are tried in order. The last one is the browser Date.toString
// form once its trailing "(Zone Name)" is cut off.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"Mon Jan 02 2006 15:04:05 GMT-0700",
}

// clientTransaction is the shape the mobile client keeps locally.
type clientTransaction struct {
	Name        string          `json:"name"`
	Amount      json.RawMessage `json:"amount"`
	IsDebit     bool            `json:"isDebit"`
	IsRecurring bool            `json:"isRecurring"`
	Date        json.RawMessage `json:"date"`
	Category    *struct {
		Name  string `json:"name"`
		Color string `json:"color"`
	} `json:"category"`
}

// TransactionView is the client-facing form returned on login.
type TransactionView struct {
	Name            string    `json:"name"`
	Amount          float64   `json:"amount"`
	TransactionType string    `json:"transactionType"`
	IsRecurring     bool      `json:"isRecurring"`
	Date            time.Time `json:"date"`
	CategoryName    string    `json:"categoryName"`
	CategoryColor   string    `json:"categoryColor"`
}

// Batch is a validated upload ready to be committed.
type Batch struct {
	ID           string
	Transactions []models.Transaction
	Skipped      int
}

// Reconciler turns client uploads into stored batches and stored batches
// back into client lists.
type Reconciler struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

func NewReconciler(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *Reconciler {
	if log == nil {
		log = logging.Nop{}
	}
	return &Reconciler{db: db, repomanager: m, log: log}
}

// Ingest parses a serialized array of client transactions. Malformed
// elements are skipped and logged; if none survive the result is
// common.ErrorNoValidTransactions.
func (r *Reconciler) Ingest(ctx context.Context, raw []byte) (*Batch, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, fmt.Errorf("%w: transactions data must be an array", common.ErrorValidation)
		}
		return nil, fmt.Errorf("%w: invalid transactions data format", common.ErrorValidation)
	}
	// "null" unmarshals cleanly into a nil slice
	if elems == nil {
		return nil, fmt.Errorf("%w: transactions data must be an array", common.ErrorValidation)
	}

	batch := &Batch{Transactions: make([]models.Transaction, 0, len(elems))}
	for i, el := range elems {
		t, reason := parseElement(el)
		if reason != "" {
			r.log.Warn(ctx, "skipping transaction", "index", i, "reason", reason)
			batch.Skipped++
			continue
		}
		batch.Transactions = append(batch.Transactions, t)
	}

	if len(batch.Transactions) == 0 {
		return nil, common.ErrorNoValidTransactions
	}
	return batch, nil
}

// Commit stores the batch under a fresh id and repoints the user at it. It
// runs on tx so the insert and the swap land together.
func (r *Reconciler) Commit(ctx context.Context, tx dbx.DBTX, userID string, b *Batch) error {
	b.ID = uuid.NewString()
	for i := range b.Transactions {
		b.Transactions[i].ID = uuid.NewString()
		b.Transactions[i].BatchID = b.ID
		b.Transactions[i].Position = i
	}

	if err := r.repomanager.Transactions(tx).InsertBatch(ctx, b.Transactions); err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}
	if err := r.repomanager.Users(tx).SetTransactionBatch(ctx, userID, b.ID); err != nil {
		return fmt.Errorf("repoint user: %w", err)
	}
	return nil
}

// Expand resolves the user's current batch in its original order. A user
// that never synced gets an empty, non-nil list.
func (r *Reconciler) Expand(ctx context.Context, user *models.User) ([]TransactionView, error) {
	if user.TransactionBatchID == nil || *user.TransactionBatchID == "" {
		return []TransactionView{}, nil
	}

	txs, err := r.repomanager.Transactions(r.db).ListByBatch(ctx, *user.TransactionBatchID)
	if err != nil {
		return nil, err
	}
	return Views(txs), nil
}

func Views(txs []models.Transaction) []TransactionView {
	out := make([]TransactionView, 0, len(txs))
	for _, t := range txs {
		out = append(out, TransactionView{
			Name:            t.Name,
			Amount:          t.Amount,
			TransactionType: string(t.Type),
			IsRecurring:     t.IsRecurring,
			Date:            t.Date.UTC(),
			CategoryName:    t.CategoryName,
			CategoryColor:   t.CategoryColor,
		})
	}
	return out
}

// parseElement returns the normalized record or a non-empty skip reason.
func parseElement(raw json.RawMessage) (models.Transaction, string) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return models.Transaction{}, "not an object"
	}

	var ct clientTransaction
	if err := json.Unmarshal(trimmed, &ct); err != nil {
		return models.Transaction{}, "malformed fields"
	}

	name := strings.TrimSpace(ct.Name)
	if name == "" {
		return models.Transaction{}, "missing name"
	}

	amount, ok := parseAmount(ct.Amount)
	if !ok {
		return models.Transaction{}, "invalid amount"
	}

	date, ok := parseDate(ct.Date)
	if !ok {
		return models.Transaction{}, "invalid date"
	}

	if ct.Category == nil {
		return models.Transaction{}, "missing category"
	}
	catName := strings.TrimSpace(ct.Category.Name)
	catColor := strings.TrimSpace(ct.Category.Color)
	if catName == "" || catColor == "" {
		return models.Transaction{}, "invalid category"
	}

	typ := models.TransactionCredit
	if ct.IsDebit {
		typ = models.TransactionDebit
	}

	return models.Transaction{
		Name:          name,
		Amount:        math.Abs(amount),
		Type:          typ,
		IsRecurring:   ct.IsRecurring,
		Date:          date,
		CategoryName:  catName,
		CategoryColor: catColor,
	}, ""
}

// parseAmount accepts a JSON number or a numeric string.
func parseAmount(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		f, err = strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, false
		}
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// parseDate accepts a string in one of dateLayouts or a number of epoch
// milliseconds. The result is always UTC.
// maxEpochMillis bounds numeric dates to ±100,000,000 days around the epoch,
// the range a JavaScript Date can hold.
const maxEpochMillis = 8.64e15

// minStoredDate is the earliest instant a Postgres timestamptz accepts (4713 BC).
var minStoredDate = time.Date(-4712, time.January, 1, 0, 0, 0, 0, time.UTC)

func parseDate(raw json.RawMessage) (time.Time, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}, false
	}

	var ms float64
	if err := json.Unmarshal(raw, &ms); err == nil {
		if math.IsNaN(ms) || math.Abs(ms) > maxEpochMillis {
			return time.Time{}, false
		}
		t := time.UnixMilli(int64(ms)).UTC()
		if t.Before(minStoredDate) {
			return time.Time{}, false
		}
		return t, true
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	if i := strings.Index(s, " ("); i > 0 {
		s = s[:i]
	}
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
