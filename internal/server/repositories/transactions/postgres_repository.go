package transactions

import (
	"context"
	"fmt"

	"github.com/Shubhajeetgithub/expense-tracker-server/internal/dbx"
	"github.com/Shubhajeetgithub/expense-tracker-server/internal/server/models"
)

const (
	insertColumns = 10
	// maxBindParams is the most parameters one Postgres statement may carry.
	maxBindParams = 65535
)

// rowsPerStatement caps the rows in one INSERT; tests lower it.
var rowsPerStatement = maxBindParams / insertColumns

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// InsertBatch writes txs with as few multi-row INSERTs as the protocol's
// bind-parameter limit allows. Callers run it on a transaction so a failed
// chunk takes the earlier ones with it.
func (r *PostgresRepository) InsertBatch(ctx context.Context, txs []models.Transaction) error {
	for len(txs) > 0 {
		n := min(len(txs), rowsPerStatement)
		if err := r.insertRows(ctx, txs[:n]); err != nil {
			return err
		}
		txs = txs[n:]
	}
	return nil
}

func (r *PostgresRepository) insertRows(ctx context.Context, txs []models.Transaction) error {
	args := make([]any, 0, len(txs)*insertColumns)
	for _, t := range txs {
		args = append(args, t.ID, t.BatchID, t.Position, t.Name, t.Amount, string(t.Type),
			t.IsRecurring, t.Date, t.CategoryName, t.CategoryColor)
	}

	query := `INSERT INTO transactions (id, batch_id, position, name, amount, transaction_type, is_recurring, date, category_name, category_color) VALUES ` +
		dbx.Placeholders(len(txs), insertColumns)

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) ListByBatch(ctx context.Context, batchID string) ([]models.Transaction, error) {
	query :=
		`SELECT id, batch_id, position, name, amount, transaction_type, is_recurring, date, category_name, category_color
		 FROM transactions
		 WHERE batch_id = $1
		 ORDER BY position
		 `

	rows, err := r.db.QueryContext(ctx, query, batchID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []models.Transaction{}
	for rows.Next() {
		var t models.Transaction
		var typ string
		if err := rows.Scan(&t.ID, &t.BatchID, &t.Position, &t.Name, &t.Amount, &typ,
			&t.IsRecurring, &t.Date, &t.CategoryName, &t.CategoryColor); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		t.Type = models.TransactionType(typ)
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}
