package transactions

import (
	"context"

	"github.com/Shubhajeetgithub/expense-tracker-server/internal/server/models"
)

type Repository interface {
	// InsertBatch writes all records in one statement. Records must already
	// carry their ID, BatchID and Position.
	InsertBatch(ctx context.Context, txs []models.Transaction) error
	// ListByBatch returns the batch in Position order.
	ListByBatch(ctx context.Context, batchID string) ([]models.Transaction, error)
}
