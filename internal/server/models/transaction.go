package models

import "time"

type TransactionType string

const (
	TransactionCredit TransactionType = "credit"
	TransactionDebit  TransactionType = "debit"
)

// Transaction is one record of a synced batch. Records are written once and
// never updated; Position keeps the client's order within the batch.
type Transaction struct {
	ID            string          `db:"id"`
	BatchID       string          `db:"batch_id"`
	Position      int             `db:"position"`
	Name          string          `db:"name"`
	Amount        float64         `db:"amount"`
	Type          TransactionType `db:"transaction_type"`
	IsRecurring   bool            `db:"is_recurring"`
	Date          time.Time       `db:"date"`
	CategoryName  string          `db:"category_name"`
	CategoryColor string          `db:"category_color"`
}
