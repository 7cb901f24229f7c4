// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is the stored identity. PasswordHash never leaves the service layer.
type User struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	FullName     string    `db:"full_name"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`

	// RefreshToken is the single live refresh token, nil once logged out.
	RefreshToken *string `db:"refresh_token"`
	// TransactionBatchID points at the user's current synced batch.
	TransactionBatchID *string `db:"transaction_batch_id"`
}
