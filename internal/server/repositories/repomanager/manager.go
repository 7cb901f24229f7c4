package repomanager

import (
	"context"
	"database/sql"

	"github.com/Shubhajeetgithub/expense-tracker-server/internal/dbx"
	"github.com/Shubhajeetgithub/expense-tracker-server/internal/server/repositories/transactions"
	"github.com/Shubhajeetgithub/expense-tracker-server/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so services can run
// the same repository code inside or outside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Transactions(db dbx.DBTX) transactions.Repository
}
