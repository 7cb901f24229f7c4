// Command adduser creates a user directly in the database. The schema must
// already be migrated (start the server once).
//
//	adduser -email ann@example.com -name "Ann" [-password pw] [-d dsn]
//
// Without -password the password is read from the terminal without echo.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Shubhajeetgithub/expense-tracker-server/internal/common"
	"github.com/Shubhajeetgithub/expense-tracker-server/internal/server/config"
	"github.com/Shubhajeetgithub/expense-tracker-server/internal/server/repositories/repomanager"
	"github.com/Shubhajeetgithub/expense-tracker-server/internal/server/services"
	"golang.org/x/term"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Test seams.
var (
	readPassword = term.ReadPassword
	openDB       = func(dsn string) (*sql.DB, error) { return sql.Open("pgx", dsn) }
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "adduser:", err)
		os.Exit(1)
	}
}

func defaultDSN() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}
	cfg := &config.Config{}
	cfg.LoadDefaults()
	return cfg.DatabaseDSN
}

func run(ctx context.Context, args []string, w io.Writer) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(w)

	email := fs.String("email", "", "user email")
	name := fs.String("name", "", "full name")
	password := fs.String("password", "", "password (prompted when empty)")
	dsn := fs.String("d", defaultDSN(), "database DSN")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if strings.TrimSpace(*email) == "" || strings.TrimSpace(*name) == "" {
		return errors.New("-email and -name are required")
	}

	secret := *password
	if secret == "" {
		fmt.Fprint(w, "Enter password: ")
		pw, err := readPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(w)
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		secret = string(pw)
		common.WipeByteArray(pw)
	}
	if strings.TrimSpace(secret) == "" {
		return errors.New("password must not be empty")
	}

	db, err := openDB(*dsn)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	store := services.NewCredentialStore(db, repomanager.NewPostgresRepositoryManager())
	user, err := store.Create(ctx, *email, strings.TrimSpace(*name), secret)
	if err != nil {
		if errors.Is(err, common.ErrorDuplicateUser) {
			return fmt.Errorf("%s already exists", common.NormalizeEmail(*email))
		}
		return err
	}

	fmt.Fprintf(w, "created user %s (%s)\n", user.Email, user.ID)
	return nil
}
