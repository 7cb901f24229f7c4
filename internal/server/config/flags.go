package config

import (
	"flag"
	"os"
	"time"

	"github.com/Shubhajeetgithub/expense-tracker-server/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags:
//
//	-a string          HTTP bind address (e.g., ":8000")
//	-grpc string       gRPC bind address (e.g., ":50051")
//	-d string          PostgreSQL DSN
//	-s string          access token HMAC secret
//	-rs string         refresh token HMAC secret
//	-t int             access token validity, minutes
//	-r int             refresh token validity, minutes
//	-cors string       allowed CORS origin
//	-log string        log level
//	-secure-cookies    set Secure on auth cookies
//	-guest-sync        mount the legacy unauthenticated logout-sync route
//	-u string          S3 access key
//	-p string          S3 secret key
//	-b string          S3 bucket for the sync archive (empty disables it)
//	-g string          S3 region
//	-e string          S3 base endpoint
//
// Duration flags are integers in minutes.
//
// Invalid flags panic (flag.ContinueOnError + panic on error).
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:],
		[]string{"-a", "-grpc", "-d", "-s", "-rs", "-t", "-r", "-cors", "-log", "-secure-cookies", "-guest-sync", "-u", "-p", "-b", "-g", "-e"},
		"-secure-cookies", "-guest-sync")

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "HTTP address and port to run server")
	fs.StringVar(&config.GRPCAddr, "grpc", config.GRPCAddr, "gRPC address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.AccessTokenSecret, "s", config.AccessTokenSecret, "access token secret key")
	fs.StringVar(&config.RefreshTokenSecret, "rs", config.RefreshTokenSecret, "refresh token secret key")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")
	refreshTokenValidityDuration := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh_token_validity_duration (in minutes)")

	fs.StringVar(&config.CORSOrigin, "cors", config.CORSOrigin, "allowed CORS origin")
	fs.StringVar(&config.LogLevel, "log", config.LogLevel, "log level")
	fs.BoolVar(&config.SecureCookies, "secure-cookies", config.SecureCookies, "set Secure attribute on auth cookies")
	fs.BoolVar(&config.AllowGuestSync, "guest-sync", config.AllowGuestSync, "enable legacy unauthenticated logout sync")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 access key")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 secret key")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 archive bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// only explicit flags override, so sub-minute values from env or json survive
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
		case "r":
			config.RefreshTokenValidityDuration = time.Duration(*refreshTokenValidityDuration) * time.Minute
		}
	})
}
