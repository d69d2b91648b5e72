// Package dburl infers the SQL dialect of a database URL and converts URLs
// to the DSN forms the drivers expect.
package dburl

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Supported database dialects
const (
	DialectPostgres = "postgres"
	DialectMySQL    = "mysql"
	DialectSQLite   = "sqlite"
)

// Dialects lists the supported dialects in a stable order.
var Dialects = []string{DialectPostgres, DialectMySQL, DialectSQLite}

var (
	ErrUnknownDialect = errors.New("unknown database dialect")
	ErrInvalidURL     = errors.New("invalid database URL")
)

// IsDialect reports whether s names a supported dialect.
func IsDialect(s string) bool {
	switch s {
	case DialectPostgres, DialectMySQL, DialectSQLite:
		return true
	}
	return false
}

// InferDialectFromDBUrl returns the dialect ("postgres", "mysql", or "sqlite")
// based on the URL scheme.
func InferDialectFromDBUrl(dbURL string) (string, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	scheme := strings.ToLower(u.Scheme)
	switch scheme {
	case "postgres", "postgresql":
		return DialectPostgres, nil
	case "mysql":
		return DialectMySQL, nil
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownDialect, scheme)
	}
}

// MySQLDSN converts a mysql:// URL to a go-sql-driver DSN.
// Query parameters are passed through as driver parameters; parseTime is
// enabled unless the URL sets it.
func MySQLDSN(mysqlURL string) (string, error) {
	u, err := url.Parse(mysqlURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if !strings.EqualFold(u.Scheme, "mysql") {
		return "", fmt.Errorf("%w: expected mysql scheme, got %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidURL)
	}

	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	if u.Port() == "" {
		cfg.Addr = u.Host + ":3306"
	}
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	cfg.ParseTime = true
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
	}

	for key, vals := range u.Query() {
		if len(vals) == 0 {
			continue
		}
		v := vals[len(vals)-1]
		switch key {
		case "parseTime":
			cfg.ParseTime = v == "true" || v == "1"
		case "timeout":
			d, err := time.ParseDuration(v)
			if err != nil {
				return "", fmt.Errorf("%w: timeout: %v", ErrInvalidURL, err)
			}
			cfg.Timeout = d
		default:
			if cfg.Params == nil {
				cfg.Params = make(map[string]string)
			}
			cfg.Params[key] = v
		}
	}
	return cfg.FormatDSN(), nil
}

// SQLitePath extracts the file path from a SQLite URL. "sqlite::memory:" and
// "sqlite://:memory:" both yield ":memory:".
func SQLitePath(sqliteURL string) string {
	rest := sqliteURL
	if i := strings.Index(rest, ":"); i >= 0 {
		scheme := strings.ToLower(rest[:i])
		if scheme == "sqlite" || scheme == "sqlite3" {
			rest = rest[i+1:]
		}
	}
	return strings.TrimPrefix(rest, "//")
}

// Redacted returns dbURL with any password masked, for logging.
func Redacted(dbURL string) string {
	u, err := url.Parse(dbURL)
	if err != nil {
		return "<invalid url>"
	}
	return u.Redacted()
}
