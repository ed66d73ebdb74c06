package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/phpipam-ops/phpipam-provision/internal/config"
)

// Execer is the statement-execution slice of *sql.DB.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// CreateSchema creates the application database, its user, and the grants.
// Identifier safety is enforced by config validation; values are still
// embedded via quoting helpers because DDL does not take placeholders.
func CreateSchema(ctx context.Context, logger *slog.Logger, handle Execer, cfg config.Config) error {
	name := cfg.Database.Name
	user := cfg.Database.User

	stmts := []struct {
		desc  string
		query string
	}{
		{"create database", fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", name)},
		{"create user", fmt.Sprintf("CREATE USER IF NOT EXISTS '%s'@'localhost' IDENTIFIED BY %s", user, quoteLiteral(cfg.Database.Password))},
		{"grant privileges", fmt.Sprintf("GRANT ALL PRIVILEGES ON `%s`.* TO '%s'@'localhost'", name, user)},
		{"flush privileges", "FLUSH PRIVILEGES"},
	}

	for _, s := range stmts {
		if _, err := handle.ExecContext(ctx, s.query); err != nil {
			return fmt.Errorf("%s: %w", s.desc, err)
		}
		logger.Debug("schema statement applied", "statement", s.desc)
	}

	logger.Info("application database ready", "database", name, "user", user)
	return nil
}

// ResetAdminPassword sets the phpIPAM admin account password to a bcrypt
// hash of the given value. The admin row only exists after the GUI
// installation has run.
func ResetAdminPassword(ctx context.Context, logger *slog.Logger, handle Execer, dbName, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	query := fmt.Sprintf("UPDATE `%s`.`users` SET `password` = ? WHERE `username` = 'Admin'", dbName)
	res, err := handle.ExecContext(ctx, query, string(hash))
	if err != nil {
		return fmt.Errorf("update admin password: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update admin password: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("admin user not found in %s.users (complete the GUI installation first)", dbName)
	}

	logger.Info("admin password updated")
	return nil
}

// quoteLiteral wraps a value as a single-quoted SQL string literal.
func quoteLiteral(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
