package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrPaymentAlreadyExists = errors.New("payment already exists")
	ErrInvalidPaymentID     = errors.New("invalid payment id")
)

type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// NewPaymentID returns a fresh identifier in the document-store format.
// Both backends use it so ids stay interchangeable.
func NewPaymentID() string {
	return primitive.NewObjectID().Hex()
}

func IsValidPaymentID(id string) bool {
	return primitive.IsValidObjectID(id)
}

// NormalizeMySQLDSN forces the options the repository relies on when
// scanning rows: parsed DATETIME columns in UTC.
func NormalizeMySQLDSN(dsn string) (string, error) {
	cfg, err := mysqlDriver.ParseDSN(dsn)
	if err != nil {
		return "", err
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN(), nil
}

func isDuplicateEntryError(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}

func nullableStringValue(v *string) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func stringPtrFromNull(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
