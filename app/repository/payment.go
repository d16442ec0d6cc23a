package repository

import (
	"context"
	"database/sql"

	"github.com/vibast-solutions/ms-go-payment-intake/app/entity"
)

const paymentColumns = `
	id, order_id, amount, currency, method, status, provider,
	provider_reference, idempotency_key, message, created_at, updated_at
`

var paymentSchema = []string{
	`CREATE TABLE IF NOT EXISTS payments (
		id CHAR(24) NOT NULL,
		order_id VARCHAR(255) NOT NULL,
		amount DECIMAL(20, 8) NOT NULL,
		currency CHAR(3) NOT NULL,
		method VARCHAR(16) NOT NULL,
		status VARCHAR(16) NOT NULL,
		provider VARCHAR(16) NOT NULL,
		provider_reference VARCHAR(255) NULL,
		idempotency_key VARCHAR(255) NOT NULL,
		message VARCHAR(255) NULL,
		created_at DATETIME(3) NOT NULL,
		updated_at DATETIME(3) NOT NULL,
		PRIMARY KEY (id),
		UNIQUE KEY uq_payments_idempotency_key (idempotency_key),
		KEY idx_payments_order_id (order_id),
		CONSTRAINT chk_payments_amount CHECK (amount > 0)
	)`,
}

// PaymentRepository stores payments in MySQL.
type PaymentRepository struct {
	db DBTX
}

func NewPaymentRepository(db DBTX) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range paymentSchema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (r *PaymentRepository) Ping(ctx context.Context) error {
	if p, ok := r.db.(interface{ PingContext(context.Context) error }); ok {
		return p.PingContext(ctx)
	}
	return r.db.QueryRowContext(ctx, "SELECT 1").Scan(new(int))
}

func (r *PaymentRepository) Create(ctx context.Context, payment *entity.Payment) error {
	if payment.ID == "" {
		payment.ID = NewPaymentID()
	}

	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		payment.ID,
		payment.OrderID,
		payment.Amount,
		payment.Currency,
		string(payment.Method),
		string(payment.Status),
		string(payment.Provider),
		nullableStringValue(payment.ProviderReference),
		payment.IdempotencyKey,
		nullableStringValue(payment.Message),
		payment.CreatedAt,
		payment.UpdatedAt,
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrPaymentAlreadyExists
		}
		return err
	}

	return nil
}

func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*entity.Payment, error) {
	if !IsValidPaymentID(id) {
		return nil, ErrInvalidPaymentID
	}

	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = ?`

	payment := &entity.Payment{}
	if err := scanPayment(r.db.QueryRowContext(ctx, query, id), payment); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return payment, nil
}

func (r *PaymentRepository) FindByIdempotencyKey(ctx context.Context, key string) (*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE idempotency_key = ? LIMIT 1`

	payment := &entity.Payment{}
	if err := scanPayment(r.db.QueryRowContext(ctx, query, key), payment); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return payment, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPayment(scan rowScanner, payment *entity.Payment) error {
	var method, status, provider string
	var providerReference sql.NullString
	var message sql.NullString

	err := scan.Scan(
		&payment.ID,
		&payment.OrderID,
		&payment.Amount,
		&payment.Currency,
		&method,
		&status,
		&provider,
		&providerReference,
		&payment.IdempotencyKey,
		&message,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if err != nil {
		return err
	}

	payment.Method = entity.PaymentMethod(method)
	payment.Status = entity.PaymentStatus(status)
	payment.Provider = entity.PaymentProvider(provider)
	payment.ProviderReference = stringPtrFromNull(providerReference)
	payment.Message = stringPtrFromNull(message)
	payment.CreatedAt = payment.CreatedAt.UTC()
	payment.UpdatedAt = payment.UpdatedAt.UTC()

	return nil
}
