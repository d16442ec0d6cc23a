package cmd

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-payment-intake/app/entity"
	"github.com/vibast-solutions/ms-go-payment-intake/app/repository"
	"github.com/vibast-solutions/ms-go-payment-intake/config"
)

type paymentStore interface {
	EnsureSchema(ctx context.Context) error
	Ping(ctx context.Context) error
	Create(ctx context.Context, payment *entity.Payment) error
	FindByID(ctx context.Context, id string) (*entity.Payment, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*entity.Payment, error)
}

// openStorage connects the configured backend. The returned cleanup closes
// the underlying connection pool.
func openStorage(ctx context.Context, cfg config.StorageConfig) (paymentStore, func(), error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	switch cfg.Driver {
	case config.StorageDriverMongo:
		return openMongoStorage(ctx, cfg.Mongo)
	case config.StorageDriverMySQL:
		return openMySQLStorage(ctx, cfg.MySQL)
	default:
		return nil, nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}

func openMongoStorage(ctx context.Context, cfg config.MongoConfig) (paymentStore, func(), error) {
	client, err := repository.ConnectMongo(ctx, cfg.URI)
	if err != nil {
		return nil, nil, err
	}

	collection := client.Database(cfg.Database).Collection(cfg.Collection)
	cleanup := func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logrus.WithError(err).Warn("Failed to disconnect from MongoDB")
		}
	}

	return repository.NewPaymentMongoRepository(collection), cleanup, nil
}

func openMySQLStorage(ctx context.Context, cfg config.MySQLConfig) (paymentStore, func(), error) {
	dsn, err := repository.NormalizeMySQLDSN(cfg.DSN)
	if err != nil {
		return nil, nil, err
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open mysql: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping mysql: %w", err)
	}

	cleanup := func() {
		if err := db.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close database")
		}
	}

	return repository.NewPaymentRepository(db), cleanup, nil
}
