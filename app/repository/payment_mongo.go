package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vibast-solutions/ms-go-payment-intake/app/entity"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// paymentDocument mirrors the layout of the payments collection. Field
// names and the double-typed amount match documents written by earlier
// versions of the service.
type paymentDocument struct {
	ID                primitive.ObjectID `bson:"_id"`
	OrderID           string             `bson:"orderId"`
	Amount            float64            `bson:"amount"`
	Currency          string             `bson:"currency"`
	Method            string             `bson:"method"`
	Status            string             `bson:"status"`
	Provider          string             `bson:"provider"`
	ProviderReference *string            `bson:"providerReference,omitempty"`
	IdempotencyKey    string             `bson:"idempotencyKey"`
	Message           *string            `bson:"message,omitempty"`
	CreatedAt         time.Time          `bson:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt"`
}

// ConnectMongo dials the cluster behind uri and verifies it with a ping.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

// PaymentMongoRepository stores payments in a MongoDB collection.
type PaymentMongoRepository struct {
	collection *mongo.Collection
}

func NewPaymentMongoRepository(collection *mongo.Collection) *PaymentMongoRepository {
	return &PaymentMongoRepository{collection: collection}
}

func (r *PaymentMongoRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "idempotencyKey", Value: 1}},
			Options: options.Index().SetName("idempotencyKey_1").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "orderId", Value: 1}},
			Options: options.Index().SetName("orderId_1"),
		},
	})
	return err
}

func (r *PaymentMongoRepository) Ping(ctx context.Context) error {
	return r.collection.Database().Client().Ping(ctx, readpref.Primary())
}

func (r *PaymentMongoRepository) Create(ctx context.Context, payment *entity.Payment) error {
	if payment.ID == "" {
		payment.ID = NewPaymentID()
	}

	doc, err := toPaymentDocument(payment)
	if err != nil {
		return err
	}

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrPaymentAlreadyExists
		}
		return err
	}

	return nil
}

func (r *PaymentMongoRepository) FindByID(ctx context.Context, id string) (*entity.Payment, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidPaymentID
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *PaymentMongoRepository) FindByIdempotencyKey(ctx context.Context, key string) (*entity.Payment, error) {
	return r.findOne(ctx, bson.M{"idempotencyKey": key})
}

func (r *PaymentMongoRepository) findOne(ctx context.Context, filter bson.M) (*entity.Payment, error) {
	var doc paymentDocument
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return fromPaymentDocument(&doc), nil
}

func toPaymentDocument(payment *entity.Payment) (*paymentDocument, error) {
	oid, err := primitive.ObjectIDFromHex(payment.ID)
	if err != nil {
		return nil, ErrInvalidPaymentID
	}

	return &paymentDocument{
		ID:                oid,
		OrderID:           payment.OrderID,
		Amount:            payment.Amount.InexactFloat64(),
		Currency:          payment.Currency,
		Method:            string(payment.Method),
		Status:            string(payment.Status),
		Provider:          string(payment.Provider),
		ProviderReference: payment.ProviderReference,
		IdempotencyKey:    payment.IdempotencyKey,
		Message:           payment.Message,
		CreatedAt:         payment.CreatedAt,
		UpdatedAt:         payment.UpdatedAt,
	}, nil
}

func fromPaymentDocument(doc *paymentDocument) *entity.Payment {
	return &entity.Payment{
		ID:                doc.ID.Hex(),
		OrderID:           doc.OrderID,
		Amount:            decimal.NewFromFloat(doc.Amount),
		Currency:          doc.Currency,
		Method:            entity.PaymentMethod(doc.Method),
		Status:            entity.PaymentStatus(doc.Status),
		Provider:          entity.PaymentProvider(doc.Provider),
		ProviderReference: doc.ProviderReference,
		IdempotencyKey:    doc.IdempotencyKey,
		Message:           doc.Message,
		CreatedAt:         doc.CreatedAt.UTC(),
		UpdatedAt:         doc.UpdatedAt.UTC(),
	}
}
