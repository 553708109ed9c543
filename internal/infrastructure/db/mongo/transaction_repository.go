package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/moneyjar/jarledger/internal/core/domain"
)

const collectionTransactions = "transactions"

// TransactionRepository persists the append-only ledger. Documents are never
// updated; DeleteByJar exists only for the jar cascade-delete.
type TransactionRepository struct {
	col *mongo.Collection
}

func NewTransactionRepository(db *mongo.Database) *TransactionRepository {
	return &TransactionRepository{col: db.Collection(collectionTransactions)}
}

type transactionDoc struct {
	ID             string               `bson:"_id"`
	JarID          string               `bson:"jar_id"`
	UserID         string               `bson:"user_id"`
	Type           string               `bson:"type"`
	Amount         primitive.Decimal128 `bson:"amount"`
	Note           string               `bson:"note,omitempty"`
	Date           time.Time            `bson:"date"`
	CreatedAt      time.Time            `bson:"created_at"`
	TransferID     string               `bson:"transfer_id,omitempty"`
	IdempotencyKey string               `bson:"idempotency_key,omitempty"`
}

func toTransactionDoc(t *domain.Transaction) (*transactionDoc, error) {
	amount, err := toDecimal128(t.Amount)
	if err != nil {
		return nil, err
	}
	return &transactionDoc{
		ID:             t.ID,
		JarID:          t.JarID,
		UserID:         t.UserID,
		Type:           string(t.Type),
		Amount:         amount,
		Note:           t.Note,
		Date:           t.Date.UTC(),
		CreatedAt:      t.CreatedAt.UTC(),
		TransferID:     t.TransferID,
		IdempotencyKey: t.IdempotencyKey,
	}, nil
}

func (d *transactionDoc) toDomain() (*domain.Transaction, error) {
	amount, err := fromDecimal128(d.Amount)
	if err != nil {
		return nil, err
	}
	if !domain.TransactionType(d.Type).Valid() {
		return nil, fmt.Errorf("transaction %s: unknown type %q", d.ID, d.Type)
	}
	return &domain.Transaction{
		ID:             d.ID,
		JarID:          d.JarID,
		UserID:         d.UserID,
		Type:           domain.TransactionType(d.Type),
		Amount:         amount,
		Note:           d.Note,
		Date:           d.Date.UTC(),
		CreatedAt:      d.CreatedAt.UTC(),
		TransferID:     d.TransferID,
		IdempotencyKey: d.IdempotencyKey,
	}, nil
}

func (r *TransactionRepository) Insert(ctx context.Context, t *domain.Transaction) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc, err := toTransactionDoc(t)
	if err != nil {
		return err
	}
	_, err = r.col.InsertOne(ctx, doc)
	return err
}

// InsertPair persists the two rows of a transfer in one command. Pair
// atomicity against the surrounding balance updates comes from the session
// transaction the caller runs this in.
func (r *TransactionRepository) InsertPair(ctx context.Context, out, in *domain.Transaction) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	outDoc, err := toTransactionDoc(out)
	if err != nil {
		return err
	}
	inDoc, err := toTransactionDoc(in)
	if err != nil {
		return err
	}
	_, err = r.col.InsertMany(ctx, []interface{}{outDoc, inDoc})
	return err
}

// FindByIdempotencyKey returns every entry recorded under the key, oldest
// first. An empty slice means the key is unseen.
func (r *TransactionRepository) FindByIdempotencyKey(ctx context.Context, key string) ([]*domain.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.col.Find(ctx, bson.M{"idempotency_key": key}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	return decodeTransactions(ctx, cursor)
}

func (r *TransactionRepository) ListByJar(ctx context.Context, jarID string, limit int64) ([]*domain.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "created_at", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(limit)
	}
	cursor, err := r.col.Find(ctx, bson.M{"jar_id": jarID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	return decodeTransactions(ctx, cursor)
}

// ListByUser returns the entries the user recorded themselves, across every
// jar they touched, newest first.
func (r *TransactionRepository) ListByUser(ctx context.Context, userID string, limit int64) ([]*domain.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "created_at", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(limit)
	}
	cursor, err := r.col.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	return decodeTransactions(ctx, cursor)
}

func (r *TransactionRepository) DeleteByJar(ctx context.Context, jarID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.DeleteMany(ctx, bson.M{"jar_id": jarID})
	return err
}

func decodeTransactions(ctx context.Context, cursor *mongo.Cursor) ([]*domain.Transaction, error) {
	txs := []*domain.Transaction{}
	for cursor.Next(ctx) {
		var doc transactionDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		t, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, cursor.Err()
}

// EnsureIndexes creates necessary indexes on the transactions collection.
func (r *TransactionRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// The unique (idempotency_key, type) index is the durable backstop
	// against two requests committing under one key: a transfer's pair has
	// distinct types, so legitimate pairs never collide. Keyless entries
	// omit the field and fall outside the partial filter.
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "jar_id", Value: 1}, {Key: "date", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "date", Value: -1}}},
		{
			Keys: bson.D{{Key: "idempotency_key", Value: 1}, {Key: "type", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"idempotency_key": bson.M{"$exists": true}}),
		},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
