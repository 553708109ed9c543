package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/moneyjar/jarledger/internal/core/domain"
)

const collectionJars = "jars"

type JarRepository struct {
	col *mongo.Collection
}

func NewJarRepository(db *mongo.Database) *JarRepository {
	return &JarRepository{col: db.Collection(collectionJars)}
}

type jarDoc struct {
	ID           string                `bson:"_id"`
	OwnerID      string                `bson:"owner_id"`
	Name         string                `bson:"name"`
	Emoji        string                `bson:"emoji"`
	Color        string                `bson:"color"`
	Balance      primitive.Decimal128  `bson:"balance"`
	TargetAmount *primitive.Decimal128 `bson:"target_amount,omitempty"`
	IsShared     bool                  `bson:"is_shared"`
	Position     int                   `bson:"position"`
	CreatedAt    time.Time             `bson:"created_at"`
}

func toJarDoc(j *domain.Jar) (*jarDoc, error) {
	balance, err := toDecimal128(j.Balance)
	if err != nil {
		return nil, err
	}
	doc := &jarDoc{
		ID:        j.ID,
		OwnerID:   j.OwnerID,
		Name:      j.Name,
		Emoji:     j.Emoji,
		Color:     j.Color,
		Balance:   balance,
		IsShared:  j.IsShared,
		Position:  j.Position,
		CreatedAt: j.CreatedAt.UTC(),
	}
	if j.TargetAmount != nil {
		target, err := toDecimal128(*j.TargetAmount)
		if err != nil {
			return nil, err
		}
		doc.TargetAmount = &target
	}
	return doc, nil
}

func (d *jarDoc) toDomain() (*domain.Jar, error) {
	balance, err := fromDecimal128(d.Balance)
	if err != nil {
		return nil, err
	}
	jar := &domain.Jar{
		ID:        d.ID,
		OwnerID:   d.OwnerID,
		Name:      d.Name,
		Emoji:     d.Emoji,
		Color:     d.Color,
		Balance:   balance,
		IsShared:  d.IsShared,
		Position:  d.Position,
		CreatedAt: d.CreatedAt.UTC(),
	}
	if d.TargetAmount != nil {
		target, err := fromDecimal128(*d.TargetAmount)
		if err != nil {
			return nil, err
		}
		jar.TargetAmount = &target
	}
	return jar, nil
}

// Create inserts a new jar document.
func (r *JarRepository) Create(ctx context.Context, j *domain.Jar) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc, err := toJarDoc(j)
	if err != nil {
		return err
	}
	_, err = r.col.InsertOne(ctx, doc)
	return err
}

func (r *JarRepository) FindByID(ctx context.Context, jarID string) (*domain.Jar, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc jarDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": jarID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrJarNotFound
		}
		return nil, err
	}
	return doc.toDomain()
}

// ListByOwner returns the owner's jars in display order: position ascending,
// creation time as tiebreak.
func (r *JarRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Jar, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "position", Value: 1}, {Key: "created_at", Value: 1}})
	cursor, err := r.col.Find(ctx, bson.M{"owner_id": ownerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	jars := []*domain.Jar{}
	for cursor.Next(ctx) {
		var doc jarDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		jar, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		jars = append(jars, jar)
	}
	return jars, cursor.Err()
}

func (r *JarRepository) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return r.col.CountDocuments(ctx, bson.M{"owner_id": ownerID})
}

// ApplyBalanceDelta mutates the balance as one server-side update, so
// concurrent deltas against the same jar serialize at the storage layer and
// cannot lose updates. Credits use $inc; clamped debits use an aggregation
// pipeline so max(0, balance+delta) is computed atomically with the write.
func (r *JarRepository) ApplyBalanceDelta(ctx context.Context, jarID string, delta decimal.Decimal, clampZero bool) (decimal.Decimal, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	d128, err := toDecimal128(delta)
	if err != nil {
		return decimal.Decimal{}, err
	}

	var update interface{}
	if clampZero {
		zero, _ := primitive.ParseDecimal128("0")
		update = mongo.Pipeline{
			{{Key: "$set", Value: bson.M{
				"balance": bson.M{"$max": bson.A{zero, bson.M{"$add": bson.A{"$balance", d128}}}},
			}}},
		}
	} else {
		update = bson.M{"$inc": bson.M{"balance": d128}}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc jarDoc
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": jarID}, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return decimal.Decimal{}, domain.ErrJarNotFound
		}
		return decimal.Decimal{}, err
	}
	return fromDecimal128(doc.Balance)
}

func (r *JarRepository) SetShared(ctx context.Context, jarID string, shared bool) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": jarID}, bson.M{"$set": bson.M{"is_shared": shared}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrJarNotFound
	}
	return nil
}

func (r *JarRepository) Delete(ctx context.Context, jarID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": jarID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrJarNotFound
	}
	return nil
}

// EnsureIndexes creates necessary indexes on the jars collection.
func (r *JarRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "position", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
