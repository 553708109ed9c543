package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/moneyjar/jarledger/internal/core/domain"
)

const collectionMembers = "jar_members"

type MemberRepository struct {
	col *mongo.Collection
}

func NewMemberRepository(db *mongo.Database) *MemberRepository {
	return &MemberRepository{col: db.Collection(collectionMembers)}
}

type memberDoc struct {
	ID         string     `bson:"_id"`
	JarID      string     `bson:"jar_id"`
	UserID     string     `bson:"user_id"`
	Role       string     `bson:"role"`
	InvitedAt  time.Time  `bson:"invited_at"`
	AcceptedAt *time.Time `bson:"accepted_at,omitempty"`
}

func (d *memberDoc) toDomain() *domain.JarMember {
	return &domain.JarMember{
		ID:         d.ID,
		JarID:      d.JarID,
		UserID:     d.UserID,
		Role:       d.Role,
		InvitedAt:  d.InvitedAt.UTC(),
		AcceptedAt: d.AcceptedAt,
	}
}

func (r *MemberRepository) Create(ctx context.Context, m *domain.JarMember) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := memberDoc{
		ID:         m.ID,
		JarID:      m.JarID,
		UserID:     m.UserID,
		Role:       m.Role,
		InvitedAt:  m.InvitedAt.UTC(),
		AcceptedAt: m.AcceptedAt,
	}
	_, err := r.col.InsertOne(ctx, doc)
	if err != nil && mongo.IsDuplicateKeyError(err) {
		return domain.ErrMemberExists
	}
	return err
}

func (r *MemberRepository) FindByJarAndUser(ctx context.Context, jarID, userID string) (*domain.JarMember, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc memberDoc
	err := r.col.FindOne(ctx, bson.M{"jar_id": jarID, "user_id": userID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *MemberRepository) ListByJar(ctx context.Context, jarID string) ([]*domain.JarMember, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cursor, err := r.col.Find(ctx, bson.M{"jar_id": jarID}, options.Find().SetSort(bson.D{{Key: "invited_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	members := []*domain.JarMember{}
	for cursor.Next(ctx) {
		var doc memberDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		members = append(members, doc.toDomain())
	}
	return members, cursor.Err()
}

func (r *MemberRepository) Accept(ctx context.Context, jarID, userID string, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"jar_id": jarID, "user_id": userID},
		bson.M{"$set": bson.M{"accepted_at": at.UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrMemberNotFound
	}
	return nil
}

func (r *MemberRepository) DeleteByJar(ctx context.Context, jarID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.DeleteMany(ctx, bson.M{"jar_id": jarID})
	return err
}

// EnsureIndexes creates the unique (jar_id, user_id) index backing duplicate
// invites.
func (r *MemberRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	unique := true
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "jar_id", Value: 1}, {Key: "user_id", Value: 1}}, Options: &options.IndexOptions{Unique: &unique}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
