package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"jesa/internal/registration/models"
	"jesa/pkg/platform/sentinel"
)

// MongoStore keeps base and specialization records in separate collections
// linked by ApplicantId and DetilID.
type MongoStore struct {
	client   *mongo.Client
	bases    *mongo.Collection
	external *mongo.Collection
	internal *mongo.Collection
}

// NewMongo binds the store to db.
func NewMongo(db *mongo.Database) *MongoStore {
	return &MongoStore{
		client:   db.Client(),
		bases:    db.Collection(models.CollectionBase),
		external: db.Collection(models.CollectionExternal),
		internal: db.Collection(models.CollectionInternal),
	}
}

// EnsureIndexes creates the lookup indexes. Indexes are not unique:
// duplicate registrations are accepted.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	if _, err := s.bases.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}},
	}); err != nil {
		return fmt.Errorf("create %s index: %w", models.CollectionBase, err)
	}
	for _, coll := range []*mongo.Collection{s.external, s.internal} {
		if _, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
			{Keys: bson.D{{Key: "ApplicantId", Value: 1}}},
			{Keys: bson.D{{Key: "Email", Value: 1}}},
		}); err != nil {
			return fmt.Errorf("create %s indexes: %w", coll.Name(), err)
		}
	}
	return nil
}

func (s *MongoStore) CreateBase(ctx context.Context, base *models.BaseApplicant) error {
	if _, err := s.bases.InsertOne(ctx, base); err != nil {
		return fmt.Errorf("insert base applicant: %w", err)
	}
	return nil
}

func (s *MongoStore) CreateExternal(ctx context.Context, detail *models.ExternalApplicant) error {
	if _, err := s.external.InsertOne(ctx, detail); err != nil {
		return fmt.Errorf("insert external applicant: %w", err)
	}
	return nil
}

func (s *MongoStore) CreateInternal(ctx context.Context, detail *models.InternalApplicant) error {
	if _, err := s.internal.InsertOne(ctx, detail); err != nil {
		return fmt.Errorf("insert internal applicant: %w", err)
	}
	return nil
}

// LinkDetail only matches an unlinked base so the reference is set once.
func (s *MongoStore) LinkDetail(ctx context.Context, baseID, detailID ObjectID) error {
	res, err := s.bases.UpdateOne(ctx,
		bson.M{"_id": baseID, "DetilID": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"DetilID": detailID}},
	)
	if err != nil {
		return fmt.Errorf("link base applicant: %w", err)
	}
	if res.MatchedCount == 1 {
		return nil
	}

	n, err := s.bases.CountDocuments(ctx, bson.M{"_id": baseID})
	if err != nil {
		return fmt.Errorf("check base applicant: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return fmt.Errorf("base applicant %s already linked: %w", baseID.Hex(), sentinel.ErrInvalidState)
}

func (s *MongoStore) DeleteBase(ctx context.Context, id ObjectID) error {
	return deleteOne(ctx, s.bases, id)
}

func (s *MongoStore) DeleteDetail(ctx context.Context, variant models.Variant, id ObjectID) error {
	coll, err := s.detailCollection(variant)
	if err != nil {
		return err
	}
	return deleteOne(ctx, coll, id)
}

func (s *MongoStore) FindBase(ctx context.Context, id ObjectID) (*models.BaseApplicant, error) {
	var base models.BaseApplicant
	if err := s.bases.FindOne(ctx, bson.M{"_id": id}).Decode(&base); err != nil {
		return nil, translate(err, "find base applicant")
	}
	return &base, nil
}

func (s *MongoStore) FindDetail(ctx context.Context, variant models.Variant, id ObjectID) (models.Detail, error) {
	coll, err := s.detailCollection(variant)
	if err != nil {
		return nil, err
	}
	res := coll.FindOne(ctx, bson.M{"_id": id})

	var detail models.Detail
	switch variant {
	case models.VariantExternal:
		var d models.ExternalApplicant
		err = res.Decode(&d)
		detail = &d
	default:
		var d models.InternalApplicant
		err = res.Decode(&d)
		detail = &d
	}
	if err != nil {
		return nil, translate(err, "find "+string(variant)+" applicant")
	}
	return detail, nil
}

// ListBases returns up to limit base records, newest first.
func (s *MongoStore) ListBases(ctx context.Context, limit int) ([]*models.BaseApplicant, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := s.bases.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list base applicants: %w", err)
	}
	defer cur.Close(ctx)

	out := []*models.BaseApplicant{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode base applicants: %w", err)
	}
	return out, nil
}

// RunInTx runs fn inside a multi-document transaction. It requires a
// replica set or sharded cluster. The driver re-runs fn on transient
// transaction errors; nothing is visible until commit, so a re-run cannot
// leave a partial pair.
func (s *MongoStore) RunInTx(ctx context.Context, fn func(ctx context.Context, s Store) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	txOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc, s)
	}, txOpts)
	return err
}

func (s *MongoStore) detailCollection(variant models.Variant) (*mongo.Collection, error) {
	switch variant {
	case models.VariantExternal:
		return s.external, nil
	case models.VariantInternal:
		return s.internal, nil
	default:
		return nil, fmt.Errorf("unknown variant %q: %w", variant, sentinel.ErrInvalidState)
	}
}

func deleteOne(ctx context.Context, coll *mongo.Collection, id ObjectID) error {
	res, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete from %s: %w", coll.Name(), err)
	}
	if res.DeletedCount == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func translate(err error, op string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return sentinel.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
