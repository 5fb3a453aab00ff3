package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kirangajul/e-commerce-microservices/pkg/paging"
	"github.com/kirangajul/e-commerce-microservices/user-service/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const userSequence = "users"

type MongoRepository struct {
	users    *mongo.Collection
	counters *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		users:    db.Collection("users"),
		counters: db.Collection("counters"),
	}
}

func (m *MongoRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	if _, err := m.users.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// nextID bumps the named counter document and returns the new value.
func (m *MongoRepository) nextID(ctx context.Context, name string) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	err := m.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate id: %w", err)
	}
	return counter.Seq, nil
}

func (m *MongoRepository) CreateUser(ctx context.Context, u domain.User) (domain.User, error) {
	id, err := m.nextID(ctx, userSequence)
	if err != nil {
		return domain.User{}, err
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	u.ID = id
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := m.users.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.User{}, ErrUserExists
		}
		return domain.User{}, fmt.Errorf("failed to insert user: %w", err)
	}
	return u, nil
}

func (m *MongoRepository) GetUser(ctx context.Context, id int64) (domain.User, error) {
	return m.findOne(ctx, bson.M{"_id": id})
}

func (m *MongoRepository) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	return m.findOne(ctx, bson.M{"username": username})
}

func (m *MongoRepository) findOne(ctx context.Context, filter bson.M) (domain.User, error) {
	var u domain.User
	if err := m.users.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// ListUsers returns one page of users and the total number of users. A page
// size of zero yields only the total.
func (m *MongoRepository) ListUsers(ctx context.Context, spec paging.Spec) ([]domain.User, int64, error) {
	total, err := m.users.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}
	if spec.Size == 0 {
		return []domain.User{}, total, nil
	}

	opts := options.Find().
		SetSort(sortDoc(spec)).
		SetSkip(int64(spec.Offset())).
		SetLimit(int64(spec.Size))

	cur, err := m.users.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	users := []domain.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, 0, fmt.Errorf("failed to decode users: %w", err)
	}
	return users, total, nil
}

// sortDoc maps the whitelisted sort attribute to its field, with _id as the
// tie-breaker.
func sortDoc(spec paging.Spec) bson.D {
	field, ok := domain.UserSortFields.Columns[spec.SortField]
	if !ok {
		field = "_id"
	}
	dir := 1
	if spec.Direction == paging.Desc {
		dir = -1
	}
	sort := bson.D{{Key: field, Value: dir}}
	if field != "_id" {
		sort = append(sort, bson.E{Key: "_id", Value: 1})
	}
	return sort
}
