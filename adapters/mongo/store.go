// Package mongo stores users in a MongoDB collection.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/lborres/bantay/core"
	"github.com/lborres/bantay/pkg/crypto"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

const (
	DefaultDatabase       = "bantay"
	DefaultCollectionName = "users"
)

// userDoc is the stored shape. Field names and the email_1 unique index
// follow Mongoose's conventions for a users collection, so existing
// collections load as is. Emails are always stored lower-cased.
type userDoc struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Name           string             `bson:"name"`
	Email          string             `bson:"email"`
	PasswordDigest string             `bson:"password"`
	Role           string             `bson:"role"`
	CreatedAt      time.Time          `bson:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt"`
}

func (d *userDoc) toUser() (*core.User, error) {
	digest, err := crypto.ParseDigest(d.PasswordDigest)
	if err != nil {
		return nil, fmt.Errorf("user %s has an unusable password digest: %w", d.ID.Hex(), err)
	}
	// role was defaulted at write time, so a missing value is a user
	role := core.Role(d.Role)
	if role == "" {
		role = core.RoleUser
	}
	return &core.User{
		ID:             d.ID.Hex(),
		Name:           d.Name,
		Email:          d.Email,
		PasswordDigest: digest,
		Role:           role,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}, nil
}

type Store struct {
	client *mongo.Client // nil when the caller owns the connection
	users  *mongo.Collection
	now    func() time.Time
}

var _ core.UserStorage = (*Store)(nil)

// New uses an existing database handle. Call EnsureIndexes before serving.
func New(db *mongo.Database) *Store {
	return &Store{
		users: db.Collection(DefaultCollectionName),
		now:   time.Now,
	}
}

// Open connects to uri, selects the database named in its path (or
// DefaultDatabase) and creates the indexes the store relies on.
func Open(ctx context.Context, uri string) (*Store, error) {
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid mongodb uri: %w", err)
	}
	dbName := cs.Database
	if dbName == "" {
		dbName = DefaultDatabase
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect error: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongodb ping error: %w", err)
	}

	s := New(client.Database(dbName))
	s.client = client
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("email_1"),
		},
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("createdAt_-1__id_-1"),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.users.Database().Client().Ping(ctx, nil)
}

// Close disconnects the client if Open created it.
func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

// timestamp truncates to the millisecond precision BSON dates keep.
func (s *Store) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, core.ErrInvalidUserID
	}
	return oid, nil
}

func (s *Store) CreateUser(ctx context.Context, rec core.UserRecord) (*core.User, error) {
	now := s.timestamp()
	doc := userDoc{
		ID:             primitive.NewObjectID(),
		Name:           rec.Name,
		Email:          strings.ToLower(rec.Email),
		PasswordDigest: rec.PasswordDigest.Encoded(),
		Role:           string(rec.Role),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, core.ErrUserExists
		}
		return nil, err
	}
	return doc.toUser()
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*core.User, error) {
	var doc userDoc
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, core.ErrUserNotFound
		}
		return nil, err
	}
	return doc.toUser()
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*core.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return s.findOne(ctx, bson.M{"_id": oid})
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	return s.findOne(ctx, bson.M{"email": strings.ToLower(email)})
}

func (s *Store) UpdateUser(ctx context.Context, id string, upd core.UserUpdate) (*core.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	set := bson.M{"updatedAt": s.timestamp()}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.Email != nil {
		set["email"] = strings.ToLower(*upd.Email)
	}
	if upd.Role != nil {
		set["role"] = string(*upd.Role)
	}
	if upd.PasswordDigest != nil {
		set["password"] = upd.PasswordDigest.Encoded()
	}

	var doc userDoc
	err = s.users.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, core.ErrUserNotFound
		case mongo.IsDuplicateKeyError(err):
			return nil, core.ErrUserExists
		}
		return nil, err
	}
	return doc.toUser()
}

// searchFilter matches Query literally and case-insensitively against
// name or email.
func searchFilter(f core.UserFilter) bson.M {
	if f.Query == "" {
		return bson.M{}
	}
	re := primitive.Regex{Pattern: regexp.QuoteMeta(f.Query), Options: "i"}
	return bson.M{"$or": bson.A{
		bson.M{"name": re},
		bson.M{"email": re},
	}}
}

func (s *Store) ListUsers(ctx context.Context, f core.UserFilter) ([]*core.User, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(f.Offset)).
		SetLimit(int64(f.Limit))

	cur, err := s.users.Find(ctx, searchFilter(f), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	users := []*core.User{}
	for cur.Next(ctx) {
		var doc userDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		u, err := doc.toUser()
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, cur.Err()
}

func (s *Store) CountUsers(ctx context.Context, f core.UserFilter) (int, error) {
	n, err := s.users.CountDocuments(ctx, searchFilter(f))
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
