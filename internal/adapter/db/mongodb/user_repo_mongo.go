package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"user-registry/internal/domain/user"
)

// CollectionName is the collection holding user documents.
const CollectionName = "users"

// UserRepoMongo implements the Repository interface on a MongoDB collection.
type UserRepoMongo struct {
	coll *mongo.Collection
	log  *zap.Logger
}

// NewUserRepoMongo creates a repository over the users collection of db.
func NewUserRepoMongo(db *mongo.Database, log *zap.Logger) *UserRepoMongo {
	return &UserRepoMongo{coll: db.Collection(CollectionName), log: log}
}

// userDocument is the stored layout of a user.
type userDocument struct {
	ID    primitive.ObjectID `bson:"_id"`
	Name  string             `bson:"name"`
	Age   int                `bson:"age"`
	Email string             `bson:"email"`
}

func (d *userDocument) toDomain() *user.User {
	return &user.User{
		ID:    d.ID.Hex(),
		Name:  d.Name,
		Age:   d.Age,
		Email: d.Email,
	}
}

// EnsureIndexes creates the unique index on email that backs uniqueness.
func (r *UserRepoMongo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("users_email_unique"),
	})
	if err != nil {
		return fmt.Errorf("failed to create email index: %w", err)
	}
	return nil
}

// List retrieves every user ordered by creation.
func (r *UserRepoMongo) List(ctx context.Context) ([]user.User, error) {
	cur, err := r.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		r.log.Error("failed to list users from mongo", zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	var docs []userDocument
	if err := cur.All(ctx, &docs); err != nil {
		r.log.Error("failed to decode users from mongo", zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]user.User, len(docs))
	for i := range docs {
		users[i] = *docs[i].toDomain()
	}
	return users, nil
}

// GetByID retrieves a user by its ObjectID hex.
func (r *UserRepoMongo) GetByID(ctx context.Context, id string) (*user.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

// GetByEmail retrieves a user by normalized email.
func (r *UserRepoMongo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepoMongo) findOne(ctx context.Context, filter bson.M) (*user.User, error) {
	var doc userDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		r.log.Error("failed to find user in mongo", zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return doc.toDomain(), nil
}

// Create inserts a new user document with a fresh ObjectID.
func (r *UserRepoMongo) Create(ctx context.Context, u *user.User) (*user.User, error) {
	if u == nil {
		return nil, errors.New("user cannot be nil")
	}

	doc := userDocument{
		ID:    primitive.NewObjectID(),
		Name:  u.Name,
		Age:   u.Age,
		Email: u.Email,
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, user.ErrDuplicateEmail
		}
		r.log.Error("failed to insert user in mongo", zap.Error(err), zap.String("email", u.Email))
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	r.log.Info("user created in mongo", zap.String("id", doc.ID.Hex()))
	return doc.toDomain(), nil
}

// Update applies the patch with $set and returns the document after the write.
func (r *UserRepoMongo) Update(ctx context.Context, id string, p user.Patch) (*user.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, user.ErrNotFound
	}

	if p.IsEmpty() {
		// An empty $set is rejected by the server
		u, err := r.findOne(ctx, bson.M{"_id": oid})
		if err != nil {
			return nil, err
		}
		if u == nil {
			return nil, user.ErrNotFound
		}
		return u, nil
	}

	set := patchToSet(p)
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc userDocument
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, user.ErrNotFound
		case mongo.IsDuplicateKeyError(err):
			return nil, user.ErrDuplicateEmail
		}
		r.log.Error("failed to update user in mongo", zap.Error(err), zap.String("id", id))
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	r.log.Info("user updated in mongo", zap.String("id", id))
	return doc.toDomain(), nil
}

// Delete removes a user document permanently.
func (r *UserRepoMongo) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return user.ErrNotFound
	}

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		r.log.Error("failed to delete user in mongo", zap.Error(err), zap.String("id", id))
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return user.ErrNotFound
	}

	r.log.Info("user deleted in mongo", zap.String("id", id))
	return nil
}

// patchToSet builds the $set document for the non-nil patch fields.
func patchToSet(p user.Patch) bson.M {
	set := bson.M{}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Age != nil {
		set["age"] = *p.Age
	}
	if p.Email != nil {
		set["email"] = *p.Email
	}
	return set
}
