package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alchemorsel/fridgechef/internal/domain/user"
	"github.com/alchemorsel/fridgechef/internal/ports/outbound"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// UserRepository implements outbound.UserRepository on a collection
type UserRepository struct {
	coll *mongo.Collection
}

// NewUserRepository creates a new user repository
func NewUserRepository(cm *ConnectionManager) *UserRepository {
	return &UserRepository{coll: cm.Users()}
}

var _ outbound.UserRepository = (*UserRepository)(nil)

// Create inserts the user and assigns the generated id
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	doc, err := UserToDocument(u)
	if err != nil {
		return err
	}
	doc.ID = primitive.NewObjectID()

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return user.ErrUsernameTaken
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	u.AssignID(doc.ID.Hex())
	return nil
}

// Update writes the username, password hash and update time
func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	id, err := primitive.ObjectIDFromHex(u.ID())
	if err != nil {
		return user.ErrUserNotFound
	}

	update := bson.M{"$set": bson.M{
		"username":  u.Username(),
		"password":  u.PasswordHash(),
		"updatedAt": u.UpdatedAt(),
	}}
	result, err := r.coll.UpdateByID(ctx, id, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return user.ErrUsernameTaken
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	if result.MatchedCount == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

// Delete removes a user
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return user.ErrUserNotFound
	}
	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if result.DeletedCount == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

// FindByID looks a user up by id
func (r *UserRepository) FindByID(ctx context.Context, id string) (*user.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, user.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

// FindByUsername looks a user up by exact username
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*user.User, error) {
	return r.findOne(ctx, bson.M{"username": strings.TrimSpace(username)})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*user.User, error) {
	var doc UserDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, user.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return DocumentToUser(&doc), nil
}
