//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"rofl/domain"
	"rofl/errors"
	"rofl/eventlog"
)

type IUserRepository interface {
	Create(ctx context.Context, user domain.User, passwordHash string) error
	Get(ctx context.Context, id string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, string, error)
	AddJoinedChat(ctx context.Context, userID, chatID string) error
	RemoveJoinedChat(ctx context.Context, userID, chatID string) error
}

type UserRepository struct {
	users *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{users: db.Collection("users")}
}

// userDoc is the persisted shape of a user. The private key is stored so
// the identity survives restarts; it never leaves the repository layer
// except inside the opaque Keys handle.
type userDoc struct {
	UUID         string   `bson:"uuid"`
	DisplayName  string   `bson:"display_name"`
	Email        string   `bson:"email"`
	PasswordHash string   `bson:"password_hash"`
	PublicKey    string   `bson:"public_key"`
	PrivateKey   string   `bson:"private_key"`
	JoinedChats  []string `bson:"joined_chats"`
}

func (r *UserRepository) Create(ctx context.Context, user domain.User, passwordHash string) error {
	count, err := r.users.CountDocuments(ctx, bson.M{"email": user.Email})
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	if count > 0 {
		return fmt.Errorf("%w: email taken", errors.ErrUserAlreadyExists)
	}

	doc := userDoc{
		UUID:         user.ID,
		DisplayName:  user.DisplayName,
		Email:        user.Email,
		PasswordHash: passwordHash,
		PublicKey:    user.Keys.PublicKeyHex(),
		PrivateKey:   user.Keys.PrivateKeyHex(),
		JoinedChats:  []string{},
	}
	if _, err := r.users.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	return nil
}

func (r *UserRepository) Get(ctx context.Context, id string) (domain.User, error) {
	return r.findOne(ctx, bson.M{"uuid": id})
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (domain.User, string, error) {
	var doc userDoc
	err := r.users.FindOne(ctx, bson.M{"email": email}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return domain.User{}, "", fmt.Errorf("%w: no user for email", errors.ErrNotFound)
	}
	if err != nil {
		return domain.User{}, "", fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	user, err := toUser(doc)
	return user, doc.PasswordHash, err
}

// AddJoinedChat appends the chat id to the user-side membership list.
// $addToSet keeps a retried request from duplicating the entry.
func (r *UserRepository) AddJoinedChat(ctx context.Context, userID, chatID string) error {
	return r.updateJoined(ctx, userID, bson.M{"$addToSet": bson.M{"joined_chats": chatID}})
}

func (r *UserRepository) RemoveJoinedChat(ctx context.Context, userID, chatID string) error {
	return r.updateJoined(ctx, userID, bson.M{"$pull": bson.M{"joined_chats": chatID}})
}

func (r *UserRepository) updateJoined(ctx context.Context, userID string, update bson.M) error {
	res, err := r.users.UpdateOne(ctx, bson.M{"uuid": userID}, update)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: user %s", errors.ErrNotFound, userID)
	}
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (domain.User, error) {
	var doc userDoc
	err := r.users.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return domain.User{}, fmt.Errorf("%w: user", errors.ErrNotFound)
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	return toUser(doc)
}

func toUser(doc userDoc) (domain.User, error) {
	keys, err := eventlog.KeysFromHex(doc.PrivateKey)
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: stored key material: %v", errors.ErrPersistence, err)
	}
	return domain.User{
		ID:          doc.UUID,
		DisplayName: doc.DisplayName,
		Email:       doc.Email,
		JoinedChats: append([]string(nil), doc.JoinedChats...),
		Keys:        keys,
	}, nil
}
