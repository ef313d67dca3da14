package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mrperfect/storefront/internal/model"
)

// ChatRepo keeps one MongoDB document per shopper with the conversation's
// messages embedded, newest last.
type ChatRepo struct{ coll *mongo.Collection }

func NewChatRepo(db *mongo.Database) *ChatRepo { return &ChatRepo{coll: db.Collection("chats")} }

// EnsureIndexes creates the unique userId index.
func (r *ChatRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// AppendFromUser adds a shopper message, creating the thread on first use.
func (r *ChatRepo) AppendFromUser(ctx context.Context, user model.User, text string) (model.ChatThread, error) {
	now := time.Now().UTC()
	msg := model.ChatMessage{SenderRole: model.SenderUser, Message: text, CreatedAt: now}
	update := bson.M{
		"$push": bson.M{"messages": msg},
		"$set":  bson.M{"userName": user.UserName, "email": user.Email, "updatedAt": now},
		"$setOnInsert": bson.M{
			"userId":    user.ID,
			"createdAt": now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var t model.ChatThread
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"userId": user.ID}, update, opts).Decode(&t)
	return t, err
}

// AppendFromAdmin adds an admin reply to an existing thread.  It does not
// open conversations; an unknown user yields ErrNotFound.
func (r *ChatRepo) AppendFromAdmin(ctx context.Context, userID uint64, text string) (model.ChatThread, error) {
	now := time.Now().UTC()
	msg := model.ChatMessage{SenderRole: model.SenderAdmin, Message: text, CreatedAt: now}
	update := bson.M{
		"$push": bson.M{"messages": msg},
		"$set":  bson.M{"updatedAt": now},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var t model.ChatThread
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"userId": userID}, update, opts).Decode(&t)
	return t, mongoNotFound(err)
}

// GetByUser returns the shopper's thread.
func (r *ChatRepo) GetByUser(ctx context.Context, userID uint64) (model.ChatThread, error) {
	var t model.ChatThread
	err := r.coll.FindOne(ctx, bson.M{"userId": userID}).Decode(&t)
	return t, mongoNotFound(err)
}

// List returns every thread, most recently active first.
func (r *ChatRepo) List(ctx context.Context) ([]model.ChatThread, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []model.ChatThread{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ChatRepo) Delete(ctx context.Context, userID uint64) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"userId": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func mongoNotFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}
