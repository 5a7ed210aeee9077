package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/tazhibayda/chat-service/internal/domain"
)

// ErrNotFound reports that no chat matched both the chat id and the
// owner id.
var ErrNotFound = errors.New("chat not found")

func chatID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("invalid chat id %q: %w", hex, err)
	}
	return id, nil
}

func (s *Store) CreateChat(ctx context.Context, c *domain.Chat) error {
	sp, ctx := tracer.StartSpanFromContext(ctx, "mongo.chats.insert",
		tracer.Tag("owner_id", c.UserID),
	)
	defer sp.Finish()

	coll, err := s.chats(ctx)
	if err != nil {
		sp.SetTag("error", err)
		return err
	}
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	if c.Messages == nil {
		c.Messages = []domain.Message{}
	}
	res, err := coll.InsertOne(ctx, c)
	if err != nil {
		sp.SetTag("error", err)
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		c.ID = oid
	}
	return nil
}

func (s *Store) ListChatsByOwner(ctx context.Context, userID string) ([]domain.Chat, error) {
	coll, err := s.chats(ctx)
	if err != nil {
		return nil, err
	}
	cur, err := coll.Find(ctx,
		bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []domain.Chat{}
	for cur.Next(ctx) {
		var c domain.Chat
		if err := cur.Decode(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, cur.Err()
}

// RenameChat updates the display name for the {chat id, owner id}
// pair. No matching document is a silent no-op, same as delete.
func (s *Store) RenameChat(ctx context.Context, chat, userID, name string) error {
	sp, ctx := tracer.StartSpanFromContext(ctx, "mongo.chats.rename",
		tracer.Tag("owner_id", userID),
	)
	defer sp.Finish()

	id, err := chatID(chat)
	if err != nil {
		return err
	}
	coll, err := s.chats(ctx)
	if err != nil {
		sp.SetTag("error", err)
		return err
	}
	_, err = coll.UpdateOne(ctx,
		bson.M{"_id": id, "user_id": userID},
		bson.M{"$set": bson.M{"name": name, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		sp.SetTag("error", err)
	}
	return err
}

func (s *Store) DeleteChat(ctx context.Context, chat, userID string) error {
	sp, ctx := tracer.StartSpanFromContext(ctx, "mongo.chats.delete",
		tracer.Tag("owner_id", userID),
	)
	defer sp.Finish()

	id, err := chatID(chat)
	if err != nil {
		return err
	}
	coll, err := s.chats(ctx)
	if err != nil {
		sp.SetTag("error", err)
		return err
	}
	_, err = coll.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		sp.SetTag("error", err)
	}
	return err
}

// AppendMessage pushes one message onto an owned chat. Unlike rename
// and delete this reports ErrNotFound when nothing matched, so the
// caller can tell the append was dropped.
func (s *Store) AppendMessage(ctx context.Context, chat, userID string, m domain.Message) error {
	sp, ctx := tracer.StartSpanFromContext(ctx, "mongo.chats.append_message",
		tracer.Tag("owner_id", userID),
	)
	defer sp.Finish()

	id, err := chatID(chat)
	if err != nil {
		return err
	}
	coll, err := s.chats(ctx)
	if err != nil {
		sp.SetTag("error", err)
		return err
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	res, err := coll.UpdateOne(ctx,
		bson.M{"_id": id, "user_id": userID},
		bson.M{
			"$push": bson.M{"messages": m},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		sp.SetTag("error", err)
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
