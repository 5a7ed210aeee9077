package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultChatName is assigned to every chat at creation.
const DefaultChatName = "New Chat"

type Message struct {
	Role      string    `bson:"role"      json:"role"` // "user" | "assistant"
	Content   string    `bson:"content"   json:"content"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

type Chat struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    string             `bson:"user_id"       json:"user_id"` // external identity id of the owner
	Name      string             `bson:"name"          json:"name"`
	Messages  []Message          `bson:"messages"      json:"messages"`
	CreatedAt time.Time          `bson:"created_at"    json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"    json:"updated_at"`
}
