package domain

import "time"

// User mirrors an account owned by the external identity provider.
// The provider's user id is the primary key, so webhook redelivery
// upserts into the same document.
type User struct {
	ID        string    `bson:"_id"             json:"id"`
	Email     string    `bson:"email"           json:"email"`
	Name      string    `bson:"name"            json:"name"`
	Image     string    `bson:"image,omitempty" json:"image,omitempty"`
	CreatedAt time.Time `bson:"created_at"      json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"      json:"updated_at"`
}
