package repo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/tazhibayda/chat-service/internal/domain"
)

// UpsertUser replaces-or-inserts the full user record keyed by the
// external identity id. Redelivered user.created events land on the
// same document, so duplicates are harmless.
func (s *Store) UpsertUser(ctx context.Context, u *domain.User) error {
	sp, ctx := tracer.StartSpanFromContext(ctx, "mongo.users.upsert",
		tracer.Tag("user_id", u.ID),
	)
	defer sp.Finish()

	coll, err := s.users(ctx)
	if err != nil {
		sp.SetTag("error", err)
		return err
	}
	now := time.Now().UTC()
	_, err = coll.UpdateOne(ctx,
		bson.M{"_id": u.ID},
		bson.M{
			"$set":         bson.M{"email": u.Email, "name": u.Name, "image": u.Image, "updated_at": now},
			"$setOnInsert": bson.M{"created_at": now},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		sp.SetTag("error", err)
	}
	return err
}

// UpdateUser overwrites the mutable fields of an existing record.
// A missing document is not an error; the provider may deliver
// user.updated after user.deleted.
func (s *Store) UpdateUser(ctx context.Context, u *domain.User) error {
	sp, ctx := tracer.StartSpanFromContext(ctx, "mongo.users.update",
		tracer.Tag("user_id", u.ID),
	)
	defer sp.Finish()

	coll, err := s.users(ctx)
	if err != nil {
		sp.SetTag("error", err)
		return err
	}
	_, err = coll.UpdateOne(ctx,
		bson.M{"_id": u.ID},
		bson.M{"$set": bson.M{"email": u.Email, "name": u.Name, "image": u.Image, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		sp.SetTag("error", err)
	}
	return err
}

// DeleteUser removes the record by external id. Already-deleted is a
// valid terminal state and reports no error.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	sp, ctx := tracer.StartSpanFromContext(ctx, "mongo.users.delete",
		tracer.Tag("user_id", id),
	)
	defer sp.Finish()

	coll, err := s.users(ctx)
	if err != nil {
		sp.SetTag("error", err)
		return err
	}
	_, err = coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		sp.SetTag("error", err)
	}
	return err
}

func (s *Store) FindUserByID(ctx context.Context, id string) (*domain.User, error) {
	coll, err := s.users(ctx)
	if err != nil {
		return nil, err
	}
	var u domain.User
	err = coll.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &u, err
}
