package repo

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/singleflight"
)

// ErrNoMongoURI is a configuration error: MONGO_URI was never set.
var ErrNoMongoURI = errors.New("MONGO_URI is not configured")

// Store owns a lazily established Mongo connection. The first caller
// dials; concurrent callers share the in-flight attempt through the
// singleflight group. A failed attempt leaves the handle unset, so the
// next caller dials again instead of being wedged on a dead promise.
type Store struct {
	uri    string
	dbname string

	mu     sync.RWMutex
	client *mongo.Client
	db     *mongo.Database

	dial singleflight.Group
}

func NewStore(uri, dbname string) *Store {
	return &Store{uri: uri, dbname: dbname}
}

func (s *Store) database(ctx context.Context) (*mongo.Database, error) {
	s.mu.RLock()
	if db := s.db; db != nil {
		s.mu.RUnlock()
		return db, nil
	}
	s.mu.RUnlock()

	v, err, _ := s.dial.Do("connect", s.connect)
	if err != nil {
		return nil, err
	}
	return v.(*mongo.Database), nil
}

func (s *Store) connect() (interface{}, error) {
	// a previous flight may have finished between the caller's fast-path
	// check and entering the group; dialing again here would leak the
	// first client
	s.mu.RLock()
	if db := s.db; db != nil {
		s.mu.RUnlock()
		return db, nil
	}
	s.mu.RUnlock()

	if s.uri == "" {
		return nil, ErrNoMongoURI
	}
	dctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	cli, err := mongo.Connect(dctx, options.Client().
		ApplyURI(s.uri).
		SetRetryWrites(true).
		SetMaxPoolSize(50),
	)
	if err != nil {
		return nil, err
	}
	if err := cli.Ping(dctx, nil); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, err
	}
	db := cli.Database(s.dbname)
	s.mu.Lock()
	s.client = cli
	s.db = db
	s.mu.Unlock()
	return db, nil
}

func (s *Store) users(ctx context.Context) (*mongo.Collection, error) {
	db, err := s.database(ctx)
	if err != nil {
		return nil, err
	}
	return db.Collection("users"), nil
}

func (s *Store) chats(ctx context.Context) (*mongo.Collection, error) {
	db, err := s.database(ctx)
	if err != nil {
		return nil, err
	}
	return db.Collection("chats"), nil
}

func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.database(ctx); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	s.mu.RLock()
	cli := s.client
	s.mu.RUnlock()
	return cli.Ping(ctx, nil)
}

func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	cli := s.client
	s.client, s.db = nil, nil
	s.mu.Unlock()
	if cli == nil {
		return nil
	}
	return cli.Disconnect(ctx)
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	coll, err := s.chats(ctx)
	if err != nil {
		return err
	}
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
		Options: options.Index().SetName("owner_created_desc"),
	})
	return err
}

func IsDup(err error) bool {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce *mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	return false
}
