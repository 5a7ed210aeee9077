package http_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tazhibayda/chat-service/internal/domain"
	api "github.com/tazhibayda/chat-service/internal/http"
	"github.com/tazhibayda/chat-service/internal/queue"
	"github.com/tazhibayda/chat-service/internal/repo"
	"github.com/tazhibayda/chat-service/internal/security"
)

const testJWTSecret = "test-jwt-secret"

var errTest = errors.New("mongo unavailable")

// fakeStore is an in-memory stand-in for *repo.Store with the same
// owner-scoping semantics.
type fakeStore struct {
	mu         sync.Mutex
	users      map[string]domain.User
	chats      map[string]domain.Chat
	userWrites int
	failWith   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users: make(map[string]domain.User),
		chats: make(map[string]domain.Chat),
	}
}

func (f *fakeStore) Ping(ctx context.Context) error { return f.failWith }

func (f *fakeStore) UpsertUser(ctx context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.userWrites++
	f.users[u.ID] = *u
	return nil
}

func (f *fakeStore) UpdateUser(ctx context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.userWrites++
	if _, ok := f.users[u.ID]; ok {
		f.users[u.ID] = *u
	}
	return nil
}

func (f *fakeStore) DeleteUser(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.userWrites++
	delete(f.users, id)
	return nil
}

func (f *fakeStore) CreateChat(ctx context.Context, c *domain.Chat) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	c.ID = primitive.NewObjectID()
	c.CreatedAt = time.Now().UTC()
	f.chats[c.ID.Hex()] = *c
	return nil
}

func (f *fakeStore) ListChatsByOwner(ctx context.Context, userID string) ([]domain.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := []domain.Chat{}
	for _, c := range f.chats {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) RenameChat(ctx context.Context, chatID, userID, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	if c, ok := f.chats[chatID]; ok && c.UserID == userID {
		c.Name = name
		f.chats[chatID] = c
	}
	return nil
}

func (f *fakeStore) DeleteChat(ctx context.Context, chatID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	if c, ok := f.chats[chatID]; ok && c.UserID == userID {
		delete(f.chats, chatID)
	}
	return nil
}

func (f *fakeStore) AppendMessage(ctx context.Context, chatID, userID string, m domain.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	c, ok := f.chats[chatID]
	if !ok || c.UserID != userID {
		return repo.ErrNotFound
	}
	c.Messages = append(c.Messages, m)
	f.chats[chatID] = c
	return nil
}

type testEnv struct {
	Store         *fakeStore
	Router        *gin.Engine
	SigningSecret string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fs := newFakeStore()
	secret := "whsec_" + base64.StdEncoding.EncodeToString([]byte("webhook-test-key-0123456789ab"))
	h := &api.Handler{
		Users:         fs,
		Chats:         fs,
		DB:            fs,
		SigningSecret: secret,
		Events:        queue.NewNoop(),
	}
	r := api.NewRouter(h, testJWTSecret, nil, 0)
	return &testEnv{Store: fs, Router: r, SigningSecret: secret}
}

func (e *testEnv) do(t *testing.T, method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	e.Router.ServeHTTP(w, req)
	return w
}

// svixHeaders signs body with the env's webhook secret.
func (e *testEnv) svixHeaders(t *testing.T, msgID, body string) map[string]string {
	t.Helper()
	v, err := security.NewWebhookVerifier(e.SigningSecret)
	if err != nil {
		t.Fatalf("verifier: %v", err)
	}
	now := time.Now()
	return map[string]string{
		"svix-id":        msgID,
		"svix-timestamp": strconv.FormatInt(now.Unix(), 10),
		"svix-signature": v.Sign(msgID, now, []byte(body)),
	}
}

func (e *testEnv) bearer(t *testing.T, uid string) map[string]string {
	t.Helper()
	tok, err := security.MakeAccess(testJWTSecret, uid, uid+"@example.com", time.Minute)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return map[string]string{"Authorization": "Bearer " + tok}
}
