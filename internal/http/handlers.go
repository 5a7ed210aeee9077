package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tazhibayda/chat-service/internal/domain"
	"github.com/tazhibayda/chat-service/internal/log"
	"github.com/tazhibayda/chat-service/internal/queue"
)

// Store interfaces keep the handlers testable without a live Mongo;
// *repo.Store satisfies all of them.

type UserStore interface {
	UpsertUser(ctx context.Context, u *domain.User) error
	UpdateUser(ctx context.Context, u *domain.User) error
	DeleteUser(ctx context.Context, id string) error
}

type ChatStore interface {
	CreateChat(ctx context.Context, c *domain.Chat) error
	ListChatsByOwner(ctx context.Context, userID string) ([]domain.Chat, error)
	RenameChat(ctx context.Context, chatID, userID, name string) error
	DeleteChat(ctx context.Context, chatID, userID string) error
	AppendMessage(ctx context.Context, chatID, userID string, m domain.Message) error
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	Users         UserStore
	Chats         ChatStore
	DB            Pinger
	SigningSecret string
	Events        queue.Publisher
}

type fullStore interface {
	UserStore
	ChatStore
	Pinger
}

func NewHandler(store fullStore, signingSecret string, pub queue.Publisher) *Handler {
	if pub == nil {
		pub = queue.NewNoop()
	}
	return &Handler{
		Users:         store,
		Chats:         store,
		DB:            store,
		SigningSecret: signingSecret,
		Events:        pub,
	}
}

// The chat API keeps the response contract of the original frontend:
// unauthenticated and failed calls still answer HTTP 200, with success
// false and the reason in the body.

func unauthenticated(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": false, "message": "User not authenticated"})
}

func failure(c *gin.Context, err error) {
	log.WithDD(c.Request.Context(), log.L()).Warn("chat store operation failed",
		zap.Error(err),
	)
	c.JSON(http.StatusOK, gin.H{"success": false, "error": err.Error()})
}

// CreateChat godoc
// @Summary Create an empty chat for the authenticated user
// @Tags chat
// @Security BearerAuth
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/chat/create [post]
func (h *Handler) CreateChat(c *gin.Context) {
	uid := c.GetString(authUserKey)
	if uid == "" {
		unauthenticated(c)
		return
	}
	chat := &domain.Chat{
		UserID:   uid,
		Name:     domain.DefaultChatName,
		Messages: []domain.Message{},
	}
	if err := h.Chats.CreateChat(c.Request.Context(), chat); err != nil {
		failure(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Chat created successfully"})
}

// GetChats godoc
// @Summary List chats owned by the authenticated user
// @Tags chat
// @Security BearerAuth
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/chat/get [get]
func (h *Handler) GetChats(c *gin.Context) {
	uid := c.GetString(authUserKey)
	if uid == "" {
		unauthenticated(c)
		return
	}
	data, err := h.Chats.ListChatsByOwner(c.Request.Context(), uid)
	if err != nil {
		failure(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

type renameReq struct {
	ChatID string `json:"chatId"`
	Name   string `json:"name"`
}

// RenameChat godoc
// @Summary Rename an owned chat
// @Tags chat
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body renameReq true "chatId, name"
// @Success 200 {object} map[string]any
// @Router /api/chat/rename [post]
func (h *Handler) RenameChat(c *gin.Context) {
	uid := c.GetString(authUserKey)
	if uid == "" {
		unauthenticated(c)
		return
	}
	var in renameReq
	if err := c.ShouldBindJSON(&in); err != nil {
		failure(c, err)
		return
	}
	if err := h.Chats.RenameChat(c.Request.Context(), in.ChatID, uid, strings.TrimSpace(in.Name)); err != nil {
		failure(c, err)
		return
	}
	// a non-owned chatId matches nothing and falls through as success
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Chat Renamed"})
}

type deleteReq struct {
	ChatID string `json:"chatId"`
}

// DeleteChat godoc
// @Summary Delete an owned chat
// @Tags chat
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body deleteReq true "chatId"
// @Success 200 {object} map[string]any
// @Router /api/chat/delete [post]
func (h *Handler) DeleteChat(c *gin.Context) {
	uid := c.GetString(authUserKey)
	if uid == "" {
		unauthenticated(c)
		return
	}
	var in deleteReq
	if err := c.ShouldBindJSON(&in); err != nil {
		failure(c, err)
		return
	}
	if err := h.Chats.DeleteChat(c.Request.Context(), in.ChatID, uid); err != nil {
		failure(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Chat deleted successfully"})
}

type messageReq struct {
	ChatID  string `json:"chatId"`
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AppendMessage godoc
// @Summary Append a message to an owned chat
// @Tags chat
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body messageReq true "chatId, role(optional), content"
// @Success 200 {object} map[string]any
// @Router /api/chat/message [post]
func (h *Handler) AppendMessage(c *gin.Context) {
	uid := c.GetString(authUserKey)
	if uid == "" {
		unauthenticated(c)
		return
	}
	var in messageReq
	if err := c.ShouldBindJSON(&in); err != nil {
		failure(c, err)
		return
	}
	if strings.TrimSpace(in.Content) == "" {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": "content required"})
		return
	}
	role := in.Role
	if role == "" {
		role = "user"
	}
	m := domain.Message{Role: role, Content: in.Content}
	if err := h.Chats.AppendMessage(c.Request.Context(), in.ChatID, uid, m); err != nil {
		failure(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Message added"})
}

// Healthz godoc
// @Summary Liveness and store reachability
// @Tags ops
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /healthz [get]
func (h *Handler) Healthz(c *gin.Context) {
	if err := h.DB.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
