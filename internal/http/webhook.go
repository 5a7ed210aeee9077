package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tazhibayda/chat-service/internal/domain"
	"github.com/tazhibayda/chat-service/internal/log"
	"github.com/tazhibayda/chat-service/internal/metrics"
	"github.com/tazhibayda/chat-service/internal/queue"
	"github.com/tazhibayda/chat-service/internal/security"
)

// Identity webhook payload. The provider delivers a loosely typed
// envelope; only the fields the handler needs are decoded, everything
// else is ignored so forward-compatible event types pass through.
type webhookEvent struct {
	Type string          `json:"type"`
	Data webhookUserData `json:"data"`
}

type webhookUserData struct {
	ID                    string         `json:"id"`
	EmailAddresses        []emailAddress `json:"email_addresses"`
	PrimaryEmailAddressID string         `json:"primary_email_address_id"`
	FirstName             *string        `json:"first_name"`
	LastName              *string        `json:"last_name"`
	ImageURL              string         `json:"image_url"`
}

type emailAddress struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
}

// resolveEmail picks the address matching the declared primary id and
// falls back to the first address in the list. Empty means the payload
// carried no usable address at all.
func resolveEmail(d webhookUserData) string {
	for _, e := range d.EmailAddresses {
		if e.ID != "" && e.ID == d.PrimaryEmailAddressID {
			return e.EmailAddress
		}
	}
	if len(d.EmailAddresses) > 0 {
		return d.EmailAddresses[0].EmailAddress
	}
	return ""
}

// resolveName joins the trimmed name parts; a user with neither part
// gets the fixed placeholder.
func resolveName(first, last *string) string {
	var fn, ln string
	if first != nil {
		fn = strings.TrimSpace(*first)
	}
	if last != nil {
		ln = strings.TrimSpace(*last)
	}
	name := strings.TrimSpace(fn + " " + ln)
	if name == "" {
		return "Unnamed User"
	}
	return name
}

// ClerkWebhook godoc
// @Summary Identity provider webhook (svix-signed)
// @Tags identity
// @Accept json
// @Produce json
// @Param svix-id header string true "message id"
// @Param svix-timestamp header string true "unix timestamp"
// @Param svix-signature header string true "v1 signature list"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Failure 500 {object} map[string]any
// @Router /api/clerk/webhook [post]
func (h *Handler) ClerkWebhook(c *gin.Context) {
	ctx := c.Request.Context()
	logger := log.WithDD(ctx, log.L())

	if h.SigningSecret == "" {
		logger.Error("SIGNING_SECRET environment variable not set")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal Server Configuration Error"})
		return
	}

	svixID := c.GetHeader("svix-id")
	svixTimestamp := c.GetHeader("svix-timestamp")
	svixSignature := c.GetHeader("svix-signature")
	if svixID == "" || svixTimestamp == "" || svixSignature == "" {
		logger.Warn("webhook rejected: missing svix headers")
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Missing required headers"})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
		return
	}
	var evt webhookEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		logger.Warn("webhook rejected: body is not JSON", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
		return
	}

	verifier, err := security.NewWebhookVerifier(h.SigningSecret)
	if err != nil {
		// a malformed secret is a deployment problem, not a client one
		logger.Error("webhook verifier init failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal Server Configuration Error"})
		return
	}
	if err := verifier.Verify(body, svixID, svixTimestamp, svixSignature); err != nil {
		logger.Warn("webhook signature verification failed", zap.Error(err), zap.String("svix_id", svixID))
		// evt.Type is attacker-controlled until the signature checks
		// out; a fixed label keeps the series set bounded
		metrics.WebhookEvents.WithLabelValues("unverified", "rejected").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	email := resolveEmail(evt.Data)
	if email == "" && (evt.Type == "user.created" || evt.Type == "user.updated") {
		logger.Warn("webhook rejected: no resolvable email",
			zap.String("user_id", evt.Data.ID), zap.String("type", evt.Type))
		metrics.WebhookEvents.WithLabelValues(evt.Type, "rejected").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "User email is required but not found."})
		return
	}

	user := &domain.User{
		ID:    evt.Data.ID,
		Email: email,
		Name:  resolveName(evt.Data.FirstName, evt.Data.LastName),
		Image: evt.Data.ImageURL,
	}
	reqID := c.GetString(requestIDKey)

	var storeErr error
	WithSpan(ctx, "webhook.dispatch", func(ctx context.Context) {
		switch evt.Type {
		case "user.created":
			// upsert keeps duplicate delivery idempotent
			storeErr = h.Users.UpsertUser(ctx, user)
			if storeErr == nil {
				go h.publish(evt.Type, queue.UserSynced{UserID: user.ID, Email: user.Email, Name: user.Name}, reqID)
			}
		case "user.updated":
			if user.Email == "" {
				storeErr = errEmailMissing
				return
			}
			storeErr = h.Users.UpdateUser(ctx, user)
			if storeErr == nil {
				go h.publish(evt.Type, queue.UserSynced{UserID: user.ID, Email: user.Email, Name: user.Name}, reqID)
			}
		case "user.deleted":
			// already-deleted is a valid terminal state
			storeErr = h.Users.DeleteUser(ctx, evt.Data.ID)
			if storeErr == nil {
				go h.publish(evt.Type, queue.UserDeleted{UserID: evt.Data.ID}, reqID)
			}
		default:
			logger.Info("webhook: unhandled event type", zap.String("type", evt.Type))
		}
	})
	if storeErr != nil {
		logger.Error("webhook store operation failed",
			zap.String("type", evt.Type), zap.String("user_id", evt.Data.ID), zap.Error(storeErr))
		metrics.WebhookEvents.WithLabelValues(evt.Type, "error").Inc()
		// non-2xx makes the provider redeliver; that is the only retry path
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Database operation failed."})
		return
	}

	metrics.WebhookEvents.WithLabelValues(evt.Type, "ok").Inc()
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Webhook processed successfully."})
}

var errEmailMissing = errors.New("email is missing for user update")

func (h *Handler) publish(eventType string, event any, reqID string) {
	if err := h.Events.Publish(context.Background(), queue.Exchange, eventType, event, reqID); err != nil {
		log.L().Warn("event publish failed", zap.String("type", eventType), zap.Error(err))
	}
}
