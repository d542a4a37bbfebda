package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"hostel-backend/internal/model"
	"hostel-backend/internal/store"
)

// PutSubscription registers the caller's browser for push delivery. An
// existing endpoint is taken over by the caller.
func (h *Handler) PutSubscription(c *gin.Context) {
	var req subscriptionBody
	if !bindJSON(c, &req) {
		return
	}

	sub := model.PushSubscription{
		Endpoint: req.Endpoint,
		UserID:   actor(c).ID,
		P256DH:   req.P256DH,
		Auth:     req.Auth,
	}
	if err := h.store.SaveSubscription(c.Request.Context(), &sub); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

// DeleteSubscription handles the deletion of one of the caller's subscriptions.
func (h *Handler) DeleteSubscription(c *gin.Context) {
	var req deleteSubscriptionBody
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	sub, err := h.store.FindSubscription(ctx, req.Endpoint)
	if errors.Is(err, store.ErrNotFound) {
		c.Status(http.StatusNoContent)
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	if sub.UserID != actor(c).ID {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}
	if err := h.store.DeleteSubscription(ctx, req.Endpoint); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetVAPIDPublicKey returns the VAPID public key to the client.
func (h *Handler) GetVAPIDPublicKey(c *gin.Context) {
	if h.webpush == nil || h.webpush.VAPIDPublicKey == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Push notifications are not configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"publicKey": h.webpush.VAPIDPublicKey})
}
