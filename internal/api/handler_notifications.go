package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MyNotifications handles GET /api/notifications/me, newest first.
func (h *Handler) MyNotifications(c *gin.Context) {
	list, err := h.store.ListNotifications(c.Request.Context(), actor(c).ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// MarkNotificationRead handles POST /api/notifications/:id/read. Only the
// recipient may mark a notification.
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	n, err := h.store.MarkNotificationRead(c.Request.Context(), id, actor(c).ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}
