package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hostel-backend/internal/model"
)

// Assign handles POST /api/allocation/assign.
func (h *Handler) Assign(c *gin.Context) {
	var req assignRequest
	if !bindJSON(c, &req) {
		return
	}
	room, err := h.engine.Assign(c.Request.Context(), req.UserID, req.RoomID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": room})
}

// Unassign handles POST /api/allocation/unassign.
func (h *Handler) Unassign(c *gin.Context) {
	var req unassignRequest
	if !bindJSON(c, &req) {
		return
	}
	room, err := h.engine.Unassign(c.Request.Context(), req.UserID, req.RoomID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": room})
}

// Move handles POST /api/allocation/move.
func (h *Handler) Move(c *gin.Context) {
	var req moveRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.engine.Move(c.Request.Context(), req.UserID, req.ToRoomID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// AvailableRooms handles GET /api/allocation/available.
func (h *Handler) AvailableRooms(c *gin.Context) {
	var q availableQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	rooms, err := h.inventory.AvailableRooms(c.Request.Context(), model.RoomType(q.Type), q.BlockID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rooms)
}

// UnassignedResidents handles GET /api/allocation/unassigned-residents.
func (h *Handler) UnassignedResidents(c *gin.Context) {
	var q residentsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	users, err := h.inventory.UnassignedResidents(c.Request.Context(), q.Q, q.Limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// RoomOccupants handles GET /api/allocation/rooms/:id/occupants.
func (h *Handler) RoomOccupants(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	users, err := h.inventory.Occupants(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// MyRoom handles GET /api/allocation/my-room. The room is null when the
// caller has none.
func (h *Handler) MyRoom(c *gin.Context) {
	room, err := h.inventory.MyRoom(c.Request.Context(), actor(c).ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": room})
}
