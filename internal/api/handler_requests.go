package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hostel-backend/internal/lifecycle"
	"hostel-backend/internal/model"
)

// CreateAllocationRequest handles POST /api/allocation-requests.
func (h *Handler) CreateAllocationRequest(c *gin.Context) {
	var body allocationRequestBody
	if !bindJSON(c, &body) {
		return
	}
	req, err := h.manager.CreateAllocationRequest(c.Request.Context(), actor(c).ID, lifecycle.AllocationInput{
		Reason:          body.Reason,
		PreferredType:   model.RoomType(body.PreferredType),
		PreferredRoomID: body.PreferredRoomID,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

// ListAllocationRequests handles GET /api/allocation-requests.
func (h *Handler) ListAllocationRequests(c *gin.Context) {
	h.listAllocationRequests(c, 0)
}

// MyAllocationRequests handles GET /api/allocation-requests/mine.
func (h *Handler) MyAllocationRequests(c *gin.Context) {
	h.listAllocationRequests(c, actor(c).ID)
}

func (h *Handler) listAllocationRequests(c *gin.Context, residentID int64) {
	reqs, err := h.manager.ListAllocationRequests(c.Request.Context(), residentID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, reqs)
}

// DecideAllocationRequest handles POST /api/allocation-requests/:id/decision.
func (h *Handler) DecideAllocationRequest(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var body decisionBody
	if !bindJSON(c, &body) {
		return
	}
	req, err := h.manager.DecideAllocation(c.Request.Context(), id, decisionFrom(body), actor(c).ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// CreateRoomChangeRequest handles POST /api/room-changes.
func (h *Handler) CreateRoomChangeRequest(c *gin.Context) {
	var body roomChangeRequestBody
	if !bindJSON(c, &body) {
		return
	}
	req, err := h.manager.CreateRoomChangeRequest(c.Request.Context(), actor(c).ID, lifecycle.RoomChangeInput{
		ToRoomNumber: body.ToRoomNumber,
		Reason:       body.Reason,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

// ListRoomChangeRequests handles GET /api/room-changes.
func (h *Handler) ListRoomChangeRequests(c *gin.Context) {
	h.listRoomChangeRequests(c, 0)
}

// MyRoomChangeRequests handles GET /api/room-changes/mine.
func (h *Handler) MyRoomChangeRequests(c *gin.Context) {
	h.listRoomChangeRequests(c, actor(c).ID)
}

func (h *Handler) listRoomChangeRequests(c *gin.Context, residentID int64) {
	reqs, err := h.manager.ListRoomChangeRequests(c.Request.Context(), residentID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, reqs)
}

// DecideRoomChangeRequest handles POST /api/room-changes/:id/decision.
func (h *Handler) DecideRoomChangeRequest(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var body decisionBody
	if !bindJSON(c, &body) {
		return
	}
	req, err := h.manager.DecideRoomChange(c.Request.Context(), id, decisionFrom(body), actor(c).ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func decisionFrom(body decisionBody) lifecycle.Decision {
	return lifecycle.Decision{
		Status: model.RequestStatus(body.Status),
		RoomID: body.RoomID,
		Note:   body.Note,
	}
}
