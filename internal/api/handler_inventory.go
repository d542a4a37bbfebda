package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"hostel-backend/internal/inventory"
	"hostel-backend/internal/model"
	"hostel-backend/internal/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// CreateBlock handles POST /api/blocks.
func (h *Handler) CreateBlock(c *gin.Context) {
	var body blockBody
	if !bindJSON(c, &body) {
		return
	}
	block, err := h.inventory.CreateBlock(c.Request.Context(), inventory.BlockInput{
		Name:        body.Name,
		Description: body.Description,
		TotalFloors: body.TotalFloors,
		Type:        model.BlockType(body.Type),
		Status:      model.BlockStatus(body.Status),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, block)
}

// ListBlocks handles GET /api/blocks.
func (h *Handler) ListBlocks(c *gin.Context) {
	blocks, err := h.inventory.ListBlocks(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, blocks)
}

// DeleteBlock handles DELETE /api/blocks/:id.
func (h *Handler) DeleteBlock(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.inventory.DeleteBlock(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateRoom handles POST /api/rooms.
func (h *Handler) CreateRoom(c *gin.Context) {
	var body roomBody
	if !bindJSON(c, &body) {
		return
	}
	room, err := h.inventory.CreateRoom(c.Request.Context(), inventory.RoomInput{
		BlockID:          body.BlockID,
		Number:           body.Number,
		Floor:            body.Floor,
		Type:             model.RoomType(body.Type),
		Status:           model.RoomStatus(body.Status),
		AttachedBathroom: body.AttachedBathroom,
		AirConditioned:   body.AirConditioned,
		Balcony:          body.Balcony,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, room)
}

// GetRoom handles GET /api/rooms/:id.
func (h *Handler) GetRoom(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	room, err := h.inventory.GetRoom(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

// DeleteRoom handles DELETE /api/rooms/:id.
func (h *Handler) DeleteRoom(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.inventory.DeleteRoom(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SetRoomStatus handles PATCH /api/rooms/:id/status.
func (h *Handler) SetRoomStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var body roomStatusBody
	if !bindJSON(c, &body) {
		return
	}
	room, err := h.engine.SetRoomStatus(c.Request.Context(), id, model.RoomStatus(body.Status))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

// OccupancyStats handles GET /api/rooms/stats/occupancy.
func (h *Handler) OccupancyStats(c *gin.Context) {
	stats, err := h.inventory.OccupancyStats(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// OccupancyReport handles GET /api/rooms/stats/occupancy.xlsx.
func (h *Handler) OccupancyReport(c *gin.Context) {
	stats, err := h.inventory.OccupancyStats(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	now := time.Now().UTC()
	data, err := report.OccupancyXLSX(stats, now)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="occupancy-%s.xlsx"`, now.Format("20060102")))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// RunAudit handles GET /api/admin/audit. The check is read-only.
func (h *Handler) RunAudit(c *gin.Context) {
	if h.auditor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Audit is not configured"})
		return
	}
	report, err := h.auditor.Check(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
