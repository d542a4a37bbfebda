package api

import (
	"net/http"
	"strconv"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hostel-backend/internal/allocation"
	"hostel-backend/internal/audit"
	"hostel-backend/internal/auth"
	"hostel-backend/internal/inventory"
	"hostel-backend/internal/lifecycle"
	"hostel-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store     store.Store
	engine    *allocation.Engine
	manager   *lifecycle.Manager
	inventory *inventory.Service
	auditor   *audit.Service
	tokens    *auth.Tokens
	webpush   *webpush.Options
	log       *zap.Logger
}

// NewHandler creates a new API handler.
func NewHandler(d Deps) *Handler {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		store:     d.Store,
		engine:    d.Engine,
		manager:   d.Manager,
		inventory: d.Inventory,
		auditor:   d.Auditor,
		tokens:    d.Tokens,
		webpush:   d.WebPush,
		log:       log,
	}
}

// actor returns the authenticated caller. Routes are mounted behind
// auth.Authenticate, so a missing actor means a wiring bug.
func actor(c *gin.Context) auth.Actor {
	a, _ := auth.ActorFrom(c)
	return a
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return false
	}
	return true
}
