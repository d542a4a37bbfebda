package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"hostel-backend/internal/allocation"
	"hostel-backend/internal/audit"
	"hostel-backend/internal/auth"
	"hostel-backend/internal/inventory"
	"hostel-backend/internal/lifecycle"
	"hostel-backend/internal/model"
	"hostel-backend/internal/mw"
	"hostel-backend/internal/store"
)

// Deps is everything the router needs. Auditor, Limiter, Gatherer and WebPush are optional.
type Deps struct {
	Store     store.Store
	Engine    *allocation.Engine
	Manager   *lifecycle.Manager
	Inventory *inventory.Service
	Tokens    *auth.Tokens
	WebPush   *webpush.Options
	Log       *zap.Logger
	Auditor   *audit.Service

	Limiter     *mw.IPRateLimiter
	Gatherer    prometheus.Gatherer
	CORSOrigins []string
	CacheTTL    time.Duration
}

// NewRouter creates and configures a new Gin router.
func NewRouter(d Deps) *gin.Engine {
	handler := NewHandler(d)

	r := gin.New()
	r.Use(mw.RequestID(), mw.AccessLog(handler.log), gin.Recovery())
	if len(d.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     d.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", mw.RequestIDHeader},
			ExposeHeaders:    []string{mw.RequestIDHeader, "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	ttl := d.CacheTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	caching := mw.Cache(cache.New(ttl, 2*ttl), ttl, func(c *gin.Context) string {
		return fmt.Sprintf("%d|%s", actor(c).ID, c.Request.URL.RequestURI())
	})

	staff := auth.RequireRole(model.RoleAdmin, model.RoleWarden)
	admin := auth.RequireRole(model.RoleAdmin)
	resident := auth.RequireRole(model.RoleResident)

	api := r.Group("/api")
	if d.Limiter != nil {
		api.Use(mw.RateLimit(d.Limiter))
	}
	api.POST("/auth/login", handler.Login)
	// The audit reads live counters and is never served from cache.
	api.GET("/admin/audit", auth.Authenticate(d.Tokens), admin, handler.RunAudit)

	authed := api.Group("")
	authed.Use(auth.Authenticate(d.Tokens), caching)
	{
		authed.POST("/users", admin, handler.CreateUser)

		alloc := authed.Group("/allocation")
		alloc.POST("/assign", staff, handler.Assign)
		alloc.POST("/unassign", staff, handler.Unassign)
		alloc.POST("/move", staff, handler.Move)
		alloc.GET("/available", auth.RequireRole(model.RoleAdmin, model.RoleWarden, model.RoleResident), handler.AvailableRooms)
		alloc.GET("/unassigned-residents", staff, handler.UnassignedResidents)
		alloc.GET("/rooms/:id/occupants", staff, handler.RoomOccupants)
		alloc.GET("/my-room", resident, handler.MyRoom)

		areq := authed.Group("/allocation-requests")
		areq.POST("", resident, handler.CreateAllocationRequest)
		areq.GET("", staff, handler.ListAllocationRequests)
		areq.GET("/mine", handler.MyAllocationRequests)
		areq.POST("/:id/decision", staff, handler.DecideAllocationRequest)

		rc := authed.Group("/room-changes")
		rc.POST("", resident, handler.CreateRoomChangeRequest)
		rc.GET("", staff, handler.ListRoomChangeRequests)
		rc.GET("/mine", handler.MyRoomChangeRequests)
		rc.POST("/:id/decision", staff, handler.DecideRoomChangeRequest)

		authed.GET("/notifications/me", handler.MyNotifications)
		authed.POST("/notifications/:id/read", handler.MarkNotificationRead)

		authed.PUT("/subscriptions", handler.PutSubscription)
		authed.DELETE("/subscriptions", handler.DeleteSubscription)
		authed.GET("/vapid_public_key", handler.GetVAPIDPublicKey)

		authed.POST("/blocks", admin, handler.CreateBlock)
		authed.GET("/blocks", staff, handler.ListBlocks)
		authed.DELETE("/blocks/:id", admin, handler.DeleteBlock)

		authed.POST("/rooms", staff, handler.CreateRoom)
		authed.GET("/rooms/stats/occupancy", staff, handler.OccupancyStats)
		authed.GET("/rooms/stats/occupancy.xlsx", staff, handler.OccupancyReport)
		authed.GET("/rooms/:id", handler.GetRoom)
		authed.DELETE("/rooms/:id", staff, handler.DeleteRoom)
		authed.PATCH("/rooms/:id/status", staff, handler.SetRoomStatus)
	}

	return r
}
