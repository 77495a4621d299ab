package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/pawsnest/backend/internal/middleware"
	"github.com/pawsnest/backend/internal/models"
	"github.com/pawsnest/backend/internal/realtime"
	"github.com/pawsnest/backend/internal/service"
	"go.uber.org/zap"
)

// HealthCheck reports whether one backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Deps is everything the HTTP surface needs. main builds it once.
type Deps struct {
	Identity      *service.IdentityService
	Catalog       *service.CatalogService
	Bookings      *service.BookingService
	Adoption      *service.AdoptionService
	Notifications *service.NotificationService
	Feedback      *service.FeedbackService
	Chat          *service.ChatService
	Hub           *realtime.Hub

	JWTSecret   string
	CORSOrigins []string
	AuthLimiter *middleware.IPRateLimiter
	Checks      map[string]HealthCheck

	// BaseCtx bounds long-lived WebSocket connections.
	BaseCtx context.Context
	Logger  *zap.Logger
}

func NewRouter(d Deps) *gin.Engine {
	RegisterValidators()

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(d.Logger))
	r.Use(cors.New(corsConfig(d.CORSOrigins)))

	authH := NewAuthHandler(d.Identity, d.Logger)
	adminH := NewAdminHandler(d.Identity, d.Logger)
	petH := NewPetHandler(d.Catalog, d.Logger)
	bookingH := NewBookingHandler(d.Bookings, d.Logger)
	adoptionH := NewAdoptionHandler(d.Adoption, d.Logger)
	notifH := NewNotificationHandler(d.Notifications, d.Logger)
	feedbackH := NewFeedbackHandler(d.Feedback, d.Logger)
	chatH := NewChatHandler(d.Chat, d.Logger)

	baseCtx := d.BaseCtx
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	wsH := NewWSHandler(baseCtx, d.Chat, d.Hub, d.JWTSecret, d.CORSOrigins, d.Logger)

	// Public.
	r.GET("/v1/health", healthHandler(d.Checks))
	r.GET("/v1/owners", adminH.ApprovedOwners)

	public := r.Group("/v1/auth")
	if d.AuthLimiter != nil {
		public.Use(middleware.RateLimitByIP(d.AuthLimiter))
	}
	public.POST("/register", authH.Register)
	public.POST("/login", authH.Login)
	public.POST("/password-reset", authH.PasswordReset)
	public.POST("/password-reset-confirm", authH.PasswordResetConfirm)

	// The WebSocket handshake authenticates itself (token may be in the
	// query string), so it sits outside the AuthMiddleware group.
	r.GET("/ws/chat/:room_id", wsH.Chat)

	v1 := r.Group("/v1")
	v1.Use(middleware.AuthMiddleware(d.JWTSecret))

	v1.GET("/auth/me", authH.Me)
	v1.GET("/auth/profile", authH.Me)
	v1.PATCH("/auth/profile", authH.UpdateProfile)

	admin := v1.Group("/admin", middleware.RequireRole(models.RoleAdmin))
	admin.GET("/pending-owners", adminH.PendingOwners)
	admin.GET("/owners", adminH.Owners)
	admin.PATCH("/owners/:id/approve", adminH.ApproveOwner)
	admin.DELETE("/owners/:id", adminH.DeleteOwner)

	v1.GET("/pets", petH.List)
	v1.POST("/pets", petH.Create)
	v1.GET("/pets/:id", petH.Get)
	v1.PUT("/pets/:id", petH.Replace)
	v1.PATCH("/pets/:id", petH.Patch)
	v1.DELETE("/pets/:id", petH.Delete)

	for _, kind := range models.BookingKinds {
		g := v1.Group("/" + string(kind) + "-bookings")
		g.GET("", bookingH.List(kind))
		g.POST("", bookingH.Create(kind))
		g.GET("/:id", bookingH.Get(kind))
	}
	v1.POST("/email/send-booking", bookingH.SendEmail)

	v1.GET("/adoption-requests", adoptionH.List)
	v1.POST("/adoption-requests", adoptionH.Create)
	v1.POST("/adoption-requests/:id/respond", adoptionH.Respond)

	v1.GET("/notifications", notifH.List)
	v1.POST("/notifications/read-all", notifH.MarkAllRead)
	v1.POST("/notifications/:id/read", notifH.MarkRead)

	v1.GET("/feedbacks", feedbackH.List)
	v1.POST("/feedbacks", feedbackH.Create)
	v1.POST("/feedbacks/:id/reply", feedbackH.Reply)

	v1.GET("/chatrooms", chatH.ListRooms)
	v1.POST("/chatrooms", chatH.OpenRoom)
	v1.GET("/chatrooms/:id", chatH.GetRoom)
	v1.GET("/chatrooms/:id/messages", chatH.ListMessages)
	v1.POST("/chatrooms/:id/messages", chatH.PostMessage)
	v1.POST("/chatrooms/:id/read", chatH.MarkRead)

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

// healthHandler runs every check with a short deadline. Any failure
// turns the whole response into 503 so load balancers stop routing here.
func healthHandler(checks map[string]HealthCheck) gin.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := gin.H{}
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				results[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}

		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}
		c.JSON(status, gin.H{"status": overall, "checks": results})
	}
}
