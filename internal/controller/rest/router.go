package rest

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Freeeeeet/tutor_scheduler/internal/service"
)

type Options struct {
	AllowedOrigins     []string
	RateLimitPerMinute int
	Production         bool
	// TrustedProxies только от них принимаются X-Forwarded-For и X-Real-IP
	TrustedProxies []string
	// PaymentSecret общий секрет платёжного шлюза, пустой отключает callback
	PaymentSecret string
}

// Handler тонкий HTTP-слой над сервисами, вся логика в service
type Handler struct {
	scheduling *service.SchedulingService
	recurring  *service.RecurringService
	logger     *zap.Logger
}

func NewHandler(scheduling *service.SchedulingService, recurring *service.RecurringService, logger *zap.Logger) *Handler {
	return &Handler{scheduling: scheduling, recurring: recurring, logger: logger}
}

// NewRouter собирает gin.Engine со всеми маршрутами
func NewRouter(h *Handler, opts Options) (*gin.Engine, error) {
	if opts.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if err := r.SetTrustedProxies(opts.TrustedProxies); err != nil {
		return nil, fmt.Errorf("set trusted proxies: %w", err)
	}
	r.Use(gin.Recovery())
	r.Use(requestLogger(h.logger))
	r.Use(cors.New(corsConfig(opts.AllowedOrigins)))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.Use(actorMiddleware())

	teachers := api.Group("/teachers/:teacherID")
	{
		teachers.GET("/availability", h.listAvailability)
		teachers.POST("/availability", h.createSlot)
		teachers.PUT("/availability/:slotID", h.updateSlot)
		teachers.DELETE("/availability/:slotID", h.deleteSlot)

		teachers.POST("/recurring", h.createRecurring)
		teachers.DELETE("/recurring/:groupID", h.deactivateRecurring)

		teachers.POST("/bookings", newRateLimiter(opts.RateLimitPerMinute, h.logger).middleware(), h.createBooking)
		teachers.GET("/bookings", h.listTeacherBookings)
	}

	api.GET("/students/:studentID/bookings", h.listStudentBookings)

	bookings := api.Group("/bookings/:bookingID")
	{
		bookings.GET("", h.getBooking)
		bookings.PATCH("/status", h.updateBookingStatus)
		bookings.DELETE("", h.deleteBooking)
	}

	api.POST("/payments/callback", paymentAuth(opts.PaymentSecret, h.logger), h.paymentCallback)

	return r, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", actorIDHeader, actorRoleHeader},
		ExposeHeaders: []string{"Content-Length", requestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
