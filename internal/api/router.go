package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/akylbek/safari-buddy/internal/auth"
	"github.com/akylbek/safari-buddy/internal/handlers"
	"github.com/akylbek/safari-buddy/internal/interfaces"
	"github.com/akylbek/safari-buddy/internal/middleware"
	"github.com/akylbek/safari-buddy/internal/telemetry"
)

type Services struct {
	Auth     handlers.AuthService
	Tours    handlers.TourService
	Bookings handlers.BookingService
	Payments handlers.PaymentService
	Reviews  handlers.ReviewService
}

func NewRouter(svc Services, tokens *auth.TokenManager, store interfaces.IdempotencyStore) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	handlers.RegisterValidations()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(telemetry.TracingMiddleware())

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "safari-buddy"})
	})

	requireAuth := middleware.AuthMiddleware(tokens)
	api := r.Group("/api")

	authHandler := handlers.NewAuthHandler(svc.Auth)
	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.GET("/me", requireAuth, authHandler.Me)
	}

	tourHandler := handlers.NewTourHandler(svc.Tours)
	tours := api.Group("/tours")
	{
		tours.GET("", tourHandler.ListTours)
		tours.GET("/:id", tourHandler.GetTour)
		tours.POST("", requireAuth, tourHandler.CreateTour)
		tours.PUT("/:id", requireAuth, tourHandler.UpdateTour)
		tours.DELETE("/:id", requireAuth, tourHandler.DeleteTour)
	}

	bookingHandler := handlers.NewBookingHandler(svc.Bookings)
	bookings := api.Group("/bookings", requireAuth)
	{
		bookings.POST("", bookingHandler.CreateBooking)
		bookings.GET("", bookingHandler.ListBookings)
		bookings.GET("/:id", bookingHandler.GetBooking)
		bookings.POST("/:id/cancel", bookingHandler.CancelBooking)
	}

	reviewHandler := handlers.NewReviewHandler(svc.Reviews)
	reviews := api.Group("/reviews")
	{
		reviews.POST("", requireAuth, reviewHandler.CreateReview)
		reviews.GET("/provider/:provider_id", reviewHandler.ListProviderReviews)
		reviews.GET("/provider/:provider_id/stats", reviewHandler.ProviderStats)
	}

	// The callback is called by Safaricom and carries no bearer token.
	paymentHandler := handlers.NewPaymentHandler(svc.Payments)
	api.POST("/payments/callback", paymentHandler.Callback)
	payments := api.Group("/payments", requireAuth)
	{
		payments.POST("/initiate", middleware.IdempotencyMiddleware(store), paymentHandler.InitiatePayment)
		payments.POST("/query", paymentHandler.QueryPayment)
		payments.GET("/booking/:booking_id", paymentHandler.ListBookingPayments)
		payments.GET("/:id", paymentHandler.GetPayment)
	}

	return r
}
