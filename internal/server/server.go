package server

import (
	"context"
	"net/http"
	"time"

	"bookpass/internal/auth"
	"bookpass/internal/booking"
	"bookpass/internal/catalog"
	"bookpass/internal/config"
	"bookpass/internal/customer"
	"bookpass/internal/invoice"
	"bookpass/internal/ledger"
	"bookpass/internal/notify"
	"bookpass/internal/subscription"
	"bookpass/internal/tenant"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

type Server struct {
	router *gin.Engine
	http   *http.Server
	db     *sqlx.DB
	config *config.Config
	email  *notify.EmailService
}

func New(db *sqlx.DB, cfg *config.Config, emailService *notify.EmailService) *Server {
	router := gin.Default()
	router.Use(corsMiddleware())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(RateLimitMiddleware(50, 100))

	ledgerRepo := ledger.NewRepository(db)
	catalogRepo := catalog.NewRepository(db)
	tenantRepo := tenant.NewRepository(db)
	customerRepo := customer.NewRepository(db)
	bookingRepo := booking.NewRepository(db, ledgerRepo)
	subscriptionRepo := subscription.NewRepository(db, ledgerRepo)
	attemptRepo := invoice.NewAttemptRepository(db)

	zohoClient := invoice.NewZohoClient(cfg.ZohoBaseURL, cfg.ZohoAuthURL, cfg.ExternalTimeout)
	whatsappClient := notify.NewWhatsAppClient(cfg.WhatsAppBaseURL, cfg.ExternalTimeout)
	orchestrator := invoice.NewOrchestrator(zohoClient, whatsappClient, attemptRepo, cfg.ExternalAttempts, time.Second)

	customerService := customer.NewService(customerRepo, cfg.JWTSecret)
	bookingService := booking.NewService(
		bookingRepo, catalogRepo, ledgerRepo, customerRepo, tenantRepo,
		subscriptionRepo, orchestrator, emailService,
		cfg.DefaultCurrency, cfg.BookingTxTimeout,
	)
	subscriptionService := subscription.NewService(
		subscriptionRepo, ledgerRepo, customerRepo, tenantRepo,
		orchestrator, emailService, cfg.DefaultCurrency,
	)

	customerHandler := customer.NewHandler(customerService)
	catalogHandler := catalog.NewHandler(catalogRepo)
	bookingHandler := booking.NewHandler(bookingService, orchestrator, tenantRepo, customerRepo)
	subscriptionHandler := subscription.NewHandler(subscriptionService)
	invoiceHandler := invoice.NewHandler(attemptRepo)

	public := router.Group("/auth")
	{
		public.POST("/register", customerHandler.Register)
		public.POST("/login", customerHandler.Login)
	}

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	protected := router.Group("/")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", customerHandler.GetMe)

		protected.GET("/services", catalogHandler.ListServices)
		protected.GET("/services/:serviceID/slots", catalogHandler.ListSlots)

		protected.GET("/packages", subscriptionHandler.ListPackages)
		protected.POST("/subscriptions", subscriptionHandler.Purchase)
		protected.GET("/subscriptions", subscriptionHandler.ListMySubscriptions)
		protected.GET("/subscriptions/:subscriptionID/balances", subscriptionHandler.GetBalances)
		protected.POST("/subscriptions/:subscriptionID/cancel", subscriptionHandler.Cancel)

		protected.POST("/bookings", bookingHandler.BookSlot)
		protected.GET("/bookings", bookingHandler.ListMyBookings)
		protected.POST("/bookings/:bookingID/cancel", bookingHandler.CancelBooking)
		protected.POST("/bookings/:bookingID/invoice/send", bookingHandler.SendInvoice)
	}

	adminMiddleware := auth.RequireRole("admin")
	admin := router.Group("/admin")
	admin.Use(authMiddleware, adminMiddleware)
	{
		admin.POST("/services", catalogHandler.CreateService)
		admin.POST("/services/:serviceID/slots", catalogHandler.CreateSlot)
		admin.GET("/slots/:slotID/bookings", bookingHandler.ListBookingsBySlot)
		admin.GET("/services/:serviceID/bookings", bookingHandler.ListBookingsByService)
		admin.POST("/subscriptions/:subscriptionID/mark-paid", subscriptionHandler.MarkPaid)
		admin.GET("/invoice-attempts", invoiceHandler.ListAttempts)
	}

	router.GET("/health", Health(emailService))
	router.GET("/metrics", Metrics())
	router.GET("/test-email", TestEmail(emailService))
	SetupSwagger(router)

	return &Server{
		router: router,
		db:     db,
		config: cfg,
		email:  emailService,
	}
}

func (s *Server) Start(port string) error {
	s.http = &http.Server{
		Addr:    ":" + port,
		Handler: s.router,
	}
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
