package server

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/tareksakakini/SipLocal-sub003/internal/handler"
	"github.com/tareksakakini/SipLocal-sub003/internal/middleware"
	"github.com/tareksakakini/SipLocal-sub003/internal/service"
)

type Server struct {
	echo              *echo.Echo
	orderHandler      *handler.OrderHandler
	webhookHandler    *handler.WebhookHandler
	credentialHandler *handler.CredentialHandler
	adminJWTSecret    string
}

func NewServer(
	checkoutService service.CheckoutService,
	webhookService service.WebhookService,
	credentialService service.CredentialService,
	adminJWTSecret string,
) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())

	s := &Server{
		echo:              e,
		orderHandler:      handler.NewOrderHandler(checkoutService),
		webhookHandler:    handler.NewWebhookHandler(webhookService),
		credentialHandler: handler.NewCredentialHandler(credentialService),
		adminJWTSecret:    adminJWTSecret,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	// -------- orders --------
	orders := api.Group("/orders")
	orders.POST("/authorize", s.orderHandler.AuthorizeOrder)
	orders.POST("/external", s.orderHandler.SubmitExternalOrder)
	orders.POST("/:transactionId/cancel", s.orderHandler.CancelOrder)
	orders.POST("/:transactionId/capture", s.orderHandler.CaptureOrder)
	orders.GET("/:transactionId", s.orderHandler.GetOrder)

	// -------- internal / administrative --------
	credentials := api.Group("/credentials", middleware.AdminAuth(s.adminJWTSecret))
	credentials.GET("", s.credentialHandler.GetCredential)
	credentials.POST("", s.credentialHandler.UpsertCredential)

	// -------- provider webhooks --------
	s.echo.POST("/webhook", s.webhookHandler.HandleWebhook)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown() error {
	return s.echo.Close()
}
