package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/dropwave/backend/api/handler"
)

type Handlers struct {
	Drop   *apiHandler.DropHandler
	Ticket *apiHandler.TicketHandler
	Health *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// Drop lifecycle (operator only)
	r.GET("/api/v1/drops", authMiddleware(handlers.Drop.ListDrops))
	r.POST("/api/v1/drops", authMiddleware(handlers.Drop.CreateDrop))
	r.GET("/api/v1/drops/{id}", authMiddleware(handlers.Drop.GetDrop))
	r.DELETE("/api/v1/drops/{id}", authMiddleware(handlers.Drop.DeleteDrop))
	r.GET("/api/v1/drops/{id}/validation", authMiddleware(handlers.Drop.ValidateDrop))
	r.POST("/api/v1/drops/{id}/send", authMiddleware(handlers.Drop.SendDrop))
	r.POST("/api/v1/drops/{id}/retry", authMiddleware(handlers.Drop.RetryDrop))
	r.POST("/api/v1/drops/{id}/schedule", authMiddleware(handlers.Drop.ScheduleDrop))
	r.POST("/api/v1/drops/{id}/cancel", authMiddleware(handlers.Drop.CancelDrop))

	// Ticket lifecycle (operator only)
	r.POST("/api/v1/tickets", authMiddleware(handlers.Ticket.IssueTicket))
	r.GET("/api/v1/tickets/verify", authMiddleware(handlers.Ticket.VerifyTicket))
	r.POST("/api/v1/tickets/{id}/redeem", authMiddleware(handlers.Ticket.RedeemTicket))

	return r
}
