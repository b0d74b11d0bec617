package repository

import (
	"context"
	"time"

	"github.com/dropwave/backend/domain"
)

type OrderRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Order, error)
}

type TicketRepository interface {
	// Create persists a new ticket. A ticket already existing for the order
	// is reported as domain.ErrTicketExists (unique index on order_id).
	Create(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error)
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByCode(ctx context.Context, code string) (*domain.Ticket, error)
	// Redeem atomically re-validates the ticket and flips it to used together
	// with the owning order's pickup status. Concurrent calls on the same
	// ticket serialize on a row lock; exactly one succeeds, the rest receive
	// a CONFLICT domain error carrying the winning redemption record.
	Redeem(ctx context.Context, ticketID, agentID string, now time.Time) (*domain.Ticket, *domain.Order, error)
}
