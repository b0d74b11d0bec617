package ticket

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/dropwave/backend/domain"
	"github.com/dropwave/backend/pkg/clock"
	"github.com/dropwave/backend/repository"
)

// codeRetries bounds regeneration attempts after a claim code collision.
const codeRetries = 3

// UseCase manages the pickup ticket lifecycle: issue once per paid order,
// verify read-only, redeem exactly once.
type UseCase struct {
	tickets    repository.TicketRepository
	orders     repository.OrderRepository
	clock      clock.Clock
	idgen      clock.IDGenerator
	logger     *zap.Logger
	defaultTTL time.Duration
}

func New(tickets repository.TicketRepository, orders repository.OrderRepository, clk clock.Clock, idgen clock.IDGenerator, logger *zap.Logger, defaultTTL time.Duration) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.System()
	}
	if idgen == nil {
		idgen = clock.UUID()
	}
	if defaultTTL <= 0 {
		defaultTTL = 24 * time.Hour
	}
	return &UseCase{
		tickets:    tickets,
		orders:     orders,
		clock:      clk,
		idgen:      idgen,
		logger:     logger,
		defaultTTL: defaultTTL,
	}
}

// Issue creates the single claim-check for a paid order. The unique index on
// order_id makes a second issue fail with a conflict regardless of races.
// The order itself is not mutated.
func (uc *UseCase) Issue(ctx context.Context, orderID string, ttl time.Duration) (*domain.Ticket, error) {
	if ttl <= 0 {
		ttl = uc.defaultTTL
	}

	order, err := uc.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsPaid() {
		return nil, domain.NewError(domain.ErrCodeInvalid, "order is not paid")
	}

	now := uc.clock.Now()
	var created *domain.Ticket
	for attempt := 0; attempt < codeRetries; attempt++ {
		code, err := GenerateCode()
		if err != nil {
			return nil, err
		}
		payload, err := EncodePayload(order.ID, code, now.Unix())
		if err != nil {
			return nil, err
		}

		ticket := &domain.Ticket{
			ID:         uc.idgen.NewID(),
			OrderID:    order.ID,
			UniqueCode: code,
			QRPayload:  payload,
			ExpiresAt:  now.Add(ttl),
			CreatedAt:  now,
		}
		created, err = uc.tickets.Create(ctx, ticket)
		if err == nil {
			break
		}
		if errors.Is(err, domain.ErrTicketExists) {
			return nil, err
		}
		if !domain.IsDomainError(err, domain.ErrCodeConflict) || attempt == codeRetries-1 {
			return nil, err
		}
		// code collision with another order's ticket: regenerate and retry
	}

	uc.logger.Info("ticket issued",
		zap.String("ticket_id", created.ID),
		zap.String("order_id", order.ID),
		zap.Time("expires_at", created.ExpiresAt))
	return created, nil
}

// Verify resolves a claim code or scanned QR payload to the ticket and order
// snapshot without mutating anything. It is advisory: the redeem transaction
// re-runs the same checks, because a second scanner may redeem between the
// two calls.
func (uc *UseCase) Verify(ctx context.Context, identifier string) (*domain.Ticket, *domain.Order, error) {
	code := identifier
	if !looksLikeClaimCode(identifier) {
		_, decoded, err := DecodePayload(identifier)
		if err != nil {
			return nil, nil, err
		}
		code = decoded
	}

	ticket, err := uc.tickets.GetByCode(ctx, code)
	if err != nil {
		return nil, nil, err
	}
	order, err := uc.orders.GetByID(ctx, ticket.OrderID)
	if err != nil {
		return nil, nil, err
	}

	if err := ticket.CanBeUsed(uc.clock.Now()); err != nil {
		return nil, nil, err
	}
	if !order.IsPaid() {
		return nil, nil, domain.NewError(domain.ErrCodeInvalid, "order is not paid")
	}
	return ticket, order, nil
}

// Redeem flips the ticket to used and the order to picked up in one atomic
// unit. Exactly one of any number of concurrent calls succeeds; losers get a
// conflict carrying the winner's redemption record.
func (uc *UseCase) Redeem(ctx context.Context, ticketID, agentID string) (*domain.Ticket, *domain.Order, error) {
	if agentID == "" {
		return nil, nil, domain.NewError(domain.ErrCodeInvalid, "agent id is required")
	}

	ticket, order, err := uc.tickets.Redeem(ctx, ticketID, agentID, uc.clock.Now())
	if err != nil {
		return nil, nil, err
	}

	uc.logger.Info("ticket redeemed",
		zap.String("ticket_id", ticket.ID),
		zap.String("order_id", order.ID),
		zap.String("agent_id", agentID))
	return ticket, order, nil
}
