package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropwave/backend/domain"
	"github.com/dropwave/backend/repository"
)

const (
	ticketOrderUniqueConstraint = "tickets_order_id_key"
	ticketCodeUniqueConstraint  = "tickets_unique_code_key"
)

type orderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns a Postgres-backed implementation of OrderRepository.
func NewOrderRepository(pool *pgxpool.Pool) repository.OrderRepository {
	return &orderRepository{pool: pool}
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	const query = `
	SELECT id, customer_name, payment_status, pickup_status, created_at, updated_at
	FROM orders
	WHERE id = $1
	`
	return scanOrder(r.pool.QueryRow(ctx, query, id))
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository returns a Postgres-backed implementation of TicketRepository.
func NewTicketRepository(pool *pgxpool.Pool) repository.TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	if ticket == nil {
		return nil, domain.ErrInvalidPayload
	}
	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO tickets (id, order_id, unique_code, qr_payload, is_used, expires_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING created_at
	`
	if err := r.pool.QueryRow(ctx, query,
		ticket.ID,
		ticket.OrderID,
		ticket.UniqueCode,
		ticket.QRPayload,
		ticket.IsUsed,
		ticket.ExpiresAt,
	).Scan(&ticket.CreatedAt); err != nil {
		if isUniqueViolation(err, ticketOrderUniqueConstraint) {
			return nil, domain.ErrTicketExists
		}
		if isUniqueViolation(err, ticketCodeUniqueConstraint) {
			return nil, domain.NewError(domain.ErrCodeConflict, "ticket code collision")
		}
		return nil, err
	}
	return ticket, nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `
	SELECT id, order_id, unique_code, qr_payload, is_used, used_at, used_by, expires_at, created_at
	FROM tickets
	WHERE id = $1
	`
	return scanTicket(r.pool.QueryRow(ctx, query, id))
}

func (r *ticketRepository) GetByCode(ctx context.Context, code string) (*domain.Ticket, error) {
	const query = `
	SELECT id, order_id, unique_code, qr_payload, is_used, used_at, used_by, expires_at, created_at
	FROM tickets
	WHERE unique_code = $1
	`
	return scanTicket(r.pool.QueryRow(ctx, query, code))
}

// Redeem performs the read-validate-write in one transaction. The FOR UPDATE
// row lock serializes concurrent redemptions of the same ticket; the loser
// re-reads an already-used row and aborts with the winner's redemption record.
func (r *ticketRepository) Redeem(ctx context.Context, ticketID, agentID string, now time.Time) (*domain.Ticket, *domain.Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	const lockTicket = `
	SELECT id, order_id, unique_code, qr_payload, is_used, used_at, used_by, expires_at, created_at
	FROM tickets
	WHERE id = $1
	FOR UPDATE
	`
	ticket, err := scanTicket(tx.QueryRow(ctx, lockTicket, ticketID))
	if err != nil {
		return nil, nil, err
	}
	if err := ticket.CanBeUsed(now); err != nil {
		return nil, nil, err
	}

	const lockOrder = `
	SELECT id, customer_name, payment_status, pickup_status, created_at, updated_at
	FROM orders
	WHERE id = $1
	FOR UPDATE
	`
	order, err := scanOrder(tx.QueryRow(ctx, lockOrder, ticket.OrderID))
	if err != nil {
		return nil, nil, err
	}
	if !order.IsPaid() {
		return nil, nil, domain.NewError(domain.ErrCodeInvalid, "order is not paid")
	}

	const markTicket = `
	UPDATE tickets SET is_used = TRUE, used_at = $2, used_by = $3 WHERE id = $1
	`
	if _, err := tx.Exec(ctx, markTicket, ticket.ID, now, agentID); err != nil {
		return nil, nil, err
	}

	const markOrder = `
	UPDATE orders SET pickup_status = $2, updated_at = $3 WHERE id = $1
	`
	if _, err := tx.Exec(ctx, markOrder, order.ID, string(domain.PickupStatusPickedUp), now); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}

	usedAt := now
	ticket.IsUsed = true
	ticket.UsedAt = &usedAt
	ticket.UsedBy = agentID
	order.PickupStatus = domain.PickupStatusPickedUp
	order.UpdatedAt = now
	return ticket, order, nil
}

func scanTicket(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Ticket, error) {
	var (
		ticket domain.Ticket
		usedAt *time.Time
		usedBy *string
	)
	if err := row.Scan(
		&ticket.ID,
		&ticket.OrderID,
		&ticket.UniqueCode,
		&ticket.QRPayload,
		&ticket.IsUsed,
		&usedAt,
		&usedBy,
		&ticket.ExpiresAt,
		&ticket.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTicketNotFound
		}
		return nil, err
	}
	ticket.UsedAt = usedAt
	if usedBy != nil {
		ticket.UsedBy = *usedBy
	}
	return &ticket, nil
}

func scanOrder(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Order, error) {
	var (
		order   domain.Order
		payment string
		pickup  string
	)
	if err := row.Scan(
		&order.ID,
		&order.CustomerName,
		&payment,
		&pickup,
		&order.CreatedAt,
		&order.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	order.PaymentStatus = domain.PaymentStatus(payment)
	order.PickupStatus = domain.PickupStatus(pickup)
	return &order, nil
}
