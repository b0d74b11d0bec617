package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/dropwave/backend/api/transport"
	"github.com/dropwave/backend/domain"
	"github.com/dropwave/backend/pkg/httpcontext"
	ticketUC "github.com/dropwave/backend/usecase/ticket"
)

type TicketHandler struct {
	baseHandler
	uc *ticketUC.UseCase
}

func NewTicketHandler(uc *ticketUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *TicketHandler {
	return &TicketHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

type verifyResponse struct {
	Ticket *domain.Ticket `json:"ticket"`
	Order  *domain.Order  `json:"order"`
}

// @Summary Issue pickup ticket for a paid order
// @Tags tickets
// @Router /api/v1/tickets [post]
func (h *TicketHandler) IssueTicket(ctx *fasthttp.RequestCtx) {
	var req transport.TicketIssueRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}
	if req.OrderID == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "missing order id", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	ticket, err := h.uc.Issue(stdCtx, req.OrderID, time.Duration(req.TTLHours)*time.Hour)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, ticket)
}

// @Summary Verify a claim code or scanned payload
// @Tags tickets
// @Router /api/v1/tickets/verify [get]
func (h *TicketHandler) VerifyTicket(ctx *fasthttp.RequestCtx) {
	identifier := string(ctx.QueryArgs().Peek("code"))
	if identifier == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "missing code", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	ticket, order, err := h.uc.Verify(stdCtx, identifier)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, verifyResponse{Ticket: ticket, Order: order})
}

// @Summary Redeem a ticket
// @Tags tickets
// @Router /api/v1/tickets/{id}/redeem [post]
func (h *TicketHandler) RedeemTicket(ctx *fasthttp.RequestCtx) {
	id, _ := ctx.UserValue("id").(string)
	if id == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "missing ticket id", nil))
		return
	}

	var req transport.TicketRedeemRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}
	if req.AgentID == "" {
		req.AgentID = string(ctx.Request.Header.Peek("X-Operator-ID"))
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	ticket, order, err := h.uc.Redeem(stdCtx, id, req.AgentID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, verifyResponse{Ticket: ticket, Order: order})
}
