package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/dropwave/backend/api/transport"
	"github.com/dropwave/backend/domain"
	"github.com/dropwave/backend/pkg/httpcontext"
	"github.com/dropwave/backend/repository"
	dropUC "github.com/dropwave/backend/usecase/drop"
)

type DropHandler struct {
	baseHandler
	uc *dropUC.UseCase
}

func NewDropHandler(uc *dropUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *DropHandler {
	return &DropHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List drops
// @Tags drops
// @Router /api/v1/drops [get]
func (h *DropHandler) ListDrops(ctx *fasthttp.RequestCtx) {
	filter := repository.DropFilter{
		Status: string(ctx.QueryArgs().Peek("status")),
		Limit:  parseInt(string(ctx.QueryArgs().Peek("limit")), 50),
		Offset: parseInt(string(ctx.QueryArgs().Peek("offset")), 0),
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	drops, err := h.uc.ListDrops(stdCtx, filter)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, drops)
}

// @Summary Create drop
// @Tags drops
// @Router /api/v1/drops [post]
func (h *DropHandler) CreateDrop(ctx *fasthttp.RequestCtx) {
	var req transport.DropCreateRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}

	input := dropUC.CreateDropInput{
		Name:            req.Name,
		ArticleIDs:      req.ArticleIDs,
		GroupIDs:        req.GroupIDs,
		MessageTemplate: req.MessageTemplate,
	}
	if req.ScheduledFor != "" {
		parsed, err := time.Parse(time.RFC3339, req.ScheduledFor)
		if err != nil {
			h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "scheduled_for must be RFC3339", nil))
			return
		}
		input.ScheduledFor = &parsed
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.CreateDrop(stdCtx, input)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Get drop
// @Tags drops
// @Router /api/v1/drops/{id} [get]
func (h *DropHandler) GetDrop(ctx *fasthttp.RequestCtx) {
	id, ok := h.dropID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	drop, err := h.uc.GetDrop(stdCtx, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, drop)
}

// @Summary Delete draft drop
// @Tags drops
// @Router /api/v1/drops/{id} [delete]
func (h *DropHandler) DeleteDrop(ctx *fasthttp.RequestCtx) {
	id, ok := h.dropID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.DeleteDrop(stdCtx, id); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusNoContent, nil)
}

// @Summary Validate drop against the same-day rule
// @Tags drops
// @Router /api/v1/drops/{id}/validation [get]
func (h *DropHandler) ValidateDrop(ctx *fasthttp.RequestCtx) {
	id, ok := h.dropID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.uc.ValidateDrop(stdCtx, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, result)
}

// @Summary Send drop now
// @Tags drops
// @Router /api/v1/drops/{id}/send [post]
func (h *DropHandler) SendDrop(ctx *fasthttp.RequestCtx) {
	id, ok := h.dropID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	drop, err := h.uc.SendDrop(stdCtx, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, drop)
}

// @Summary Retry a failed drop
// @Tags drops
// @Router /api/v1/drops/{id}/retry [post]
func (h *DropHandler) RetryDrop(ctx *fasthttp.RequestCtx) {
	id, ok := h.dropID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	drop, err := h.uc.RetryDrop(stdCtx, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, drop)
}

// @Summary Schedule drop
// @Tags drops
// @Router /api/v1/drops/{id}/schedule [post]
func (h *DropHandler) ScheduleDrop(ctx *fasthttp.RequestCtx) {
	id, ok := h.dropID(ctx)
	if !ok {
		return
	}

	var req transport.DropScheduleRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}
	when, err := time.Parse(time.RFC3339, req.ScheduledFor)
	if err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "scheduled_for must be RFC3339", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	drop, err := h.uc.ScheduleDrop(stdCtx, id, when)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, drop)
}

// @Summary Cancel drop
// @Tags drops
// @Router /api/v1/drops/{id}/cancel [post]
func (h *DropHandler) CancelDrop(ctx *fasthttp.RequestCtx) {
	id, ok := h.dropID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	drop, err := h.uc.CancelDrop(stdCtx, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, drop)
}

func (h *DropHandler) dropID(ctx *fasthttp.RequestCtx) (string, bool) {
	id, _ := ctx.UserValue("id").(string)
	if id == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "missing drop id", nil))
		return "", false
	}
	return id, true
}

func parseInt(value string, fallback int) int {
	if v, err := strconv.Atoi(value); err == nil {
		return v
	}
	return fallback
}
