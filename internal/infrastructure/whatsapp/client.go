package whatsapp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/dropwave/backend/domain"
	"github.com/dropwave/backend/internal/config"
)

// Client talks to the WhatsApp gateway. The gateway is an opaque
// "send message to group" capability; delivery mechanics live behind it.
type Client struct {
	http    *fasthttp.Client
	baseURL string
	token   string
	timeout time.Duration
	logger  *zap.Logger
}

func NewClient(cfg config.WhatsAppConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http: &fasthttp.Client{
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		},
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		timeout: timeout,
		logger:  logger,
	}
}

type sendRequest struct {
	GroupID string `json:"group_id"`
	Message string `json:"message"`
}

type sendResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// SendMessage posts one message to one group. Network and timeout failures
// are classified TRANSIENT so the dispatch layer can offer a retry; a
// gateway-reported rejection is terminal for the attempt.
func (c *Client) SendMessage(ctx context.Context, groupID, payload string) error {
	body, err := json.Marshal(sendRequest{GroupID: groupID, Message: payload})
	if err != nil {
		return err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + "/v1/messages")
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.SetBody(body)

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return domain.NewError(domain.ErrCodeTransient, "send deadline exceeded")
	}

	if err := c.http.DoTimeout(req, resp, timeout); err != nil {
		return domain.WrapError(domain.ErrCodeTransient, "gateway unreachable", err)
	}

	if resp.StatusCode() >= http.StatusInternalServerError {
		return domain.NewError(domain.ErrCodeTransient, fmt.Sprintf("gateway returned %d", resp.StatusCode()))
	}
	if resp.StatusCode() != http.StatusOK {
		return domain.NewError(domain.ErrCodeInternal, fmt.Sprintf("gateway rejected message with %d", resp.StatusCode()))
	}

	var parsed sendResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return domain.WrapError(domain.ErrCodeInternal, "malformed gateway response", err)
	}
	if !parsed.Success {
		return domain.NewError(domain.ErrCodeInternal, fmt.Sprintf("gateway refused message: %s", parsed.Error))
	}
	return nil
}
