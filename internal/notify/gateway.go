package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/earshot-dev/earshot/internal/config"
	"github.com/earshot-dev/earshot/pkg/logger"
)

// GatewayClient sends notifications through the earshot SMS gateway's
// /api/v1/send endpoint using bearer-token authentication.
type GatewayClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewGatewayClient creates a gateway client from config. The request timeout
// keeps the listener loop live if the gateway hangs.
func NewGatewayClient(cfg config.NotifyConfig, log *logger.Logger) *GatewayClient {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &GatewayClient{
		baseURL:    strings.TrimRight(cfg.APIBase, "/"),
		token:      cfg.APIToken,
		httpClient: &http.Client{Timeout: timeout},
		logger:     log.Named("gateway-client"),
	}
}

type sendResponse struct {
	SID string `json:"sid"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Send posts the notification to the gateway and returns the provider SID.
func (c *GatewayClient) Send(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", &Error{Op: "encode", Err: err}
	}

	url := c.baseURL + "/api/v1/send"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", &Error{Op: "request", Err: err}
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", &Error{Op: "send", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return "", &Error{Op: "read", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return "", &Error{Op: "send", Err: fmt.Errorf("gateway returned %d: %s", resp.StatusCode, errResp.Error)}
		}
		return "", &Error{Op: "send", Err: fmt.Errorf("gateway returned %d", resp.StatusCode)}
	}

	var sendResp sendResponse
	if err := json.Unmarshal(respBody, &sendResp); err != nil {
		return "", &Error{Op: "decode", Err: err}
	}
	if sendResp.SID == "" {
		return "", &Error{Op: "decode", Err: fmt.Errorf("gateway response missing sid")}
	}

	c.logger.Debug("Notification accepted by gateway", logger.String("sid", sendResp.SID))

	return sendResp.SID, nil
}
