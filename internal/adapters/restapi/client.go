package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/evdms/dealer-console/internal/domain"
)

// Client is the shared core for the dealer-network API clients: JSON over
// HTTPS with a bearer token supplied by the injected AuthContext. Every
// request carries a timeout so a hung upstream surfaces as a retryable
// error instead of a spinner that never resolves.
type Client struct {
	base string
	hc   *http.Client
	auth domain.AuthContext
}

func New(baseURL string, auth domain.AuthContext) *Client {
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		hc:   &http.Client{Timeout: 10 * time.Second},
		auth: auth,
	}
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	token, err := c.auth.Token(ctx)
	if err != nil {
		return fmt.Errorf("acquire token: %w", domain.ErrUnauthorized)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %v: %w", method, path, err, domain.ErrUnavailable)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		return apiError(method, path, res)
	}
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return nil
}

type errEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Field   string `json:"field"`
	} `json:"error"`
}

// apiError maps upstream failures onto the domain taxonomy so the wizard
// can surface the right remedy: fix the form, retry, or sign in again.
func apiError(method, path string, res *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	var env errEnvelope
	_ = json.Unmarshal(raw, &env)

	switch {
	case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden:
		return domain.ErrUnauthorized
	case res.StatusCode == http.StatusNotFound:
		return domain.ErrNotFound
	case res.StatusCode == http.StatusConflict:
		switch env.Error.Code {
		case "out_of_stock":
			return domain.ErrOutOfStock
		case "duplicate_phone", "duplicate_email", "duplicate_customer":
			return domain.ErrDuplicateCustomer
		case "promotion_inactive":
			return domain.ErrInactivePromotion
		case "order_not_draft":
			return domain.ErrOrderNotDraft
		}
		return fmt.Errorf("%s %s: conflict: %s", method, path, env.Error.Message)
	case res.StatusCode == http.StatusBadRequest || res.StatusCode == http.StatusUnprocessableEntity:
		reason := env.Error.Message
		if reason == "" {
			reason = "rejected by server"
		}
		return &domain.ValidationError{Field: env.Error.Field, Reason: reason}
	case res.StatusCode >= 500:
		return fmt.Errorf("%s %s: status %d: %w", method, path, res.StatusCode, domain.ErrUnavailable)
	}
	return fmt.Errorf("%s %s: status %d: %s", method, path, res.StatusCode, string(raw))
}
