package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	apperrors "github.com/tommy2310DK/Aspect4/internal/errors"
	"github.com/tommy2310DK/Aspect4/internal/models"
)

// Client talks to the Aspect4 JSON gateway in front of the legacy EA7602RA
// order service. Every logical operation is a POST of a loosely-typed
// request map to {base}/{op}, answered with a group-keyed record list.
type Client struct {
	http     *http.Client
	base     string
	username string
	password string
	breaker  *gobreaker.CircuitBreaker
}

func NewClient(baseURL, username, password string) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("ASPECT4_BASE_URL is required")
	}
	if username == "" || password == "" {
		return nil, errors.New("ASPECT4_USERNAME and ASPECT4_PASSWORD are required")
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "aspect4",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			zap.L().Warn("aspect4 circuit state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Client{
		http:     &http.Client{Timeout: 30 * time.Second}, // large orders produce large responses
		base:     baseURL,
		username: username,
		password: password,
		breaker:  breaker,
	}, nil
}

// call posts one gateway operation and decodes the response into out.
// Transport failures and 5xx answers trip the breaker; 401/403 map to the
// batch-fatal authentication error.
func (c *Client) call(ctx context.Context, token, op string, body map[string]any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return apperrors.ErrInternalServer("error building request body", err)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/"+op, bytes.NewReader(payload))
		if err != nil {
			return nil, apperrors.ErrInternalServer("error building request", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("X-Aspect4-Session", token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, apperrors.ErrUpstream(0, fmt.Sprintf("%s request failed", op), err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return nil, apperrors.ErrUpstreamAuth(fmt.Sprintf("%s rejected with status %d", op, resp.StatusCode), nil)
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			return nil, apperrors.ErrUpstream(resp.StatusCode, fmt.Sprintf("%s answered status %d", op, resp.StatusCode), nil)
		}

		var raw json.RawMessage
		if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
			return nil, apperrors.ErrUpstream(resp.StatusCode, fmt.Sprintf("invalid JSON from %s", op), err)
		}
		return raw, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return apperrors.ErrUpstream(0, "aspect4 circuit open", err)
		}
		return err
	}

	if err := json.Unmarshal(result.(json.RawMessage), out); err != nil {
		return apperrors.ErrUpstream(0, fmt.Sprintf("unexpected %s response shape", op), err)
	}
	return nil
}

// FetchOrderHeaders retrieves up to limit order headers for the customer,
// optionally narrowed to one order number.
func (c *Client) FetchOrderHeaders(ctx context.Context, sess *Session, customer, orderNumber string, limit int) ([]models.RawOrderHeader, error) {
	body := map[string]any{
		models.FieldCustomerNumber: customer,
		"limit":                    limit,
	}
	if orderNumber != "" {
		body[models.FieldOrderFilter] = orderNumber
	}

	var resp struct {
		Orders []models.FieldMap `json:"grporder"`
	}
	if err := c.call(ctx, sess.Token, "orderget", body, &resp); err != nil {
		return nil, err
	}

	headers := make([]models.RawOrderHeader, 0, len(resp.Orders))
	for _, f := range resp.Orders {
		header, err := headerFromFields(f)
		if err != nil {
			logSkippedRecord("orderget", err)
			continue
		}
		headers = append(headers, header)
	}
	return headers, nil
}

// FetchOrderLines retrieves the raw order lines of one order.
func (c *Client) FetchOrderLines(ctx context.Context, sess *Session, customer string, order int64) ([]models.RawOrderLine, error) {
	var resp struct {
		Lines []models.FieldMap `json:"grpordline"`
	}
	if err := c.call(ctx, sess.Token, "orderlinesget", orderScope(customer, order), &resp); err != nil {
		return nil, err
	}

	lines := make([]models.RawOrderLine, 0, len(resp.Lines))
	for _, f := range resp.Lines {
		line, err := orderLineFromFields(f)
		if err != nil {
			logSkippedRecord("orderlinesget", err)
			continue
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// FetchStatusLines retrieves the delivery-status lines of one order. All of
// them are kept, including several per line number for partial shipments.
func (c *Client) FetchStatusLines(ctx context.Context, sess *Session, customer string, order int64) ([]models.RawStatusLine, error) {
	var resp struct {
		Lines []models.FieldMap `json:"grpstaordline"`
	}
	if err := c.call(ctx, sess.Token, "staordlinesget", orderScope(customer, order), &resp); err != nil {
		return nil, err
	}

	lines := make([]models.RawStatusLine, 0, len(resp.Lines))
	for _, f := range resp.Lines {
		line, err := statusLineFromFields(f)
		if err != nil {
			logSkippedRecord("staordlinesget", err)
			continue
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// FetchOrderedSizes retrieves the ordered size breakdown of one order,
// flattened to one record per line and size label.
func (c *Client) FetchOrderedSizes(ctx context.Context, sess *Session, customer string, order int64) ([]models.RawSizeRecord, error) {
	var resp struct {
		Groups []models.FieldMap `json:"grpordlinsize"`
	}
	if err := c.call(ctx, sess.Token, "ordlinsizeget", orderScope(customer, order), &resp); err != nil {
		return nil, err
	}
	return flattenSizeGroups("ordlinsizeget", order, resp.Groups), nil
}

// FetchDeliveredSizes retrieves the delivered size breakdown of one order,
// flattened the same way.
func (c *Client) FetchDeliveredSizes(ctx context.Context, sess *Session, customer string, order int64) ([]models.RawSizeRecord, error) {
	var resp struct {
		Groups []models.FieldMap `json:"grpstalinsize"`
	}
	if err := c.call(ctx, sess.Token, "stalinsizeget", orderScope(customer, order), &resp); err != nil {
		return nil, err
	}
	return flattenSizeGroups("stalinsizeget", order, resp.Groups), nil
}

func orderScope(customer string, order int64) map[string]any {
	return map[string]any{
		models.FieldCustomerNumber: customer,
		models.FieldOrderNumber:    order,
	}
}

func logSkippedRecord(op string, err error) {
	zap.L().Warn("skipping malformed backend record",
		zap.String("operation", op),
		zap.Error(err),
	)
}
