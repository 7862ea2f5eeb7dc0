package auction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sethvargo/go-retry"
)

const defaultRequestTimeout = 10 * time.Second

// RESTClient talks to the auction service over HTTP(S) under a base URL,
// e.g. http://localhost:9800/auction-house. ServiceToken is the server-role
// trust credential, distinct from the per-player access tokens the service
// issues through GetAccessToken.
type RESTClient struct {
	baseURL      string
	serviceToken string
	http         *http.Client
}

// RESTClientConfig holds REST client settings.
type RESTClientConfig struct {
	BaseURL      string
	ServiceToken string
	Timeout      time.Duration
}

// NewRESTClient creates a REST auction service client.
func NewRESTClient(cfg RESTClientConfig) *RESTClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultRequestTimeout
	}
	return &RESTClient{
		baseURL:      cfg.BaseURL,
		serviceToken: cfg.ServiceToken,
		http:         &http.Client{Timeout: timeout},
	}
}

// serviceError is the error body the service returns on denial.
type serviceError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// do sends one request and decodes the reply into out (if non-nil).
// A non-2xx reply becomes a RejectionError; anything without a usable reply
// is returned as a transport error.
func (c *RESTClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.serviceToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.serviceToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("auction service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		rejection := &RejectionError{StatusCode: resp.StatusCode}
		var svcErr serviceError
		if decodeErr := json.NewDecoder(resp.Body).Decode(&svcErr); decodeErr == nil {
			rejection.Code = svcErr.Error.Code
			rejection.Message = svcErr.Error.Message
		}
		return rejection
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode auction service response: %w", err)
		}
	}
	return nil
}

// CreateAuction lists an item payload with the service.
func (c *RESTClient) CreateAuction(ctx context.Context, req CreateRequest) (string, error) {
	var result struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/auctions", req, &result); err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", fmt.Errorf("auction service returned an empty auction id")
	}
	return result.ID, nil
}

// GetAuction fetches the current snapshot of an auction.
func (c *RESTClient) GetAuction(ctx context.Context, auctionID string) (*Snapshot, error) {
	var snapshot Snapshot
	if err := c.do(ctx, http.MethodGet, "/auctions/"+url.PathEscape(auctionID), nil, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// Bid places a bid on an auction.
func (c *RESTClient) Bid(ctx context.Context, userID, name, auctionID string, price int64) error {
	body := map[string]interface{}{
		"user_id": userID,
		"name":    name,
		"price":   price,
	}
	return c.do(ctx, http.MethodPost, "/auctions/"+url.PathEscape(auctionID)+"/bid", body, nil)
}

// Buyout buys an auction out.
func (c *RESTClient) Buyout(ctx context.Context, userID, name, auctionID string) error {
	body := map[string]interface{}{
		"user_id": userID,
		"name":    name,
	}
	return c.do(ctx, http.MethodPost, "/auctions/"+url.PathEscape(auctionID)+"/buyout", body, nil)
}

// GetAccessToken issues a client access token for the user. Transport
// failures and 5xx replies are retried with exponential backoff; a 4xx
// denial is final.
func (c *RESTClient) GetAccessToken(ctx context.Context, userID string) (string, error) {
	var token string
	backoff := retry.WithMaxRetries(3, retry.NewExponential(500*time.Millisecond))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var result struct {
			AccessToken string `json:"accessToken"`
		}
		err := c.do(ctx, http.MethodPost, "/access-token", map[string]string{"user_id": userID}, &result)
		if err != nil {
			var rejection *RejectionError
			if errors.As(err, &rejection) && rejection.StatusCode < 500 {
				return err
			}
			return retry.RetryableError(err)
		}
		if result.AccessToken == "" {
			return fmt.Errorf("auction service returned an empty access token")
		}
		token = result.AccessToken
		return nil
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

// Ensure RESTClient implements Client
var _ Client = (*RESTClient)(nil)
