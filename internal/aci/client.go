package aci

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/acikit/go-aci-validator/internal/domain"
)

// Client is the HTTP implementation of Executor. ACI actions are plain GET
// requests of the form http(s)://host:port/?action=Name&param=value.
type Client struct {
	client *http.Client
	logger *zap.Logger
}

// ClientOptions configures a Client.
type ClientOptions struct {
	// Timeout bounds each action round trip.
	Timeout time.Duration
	// InsecureSkipVerify disables TLS certificate verification. ACI servers
	// commonly run with self-signed certificates on internal networks.
	InsecureSkipVerify bool
}

// NewClient creates an ACI client.
func NewClient(opts ClientOptions, logger *zap.Logger) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &Client{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		logger: logger.Named("aci"),
	}
}

// Execute issues one ACI action and returns the raw response body.
func (c *Client) Execute(ctx context.Context, addr domain.Address, action Action, params Parameters) ([]byte, error) {
	query := url.Values{}
	query.Set("action", string(action))
	for name, value := range params {
		query.Set(name, value)
	}

	actionURL := fmt.Sprintf("%s/?%s", addr.URL(), query.Encode())

	c.logger.Debug("executing action",
		zap.String("action", string(action)),
		zap.String("host", addr.Host),
		zap.Int("port", addr.Port))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, actionURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute %s against %s:%d: %w", action, addr.Host, addr.Port, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d from %s:%d", resp.StatusCode, addr.Host, addr.Port)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return body, nil
}
