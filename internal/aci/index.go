package aci

import (
	"bufio"
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/acikit/go-aci-validator/internal/domain"
)

// IndexClient is the HTTP implementation of IndexExecutor. Index ports speak
// a line-oriented protocol: a command is a GET of /<COMMAND> and the reply is
// a plain-text status line.
type IndexClient struct {
	client *http.Client
	logger *zap.Logger
}

// NewIndexClient creates an index protocol client.
func NewIndexClient(opts ClientOptions, logger *zap.Logger) *IndexClient {
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &IndexClient{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		logger: logger.Named("index"),
	}
}

// TestCommand sends the DRETEST command to the index port. A working index
// port does not accept DRETEST; it answers with an error line, which is
// returned as an *IndexError so the caller can inspect the message text.
// Transport failures are returned as ordinary errors.
func (c *IndexClient) TestCommand(ctx context.Context, addr domain.Address) error {
	commandURL := fmt.Sprintf("%s/DRETEST", addr.URL())

	c.logger.Debug("sending index test command",
		zap.String("host", addr.Host),
		zap.Int("port", addr.Port))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, commandURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach index port %s:%d: %w", addr.Host, addr.Port, err)
	}
	defer resp.Body.Close()

	line, err := readStatusLine(resp)
	if err != nil {
		return fmt.Errorf("failed to read index response from %s:%d: %w", addr.Host, addr.Port, err)
	}

	// an INDEXID line would mean the command was accepted
	if strings.HasPrefix(line, "INDEXID") {
		return nil
	}
	return &IndexError{Message: line}
}

// readStatusLine returns the first non-empty line of an index port response.
func readStatusLine(resp *http.Response) (string, error) {
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			return line, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", fmt.Errorf("empty response")
}
