// internal/common/camunda/client.go
package camunda

import (
	"context"
	"fmt"
	"strings"
	"time"

	"procurement-workers/internal/common/config"
	"procurement-workers/internal/common/errors"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Client wraps the Zeebe gRPC client with connection retry and error mapping.
type Client struct {
	client zbc.Client
	config *ClientConfig
}

// ClientConfig holds configuration for the Camunda/Zeebe client.
type ClientConfig struct {
	GatewayAddress         string
	UsePlaintextConnection bool
	ConnectionTimeout      time.Duration
	RequestTimeout         time.Duration
	RetryConfig            *RetryConfig
}

// RetryConfig defines retry behavior for transient failures.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

var DefaultRetryConfig = &RetryConfig{
	MaxRetries: 3,
	BaseDelay:  1 * time.Second,
	MaxDelay:   10 * time.Second,
}

// ClientConfigFrom builds a client configuration from the camunda section.
func ClientConfigFrom(cfg config.CamundaConfig) *ClientConfig {
	requestTimeout := config.GetDuration(cfg.RequestTimeout)
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}
	return &ClientConfig{
		GatewayAddress:         cfg.BrokerAddress,
		UsePlaintextConnection: true,
		ConnectionTimeout:      10 * time.Second,
		RequestTimeout:         requestTimeout,
		RetryConfig:            DefaultRetryConfig,
	}
}

// NewClient connects to the broker named in the camunda section.
func NewClient(cfg config.CamundaConfig) (*Client, error) {
	return NewClientWithConfig(ClientConfigFrom(cfg))
}

// NewClientWithConfig creates a Camunda client and waits until the broker
// answers a topology request.
func NewClientWithConfig(cfg *ClientConfig) (*Client, error) {
	if cfg.RetryConfig == nil {
		cfg.RetryConfig = DefaultRetryConfig
	}

	zeebeClient, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         cfg.GatewayAddress,
		UsePlaintextConnection: cfg.UsePlaintextConnection,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Zeebe client: %w", err)
	}

	c := &Client{client: zeebeClient, config: cfg}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectionTimeout*time.Duration(cfg.RetryConfig.MaxRetries+1))
	defer cancel()

	_, err = c.ExecuteWithRetry(ctx, func(ctx context.Context) (interface{}, error) {
		attemptCtx, attemptCancel := context.WithTimeout(ctx, cfg.ConnectionTimeout)
		defer attemptCancel()
		return zeebeClient.NewTopologyCommand().Send(attemptCtx)
	}, "topology")
	if err != nil {
		zeebeClient.Close()
		return nil, fmt.Errorf("failed to connect to Zeebe broker at %s: %w", cfg.GatewayAddress, err)
	}

	return c, nil
}

// GetClient returns the raw Zeebe client for job workers.
func (c *Client) GetClient() zbc.Client {
	return c.client
}

func (c *Client) Close() error {
	return c.client.Close()
}

// ExecuteWithRetry runs commandFunc with exponential backoff. Only transient
// errors (timeouts, connection issues) are retried.
func (c *Client) ExecuteWithRetry(
	ctx context.Context,
	commandFunc func(context.Context) (interface{}, error),
	operationName string,
) (interface{}, error) {
	var lastErr error

	for attempt := 0; attempt <= c.config.RetryConfig.MaxRetries; attempt++ {
		result, err := commandFunc(ctx)
		if err == nil {
			return result, nil
		}

		lastErr = err

		if !isRetryableZeebeError(err) || attempt == c.config.RetryConfig.MaxRetries {
			return nil, c.mapZeebeError(err, operationName, attempt)
		}

		delay := c.config.RetryConfig.BaseDelay * time.Duration(1<<attempt)
		if delay > c.config.RetryConfig.MaxDelay {
			delay = c.config.RetryConfig.MaxDelay
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, fmt.Errorf("operation %s cancelled after %d attempts: %w", operationName, attempt+1, ctx.Err())
		}
	}

	return nil, fmt.Errorf("operation %s failed after %d retries: %w", operationName, c.config.RetryConfig.MaxRetries, lastErr)
}

// zeebeFailure groups broker errors by how a caller should react.
type zeebeFailure int

const (
	failureUnknown zeebeFailure = iota
	failureTransient
	failureTimeout
	failureRejected
)

var transientPhrases = []string{
	"connection refused",
	"connection reset",
	"unavailable",
	"unreachable",
	"broken pipe",
}

// classifyZeebeError prefers the gRPC status code and falls back to the
// message for errors raised before a call reached the gateway.
func classifyZeebeError(err error) zeebeFailure {
	if st, ok := status.FromError(err); ok && st.Code() != codes.Unknown {
		switch st.Code() {
		case codes.DeadlineExceeded:
			return failureTimeout
		case codes.Unavailable, codes.ResourceExhausted, codes.Aborted:
			return failureTransient
		case codes.NotFound, codes.AlreadyExists, codes.PermissionDenied,
			codes.Unauthenticated, codes.InvalidArgument, codes.FailedPrecondition:
			return failureRejected
		}
		return failureUnknown
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded") {
		return failureTimeout
	}
	for _, phrase := range transientPhrases {
		if strings.Contains(msg, phrase) {
			return failureTransient
		}
	}
	for _, phrase := range []string{"not found", "already exists", "permission denied", "unauthorized"} {
		if strings.Contains(msg, phrase) {
			return failureRejected
		}
	}
	return failureUnknown
}

func isRetryableZeebeError(err error) bool {
	switch classifyZeebeError(err) {
	case failureTransient, failureTimeout:
		return true
	}
	return false
}

// mapZeebeError converts a broker error into an application error.
func (c *Client) mapZeebeError(err error, operation string, attempt int) error {
	prefix := fmt.Sprintf("zeebe %s", operation)
	if attempt > 0 {
		prefix += fmt.Sprintf(" after %d attempts", attempt+1)
	}
	wrapped := fmt.Errorf("%s: %w", prefix, err)

	switch classifyZeebeError(err) {
	case failureTimeout:
		return errors.NewTimeoutError("zeebe", wrapped)
	case failureRejected:
		return errors.NewBusinessRuleError(wrapped.Error(), "Zeebe rejected the command")
	default:
		return errors.NewExternalServiceError("zeebe", wrapped)
	}
}

// HealthCheck sends a topology request to the broker.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.ConnectionTimeout)
	defer cancel()

	if _, err := c.client.NewTopologyCommand().Send(ctx); err != nil {
		return fmt.Errorf("zeebe health check failed: %w", err)
	}
	return nil
}

// Ping lets the broker take part in the readiness check.
func (c *Client) Ping(ctx context.Context) error {
	return c.HealthCheck(ctx)
}
