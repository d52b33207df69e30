package modelchannel

import (
	"context"
	"fmt"
	"sync"
)

// Adapter is the interface every provider backend must implement.
type Adapter interface {
	// Name returns the provider identifier (e.g. "openai", "anthropic").
	Name() string

	// Stream sends a request and returns a channel of stream events.
	// The returned channel is closed after the finish or error event.
	Stream(ctx context.Context, req Request) (<-chan StreamEvent, error)
}

// Closer is implemented by adapters that hold resources.
type Closer interface {
	Close() error
}

// Client routes requests to registered provider adapters and applies the
// retry policy when establishing a stream. Mid-stream failures are not
// retried; they surface as an error event on the stream itself.
type Client struct {
	adapters       map[string]Adapter
	defaultAdapter string
	retry          RetryPolicy
	mu             sync.RWMutex
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAdapter registers a provider adapter.
func WithAdapter(name string, adapter Adapter) ClientOption {
	return func(c *Client) {
		c.adapters[name] = adapter
	}
}

// WithDefaultAdapter sets the default provider name.
func WithDefaultAdapter(name string) ClientOption {
	return func(c *Client) {
		c.defaultAdapter = name
	}
}

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(policy RetryPolicy) ClientOption {
	return func(c *Client) {
		c.retry = policy
	}
}

// NewClient creates a Client with the given options.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		adapters: make(map[string]Adapter),
		retry:    DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.defaultAdapter == "" && len(c.adapters) == 1 {
		for name := range c.adapters {
			c.defaultAdapter = name
		}
	}
	return c
}

// RegisterAdapter adds a provider adapter to the client.
func (c *Client) RegisterAdapter(name string, adapter Adapter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.adapters[name] = adapter
	if c.defaultAdapter == "" {
		c.defaultAdapter = name
	}
}

// resolveAdapter determines which adapter serves a request: the explicit
// provider, then the model catalog, then the default.
func (c *Client) resolveAdapter(req Request) (Adapter, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	name := req.Provider
	if name == "" {
		if info := GetModelInfo(req.Model); info != nil {
			if _, ok := c.adapters[info.Provider]; ok {
				name = info.Provider
			}
		}
	}
	if name == "" {
		name = c.defaultAdapter
	}
	if name == "" {
		return nil, &ConnectionError{ChannelError: ChannelError{
			Message: "no provider configured for request",
		}}
	}

	adapter, ok := c.adapters[name]
	if !ok {
		return nil, &ConnectionError{ChannelError: ChannelError{
			Message: fmt.Sprintf("provider %q is not registered", name),
		}}
	}
	return adapter, nil
}

// Stream opens an event stream for the request, retrying establishment
// according to the client's retry policy.
func (c *Client) Stream(ctx context.Context, req Request) (<-chan StreamEvent, error) {
	adapter, err := c.resolveAdapter(req)
	if err != nil {
		return nil, err
	}
	if req.Provider == "" {
		req.Provider = adapter.Name()
	}

	return Retry(ctx, c.retry, func(ctx context.Context) (<-chan StreamEvent, error) {
		return adapter.Stream(ctx, req)
	})
}

// Close releases resources held by registered adapters.
func (c *Client) Close() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var firstErr error
	for _, adapter := range c.adapters {
		if closer, ok := adapter.(Closer); ok {
			if err := closer.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// NewClientFromEnv creates a Client by probing the environment for provider
// API keys and registering a GollmAdapter for each detected provider.
func NewClientFromEnv() *Client {
	c := NewClient()
	for _, provider := range []string{"openai", "anthropic"} {
		adapter, err := NewGollmAdapter(provider, "")
		if err == nil {
			c.RegisterAdapter(provider, adapter)
		}
	}
	return c
}
