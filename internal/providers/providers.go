package providers

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	appErrors "github.com/contextcraft/contextcraft/pkg/errors"
)

// Client is a minimal AI provider client. The recovery layer treats
// providers as opaque and only needs a way to invoke them.
type Client interface {
	Name() string
	Complete(ctx context.Context, query string, industry string) (*Response, error)
}

// Response is a completed provider answer
type Response struct {
	Provider string    `json:"provider"`
	Query    string    `json:"query"`
	Industry string    `json:"industry,omitempty"`
	Content  string    `json:"content"`
	Created  time.Time `json:"created"`
}

// SimulatedConfig tunes a simulated client
type SimulatedConfig struct {
	// FailureRate is the fraction of requests that fail, in [0, 1).
	// Failures are deterministic on request count so tests and demos
	// behave the same run to run.
	FailureRate float64
	// Latency is the simulated response time per request
	Latency time.Duration
}

// SimulatedClient simulates a provider that can fail. It stands in for
// real provider SDK clients so the recovery behavior can be exercised
// end to end without credentials.
type SimulatedClient struct {
	name   string
	config SimulatedConfig

	mutex        sync.Mutex
	requestCount int
	failureCount int
	forceFailure bool
}

// NewSimulatedClient creates a simulated provider client
func NewSimulatedClient(name string, config SimulatedConfig) *SimulatedClient {
	return &SimulatedClient{
		name:   name,
		config: config,
	}
}

// Name returns the provider identifier
func (c *SimulatedClient) Name() string {
	return c.name
}

// Complete answers a query, failing at the configured rate
func (c *SimulatedClient) Complete(ctx context.Context, query string, industry string) (*Response, error) {
	c.mutex.Lock()
	c.requestCount++
	requestNum := c.requestCount
	forced := c.forceFailure
	c.mutex.Unlock()

	if c.config.Latency > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.config.Latency):
		}
	}

	shouldFail := forced || (float64(requestNum%100) < c.config.FailureRate*100)
	if shouldFail {
		c.mutex.Lock()
		c.failureCount++
		c.mutex.Unlock()
		return nil, appErrors.NewProviderError(c.name, fmt.Sprintf("simulated failure for request %d", requestNum))
	}

	content := fmt.Sprintf("[%s] response to %q", c.name, query)
	if industry != "" {
		content = fmt.Sprintf("%s for the %s industry", content, strings.ToLower(industry))
	}

	return &Response{
		Provider: c.name,
		Query:    query,
		Industry: industry,
		Content:  content,
		Created:  time.Now(),
	}, nil
}

// SetForceFailure makes every subsequent request fail until cleared
func (c *SimulatedClient) SetForceFailure(force bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.forceFailure = force
}

// Stats returns the request and failure counts
func (c *SimulatedClient) Stats() (requests, failures int) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.requestCount, c.failureCount
}

// Registry holds the configured provider clients keyed by name
type Registry struct {
	mutex   sync.RWMutex
	clients map[string]Client
}

// NewRegistry creates an empty provider registry
func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[string]Client),
	}
}

// Add registers a client under its name
func (r *Registry) Add(client Client) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.clients[client.Name()] = client
}

// Get returns the client for a provider name
func (r *Registry) Get(name string) (Client, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	client, ok := r.clients[name]
	return client, ok
}

// Names returns the registered provider names
func (r *Registry) Names() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	return names
}
