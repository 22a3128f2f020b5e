// Package llm holds the clients that turn a credential and a prompt into generated text.
package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrUnknownProvider is returned when no client is registered for a provider tag.
var ErrUnknownProvider = errors.New("unknown provider")

// Request is a single generation call bound to one credential.
type Request struct {
	Secret    string
	Model     string
	SessionID string
	Persona   string
	Prompt    string
}

// Provider generates text for one provider family.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
}

// HTTPClient is the subset of *http.Client used by the REST providers.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Registry maps provider tags to clients.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry builds a registry from the given providers, keyed by Name().
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		r.providers[p.Name()] = p
	}
	return r
}

// Get returns the client registered for name.
func (r *Registry) Get(name string) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	return p, nil
}

// statusError reads a bounded excerpt of a failed response body.
func statusError(provider string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return fmt.Errorf("%s returned status %d: %s", provider, resp.StatusCode, string(body))
}
