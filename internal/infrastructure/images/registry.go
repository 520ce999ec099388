package images

import (
	"context"
	"fmt"

	"blogpilot/internal/domain"
	"blogpilot/internal/ports"
)

// Provider is one interchangeable image-search backend.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, perPage int, orientation string) ([]domain.ImageResult, error)
}

// Registry keeps a mapping from provider names to their implementations.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: map[string]Provider{}}
}

// Register adds or replaces a provider implementation.
func (r *Registry) Register(p Provider) {
	if r.providers == nil {
		r.providers = map[string]Provider{}
	}
	r.providers[p.Name()] = p
}

// Resolve returns a provider by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Provider, error) {
	if p, ok := r.providers[name]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("image provider %s is not registered", name)
}

// Searcher adapts one registered provider to ports.ImageSearcher.
type Searcher struct {
	provider Provider
}

var _ ports.ImageSearcher = (*Searcher)(nil)

// NewSearcher resolves the named provider from the registry.
func NewSearcher(reg *Registry, name string) (*Searcher, error) {
	p, err := reg.Resolve(name)
	if err != nil {
		return nil, err
	}
	return &Searcher{provider: p}, nil
}

// Search delegates to the selected provider.
func (s *Searcher) Search(ctx context.Context, query string, perPage int, orientation string) ([]domain.ImageResult, error) {
	return s.provider.Search(ctx, query, perPage, orientation)
}
