// Package provider resolves model names to ODE systems. Resolution goes
// through an explicit cache keyed by a structural fingerprint of the model
// definition (name plus the parameter names it is resolved with), replacing
// hidden global compile-and-cache state with an injectable collaborator
// that supports targeted invalidation.
package provider

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/odelab/odesim/internal/models"
	"github.com/odelab/odesim/internal/ode"
)

type Factory func() models.Model

type Provider struct {
	mu        sync.RWMutex
	factories map[string]Factory
	cache     map[string]models.Model
}

// New returns a provider with the built-in models registered.
func New() *Provider {
	p := &Provider{
		factories: make(map[string]Factory),
		cache:     make(map[string]models.Model),
	}

	p.Register("twocomp", func() models.Model { return models.NewTwoCompartment() })
	p.Register("oscillator", func() models.Model { return models.NewDampedOscillator() })
	p.Register("decay", func() models.Model { return models.NewDecay() })
	p.Register("logistic", func() models.Model { return models.NewLogistic() })

	return p
}

func (p *Provider) Register(name string, f Factory) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.factories[name] = f
}

// Fingerprint is the cache key for a model resolved with a parameter set.
// It depends on the parameter names, not their values, so re-running with
// adjusted values reuses the cached model.
func Fingerprint(name string, params ode.Params) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return name + "|" + strings.Join(keys, ",")
}

// Resolve returns the model for name, constructing and caching it on first
// use per fingerprint.
func (p *Provider) Resolve(name string, params ode.Params) (models.Model, error) {
	fp := Fingerprint(name, params)

	p.mu.RLock()
	if m, ok := p.cache[fp]; ok {
		p.mu.RUnlock()
		return m, nil
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()

	if m, ok := p.cache[fp]; ok {
		return m, nil
	}
	f, ok := p.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown model: %s", name)
	}
	m := f()
	p.cache[fp] = m
	return m, nil
}

// Invalidate drops every cached instance of the named model.
func (p *Provider) Invalidate(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for fp := range p.cache {
		if strings.HasPrefix(fp, name+"|") {
			delete(p.cache, fp)
		}
	}
}

// Purge drops the entire cache.
func (p *Provider) Purge() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache = make(map[string]models.Model)
}

// Names lists the registered model names, sorted.
func (p *Provider) Names() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	names := make([]string, 0, len(p.factories))
	for name := range p.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
