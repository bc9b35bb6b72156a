package service

import (
	"fmt"
	"sync"

	"github.com/kamstrup/intmap"
)

// Proxy is a submission handle to a Service that can be passed around without
// exposing the service's update phases.
type Proxy[C any] struct {
	service *Service[C]
}

func NewProxy[C any](s *Service[C]) *Proxy[C] {
	return &Proxy[C]{service: s}
}

func (p *Proxy[C]) Submit(tasks TaskList[C]) {
	p.service.Submit(tasks)
}

func (p *Proxy[C]) Context() C {
	return p.service.Context()
}

// Clone returns an independent proxy to the same service.
func (p *Proxy[C]) Clone() *Proxy[C] {
	return &Proxy[C]{service: p.service}
}

// ServiceID identifies a service inside one Registry.
type ServiceID uint32

// Registry hands out ServiceIDs by service name. Ids are assigned in first-use order.
type Registry struct {
	mu    sync.Mutex
	ids   map[string]ServiceID
	names []string
}

func NewRegistry() *Registry {
	return &Registry{ids: make(map[string]ServiceID)}
}

// ID returns the id for name, assigning the next one on first use.
func (r *Registry) ID(name string) ServiceID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.ids[name]; ok {
		return id
	}
	id := ServiceID(len(r.names))
	r.ids[name] = id
	r.names = append(r.names, name)
	return id
}

// Lookup returns the id for name without assigning one.
func (r *Registry) Lookup(name string) (ServiceID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.ids[name]
	return id, ok
}

func (r *Registry) Name(id ServiceID) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if int(id) >= len(r.names) {
		return "", false
	}
	return r.names[id], true
}

// ProxyManager maps ServiceIDs to proxies. It is safe for concurrent use.
type ProxyManager struct {
	mu      sync.RWMutex
	proxies *intmap.Map[ServiceID, any]
}

func NewProxyManager() *ProxyManager {
	return &ProxyManager{proxies: intmap.New[ServiceID, any](8)}
}

// Register stores p under id, replacing any proxy registered before.
func Register[C any](m *ProxyManager, id ServiceID, p *Proxy[C]) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.proxies.Put(id, p)
}

// Get returns a clone of the proxy registered under id.
func Get[C any](m *ProxyManager, id ServiceID) (*Proxy[C], error) {
	m.mu.RLock()
	stored, ok := m.proxies.Get(id)
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrServiceUnknown, id)
	}
	p, ok := stored.(*Proxy[C])
	if !ok {
		return nil, fmt.Errorf("%w: id %d holds %T", ErrProxyType, id, stored)
	}
	return p.Clone(), nil
}

// Has reports whether a proxy is registered under id.
func (m *ProxyManager) Has(id ServiceID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.proxies.Get(id)
	return ok
}

// Unregister removes the proxy under id.
func (m *ProxyManager) Unregister(id ServiceID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.proxies.Del(id)
}
