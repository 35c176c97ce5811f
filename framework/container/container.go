package container

import (
	"fmt"
	"sync"
)

// ── Binding types ─────────────────────────────────────────────────────────────

// Factory is a function that builds a concrete value from the container.
type Factory func(c *Container) any

// binding holds a registered factory. Shared bindings build their value once.
type binding struct {
	factory Factory
	shared  bool

	once     sync.Once
	instance any
}

func (b *binding) resolve(c *Container) any {
	if !b.shared {
		return b.factory(c)
	}
	b.once.Do(func() { b.instance = b.factory(c) })
	return b.instance
}

// ── Container ─────────────────────────────────────────────────────────────────

// Container is the IoC container, a slim take on Laravel's
// Illuminate\Container\Container. Services are registered under string keys
// ("config", "logger", "metadata.store") with explicit factories.
//
// Factories run without the container lock held, so a factory may resolve
// other services. A shared binding is built at most once even under
// concurrent Make calls.
type Container struct {
	mu       sync.RWMutex
	bindings map[string]*binding
	aliases  map[string]string
}

// New creates an empty container bound to itself as "container".
func New() *Container {
	c := &Container{
		bindings: make(map[string]*binding),
		aliases:  make(map[string]string),
	}
	c.Instance("container", c)
	return c
}

// ── Registration ──────────────────────────────────────────────────────────────

// Bind registers a transient factory: every Make builds a new value.
//
//	// Laravel: $app->bind(Store::class, fn($app) => new MemoryStore)
//	c.Bind("metadata.store", func(c *container.Container) any { return metadata.NewMemoryStore() })
func (c *Container) Bind(abstract string, factory Factory) {
	c.register(abstract, &binding{factory: factory})
}

// Singleton registers a factory whose result is cached after first resolution.
// Rebinding an abstract drops the cached value.
//
//	// Laravel: $app->singleton('disk', fn($app) => new Disk(...))
//	c.Singleton("disk", func(c *container.Container) any {
//	    return storage.NewDisk(container.Resolve[*config.Config](c, "config").Upload.Disk)
//	})
func (c *Container) Singleton(abstract string, factory Factory) {
	c.register(abstract, &binding{factory: factory, shared: true})
}

// Instance registers a pre-built value.
//
//	// Laravel: $app->instance('config', $config)
func (c *Container) Instance(abstract string, instance any) {
	b := &binding{shared: true, instance: instance}
	b.once.Do(func() {})
	c.register(abstract, b)
}

func (c *Container) register(abstract string, b *binding) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bindings[c.canonical(abstract)] = b
}

// Alias registers an alternative name for an abstract.
//
//	// Laravel: $app->alias('config', 'configuration')
func (c *Container) Alias(abstract, alias string) {
	if abstract == alias {
		panic(fmt.Sprintf("container: [%s] is aliased to itself", abstract))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aliases[alias] = c.canonical(abstract)
}

// ── Resolution ────────────────────────────────────────────────────────────────

// Make resolves an abstract. It panics when nothing is bound: a missing
// binding is a wiring bug found at boot.
//
//	// Laravel: $app->make('router')
func (c *Container) Make(abstract string) any {
	b, ok := c.lookup(abstract)
	if !ok {
		panic(fmt.Sprintf("container: no binding registered for [%s]", abstract))
	}
	return b.resolve(c)
}

func (c *Container) lookup(abstract string) (*binding, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.bindings[c.canonical(abstract)]
	return b, ok
}

// canonical resolves an alias to its canonical key (caller holds mu).
func (c *Container) canonical(abstract string) string {
	if target, ok := c.aliases[abstract]; ok {
		return target
	}
	return abstract
}

// ── Generics helpers ──────────────────────────────────────────────────────────

// Resolve calls Make and type-asserts the result, panicking on a mismatch.
//
//	// Instead of: cfg := c.Make("config").(*config.Config)
//	// Write:      cfg := container.Resolve[*config.Config](c, "config")
func Resolve[T any](c *Container, abstract string) T {
	instance := c.Make(abstract)
	typed, ok := instance.(T)
	if !ok {
		panic(fmt.Sprintf("container: Resolve[%T]: [%s] resolved to %T", *new(T), abstract, instance))
	}
	return typed
}
