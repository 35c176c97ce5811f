// Package container provides a small Laravel-style IoC container and the
// Service Provider lifecycle the application boots through.
//
// # Lifecycle
//
//  1. Create: c := container.New()
//  2. Register providers: registry.Register(&providers.ConfigServiceProvider{})
//  3. Boot: registry.Boot(); every binding is resolvable from here on
//  4. Serve requests
//
// # Bindings
//
//	c.Bind("clock", func(c *container.Container) any { return time.Now })
//	c.Singleton("logger", func(c *container.Container) any { return logging.New(cfg) })
//	c.Instance("config", cfg)
//	c.Alias("config", "configuration")
//
// # Resolving
//
//	raw := c.Make("config")
//	cfg := container.Resolve[*config.Config](c, "config")
//
// # Deferred Providers
//
// A deferred provider lists its abstracts in Provides and is registered the
// first time one of them is resolved:
//
//	func (p *MetadataServiceProvider) IsDeferred() bool   { return true }
//	func (p *MetadataServiceProvider) Provides() []string { return []string{"metadata.store"} }
package container
