package tcache

import "github.com/joshuapare/tcache/pagesrc"

// Config holds the collaborators a Pool is built from. Pass Option
// functions to New rather than constructing a Config directly, so future
// fields default safely.
type Config struct {
	sysPages pagesrc.SystemPages
}

// Option configures a Pool at construction time.
type Option func(*Config)

// WithSystemPages overrides the SystemPages collaborator the pool's page
// cache uses to acquire fresh memory. Tests use this to inject a fake
// that can simulate host exhaustion.
func WithSystemPages(sp pagesrc.SystemPages) Option {
	return func(c *Config) { c.sysPages = sp }
}

func defaultConfig() *Config {
	return &Config{
		sysPages: pagesrc.Default(),
	}
}
