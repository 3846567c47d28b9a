package repository

// Option applies a configuration option to the MemoryStore.
type Option func(*memoryConfig)

type memoryConfig struct {
	capacity int
	name     string
}

// WithCapacity bounds the number of stored values. Zero means unbounded.
func WithCapacity(n int) Option {
	return func(c *memoryConfig) {
		if n >= 0 {
			c.capacity = n
		}
	}
}

// WithName labels the store in logs and metrics.
func WithName(name string) Option {
	return func(c *memoryConfig) {
		if name != "" {
			c.name = name
		}
	}
}
