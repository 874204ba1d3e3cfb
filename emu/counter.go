package emu

// Counter counts retired instructions. Both execution models of a core
// advance the same counter, so instruction-count triggers observe one
// continuous stream across model switches.
type Counter struct {
	retired uint64
}

// NewCounter creates a counter at zero.
func NewCounter() *Counter {
	return &Counter{}
}

// Add advances the count by n retired instructions.
func (c *Counter) Add(n uint64) {
	c.retired += n
}

// Count returns the retired-instruction count.
func (c *Counter) Count() uint64 {
	return c.retired
}

// Set overwrites the count. Used when restoring checkpointed state.
func (c *Counter) Set(v uint64) {
	c.retired = v
}
