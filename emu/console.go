package emu

// Console is the machine's output device. OUT instructions append one
// value per execution; the collected stream is part of checkpointed
// machine state so a restored run continues where the captured run left
// off.
type Console struct {
	values []uint64
}

// NewConsole creates an empty console.
func NewConsole() *Console {
	return &Console{}
}

// Append records one output value.
func (c *Console) Append(v uint64) {
	c.values = append(c.values, v)
}

// Values returns a copy of the output stream so far.
func (c *Console) Values() []uint64 {
	out := make([]uint64, len(c.values))
	copy(out, c.values)
	return out
}

// Len returns the number of values written so far.
func (c *Console) Len() int {
	return len(c.values)
}

// Restore replaces the output stream.
func (c *Console) Restore(values []uint64) {
	c.values = make([]uint64, len(values))
	copy(c.values, values)
}

// Reset clears the output stream.
func (c *Console) Reset() {
	c.values = nil
}
