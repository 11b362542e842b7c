package util

import "sync"

// ErrorCollector accumulates errors reported from one or more goroutines
// under a mutex. The driver does not use it: compiler stages report into a
// diag.Bag instead.
type ErrorCollector struct {
	mu   sync.Mutex
	errs []error
}

// NewErrorCollector returns an ErrorCollector pre-sized for n expected
// errors.
func NewErrorCollector(n int) *ErrorCollector {
	if n < 1 {
		n = 8
	}
	return &ErrorCollector{errs: make([]error, 0, n)}
}

// Append records err. Nil errors are ignored.
func (c *ErrorCollector) Append(err error) {
	if err == nil {
		return
	}
	c.mu.Lock()
	c.errs = append(c.errs, err)
	c.mu.Unlock()
}

// Len returns the number of collected errors.
func (c *ErrorCollector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.errs)
}

// Errors returns a snapshot of the collected errors.
func (c *ErrorCollector) Errors() []error {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]error, len(c.errs))
	copy(out, c.errs)
	return out
}
