package channel

import "sync"

// MemChannel is an in-memory Channel for tests.
type MemChannel struct {
	mu    sync.Mutex
	stop  bool
	abort bool
}

func NewMemChannel() *MemChannel { return &MemChannel{} }

func (c *MemChannel) PostStop() error {
	c.mu.Lock()
	c.stop = true
	c.mu.Unlock()
	return nil
}

func (c *MemChannel) PostAbort() error {
	c.mu.Lock()
	c.abort = true
	c.mu.Unlock()
	return nil
}

func (c *MemChannel) ClearStop() error {
	c.mu.Lock()
	c.stop = false
	c.mu.Unlock()
	return nil
}

func (c *MemChannel) ClearAbort() error {
	c.mu.Lock()
	c.abort = false
	c.mu.Unlock()
	return nil
}

func (c *MemChannel) ClearAbortEscalateToStop() error {
	c.mu.Lock()
	c.stop = true
	c.abort = false
	c.mu.Unlock()
	return nil
}

func (c *MemChannel) StopRequested() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stop, nil
}

func (c *MemChannel) AbortRequested() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.abort, nil
}
