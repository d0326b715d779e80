package control

import "sync"

// Latest keeps the most recent frame for readers outside the loop.
type Latest struct {
	mu    sync.RWMutex
	frame Frame
	ok    bool
}

func (l *Latest) Observe(f Frame) {
	l.mu.Lock()
	l.frame, l.ok = f, true
	l.mu.Unlock()
}

// Get returns the last frame and whether one has been seen yet.
func (l *Latest) Get() (Frame, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.frame, l.ok
}
