package plan

import "sync"

// FirstCustomID is the first identifier handed out to user-defined test cases.
const FirstCustomID = 1000

// IDAllocator hands out identifiers for user-defined test cases.
// Each session owns its own allocator; it is safe for concurrent use.
type IDAllocator struct {
	mu   sync.Mutex
	next int
}

// NewIDAllocator returns an allocator starting at start, or at
// FirstCustomID when start is not positive.
func NewIDAllocator(start int) *IDAllocator {
	if start <= 0 {
		start = FirstCustomID
	}
	return &IDAllocator{next: start}
}

// Next returns a fresh identifier.
func (a *IDAllocator) Next() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := a.next
	a.next++
	return id
}

// Peek returns the identifier the next call to Next will return.
func (a *IDAllocator) Peek() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.next
}
