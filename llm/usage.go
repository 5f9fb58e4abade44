package llm

import "sync"

// UsageTracker accumulates token usage across calls. The zero value is
// ready to use and safe for concurrent use.
type UsageTracker struct {
	mu    sync.Mutex
	total Usage
	calls int
}

// Add records the usage of one call.
func (t *UsageTracker) Add(u Usage) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if u.TotalTokens == 0 {
		u.TotalTokens = u.PromptTokens + u.CompletionTokens
	}
	t.total = t.total.Add(u)
	t.calls++
}

// Snapshot returns the running totals.
func (t *UsageTracker) Snapshot() Usage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total
}

// Calls returns the number of recorded calls.
func (t *UsageTracker) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

// Reset clears the totals and returns what they were.
func (t *UsageTracker) Reset() Usage {
	t.mu.Lock()
	defer t.mu.Unlock()
	prev := t.total
	t.total = Usage{}
	t.calls = 0
	return prev
}
