package classroom

import "sync"

// OptionCache holds the most recently observed open poll's option set.
// It is single-writer (the Reconciler) and multi-reader; readers must
// tolerate staleness. An empty cache means no poll is known to be open.
type OptionCache struct {
	mu      sync.RWMutex
	prompt  string
	options []string
}

// Set replaces the cached prompt and option set.
func (c *OptionCache) Set(prompt string, options []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompt = prompt
	c.options = append([]string(nil), options...)
}

// Clear empties the cache. Called whenever the upstream reports the poll
// closed or absent.
func (c *OptionCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompt = ""
	c.options = nil
}

// Options returns a copy of the cached option set.
func (c *OptionCache) Options() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.options...)
}

// Prompt returns the last cached poll prompt.
func (c *OptionCache) Prompt() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.prompt
}

// Empty reports whether the cache holds no options.
func (c *OptionCache) Empty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.options) == 0
}
