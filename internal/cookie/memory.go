package cookie

import "sync"

// MemoryJar is an in-process Jar. It backs tests and any context without an
// HTTP exchange. The mutex mirrors the browser jar being a single resource
// shared by concurrent writers.
type MemoryJar struct {
	mu     sync.Mutex
	values map[string]string

	// FailWrites makes Set drop the value and report false, simulating a
	// jar that silently rejects writes.
	FailWrites bool
}

var _ Jar = (*MemoryJar)(nil)

// NewMemoryJar returns an empty in-memory jar.
func NewMemoryJar() *MemoryJar {
	return &MemoryJar{values: map[string]string{}}
}

// Get returns the stored value.
func (j *MemoryJar) Get(name string) (string, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	v, ok := j.values[name]
	return v, ok
}

// Set stores the value. Options are accepted for interface parity; an
// in-process jar has no expiry or transport attributes to apply.
func (j *MemoryJar) Set(name, value string, _ Options) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.FailWrites {
		return false
	}
	j.values[name] = value
	return true
}

// Remove deletes the value.
func (j *MemoryJar) Remove(name string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	delete(j.values, name)
}

// Len reports the number of stored cookies. Test helper.
func (j *MemoryJar) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.values)
}
