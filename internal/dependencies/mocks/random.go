package mocks

import (
	"strings"
	"sync"

	"github.com/mcoot/rpsduel/internal/dependencies/random"
)

// MockRandom is a mock implementation of Random for testing.
// Queued values are returned in order; once exhausted Intn returns 0 and
// String returns a run of the alphabet's first character.
type MockRandom struct {
	mu      sync.Mutex
	ints    []int
	strings []string
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// Intn returns the next queued result modulo n
func (r *MockRandom) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.ints) == 0 || n <= 0 {
		return 0
	}
	v := r.ints[0]
	r.ints = r.ints[1:]
	return v % n
}

// String returns the next queued string
func (r *MockRandom) String(length int, alphabet string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.strings) == 0 {
		if alphabet == "" {
			return ""
		}
		return strings.Repeat(alphabet[:1], length)
	}
	v := r.strings[0]
	r.strings = r.strings[1:]
	return v
}

// QueueIntn adds values to the Intn result queue
func (r *MockRandom) QueueIntn(values ...int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ints = append(r.ints, values...)
}

// QueueString adds values to the String result queue
func (r *MockRandom) QueueString(values ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strings = append(r.strings, values...)
}
