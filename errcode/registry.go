package errcode

import (
	"fmt"
	"sort"
	"sync"
)

// Registry guards against two errors sharing one code
type Registry struct {
	mu    sync.RWMutex
	codes map[int]string // code -> module:msgKey
}

var globalRegistry = NewRegistry()

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{codes: make(map[int]string)}
}

// Register records err in the global registry and returns it unchanged.
// Panics when the code is already taken by a different module:msgKey.
func Register(err *LayeredError) *LayeredError {
	return globalRegistry.Register(err)
}

func (r *Registry) Register(err *LayeredError) *LayeredError {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := err.Module() + ":" + err.MsgKey()
	if existing, ok := r.codes[err.Code()]; ok {
		if existing != key {
			panic(fmt.Sprintf("error code conflict: code %d is already registered as %s, cannot register as %s",
				err.Code(), existing, key))
		}
		return err
	}

	r.codes[err.Code()] = key
	return err
}

// Codes returns the registered codes in ascending order
func (r *Registry) Codes() []int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	codes := make([]int, 0, len(r.codes))
	for c := range r.codes {
		codes = append(codes, c)
	}
	sort.Ints(codes)
	return codes
}

// Lookup returns the module:msgKey registered for code
func (r *Registry) Lookup(code int) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	key, ok := r.codes[code]
	return key, ok
}

// RegisteredCodes lists the global registry's codes
func RegisteredCodes() []int {
	return globalRegistry.Codes()
}

// LookupCode searches the global registry
func LookupCode(code int) (string, bool) {
	return globalRegistry.Lookup(code)
}
