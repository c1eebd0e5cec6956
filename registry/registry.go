// Package registry routes job payloads to task handlers by payload marker.
package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/BranchIntl/jobq/core"
	"github.com/BranchIntl/jobq/errors"
)

// Handler runs the work for a routed payload. For a prefix marker arg is
// the remainder of the payload after the marker; for an exact marker or the
// default handler it is the whole payload.
type Handler func(ctx context.Context, arg string) (string, error)

// Registry is a thread-safe payload marker registry. A marker ending in ':'
// matches any payload starting with it, the longest such marker winning;
// any other marker matches the payload exactly. Exact matches take
// precedence over prefix matches.
type Registry struct {
	mu       sync.RWMutex
	exact    map[string]Handler
	prefixes map[string]Handler
	fallback Handler
}

// NewRegistry creates a new registry
func NewRegistry() *Registry {
	return &Registry{
		exact:    make(map[string]Handler),
		prefixes: make(map[string]Handler),
	}
}

// Register adds a handler for a marker, replacing any previous one
func (r *Registry) Register(marker string, handler Handler) error {
	if marker == "" {
		return errors.ErrEmptyMarker
	}

	if handler == nil {
		return errors.ErrNilTaskFunc
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.HasSuffix(marker, ":") {
		r.prefixes[marker] = handler
	} else {
		r.exact[marker] = handler
	}
	return nil
}

// SetDefault sets the handler for payloads no marker matches
func (r *Registry) SetDefault(handler Handler) error {
	if handler == nil {
		return errors.ErrNilTaskFunc
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.fallback = handler
	return nil
}

// Get resolves the handler for a payload and the argument to pass to it
func (r *Registry) Get(payload string) (Handler, string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if handler, ok := r.exact[payload]; ok {
		return handler, payload, true
	}

	best := ""
	for marker := range r.prefixes {
		if len(marker) > len(best) && strings.HasPrefix(payload, marker) {
			best = marker
		}
	}
	if best != "" {
		return r.prefixes[best], strings.TrimPrefix(payload, best), true
	}

	if r.fallback != nil {
		return r.fallback, payload, true
	}
	return nil, "", false
}

// List returns all registered markers in sorted order
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	markers := make([]string, 0, len(r.exact)+len(r.prefixes))
	for marker := range r.exact {
		markers = append(markers, marker)
	}
	for marker := range r.prefixes {
		markers = append(markers, marker)
	}
	sort.Strings(markers)

	return markers
}

// Remove unregisters a marker
func (r *Registry) Remove(marker string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.exact, marker)
	delete(r.prefixes, marker)
	return nil
}

// Clear removes all markers and the default handler
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.exact = make(map[string]Handler)
	r.prefixes = make(map[string]Handler)
	r.fallback = nil
}

// Task returns a core.TaskFunc that dispatches each payload through the
// registry. Payloads nothing matches fail with ErrNoHandler.
func (r *Registry) Task() core.TaskFunc {
	return func(ctx context.Context, payload string) (string, error) {
		handler, arg, ok := r.Get(payload)
		if !ok {
			return "", fmt.Errorf("%w: %q", errors.ErrNoHandler, payload)
		}
		return handler(ctx, arg)
	}
}
