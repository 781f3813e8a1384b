// Package trigger turns activation of a purchase element into a checkout
// redirect. It is the client half of the session flow: it posts a session
// request to the API and either navigates away or restores the element and
// tells the user what went wrong.
package trigger

import (
	"strings"
	"sync"

	"github.com/mindcare/checkout-api/internal/checkout"
)

// Intent is the purchase an element stands for.
type Intent struct {
	PriceReference string
	Mode           checkout.Mode
}

// Registry maps element ids to purchase intents. It is populated when the
// page initialises and read on every activation.
type Registry struct {
	mu      sync.RWMutex
	intents map[string]Intent
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{intents: make(map[string]Intent)}
}

// Register marks elementID as a purchase element. An intent with an empty
// price reference is kept: activating it aborts silently.
func (r *Registry) Register(elementID string, intent Intent) {
	id := strings.TrimSpace(elementID)
	if id == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.intents == nil {
		r.intents = make(map[string]Intent)
	}
	r.intents[id] = intent
}

// RegisterAll registers every entry of intents.
func (r *Registry) RegisterAll(intents map[string]Intent) {
	for id, intent := range intents {
		r.Register(id, intent)
	}
}

// Lookup returns the intent registered for elementID.
func (r *Registry) Lookup(elementID string) (Intent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	intent, ok := r.intents[strings.TrimSpace(elementID)]
	return intent, ok
}
