// Package jobs runs side-effect intents emitted by the content service in
// the background.
package jobs

import (
	"context"
	"log"
	"sync"

	"folio/api/internal/content"
)

// Handler executes one intent kind.
type Handler func(ctx context.Context, intent content.Intent) error

// Dispatcher maps intent kinds to handlers and runs them fire-and-forget.
// A failed handler is logged, never retried into the request path.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	wg       sync.WaitGroup
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]Handler)}
}

func (d *Dispatcher) Register(kind string, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[kind] = handler
}

// Dispatch runs each intent on its own goroutine. Unknown kinds are logged
// and skipped. Callers pass their request context; handlers must outlive the
// request, so cancellation is stripped while values are kept.
func (d *Dispatcher) Dispatch(ctx context.Context, intents ...content.Intent) {
	ctx = context.WithoutCancel(ctx)
	for _, intent := range intents {
		d.mu.RLock()
		handler, ok := d.handlers[intent.Kind]
		d.mu.RUnlock()
		if !ok {
			log.Printf("jobs: no handler for intent %q (item %s)", intent.Kind, intent.ItemID)
			continue
		}

		d.wg.Add(1)
		go func(intent content.Intent, handler Handler) {
			defer d.wg.Done()
			if err := handler(ctx, intent); err != nil {
				log.Printf("jobs: intent %q for item %s: %v", intent.Kind, intent.ItemID, err)
			}
		}(intent, handler)
	}
}

// Wait blocks until all dispatched intents finish. Used by shutdown and
// tests.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
