package dispatcher

import (
	"sync"

	"github.com/inkwell/nmd/internal/registry"
)

// ssInsertionOrder records the order Storage Servers registered in, used to
// tie-break the fewest-files CREATE selection policy.
type ssInsertionOrder struct {
	mu    sync.Mutex
	order []registry.Handle
}

func newSSInsertionOrder() *ssInsertionOrder {
	return &ssInsertionOrder{}
}

func (o *ssInsertionOrder) add(h registry.Handle) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.order = append(o.order, h)
}

func (o *ssInsertionOrder) remove(h registry.Handle) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, existing := range o.order {
		if existing == h {
			o.order = append(o.order[:i], o.order[i+1:]...)
			return
		}
	}
}

func (o *ssInsertionOrder) snapshot() []registry.Handle {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]registry.Handle, len(o.order))
	copy(out, o.order)
	return out
}
