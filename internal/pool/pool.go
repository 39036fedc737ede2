package pool

// Resettable is implemented by values that can be returned to a clean state.
type Resettable interface {
	Reset()
}

// Pool is a bounded free list. Put resets items before keeping them; Get hands out a kept
// item or builds a new one.
type Pool[T Resettable] struct {
	items   chan T
	newItem func() T
}

// New creates a Pool that keeps at most capacity idle items.
func New[T Resettable](capacity int, newItem func() T) *Pool[T] {
	return &Pool[T]{
		items:   make(chan T, capacity),
		newItem: newItem,
	}
}

func (p *Pool[T]) Get() T {
	select {
	case item := <-p.items:
		return item
	default:
		return p.newItem()
	}
}

// Put resets item and keeps it for reuse. Items beyond the capacity are dropped.
func (p *Pool[T]) Put(item T) {
	item.Reset()

	select {
	case p.items <- item:
	default:
	}
}

// Idle returns the number of items waiting for reuse.
func (p *Pool[T]) Idle() int {
	return len(p.items)
}
