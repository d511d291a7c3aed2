// Package container implements contiguous containers that grow and shrink
// their storage in place whenever the memory provider allows it.
package container

import (
	"fmt"

	"go.uber.org/zap"

	"xalloc/alloc"
	"xalloc/metrics"
)

type (
	// BufferOption configures a Buffer.
	BufferOption func(o *bufferOptions)

	bufferOptions struct {
		collector metrics.Collector
		logger    *zap.Logger
	}

	// Buffer owns one block of raw storage and the provider it came from.
	// It does not track which slots hold live values; its owner does.
	// A Buffer must not be copied once it owns a block: use Move.
	Buffer[T any, P alloc.Provider[T]] struct {
		provider  P
		traits    alloc.Traits[T]
		block     []T
		collector metrics.Collector
		logger    *zap.Logger
	}
)

// WithBufferCollector reports the buffer's allocation events to c.
func WithBufferCollector(c metrics.Collector) BufferOption {
	return func(o *bufferOptions) {
		o.collector = c
	}
}

// WithBufferLogger logs the buffer's resize decisions to l.
func WithBufferLogger(l *zap.Logger) BufferOption {
	return func(o *bufferOptions) {
		o.logger = l
	}
}

func newBufferOptions(opts ...BufferOption) bufferOptions {
	o := bufferOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.collector == nil {
		o.collector = metrics.Nop{}
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return o
}

// NewBuffer allocates a buffer of at least n slots from p. The capacity is
// whatever the provider reports, which may exceed n.
func NewBuffer[T any, P alloc.Provider[T]](p P, n int, opts ...BufferOption) (*Buffer[T, P], error) {
	o := newBufferOptions(opts...)
	return newBuffer[T](p, alloc.TraitsOf[T](p), n, o)
}

func newBuffer[T any, P alloc.Provider[T]](p P, traits alloc.Traits[T], n int, o bufferOptions) (*Buffer[T, P], error) {
	b := &Buffer[T, P]{
		provider:  p,
		traits:    traits,
		collector: o.collector,
		logger:    o.logger,
	}
	if n < 0 || n > b.MaxCapacity() {
		return nil, fmt.Errorf("buffer of %d slots: %w", n, alloc.ErrLength)
	}
	if n == 0 {
		return b, nil
	}
	block, err := traits.AllocateAtLeast(n)
	if err != nil {
		return nil, fmt.Errorf("buffer of %d slots: %w", n, err)
	}
	if len(block) < n {
		traits.Deallocate(block)
		return nil, fmt.Errorf("buffer of %d slots, provider gave %d: %w", n, len(block), alloc.ErrOutOfMemory)
	}
	b.block = block
	b.collector.Allocation(len(block))
	return b, nil
}

// Cap returns the capacity in elements.
func (b *Buffer[T, P]) Cap() int {
	return len(b.block)
}

// Data returns the whole block, live and raw slots alike.
func (b *Buffer[T, P]) Data() []T {
	return b.block
}

// Slot returns the address of slot i.
func (b *Buffer[T, P]) Slot(i int) *T {
	return &b.block[i]
}

// Provider returns the provider that owns the block.
func (b *Buffer[T, P]) Provider() P {
	return b.provider
}

// Capabilities returns the in-place operations the provider supports.
func (b *Buffer[T, P]) Capabilities() alloc.Capability {
	return b.traits.Capabilities()
}

// MaxCapacity returns the largest capacity the buffer can represent.
func (b *Buffer[T, P]) MaxCapacity() int {
	return alloc.MaxCapacity[T]()
}

// AdditionalCapacity suggests how many slots may be added when n more are
// needed: the current capacity (or n for an empty buffer), capped by the
// remaining headroom. It fails when n alone exceeds the headroom.
func (b *Buffer[T, P]) AdditionalCapacity(n int) (int, error) {
	capacity := b.Cap()
	remain := b.MaxCapacity() - capacity
	if n > remain {
		return 0, fmt.Errorf("add %d slots to %d: %w", n, capacity, alloc.ErrLength)
	}
	if capacity == 0 {
		capacity = n
	}
	return min(capacity, remain), nil
}

// ExpandByAtLeast grows the block in place by at least least slots,
// preferably by preferred. Nothing changes when it returns false.
func (b *Buffer[T, P]) ExpandByAtLeast(preferred, least int) bool {
	if b.block == nil || least > b.MaxCapacity()-b.Cap() {
		return false
	}
	b.collector.Attempt(metrics.OpExpand)
	grown, ok := b.traits.ExpandBy(b.block, preferred, least)
	if !ok {
		return false
	}
	b.logger.Debug("buffer expanded in place",
		zap.Int("from", len(b.block)), zap.Int("to", len(grown)), zap.Int("preferred", preferred))
	b.collector.Allocation(len(grown) - len(b.block))
	b.block = grown
	b.collector.Success(metrics.OpExpand)
	return true
}

// ShrinkBy drops at least n trailing slots in place. Nothing changes when
// it returns false.
func (b *Buffer[T, P]) ShrinkBy(n int) bool {
	if b.block == nil || n <= 0 || n > b.Cap() {
		return false
	}
	b.collector.Attempt(metrics.OpShrink)
	shrunk, ok := b.traits.ShrinkBy(b.block, n)
	if !ok {
		return false
	}
	b.logger.Debug("buffer shrunk in place",
		zap.Int("from", len(b.block)), zap.Int("to", len(shrunk)))
	b.collector.Release(len(b.block) - len(shrunk))
	b.block = shrunk
	b.collector.Success(metrics.OpShrink)
	return true
}

// ResizeInPlace resizes the block in place to preferred slots, accepting
// any size from least. Nothing changes when it returns false.
func (b *Buffer[T, P]) ResizeInPlace(preferred, least int) bool {
	if b.block == nil || least <= 0 || preferred < least || preferred > b.MaxCapacity() {
		return false
	}
	b.collector.Attempt(metrics.OpResize)
	resized, ok := b.traits.Resize(b.block, preferred, least)
	if !ok || len(resized) < least {
		return false
	}
	b.logger.Debug("buffer resized in place",
		zap.Int("from", len(b.block)), zap.Int("to", len(resized)), zap.Int("preferred", preferred))
	if delta := len(resized) - len(b.block); delta >= 0 {
		b.collector.Allocation(delta)
	} else {
		b.collector.Release(-delta)
	}
	b.block = resized
	b.collector.Success(metrics.OpResize)
	return true
}

// Construct places v into slot i through the provider.
func (b *Buffer[T, P]) Construct(i int, v T) {
	b.traits.Construct(&b.block[i], v)
}

// Destroy ends the value in slot i through the provider.
func (b *Buffer[T, P]) Destroy(i int) {
	b.traits.Destroy(&b.block[i])
}

// Move transfers the block to a new buffer and leaves b empty. No element
// is touched.
func (b *Buffer[T, P]) Move() *Buffer[T, P] {
	moved := *b
	b.block = nil
	return &moved
}

// Release gives the block back to the provider. Elements are not
// destroyed.
func (b *Buffer[T, P]) Release() {
	if b.block == nil {
		return
	}
	n := len(b.block)
	b.traits.Deallocate(b.block)
	b.block = nil
	b.collector.Release(n)
}

// exchange swaps the blocks of two buffers sharing one provider value.
func (b *Buffer[T, P]) exchange(o *Buffer[T, P]) {
	b.block, o.block = o.block, b.block
}

// Swap exchanges the blocks of a and b. Only buffers whose provider type is
// interchangeable can be swapped, which the compiler checks.
func Swap[T any, P interface {
	alloc.Provider[T]
	alloc.Interchangeable
}](a, b *Buffer[T, P]) {
	a.exchange(b)
}
