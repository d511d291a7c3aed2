package container

import (
	"fmt"
	"iter"

	"go.uber.org/zap"

	"xalloc/alloc"
	"xalloc/container/growth"
	"xalloc/container/recycler"
	"xalloc/metrics"
)

type (
	// Option configures an Array.
	Option func(o *options)

	options struct {
		capacity int
		policy   growth.Policy
		recycler recycler.Recycler
		buffer   bufferOptions
	}

	// Array is a vector-like container. When its buffer is full it first asks
	// the provider to expand the block in place and only moves the elements
	// to a new block when that fails.
	//
	// An Array is not safe for concurrent mutation.
	Array[T any, P alloc.Provider[T]] struct {
		buf  *Buffer[T, P]
		next int
		opts options
	}
)

// WithCapacity allocates room for at least n elements up front.
func WithCapacity(n int) Option {
	return func(o *options) {
		o.capacity = n
	}
}

// WithPolicy sets the growth policy. growth.Default is used otherwise.
func WithPolicy(p growth.Policy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithRecycler sets the hook Recycle consults. recycler.Always is used
// otherwise.
func WithRecycler(r recycler.Recycler) Option {
	return func(o *options) {
		o.recycler = r
	}
}

// WithCollector reports allocation events to c.
func WithCollector(c metrics.Collector) Option {
	return func(o *options) {
		o.buffer.collector = c
	}
}

// WithLogger logs resize decisions to l.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.buffer.logger = l
	}
}

func newOptions(opts ...Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.policy == nil {
		o.policy = growth.Default
	}
	if o.recycler == nil {
		o.recycler = recycler.Always{}
	}
	if o.buffer.collector == nil {
		o.buffer.collector = metrics.Nop{}
	}
	if o.buffer.logger == nil {
		o.buffer.logger = zap.NewNop()
	}
	return o
}

// NewArray creates an array holding initial zero values, backed by p.
func NewArray[T any, P alloc.Provider[T]](p P, initial int, opts ...Option) (*Array[T, P], error) {
	o := newOptions(opts...)
	buf, err := newBuffer[T](p, alloc.TraitsOf[T](p), max(initial, o.capacity), o.buffer)
	if err != nil {
		return nil, err
	}
	a := &Array[T, P]{buf: buf, opts: o}
	var zero T
	for a.next < initial {
		a.buf.Construct(a.next, zero)
		a.next++
	}
	return a, nil
}

// Len returns the number of live elements.
func (a *Array[T, P]) Len() int {
	return a.next
}

// Cap returns the number of slots in the current block.
func (a *Array[T, P]) Cap() int {
	return a.buf.Cap()
}

// Empty reports whether the array holds no elements.
func (a *Array[T, P]) Empty() bool {
	return a.next == 0
}

// MaxLen returns the largest length the array can represent.
func (a *Array[T, P]) MaxLen() int {
	return a.buf.MaxCapacity()
}

// Provider returns the memory provider backing the array.
func (a *Array[T, P]) Provider() P {
	return a.buf.Provider()
}

// Capabilities returns the in-place operations the provider supports.
func (a *Array[T, P]) Capabilities() alloc.Capability {
	return a.buf.Capabilities()
}

// At returns the element at i. It panics when i is out of range.
func (a *Array[T, P]) At(i int) T {
	return *a.slot(i)
}

// Ref returns the address of the element at i. The address stays valid
// until the elements are moved to a new block.
func (a *Array[T, P]) Ref(i int) *T {
	return a.slot(i)
}

// Set replaces the element at i. It panics when i is out of range.
func (a *Array[T, P]) Set(i int, v T) {
	*a.slot(i) = v
}

// Back returns the last element. It panics on an empty array.
func (a *Array[T, P]) Back() T {
	if a.next == 0 {
		panic("container: Back on empty array")
	}
	return *a.buf.Slot(a.next - 1)
}

// All iterates over the live elements in order.
func (a *Array[T, P]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := 0; i < a.next; i++ {
			if !yield(i, *a.buf.Slot(i)) {
				return
			}
		}
	}
}

// Values returns the live elements. The slice aliases the block and is only
// valid until the next mutation.
func (a *Array[T, P]) Values() []T {
	return a.buf.Data()[:a.next:a.next]
}

// PushBack appends v. A full buffer is expanded in place when the provider
// can do it; otherwise the elements move to a larger block.
func (a *Array[T, P]) PushBack(v T) error {
	if a.next == a.buf.Cap() {
		if err := a.grow(); err != nil {
			return err
		}
	}
	a.buf.Construct(a.next, v)
	a.next++
	return nil
}

// PopBack removes and returns the last element. It panics on an empty
// array. Capacity is kept.
func (a *Array[T, P]) PopBack() T {
	if a.next == 0 {
		panic("container: PopBack on empty array")
	}
	a.next--
	v := *a.buf.Slot(a.next)
	a.buf.Destroy(a.next)
	return v
}

// Clear removes every element. Capacity is kept.
func (a *Array[T, P]) Clear() {
	for a.next > 0 {
		a.PopBack()
	}
}

// ShrinkToFit reduces the capacity to the length, in place when the
// provider allows it.
func (a *Array[T, P]) ShrinkToFit() error {
	capacity := a.buf.Cap()
	if a.next == capacity {
		return nil
	}
	if a.buf.ShrinkBy(capacity - a.next) {
		return nil
	}
	return a.relocate(a.next)
}

// Reserve makes room for at least n elements, resizing in place when the
// provider allows it.
func (a *Array[T, P]) Reserve(n int) error {
	if n <= a.buf.Cap() {
		return nil
	}
	if n > a.buf.MaxCapacity() {
		return fmt.Errorf("reserve %d slots: %w", n, alloc.ErrLength)
	}
	if a.buf.ResizeInPlace(n, n) {
		return nil
	}
	return a.relocate(n)
}

// Recycle shrinks the array to fit when the recycler approves. It reports
// whether a shrink was attempted.
func (a *Array[T, P]) Recycle() (bool, error) {
	if !a.opts.recycler.Shrink(a.next, a.buf.Cap()) {
		return false, nil
	}
	return true, a.ShrinkToFit()
}

// Close destroys every element and releases the block. The array can be
// reused afterwards as an empty array.
func (a *Array[T, P]) Close() {
	a.Clear()
	a.buf.Release()
}

func (a *Array[T, P]) slot(i int) *T {
	if i < 0 || i >= a.next {
		panic(fmt.Sprintf("container: index %d out of range [0:%d]", i, a.next))
	}
	return a.buf.Slot(i)
}

// grow asks the policy how many slots to add. A policy answer below one
// falls back to the buffer's suggestion; any answer is capped by the
// remaining headroom.
func (a *Array[T, P]) grow() error {
	suggested, err := a.buf.AdditionalCapacity(1)
	if err != nil {
		return err
	}
	add := a.opts.policy.Additional(a.next, a.buf.Cap())
	if add < 1 {
		add = suggested
	}
	add = min(add, a.buf.MaxCapacity()-a.buf.Cap())
	if a.buf.ExpandByAtLeast(add, 1) {
		return nil
	}
	return a.relocate(a.next + add)
}

// relocate moves the live elements to a fresh block of at least n slots.
// Moves are not undone: a provider that panics in Construct halfway leaves
// the array unusable, with the moved-from prefix destroyed and the fresh
// block leaked.
func (a *Array[T, P]) relocate(n int) error {
	fresh, err := newBuffer[T](a.buf.provider, a.buf.traits, n, a.opts.buffer)
	if err != nil {
		return err
	}
	from := a.buf.Cap()
	for i := 0; i < a.next; i++ {
		fresh.Construct(i, *a.buf.Slot(i))
		a.buf.Destroy(i)
	}
	a.buf.exchange(fresh)
	fresh.Release()

	a.opts.buffer.collector.Relocation(a.next)
	a.opts.buffer.logger.Debug("array relocated",
		zap.Int("size", a.next), zap.Int("from", from), zap.Int("to", a.buf.Cap()))
	return nil
}
