package alloc

import "fmt"

// GoProvider delegates to the Go runtime. It implements only the mandatory
// contract, so every resize goes through allocate-and-move.
type GoProvider[T any] struct{}

var (
	_ Provider[int]   = GoProvider[int]{}
	_ Interchangeable = GoProvider[int]{}
)

func (GoProvider[T]) Allocate(n int) ([]T, error) {
	return makeBlock[T](n)
}

func (GoProvider[T]) Deallocate([]T) {}

func (GoProvider[T]) Construct(slot *T, v T) {
	*slot = v
}

func (GoProvider[T]) Destroy(slot *T) {
	var zero T
	*slot = zero
}

// AlwaysEqual implements Interchangeable.
func (GoProvider[T]) AlwaysEqual() {}

// SizeClassProvider rounds every request up to its size class and reports
// the usable size, the way a slab allocator does. It cannot resize in place.
type SizeClassProvider[T any] struct {
	GoProvider[T]
}

var _ AtLeastAllocator[int] = SizeClassProvider[int]{}

// AllocateAtLeast implements AtLeastAllocator.
func (SizeClassProvider[T]) AllocateAtLeast(n int) ([]T, error) {
	return makeBlock[T](SizeClass(n))
}

const pageClass = 1024

// SizeClass returns the usable slot count for a request of n slots: powers
// of two up to pageClass, multiples of pageClass beyond.
func SizeClass(n int) int {
	if n <= 0 {
		return 0
	}
	if n > pageClass {
		rounded := (n + pageClass - 1) / pageClass * pageClass
		if rounded < n {
			return n
		}
		return rounded
	}
	c := 1
	for c < n {
		c <<= 1
	}
	return c
}

func makeBlock[T any](n int) (block []T, err error) {
	if n < 0 || n > MaxCapacity[T]() {
		return nil, fmt.Errorf("allocate %d slots: %w", n, ErrLength)
	}
	defer func() {
		if r := recover(); r != nil {
			block, err = nil, fmt.Errorf("allocate %d slots: %w", n, ErrOutOfMemory)
		}
	}()
	return make([]T, n), nil
}
