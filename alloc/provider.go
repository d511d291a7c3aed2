// Package alloc defines the memory provider contract consumed by the
// containers and the capability adapter that resolves which optional
// in-place operations a provider supports.
package alloc

type (
	// Provider is the mandatory contract every memory provider implements.
	// Blocks are handed out as slices whose length is the block capacity.
	Provider[T any] interface {
		// Allocate returns a block of exactly n slots or ErrOutOfMemory.
		Allocate(n int) ([]T, error)
		// Deallocate gives a block obtained from this provider back.
		Deallocate(block []T)
		// Construct initialises the raw slot with v.
		Construct(slot *T, v T)
		// Destroy ends the lifetime of the value held by slot.
		Destroy(slot *T)
	}

	// AtLeastAllocator allocates a block of at least n slots and reports the
	// real size through the length of the returned block.
	AtLeastAllocator[T any] interface {
		AllocateAtLeast(n int) ([]T, error)
	}

	// Expander grows a block without moving it. It prefers to add preferred
	// slots, accepts anything from least upwards and reports false when it
	// cannot add least slots.
	Expander[T any] interface {
		ExpandBy(block []T, preferred, least int) ([]T, bool)
	}

	// Shrinker drops exactly n trailing slots of a block without moving it.
	// A provider that cannot release that amount reports false.
	Shrinker[T any] interface {
		ShrinkBy(block []T, n int) ([]T, bool)
	}

	// Resizer resizes a block in place to exactly n slots, or more.
	Resizer[T any] interface {
		Resize(block []T, n int) ([]T, bool)
	}

	// BoundedResizer resizes a block in place to preferred slots, accepting
	// any size from least upwards.
	BoundedResizer[T any] interface {
		ResizeBounded(block []T, preferred, least int) ([]T, bool)
	}

	// Interchangeable marks provider types whose instances may be
	// substituted for one another, so blocks can change owners freely.
	Interchangeable interface {
		AlwaysEqual()
	}
)
