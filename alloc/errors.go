package alloc

import (
	"errors"
	"math"
	"unsafe"
)

var (
	// ErrOutOfMemory reports that a provider could not satisfy an allocation.
	ErrOutOfMemory = errors.New("alloc: out of memory")
	// ErrLength reports that a capacity would exceed the representable size.
	ErrLength = errors.New("alloc: length exceeds max capacity")
)

// MaxCapacity returns the largest element count of T whose byte size still
// fits in an int.
func MaxCapacity[T any]() int {
	var zero T
	size := int(unsafe.Sizeof(zero))
	if size == 0 {
		return math.MaxInt
	}
	return math.MaxInt / size
}
