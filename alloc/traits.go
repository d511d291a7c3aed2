package alloc

import (
	"strings"
	"unsafe"
)

// Capability is a set of optional provider operations.
type Capability uint8

const (
	CapFeedback Capability = 1 << iota
	CapExpand
	CapShrink
	CapResize
	CapBoundedResize
	CapAlwaysEqual
)

var capNames = []struct {
	c    Capability
	name string
}{
	{CapFeedback, "feedback"},
	{CapExpand, "expand"},
	{CapShrink, "shrink"},
	{CapResize, "resize"},
	{CapBoundedResize, "bounded-resize"},
	{CapAlwaysEqual, "always-equal"},
}

// Has reports whether every capability in o is present in c.
func (c Capability) Has(o Capability) bool {
	return c&o == o
}

func (c Capability) String() string {
	if c == 0 {
		return "base"
	}
	var names []string
	for _, n := range capNames {
		if c.Has(n.c) {
			names = append(names, n.name)
		}
	}
	return "base+" + strings.Join(names, "+")
}

// Traits exposes a uniform set of operations over a provider. Optional
// operations the provider lacks report a soft failure instead of an error.
type Traits[T any] struct {
	p Provider[T]

	atLeast AtLeastAllocator[T]
	expand  Expander[T]
	shrink  Shrinker[T]
	resize  Resizer[T]
	bounded BoundedResizer[T]
	caps    Capability
}

// TraitsOf probes p once and records which optional interfaces it implements.
func TraitsOf[T any](p Provider[T]) Traits[T] {
	t := Traits[T]{p: p}
	if v, ok := p.(AtLeastAllocator[T]); ok {
		t.atLeast = v
		t.caps |= CapFeedback
	}
	if v, ok := p.(Expander[T]); ok {
		t.expand = v
		t.caps |= CapExpand
	}
	if v, ok := p.(Shrinker[T]); ok {
		t.shrink = v
		t.caps |= CapShrink
	}
	if v, ok := p.(Resizer[T]); ok {
		t.resize = v
		t.caps |= CapResize
	}
	if v, ok := p.(BoundedResizer[T]); ok {
		t.bounded = v
		t.caps |= CapBoundedResize
	}
	if _, ok := p.(Interchangeable); ok {
		t.caps |= CapAlwaysEqual
	}
	return t
}

// Provider returns the wrapped provider.
func (t Traits[T]) Provider() Provider[T] {
	return t.p
}

// Capabilities returns the optional operations resolved for the provider.
func (t Traits[T]) Capabilities() Capability {
	return t.caps
}

// AllocateAtLeast returns a block of at least n slots. Providers without
// feedback get a plain Allocate and the block is exactly n slots.
func (t Traits[T]) AllocateAtLeast(n int) ([]T, error) {
	if t.atLeast != nil {
		return t.atLeast.AllocateAtLeast(n)
	}
	return t.p.Allocate(n)
}

// Deallocate returns block to the provider.
func (t Traits[T]) Deallocate(block []T) {
	t.p.Deallocate(block)
}

// ExpandBy grows block in place by at least least slots, preferably by
// preferred. The block is returned unchanged with false when the provider
// cannot expand.
func (t Traits[T]) ExpandBy(block []T, preferred, least int) ([]T, bool) {
	if t.expand == nil {
		return block, false
	}
	grown, ok := t.expand.ExpandBy(block, preferred, least)
	if !ok || len(grown) < len(block)+least || !sameBase(grown, block) {
		return block, false
	}
	return grown, true
}

// ShrinkBy releases exactly n trailing slots of block in place.
func (t Traits[T]) ShrinkBy(block []T, n int) ([]T, bool) {
	if t.shrink == nil {
		return block, false
	}
	shrunk, ok := t.shrink.ShrinkBy(block, n)
	if !ok || len(shrunk) != len(block)-n || !sameBase(shrunk, block) {
		return block, false
	}
	return shrunk, true
}

// Resize asks for an in-place resize to preferred slots, accepting least.
// A bounded resizer is called directly; a plain resizer is tried with
// preferred and then once with least.
func (t Traits[T]) Resize(block []T, preferred, least int) ([]T, bool) {
	switch {
	case t.bounded != nil:
		if resized, ok := t.bounded.ResizeBounded(block, preferred, least); ok && sameBase(resized, block) {
			return resized, true
		}
	case t.resize != nil:
		if resized, ok := t.resize.Resize(block, preferred); ok && sameBase(resized, block) {
			return resized, true
		}
		if least != preferred {
			if resized, ok := t.resize.Resize(block, least); ok && sameBase(resized, block) {
				return resized, true
			}
		}
	}
	return block, false
}

// Construct initialises slot with v through the provider.
func (t Traits[T]) Construct(slot *T, v T) {
	t.p.Construct(slot, v)
}

// Destroy ends the lifetime of the value in slot through the provider.
func (t Traits[T]) Destroy(slot *T) {
	t.p.Destroy(slot)
}

// sameBase reports whether a starts at the same address as b. A provider
// that hands back another block has not resized in place.
func sameBase[T any](a, b []T) bool {
	return unsafe.SliceData(a) == unsafe.SliceData(b)
}
