// Package growth holds the policies an Array consults when its buffer is
// exhausted. A policy only suggests how many slots to add; the array clamps
// the suggestion to the remaining headroom and never asks for less than one.
package growth

const adaptiveThreshold = 1024

type (
	// Policy returns how many slots to add to a full buffer.
	Policy interface {
		Additional(size, capacity int) int
	}

	// PolicyFunc adapts a function to Policy.
	PolicyFunc func(size, capacity int) int

	// Linear adds a fixed number of slots. The zero value adds one.
	Linear struct {
		Step int
	}

	// Doubling adds as many slots as the buffer already has, so N pushes
	// cost O(N) element moves in total.
	Doubling struct{}

	// Adaptive doubles small buffers and grows large ones by a quarter.
	Adaptive struct {
		// Threshold is the capacity from which growth slows down.
		Threshold int
	}
)

var (
	_ Policy = PolicyFunc(nil)
	_ Policy = Linear{}
	_ Policy = Doubling{}
	_ Policy = Adaptive{}
)

// Default is the policy arrays use unless told otherwise.
var Default Policy = Doubling{}

func (f PolicyFunc) Additional(size, capacity int) int {
	return f(size, capacity)
}

func (l Linear) Additional(int, int) int {
	if l.Step <= 0 {
		return 1
	}
	return l.Step
}

func (Doubling) Additional(_, capacity int) int {
	if capacity <= 0 {
		return 1
	}
	return capacity
}

func (a Adaptive) Additional(_, capacity int) int {
	threshold := a.Threshold
	if threshold <= 0 {
		threshold = adaptiveThreshold
	}
	switch {
	case capacity <= 0:
		return 1
	case capacity < threshold:
		return capacity
	default:
		return max(capacity/4, 1)
	}
}
