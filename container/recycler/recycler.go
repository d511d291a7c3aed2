// Package recycler defines the hook containers consult before giving
// unused capacity back to their provider.
package recycler

type (
	// Recycler is an interface that defines methods for recycling and managing memory usage of data structures.
	Recycler interface {
		// Shrink reports whether a container holding len_ elements in cap_
		// slots should release its spare capacity.
		Shrink(len_ int, cap_ int) bool
	}

	// Always approves every shrink.
	Always struct{}

	// Slack approves a shrink once more than Max slots are unused.
	Slack struct {
		Max int
	}

	// Ratio approves a shrink once capacity exceeds Factor times the length.
	Ratio struct {
		Factor int
	}
)

var (
	_ Recycler = Always{}
	_ Recycler = Slack{}
	_ Recycler = Ratio{}
)

func (Always) Shrink(len_ int, cap_ int) bool {
	return cap_ > len_
}

func (s Slack) Shrink(len_ int, cap_ int) bool {
	return cap_-len_ > s.Max
}

func (r Ratio) Shrink(len_ int, cap_ int) bool {
	factor := r.Factor
	if factor <= 1 {
		factor = 2
	}
	return cap_ > len_ && cap_ > len_*factor
}
