package alloc

import (
	"fmt"
	"sync"
)

const defaultArenaCapacity = 1 << 16

type (
	// ArenaConf configures an Arena.
	ArenaConf struct {
		// Capacity is the number of slots in the backing region.
		Capacity int `yaml:"capacity"`
		// Granule is the allocation unit in slots. Requests are rounded up
		// to a multiple of it, so in-place requests may return more than
		// asked for.
		Granule int `yaml:"granule"`
	}

	// ArenaStats is a point-in-time view of an arena.
	ArenaStats struct {
		Capacity int
		Used     int
		Extents  int
	}

	// Arena hands out blocks from one fixed region. Blocks are first-fit
	// extents, so a block followed by free space can grow without moving and
	// any block can release its tail.
	Arena[T any] struct {
		mu      sync.Mutex
		region  []T
		granule int
		extents []extent
	}

	extent struct {
		off, n int
	}
)

var (
	_ Provider[int]         = (*Arena[int])(nil)
	_ AtLeastAllocator[int] = (*Arena[int])(nil)
	_ Expander[int]         = (*Arena[int])(nil)
	_ Shrinker[int]         = (*Arena[int])(nil)
	_ BoundedResizer[int]   = (*Arena[int])(nil)
)

// NewArena creates an arena with the given configuration.
func NewArena[T any](conf ArenaConf) *Arena[T] {
	defaultArenaConf(&conf)
	return &Arena[T]{
		region:  make([]T, conf.Capacity),
		granule: conf.Granule,
	}
}

func defaultArenaConf(conf *ArenaConf) {
	if conf.Capacity <= 0 {
		conf.Capacity = defaultArenaCapacity
	}
	if conf.Granule <= 0 {
		conf.Granule = 1
	}
}

// Allocate implements Provider.
func (a *Arena[T]) Allocate(n int) ([]T, error) {
	block, err := a.AllocateAtLeast(n)
	if err != nil {
		return nil, err
	}
	return block[:n:n], nil
}

// AllocateAtLeast implements AtLeastAllocator. The block length is the
// request rounded up to the granule.
func (a *Arena[T]) AllocateAtLeast(n int) ([]T, error) {
	if n < 0 {
		return nil, fmt.Errorf("arena: allocate %d slots: %w", n, ErrLength)
	}
	if n == 0 {
		return nil, nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	size := a.roundUp(n)
	prev := 0
	for i, e := range a.extents {
		if e.off-prev >= size {
			return a.insert(i, prev, size), nil
		}
		prev = e.off + e.n
	}
	if len(a.region)-prev >= size {
		return a.insert(len(a.extents), prev, size), nil
	}
	return nil, fmt.Errorf("arena: allocate %d slots (%d free): %w", n, a.free(), ErrOutOfMemory)
}

// Deallocate implements Provider. It panics on blocks the arena did not
// hand out.
func (a *Arena[T]) Deallocate(block []T) {
	if len(block) == 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	i := a.find(block)
	if i < 0 {
		panic("arena: deallocate of foreign block")
	}
	a.extents = append(a.extents[:i], a.extents[i+1:]...)
}

func (a *Arena[T]) Construct(slot *T, v T) {
	*slot = v
}

func (a *Arena[T]) Destroy(slot *T) {
	var zero T
	*slot = zero
}

// ExpandBy implements Expander. It grows the block into the free gap that
// follows it.
func (a *Arena[T]) ExpandBy(block []T, preferred, least int) ([]T, bool) {
	if len(block) == 0 || least < 0 {
		return block, false
	}
	if preferred < least {
		preferred = least
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	i := a.find(block)
	if i < 0 {
		return block, false
	}
	avail := a.limit(i) - a.extents[i].off
	old := len(block)
	if least > avail-old {
		return block, false
	}
	want := avail
	if preferred <= avail-old {
		want = min(a.roundUp(old+preferred), avail)
	}
	return a.resize(i, want), true
}

// ShrinkBy implements Shrinker. It fails when the granule keeps it from
// dropping n slots or when the block would become empty.
func (a *Arena[T]) ShrinkBy(block []T, n int) ([]T, bool) {
	old := len(block)
	if old == 0 || n <= 0 || n >= old {
		return block, false
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	i := a.find(block)
	if i < 0 {
		return block, false
	}
	want := a.roundUp(old - n)
	if want > old-n {
		return block, false
	}
	return a.resize(i, want), true
}

// ResizeBounded implements BoundedResizer.
func (a *Arena[T]) ResizeBounded(block []T, preferred, least int) ([]T, bool) {
	if len(block) == 0 || least <= 0 || preferred < least {
		return block, false
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	i := a.find(block)
	if i < 0 {
		return block, false
	}
	avail := a.limit(i) - a.extents[i].off
	want := preferred
	if want > avail {
		if least > avail {
			return block, false
		}
		want = avail
	}
	if r := a.roundUp(want); r <= avail {
		want = r
	}
	return a.resize(i, want), true
}

// Stats reports the arena usage.
func (a *Arena[T]) Stats() ArenaStats {
	a.mu.Lock()
	defer a.mu.Unlock()

	return ArenaStats{
		Capacity: len(a.region),
		Used:     len(a.region) - a.free(),
		Extents:  len(a.extents),
	}
}

func (a *Arena[T]) insert(i, off, n int) []T {
	a.extents = append(a.extents, extent{})
	copy(a.extents[i+1:], a.extents[i:])
	a.extents[i] = extent{off: off, n: n}
	return a.region[off : off+n : off+n]
}

func (a *Arena[T]) resize(i, n int) []T {
	e := &a.extents[i]
	e.n = n
	return a.region[e.off : e.off+n : e.off+n]
}

// find returns the index of the extent starting at the block base.
func (a *Arena[T]) find(block []T) int {
	base := &block[0]
	for i, e := range a.extents {
		if e.off < len(a.region) && &a.region[e.off] == base {
			return i
		}
	}
	return -1
}

// limit returns the first offset past the gap that follows extent i.
func (a *Arena[T]) limit(i int) int {
	if i+1 < len(a.extents) {
		return a.extents[i+1].off
	}
	return len(a.region)
}

func (a *Arena[T]) free() int {
	used := 0
	for _, e := range a.extents {
		used += e.n
	}
	return len(a.region) - used
}

func (a *Arena[T]) roundUp(n int) int {
	if a.granule <= 1 {
		return n
	}
	r := (n + a.granule - 1) / a.granule * a.granule
	if r < n {
		return n
	}
	return r
}
