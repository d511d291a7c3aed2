package container

import "xalloc/alloc"

// counter records provider traffic so tests can tell in-place growth from
// relocation.
type counter struct {
	allocs     int
	constructs int
	destroys   int
}

// goProbe has only the mandatory provider operations.
type goProbe struct {
	alloc.GoProvider[int]
	*counter
}

func newGoProbe() goProbe {
	return goProbe{counter: &counter{}}
}

func (p goProbe) Allocate(n int) ([]int, error) {
	p.allocs++
	return p.GoProvider.Allocate(n)
}

func (p goProbe) Construct(slot *int, v int) {
	p.constructs++
	p.GoProvider.Construct(slot, v)
}

func (p goProbe) Destroy(slot *int) {
	p.destroys++
	p.GoProvider.Destroy(slot)
}

// arenaProbe can expand, shrink and resize in place.
type arenaProbe struct {
	*alloc.Arena[int]
	*counter
}

func newArenaProbe(capacity, granule int) arenaProbe {
	return arenaProbe{
		Arena:   alloc.NewArena[int](alloc.ArenaConf{Capacity: capacity, Granule: granule}),
		counter: &counter{},
	}
}

func (p arenaProbe) AllocateAtLeast(n int) ([]int, error) {
	p.allocs++
	return p.Arena.AllocateAtLeast(n)
}

func (p arenaProbe) Construct(slot *int, v int) {
	p.constructs++
	p.Arena.Construct(slot, v)
}

func (p arenaProbe) Destroy(slot *int) {
	p.destroys++
	p.Arena.Destroy(slot)
}

// greedyShrink claims to shrink every block down to one slot.
type greedyShrink struct {
	goProbe
}

func (greedyShrink) ShrinkBy(block []int, n int) ([]int, bool) {
	return block[:1:1], true
}
