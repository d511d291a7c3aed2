package container

import (
	"errors"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"xalloc/alloc"
	"xalloc/container/growth"
	"xalloc/container/recycler"
	"xalloc/metrics"
)

// scenario runs the push/pop/shrink walk-through from an empty array with
// two slots.
func scenario[P alloc.Provider[int]](t *testing.T, p P) {
	t.Helper()
	arr, err := NewArray[int](p, 0, WithCapacity(2))
	require.NoError(t, err)
	require.Equal(t, 2, arr.Cap())

	require.NoError(t, arr.PushBack(1))
	require.NoError(t, arr.PushBack(2))
	assert.Equal(t, 2, arr.Len())
	assert.Equal(t, 2, arr.Cap())

	require.NoError(t, arr.PushBack(3))
	assert.Equal(t, 3, arr.Len())
	assert.GreaterOrEqual(t, arr.Cap(), 3)

	require.NoError(t, arr.PushBack(4))
	assert.Equal(t, 4, arr.Len())
	assert.GreaterOrEqual(t, arr.Cap(), 4)

	before := arr.Cap()
	assert.Equal(t, 4, arr.PopBack())
	assert.Equal(t, 3, arr.Len())
	assert.Equal(t, before, arr.Cap())

	require.NoError(t, arr.ShrinkToFit())
	assert.Equal(t, 3, arr.Cap())
	assert.Equal(t, []int{1, 2, 3}, arr.Values())
}

func TestArrayScenario(t *testing.T) {
	t.Run("Relocating", func(t *testing.T) {
		scenario(t, newGoProbe())
	})
	t.Run("InPlace", func(t *testing.T) {
		scenario(t, newArenaProbe(64, 1))
	})
	t.Run("Blocked", func(t *testing.T) {
		// The neighbour right after the first block forces relocation,
		// while shrinking still happens in place.
		p := newArenaProbe(64, 1)
		first, err := p.AllocateAtLeast(2)
		require.NoError(t, err)
		_, err = p.AllocateAtLeast(2)
		require.NoError(t, err)
		p.Deallocate(first)
		scenario(t, p)
	})
}

func TestArrayNewWithInitial(t *testing.T) {
	p := newGoProbe()
	arr, err := NewArray[int](p, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, arr.Len())
	assert.Equal(t, 3, arr.Cap())
	assert.Equal(t, []int{0, 0, 0}, arr.Values())
	assert.Equal(t, 3, p.constructs)
	assert.False(t, arr.Empty())
}

func TestArrayZeroCopyExpand(t *testing.T) {
	p := newArenaProbe(128, 1)
	arr, err := NewArray[int](p, 0, WithCapacity(4))
	require.NoError(t, err)
	for i := range 4 {
		require.NoError(t, arr.PushBack(i))
	}
	first := arr.Ref(0)
	constructs, destroys := p.constructs, p.destroys

	require.NoError(t, arr.PushBack(4))
	assert.Equal(t, 8, arr.Cap())
	assert.Same(t, first, arr.Ref(0), "element 0 did not move")
	assert.Equal(t, constructs+1, p.constructs, "only the new element is constructed")
	assert.Equal(t, destroys, p.destroys)
	assert.Equal(t, 1, p.allocs)
}

func TestArrayFallbackMovesOnce(t *testing.T) {
	stats := &metrics.Stats{}
	p := newGoProbe()
	arr, err := NewArray[int](p, 0, WithCapacity(4), WithCollector(stats))
	require.NoError(t, err)
	for i := range 4 {
		require.NoError(t, arr.PushBack(i*10))
	}
	first := arr.Ref(0)
	constructs, destroys := p.constructs, p.destroys

	require.NoError(t, arr.PushBack(40))
	assert.NotSame(t, first, arr.Ref(0))
	assert.Equal(t, constructs+4+1, p.constructs, "four moves and the new element")
	assert.Equal(t, destroys+4, p.destroys, "moved-from elements are destroyed")
	assert.Equal(t, []int{0, 10, 20, 30, 40}, arr.Values())
	snap := stats.Snapshot()
	assert.Equal(t, int64(4), snap.Relocated)
	assert.Equal(t, int64(1), snap.Attempts)
	assert.Zero(t, snap.Successes)
}

func TestArrayPushPopInvariant(t *testing.T) {
	policies := map[string]growth.Policy{
		"linear":   growth.Linear{},
		"doubling": growth.Doubling{},
		"adaptive": growth.Adaptive{Threshold: 16},
		"func":     growth.PolicyFunc(func(size, _ int) int { return size/2 + 3 }),
	}
	rng := rand.New(rand.NewPCG(1, 2))
	for name, policy := range policies {
		t.Run(name, func(t *testing.T) {
			run := func(t *testing.T, arr interface {
				PushBack(int) error
				PopBack() int
				Len() int
				Cap() int
			}) {
				n := 50 + rng.IntN(100)
				m := rng.IntN(n + 1)
				for i := range n {
					require.NoError(t, arr.PushBack(i))
					require.GreaterOrEqual(t, arr.Cap(), arr.Len())
				}
				for range m {
					arr.PopBack()
					require.GreaterOrEqual(t, arr.Cap(), arr.Len())
				}
				assert.Equal(t, n-m, arr.Len())
			}

			plain, err := NewArray[int](newGoProbe(), 0, WithPolicy(policy))
			require.NoError(t, err)
			run(t, plain)

			arena, err := NewArray[int](newArenaProbe(1<<12, 4), 0, WithPolicy(policy))
			require.NoError(t, err)
			run(t, arena)
		})
	}
}

func TestArrayGrowFallsBackToSuggestion(t *testing.T) {
	zero := growth.PolicyFunc(func(int, int) int { return 0 })
	arr, err := NewArray[int](newGoProbe(), 4, WithPolicy(zero))
	require.NoError(t, err)

	require.NoError(t, arr.PushBack(1))
	assert.Equal(t, 8, arr.Cap(), "a policy answering zero grows by the current capacity")

	empty, err := NewArray[int](newGoProbe(), 0, WithPolicy(zero))
	require.NoError(t, err)
	require.NoError(t, empty.PushBack(1))
	assert.Equal(t, 1, empty.Cap())
}

func TestArrayRoundTripKeepsCapacity(t *testing.T) {
	arr, err := NewArray[int](newGoProbe(), 0)
	require.NoError(t, err)
	for i := range 100 {
		require.NoError(t, arr.PushBack(i))
	}
	peak := arr.Cap()
	for range 100 {
		arr.PopBack()
	}
	assert.True(t, arr.Empty())
	assert.Equal(t, peak, arr.Cap())

	for i := range 10 {
		require.NoError(t, arr.PushBack(i))
	}
	arr.Clear()
	assert.Zero(t, arr.Len())
	assert.Equal(t, peak, arr.Cap())
}

func TestArrayShrinkToFit(t *testing.T) {
	t.Run("Noop", func(t *testing.T) {
		p := newGoProbe()
		arr, err := NewArray[int](p, 2)
		require.NoError(t, err)
		require.NoError(t, arr.ShrinkToFit())
		assert.Equal(t, 1, p.allocs)
	})

	t.Run("ToEmpty", func(t *testing.T) {
		arr, err := NewArray[int](newGoProbe(), 0, WithCapacity(8))
		require.NoError(t, err)
		require.NoError(t, arr.ShrinkToFit())
		assert.Zero(t, arr.Cap())

		require.NoError(t, arr.PushBack(5))
		assert.Equal(t, 1, arr.Cap())
		assert.Equal(t, 5, arr.Back())
	})

	t.Run("GranuleFallsBack", func(t *testing.T) {
		p := newArenaProbe(64, 4)
		arr, err := NewArray[int](p, 0, WithCapacity(8))
		require.NoError(t, err)
		for i := range 5 {
			require.NoError(t, arr.PushBack(i))
		}
		require.NoError(t, arr.ShrinkToFit())
		assert.Equal(t, 8, arr.Cap(), "the provider rounds the fresh block up")
		assert.Equal(t, []int{0, 1, 2, 3, 4}, arr.Values())
	})

	t.Run("KeepsLiveElements", func(t *testing.T) {
		p := greedyShrink{newGoProbe()}
		arr, err := NewArray[int](p, 0, WithCapacity(8))
		require.NoError(t, err)
		for i := range 3 {
			require.NoError(t, arr.PushBack(i + 1))
		}
		require.NoError(t, arr.ShrinkToFit())
		assert.Equal(t, 3, arr.Cap())
		assert.Equal(t, []int{1, 2, 3}, arr.Values())
		assert.Equal(t, 3, arr.At(2))
		assert.Equal(t, 2, p.allocs, "the over-short block is refused and the elements move")
	})
}

func TestArrayOutOfMemory(t *testing.T) {
	p := newArenaProbe(4, 1)
	arr, err := NewArray[int](p, 0, WithCapacity(4))
	require.NoError(t, err)
	for i := range 4 {
		require.NoError(t, arr.PushBack(i))
	}

	err = arr.PushBack(4)
	assert.True(t, errors.Is(err, alloc.ErrOutOfMemory))
	assert.Equal(t, 4, arr.Len())
	assert.Equal(t, 4, arr.Cap())
	assert.Equal(t, []int{0, 1, 2, 3}, arr.Values())

	_, err = NewArray[int](newArenaProbe(4, 1), 5)
	assert.True(t, errors.Is(err, alloc.ErrOutOfMemory))
}

func TestArrayLengthError(t *testing.T) {
	arr, err := NewArray[struct{}](alloc.GoProvider[struct{}]{}, 0)
	require.NoError(t, err)
	err = arr.Reserve(arr.MaxLen())
	require.NoError(t, err)

	require.NoError(t, arr.PushBack(struct{}{}))
	arr.next = arr.Cap()
	err = arr.PushBack(struct{}{})
	assert.True(t, errors.Is(err, alloc.ErrLength))

	_, err = NewArray[int](alloc.GoProvider[int]{}, alloc.MaxCapacity[int]()+1)
	assert.True(t, errors.Is(err, alloc.ErrLength))

	small, err := NewArray[int](alloc.GoProvider[int]{}, 0)
	require.NoError(t, err)
	assert.True(t, errors.Is(small.Reserve(alloc.MaxCapacity[int]()+1), alloc.ErrLength))
}

func TestArrayReserve(t *testing.T) {
	t.Run("InPlace", func(t *testing.T) {
		p := newArenaProbe(64, 1)
		arr, err := NewArray[int](p, 2)
		require.NoError(t, err)
		first := arr.Ref(0)

		require.NoError(t, arr.Reserve(20))
		assert.Equal(t, 20, arr.Cap())
		assert.Same(t, first, arr.Ref(0))
		require.NoError(t, arr.Reserve(10))
		assert.Equal(t, 20, arr.Cap())
	})

	t.Run("Relocating", func(t *testing.T) {
		arr, err := NewArray[int](newGoProbe(), 2)
		require.NoError(t, err)
		arr.Set(1, 9)
		require.NoError(t, arr.Reserve(20))
		assert.Equal(t, 20, arr.Cap())
		assert.Equal(t, []int{0, 9}, arr.Values())
	})
}

func TestArrayRecycle(t *testing.T) {
	arr, err := NewArray[int](newGoProbe(), 0, WithCapacity(16), WithRecycler(recycler.Slack{Max: 8}))
	require.NoError(t, err)
	for i := range 10 {
		require.NoError(t, arr.PushBack(i))
	}

	shrunk, err := arr.Recycle()
	require.NoError(t, err)
	assert.False(t, shrunk)
	assert.Equal(t, 16, arr.Cap())

	for range 6 {
		arr.PopBack()
	}
	shrunk, err = arr.Recycle()
	require.NoError(t, err)
	assert.True(t, shrunk)
	assert.Equal(t, 4, arr.Cap())
}

func TestArrayAccessors(t *testing.T) {
	arr, err := NewArray[int](alloc.SizeClassProvider[int]{}, 0)
	require.NoError(t, err)
	for i := range 5 {
		require.NoError(t, arr.PushBack(i * i))
	}
	assert.Equal(t, 9, arr.At(3))
	arr.Set(3, -1)
	assert.Equal(t, -1, arr.At(3))
	assert.Equal(t, 16, arr.Back())

	var got []int
	for i, v := range arr.All() {
		assert.Equal(t, arr.At(i), v)
		got = append(got, v)
		if i == 2 {
			break
		}
	}
	assert.Equal(t, []int{0, 1, 4}, got)
	assert.True(t, slices.Equal([]int{0, 1, 4, -1, 16}, arr.Values()))
	assert.Equal(t, alloc.CapFeedback|alloc.CapAlwaysEqual, arr.Capabilities())
	assert.Equal(t, alloc.SizeClassProvider[int]{}, arr.Provider())
}

func TestArrayContractViolations(t *testing.T) {
	arr, err := NewArray[int](newGoProbe(), 0)
	require.NoError(t, err)
	assert.Panics(t, func() { arr.PopBack() })
	assert.Panics(t, func() { arr.Back() })
	assert.Panics(t, func() { arr.At(0) })
	require.NoError(t, arr.PushBack(1))
	assert.Panics(t, func() { arr.Set(1, 0) })
	assert.Panics(t, func() { arr.Ref(-1) })
}

func TestArrayClose(t *testing.T) {
	p := newArenaProbe(32, 1)
	arr, err := NewArray[int](p, 4)
	require.NoError(t, err)
	destroys := p.destroys

	arr.Close()
	assert.Equal(t, destroys+4, p.destroys)
	assert.Zero(t, arr.Cap())
	assert.Zero(t, p.Stats().Used)

	require.NoError(t, arr.PushBack(1))
	assert.Equal(t, 1, arr.Len())
}

func TestArrayLogsRelocation(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	arr, err := NewArray[int](newGoProbe(), 1, WithLogger(zap.New(core)))
	require.NoError(t, err)
	require.NoError(t, arr.PushBack(1))

	entries := logs.FilterMessage("array relocated").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(1), fields["size"])
	assert.Equal(t, int64(1), fields["from"])
	assert.Equal(t, int64(2), fields["to"])

	inPlace, err := NewArray[int](newArenaProbe(16, 1), 1, WithLogger(zap.New(core)))
	require.NoError(t, err)
	require.NoError(t, inPlace.PushBack(1))
	assert.Equal(t, 1, logs.FilterMessage("buffer expanded in place").Len())
}
