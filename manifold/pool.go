package manifold

import (
	"log"
	"sync"

	"github.com/akmonengine/stride/actor"
	"github.com/pkg/errors"
)

const DefaultCapacity = 4096

var (
	// ErrPoolExhausted is raised when the slab is full and the heap fallback is disabled
	ErrPoolExhausted = errors.New("manifold pool exhausted")
	// ErrNotLive is raised when releasing a manifold the pool does not hold
	ErrNotLive = errors.New("manifold is not live in this pool")
)

type PoolConfig struct {
	// Capacity is the number of manifolds preallocated in the slab
	Capacity int
	// AllowOverflow lets Acquire fall back to the heap once the slab is full
	AllowOverflow bool
	Logger        *log.Logger
}

func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		Capacity:      DefaultCapacity,
		AllowOverflow: true,
		Logger:        log.Default(),
	}
}

// Pool hands out manifolds from a preallocated slab and keeps the live ones
// in a dense array, each manifold storing its own index in that array.
// Acquire and Release are safe for concurrent use, the read accessors are not.
type Pool struct {
	mu sync.Mutex

	slab []ContactManifold
	free []int
	live []*ContactManifold

	allowOverflow bool
	overflowLive  int
	// exhausted is set for the duration of an overflow episode, to warn only once
	exhausted bool
	logger    *log.Logger
}

func NewPool(cfg PoolConfig) *Pool {
	if cfg.Capacity < 0 {
		cfg.Capacity = 0
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}

	p := &Pool{
		slab:          make([]ContactManifold, cfg.Capacity),
		free:          make([]int, cfg.Capacity),
		live:          make([]*ContactManifold, 0, cfg.Capacity),
		allowOverflow: cfg.AllowOverflow,
		logger:        cfg.Logger,
	}
	// pop from the end hands out slot 0 first
	for i := range p.free {
		p.free[i] = cfg.Capacity - 1 - i
	}

	return p
}

// Acquire returns an empty manifold for the pair, registered in the live array
func (p *Pool) Acquire(bodyA, bodyB *actor.RigidBody) *ContactManifold {
	p.mu.Lock()
	defer p.mu.Unlock()

	var m *ContactManifold
	if n := len(p.free); n > 0 {
		slot := p.free[n-1]
		p.free = p.free[:n-1]
		m = &p.slab[slot]
		m.slot = slot
		m.overflow = false
	} else {
		if !p.allowOverflow {
			panic(errors.Wrapf(ErrPoolExhausted, "capacity %d reached with heap fallback disabled", len(p.slab)))
		}
		if !p.exhausted {
			p.exhausted = true
			p.logger.Printf("stride: manifold pool capacity %d exhausted, falling back to heap allocation", len(p.slab))
		}
		m = &ContactManifold{slot: -1, overflow: true}
		p.overflowLive++
	}

	m.reset(bodyA, bodyB)
	m.poolIndex = len(p.live)
	p.live = append(p.live, m)

	return m
}

// Release removes a live manifold by swapping the last live manifold into its index.
// The manifold must not be used afterwards, its slab cell is recycled.
func (p *Pool) Release(m *ContactManifold) {
	p.mu.Lock()
	defer p.mu.Unlock()

	index := m.poolIndex
	if index < 0 || index >= len(p.live) || p.live[index] != m {
		panic(errors.Wrapf(ErrNotLive, "release of manifold with index %d", index))
	}

	last := len(p.live) - 1
	moved := p.live[last]
	p.live[index] = moved
	moved.poolIndex = index
	p.live[last] = nil
	p.live = p.live[:last]

	m.poolIndex = -1
	m.BodyA, m.BodyB = nil, nil
	m.count = 0

	if m.overflow {
		p.overflowLive--
		if p.overflowLive == 0 {
			p.exhausted = false
		}
		return
	}
	p.free = append(p.free, m.slot)
}

// Len returns the number of live manifolds
func (p *Pool) Len() int {
	return len(p.live)
}

// At returns the live manifold stored at index i
func (p *Pool) At(i int) *ContactManifold {
	return p.live[i]
}

// Cap returns the slab capacity
func (p *Pool) Cap() int {
	return len(p.slab)
}

// OverflowCount returns the number of live heap-allocated manifolds
func (p *Pool) OverflowCount() int {
	return p.overflowLive
}

// Each calls fn on every live manifold in index order
func (p *Pool) Each(fn func(m *ContactManifold)) {
	for _, m := range p.live {
		fn(m)
	}
}
