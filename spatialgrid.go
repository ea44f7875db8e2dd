package stride

import (
	"math"
	"sort"
	"sync"

	"github.com/akmonengine/stride/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// CellKey is the integer coordinate of a grid cell
type CellKey struct {
	X, Y, Z int
}

// Cell holds the indices of the bodies overlapping it
type Cell struct {
	bodyIndices []int
}

// Pair is a pair of bodies whose bounds overlap. BodyA always precedes BodyB in the world order.
type Pair struct {
	BodyA *actor.RigidBody
	BodyB *actor.RigidBody
}

// Filter is the collision group of a body and the mask of groups it accepts to touch
type Filter struct {
	Group uint32
	Mask  uint32
}

// DefaultFilter collides with everything
var DefaultFilter = Filter{Group: 1, Mask: math.MaxUint32}

// Accepts is true when each side belongs to a group the other side's mask lets through
func (f Filter) Accepts(other Filter) bool {
	return f.Group&other.Mask != 0 && other.Group&f.Mask != 0
}

// SpatialGrid is a uniform hashed grid used by the broad phase
type SpatialGrid struct {
	cellSize float64
	cells    []Cell
	cellMask int
	// large holds the bodies spanning more cells than the grid has, they are tested against everyone
	large []int
}

// NewSpatialGrid rounds numCells up to a power of two
func NewSpatialGrid(cellSize float64, numCells int) *SpatialGrid {
	numCells = nextPowerOfTwo(numCells)

	cells := make([]Cell, numCells)
	for i := range cells {
		cells[i].bodyIndices = make([]int, 0, 8)
	}

	return &SpatialGrid{
		cellSize: cellSize,
		cells:    cells,
		cellMask: numCells - 1,
	}
}

func nextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++
	return n
}

// Insert registers a body index in every cell its bounds cover
func (sg *SpatialGrid) Insert(bodyIndex int, aabb actor.AABB) {
	minCell := sg.worldToCell(aabb.Min)
	maxCell := sg.worldToCell(aabb.Max)

	if sg.spansTooManyCells(minCell, maxCell) {
		sg.large = append(sg.large, bodyIndex)
		return
	}

	for x := minCell.X; x <= maxCell.X; x++ {
		for y := minCell.Y; y <= maxCell.Y; y++ {
			for z := minCell.Z; z <= maxCell.Z; z++ {
				cellIdx := sg.hashCell(CellKey{x, y, z})
				sg.cells[cellIdx].bodyIndices = append(sg.cells[cellIdx].bodyIndices, bodyIndex)
			}
		}
	}
}

func (sg *SpatialGrid) spansTooManyCells(minCell, maxCell CellKey) bool {
	dx := float64(maxCell.X-minCell.X) + 1
	dy := float64(maxCell.Y-minCell.Y) + 1
	dz := float64(maxCell.Z-minCell.Z) + 1
	return dx*dy*dz > float64(len(sg.cells))
}

func (sg *SpatialGrid) Clear() {
	for i := range sg.cells {
		sg.cells[i].bodyIndices = sg.cells[i].bodyIndices[:0]
	}
	sg.large = sg.large[:0]
}

// SortCells orders each cell, pairs are then emitted in world order by a single worker
func (sg *SpatialGrid) SortCells() {
	for i := range sg.cells {
		if len(sg.cells[i].bodyIndices) > 1 {
			sort.Ints(sg.cells[i].bodyIndices)
		}
	}
	sort.Ints(sg.large)
}

// canCollide applies the cheap pair rejections before any bounds test
func canCollide(bodyA, bodyB *actor.RigidBody, filterA, filterB Filter) bool {
	if !bodyA.IsDynamic() && !bodyB.IsDynamic() {
		return false
	}
	if bodyA.IsSleeping && bodyB.IsSleeping {
		return false
	}
	return filterA.Accepts(filterB)
}

// FindPairsParallel splits the bodies between workers and streams the overlapping pairs.
// Bounds are compared with margin added, so that close but separated bodies still reach
// the narrow phase. The channel is closed once every worker is done.
func (sg *SpatialGrid) FindPairsParallel(bodies []*actor.RigidBody, filters []Filter, margin float64, numWorkers int) <-chan Pair {
	numWorkers = max(1, numWorkers)

	var wg sync.WaitGroup
	pairsChan := make(chan Pair, numWorkers*10)

	bodiesPerWorker := len(bodies) / numWorkers
	if bodiesPerWorker == 0 {
		bodiesPerWorker = 1
	}

	isLarge := make([]bool, len(bodies))
	for _, i := range sg.large {
		isLarge[i] = true
	}

	for w := 0; w < numWorkers; w++ {
		startIdx := w * bodiesPerWorker
		endIdx := startIdx + bodiesPerWorker
		if w == numWorkers-1 {
			endIdx = len(bodies)
		}
		if startIdx >= len(bodies) {
			break
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()

			seen := make([]bool, len(bodies))
			emit := func(bodyIdx, otherIdx int) {
				if otherIdx <= bodyIdx || seen[otherIdx] {
					return
				}
				seen[otherIdx] = true

				bodyA, bodyB := bodies[bodyIdx], bodies[otherIdx]
				if !canCollide(bodyA, bodyB, filters[bodyIdx], filters[otherIdx]) {
					return
				}
				if bodyA.Shape.GetAABB().Expand(margin).Overlaps(bodyB.Shape.GetAABB()) {
					pairsChan <- Pair{BodyA: bodyA, BodyB: bodyB}
				}
			}

			for bodyIdx := start; bodyIdx < end; bodyIdx++ {
				clear(seen)

				if isLarge[bodyIdx] {
					for otherIdx := bodyIdx + 1; otherIdx < len(bodies); otherIdx++ {
						emit(bodyIdx, otherIdx)
					}
					continue
				}

				aabb := bodies[bodyIdx].Shape.GetAABB().Expand(margin)
				minCell := sg.worldToCell(aabb.Min)
				maxCell := sg.worldToCell(aabb.Max)

				for x := minCell.X; x <= maxCell.X; x++ {
					for y := minCell.Y; y <= maxCell.Y; y++ {
						for z := minCell.Z; z <= maxCell.Z; z++ {
							cellIdx := sg.hashCell(CellKey{x, y, z})
							for _, otherIdx := range sg.cells[cellIdx].bodyIndices {
								emit(bodyIdx, otherIdx)
							}
						}
					}
				}
				for _, otherIdx := range sg.large {
					emit(bodyIdx, otherIdx)
				}
			}
		}(startIdx, endIdx)
	}

	go func() {
		wg.Wait()
		close(pairsChan)
	}()

	return pairsChan
}

func (sg *SpatialGrid) worldToCell(pos mgl64.Vec3) CellKey {
	return CellKey{
		X: int(math.Floor(pos.X() / sg.cellSize)),
		Y: int(math.Floor(pos.Y() / sg.cellSize)),
		Z: int(math.Floor(pos.Z() / sg.cellSize)),
	}
}

func (sg *SpatialGrid) hashCell(key CellKey) int {
	h := (key.X * 73856093) ^ (key.Y * 19349663) ^ (key.Z * 83492791)
	return h & sg.cellMask
}
