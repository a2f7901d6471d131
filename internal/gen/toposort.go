package gen

import (
	"fmt"
	"sort"
)

// CycleError reports nodes left over by topoSort because they depend on
// each other.
type CycleError struct {
	Nodes []int
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle among %d nodes", len(e.Nodes))
}

// topoSort returns node indices ordered so that dependencies come first.
//
// depsFn(i) yields the indices that must precede i; self dependencies are
// ignored. When several nodes are ready the smallest index goes first, so
// the result is deterministic. Nodes on a cycle are appended in index
// order after everything else and reported through a *CycleError.
func topoSort(n int, depsFn func(i int) []int) ([]int, error) {
	if n <= 0 {
		return nil, nil
	}

	indeg := make([]int, n)
	out := make([][]int, n)

	for i := range n {
		for _, d := range depsFn(i) {
			if d < 0 || d >= n {
				return nil, fmt.Errorf("dependency index out of range: %d depends on %d", i, d)
			}

			if d == i {
				continue
			}

			indeg[i]++
			out[d] = append(out[d], i)
		}
	}

	for i := range out {
		sort.Ints(out[i])
	}

	var ready []int

	for i := range n {
		if indeg[i] == 0 {
			ready = append(ready, i)
		}
	}

	order := make([]int, 0, n)
	done := make([]bool, n)

	for len(ready) > 0 {
		i := ready[0]
		ready = ready[1:]

		order = append(order, i)
		done[i] = true

		for _, j := range out[i] {
			indeg[j]--
			if indeg[j] == 0 {
				k := sort.SearchInts(ready, j)
				ready = append(ready, 0)
				copy(ready[k+1:], ready[k:])
				ready[k] = j
			}
		}
	}

	if len(order) == n {
		return order, nil
	}

	cyc := &CycleError{}

	for i := range n {
		if !done[i] {
			order = append(order, i)
			cyc.Nodes = append(cyc.Nodes, i)
		}
	}

	return order, cyc
}
